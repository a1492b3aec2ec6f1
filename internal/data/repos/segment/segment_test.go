package segment

import (
	"context"
	"testing"

	"github.com/signal-noise/workbench/internal/data/repos/testutil"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
)

// invariant 7: deleting a segment cascades to its evidence links and runs.
func TestSegmentRepo_DeleteCascadesToEvidence(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	src := &domain.Source{Name: "seg-cascade-src", Type: domain.SourceTypeManual}
	if err := tx.Create(src).Error; err != nil {
		t.Fatalf("create source: %v", err)
	}
	doc := &domain.Document{SourceID: &src.ID, ExternalID: "ext-1", ContentText: "ABCDEFGHIJ"}
	if err := tx.Create(doc).Error; err != nil {
		t.Fatalf("create document: %v", err)
	}

	repo := NewRepo(gdb, log)
	start, end := 3, 6
	seg, err := repo.Create(dbc, &domain.Segment{
		DocumentID:  doc.ID,
		Text:        "DEF",
		StartOffset: &start,
		EndOffset:   &end,
	})
	if err != nil {
		t.Fatalf("create segment: %v", err)
	}
	h := &domain.Hypothesis{HypothesisText: "H1"}
	if err := tx.Create(h).Error; err != nil {
		t.Fatalf("create hypothesis: %v", err)
	}
	link := &domain.HypothesisSegmentLink{HypothesisID: h.ID, SegmentID: seg.ID, Verdict: domain.VerdictConfirms, AuthoredBy: domain.AuthoredByHuman}
	if err := tx.Create(link).Error; err != nil {
		t.Fatalf("create link: %v", err)
	}
	run := domain.RunFrom(link, h)
	if err := tx.Create(&run).Error; err != nil {
		t.Fatalf("create run: %v", err)
	}

	if err := repo.Delete(dbc, seg.ID); err != nil {
		t.Fatalf("delete segment: %v", err)
	}

	var linkCount, runCount int64
	tx.Model(&domain.HypothesisSegmentLink{}).Where("segment_id = ?", seg.ID).Count(&linkCount)
	tx.Model(&domain.HypothesisSegmentLinkRun{}).Where("segment_id = ?", seg.ID).Count(&runCount)
	if linkCount != 0 || runCount != 0 {
		t.Fatalf("expected cascading delete, got links=%d runs=%d", linkCount, runCount)
	}

	remaining, err := repo.GetByID(dbc, seg.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if remaining != nil {
		t.Fatalf("expected segment to be gone after delete")
	}
}

func TestSegmentRepo_CharCountIsDerivedFromText(t *testing.T) {
	seg := &domain.Segment{Text: "DEF"}
	if got := seg.CharCount(); got != 3 {
		t.Fatalf("expected char count 3, got %d", got)
	}
}
