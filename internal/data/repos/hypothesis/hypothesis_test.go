package hypothesis

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/signal-noise/workbench/internal/data/repos/testutil"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
)

func ptr(s string) *string { return &s }

// invariant 4: Update snapshots the pre-image into HypothesisVersion only
// when hypothesis_text/description/reference_url/reference_type actually
// change; reusing the existing content is a no-op write.
func TestHypothesisRepo_UpdateSnapshotsOnlyOnChange(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewRepo(gdb, log)
	h, err := repo.Create(dbc, &domain.Hypothesis{HypothesisText: "H1", Description: "D1"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}

	// No-op update: same text and description.
	same, err := repo.Update(dbc, h.ID, ContentUpdate{HypothesisText: ptr("H1"), Description: ptr("D1")}, "test")
	if err != nil {
		t.Fatalf("no-op update: %v", err)
	}
	if same.HypothesisText != "H1" {
		t.Fatalf("expected unchanged text, got %q", same.HypothesisText)
	}

	var versionCount int64
	if err := tx.Model(&domain.HypothesisVersion{}).Where("hypothesis_id = ?", h.ID).Count(&versionCount).Error; err != nil {
		t.Fatalf("count versions: %v", err)
	}
	if versionCount != 0 {
		t.Fatalf("expected no version snapshot from a no-op update, got %d", versionCount)
	}

	// Real update: text changes.
	updated, err := repo.Update(dbc, h.ID, ContentUpdate{HypothesisText: ptr("H1 revised")}, "test")
	if err != nil {
		t.Fatalf("real update: %v", err)
	}
	if updated.HypothesisText != "H1 revised" {
		t.Fatalf("expected text to change, got %q", updated.HypothesisText)
	}

	if err := tx.Model(&domain.HypothesisVersion{}).Where("hypothesis_id = ?", h.ID).Count(&versionCount).Error; err != nil {
		t.Fatalf("count versions after change: %v", err)
	}
	if versionCount != 1 {
		t.Fatalf("expected exactly 1 version snapshot after a real change, got %d", versionCount)
	}

	var version domain.HypothesisVersion
	if err := tx.Where("hypothesis_id = ?", h.ID).First(&version).Error; err != nil {
		t.Fatalf("load version: %v", err)
	}
	if version.HypothesisText != "H1" {
		t.Fatalf("expected snapshot to hold the pre-image text %q, got %q", "H1", version.HypothesisText)
	}
}

// Update on a missing id must report (nil, nil) like GetByID, not a raw
// gorm.ErrRecordNotFound, so the HTTP handler's 404 branch is reachable.
func TestHypothesisRepo_UpdateMissingID(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewRepo(gdb, log)
	got, err := repo.Update(dbc, uuid.New(), ContentUpdate{HypothesisText: ptr("H1")}, "test")
	if err != nil {
		t.Fatalf("expected nil error for a missing id, got %v", err)
	}
	if got != nil {
		t.Fatalf("expected nil hypothesis for a missing id, got %+v", got)
	}
}

// invariant 7: deleting a hypothesis cascades to its links, runs,
// versions, reference cache row, and question links.
func TestHypothesisRepo_DeleteCascades(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	repo := NewRepo(gdb, log)
	h, err := repo.Create(dbc, &domain.Hypothesis{HypothesisText: "H1"})
	if err != nil {
		t.Fatalf("create hypothesis: %v", err)
	}

	src := &domain.Source{Name: "cascade-src-" + h.ID.String(), Type: domain.SourceTypeManual}
	if err := tx.Create(src).Error; err != nil {
		t.Fatalf("create source: %v", err)
	}
	doc := &domain.Document{SourceID: &src.ID, ExternalID: "ext-1", Title: "doc"}
	if err := tx.Create(doc).Error; err != nil {
		t.Fatalf("create document: %v", err)
	}
	seg := &domain.Segment{DocumentID: doc.ID, Text: "ABCDEFGHIJ"}
	if err := tx.Create(seg).Error; err != nil {
		t.Fatalf("create segment: %v", err)
	}

	link := &domain.HypothesisSegmentLink{HypothesisID: h.ID, SegmentID: seg.ID, Verdict: domain.VerdictConfirms, AuthoredBy: domain.AuthoredByHuman}
	if err := tx.Create(link).Error; err != nil {
		t.Fatalf("create link: %v", err)
	}
	run := domain.RunFrom(link, h)
	if err := tx.Create(&run).Error; err != nil {
		t.Fatalf("create run: %v", err)
	}
	if _, err := repo.Update(dbc, h.ID, ContentUpdate{Description: ptr("with a version")}, "test"); err != nil {
		t.Fatalf("update to create a version: %v", err)
	}

	if err := repo.Delete(dbc, h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}

	var linkCount, runCount, versionCount int64
	tx.Model(&domain.HypothesisSegmentLink{}).Where("hypothesis_id = ?", h.ID).Count(&linkCount)
	tx.Model(&domain.HypothesisSegmentLinkRun{}).Where("hypothesis_id = ?", h.ID).Count(&runCount)
	tx.Model(&domain.HypothesisVersion{}).Where("hypothesis_id = ?", h.ID).Count(&versionCount)
	if linkCount != 0 || runCount != 0 || versionCount != 0 {
		t.Fatalf("expected cascading delete to remove links/runs/versions, got links=%d runs=%d versions=%d", linkCount, runCount, versionCount)
	}

	remaining, err := repo.GetByID(dbc, h.ID)
	if err != nil {
		t.Fatalf("get after delete: %v", err)
	}
	if remaining != nil {
		t.Fatalf("expected hypothesis to be gone after delete")
	}
}
