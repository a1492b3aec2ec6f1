package evidence

import (
	"context"
	"testing"

	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/data/repos/testutil"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
)

func mustCreate(t *testing.T, tx *gorm.DB, v any) {
	t.Helper()
	if err := tx.Create(v).Error; err != nil {
		t.Fatalf("create %T: %v", v, err)
	}
}

func seedHypothesisAndSegment(t *testing.T, tx *gorm.DB) (*domain.Hypothesis, *domain.Segment) {
	t.Helper()
	h := &domain.Hypothesis{HypothesisText: "H1"}
	mustCreate(t, tx, h)

	src := &domain.Source{Name: "evidence-src-" + h.ID.String(), Type: domain.SourceTypeManual}
	mustCreate(t, tx, src)
	doc := &domain.Document{SourceID: &src.ID, ExternalID: "ext-1", ContentText: "ABCDEFGHIJ"}
	mustCreate(t, tx, doc)
	seg := &domain.Segment{DocumentID: doc.ID, Text: "DEF"}
	mustCreate(t, tx, seg)
	return h, seg
}

// invariant 1/2: UpsertLinkAndRun resolves to a single link row per
// (hypothesis, segment) pair, always reflecting the most recent run's
// verdict/analysis_text.
func TestEvidenceRepo_UpsertLinkAndRunReflectsLatestRun(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	h, seg := seedHypothesisAndSegment(t, tx)
	repo := NewRepo(gdb, log)

	link1, run1, err := repo.UpsertLinkAndRun(dbc, h.ID, seg.ID, domain.VerdictConfirms, "first pass", domain.AuthoredByAgent, h)
	if err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if link1.Verdict != domain.VerdictConfirms {
		t.Fatalf("expected confirms, got %q", link1.Verdict)
	}

	link2, run2, err := repo.UpsertLinkAndRun(dbc, h.ID, seg.ID, domain.VerdictNuances, "second pass", domain.AuthoredByHuman, h)
	if err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	if link2.ID != link1.ID {
		t.Fatalf("expected the same link row to be reused, got a different id")
	}
	if link2.Verdict != domain.VerdictNuances {
		t.Fatalf("expected link to reflect the latest run's verdict nuances, got %q", link2.Verdict)
	}
	if run2.ID == run1.ID {
		t.Fatalf("expected a distinct run row for the second commit")
	}

	runs, err := repo.ListRunsForLink(dbc, link1.ID)
	if err != nil {
		t.Fatalf("list runs: %v", err)
	}
	if len(runs) != 2 {
		t.Fatalf("expected 2 run rows total, got %d", len(runs))
	}

	current, err := repo.GetLink(dbc, h.ID, seg.ID)
	if err != nil {
		t.Fatalf("get link: %v", err)
	}
	if current.Verdict != domain.VerdictNuances {
		t.Fatalf("expected current link state to match latest run, got %q", current.Verdict)
	}
}

func TestEvidenceRepo_ListForSegmentOrdersByMostRecentlyUpdated(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	h1, seg := seedHypothesisAndSegment(t, tx)
	h2 := &domain.Hypothesis{HypothesisText: "H2"}
	mustCreate(t, tx, h2)

	repo := NewRepo(gdb, log)
	if _, _, err := repo.UpsertLinkAndRun(dbc, h1.ID, seg.ID, domain.VerdictConfirms, "", domain.AuthoredByAgent, h1); err != nil {
		t.Fatalf("upsert h1: %v", err)
	}
	if _, _, err := repo.UpsertLinkAndRun(dbc, h2.ID, seg.ID, domain.VerdictRefutes, "", domain.AuthoredByAgent, h2); err != nil {
		t.Fatalf("upsert h2: %v", err)
	}

	links, err := repo.ListForSegment(dbc, seg.ID)
	if err != nil {
		t.Fatalf("list for segment: %v", err)
	}
	if len(links) != 2 {
		t.Fatalf("expected 2 links for segment, got %d", len(links))
	}
	if links[0].HypothesisID != h2.ID {
		t.Fatalf("expected the most recently updated link (h2) first, got hypothesis %s", links[0].HypothesisID)
	}
}
