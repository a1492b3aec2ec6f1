package evidence

import (
	"context"
	"testing"

	"gorm.io/gorm"

	evidencerepo "github.com/signal-noise/workbench/internal/data/repos/evidence"
	hypothesisrepo "github.com/signal-noise/workbench/internal/data/repos/hypothesis"
	segmentrepo "github.com/signal-noise/workbench/internal/data/repos/segment"
	"github.com/signal-noise/workbench/internal/data/repos/testutil"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
)

func setupEngine(t *testing.T) (*Engine, *gorm.DB, *domain.Segment) {
	t.Helper()
	gdb := testutil.DB(t)
	log := testutil.Logger(t)

	src := &domain.Source{Name: "engine-test-src-" + t.Name(), Type: domain.SourceTypeManual}
	if err := gdb.Create(src).Error; err != nil {
		t.Fatalf("create source: %v", err)
	}
	doc := &domain.Document{SourceID: &src.ID, ExternalID: "ext-" + t.Name(), ContentText: "ABCDEFGHIJ"}
	if err := gdb.Create(doc).Error; err != nil {
		t.Fatalf("create document: %v", err)
	}
	start, end := 3, 6
	seg := &domain.Segment{DocumentID: doc.ID, Text: "DEF", StartOffset: &start, EndOffset: &end}
	if err := gdb.Create(seg).Error; err != nil {
		t.Fatalf("create segment: %v", err)
	}

	t.Cleanup(func() {
		gdb.Where("segment_id = ?", seg.ID).Delete(&domain.HypothesisSegmentLinkRun{})
		gdb.Where("segment_id = ?", seg.ID).Delete(&domain.HypothesisSegmentLink{})
		gdb.Where("id = ?", seg.ID).Delete(&domain.Segment{})
		gdb.Where("id = ?", doc.ID).Delete(&domain.Document{})
		gdb.Where("id = ?", src.ID).Delete(&domain.Source{})
	})

	engine := NewEngine(
		gdb,
		segmentrepo.NewRepo(gdb, log),
		hypothesisrepo.NewRepo(gdb, log),
		evidencerepo.NewRepo(gdb, log),
		nil, // refCache unused by CommitEvidence
		nil, // suggester unused by CommitEvidence
		nil, // analyzer unused by CommitEvidence
		log,
	)
	return engine, gdb, seg
}

// S2: committing evidence against a new hypothesis (hypothesis_id=null)
// produces exactly one hypothesis, one link with verdict=confirms, and
// one run whose snapshot equals {"H1", "", "", domain.ReferenceTypeNone}.
func TestCommitEvidence_S2_NewHypothesis(t *testing.T) {
	engine, gdb, seg := setupEngine(t)
	ctx := context.Background()

	result, err := engine.CommitEvidence(ctx, seg.ID, []CommitItem{{
		HypothesisText: "H1",
		Verdict:        domain.VerdictConfirms,
		AnalysisText:   "because X",
		AuthoredBy:     domain.AuthoredByHuman,
	}})
	if err != nil {
		t.Fatalf("commit evidence: %v", err)
	}
	if len(result.Links) != 1 || len(result.Runs) != 1 {
		t.Fatalf("expected exactly 1 link and 1 run, got links=%d runs=%d", len(result.Links), len(result.Runs))
	}
	link := result.Links[0]
	run := result.Runs[0]
	t.Cleanup(func() {
		gdb.Where("hypothesis_id = ?", link.HypothesisID).Delete(&domain.HypothesisVersion{})
		gdb.Where("id = ?", link.HypothesisID).Delete(&domain.Hypothesis{})
	})

	if link.Verdict != domain.VerdictConfirms {
		t.Fatalf("expected link verdict=confirms, got %q", link.Verdict)
	}

	var hypothesisCount int64
	gdb.Model(&domain.Hypothesis{}).Where("id = ?", link.HypothesisID).Count(&hypothesisCount)
	if hypothesisCount != 1 {
		t.Fatalf("expected exactly 1 new hypothesis, got %d", hypothesisCount)
	}

	if run.HypothesisTextSnapshot != "H1" {
		t.Fatalf("expected snapshot hypothesis_text=H1, got %q", run.HypothesisTextSnapshot)
	}
	if run.DescriptionSnapshot != "" || run.ReferenceURLSnapshot != "" || run.ReferenceTypeSnapshot != domain.ReferenceTypeNone {
		t.Fatalf("expected null-equivalent snapshot fields, got description=%q reference_url=%q reference_type=%q",
			run.DescriptionSnapshot, run.ReferenceURLSnapshot, run.ReferenceTypeSnapshot)
	}
}

// S3 then S4: editing the hypothesis stales the existing link; a second
// commit_evidence call for the same pair restores freshness and leaves
// exactly two run rows total for the pair.
func TestCommitEvidence_S3AndS4_EditThenReanalyze(t *testing.T) {
	engine, gdb, seg := setupEngine(t)
	log := testutil.Logger(t)
	ctx := context.Background()
	dbc := dbctx.Context{Ctx: ctx}

	result, err := engine.CommitEvidence(ctx, seg.ID, []CommitItem{{
		HypothesisText: "H1",
		Verdict:        domain.VerdictConfirms,
		AnalysisText:   "because X",
		AuthoredBy:     domain.AuthoredByHuman,
	}})
	if err != nil {
		t.Fatalf("initial commit: %v", err)
	}
	hypothesisID := result.Links[0].HypothesisID
	t.Cleanup(func() {
		gdb.Where("hypothesis_id = ?", hypothesisID).Delete(&domain.HypothesisVersion{})
		gdb.Where("id = ?", hypothesisID).Delete(&domain.Hypothesis{})
	})

	hypotheses := hypothesisrepo.NewRepo(gdb, log)
	revisedText := "H1-rev"
	if _, err := hypotheses.Update(dbc, hypothesisID, hypothesisrepo.ContentUpdate{HypothesisText: &revisedText}, "test"); err != nil {
		t.Fatalf("patch hypothesis: %v", err)
	}

	var versionCount int64
	gdb.Model(&domain.HypothesisVersion{}).Where("hypothesis_id = ? AND hypothesis_text = ?", hypothesisID, "H1").Count(&versionCount)
	if versionCount != 1 {
		t.Fatalf("expected 1 version row holding the pre-image H1, got %d", versionCount)
	}

	links, err := engine.ListEvidenceForHypothesis(ctx, hypothesisID)
	if err != nil {
		t.Fatalf("list evidence: %v", err)
	}
	if len(links) != 1 || links[0].FreshnessStatus != "stale" {
		t.Fatalf("expected exactly 1 stale link after edit, got %+v", links)
	}

	// S4: re-analyze the same pair.
	result2, err := engine.CommitEvidence(ctx, seg.ID, []CommitItem{{
		HypothesisID:   &hypothesisID,
		HypothesisText: revisedText,
		Verdict:        domain.VerdictNuances,
		AnalysisText:   "nuanced because Y",
		AuthoredBy:     domain.AuthoredByHuman,
	}})
	if err != nil {
		t.Fatalf("re-analyze commit: %v", err)
	}
	if result2.Links[0].Verdict != domain.VerdictNuances {
		t.Fatalf("expected verdict=nuances after re-analysis, got %q", result2.Links[0].Verdict)
	}

	var runCount int64
	gdb.Model(&domain.HypothesisSegmentLinkRun{}).Where("hypothesis_id = ? AND segment_id = ?", hypothesisID, seg.ID).Count(&runCount)
	if runCount != 2 {
		t.Fatalf("expected exactly 2 run rows for the pair, got %d", runCount)
	}

	links, err = engine.ListEvidenceForHypothesis(ctx, hypothesisID)
	if err != nil {
		t.Fatalf("list evidence after re-analysis: %v", err)
	}
	if len(links) != 1 || links[0].FreshnessStatus != "current" {
		t.Fatalf("expected freshness to return to current, got %+v", links)
	}
}

// Round-trip property: submitting the same commit_evidence item twice
// (the second time carrying the hypothesis_id the first one created)
// yields exactly 2 run rows and a link whose final state equals the
// payload, not a corrupted or duplicated link.
func TestCommitEvidence_DuplicateSubmissionYieldsTwoRunsOneLink(t *testing.T) {
	engine, gdb, seg := setupEngine(t)
	ctx := context.Background()

	item := CommitItem{
		HypothesisText: "H1",
		Verdict:        domain.VerdictConfirms,
		AnalysisText:   "because X",
		AuthoredBy:     domain.AuthoredByHuman,
	}
	first, err := engine.CommitEvidence(ctx, seg.ID, []CommitItem{item})
	if err != nil {
		t.Fatalf("first commit: %v", err)
	}
	hypothesisID := first.Links[0].HypothesisID
	t.Cleanup(func() {
		gdb.Where("hypothesis_id = ?", hypothesisID).Delete(&domain.HypothesisVersion{})
		gdb.Where("id = ?", hypothesisID).Delete(&domain.Hypothesis{})
	})

	item.HypothesisID = &hypothesisID
	if _, err := engine.CommitEvidence(ctx, seg.ID, []CommitItem{item}); err != nil {
		t.Fatalf("second commit: %v", err)
	}

	var linkCount, runCount int64
	gdb.Model(&domain.HypothesisSegmentLink{}).Where("hypothesis_id = ? AND segment_id = ?", hypothesisID, seg.ID).Count(&linkCount)
	gdb.Model(&domain.HypothesisSegmentLinkRun{}).Where("hypothesis_id = ? AND segment_id = ?", hypothesisID, seg.ID).Count(&runCount)
	if linkCount != 1 {
		t.Fatalf("expected exactly 1 link row, got %d", linkCount)
	}
	if runCount != 2 {
		t.Fatalf("expected exactly 2 run rows, got %d", runCount)
	}

	var link domain.HypothesisSegmentLink
	if err := gdb.Where("hypothesis_id = ? AND segment_id = ?", hypothesisID, seg.ID).First(&link).Error; err != nil {
		t.Fatalf("load link: %v", err)
	}
	if link.Verdict != domain.VerdictConfirms || link.AnalysisText != "because X" {
		t.Fatalf("expected link state to match the submitted payload, got verdict=%q analysis_text=%q", link.Verdict, link.AnalysisText)
	}
}
