package queue

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/signal-noise/workbench/internal/data/repos/testutil"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
)

// invariant 3: a source may have at most one queued IngestionRequest at
// a time. Enqueue called twice for the same source returns the existing
// row without inserting a second one.
func TestIngestionRepo_EnqueueIsIdempotentWhileQueued(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	src := &domain.Source{Name: "feed-" + uuid.New().String(), Type: domain.SourceTypeRSS, FeedURL: "https://example.com/feed"}
	if err := tx.Create(src).Error; err != nil {
		t.Fatalf("create source: %v", err)
	}

	repo := NewIngestionRepo(gdb, log)

	first, already, err := repo.Enqueue(dbc, src.ID)
	if err != nil {
		t.Fatalf("first enqueue: %v", err)
	}
	if already {
		t.Fatalf("expected first enqueue to not already be queued")
	}

	second, already, err := repo.Enqueue(dbc, src.ID)
	if err != nil {
		t.Fatalf("second enqueue: %v", err)
	}
	if !already {
		t.Fatalf("expected second enqueue to report alreadyQueued=true")
	}
	if second.ID != first.ID {
		t.Fatalf("expected second enqueue to return the existing row, got a different id")
	}

	var count int64
	if err := tx.Model(&domain.IngestionRequest{}).Where("source_id = ? AND status = ?", src.ID, domain.IngestionRequestQueued).Count(&count).Error; err != nil {
		t.Fatalf("count queued rows: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected exactly 1 queued row for source, got %d", count)
	}
}

// Once a queued request is completed, a fresh Enqueue call is free to
// create a new queued row for the same source.
func TestIngestionRepo_EnqueueAfterCompleteCreatesNewRow(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	src := &domain.Source{Name: "feed-" + uuid.New().String(), Type: domain.SourceTypeManual}
	if err := tx.Create(src).Error; err != nil {
		t.Fatalf("create source: %v", err)
	}

	repo := NewIngestionRepo(gdb, log)

	first, _, err := repo.Enqueue(dbc, src.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}
	if err := repo.Complete(dbc, first.ID); err != nil {
		t.Fatalf("complete: %v", err)
	}

	second, already, err := repo.Enqueue(dbc, src.ID)
	if err != nil {
		t.Fatalf("re-enqueue: %v", err)
	}
	if already {
		t.Fatalf("expected re-enqueue after completion to insert a new row")
	}
	if second.ID == first.ID {
		t.Fatalf("expected a distinct row id after the first request completed")
	}
}

// ClaimNext moves a queued row to in_progress; once claimed, the row is
// no longer queued, so a second ClaimNext finds nothing to claim.
func TestIngestionRepo_ClaimNextMarksInProgress(t *testing.T) {
	gdb := testutil.DB(t)
	tx := testutil.Tx(t, gdb)
	log := testutil.Logger(t)
	dbc := dbctx.Context{Ctx: context.Background(), Tx: tx}

	src := &domain.Source{Name: "feed-" + uuid.New().String(), Type: domain.SourceTypeManual}
	if err := tx.Create(src).Error; err != nil {
		t.Fatalf("create source: %v", err)
	}

	repo := NewIngestionRepo(gdb, log)
	row, _, err := repo.Enqueue(dbc, src.ID)
	if err != nil {
		t.Fatalf("enqueue: %v", err)
	}

	claimed, err := repo.ClaimNext(dbc)
	if err != nil {
		t.Fatalf("claim next: %v", err)
	}
	if claimed == nil || claimed.ID != row.ID {
		t.Fatalf("expected to claim the enqueued row")
	}
	if claimed.Status != domain.IngestionRequestInProgress {
		t.Fatalf("expected status in_progress, got %q", claimed.Status)
	}

	again, err := repo.ClaimNext(dbc)
	if err != nil {
		t.Fatalf("second claim next: %v", err)
	}
	if again != nil {
		t.Fatalf("expected no further queued rows to claim")
	}
}
