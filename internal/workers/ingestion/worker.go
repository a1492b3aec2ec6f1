// Package ingestion implements C4: cooperative poll loops over the
// ingestion queue (one by default; the concurrency argument sets how many).
package ingestion

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/queue"
	"github.com/signal-noise/workbench/internal/data/repos/source"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type Worker struct {
	queue       queue.IngestionRepo
	sources     source.Repo
	documents   document.Repo
	ingestors   map[string]adapters.Ingestor
	poll        time.Duration
	concurrency int
	log         *logger.Logger
}

func NewWorker(q queue.IngestionRepo, sources source.Repo, documents document.Repo, ingestors map[string]adapters.Ingestor, poll time.Duration, concurrency int, log *logger.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{queue: q, sources: sources, documents: documents, ingestors: ingestors, poll: poll, concurrency: concurrency, log: log.With("worker", "IngestionWorker")}
}

// Run starts w.concurrency poll loops against the same claim queue —
// ClaimNext's SKIP LOCKED means concurrent pollers never claim the same
// job — and blocks until every loop observes ctx cancellation.
func (w *Worker) Run(ctx context.Context) {
	var wg sync.WaitGroup
	for i := 0; i < w.concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			w.pollLoop(ctx)
		}()
	}
	wg.Wait()
}

// pollLoop drains the in-flight job before returning — cancellation is
// only observed between jobs (SPEC_FULL §5).
func (w *Worker) pollLoop(ctx context.Context) {
	ticker := time.NewTicker(w.poll)
	defer ticker.Stop()
	for {
		w.runOnce(context.WithoutCancel(ctx))
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

func (w *Worker) runOnce(ctx context.Context) {
	dbc := dbctx.Context{Ctx: ctx}
	job, err := w.queue.ClaimNext(dbc)
	if err != nil {
		w.log.Error("claim_next failed", "error", err)
		return
	}
	if job == nil {
		return
	}
	w.log.Info("claimed ingestion job", "job_id", job.ID, "source_id", job.SourceID)

	if err := w.process(ctx, job); err != nil {
		w.log.Error("ingestion job failed", "job_id", job.ID, "error", err)
		if failErr := w.queue.Fail(dbc, job.ID, err.Error()); failErr != nil {
			w.log.Error("failed to mark job failed", "job_id", job.ID, "error", failErr)
		}
		return
	}
	if err := w.queue.Complete(dbc, job.ID); err != nil {
		w.log.Error("failed to mark job complete", "job_id", job.ID, "error", err)
	}
}

func (w *Worker) process(ctx context.Context, job *domain.IngestionRequest) error {
	dbc := dbctx.Context{Ctx: ctx}
	src, err := w.sources.GetByID(dbc, job.SourceID)
	if err != nil {
		return err
	}
	if src == nil {
		return fmt.Errorf("source %s not found", job.SourceID)
	}

	ingestor, ok := w.ingestors[string(src.Type)]
	if !ok {
		return fmt.Errorf("no ingestor registered for source type %q", src.Type)
	}

	records, err := ingestor.Ingest(ctx, src.Name, src.FeedURL)
	if err != nil {
		return err
	}

	for _, rec := range records {
		doc := &domain.Document{
			SourceID:          &src.ID,
			IngestMethod:      ingestMethodForSourceType(src.Type),
			ExternalID:        rec.ExternalID,
			Title:             rec.Title,
			Author:            rec.Author,
			PublishedAt:       rec.PublishedAt,
			OriginalURL:       rec.OriginalURL,
			OriginalMediaType: rec.OriginalMediaType,
			ContentText:       rec.ContentText,
			ContentHTML:       rec.ContentHTML,
			IngestStatus:      domain.IngestStatusOK,
			WordCount:         len(strings.Fields(rec.ContentText)),
		}
		if rec.AudioURL != "" {
			assets, err := domain.EncodeAssets([]domain.Asset{{Type: "audio", URL: rec.AudioURL}})
			if err != nil {
				return fmt.Errorf("encode assets for %s/%s: %w", src.ID, rec.ExternalID, err)
			}
			doc.Assets = assets
		}
		if _, err := w.documents.Upsert(dbc, doc); err != nil {
			return fmt.Errorf("upsert document %s/%s: %w", src.ID, rec.ExternalID, err)
		}
	}
	return nil
}

func ingestMethodForSourceType(t domain.SourceType) domain.IngestMethod {
	if t == domain.SourceTypeManual {
		return domain.IngestMethodManual
	}
	return domain.IngestMethodFeed
}
