// Package transcription implements C5: cooperative poll loops over the
// transcription queue (one by default; the concurrency argument sets how many).
package transcription

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/data/repos/document"
	"github.com/signal-noise/workbench/internal/data/repos/queue"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type Worker struct {
	queue        queue.TranscriptionRepo
	documents    document.Repo
	transcribers map[string]adapters.Transcriber
	poll         time.Duration
	concurrency  int
	log          *logger.Logger
}

func NewWorker(q queue.TranscriptionRepo, documents document.Repo, transcribers map[string]adapters.Transcriber, poll time.Duration, concurrency int, log *logger.Logger) *Worker {
	if concurrency <= 0 {
		concurrency = 1
	}
	return &Worker{queue: q, documents: documents, transcribers: transcribers, poll: poll, concurrency: concurrency, log: log.With("worker", "TranscriptionWorker")}
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
	w.log.Info("claimed transcription job", "job_id", job.ID, "document_id", job.DocumentID)

	resultText, err := w.process(ctx, job)
	if err != nil {
		w.log.Error("transcription job failed", "job_id", job.ID, "error", err)
		if failErr := w.queue.Fail(dbc, job.ID, summarizeError(err)); failErr != nil {
			w.log.Error("failed to mark job failed", "job_id", job.ID, "error", failErr)
		}
		return
	}
	if err := w.queue.Complete(dbc, job.ID, resultText); err != nil {
		w.log.Error("failed to mark job complete", "job_id", job.ID, "error", err)
	}
}

// process resolves the document's audio asset, transcribes it (optionally
// windowed), appends a transcript asset, and — for a full-document window —
// also promotes the result onto document.content_text (SPEC_FULL §4.5).
func (w *Worker) process(ctx context.Context, job *domain.TranscriptionRequest) (string, error) {
	dbc := dbctx.Context{Ctx: ctx}
	doc, err := w.documents.GetByID(dbc, job.DocumentID)
	if err != nil {
		return "", err
	}
	if doc == nil {
		return "", fmt.Errorf("document %s not found", job.DocumentID)
	}

	audioURL, err := audioAssetURL(doc)
	if err != nil {
		return "", err
	}
	if audioURL == "" {
		return "", fmt.Errorf("document %s has no audio asset", doc.ID)
	}

	transcriber, ok := w.transcribers[string(job.Provider)]
	if !ok {
		return "", fmt.Errorf("no transcriber registered for provider %q", job.Provider)
	}

	text, _, err := transcriber.Transcribe(ctx, audioURL, job.StartSeconds, job.EndSeconds, job.Model)
	if err != nil {
		return "", err
	}

	fullWindow := job.StartSeconds == nil && job.EndSeconds == nil

	assets, err := doc.DecodeAssets()
	if err != nil {
		return "", fmt.Errorf("decode assets for document %s: %w", doc.ID, err)
	}
	assets = append(assets, domain.Asset{
		Type:         "transcript",
		URL:          audioURL,
		StartSeconds: job.StartSeconds,
		EndSeconds:   job.EndSeconds,
		Text:         text,
		Provider:     string(job.Provider),
	})
	encoded, err := domain.EncodeAssets(assets)
	if err != nil {
		return "", fmt.Errorf("encode assets for document %s: %w", doc.ID, err)
	}

	updates := map[string]any{"assets": encoded}
	if fullWindow {
		updates["content_text"] = text
		updates["word_count"] = len(strings.Fields(text))
		updates["transcript_status"] = domain.TranscriptStatusFull
	} else {
		updates["transcript_status"] = domain.TranscriptStatusPartial
	}
	if err := w.documents.UpdateFields(dbc, doc.ID, updates); err != nil {
		return "", fmt.Errorf("update document %s: %w", doc.ID, err)
	}

	return text, nil
}

func audioAssetURL(doc *domain.Document) (string, error) {
	assets, err := doc.DecodeAssets()
	if err != nil {
		return "", fmt.Errorf("decode assets for document %s: %w", doc.ID, err)
	}
	for _, a := range assets {
		if a.Type == "audio" {
			return a.URL, nil
		}
	}
	return "", nil
}

// summarizeError collapses a Transcriber failure into the one-line
// message stored on the queue row, preserving the retryability signal
// from adapters.TranscribeError when present.
func summarizeError(err error) string {
	var te *adapters.TranscribeError
	if errors.As(err, &te) && te.Signal != adapters.TranscriptSignalNone {
		return fmt.Sprintf("%s: %s", te.Signal, te.Err.Error())
	}
	return err.Error()
}
