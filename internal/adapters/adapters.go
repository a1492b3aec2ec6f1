// Package adapters defines the external-collaborator interfaces the rest
// of the system programs against — feed ingestion, transcription, LLM
// suggestion/analysis, and reference-document fetching — plus the retry
// policy every concrete implementation is wrapped in.
package adapters

import (
	"context"
	"time"
)

// DocumentRecord is what an Ingestor yields for one item in a source's
// feed, ready to be upserted by (source_id, external_id).
type DocumentRecord struct {
	ExternalID        string
	Title             string
	Author            string
	PublishedAt       *time.Time
	OriginalURL       string
	OriginalMediaType string
	ContentText       string
	ContentHTML       string
	AudioURL          string
}

// Ingestor pulls new documents from a source. Implementations must be
// idempotent over (source_id, external_id) — the caller upserts.
type Ingestor interface {
	Ingest(ctx context.Context, sourceName, feedURL string) ([]DocumentRecord, error)
}

// TranscriptSignal classifies a Transcriber failure so the worker can
// decide whether to report it as retryable.
type TranscriptSignal string

const (
	TranscriptSignalNone        TranscriptSignal = ""
	TranscriptSignalRateLimited TranscriptSignal = "rate_limited"
	TranscriptSignalTransient   TranscriptSignal = "transient"
)

type TranscribeError struct {
	Signal TranscriptSignal
	Err    error
}

func (e *TranscribeError) Error() string { return e.Err.Error() }
func (e *TranscribeError) Unwrap() error  { return e.Err }

// Transcriber converts audio at audioURL (optionally windowed by
// start/end, in seconds) to text.
type Transcriber interface {
	Transcribe(ctx context.Context, audioURL string, start, end *float64, model string) (text string, metadata map[string]any, err error)
}

// SuggestedHypothesis is one candidate returned by Suggester.
type SuggestedHypothesis struct {
	HypothesisID   *string // non-nil when reusing an existing hypothesis
	HypothesisText string
	Description    string
	Source          string // "existing" | "generated"
}

// ExistingHypothesis is the minimal shape a Suggester needs to consider
// reuse over fabricating a new candidate.
type ExistingHypothesis struct {
	ID            string
	HypothesisText string
	Description    string
	EvidenceCount   int
}

// Suggester proposes hypotheses a segment of text might bear on.
type Suggester interface {
	SuggestHypotheses(ctx context.Context, segmentText string, existing []ExistingHypothesis) ([]SuggestedHypothesis, error)
}

// Verdict mirrors domain.Verdict without importing the domain package,
// keeping adapters free of persistence concerns.
type Verdict string

const (
	VerdictConfirms   Verdict = "confirms"
	VerdictRefutes    Verdict = "refutes"
	VerdictNuances    Verdict = "nuances"
	VerdictIrrelevant Verdict = "irrelevant"
)

// Analyzer judges whether a segment confirms, refutes, nuances, or is
// irrelevant to a hypothesis. referenceText is only populated for
// full-reference analyses.
type Analyzer interface {
	Analyze(ctx context.Context, segmentText, hypothesisText, description, referenceText string) (verdict Verdict, analysisText string, err error)
}

// Crawler fetches the plain text of an external document (HTML or PDF).
type Crawler interface {
	FetchText(ctx context.Context, url string) (fullText string, charCount int, err error)
}

// Article is the result of fetching an arbitrary URL directly and
// extracting both its metadata and content, independent of the
// Source/feed ingestion workflow (SPEC_FULL §4.8).
type Article struct {
	Title       string
	Author      string
	PublishedAt *time.Time
	ContentText string
	ContentHTML string
}

// ArticleFetcher fetches and parses a single URL on demand. Unlike
// Crawler it also extracts title/author/publish-date metadata, which a
// reference-text fetch has no use for.
type ArticleFetcher interface {
	FetchArticle(ctx context.Context, url string) (*Article, error)
}
