// Package evidence implements C7, the heart of the system: staging
// suggestions and analyses (no writes) and committing evidence
// transactionally (the link-plus-run write pair that every other
// component treats as the source of truth for a hypothesis/segment
// pair's current state).
package evidence

import (
	"context"
	"database/sql"
	"errors"
	"math/rand"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/data/repos/evidence"
	"github.com/signal-noise/workbench/internal/data/repos/hypothesis"
	"github.com/signal-noise/workbench/internal/data/repos/segment"
	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/apperr"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
	"github.com/signal-noise/workbench/internal/pkg/pointers"
	"github.com/signal-noise/workbench/internal/referencecache"
)

const serializationRetries = 3

type Engine struct {
	db         *gorm.DB
	segments   segment.Repo
	hypotheses hypothesis.Repo
	evidence   evidence.Repo
	refCache   *referencecache.Service
	suggester  adapters.Suggester
	analyzer   adapters.Analyzer
	log        *logger.Logger
}

func NewEngine(
	db *gorm.DB,
	segments segment.Repo,
	hypotheses hypothesis.Repo,
	evidenceRepo evidence.Repo,
	refCache *referencecache.Service,
	suggester adapters.Suggester,
	analyzer adapters.Analyzer,
	log *logger.Logger,
) *Engine {
	return &Engine{
		db:         db,
		segments:   segments,
		hypotheses: hypotheses,
		evidence:   evidenceRepo,
		refCache:   refCache,
		suggester:  suggester,
		analyzer:   analyzer,
		log:        log.With("component", "EvidenceEngine"),
	}
}

// Suggest implements 4.7.1: no writes, stable ordering — existing
// hypotheses first (by evidence count desc), then generated ones.
func (e *Engine) Suggest(ctx context.Context, segmentID uuid.UUID) ([]adapters.SuggestedHypothesis, error) {
	dbc := dbctx.Context{Ctx: ctx}

	seg, err := e.segments.GetByID(dbc, segmentID)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, apperr.NotFoundf("segment %s not found", segmentID)
	}

	listing, err := e.hypotheses.List(dbc)
	if err != nil {
		return nil, err
	}
	existing := make([]adapters.ExistingHypothesis, 0, len(listing))
	for _, h := range listing {
		id := h.ID.String()
		existing = append(existing, adapters.ExistingHypothesis{
			ID:             id,
			HypothesisText: h.HypothesisText,
			Description:    h.Description,
			EvidenceCount:  int(h.EvidenceCount),
		})
	}

	suggestions, err := e.suggester.SuggestHypotheses(ctx, seg.Text, existing)
	if err != nil {
		return nil, apperr.ProviderError(err)
	}

	evidenceCountByID := make(map[string]int, len(existing))
	for _, h := range existing {
		evidenceCountByID[h.ID] = h.EvidenceCount
	}
	sort.SliceStable(suggestions, func(i, j int) bool {
		si, sj := suggestions[i], suggestions[j]
		iExisting := si.HypothesisID != nil
		jExisting := sj.HypothesisID != nil
		if iExisting != jExisting {
			return iExisting
		}
		if iExisting && jExisting {
			return evidenceCountByID[*si.HypothesisID] > evidenceCountByID[*sj.HypothesisID]
		}
		return false
	})
	return suggestions, nil
}

// AnalysisMode reports whether Analyze consulted the cached/fetched full
// reference document or only the hypothesis summary fields.
type AnalysisMode string

const (
	AnalysisModeSummary       AnalysisMode = "summary"
	AnalysisModeFullReference AnalysisMode = "full_reference"
)

type AnalyzeRequest struct {
	SegmentText           string
	HypothesisText        string
	Description           string
	ReferenceURL          string
	IncludeFullReference  bool
	HypothesisID          *uuid.UUID
}

type AnalyzeResult struct {
	Verdict      adapters.Verdict
	AnalysisText string
	Mode         AnalysisMode
}

// Analyze implements 4.7.2: no writes.
func (e *Engine) Analyze(ctx context.Context, req AnalyzeRequest) (*AnalyzeResult, error) {
	referenceText := ""
	mode := AnalysisModeSummary

	if req.IncludeFullReference && req.ReferenceURL != "" && req.HypothesisID != nil {
		dbc := dbctx.Context{Ctx: ctx}
		h, err := e.hypotheses.GetByID(dbc, *req.HypothesisID)
		if err != nil {
			return nil, err
		}
		if h != nil {
			text, err := e.refCache.GetReferenceText(dbc, h)
			if err != nil {
				e.log.Warn("reference fetch failed, degrading to summary-only analysis", "hypothesis_id", h.ID, "error", err)
			} else if text != "" {
				referenceText = text
				mode = AnalysisModeFullReference
			}
		}
	}

	verdict, analysisText, err := e.analyzer.Analyze(ctx, req.SegmentText, req.HypothesisText, req.Description, referenceText)
	if err != nil {
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, apperr.ProviderTimeout(err)
		}
		return nil, apperr.ProviderError(err)
	}
	return &AnalyzeResult{Verdict: verdict, AnalysisText: analysisText, Mode: mode}, nil
}

// CommitItem is one item of a commit_evidence payload (4.7.3).
type CommitItem struct {
	HypothesisID   *uuid.UUID
	HypothesisText string
	Description    string
	Verdict        domain.Verdict
	AnalysisText   string
	AuthoredBy     domain.AuthoredBy
}

type CommitResult struct {
	Links []*domain.HypothesisSegmentLink
	Runs  []*domain.HypothesisSegmentLinkRun
}

// CommitEvidence implements 4.7.3, the transactional core: each item
// resolves or creates its hypothesis, then upserts the link+run pair,
// all within one REPEATABLE READ transaction. Serialization failures
// (two analysts saving the same pair concurrently) are retried with
// jitter up to serializationRetries times, per §7.
func (e *Engine) CommitEvidence(ctx context.Context, segmentID uuid.UUID, items []CommitItem) (*CommitResult, error) {
	dbc := dbctx.Context{Ctx: ctx}
	seg, err := e.segments.GetByID(dbc, segmentID)
	if err != nil {
		return nil, err
	}
	if seg == nil {
		return nil, apperr.NotFoundf("segment %s not found", segmentID)
	}

	var result *CommitResult
	for attempt := 0; attempt <= serializationRetries; attempt++ {
		result, err = e.commitOnce(ctx, segmentID, items)
		if err == nil {
			return result, nil
		}
		if !isSerializationFailure(err) {
			return nil, err
		}
		e.log.Warn("commit_evidence serialization failure, retrying", "segment_id", segmentID, "attempt", attempt+1)
		time.Sleep(jitter(attempt))
	}
	return nil, apperr.Conflictf("commit_evidence: too many serialization conflicts on segment %s", segmentID)
}

func (e *Engine) commitOnce(ctx context.Context, segmentID uuid.UUID, items []CommitItem) (*CommitResult, error) {
	result := &CommitResult{}
	err := e.db.WithContext(ctx).Transaction(func(txx *gorm.DB) error {
		dbc := dbctx.Context{Ctx: ctx, Tx: txx}
		for _, item := range items {
			h, err := e.resolveOrCreateHypothesis(dbc, item)
			if err != nil {
				return err
			}
			link, run, err := e.evidence.UpsertLinkAndRun(dbc, h.ID, segmentID, item.Verdict, item.AnalysisText, item.AuthoredBy, h)
			if err != nil {
				return err
			}
			result.Links = append(result.Links, link)
			result.Runs = append(result.Runs, run)
		}
		return nil
	}, &sql.TxOptions{Isolation: sql.LevelRepeatableRead})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (e *Engine) resolveOrCreateHypothesis(dbc dbctx.Context, item CommitItem) (*domain.Hypothesis, error) {
	if item.HypothesisID == nil {
		return e.hypotheses.Create(dbc, &domain.Hypothesis{
			HypothesisText: item.HypothesisText,
			Description:    item.Description,
			ReferenceType:  domain.ReferenceTypeNone,
		})
	}

	current, err := e.hypotheses.GetByID(dbc, *item.HypothesisID)
	if err != nil {
		return nil, err
	}
	if current == nil {
		return nil, apperr.NotFoundf("hypothesis %s not found", *item.HypothesisID)
	}
	if item.HypothesisText == current.HypothesisText && item.Description == current.Description {
		return current, nil
	}
	return e.hypotheses.Update(dbc, *item.HypothesisID, hypothesisContentUpdate(item), "commit_evidence")
}

func hypothesisContentUpdate(item CommitItem) hypothesis.ContentUpdate {
	return hypothesis.ContentUpdate{
		HypothesisText: pointers.Ptr(item.HypothesisText),
		Description:    pointers.Ptr(item.Description),
	}
}

// ListEvidenceForHypothesis implements 4.7.4.
func (e *Engine) ListEvidenceForHypothesis(ctx context.Context, hypothesisID uuid.UUID) ([]*evidence.EnrichedLink, error) {
	return e.evidence.ListForHypothesis(dbctx.Context{Ctx: ctx}, hypothesisID)
}

// ListHypothesesForSegment implements 4.7.5.
func (e *Engine) ListHypothesesForSegment(ctx context.Context, segmentID uuid.UUID) ([]*domain.HypothesisSegmentLink, error) {
	return e.evidence.ListForSegment(dbctx.Context{Ctx: ctx}, segmentID)
}

func isSerializationFailure(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == "40001"
	}
	return false
}

func jitter(attempt int) time.Duration {
	base := time.Duration(1<<attempt) * 20 * time.Millisecond
	return base + time.Duration(rand.Int63n(int64(base)))
}
