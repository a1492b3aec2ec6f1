package evidence

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// EnrichedLink is a link row enriched with preview fields and the derived
// freshness status the evidence-listing endpoints return.
type EnrichedLink struct {
	domain.HypothesisSegmentLink
	SegmentText     string `json:"segment_text,omitempty"`
	DocumentID      uuid.UUID `json:"document_id,omitempty"`
	DocumentTitle   string `json:"document_title,omitempty"`
	FreshnessStatus string `json:"freshness_status"`
}

type Repo interface {
	GetLink(dbc dbctx.Context, hypothesisID, segmentID uuid.UUID) (*domain.HypothesisSegmentLink, error)
	// UpsertLinkAndRun inserts or updates the link for (hypothesisID,
	// segmentID) and appends exactly one run row snapshotting h, all
	// within the caller's transaction. This is the two-row write at the
	// heart of commit_evidence (SPEC_FULL §4.7.3).
	UpsertLinkAndRun(dbc dbctx.Context, hypothesisID, segmentID uuid.UUID, verdict domain.Verdict, analysisText string, authoredBy domain.AuthoredBy, h *domain.Hypothesis) (*domain.HypothesisSegmentLink, *domain.HypothesisSegmentLinkRun, error)
	ListForHypothesis(dbc dbctx.Context, hypothesisID uuid.UUID) ([]*EnrichedLink, error)
	ListForSegment(dbc dbctx.Context, segmentID uuid.UUID) ([]*domain.HypothesisSegmentLink, error)
	ListRunsForLink(dbc dbctx.Context, linkID uuid.UUID) ([]*domain.HypothesisSegmentLinkRun, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "EvidenceRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) GetLink(dbc dbctx.Context, hypothesisID, segmentID uuid.UUID) (*domain.HypothesisSegmentLink, error) {
	var l domain.HypothesisSegmentLink
	err := r.tx(dbc).Where("hypothesis_id = ? AND segment_id = ?", hypothesisID, segmentID).First(&l).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &l, nil
}

func (r *repo) UpsertLinkAndRun(
	dbc dbctx.Context,
	hypothesisID, segmentID uuid.UUID,
	verdict domain.Verdict,
	analysisText string,
	authoredBy domain.AuthoredBy,
	h *domain.Hypothesis,
) (*domain.HypothesisSegmentLink, *domain.HypothesisSegmentLinkRun, error) {
	txx := r.tx(dbc)
	now := time.Now()

	existing, err := r.GetLink(dbc, hypothesisID, segmentID)
	if err != nil {
		return nil, nil, err
	}

	link := existing
	if link == nil {
		link = &domain.HypothesisSegmentLink{
			HypothesisID: hypothesisID,
			SegmentID:    segmentID,
			Verdict:      verdict,
			AnalysisText: analysisText,
			AuthoredBy:   authoredBy,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		if err := txx.Create(link).Error; err != nil {
			return nil, nil, err
		}
	} else {
		link.Verdict = verdict
		link.AnalysisText = analysisText
		link.AuthoredBy = authoredBy
		link.UpdatedAt = now
		if err := txx.Model(&domain.HypothesisSegmentLink{}).Where("id = ?", link.ID).Updates(map[string]any{
			"verdict":       verdict,
			"analysis_text": analysisText,
			"authored_by":   authoredBy,
			"updated_at":    now,
		}).Error; err != nil {
			return nil, nil, err
		}
	}

	run := domain.RunFrom(link, h)
	if err := txx.Create(&run).Error; err != nil {
		return nil, nil, err
	}
	return link, &run, nil
}

func (r *repo) ListForHypothesis(dbc dbctx.Context, hypothesisID uuid.UUID) ([]*EnrichedLink, error) {
	var out []*EnrichedLink
	err := r.tx(dbc).
		Table("hypothesis_segment_link AS l").
		Select(`l.*, s.text AS segment_text, s.document_id AS document_id, d.title AS document_title`).
		Joins("JOIN segment s ON s.id = l.segment_id").
		Joins("JOIN document d ON d.id = s.document_id").
		Where("l.hypothesis_id = ?", hypothesisID).
		Order("l.updated_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}

	var h domain.Hypothesis
	if err := r.tx(dbc).Where("id = ?", hypothesisID).First(&h).Error; err != nil && err != gorm.ErrRecordNotFound {
		return nil, err
	}
	for _, l := range out {
		if l.UpdatedAt.Before(h.UpdatedAt) {
			l.FreshnessStatus = "stale"
		} else {
			l.FreshnessStatus = "current"
		}
	}
	return out, nil
}

func (r *repo) ListForSegment(dbc dbctx.Context, segmentID uuid.UUID) ([]*domain.HypothesisSegmentLink, error) {
	var out []*domain.HypothesisSegmentLink
	err := r.tx(dbc).Where("segment_id = ?", segmentID).Order("updated_at DESC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) ListRunsForLink(dbc dbctx.Context, linkID uuid.UUID) ([]*domain.HypothesisSegmentLinkRun, error) {
	var out []*domain.HypothesisSegmentLinkRun
	err := r.tx(dbc).Where("link_id = ?", linkID).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}
