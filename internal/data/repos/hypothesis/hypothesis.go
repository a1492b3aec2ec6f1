package hypothesis

import (
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// Listing is a Hypothesis enriched with its evidence-link count.
type Listing struct {
	domain.Hypothesis
	EvidenceCount int64 `json:"evidence_count"`
}

// ContentUpdate carries the subset of fields PATCH /hypotheses/{id} may
// change; a nil pointer means "leave unchanged".
type ContentUpdate struct {
	HypothesisText *string
	Description    *string
	ReferenceURL   *string
	ReferenceType  *domain.ReferenceType
}

type Repo interface {
	List(dbc dbctx.Context) ([]*Listing, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Hypothesis, error)
	Create(dbc dbctx.Context, h *domain.Hypothesis) (*domain.Hypothesis, error)
	// Update applies upd to the hypothesis, snapshotting the pre-image into
	// HypothesisVersion iff any of the four content fields actually change.
	Update(dbc dbctx.Context, id uuid.UUID, upd ContentUpdate, recordedBy string) (*domain.Hypothesis, error)
	// Delete cascades to links, runs, versions, the reference cache row,
	// and question links (invariant 7).
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "HypothesisRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) List(dbc dbctx.Context) ([]*Listing, error) {
	var out []*Listing
	err := r.tx(dbc).
		Table("hypothesis AS h").
		Select(`h.*, COUNT(l.id) AS evidence_count`).
		Joins("LEFT JOIN hypothesis_segment_link l ON l.hypothesis_id = h.id").
		Group("h.id").
		Order("h.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Hypothesis, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var h domain.Hypothesis
	err := r.tx(dbc).Where("id = ?", id).First(&h).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &h, nil
}

func (r *repo) Create(dbc dbctx.Context, h *domain.Hypothesis) (*domain.Hypothesis, error) {
	if h.ReferenceType == "" {
		h.ReferenceType = domain.ReferenceTypeNone
	}
	if err := r.tx(dbc).Create(h).Error; err != nil {
		return nil, err
	}
	return h, nil
}

// Update is the Store's trigger-equivalent guarantee (SPEC_FULL §4.1):
// when hypothesis_text/description/reference_url/reference_type change,
// the pre-image is snapshotted into HypothesisVersion in the same
// transaction as the update.
func (r *repo) Update(dbc dbctx.Context, id uuid.UUID, upd ContentUpdate, recordedBy string) (*domain.Hypothesis, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var result *domain.Hypothesis
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var current domain.Hypothesis
		if err := txx.Clauses().Where("id = ?", id).First(&current).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil
			}
			return err
		}

		changed := false
		next := current
		if upd.HypothesisText != nil && *upd.HypothesisText != current.HypothesisText {
			next.HypothesisText = *upd.HypothesisText
			changed = true
		}
		if upd.Description != nil && *upd.Description != current.Description {
			next.Description = *upd.Description
			changed = true
		}
		if upd.ReferenceURL != nil && *upd.ReferenceURL != current.ReferenceURL {
			next.ReferenceURL = *upd.ReferenceURL
			changed = true
		}
		if upd.ReferenceType != nil && *upd.ReferenceType != current.ReferenceType {
			next.ReferenceType = *upd.ReferenceType
			changed = true
		}
		if !changed {
			result = &current
			return nil
		}

		version := domain.Snapshot(&current, recordedBy)
		if err := txx.Create(&version).Error; err != nil {
			return err
		}

		next.UpdatedAt = time.Now()
		if err := txx.Model(&domain.Hypothesis{}).Where("id = ?", id).Updates(map[string]any{
			"hypothesis_text": next.HypothesisText,
			"description":     next.Description,
			"reference_url":   next.ReferenceURL,
			"reference_type":  next.ReferenceType,
			"updated_at":      next.UpdatedAt,
		}).Error; err != nil {
			return err
		}
		result = &next
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (r *repo) Delete(dbc dbctx.Context, id uuid.UUID) error {
	if id == uuid.Nil {
		return nil
	}
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	return transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var linkIDs []uuid.UUID
		if err := txx.Model(&domain.HypothesisSegmentLink{}).
			Where("hypothesis_id = ?", id).Pluck("id", &linkIDs).Error; err != nil {
			return err
		}
		if len(linkIDs) > 0 {
			if err := txx.Where("link_id IN ?", linkIDs).Delete(&domain.HypothesisSegmentLinkRun{}).Error; err != nil {
				return err
			}
		}
		if err := txx.Where("hypothesis_id = ?", id).Delete(&domain.HypothesisSegmentLink{}).Error; err != nil {
			return err
		}
		if err := txx.Where("hypothesis_id = ?", id).Delete(&domain.HypothesisVersion{}).Error; err != nil {
			return err
		}
		if err := txx.Where("hypothesis_id = ?", id).Delete(&domain.HypothesisReferenceCache{}).Error; err != nil {
			return err
		}
		if err := txx.Where("hypothesis_id = ?", id).Delete(&domain.QuestionHypothesisLink{}).Error; err != nil {
			return err
		}
		return txx.Where("id = ?", id).Delete(&domain.Hypothesis{}).Error
	})
}
