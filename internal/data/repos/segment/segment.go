package segment

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// Listing is a Segment enriched with the count of hypotheses linked to
// it, the shape the segment list view returns.
type Listing struct {
	domain.Segment
	LinkedHypothesisCount int64 `json:"linked_hypothesis_count"`
}

// WithDocument pairs a Segment with its parent Document for the
// single-segment detail view.
type WithDocument struct {
	Segment  *domain.Segment  `json:"segment"`
	Document *domain.Document `json:"document"`
}

type Repo interface {
	Create(dbc dbctx.Context, s *domain.Segment) (*domain.Segment, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Segment, error)
	ListByDocument(dbc dbctx.Context, documentID uuid.UUID) ([]*domain.Segment, error)
	List(dbc dbctx.Context) ([]*Listing, error)
	Delete(dbc dbctx.Context, id uuid.UUID) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "SegmentRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) Create(dbc dbctx.Context, s *domain.Segment) (*domain.Segment, error) {
	if err := r.tx(dbc).Create(s).Error; err != nil {
		return nil, err
	}
	return s, nil
}

func (r *repo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Segment, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s domain.Segment
	err := r.tx(dbc).Where("id = ?", id).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repo) ListByDocument(dbc dbctx.Context, documentID uuid.UUID) ([]*domain.Segment, error) {
	var out []*domain.Segment
	if documentID == uuid.Nil {
		return out, nil
	}
	err := r.tx(dbc).Where("document_id = ?", documentID).Order("created_at ASC").Find(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) List(dbc dbctx.Context) ([]*Listing, error) {
	var out []*Listing
	err := r.tx(dbc).
		Table("segment AS s").
		Select(`s.*, COUNT(l.id) AS linked_hypothesis_count`).
		Joins("LEFT JOIN hypothesis_segment_link l ON l.segment_id = s.id").
		Group("s.id").
		Order("s.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Delete removes the segment along with its evidence links/runs, the
// cascade invariant 7 of SPEC_FULL §8 for segments.
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
			Where("segment_id = ?", id).Pluck("id", &linkIDs).Error; err != nil {
			return err
		}
		if len(linkIDs) > 0 {
			if err := txx.Where("link_id IN ?", linkIDs).Delete(&domain.HypothesisSegmentLinkRun{}).Error; err != nil {
				return err
			}
		}
		if err := txx.Where("segment_id = ?", id).Delete(&domain.HypothesisSegmentLink{}).Error; err != nil {
			return err
		}
		return txx.Where("id = ?", id).Delete(&domain.Segment{}).Error
	})
}
