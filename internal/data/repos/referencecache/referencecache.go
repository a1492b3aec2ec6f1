package referencecache

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type Repo interface {
	Get(dbc dbctx.Context, hypothesisID uuid.UUID) (*domain.HypothesisReferenceCache, error)
	Upsert(dbc dbctx.Context, hypothesisID uuid.UUID, fullText string) (*domain.HypothesisReferenceCache, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "ReferenceCacheRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) Get(dbc dbctx.Context, hypothesisID uuid.UUID) (*domain.HypothesisReferenceCache, error) {
	if hypothesisID == uuid.Nil {
		return nil, nil
	}
	var c domain.HypothesisReferenceCache
	err := r.tx(dbc).Where("hypothesis_id = ?", hypothesisID).First(&c).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *repo) Upsert(dbc dbctx.Context, hypothesisID uuid.UUID, fullText string) (*domain.HypothesisReferenceCache, error) {
	row := &domain.HypothesisReferenceCache{
		HypothesisID:   hypothesisID,
		FullText:       fullText,
		CharacterCount: len([]rune(fullText)),
		FetchedAt:      time.Now(),
	}
	err := r.tx(dbc).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "hypothesis_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"full_text", "character_count", "fetched_at"}),
	}).Create(row).Error
	if err != nil {
		return nil, err
	}
	return row, nil
}
