package source

import (
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type Repo interface {
	List(dbc dbctx.Context) ([]*domain.Source, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Source, error)
	GetActiveByID(dbc dbctx.Context, id uuid.UUID) (*domain.Source, error)
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "SourceRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) List(dbc dbctx.Context) ([]*domain.Source, error) {
	var out []*domain.Source
	if err := r.tx(dbc).Order("name ASC").Find(&out).Error; err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Source, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var s domain.Source
	err := r.tx(dbc).Where("id = ?", id).First(&s).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &s, nil
}

func (r *repo) GetActiveByID(dbc dbctx.Context, id uuid.UUID) (*domain.Source, error) {
	s, err := r.GetByID(dbc, id)
	if err != nil || s == nil || !s.IsActive {
		return nil, err
	}
	return s, nil
}
