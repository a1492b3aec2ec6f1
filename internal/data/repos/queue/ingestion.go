package queue

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type IngestionRepo interface {
	// Enqueue inserts a queued row for sourceID unless one already
	// exists, in which case it returns the existing row and
	// alreadyQueued=true (SPEC_FULL §4.2 idempotency).
	Enqueue(dbc dbctx.Context, sourceID uuid.UUID) (row *domain.IngestionRequest, alreadyQueued bool, err error)
	// ClaimNext atomically moves one queued row to in_progress using
	// SKIP LOCKED, grounded on the job-run claim pattern.
	ClaimNext(dbc dbctx.Context) (*domain.IngestionRequest, error)
	Complete(dbc dbctx.Context, id uuid.UUID) error
	Fail(dbc dbctx.Context, id uuid.UUID, errMsg string) error
}

type ingestionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewIngestionRepo(db *gorm.DB, baseLog *logger.Logger) IngestionRepo {
	return &ingestionRepo{db: db, log: baseLog.With("repo", "IngestionQueueRepo")}
}

func (r *ingestionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *ingestionRepo) Enqueue(dbc dbctx.Context, sourceID uuid.UUID) (*domain.IngestionRequest, bool, error) {
	row := &domain.IngestionRequest{
		SourceID: sourceID,
		Status:   domain.IngestionRequestQueued,
	}
	// The insert runs in its own (nested) transaction so a unique-index
	// violation rolls back only the insert and leaves an ambient
	// transaction usable for the fallback read below.
	err := r.tx(dbc).Transaction(func(txx *gorm.DB) error {
		return txx.Create(row).Error
	})
	if err == nil {
		return row, false, nil
	}

	// The partial unique index on (source_id) WHERE status='queued' is
	// the idempotency guard; a violation means one is already queued.
	var existing domain.IngestionRequest
	getErr := r.tx(dbc).
		Where("source_id = ? AND status = ?", sourceID, domain.IngestionRequestQueued).
		Order("created_at ASC").
		First(&existing).Error
	if getErr != nil {
		if errors.Is(getErr, gorm.ErrRecordNotFound) {
			return nil, false, err
		}
		return nil, false, getErr
	}
	return &existing, true, nil
}

func (r *ingestionRepo) ClaimNext(dbc dbctx.Context) (*domain.IngestionRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var claimed *domain.IngestionRequest
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var row domain.IngestionRequest
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", domain.IngestionRequestQueued).
			Order("created_at ASC").
			First(&row).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		if uErr := txx.Model(&domain.IngestionRequest{}).Where("id = ?", row.ID).Updates(map[string]any{
			"status": domain.IngestionRequestInProgress,
		}).Error; uErr != nil {
			return uErr
		}
		row.Status = domain.IngestionRequestInProgress
		claimed = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *ingestionRepo) Complete(dbc dbctx.Context, id uuid.UUID) error {
	return r.tx(dbc).Model(&domain.IngestionRequest{}).Where("id = ?", id).
		Updates(map[string]any{"status": domain.IngestionRequestCompleted}).Error
}

func (r *ingestionRepo) Fail(dbc dbctx.Context, id uuid.UUID, errMsg string) error {
	return r.tx(dbc).Model(&domain.IngestionRequest{}).Where("id = ?", id).
		Updates(map[string]any{"status": domain.IngestionRequestFailed, "error_message": errMsg}).Error
}
