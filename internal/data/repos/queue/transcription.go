package queue

import (
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

type TranscriptionRepo interface {
	Enqueue(dbc dbctx.Context, req *domain.TranscriptionRequest) (*domain.TranscriptionRequest, error)
	ClaimNext(dbc dbctx.Context) (*domain.TranscriptionRequest, error)
	Complete(dbc dbctx.Context, id uuid.UUID, resultText string) error
	Fail(dbc dbctx.Context, id uuid.UUID, errMsg string) error
}

type transcriptionRepo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewTranscriptionRepo(db *gorm.DB, baseLog *logger.Logger) TranscriptionRepo {
	return &transcriptionRepo{db: db, log: baseLog.With("repo", "TranscriptionQueueRepo")}
}

func (r *transcriptionRepo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *transcriptionRepo) Enqueue(dbc dbctx.Context, req *domain.TranscriptionRequest) (*domain.TranscriptionRequest, error) {
	if req.Status == "" {
		req.Status = domain.TranscriptionRequestPending
	}
	if err := r.tx(dbc).Create(req).Error; err != nil {
		return nil, err
	}
	return req, nil
}

func (r *transcriptionRepo) ClaimNext(dbc dbctx.Context) (*domain.TranscriptionRequest, error) {
	transaction := dbc.Tx
	if transaction == nil {
		transaction = r.db
	}
	var claimed *domain.TranscriptionRequest
	err := transaction.WithContext(dbc.Ctx).Transaction(func(txx *gorm.DB) error {
		var row domain.TranscriptionRequest
		qErr := txx.Clauses(clause.Locking{Strength: "UPDATE", Options: "SKIP LOCKED"}).
			Where("status = ?", domain.TranscriptionRequestPending).
			Order("created_at ASC").
			First(&row).Error
		if errors.Is(qErr, gorm.ErrRecordNotFound) {
			return nil
		}
		if qErr != nil {
			return qErr
		}
		if uErr := txx.Model(&domain.TranscriptionRequest{}).Where("id = ?", row.ID).Updates(map[string]any{
			"status": domain.TranscriptionRequestInProgress,
		}).Error; uErr != nil {
			return uErr
		}
		row.Status = domain.TranscriptionRequestInProgress
		claimed = &row
		return nil
	})
	if err != nil {
		return nil, err
	}
	return claimed, nil
}

func (r *transcriptionRepo) Complete(dbc dbctx.Context, id uuid.UUID, resultText string) error {
	return r.tx(dbc).Model(&domain.TranscriptionRequest{}).Where("id = ?", id).
		Updates(map[string]any{"status": domain.TranscriptionRequestCompleted, "result_text": resultText}).Error
}

func (r *transcriptionRepo) Fail(dbc dbctx.Context, id uuid.UUID, errMsg string) error {
	meta, _ := json.Marshal(map[string]string{"error": errMsg})
	return r.tx(dbc).Model(&domain.TranscriptionRequest{}).Where("id = ?", id).
		Updates(map[string]any{"status": domain.TranscriptionRequestFailed, "metadata": datatypes.JSON(meta)}).Error
}
