package domain

import (
	"time"

	"github.com/google/uuid"
)

type IngestionRequestStatus string

const (
	IngestionRequestQueued     IngestionRequestStatus = "queued"
	IngestionRequestInProgress IngestionRequestStatus = "in_progress"
	IngestionRequestCompleted  IngestionRequestStatus = "completed"
	IngestionRequestFailed     IngestionRequestStatus = "failed"
)

// IngestionRequest is one queue row asking a source to be polled for new
// documents. A source may have at most one queued request at a time — see
// the partial unique index applied in internal/data/db's migration.
type IngestionRequest struct {
	ID           uuid.UUID              `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID     uuid.UUID              `gorm:"type:uuid;column:source_id;not null;index" json:"source_id"`
	Status       IngestionRequestStatus `gorm:"column:status;not null;default:'queued'" json:"status"`
	ErrorMessage string                 `gorm:"column:error_message" json:"error_message,omitempty"`
	CreatedAt    time.Time              `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time              `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (IngestionRequest) TableName() string { return "ingestion_request" }
