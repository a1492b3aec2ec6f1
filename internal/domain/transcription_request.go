package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TranscriptionProvider string

const (
	TranscriptionProviderOpenAI     TranscriptionProvider = "openai"
	TranscriptionProviderAssemblyAI TranscriptionProvider = "assembly"
)

type TranscriptionRequestStatus string

const (
	TranscriptionRequestPending    TranscriptionRequestStatus = "pending"
	TranscriptionRequestInProgress TranscriptionRequestStatus = "in_progress"
	TranscriptionRequestCompleted  TranscriptionRequestStatus = "completed"
	TranscriptionRequestFailed     TranscriptionRequestStatus = "failed"
)

// TranscriptionRequest is one queue row asking a document's audio/video
// asset (or a slice of it) to be transcribed by the given provider.
type TranscriptionRequest struct {
	ID           uuid.UUID                  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID   uuid.UUID                  `gorm:"type:uuid;column:document_id;not null;index" json:"document_id"`
	Provider     TranscriptionProvider      `gorm:"column:provider;not null" json:"provider"`
	Model        string                     `gorm:"column:model" json:"model,omitempty"`
	StartSeconds *float64                   `gorm:"column:start_seconds" json:"start_seconds,omitempty"`
	EndSeconds   *float64                   `gorm:"column:end_seconds" json:"end_seconds,omitempty"`
	Status       TranscriptionRequestStatus `gorm:"column:status;not null;default:'pending'" json:"status"`
	ResultText   string                     `gorm:"column:result_text" json:"result_text,omitempty"`
	Metadata     datatypes.JSON             `gorm:"column:metadata;type:jsonb" json:"metadata,omitempty"`
	CreatedAt    time.Time                  `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time                  `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (TranscriptionRequest) TableName() string { return "transcription_request" }
