package domain

import (
	"time"

	"github.com/google/uuid"
)

// HypothesisVersion is an append-only snapshot of a Hypothesis taken every
// time its editable fields change, giving the evidence graph a history to
// diff against (see freshness derivation in evidence_link.go).
type HypothesisVersion struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	HypothesisID   uuid.UUID     `gorm:"type:uuid;column:hypothesis_id;not null;index" json:"hypothesis_id"`
	HypothesisText string        `gorm:"column:hypothesis_text;not null" json:"hypothesis_text"`
	Description    string        `gorm:"column:description" json:"description,omitempty"`
	ReferenceURL   string        `gorm:"column:reference_url" json:"reference_url,omitempty"`
	ReferenceType  ReferenceType `gorm:"column:reference_type;not null;default:'none'" json:"reference_type"`
	RecordedAt     time.Time     `gorm:"column:recorded_at;not null;default:now();index" json:"recorded_at"`
	RecordedBy     string        `gorm:"column:recorded_by" json:"recorded_by,omitempty"`
}

func (HypothesisVersion) TableName() string { return "hypothesis_version" }

// Snapshot builds the version row recording h's current state.
func Snapshot(h *Hypothesis, recordedBy string) HypothesisVersion {
	return HypothesisVersion{
		HypothesisID:   h.ID,
		HypothesisText: h.HypothesisText,
		Description:    h.Description,
		ReferenceURL:   h.ReferenceURL,
		ReferenceType:  h.ReferenceType,
		RecordedBy:     recordedBy,
	}
}
