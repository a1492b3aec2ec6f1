package domain

import (
	"time"

	"github.com/google/uuid"
)

type ReferenceType string

const (
	ReferenceTypeNone    ReferenceType = "none"
	ReferenceTypePaper   ReferenceType = "paper"
	ReferenceTypeArticle ReferenceType = "article"
	ReferenceTypeBook    ReferenceType = "book"
	ReferenceTypeWebsite ReferenceType = "website"
)

// Hypothesis is a claim under investigation, optionally backed by an
// external reference whose full text is cached separately.
type Hypothesis struct {
	ID             uuid.UUID     `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	HypothesisText string        `gorm:"column:hypothesis_text;not null" json:"hypothesis_text"`
	Description    string        `gorm:"column:description" json:"description,omitempty"`
	ReferenceURL   string        `gorm:"column:reference_url" json:"reference_url,omitempty"`
	ReferenceType  ReferenceType `gorm:"column:reference_type;not null;default:'none'" json:"reference_type"`
	CreatedAt      time.Time     `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt      time.Time     `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Hypothesis) TableName() string { return "hypothesis" }
