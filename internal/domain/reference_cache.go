package domain

import (
	"time"

	"github.com/google/uuid"
)

// HypothesisReferenceCache holds the fetched full text of a hypothesis's
// reference_url, keyed one-to-one on the hypothesis so repeated analysis
// runs don't refetch and recrawl the same source (see C6).
type HypothesisReferenceCache struct {
	HypothesisID   uuid.UUID `gorm:"type:uuid;column:hypothesis_id;primaryKey" json:"hypothesis_id"`
	FullText       string    `gorm:"column:full_text" json:"full_text,omitempty"`
	CharacterCount int       `gorm:"column:character_count;not null;default:0" json:"character_count"`
	FetchedAt      time.Time `gorm:"column:fetched_at;not null;default:now()" json:"fetched_at"`
}

func (HypothesisReferenceCache) TableName() string { return "hypothesis_reference_cache" }
