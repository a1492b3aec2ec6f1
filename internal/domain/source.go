package domain

import (
	"time"

	"github.com/google/uuid"
)

// SourceType enumerates where a Source's documents come from.
type SourceType string

const (
	SourceTypeRSS     SourceType = "rss"
	SourceTypePodcast SourceType = "podcast"
	SourceTypeManual  SourceType = "manual"
)

// Source is a feed definition. Created out-of-band; rarely mutated.
type Source struct {
	ID           uuid.UUID  `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	Name         string     `gorm:"column:name;not null;uniqueIndex" json:"name"`
	Type         SourceType `gorm:"column:type;not null" json:"type"`
	FeedURL      string     `gorm:"column:feed_url" json:"feed_url,omitempty"`
	IsActive     bool       `gorm:"column:is_active;not null;default:true" json:"is_active"`
	PollInterval int        `gorm:"column:poll_interval_seconds;not null;default:3600" json:"poll_interval_seconds"`
	CreatedAt    time.Time  `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt    time.Time  `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Source) TableName() string { return "source" }
