package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type OffsetKind string

const (
	OffsetKindText    OffsetKind = "text"
	OffsetKindHTML    OffsetKind = "html"
	OffsetKindSeconds OffsetKind = "seconds"
)

type SegmentStatus string

const (
	SegmentStatusRaw        SegmentStatus = "raw"
	SegmentStatusFinal      SegmentStatus = "final"
	SegmentStatusSuperseded SegmentStatus = "superseded"
)

// Segment is an atomic excerpt of a Document's prose, identified by offsets.
type Segment struct {
	ID            uuid.UUID      `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	DocumentID    uuid.UUID      `gorm:"type:uuid;column:document_id;not null;index" json:"document_id"`
	Text          string         `gorm:"column:text;not null" json:"text"`
	ContentHTML   string         `gorm:"column:content_html" json:"content_html,omitempty"`
	StartOffset   *int           `gorm:"column:start_offset" json:"start_offset,omitempty"`
	EndOffset     *int           `gorm:"column:end_offset" json:"end_offset,omitempty"`
	OffsetKind    OffsetKind     `gorm:"column:offset_kind;not null;default:'text'" json:"offset_kind"`
	SegmentStatus SegmentStatus  `gorm:"column:segment_status;not null;default:'raw'" json:"segment_status"`
	Version       int            `gorm:"column:version;not null;default:1" json:"version"`
	Labels        datatypes.JSON `gorm:"column:labels;type:jsonb" json:"labels,omitempty"`
	Provenance    datatypes.JSON `gorm:"column:provenance;type:jsonb" json:"provenance,omitempty"`
	CreatedAt     time.Time      `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt     time.Time      `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Segment) TableName() string { return "segment" }

// CharCount is a derived, read-time field (see SPEC_FULL §3) — never stored.
func (s *Segment) CharCount() int { return len([]rune(s.Text)) }
