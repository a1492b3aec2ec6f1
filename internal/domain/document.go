package domain

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
)

type TranscriptStatus string

const (
	TranscriptStatusNone    TranscriptStatus = "none"
	TranscriptStatusPending TranscriptStatus = "pending"
	TranscriptStatusPartial TranscriptStatus = "partial"
	TranscriptStatusFull    TranscriptStatus = "complete"
)

type IngestStatus string

const (
	IngestStatusPending IngestStatus = "pending"
	IngestStatusOK      IngestStatus = "ok"
	IngestStatusFailed  IngestStatus = "failed"
)

// IngestMethod records how a Document reached the store: through a
// Source's feed queue, or inserted directly from an arbitrary URL
// outside that workflow (SPEC_FULL §4.8).
type IngestMethod string

const (
	IngestMethodFeed      IngestMethod = "feed"
	IngestMethodManual    IngestMethod = "manual"
	IngestMethodDirectURL IngestMethod = "direct_url"
)

// Asset is one element of Document.Assets — an audio/video/transcript
// artifact attached to the document.
type Asset struct {
	Type         string   `json:"type"`
	URL          string   `json:"url"`
	Duration     *float64 `json:"duration,omitempty"`
	StartSeconds *float64 `json:"start_seconds,omitempty"`
	EndSeconds   *float64 `json:"end_seconds,omitempty"`
	Text         string   `json:"text,omitempty"`
	Provider     string   `json:"provider,omitempty"`
}

// Document is an ingested artifact: an article, podcast episode, etc.
type Document struct {
	ID                uuid.UUID        `gorm:"type:uuid;default:uuid_generate_v4();primaryKey" json:"id"`
	SourceID          *uuid.UUID       `gorm:"type:uuid;column:source_id;uniqueIndex:idx_document_source_external" json:"source_id,omitempty"`
	ExternalID        string           `gorm:"column:external_id;not null;uniqueIndex:idx_document_source_external" json:"external_id"`
	IngestMethod      IngestMethod     `gorm:"column:ingest_method;not null;default:'feed'" json:"ingest_method"`
	Title             string           `gorm:"column:title" json:"title,omitempty"`
	Author            string           `gorm:"column:author" json:"author,omitempty"`
	PublishedAt       *time.Time       `gorm:"column:published_at" json:"published_at,omitempty"`
	OriginalURL       string           `gorm:"column:original_url" json:"original_url,omitempty"`
	OriginalMediaType string           `gorm:"column:original_media_type" json:"original_media_type,omitempty"`
	ContentText       string           `gorm:"column:content_text" json:"content_text,omitempty"`
	ContentHTML       string           `gorm:"column:content_html" json:"content_html,omitempty"`
	Assets            datatypes.JSON   `gorm:"column:assets;type:jsonb" json:"assets,omitempty"`
	TranscriptStatus  TranscriptStatus `gorm:"column:transcript_status;not null;default:'none'" json:"transcript_status"`
	IngestStatus      IngestStatus     `gorm:"column:ingest_status;not null;default:'pending'" json:"ingest_status"`
	IsArchived        bool             `gorm:"column:is_archived;not null;default:false;index" json:"is_archived"`
	WordCount         int              `gorm:"column:word_count;not null;default:0" json:"word_count"`
	CreatedAt         time.Time        `gorm:"column:created_at;not null;default:now()" json:"created_at"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;not null;default:now()" json:"updated_at"`
}

func (Document) TableName() string { return "document" }

// DecodeAssets unmarshals the Assets JSON column into typed Asset values.
func (d *Document) DecodeAssets() ([]Asset, error) {
	return decodeJSONSlice[Asset](d.Assets)
}

// EncodeAssets marshals assets into the JSON column shape, for callers
// building an UpdateFields map without round-tripping through DecodeAssets.
func EncodeAssets(assets []Asset) (datatypes.JSON, error) {
	return encodeJSON(assets)
}
