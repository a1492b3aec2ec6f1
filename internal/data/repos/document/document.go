package document

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/signal-noise/workbench/internal/domain"
	"github.com/signal-noise/workbench/internal/pkg/dbctx"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// Summary is a Document row enriched with its segment count, the shape
// the active-documents listing returns.
type Summary struct {
	domain.Document
	SegmentCount int64 `json:"segment_count"`
}

type Repo interface {
	ListActive(dbc dbctx.Context) ([]*Summary, error)
	GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error)
	GetBySourceAndExternalID(dbc dbctx.Context, sourceID uuid.UUID, externalID string) (*domain.Document, error)
	Upsert(dbc dbctx.Context, doc *domain.Document) (*domain.Document, error)
	// Create inserts a Document outside the Source/feed upsert workflow —
	// a direct-URL ingest has no source_id to key an upsert on and, per
	// the workflow it's grounded on, always produces a new row.
	Create(dbc dbctx.Context, doc *domain.Document) (*domain.Document, error)
	Archive(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error)
	UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error
}

type repo struct {
	db  *gorm.DB
	log *logger.Logger
}

func NewRepo(db *gorm.DB, baseLog *logger.Logger) Repo {
	return &repo{db: db, log: baseLog.With("repo", "DocumentRepo")}
}

func (r *repo) tx(dbc dbctx.Context) *gorm.DB {
	if dbc.Tx != nil {
		return dbc.Tx.WithContext(dbc.Ctx)
	}
	return r.db.WithContext(dbc.Ctx)
}

func (r *repo) ListActive(dbc dbctx.Context) ([]*Summary, error) {
	var out []*Summary
	err := r.tx(dbc).
		Table("document AS d").
		Select(`d.*, COUNT(s.id) AS segment_count`).
		Joins("LEFT JOIN segment s ON s.document_id = d.id").
		Where("d.is_archived = ?", false).
		Group("d.id").
		Order("d.published_at DESC NULLS LAST, d.created_at DESC").
		Scan(&out).Error
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (r *repo) GetByID(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	var d domain.Document
	err := r.tx(dbc).Where("id = ?", id).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

func (r *repo) GetBySourceAndExternalID(dbc dbctx.Context, sourceID uuid.UUID, externalID string) (*domain.Document, error) {
	if sourceID == uuid.Nil || externalID == "" {
		return nil, nil
	}
	var d domain.Document
	err := r.tx(dbc).Where("source_id = ? AND external_id = ?", sourceID, externalID).First(&d).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &d, nil
}

// Upsert inserts a new document or updates the existing row for
// (source_id, external_id), matching the Ingestor contract of idempotent
// upserts (see SPEC_FULL §4.3).
func (r *repo) Upsert(dbc dbctx.Context, doc *domain.Document) (*domain.Document, error) {
	if doc.SourceID == nil {
		return nil, fmt.Errorf("upsert requires a non-nil source_id; use Create for direct-url documents")
	}
	err := r.tx(dbc).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "source_id"}, {Name: "external_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"title", "author", "published_at", "original_url", "original_media_type",
			"content_text", "content_html", "assets", "ingest_status", "word_count", "updated_at",
		}),
	}).Create(doc).Error
	if err != nil {
		return nil, err
	}
	return r.GetBySourceAndExternalID(dbc, *doc.SourceID, doc.ExternalID)
}

// Create inserts a Document with no source_id — a direct-URL ingest
// (SPEC_FULL §4.8) — and returns the inserted row.
func (r *repo) Create(dbc dbctx.Context, doc *domain.Document) (*domain.Document, error) {
	if err := r.tx(dbc).Create(doc).Error; err != nil {
		return nil, err
	}
	return doc, nil
}

func (r *repo) Archive(dbc dbctx.Context, id uuid.UUID) (*domain.Document, error) {
	if id == uuid.Nil {
		return nil, nil
	}
	if err := r.UpdateFields(dbc, id, map[string]any{"is_archived": true}); err != nil {
		return nil, err
	}
	return r.GetByID(dbc, id)
}

func (r *repo) UpdateFields(dbc dbctx.Context, id uuid.UUID, updates map[string]any) error {
	if id == uuid.Nil {
		return nil
	}
	if updates == nil {
		updates = map[string]any{}
	}
	if _, ok := updates["updated_at"]; !ok {
		updates["updated_at"] = time.Now()
	}
	return r.tx(dbc).Model(&domain.Document{}).Where("id = ?", id).Updates(updates).Error
}
