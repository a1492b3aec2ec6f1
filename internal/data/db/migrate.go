package db

import (
	"gorm.io/gorm"

	"github.com/signal-noise/workbench/internal/domain"
)

// AutoMigrateAll creates/updates every table the system owns, then applies
// the one constraint GORM's struct tags can't express: the partial unique
// index backing "at most one queued IngestionRequest per source".
func AutoMigrateAll(gdb *gorm.DB) error {
	if err := gdb.AutoMigrate(
		&domain.Source{},
		&domain.Document{},
		&domain.Segment{},
		&domain.Hypothesis{},
		&domain.HypothesisVersion{},
		&domain.HypothesisSegmentLink{},
		&domain.HypothesisSegmentLinkRun{},
		&domain.Question{},
		&domain.QuestionHypothesisLink{},
		&domain.HypothesisReferenceCache{},
		&domain.IngestionRequest{},
		&domain.TranscriptionRequest{},
	); err != nil {
		return err
	}
	return EnsureQueueIndexes(gdb)
}

// EnsureQueueIndexes applies the raw-SQL constraints GORM tags cannot
// express: a partial unique index enforcing at most one queued
// IngestionRequest per source_id.
func EnsureQueueIndexes(gdb *gorm.DB) error {
	return gdb.Exec(`
		CREATE UNIQUE INDEX IF NOT EXISTS idx_ingestion_request_one_queued_per_source
		ON ingestion_request (source_id)
		WHERE status = 'queued'
	`).Error
}
