package ingest

import (
	"context"

	"github.com/signal-noise/workbench/internal/adapters"
)

// ManualIngestor backs Source.Type == manual: documents for these
// sources are created directly through the API, never polled.
type ManualIngestor struct{}

func NewManualIngestor() *ManualIngestor { return &ManualIngestor{} }

func (m *ManualIngestor) Ingest(ctx context.Context, sourceName, feedURL string) ([]adapters.DocumentRecord, error) {
	return nil, nil
}
