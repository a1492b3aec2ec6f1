// Package ingest provides Ingestor implementations: RSS/podcast feed
// polling and a no-op manual source.
package ingest

import (
	"context"
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"

	"github.com/signal-noise/workbench/internal/adapters"
	"github.com/signal-noise/workbench/internal/pkg/logger"
)

// FeedIngestor pulls new items from an RSS/Atom or podcast feed via
// gofeed. One instance serves both source types — the feed format, not
// the Source.Type, determines whether enclosures carry audio.
type FeedIngestor struct {
	parser *gofeed.Parser
	log    *logger.Logger
}

func NewFeedIngestor(log *logger.Logger) *FeedIngestor {
	return &FeedIngestor{parser: gofeed.NewParser(), log: log.With("adapter", "FeedIngestor")}
}

func (f *FeedIngestor) Ingest(ctx context.Context, sourceName, feedURL string) ([]adapters.DocumentRecord, error) {
	if strings.TrimSpace(feedURL) == "" {
		return nil, &adapters.BadRequest{Err: fmt.Errorf("source %q has no feed_url", sourceName)}
	}

	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("parse feed %s: %w", feedURL, err)
	}

	out := make([]adapters.DocumentRecord, 0, len(feed.Items))
	for _, item := range feed.Items {
		if item == nil {
			continue
		}
		externalID := item.GUID
		if externalID == "" {
			externalID = item.Link
		}
		if externalID == "" {
			continue
		}

		rec := adapters.DocumentRecord{
			ExternalID:        externalID,
			Title:             item.Title,
			OriginalURL:       item.Link,
			OriginalMediaType: "text/html",
			ContentText:       item.Description,
			ContentHTML:       item.Content,
		}
		if item.PublishedParsed != nil {
			rec.PublishedAt = item.PublishedParsed
		}
		if item.Author != nil {
			rec.Author = item.Author.Name
		}
		for _, enc := range item.Enclosures {
			if enc == nil {
				continue
			}
			if strings.HasPrefix(enc.Type, "audio/") || strings.HasPrefix(enc.Type, "video/") {
				rec.AudioURL = enc.URL
				rec.OriginalMediaType = enc.Type
				break
			}
		}
		out = append(out, rec)
	}
	return out, nil
}
