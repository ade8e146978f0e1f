package rss

import (
	"context"

	"newsfeed/internal/domain"
	"newsfeed/internal/logger"
	"newsfeed/internal/repository"
)

// Ingester stores feed entries whose titles are not yet known.
type Ingester struct {
	items repository.ItemRepository
}

func NewIngester(items repository.ItemRepository) *Ingester {
	return &Ingester{items: items}
}

// Ingest inserts entries in feed order and returns how many rows were
// created. Entries whose title already exists are skipped; a failure on one
// entry never stops the rest of the batch.
func (in *Ingester) Ingest(ctx context.Context, entries []Entry, source *domain.Source) int {
	created := 0
	for _, entry := range entries {
		if ctx.Err() != nil {
			logger.Warnf("Ingest for source %d interrupted: %v", source.ID, ctx.Err())
			break
		}

		item := &domain.Item{
			SourceID: source.ID,
			Title:    entry.Title,
			Link:     entry.Link,
			Summary:  entry.Summary,
		}
		if err := item.Validate(); err != nil {
			logger.Debugf("Skipping entry %q from source %d: %v", entry.Title, source.ID, err)
			continue
		}

		ok, err := in.items.CreateIfAbsent(ctx, item)
		if err != nil {
			logger.Warnf("Error storing entry %q from source %d: %v", entry.Title, source.ID, err)
			continue
		}
		if ok {
			created++
		}
	}
	return created
}
