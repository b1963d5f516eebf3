// Package search holds the search-index collaborator used by the hierarchy
// service. Indexing is strictly best-effort: the tree is the source of
// truth and the index is rebuilt from it, so failures are logged, never
// propagated into mutations.
package search

import (
	"context"
	"log/slog"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
)

// LoggingIndexer records index operations in the structured log. It stands
// in until a real search backend is wired; the service-facing contract is
// identical either way.
type LoggingIndexer struct {
	logger *slog.Logger
}

// NewLoggingIndexer creates the logging indexer.
func NewLoggingIndexer(logger *slog.Logger) hierarchySvc.SearchIndexer {
	return &LoggingIndexer{logger: logger}
}

// Index records a batch of items to index.
func (i *LoggingIndexer) Index(ctx context.Context, items []models.Item) error {
	ids := make([]string, len(items))
	for n, item := range items {
		ids[n] = item.ID.String()
	}
	i.logger.Debug("index items", "item_ids", ids)
	return nil
}

// IndexOne records one item to index.
func (i *LoggingIndexer) IndexOne(ctx context.Context, item *models.Item) error {
	i.logger.Debug("index item", "item_id", item.ID)
	return nil
}

// DeleteOne records one item to drop from the index.
func (i *LoggingIndexer) DeleteOne(ctx context.Context, item *models.Item) error {
	i.logger.Debug("deindex item", "item_id", item.ID)
	return nil
}
