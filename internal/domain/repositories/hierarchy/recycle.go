package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// RecycleEntryDraft records one recycled subtree root.
type RecycleEntryDraft struct {
	ItemPath  string
	CreatorID uuid.UUID
}

// RecycleBinRepository tracks recycled subtree roots for retention-window
// handling. Hard deletion after retention expiry is external policy.
type RecycleBinRepository interface {
	// AddMany records one entry per recycled root.
	AddMany(ctx context.Context, drafts []RecycleEntryDraft) ([]models.RecycleEntry, error)

	// DeleteByItemPaths removes the entries for the given paths and returns
	// how many were removed; restoring an item that is not in the bin is a
	// NotFound, not a silent success.
	DeleteByItemPaths(ctx context.Context, itemPaths []string) (int, error)

	// GetByCreator lists the bin entries recorded for the account.
	GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.RecycleEntry, error)
}
