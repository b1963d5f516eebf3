package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// VisibilityDraft is the insertable slice of a visibility tag.
type VisibilityDraft struct {
	ItemPath  string
	Type      models.VisibilityType
	CreatorID uuid.UUID
}

// VisibilityRepository defines persistence for public/hidden tags.
type VisibilityRepository interface {
	// GetType returns the tag of the given type covering the path (attached
	// to the path itself or any ancestor), or nil when none exists. The
	// creation invariant guarantees at most one per chain.
	GetType(ctx context.Context, itemPath string, t models.VisibilityType) (*models.Visibility, error)

	// GetForManyItems returns, for each item, every tag covering its
	// ancestor chain, in one batched query keyed by item id.
	GetForManyItems(ctx context.Context, items []models.Item) (map[uuid.UUID][]models.Visibility, error)

	// GetBelow returns tags of the given type attached strictly below the
	// path (conflict detection at creation).
	GetBelow(ctx context.Context, itemPath string, t models.VisibilityType) ([]models.Visibility, error)

	// Post attaches a tag. Fails with Conflict when a tag of the same type
	// already covers the chain or exists below it.
	Post(ctx context.Context, draft VisibilityDraft) (*models.Visibility, error)

	// DeleteOne removes a tag by id.
	DeleteOne(ctx context.Context, id uuid.UUID) error

	// DeleteAllBelow removes every tag at or below each path.
	DeleteAllBelow(ctx context.Context, itemPaths []string) error
}
