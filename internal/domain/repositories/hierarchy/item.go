package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// ItemPatch carries the non-structural fields of an item update. At least
// one field must be set.
type ItemPatch struct {
	Name        *string
	Settings    *models.ItemSettings
	Extra       models.ItemExtra
	Geolocation []byte
}

// Empty reports whether the patch changes nothing.
func (p ItemPatch) Empty() bool {
	return p.Name == nil && p.Settings == nil && p.Extra == nil && p.Geolocation == nil
}

// ItemRepository defines persistence over the item table keyed by
// materialized path. All reads exclude soft-deleted rows unless stated
// otherwise; every method participates in the caller's transaction when one
// is present in the context.
type ItemRepository interface {
	// GetByID retrieves a live item by id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// GetByIDIncludingDeleted retrieves an item regardless of its
	// soft-delete state (admin-scoped recycle-bin access).
	GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*models.Item, error)

	// GetMany retrieves items by id, reordered to match the input order.
	// Fails with NotFound naming the first missing id.
	GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)

	// GetAncestors returns the item's ancestors ordered root first,
	// excluding the item itself.
	GetAncestors(ctx context.Context, item *models.Item) ([]models.Item, error)

	// GetDirectChildren returns the parent's immediate children.
	GetDirectChildren(ctx context.Context, parent *models.Item) ([]models.Item, error)

	// GetChildrenOrdered returns the parent's immediate children by order,
	// tie-broken by creation time.
	GetChildrenOrdered(ctx context.Context, parent *models.Item) ([]models.Item, error)

	// GetDescendants returns the whole subtree below item (excluding item)
	// in pre-order: a parent always precedes its children. An optional type
	// filter keeps only the given types.
	GetDescendants(ctx context.Context, item *models.Item, types ...models.ItemType) ([]models.Item, error)

	// GetDeletedDescendants returns the soft-deleted subtree below item,
	// pre-order (restore expansion).
	GetDeletedDescendants(ctx context.Context, item *models.Item) ([]models.Item, error)

	// CountDescendants counts the live subtree below item without
	// materializing it.
	CountDescendants(ctx context.Context, item *models.Item) (int, error)

	// GetRootsByCreator returns the live root items created by the account.
	GetRootsByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Item, error)

	// GetByPaths retrieves live items by exact path.
	GetByPaths(ctx context.Context, paths []string) ([]models.Item, error)

	// Insert persists one fully computed item and fills server-assigned
	// timestamps.
	Insert(ctx context.Context, item *models.Item) (*models.Item, error)

	// InsertMany persists a batch in one statement, returning rows in input
	// order (the first row of a copy batch is the new subtree root).
	InsertMany(ctx context.Context, items []models.Item) ([]models.Item, error)

	// RewritePathForSubtree replaces, in a single atomic statement, the
	// leading depth(root)-1 segments of every descendant-or-self path with
	// newPrefix, sets the root's order to newOrder, and returns the updated
	// root. Concurrent readers never observe a half-rewritten subtree.
	RewritePathForSubtree(ctx context.Context, root *models.Item, newPrefix string, newOrder *float64) (*models.Item, error)

	// SoftDelete marks the items deleted and returns the updated rows.
	SoftDelete(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)

	// Restore clears the soft-delete marker and returns the updated rows.
	Restore(ctx context.Context, ids []uuid.UUID) ([]models.Item, error)

	// HardDelete removes the rows permanently.
	HardDelete(ctx context.Context, ids []uuid.UUID) error

	// UpdateFields applies a partial non-structural patch. Fails if the
	// patch is empty or the item is absent.
	UpdateFields(ctx context.Context, id uuid.UUID, patch ItemPatch) (*models.Item, error)

	// UpdateOrder rewrites one sibling's rank (rescale write).
	UpdateOrder(ctx context.Context, id uuid.UUID, order float64) error
}
