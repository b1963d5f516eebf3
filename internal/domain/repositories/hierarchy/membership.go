package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// MembershipRepository defines persistence for item memberships. Inheritance
// is expressed by ancestor-path matching at query time.
type MembershipRepository interface {
	// GetInherited returns the strongest membership the account holds on the
	// path or any of its ancestors, or nil when none exists.
	GetInherited(ctx context.Context, itemPath string, accountID uuid.UUID) (*models.Membership, error)

	// GetForManyItems resolves the account's effective membership for each
	// item in one batched query, keyed by item id.
	GetForManyItems(ctx context.Context, items []models.Item, accountID uuid.UUID) (map[uuid.UUID]*models.Membership, error)

	// GetAllBelow returns every membership attached at or below the path
	// (move housekeeping input).
	GetAllBelow(ctx context.Context, itemPath string) ([]models.Membership, error)

	// GetByAccount returns all memberships held by the account.
	GetByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Membership, error)

	// AddMany inserts the drafts in one statement.
	AddMany(ctx context.Context, drafts []models.MembershipDraft) ([]models.Membership, error)

	// DeleteManyByPathAndAccount removes the accounts' memberships attached
	// exactly at the path (redundant grants after a move).
	DeleteManyByPathAndAccount(ctx context.Context, itemPath string, accountIDs []uuid.UUID) error

	// RewritePathForSubtree updates membership paths under oldPrefix to live
	// under newPrefix. Runs in the same transaction as the item path
	// rewrite, before it.
	RewritePathForSubtree(ctx context.Context, oldPrefix, newPrefix string) error

	// DeleteAllBelow removes every membership at or below each path
	// (hard-delete cleanup).
	DeleteAllBelow(ctx context.Context, itemPaths []string) error
}
