package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// SearchIndexer mirrors hierarchy changes into the search index.
// Fire-and-forget: failures are logged by implementations and never abort
// the mutation that triggered them.
type SearchIndexer interface {
	Index(ctx context.Context, items []models.Item) error
	IndexOne(ctx context.Context, item *models.Item) error
	DeleteOne(ctx context.Context, item *models.Item) error
}

// ThumbnailStore serves and copies item thumbnails. CopyFolder is
// best-effort during subtree copy.
type ThumbnailStore interface {
	GetURLsByItems(ctx context.Context, items []models.Item) (map[uuid.UUID]models.ThumbnailURLs, error)
	CopyFolder(ctx context.Context, originalID, newID uuid.UUID) error
}

// MemberDirectory resolves account ids to the minimal identity attached to
// packed items. Missing accounts are simply absent from the result.
type MemberDirectory interface {
	GetManyByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MinimalMember, error)
}
