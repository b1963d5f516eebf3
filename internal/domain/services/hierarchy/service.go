package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// CreateItemRequest carries one item creation. ParentID nil creates a root
// item; PreviousSiblingID positions the item after that sibling, nil means
// head of the list.
type CreateItemRequest struct {
	ParentID          *uuid.UUID        `json:"parent_id,omitempty"`
	PreviousSiblingID *uuid.UUID        `json:"previous_sibling_id,omitempty"`
	Draft             models.ItemDraft  `json:"item"`
}

// BatchResult reports per-item outcomes of a multi-item operation. A failure
// on one item does not roll back siblings already processed: callers must
// treat these operations as best-effort.
type BatchResult struct {
	Items  []models.Item       `json:"items"`
	Errors map[uuid.UUID]error `json:"-"`
}

// Failed reports whether any sub-operation failed.
func (r *BatchResult) Failed() bool { return len(r.Errors) > 0 }

// Service orchestrates multi-step tree mutations, enforcing depth, fanout
// and size limits. Read paths return packed items decorated with the
// actor's effective permission and visibility; mutations return raw items.
type Service interface {
	// Create inserts one item under a parent (or as a root).
	Create(ctx context.Context, actorID uuid.UUID, req *CreateItemRequest) (*models.Item, error)

	// CreateMany inserts several siblings under one parent, then rescales
	// the parent scope (parallel inserts do not coordinate their ranks).
	CreateMany(ctx context.Context, actorID uuid.UUID, parentID *uuid.UUID, drafts []models.ItemDraft) (*BatchResult, error)

	// Get returns one packed item.
	Get(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*models.PackedItem, error)

	// GetMany returns packed items in input id order.
	GetMany(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) ([]models.PackedItem, error)

	// GetChildren returns the ordered, packed children of a folder.
	GetChildren(ctx context.Context, actorID uuid.UUID, id uuid.UUID) ([]models.PackedItem, error)

	// GetDescendants returns the packed subtree below an item, parents
	// before children.
	GetDescendants(ctx context.Context, actorID uuid.UUID, id uuid.UUID) ([]models.PackedItem, error)

	// GetAncestors returns the packed chain above an item, root first.
	GetAncestors(ctx context.Context, actorID uuid.UUID, id uuid.UUID) ([]models.PackedItem, error)

	// GetOwn returns the actor's root items.
	GetOwn(ctx context.Context, actorID uuid.UUID) ([]models.PackedItem, error)

	// GetShared returns items shared with the actor through an explicit
	// membership that no ancestor membership already covers.
	GetShared(ctx context.Context, actorID uuid.UUID) ([]models.PackedItem, error)

	// GetRecycled lists the actor's recycle-bin entries.
	GetRecycled(ctx context.Context, actorID uuid.UUID) ([]models.RecycleEntry, error)

	// Patch applies a non-structural update.
	Patch(ctx context.Context, actorID uuid.UUID, id uuid.UUID, patch models.ItemDraft) (*models.Item, error)

	// Move relocates a subtree under a new parent (nil = to root).
	Move(ctx context.Context, actorID uuid.UUID, id uuid.UUID, destinationID *uuid.UUID) (*models.Item, error)

	// MoveMany relocates several subtrees, best-effort per item.
	MoveMany(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID, destinationID *uuid.UUID) (*BatchResult, error)

	// Copy duplicates a subtree under a destination with fresh ids and a
	// disambiguated root name.
	Copy(ctx context.Context, actorID uuid.UUID, id uuid.UUID, destinationID *uuid.UUID) (*models.Item, error)

	// CopyMany duplicates several subtrees, best-effort per item.
	CopyMany(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID, destinationID *uuid.UUID) (*BatchResult, error)

	// Delete permanently removes subtrees (irreversible).
	Delete(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) (*BatchResult, error)

	// Recycle soft-deletes subtrees into the recycle bin.
	Recycle(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) (*BatchResult, error)

	// Restore brings recycled subtrees back.
	Restore(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) (*BatchResult, error)

	// Reorder repositions an item within its parent scope; nil previous
	// sibling moves it to the head.
	Reorder(ctx context.Context, actorID uuid.UUID, id uuid.UUID, previousSiblingID *uuid.UUID) (*models.Item, error)

	// FixOrder repairs ordering corruption across a whole subtree by
	// rescaling every parent scope from path and creation time alone.
	FixOrder(ctx context.Context, actorID uuid.UUID, rootID uuid.UUID) error
}
