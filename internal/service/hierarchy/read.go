package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
)

// Get returns one packed item.
func (s *hierarchyService) Get(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*models.PackedItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionRead); err != nil {
		return nil, err
	}
	return s.packOne(ctx, actorID, item)
}

// GetMany returns packed items in input id order. Any inaccessible or
// missing id fails the whole call.
func (s *hierarchyService) GetMany(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) ([]models.PackedItem, error) {
	items, err := s.items.GetMany(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range items {
		if _, err := s.authorizer.Authorize(ctx, actorID, &items[i], models.PermissionRead); err != nil {
			return nil, err
		}
	}
	return s.packMany(ctx, actorID, items)
}

// GetChildren returns the ordered, packed children of a folder, with hidden
// children dropped for actors below write level.
func (s *hierarchyService) GetChildren(ctx context.Context, actorID uuid.UUID, id uuid.UUID) ([]models.PackedItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionRead); err != nil {
		return nil, err
	}
	children, err := s.items.GetChildrenOrdered(ctx, item)
	if err != nil {
		return nil, err
	}
	packed, err := s.packMany(ctx, actorID, children)
	if err != nil {
		return nil, err
	}
	return dropHidden(packed), nil
}

// GetDescendants returns the packed subtree below an item in pre-order,
// with hidden branches dropped for actors below write level. Dropping a
// hidden item drops everything beneath it: descendants inherit the tag, so
// the prefix filter in dropHidden already covers them.
func (s *hierarchyService) GetDescendants(ctx context.Context, actorID uuid.UUID, id uuid.UUID) ([]models.PackedItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionRead); err != nil {
		return nil, err
	}
	descendants, err := s.items.GetDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	packed, err := s.packMany(ctx, actorID, descendants)
	if err != nil {
		return nil, err
	}
	return dropHidden(packed), nil
}

// GetAncestors returns the packed chain above an item, root first. The
// actor needs read on the item itself; an ancestor outside the actor's
// reach is still listed, its packed permission simply stays nil.
func (s *hierarchyService) GetAncestors(ctx context.Context, actorID uuid.UUID, id uuid.UUID) ([]models.PackedItem, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionRead); err != nil {
		return nil, err
	}
	ancestors, err := s.items.GetAncestors(ctx, item)
	if err != nil {
		return nil, err
	}
	return s.packMany(ctx, actorID, ancestors)
}

// GetOwn returns the actor's root items.
func (s *hierarchyService) GetOwn(ctx context.Context, actorID uuid.UUID) ([]models.PackedItem, error) {
	roots, err := s.items.GetRootsByCreator(ctx, actorID)
	if err != nil {
		return nil, err
	}
	return s.packMany(ctx, actorID, roots)
}

// GetShared returns items shared with the actor: each explicit membership
// whose path no other membership of the actor already covers from above,
// excluding items the actor created.
func (s *hierarchyService) GetShared(ctx context.Context, actorID uuid.UUID) ([]models.PackedItem, error) {
	memberships, err := s.memberships.GetByAccount(ctx, actorID)
	if err != nil {
		return nil, err
	}

	topPaths := topmostPaths(memberships)
	if len(topPaths) == 0 {
		return []models.PackedItem{}, nil
	}

	items, err := s.items.GetByPaths(ctx, topPaths)
	if err != nil {
		return nil, err
	}
	shared := items[:0]
	for _, item := range items {
		if item.CreatorID != actorID {
			shared = append(shared, item)
		}
	}
	return s.packMany(ctx, actorID, shared)
}

// topmostPaths keeps the membership paths that no other membership in the
// set covers from above.
func topmostPaths(memberships []models.Membership) []string {
	var paths []string
	for _, m := range memberships {
		covered := false
		for _, other := range memberships {
			if other.ItemPath != m.ItemPath && itempath.IsAncestorOrSelf(other.ItemPath, m.ItemPath) {
				covered = true
				break
			}
		}
		if !covered {
			paths = append(paths, m.ItemPath)
		}
	}
	return paths
}

// GetRecycled lists the actor's recycle-bin entries, newest first.
func (s *hierarchyService) GetRecycled(ctx context.Context, actorID uuid.UUID) ([]models.RecycleEntry, error) {
	return s.recycleBin.GetByCreator(ctx, actorID)
}
