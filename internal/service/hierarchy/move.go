package hierarchy

import (
	"context"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
	"github.com/graasp/graasp-sub008/internal/ordering"
)

// Move relocates a subtree under a new parent, nil meaning the root level.
// The whole relocation is one transaction: membership paths are rewritten
// first, then every item path in a single statement, so no reader ever sees
// the subtree half-moved.
func (s *hierarchyService) Move(ctx context.Context, actorID uuid.UUID, id uuid.UUID, destinationID *uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionAdmin); err != nil {
		return nil, err
	}

	var destination *models.Item
	newPrefix := ""
	if destinationID != nil {
		if *destinationID == id {
			return nil, &domain.InvalidMoveTargetError{ID: id.String()}
		}
		destination, err = s.items.GetByID(ctx, *destinationID)
		if err != nil {
			return nil, err
		}
		if _, err := s.authorizer.Authorize(ctx, actorID, destination, models.PermissionWrite); err != nil {
			return nil, err
		}
		if itempath.IsAncestorOrSelf(item.Path, destination.Path) {
			return nil, &domain.InvalidMoveTargetError{ID: id.String()}
		}
		newPrefix = destination.Path
	}
	if item.ParentPath() == newPrefix {
		// Already there; a no-op move is a caller mistake.
		return nil, &domain.InvalidMoveTargetError{ID: id.String()}
	}

	descendants, err := s.items.GetDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	if len(descendants) > s.limits.MaxDescendantsForMove {
		return nil, &domain.TooManyDescendantsError{
			Operation: "move",
			Count:     len(descendants),
			Max:       s.limits.MaxDescendantsForMove,
		}
	}

	var newOrder *float64
	if destination != nil {
		if err := s.checkParentCapacity(ctx, destination, 1); err != nil {
			return nil, err
		}
		height := subtreeHeight(item, descendants)
		if destination.Depth()+height > s.limits.MaxTreeDepth {
			return nil, &domain.TooDeepError{Depth: destination.Depth() + height, Max: s.limits.MaxTreeDepth}
		}
		children, err := s.items.GetChildrenOrdered(ctx, destination)
		if err != nil {
			return nil, err
		}
		order := tailOrder(children)
		newOrder = &order
	}

	redundantAccounts, err := s.redundantGrantsAfterMove(ctx, item, destination)
	if err != nil {
		return nil, err
	}

	newRootPath := itempath.Child(newPrefix, item.ID)
	var moved *models.Item
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		// Memberships first: their paths reference the old item paths, and
		// both rewrites see a consistent prefix inside the transaction.
		if err := s.memberships.RewritePathForSubtree(txCtx, item.Path, newRootPath); err != nil {
			return err
		}
		if len(redundantAccounts) > 0 {
			if err := s.memberships.DeleteManyByPathAndAccount(txCtx, newRootPath, redundantAccounts); err != nil {
				return err
			}
		}
		// The actor's admin may have been inherited from the old parent;
		// re-anchor it at the moved root when the destination grants less.
		if err := s.ensureAdminMembership(txCtx, actorID, newRootPath); err != nil {
			return err
		}
		moved, err = s.items.RewritePathForSubtree(txCtx, item, newPrefix, newOrder)
		return err
	})
	if err != nil {
		return nil, err
	}

	movedDescendants, err := s.items.GetDescendants(ctx, moved)
	if err == nil {
		s.indexItems(ctx, append([]models.Item{*moved}, movedDescendants...)...)
	} else {
		s.logger.Warn("reindex after move failed", "item_id", moved.ID, "error", err)
	}
	s.logger.Info("item moved", "item_id", moved.ID, "new_path_depth", moved.Depth(), "descendants", len(descendants))
	return moved, nil
}

// MoveMany relocates several subtrees, best-effort per item. The
// destination scope is re-spaced once at the end when the arrivals
// crowded it.
func (s *hierarchyService) MoveMany(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID, destinationID *uuid.UUID) (*hierarchySvc.BatchResult, error) {
	result := &hierarchySvc.BatchResult{Errors: map[uuid.UUID]error{}}
	for _, id := range ids {
		moved, err := s.Move(ctx, actorID, id, destinationID)
		if err != nil {
			result.Errors[id] = err
			continue
		}
		result.Items = append(result.Items, *moved)
	}
	if destinationID != nil && len(result.Items) > 0 {
		s.rescaleScope(ctx, *destinationID)
	}
	return result, nil
}

// rescaleScope re-spaces a parent's children after a batch lands there.
// The batch itself already committed, so a failure here only logs.
func (s *hierarchyService) rescaleScope(ctx context.Context, parentID uuid.UUID) {
	parent, err := s.items.GetByID(ctx, parentID)
	if err != nil {
		s.logger.Warn("rescale after batch failed", "parent_id", parentID, "error", err)
		return
	}
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		return s.rescaleIfNeeded(txCtx, parent)
	})
	if err != nil {
		s.logger.Warn("rescale after batch failed", "parent_id", parentID, "error", err)
	}
}

// redundantGrantsAfterMove finds accounts whose membership attached exactly
// at the moved root becomes useless at the destination: an inherited
// membership there already grants the same or a stronger permission.
func (s *hierarchyService) redundantGrantsAfterMove(ctx context.Context, item *models.Item, destination *models.Item) ([]uuid.UUID, error) {
	if destination == nil {
		return nil, nil
	}
	below, err := s.memberships.GetAllBelow(ctx, item.Path)
	if err != nil {
		return nil, err
	}
	var redundant []uuid.UUID
	for _, m := range below {
		if m.ItemPath != item.Path {
			continue
		}
		inherited, err := s.memberships.GetInherited(ctx, destination.Path, m.AccountID)
		if err != nil {
			return nil, err
		}
		if inherited != nil && inherited.Permission.AtLeast(m.Permission) {
			redundant = append(redundant, m.AccountID)
		}
	}
	return redundant, nil
}

// ensureAdminMembership grants the actor admin on a path unless an
// inherited membership already covers it. Used when a subtree becomes a new
// root: someone has to own it.
func (s *hierarchyService) ensureAdminMembership(ctx context.Context, actorID uuid.UUID, path string) error {
	existing, err := s.memberships.GetInherited(ctx, path, actorID)
	if err != nil {
		return err
	}
	if existing != nil && existing.Permission == models.PermissionAdmin {
		return nil
	}
	_, err = s.memberships.AddMany(ctx, []models.MembershipDraft{{
		ItemPath:   path,
		AccountID:  actorID,
		Permission: models.PermissionAdmin,
		CreatorID:  actorID,
	}})
	return err
}

// tailOrder computes the rank for an item appended at the end of a scope.
func tailOrder(children []models.Item) float64 {
	max := 0.0
	for _, c := range children {
		if c.Order != nil && *c.Order > max {
			max = *c.Order
		}
	}
	return max + ordering.DefaultStep
}
