package hierarchy

import (
	"context"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	"github.com/graasp/graasp-sub008/internal/ordering"
)

// Reorder repositions an item within its parent scope. A nil previous
// sibling moves it to the head, strictly below the current minimum so
// repeated head-inserts keep working. The write and any follow-up rescale
// share one transaction.
func (s *hierarchyService) Reorder(ctx context.Context, actorID uuid.UUID, id uuid.UUID, previousSiblingID *uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionWrite); err != nil {
		return nil, err
	}
	if item.IsRoot() {
		return nil, &domain.ValidationError{Message: "root items have no ordering scope"}
	}
	if previousSiblingID != nil && *previousSiblingID == id {
		return nil, &domain.ValidationError{Message: "item cannot follow itself"}
	}

	parentID := item.ParentID()
	parent, err := s.items.GetByID(ctx, *parentID)
	if err != nil {
		return nil, err
	}
	children, err := s.items.GetChildrenOrdered(ctx, parent)
	if err != nil {
		return nil, err
	}

	// The moving item does not take part in its own scope computation.
	others := make([]models.Item, 0, len(children))
	for _, c := range children {
		if c.ID != id {
			others = append(others, c)
		}
	}
	newOrder, err := ordering.NextOrder(siblingsOf(others), previousSiblingID)
	if err != nil {
		return nil, &domain.ValidationError{Message: err.Error()}
	}

	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.items.UpdateOrder(txCtx, id, newOrder); err != nil {
			return err
		}
		return s.rescaleIfNeeded(txCtx, parent)
	})
	if err != nil {
		return nil, err
	}

	return s.items.GetByID(ctx, id)
}

// FixOrder repairs ordering corruption across a whole subtree: every parent
// scope at or below the root is rescaled from the stored ranks and creation
// times. All writes share one transaction; a partial repair would corrupt
// scopes that were previously fine.
func (s *hierarchyService) FixOrder(ctx context.Context, actorID uuid.UUID, rootID uuid.UUID) error {
	root, err := s.items.GetByID(ctx, rootID)
	if err != nil {
		return err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, root, models.PermissionAdmin); err != nil {
		return err
	}

	descendants, err := s.items.GetDescendants(ctx, root)
	if err != nil {
		return err
	}

	// Group the subtree into sibling scopes by parent path. The root's own
	// children belong to the root scope; the root itself is not rescaled.
	scopes := map[string][]ordering.Sibling{}
	for _, d := range descendants {
		parentPath := d.ParentPath()
		scopes[parentPath] = append(scopes[parentPath], ordering.Sibling{
			ID:        d.ID,
			Order:     d.Order,
			CreatedAt: d.CreatedAt,
		})
	}

	return s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		for parentPath, siblings := range scopes {
			for _, a := range ordering.Rescale(siblings) {
				if err := s.items.UpdateOrder(txCtx, a.ID, a.Order); err != nil {
					return &domain.OrderingError{ParentPath: parentPath, Err: err}
				}
			}
		}
		return nil
	})
}
