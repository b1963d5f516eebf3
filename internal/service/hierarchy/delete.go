package hierarchy

import (
	"context"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
)

// Recycle soft-deletes subtrees into the recycle bin, best-effort per root.
// Each root gets one bin entry; descendants are marked deleted but tracked
// through their root only.
func (s *hierarchyService) Recycle(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) (*hierarchySvc.BatchResult, error) {
	result := &hierarchySvc.BatchResult{Errors: map[uuid.UUID]error{}}
	for _, id := range ids {
		recycled, err := s.recycleOne(ctx, actorID, id)
		if err != nil {
			result.Errors[id] = err
			continue
		}
		result.Items = append(result.Items, *recycled)
	}
	return result, nil
}

func (s *hierarchyService) recycleOne(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionAdmin); err != nil {
		return nil, err
	}

	// Count first so an oversized subtree is rejected without being
	// materialized.
	count, err := s.items.CountDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	if count > s.limits.MaxDescendantsForDelete {
		return nil, &domain.TooManyDescendantsError{
			Operation: "recycle",
			Count:     count,
			Max:       s.limits.MaxDescendantsForDelete,
		}
	}
	descendants, err := s.items.GetDescendants(ctx, item)
	if err != nil {
		return nil, err
	}

	targetIDs := make([]uuid.UUID, 0, len(descendants)+1)
	targetIDs = append(targetIDs, item.ID)
	for _, d := range descendants {
		targetIDs = append(targetIDs, d.ID)
	}

	var recycled *models.Item
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		updated, err := s.items.SoftDelete(txCtx, targetIDs)
		if err != nil {
			return err
		}
		for i := range updated {
			if updated[i].ID == item.ID {
				recycled = &updated[i]
			}
		}
		if recycled == nil {
			return &domain.NotFoundError{Resource: "item", ID: item.ID.String()}
		}
		_, err = s.recycleBin.AddMany(txCtx, []hierarchyRepo.RecycleEntryDraft{{
			ItemPath:  item.Path,
			CreatorID: actorID,
		}})
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deindexItems(ctx, append([]models.Item{*recycled}, descendants...))
	s.logger.Info("item recycled", "item_id", item.ID, "descendants", len(descendants))
	return recycled, nil
}

// Restore brings recycled subtrees back, best-effort per root. Restoring an
// item that has no bin entry is a NotFound, not a silent success.
func (s *hierarchyService) Restore(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) (*hierarchySvc.BatchResult, error) {
	result := &hierarchySvc.BatchResult{Errors: map[uuid.UUID]error{}}
	for _, id := range ids {
		restored, err := s.restoreOne(ctx, actorID, id)
		if err != nil {
			result.Errors[id] = err
			continue
		}
		result.Items = append(result.Items, *restored)
	}
	return result, nil
}

func (s *hierarchyService) restoreOne(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByIDIncludingDeleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionAdmin); err != nil {
		return nil, err
	}
	if !item.IsDeleted() {
		return nil, &domain.NotFoundError{Resource: "recycle entry", ID: id.String()}
	}

	deleted, err := s.items.GetDeletedDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	targetIDs := make([]uuid.UUID, 0, len(deleted)+1)
	targetIDs = append(targetIDs, item.ID)
	for _, d := range deleted {
		targetIDs = append(targetIDs, d.ID)
	}

	var restored *models.Item
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		removed, err := s.recycleBin.DeleteByItemPaths(txCtx, []string{item.Path})
		if err != nil {
			return err
		}
		if removed == 0 {
			return &domain.NotFoundError{Resource: "recycle entry", ID: id.String()}
		}
		updated, err := s.items.Restore(txCtx, targetIDs)
		if err != nil {
			return err
		}
		for i := range updated {
			if updated[i].ID == item.ID {
				restored = &updated[i]
			}
		}
		if restored == nil {
			return &domain.NotFoundError{Resource: "item", ID: item.ID.String()}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexItems(ctx, append([]models.Item{*restored}, deleted...)...)
	s.logger.Info("item restored", "item_id", item.ID, "descendants", len(deleted))
	return restored, nil
}

// Delete permanently removes subtrees, best-effort per root. Items may be
// live or recycled; either way the rows, their memberships, visibility tags
// and bin entries all go.
func (s *hierarchyService) Delete(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID) (*hierarchySvc.BatchResult, error) {
	result := &hierarchySvc.BatchResult{Errors: map[uuid.UUID]error{}}
	for _, id := range ids {
		deleted, err := s.deleteOne(ctx, actorID, id)
		if err != nil {
			result.Errors[id] = err
			continue
		}
		result.Items = append(result.Items, *deleted)
	}
	return result, nil
}

func (s *hierarchyService) deleteOne(ctx context.Context, actorID uuid.UUID, id uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByIDIncludingDeleted(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionAdmin); err != nil {
		return nil, err
	}

	// The live count alone can already exceed the budget; check it before
	// materializing anything.
	liveCount, err := s.items.CountDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	if liveCount > s.limits.MaxDescendantsForDelete {
		return nil, &domain.TooManyDescendantsError{
			Operation: "delete",
			Count:     liveCount,
			Max:       s.limits.MaxDescendantsForDelete,
		}
	}

	live, err := s.items.GetDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	recycled, err := s.items.GetDeletedDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	descendants := append(live, recycled...)
	if len(descendants) > s.limits.MaxDescendantsForDelete {
		return nil, &domain.TooManyDescendantsError{
			Operation: "delete",
			Count:     len(descendants),
			Max:       s.limits.MaxDescendantsForDelete,
		}
	}

	targetIDs := make([]uuid.UUID, 0, len(descendants)+1)
	targetIDs = append(targetIDs, item.ID)
	for _, d := range descendants {
		targetIDs = append(targetIDs, d.ID)
	}
	paths := subtreePaths(item, descendants)

	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.items.HardDelete(txCtx, targetIDs); err != nil {
			return err
		}
		if err := s.memberships.DeleteAllBelow(txCtx, []string{item.Path}); err != nil {
			return err
		}
		if err := s.visibilities.DeleteAllBelow(txCtx, []string{item.Path}); err != nil {
			return err
		}
		// Bin entries may exist for the root or any recycled descendant.
		_, err := s.recycleBin.DeleteByItemPaths(txCtx, paths)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.deindexItems(ctx, append([]models.Item{*item}, descendants...))
	s.logger.Info("item deleted", "item_id", item.ID, "descendants", len(descendants))
	return item, nil
}

// deindexItems removes items from the search index, best-effort.
func (s *hierarchyService) deindexItems(ctx context.Context, items []models.Item) {
	if s.search == nil {
		return
	}
	for i := range items {
		if err := s.search.DeleteOne(ctx, &items[i]); err != nil {
			s.logger.Warn("search deindexing failed", "item_id", items[i].ID, "error", err)
		}
	}
}
