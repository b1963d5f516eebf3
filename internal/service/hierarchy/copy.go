package hierarchy

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
)

// Copy duplicates a subtree under a destination. Every copied item gets a
// fresh id, the actor becomes the creator, and the root name is
// disambiguated against the destination's existing children. Hidden tags
// attached inside the source subtree are re-attached to the copies.
func (s *hierarchyService) Copy(ctx context.Context, actorID uuid.UUID, id uuid.UUID, destinationID *uuid.UUID) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionRead); err != nil {
		return nil, err
	}

	var destination *models.Item
	destPrefix := ""
	if destinationID != nil {
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
		destPrefix = destination.Path
	}

	descendants, err := s.items.GetDescendants(ctx, item)
	if err != nil {
		return nil, err
	}
	if len(descendants) > s.limits.MaxDescendantsForCopy {
		return nil, &domain.TooManyDescendantsError{
			Operation: "copy",
			Count:     len(descendants),
			Max:       s.limits.MaxDescendantsForCopy,
		}
	}

	var rootOrder *float64
	rootName := item.Name
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
		taken := make(map[string]struct{}, len(children))
		for _, c := range children {
			taken[c.Name] = struct{}{}
		}
		rootName = disambiguateName(item.Name, taken, s.limits.MaxItemNameLength)
		order := tailOrder(children)
		rootOrder = &order
	} else {
		taken, err := s.accessibleRootNames(ctx, actorID)
		if err != nil {
			return nil, err
		}
		rootName = disambiguateName(item.Name, taken, s.limits.MaxItemNameLength)
	}

	rows, idMap, err := cloneSubtree(item, descendants, destPrefix, rootName, rootOrder, actorID)
	if err != nil {
		return nil, err
	}
	visibilityDrafts, err := s.subtreeVisibilityCopies(ctx, item, idMap, destPrefix, actorID)
	if err != nil {
		return nil, err
	}

	var copied []models.Item
	err = s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		copied, err = s.items.InsertMany(txCtx, rows)
		if err != nil {
			return err
		}
		// The actor owns the copy; read access on the source does not
		// carry any grant over to the fresh subtree.
		if err := s.ensureAdminMembership(txCtx, actorID, copied[0].Path); err != nil {
			return err
		}
		for _, draft := range visibilityDrafts {
			if _, err := s.visibilities.Post(txCtx, draft); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.copyThumbnails(ctx, append([]models.Item{*item}, descendants...), idMap)
	s.indexItems(ctx, copied...)
	s.logger.Info("item copied", "source_id", item.ID, "copy_id", copied[0].ID, "descendants", len(descendants))
	return &copied[0], nil
}

// CopyMany duplicates several subtrees, best-effort per item. The
// destination scope is re-spaced once at the end when the arrivals
// crowded it.
func (s *hierarchyService) CopyMany(ctx context.Context, actorID uuid.UUID, ids []uuid.UUID, destinationID *uuid.UUID) (*hierarchySvc.BatchResult, error) {
	result := &hierarchySvc.BatchResult{Errors: map[uuid.UUID]error{}}
	for _, id := range ids {
		copied, err := s.Copy(ctx, actorID, id, destinationID)
		if err != nil {
			result.Errors[id] = err
			continue
		}
		result.Items = append(result.Items, *copied)
	}
	if destinationID != nil && len(result.Items) > 0 {
		s.rescaleScope(ctx, *destinationID)
	}
	return result, nil
}

// accessibleRootNames collects the names a root-level copy competes with:
// the actor's own roots plus the topmost items shared with them.
func (s *hierarchyService) accessibleRootNames(ctx context.Context, actorID uuid.UUID) (map[string]struct{}, error) {
	taken := make(map[string]struct{})
	roots, err := s.items.GetRootsByCreator(ctx, actorID)
	if err != nil {
		return nil, err
	}
	for _, r := range roots {
		taken[r.Name] = struct{}{}
	}
	memberships, err := s.memberships.GetByAccount(ctx, actorID)
	if err != nil {
		return nil, err
	}
	topPaths := topmostPaths(memberships)
	if len(topPaths) == 0 {
		return taken, nil
	}
	shared, err := s.items.GetByPaths(ctx, topPaths)
	if err != nil {
		return nil, err
	}
	for _, item := range shared {
		taken[item.Name] = struct{}{}
	}
	return taken, nil
}

// cloneSubtree builds the rows of a subtree copy: fresh ids throughout,
// paths rebased under destPrefix with every in-subtree segment remapped.
// The root row comes first; descendants keep their relative order values.
func cloneSubtree(root *models.Item, descendants []models.Item, destPrefix, rootName string, rootOrder *float64, actorID uuid.UUID) ([]models.Item, map[uuid.UUID]uuid.UUID, error) {
	idMap := make(map[uuid.UUID]uuid.UUID, len(descendants)+1)
	idMap[root.ID] = uuid.New()
	for _, d := range descendants {
		idMap[d.ID] = uuid.New()
	}

	prefixLen := root.Depth() - 1
	remapPath := func(path string) (string, error) {
		segments, err := itempath.Decode(path)
		if err != nil {
			return "", fmt.Errorf("decode path %q: %w", path, err)
		}
		mapped := destPrefix
		for _, segment := range segments[prefixLen:] {
			newID, ok := idMap[segment]
			if !ok {
				return "", fmt.Errorf("path %q leaves the copied subtree", path)
			}
			mapped = itempath.Child(mapped, newID)
		}
		return mapped, nil
	}

	rows := make([]models.Item, 0, len(descendants)+1)
	rootPath, err := remapPath(root.Path)
	if err != nil {
		return nil, nil, err
	}
	rootCopy := *root
	rootCopy.ID = idMap[root.ID]
	rootCopy.Name = rootName
	rootCopy.Path = rootPath
	rootCopy.Order = rootOrder
	rootCopy.CreatorID = actorID
	rows = append(rows, rootCopy)

	for _, d := range descendants {
		path, err := remapPath(d.Path)
		if err != nil {
			return nil, nil, err
		}
		copyRow := d
		copyRow.ID = idMap[d.ID]
		copyRow.Path = path
		copyRow.CreatorID = actorID
		rows = append(rows, copyRow)
	}
	return rows, idMap, nil
}

// subtreeVisibilityCopies collects the hidden tags attached at or below the
// source root and maps them onto the copied paths. Public tags are not
// copied: publishing is an explicit act on the copy.
func (s *hierarchyService) subtreeVisibilityCopies(ctx context.Context, root *models.Item, idMap map[uuid.UUID]uuid.UUID, destPrefix string, actorID uuid.UUID) ([]hierarchyRepo.VisibilityDraft, error) {
	var sources []models.Visibility
	atRoot, err := s.visibilities.GetType(ctx, root.Path, models.VisibilityHidden)
	if err != nil {
		return nil, err
	}
	if atRoot != nil && atRoot.ItemPath == root.Path {
		sources = append(sources, *atRoot)
	}
	below, err := s.visibilities.GetBelow(ctx, root.Path, models.VisibilityHidden)
	if err != nil {
		return nil, err
	}
	sources = append(sources, below...)

	prefixLen := root.Depth() - 1
	drafts := make([]hierarchyRepo.VisibilityDraft, 0, len(sources))
	for _, v := range sources {
		segments, err := itempath.Decode(v.ItemPath)
		if err != nil {
			return nil, fmt.Errorf("decode visibility path %q: %w", v.ItemPath, err)
		}
		mapped := destPrefix
		for _, segment := range segments[prefixLen:] {
			newID, ok := idMap[segment]
			if !ok {
				return nil, fmt.Errorf("visibility path %q leaves the copied subtree", v.ItemPath)
			}
			mapped = itempath.Child(mapped, newID)
		}
		drafts = append(drafts, hierarchyRepo.VisibilityDraft{
			ItemPath:  mapped,
			Type:      models.VisibilityHidden,
			CreatorID: actorID,
		})
	}
	return drafts, nil
}

// copyThumbnails duplicates stored thumbnails for copied items, best-effort.
func (s *hierarchyService) copyThumbnails(ctx context.Context, originals []models.Item, idMap map[uuid.UUID]uuid.UUID) {
	if s.thumbnails == nil {
		return
	}
	for _, original := range originals {
		if !original.Settings.HasThumbnail {
			continue
		}
		newID, ok := idMap[original.ID]
		if !ok {
			continue
		}
		if err := s.thumbnails.CopyFolder(ctx, original.ID, newID); err != nil {
			s.logger.Warn("thumbnail copy failed", "source_id", original.ID, "copy_id", newID, "error", err)
		}
	}
}
