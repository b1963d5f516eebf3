// Package hierarchy implements the content tree service: creation, reads
// packed with permissions and visibility, structural mutations (move, copy,
// recycle, restore, delete) and sibling ordering.
package hierarchy

import (
	"context"
	"log/slog"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/config"
	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	"github.com/graasp/graasp-sub008/internal/domain/repositories"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	"github.com/graasp/graasp-sub008/internal/domain/services"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
	"github.com/graasp/graasp-sub008/internal/ordering"
)

type hierarchyService struct {
	items        hierarchyRepo.ItemRepository
	memberships  hierarchyRepo.MembershipRepository
	visibilities hierarchyRepo.VisibilityRepository
	recycleBin   hierarchyRepo.RecycleBinRepository
	tx           repositories.TransactionManager
	authorizer   services.Authorizer
	members      hierarchySvc.MemberDirectory
	search       hierarchySvc.SearchIndexer
	thumbnails   hierarchySvc.ThumbnailStore
	limits       config.Limits
	logger       *slog.Logger
}

// NewService creates the hierarchy service.
func NewService(
	items hierarchyRepo.ItemRepository,
	memberships hierarchyRepo.MembershipRepository,
	visibilities hierarchyRepo.VisibilityRepository,
	recycleBin hierarchyRepo.RecycleBinRepository,
	tx repositories.TransactionManager,
	authorizer services.Authorizer,
	members hierarchySvc.MemberDirectory,
	search hierarchySvc.SearchIndexer,
	thumbnails hierarchySvc.ThumbnailStore,
	limits config.Limits,
	logger *slog.Logger,
) hierarchySvc.Service {
	return &hierarchyService{
		items:        items,
		memberships:  memberships,
		visibilities: visibilities,
		recycleBin:   recycleBin,
		tx:           tx,
		authorizer:   authorizer,
		members:      members,
		search:       search,
		thumbnails:   thumbnails,
		limits:       limits,
		logger:       logger,
	}
}

// Create inserts one item under a parent, or as a new root owned by the
// actor.
func (s *hierarchyService) Create(ctx context.Context, actorID uuid.UUID, req *hierarchySvc.CreateItemRequest) (*models.Item, error) {
	if err := s.validateDraft(&req.Draft); err != nil {
		return nil, err
	}

	var parent *models.Item
	var inherited *models.Membership
	if req.ParentID != nil {
		var err error
		parent, err = s.items.GetByID(ctx, *req.ParentID)
		if err != nil {
			return nil, err
		}
		inherited, err = s.authorizer.Authorize(ctx, actorID, parent, models.PermissionWrite)
		if err != nil {
			return nil, err
		}
		if err := s.checkParentCapacity(ctx, parent, 1); err != nil {
			return nil, err
		}
	} else if req.PreviousSiblingID != nil {
		return nil, &domain.ValidationError{Message: "root items have no ordering scope"}
	}

	item := models.Item{
		ID:          uuid.New(),
		Name:        req.Draft.Name,
		Type:        req.Draft.Type,
		Extra:       req.Draft.Extra,
		Settings:    req.Draft.Settings,
		Geolocation: req.Draft.Geolocation,
		CreatorID:   actorID,
	}
	if item.Extra == nil {
		item.Extra = models.ItemExtra{}
	}

	if parent == nil {
		item.Path = itempath.Child("", item.ID)
	} else {
		item.Path = itempath.Child(parent.Path, item.ID)
		children, err := s.items.GetChildrenOrdered(ctx, parent)
		if err != nil {
			return nil, err
		}
		order, err := ordering.NextOrder(siblingsOf(children), req.PreviousSiblingID)
		if err != nil {
			return nil, &domain.ValidationError{Message: err.Error()}
		}
		item.Order = &order
	}

	var created *models.Item
	err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		var err error
		created, err = s.items.Insert(txCtx, &item)
		if err != nil {
			return err
		}
		// The creator owns what they create, unless an inherited grant
		// already makes them admin over the new path.
		if inherited == nil || inherited.Permission != models.PermissionAdmin {
			_, err = s.memberships.AddMany(txCtx, []models.MembershipDraft{{
				ItemPath:   created.Path,
				AccountID:  actorID,
				Permission: models.PermissionAdmin,
				CreatorID:  actorID,
			}})
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexItems(ctx, *created)
	s.logger.Debug("item created", "item_id", created.ID, "type", created.Type, "depth", created.Depth())
	return created, nil
}

// CreateMany inserts several siblings under one parent in one transaction,
// then rescales the parent scope so the batch ends up evenly spaced.
// Drafts that fail validation are reported per generated id and skipped.
func (s *hierarchyService) CreateMany(ctx context.Context, actorID uuid.UUID, parentID *uuid.UUID, drafts []models.ItemDraft) (*hierarchySvc.BatchResult, error) {
	result := &hierarchySvc.BatchResult{Errors: map[uuid.UUID]error{}}
	if len(drafts) == 0 {
		return result, nil
	}

	var parent *models.Item
	var inherited *models.Membership
	if parentID != nil {
		var err error
		parent, err = s.items.GetByID(ctx, *parentID)
		if err != nil {
			return nil, err
		}
		inherited, err = s.authorizer.Authorize(ctx, actorID, parent, models.PermissionWrite)
		if err != nil {
			return nil, err
		}
	}

	var rows []models.Item
	nextOrder := ordering.DefaultStep
	if parent != nil {
		children, err := s.items.GetChildrenOrdered(ctx, parent)
		if err != nil {
			return nil, err
		}
		for _, c := range children {
			if c.Order != nil && *c.Order >= nextOrder {
				nextOrder = *c.Order + ordering.DefaultStep
			}
		}
	}
	for i := range drafts {
		id := uuid.New()
		if err := s.validateDraft(&drafts[i]); err != nil {
			result.Errors[id] = err
			continue
		}
		item := models.Item{
			ID:          id,
			Name:        drafts[i].Name,
			Type:        drafts[i].Type,
			Extra:       drafts[i].Extra,
			Settings:    drafts[i].Settings,
			Geolocation: drafts[i].Geolocation,
			CreatorID:   actorID,
		}
		if item.Extra == nil {
			item.Extra = models.ItemExtra{}
		}
		if parent == nil {
			item.Path = itempath.Child("", id)
		} else {
			item.Path = itempath.Child(parent.Path, id)
			order := nextOrder
			item.Order = &order
			nextOrder += ordering.DefaultStep
		}
		rows = append(rows, item)
	}
	if len(rows) == 0 {
		return result, nil
	}

	if parent != nil {
		if err := s.checkParentCapacity(ctx, parent, len(rows)); err != nil {
			return nil, err
		}
	}

	err := s.tx.ExecTx(ctx, func(txCtx context.Context) error {
		inserted, err := s.items.InsertMany(txCtx, rows)
		if err != nil {
			return err
		}
		result.Items = inserted

		if inherited == nil || inherited.Permission != models.PermissionAdmin {
			memberDrafts := make([]models.MembershipDraft, len(inserted))
			for i, item := range inserted {
				memberDrafts[i] = models.MembershipDraft{
					ItemPath:   item.Path,
					AccountID:  actorID,
					Permission: models.PermissionAdmin,
					CreatorID:  actorID,
				}
			}
			if _, err := s.memberships.AddMany(txCtx, memberDrafts); err != nil {
				return err
			}
		}
		if parent != nil {
			return s.rescaleIfNeeded(txCtx, parent)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.indexItems(ctx, result.Items...)
	return result, nil
}

// Patch applies a non-structural update.
func (s *hierarchyService) Patch(ctx context.Context, actorID uuid.UUID, id uuid.UUID, patch models.ItemDraft) (*models.Item, error) {
	item, err := s.items.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if _, err := s.authorizer.Authorize(ctx, actorID, item, models.PermissionWrite); err != nil {
		return nil, err
	}

	repoPatch := hierarchyRepo.ItemPatch{
		Geolocation: patch.Geolocation,
	}
	if patch.Extra != nil {
		// Extra merges key-wise into the stored bag instead of replacing it,
		// so a patch touching one payload leaves the others alone.
		merged := make(models.ItemExtra, len(item.Extra)+len(patch.Extra))
		for k, v := range item.Extra {
			merged[k] = v
		}
		for k, v := range patch.Extra {
			merged[k] = v
		}
		repoPatch.Extra = merged
	}
	if patch.Name != "" {
		if err := s.validateName(patch.Name); err != nil {
			return nil, err
		}
		repoPatch.Name = &patch.Name
	}
	if len(patch.Settings.Rest) > 0 {
		settings := patch.Settings
		repoPatch.Settings = &settings
	}
	if repoPatch.Empty() {
		return nil, &domain.ValidationError{Message: "nothing to update"}
	}
	if patch.Type != "" && patch.Type != item.Type {
		return nil, &domain.ValidationError{Message: "item type cannot be changed"}
	}

	updated, err := s.items.UpdateFields(ctx, id, repoPatch)
	if err != nil {
		return nil, err
	}

	s.indexItems(ctx, *updated)
	return updated, nil
}

// checkParentCapacity rejects adding new direct children under parent
// before anything is written.
func (s *hierarchyService) checkParentCapacity(ctx context.Context, parent *models.Item, adding int) error {
	if !parent.Type.CanHoldChildren() {
		return &domain.NotFolderError{ID: parent.ID.String(), Type: string(parent.Type)}
	}
	if parent.Depth()+1 > s.limits.MaxTreeDepth {
		return &domain.TooDeepError{Depth: parent.Depth() + 1, Max: s.limits.MaxTreeDepth}
	}
	children, err := s.items.GetDirectChildren(ctx, parent)
	if err != nil {
		return err
	}
	if len(children)+adding > s.limits.MaxChildren {
		return &domain.TooManyChildrenError{Count: len(children) + adding, Max: s.limits.MaxChildren}
	}
	return nil
}

// rescaleIfNeeded reassigns the parent's child ranks when the scope has
// degenerated. Must run inside the caller's transaction: a partial rescale
// corrupts display order.
func (s *hierarchyService) rescaleIfNeeded(ctx context.Context, parent *models.Item) error {
	children, err := s.items.GetChildrenOrdered(ctx, parent)
	if err != nil {
		return err
	}
	siblings := siblingsOf(children)
	if !ordering.NeedsRescale(siblings) {
		return nil
	}
	for _, a := range ordering.Rescale(siblings) {
		if err := s.items.UpdateOrder(ctx, a.ID, a.Order); err != nil {
			return &domain.OrderingError{ParentPath: parent.Path, Err: err}
		}
	}
	return nil
}

// indexItems mirrors changed items into the search index, best-effort.
func (s *hierarchyService) indexItems(ctx context.Context, items ...models.Item) {
	if s.search == nil || len(items) == 0 {
		return
	}
	if err := s.search.Index(ctx, items); err != nil {
		s.logger.Warn("search indexing failed", "count", len(items), "error", err)
	}
}

func siblingsOf(items []models.Item) []ordering.Sibling {
	siblings := make([]ordering.Sibling, len(items))
	for i, item := range items {
		siblings[i] = ordering.Sibling{ID: item.ID, Order: item.Order, CreatedAt: item.CreatedAt}
	}
	return siblings
}

// subtreePaths returns the paths of root and all of the given descendants.
func subtreePaths(root *models.Item, descendants []models.Item) []string {
	paths := make([]string, 0, len(descendants)+1)
	paths = append(paths, root.Path)
	for _, d := range descendants {
		paths = append(paths, d.Path)
	}
	return paths
}

// subtreeHeight is the number of levels in the subtree rooted at root,
// counting root itself as one.
func subtreeHeight(root *models.Item, descendants []models.Item) int {
	max := root.Depth()
	for _, d := range descendants {
		if d.Depth() > max {
			max = d.Depth()
		}
	}
	return max - root.Depth() + 1
}
