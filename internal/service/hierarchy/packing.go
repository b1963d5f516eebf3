package hierarchy

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// packMany decorates items with the actor's effective permission, the
// visibility tags covering each item and, where cheap, creator identity and
// thumbnail URLs. Decoration failures on the optional parts are logged and
// skipped; permission and visibility failures abort, a wrong overlay is
// worse than no result.
func (s *hierarchyService) packMany(ctx context.Context, actorID uuid.UUID, items []models.Item) ([]models.PackedItem, error) {
	if len(items) == 0 {
		return []models.PackedItem{}, nil
	}

	membershipByItem, err := s.memberships.GetForManyItems(ctx, items, actorID)
	if err != nil {
		return nil, err
	}
	visibilitiesByItem, err := s.visibilities.GetForManyItems(ctx, items)
	if err != nil {
		return nil, err
	}

	creatorIDs := make([]uuid.UUID, 0, len(items))
	seen := make(map[uuid.UUID]struct{})
	for _, item := range items {
		if _, ok := seen[item.CreatorID]; !ok {
			seen[item.CreatorID] = struct{}{}
			creatorIDs = append(creatorIDs, item.CreatorID)
		}
	}
	creators, err := s.members.GetManyByID(ctx, creatorIDs)
	if err != nil {
		s.logger.Warn("creator lookup failed", "error", err)
		creators = map[uuid.UUID]models.MinimalMember{}
	}

	var thumbnails map[uuid.UUID]models.ThumbnailURLs
	if s.thumbnails != nil {
		var withThumbnail []models.Item
		for _, item := range items {
			if item.Settings.HasThumbnail {
				withThumbnail = append(withThumbnail, item)
			}
		}
		if len(withThumbnail) > 0 {
			thumbnails, err = s.thumbnails.GetURLsByItems(ctx, withThumbnail)
			if err != nil {
				s.logger.Warn("thumbnail lookup failed", "error", err)
				thumbnails = nil
			}
		}
	}

	packed := make([]models.PackedItem, len(items))
	for i, item := range items {
		p := models.PackedItem{Item: item}

		if m := membershipByItem[item.ID]; m != nil {
			permission := m.Permission
			p.Permission = &permission
		}
		for _, v := range visibilitiesByItem[item.ID] {
			visibility := v
			switch v.Type {
			case models.VisibilityHidden:
				p.Hidden = &visibility
			case models.VisibilityPublic:
				p.Public = &visibility
			}
		}
		// Hidden masks public: a hidden item is never presented as public,
		// whichever ancestor declared what.
		if p.Hidden != nil {
			p.Public = nil
		}
		if creator, ok := creators[item.CreatorID]; ok {
			c := creator
			p.Creator = &c
		}
		if urls, ok := thumbnails[item.ID]; ok {
			u := urls
			p.Thumbnails = &u
		}
		packed[i] = p
	}
	return packed, nil
}

// packOne is packMany for a single item.
func (s *hierarchyService) packOne(ctx context.Context, actorID uuid.UUID, item *models.Item) (*models.PackedItem, error) {
	packed, err := s.packMany(ctx, actorID, []models.Item{*item})
	if err != nil {
		return nil, err
	}
	return &packed[0], nil
}

// dropHidden removes packed items carrying a hidden tag the actor's
// permission does not lift. Listings never show hidden content to read-level
// or anonymous actors.
func dropHidden(packed []models.PackedItem) []models.PackedItem {
	visible := packed[:0]
	for _, p := range packed {
		if p.Hidden != nil {
			if p.Permission == nil || !p.Permission.AtLeast(models.PermissionWrite) {
				continue
			}
		}
		visible = append(visible, p)
	}
	return visible
}
