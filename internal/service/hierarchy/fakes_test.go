package hierarchy

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	"github.com/graasp/graasp-sub008/internal/domain/repositories"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
)

// fakeStore is a single in-memory backing store shared by the fake
// repositories, so cross-repository effects (move housekeeping, packing)
// behave like they do against one database.
type fakeStore struct {
	mu           sync.Mutex
	items        map[uuid.UUID]*models.Item
	memberships  map[uuid.UUID]*models.Membership
	visibilities map[uuid.UUID]*models.Visibility
	recycled     map[uuid.UUID]*models.RecycleEntry
	members      map[uuid.UUID]models.MinimalMember
	clock        time.Time
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		items:        map[uuid.UUID]*models.Item{},
		memberships:  map[uuid.UUID]*models.Membership{},
		visibilities: map[uuid.UUID]*models.Visibility{},
		recycled:     map[uuid.UUID]*models.RecycleEntry{},
		members:      map[uuid.UUID]models.MinimalMember{},
		clock:        time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

// tick returns a strictly increasing timestamp, so creation order is a
// usable tiebreak.
func (s *fakeStore) tick() time.Time {
	s.clock = s.clock.Add(time.Second)
	return s.clock
}

type fakeTxManager struct{}

func (fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error { return fn(ctx) }

// --- item repository ---

type fakeItemRepo struct{ store *fakeStore }

func (r *fakeItemRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
	}
	clone := *item
	return &clone, nil
}

func (r *fakeItemRepo) GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
	}
	clone := *item
	return &clone, nil
}

func (r *fakeItemRepo) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	out := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		item, err := r.GetByID(ctx, id)
		if err != nil {
			return nil, err
		}
		out = append(out, *item)
	}
	return out, nil
}

func (r *fakeItemRepo) GetAncestors(ctx context.Context, item *models.Item) ([]models.Item, error) {
	ids, err := itempath.Decode(item.Path)
	if err != nil {
		return nil, err
	}
	out := []models.Item{}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range ids[:len(ids)-1] {
		if ancestor, ok := r.store.items[id]; ok && ancestor.DeletedAt == nil {
			out = append(out, *ancestor)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) liveChildren(parent *models.Item) []models.Item {
	out := []models.Item{}
	for _, item := range r.store.items {
		if item.DeletedAt == nil && itempath.IsDirectChild(item.Path, parent.Path) {
			out = append(out, *item)
		}
	}
	return out
}

func (r *fakeItemRepo) GetDirectChildren(ctx context.Context, parent *models.Item) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := r.liveChildren(parent)
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *fakeItemRepo) GetChildrenOrdered(ctx context.Context, parent *models.Item) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := r.liveChildren(parent)
	sort.SliceStable(out, func(i, j int) bool {
		a, b := out[i], out[j]
		switch {
		case a.Order == nil && b.Order == nil:
			return a.CreatedAt.Before(b.CreatedAt)
		case a.Order == nil:
			return false
		case b.Order == nil:
			return true
		case *a.Order != *b.Order:
			return *a.Order < *b.Order
		default:
			return a.CreatedAt.Before(b.CreatedAt)
		}
	})
	return out, nil
}

func (r *fakeItemRepo) GetDescendants(ctx context.Context, item *models.Item, types ...models.ItemType) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Item{}
	for _, candidate := range r.store.items {
		if candidate.ID == item.ID || candidate.DeletedAt != nil {
			continue
		}
		if !itempath.IsAncestorOrSelf(item.Path, candidate.Path) {
			continue
		}
		if len(types) > 0 {
			match := false
			for _, t := range types {
				if candidate.Type == t {
					match = true
				}
			}
			if !match {
				continue
			}
		}
		out = append(out, *candidate)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *fakeItemRepo) GetDeletedDescendants(ctx context.Context, item *models.Item) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Item{}
	for _, candidate := range r.store.items {
		if candidate.ID == item.ID || candidate.DeletedAt == nil {
			continue
		}
		if itempath.IsAncestorOrSelf(item.Path, candidate.Path) {
			out = append(out, *candidate)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *fakeItemRepo) CountDescendants(ctx context.Context, item *models.Item) (int, error) {
	descendants, err := r.GetDescendants(ctx, item)
	if err != nil {
		return 0, err
	}
	return len(descendants), nil
}

func (r *fakeItemRepo) GetRootsByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Item{}
	for _, item := range r.store.items {
		if item.DeletedAt == nil && item.CreatorID == creatorID && item.IsRoot() {
			out = append(out, *item)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (r *fakeItemRepo) GetByPaths(ctx context.Context, paths []string) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Item{}
	for _, item := range r.store.items {
		if item.DeletedAt != nil {
			continue
		}
		for _, p := range paths {
			if item.Path == p {
				out = append(out, *item)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

func (r *fakeItemRepo) insertLocked(item models.Item) (*models.Item, error) {
	for _, existing := range r.store.items {
		if existing.Path == item.Path {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("an item already occupies path %q", item.Path),
				ResourceType: "item",
				ResourceID:   item.ID.String(),
			}
		}
	}
	now := r.store.tick()
	item.CreatedAt = now
	item.UpdatedAt = now
	r.store.items[item.ID] = &item
	clone := item
	return &clone, nil
}

func (r *fakeItemRepo) Insert(ctx context.Context, item *models.Item) (*models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return r.insertLocked(*item)
}

func (r *fakeItemRepo) InsertMany(ctx context.Context, items []models.Item) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Item, 0, len(items))
	for _, item := range items {
		inserted, err := r.insertLocked(item)
		if err != nil {
			return nil, err
		}
		out = append(out, *inserted)
	}
	return out, nil
}

func (r *fakeItemRepo) RewritePathForSubtree(ctx context.Context, root *models.Item, newPrefix string, newOrder *float64) (*models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	stored, ok := r.store.items[root.ID]
	if !ok {
		return nil, &domain.NotFoundError{Resource: "item", ID: root.ID.String()}
	}
	oldPath := stored.Path
	newRootPath := itempath.Child(newPrefix, root.ID)
	for _, item := range r.store.items {
		if item.Path == oldPath || strings.HasPrefix(item.Path, oldPath+itempath.Separator) {
			item.Path = newRootPath + item.Path[len(oldPath):]
		}
	}
	stored.Order = newOrder
	stored.UpdatedAt = r.store.tick()
	clone := *stored
	return &clone, nil
}

func (r *fakeItemRepo) SoftDelete(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Item{}
	now := r.store.tick()
	for _, id := range ids {
		if item, ok := r.store.items[id]; ok && item.DeletedAt == nil {
			deletedAt := now
			item.DeletedAt = &deletedAt
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) Restore(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Item{}
	for _, id := range ids {
		if item, ok := r.store.items[id]; ok && item.DeletedAt != nil {
			item.DeletedAt = nil
			out = append(out, *item)
		}
	}
	return out, nil
}

func (r *fakeItemRepo) HardDelete(ctx context.Context, ids []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, id := range ids {
		delete(r.store.items, id)
	}
	return nil
}

func (r *fakeItemRepo) UpdateFields(ctx context.Context, id uuid.UUID, patch hierarchyRepo.ItemPatch) (*models.Item, error) {
	if patch.Empty() {
		return nil, &domain.ValidationError{Message: "empty patch"}
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	if !ok || item.DeletedAt != nil {
		return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
	}
	if patch.Name != nil {
		item.Name = *patch.Name
	}
	if patch.Settings != nil {
		item.Settings = *patch.Settings
	}
	if patch.Extra != nil {
		item.Extra = patch.Extra
	}
	if patch.Geolocation != nil {
		item.Geolocation = patch.Geolocation
	}
	item.UpdatedAt = r.store.tick()
	clone := *item
	return &clone, nil
}

func (r *fakeItemRepo) UpdateOrder(ctx context.Context, id uuid.UUID, order float64) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	item, ok := r.store.items[id]
	if !ok {
		return &domain.NotFoundError{Resource: "item", ID: id.String()}
	}
	o := order
	item.Order = &o
	return nil
}

// --- membership repository ---

type fakeMembershipRepo struct{ store *fakeStore }

func (r *fakeMembershipRepo) GetInherited(ctx context.Context, itemPath string, accountID uuid.UUID) (*models.Membership, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	var covering []models.Membership
	for _, m := range r.store.memberships {
		if m.AccountID == accountID && itempath.IsAncestorOrSelf(m.ItemPath, itemPath) {
			covering = append(covering, *m)
		}
	}
	return models.BestMembership(covering), nil
}

func (r *fakeMembershipRepo) GetForManyItems(ctx context.Context, items []models.Item, accountID uuid.UUID) (map[uuid.UUID]*models.Membership, error) {
	out := make(map[uuid.UUID]*models.Membership, len(items))
	for i := range items {
		m, err := r.GetInherited(ctx, items[i].Path, accountID)
		if err != nil {
			return nil, err
		}
		out[items[i].ID] = m
	}
	return out, nil
}

func (r *fakeMembershipRepo) GetAllBelow(ctx context.Context, itemPath string) ([]models.Membership, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Membership{}
	for _, m := range r.store.memberships {
		if itempath.IsAncestorOrSelf(itemPath, m.ItemPath) {
			out = append(out, *m)
		}
	}
	return out, nil
}

func (r *fakeMembershipRepo) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Membership, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Membership{}
	for _, m := range r.store.memberships {
		if m.AccountID == accountID {
			out = append(out, *m)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ItemPath < out[j].ItemPath })
	return out, nil
}

func (r *fakeMembershipRepo) AddMany(ctx context.Context, drafts []models.MembershipDraft) ([]models.Membership, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.Membership, 0, len(drafts))
	for _, draft := range drafts {
		now := r.store.tick()
		m := models.Membership{
			ID:         uuid.New(),
			ItemPath:   draft.ItemPath,
			AccountID:  draft.AccountID,
			Permission: draft.Permission,
			CreatorID:  draft.CreatorID,
			CreatedAt:  now,
			UpdatedAt:  now,
		}
		r.store.memberships[m.ID] = &m
		out = append(out, m)
	}
	return out, nil
}

func (r *fakeMembershipRepo) DeleteManyByPathAndAccount(ctx context.Context, itemPath string, accountIDs []uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.memberships {
		if m.ItemPath != itemPath {
			continue
		}
		for _, accountID := range accountIDs {
			if m.AccountID == accountID {
				delete(r.store.memberships, id)
			}
		}
	}
	return nil
}

func (r *fakeMembershipRepo) RewritePathForSubtree(ctx context.Context, oldPrefix, newPrefix string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, m := range r.store.memberships {
		if m.ItemPath == oldPrefix || strings.HasPrefix(m.ItemPath, oldPrefix+itempath.Separator) {
			m.ItemPath = newPrefix + m.ItemPath[len(oldPrefix):]
		}
	}
	return nil
}

func (r *fakeMembershipRepo) DeleteAllBelow(ctx context.Context, itemPaths []string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, m := range r.store.memberships {
		for _, p := range itemPaths {
			if itempath.IsAncestorOrSelf(p, m.ItemPath) {
				delete(r.store.memberships, id)
			}
		}
	}
	return nil
}

// --- visibility repository ---

type fakeVisibilityRepo struct{ store *fakeStore }

func (r *fakeVisibilityRepo) GetType(ctx context.Context, itemPath string, t models.VisibilityType) (*models.Visibility, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.visibilities {
		if v.Type == t && itempath.IsAncestorOrSelf(v.ItemPath, itemPath) {
			clone := *v
			return &clone, nil
		}
	}
	return nil, nil
}

func (r *fakeVisibilityRepo) GetForManyItems(ctx context.Context, items []models.Item) (map[uuid.UUID][]models.Visibility, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make(map[uuid.UUID][]models.Visibility, len(items))
	for i := range items {
		for _, v := range r.store.visibilities {
			if itempath.IsAncestorOrSelf(v.ItemPath, items[i].Path) {
				out[items[i].ID] = append(out[items[i].ID], *v)
			}
		}
	}
	return out, nil
}

func (r *fakeVisibilityRepo) GetBelow(ctx context.Context, itemPath string, t models.VisibilityType) ([]models.Visibility, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.Visibility{}
	for _, v := range r.store.visibilities {
		if v.Type == t && v.ItemPath != itemPath && itempath.IsAncestorOrSelf(itemPath, v.ItemPath) {
			out = append(out, *v)
		}
	}
	return out, nil
}

func (r *fakeVisibilityRepo) Post(ctx context.Context, draft hierarchyRepo.VisibilityDraft) (*models.Visibility, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for _, v := range r.store.visibilities {
		if v.Type != draft.Type {
			continue
		}
		if itempath.IsAncestorOrSelf(v.ItemPath, draft.ItemPath) || itempath.IsAncestorOrSelf(draft.ItemPath, v.ItemPath) {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("a %s visibility already exists on this path's chain", draft.Type),
				ResourceType: "item_visibility",
			}
		}
	}
	v := models.Visibility{
		ID:        uuid.New(),
		ItemPath:  draft.ItemPath,
		Type:      draft.Type,
		CreatorID: draft.CreatorID,
		CreatedAt: r.store.tick(),
	}
	r.store.visibilities[v.ID] = &v
	clone := v
	return &clone, nil
}

func (r *fakeVisibilityRepo) DeleteOne(ctx context.Context, id uuid.UUID) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	if _, ok := r.store.visibilities[id]; !ok {
		return &domain.NotFoundError{Resource: "item_visibility", ID: id.String()}
	}
	delete(r.store.visibilities, id)
	return nil
}

func (r *fakeVisibilityRepo) DeleteAllBelow(ctx context.Context, itemPaths []string) error {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	for id, v := range r.store.visibilities {
		for _, p := range itemPaths {
			if itempath.IsAncestorOrSelf(p, v.ItemPath) {
				delete(r.store.visibilities, id)
			}
		}
	}
	return nil
}

// --- recycle bin repository ---

type fakeRecycleRepo struct{ store *fakeStore }

func (r *fakeRecycleRepo) AddMany(ctx context.Context, drafts []hierarchyRepo.RecycleEntryDraft) ([]models.RecycleEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make([]models.RecycleEntry, 0, len(drafts))
	for _, draft := range drafts {
		e := models.RecycleEntry{
			ID:        uuid.New(),
			ItemPath:  draft.ItemPath,
			CreatorID: draft.CreatorID,
			CreatedAt: r.store.tick(),
		}
		r.store.recycled[e.ID] = &e
		out = append(out, e)
	}
	return out, nil
}

func (r *fakeRecycleRepo) DeleteByItemPaths(ctx context.Context, itemPaths []string) (int, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	removed := 0
	for id, e := range r.store.recycled {
		for _, p := range itemPaths {
			if e.ItemPath == p {
				delete(r.store.recycled, id)
				removed++
			}
		}
	}
	return removed, nil
}

func (r *fakeRecycleRepo) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.RecycleEntry, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := []models.RecycleEntry{}
	for _, e := range r.store.recycled {
		if e.CreatorID == creatorID {
			out = append(out, *e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

// --- member directory ---

type fakeMemberDirectory struct{ store *fakeStore }

func (r *fakeMemberDirectory) GetManyByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MinimalMember, error) {
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	out := make(map[uuid.UUID]models.MinimalMember, len(ids))
	for _, id := range ids {
		if m, ok := r.store.members[id]; ok {
			out[id] = m
		}
	}
	return out, nil
}
