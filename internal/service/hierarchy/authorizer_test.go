package hierarchy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
)

func newTestAuthorizer(store *fakeStore) *authorizer {
	return &authorizer{
		memberships:  &fakeMembershipRepo{store: store},
		visibilities: &fakeVisibilityRepo{store: store},
		logger:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func chainItem(depth int) *models.Item {
	path := ""
	var id uuid.UUID
	for i := 0; i < depth; i++ {
		id = uuid.New()
		path = itempath.Child(path, id)
	}
	return &models.Item{ID: id, Type: models.ItemTypeFolder, Path: path}
}

func TestAuthorizeInheritsDownTheChain(t *testing.T) {
	store := newFakeStore()
	auth := newTestAuthorizer(store)
	ctx := context.Background()

	item := chainItem(3)
	rootPath, _ := itempath.Decode(item.Path)

	bob := uuid.New()
	m := models.Membership{ID: uuid.New(), ItemPath: itempath.Child("", rootPath[0]), AccountID: bob, Permission: models.PermissionWrite}
	store.memberships[m.ID] = &m

	got, err := auth.Authorize(ctx, bob, item, models.PermissionWrite)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if got == nil || got.Permission != models.PermissionWrite {
		t.Errorf("membership = %+v, want the inherited write grant", got)
	}
}

func TestAuthorizeStrongestGrantWins(t *testing.T) {
	store := newFakeStore()
	auth := newTestAuthorizer(store)
	ctx := context.Background()

	item := chainItem(2)
	segments, _ := itempath.Decode(item.Path)
	rootPath := itempath.Child("", segments[0])

	bob := uuid.New()
	read := models.Membership{ID: uuid.New(), ItemPath: rootPath, AccountID: bob, Permission: models.PermissionRead}
	admin := models.Membership{ID: uuid.New(), ItemPath: item.Path, AccountID: bob, Permission: models.PermissionAdmin}
	store.memberships[read.ID] = &read
	store.memberships[admin.ID] = &admin

	got, err := auth.Authorize(ctx, bob, item, models.PermissionAdmin)
	if err != nil {
		t.Fatalf("Authorize: %v", err)
	}
	if got == nil || got.Permission != models.PermissionAdmin {
		t.Errorf("membership = %+v, want the admin grant to win", got)
	}
}

func TestAuthorizeDeniesInsufficientLevel(t *testing.T) {
	store := newFakeStore()
	auth := newTestAuthorizer(store)
	ctx := context.Background()

	item := chainItem(1)
	bob := uuid.New()
	m := models.Membership{ID: uuid.New(), ItemPath: item.Path, AccountID: bob, Permission: models.PermissionRead}
	store.memberships[m.ID] = &m

	if _, err := auth.Authorize(ctx, bob, item, models.PermissionWrite); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("write as reader: err = %v, want forbidden", err)
	}
	if _, err := auth.Authorize(ctx, bob, item, models.PermissionAdmin); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("admin as reader: err = %v, want forbidden", err)
	}
}

func TestAuthorizePublicGrantsReadOnly(t *testing.T) {
	store := newFakeStore()
	auth := newTestAuthorizer(store)
	ctx := context.Background()

	item := chainItem(2)
	segments, _ := itempath.Decode(item.Path)
	v := models.Visibility{ID: uuid.New(), ItemPath: itempath.Child("", segments[0]), Type: models.VisibilityPublic}
	store.visibilities[v.ID] = &v

	stranger := uuid.New()
	got, err := auth.Authorize(ctx, stranger, item, models.PermissionRead)
	if err != nil {
		t.Fatalf("public read: %v", err)
	}
	if got != nil {
		t.Errorf("membership = %+v, want nil for visibility-only access", got)
	}

	if _, err := auth.Authorize(ctx, stranger, item, models.PermissionWrite); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("public write: err = %v, want forbidden", err)
	}
}

func TestAuthorizeHiddenBlocksBelowWrite(t *testing.T) {
	store := newFakeStore()
	auth := newTestAuthorizer(store)
	ctx := context.Background()

	item := chainItem(2)
	segments, _ := itempath.Decode(item.Path)
	rootPath := itempath.Child("", segments[0])

	hidden := models.Visibility{ID: uuid.New(), ItemPath: rootPath, Type: models.VisibilityHidden}
	public := models.Visibility{ID: uuid.New(), ItemPath: rootPath, Type: models.VisibilityPublic}
	store.visibilities[hidden.ID] = &hidden
	store.visibilities[public.ID] = &public

	reader := uuid.New()
	m := models.Membership{ID: uuid.New(), ItemPath: rootPath, AccountID: reader, Permission: models.PermissionRead}
	store.memberships[m.ID] = &m

	if _, err := auth.Authorize(ctx, reader, item, models.PermissionRead); !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("hidden item as reader: err = %v, want forbidden despite the public tag", err)
	}

	writer := uuid.New()
	w := models.Membership{ID: uuid.New(), ItemPath: rootPath, AccountID: writer, Permission: models.PermissionWrite}
	store.memberships[w.ID] = &w

	got, err := auth.Authorize(ctx, writer, item, models.PermissionRead)
	if err != nil {
		t.Fatalf("hidden item as writer: %v", err)
	}
	if got == nil || got.Permission != models.PermissionWrite {
		t.Errorf("membership = %+v, want the writer's grant", got)
	}
}
