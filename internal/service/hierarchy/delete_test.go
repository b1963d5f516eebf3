package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/config"
	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
)

func TestRecycleHidesSubtreeFromReads(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	folder := env.mustFolder(t, &root.ID, "Folder")
	leaf := env.mustCreate(t, &folder.ID, "Leaf", models.ItemTypeDocument)

	result, err := env.svc.Recycle(ctx, env.actor, []uuid.UUID{folder.ID})
	if err != nil {
		t.Fatalf("Recycle: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Recycle errors: %+v", result.Errors)
	}

	if _, err := env.svc.Get(ctx, env.actor, folder.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get recycled item: err = %v, want not found", err)
	}
	if _, err := env.svc.Get(ctx, env.actor, leaf.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("Get recycled descendant: err = %v, want not found", err)
	}

	children, err := env.svc.GetChildren(ctx, env.actor, root.ID)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if len(children) != 0 {
		t.Errorf("children after recycle = %d, want 0", len(children))
	}

	entries, err := env.svc.GetRecycled(ctx, env.actor)
	if err != nil {
		t.Fatalf("GetRecycled: %v", err)
	}
	if len(entries) != 1 || entries[0].ItemPath != folder.Path {
		t.Errorf("bin entries = %+v, want one for %q", entries, folder.Path)
	}
}

func TestRestoreBringsSubtreeBack(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	folder := env.mustFolder(t, &root.ID, "Folder")
	leaf := env.mustCreate(t, &folder.ID, "Leaf", models.ItemTypeDocument)

	if result, _ := env.svc.Recycle(ctx, env.actor, []uuid.UUID{folder.ID}); result.Failed() {
		t.Fatalf("Recycle errors: %+v", result.Errors)
	}
	result, err := env.svc.Restore(ctx, env.actor, []uuid.UUID{folder.ID})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Restore errors: %+v", result.Errors)
	}

	if _, err := env.svc.Get(ctx, env.actor, folder.ID); err != nil {
		t.Errorf("Get after restore: %v", err)
	}
	if _, err := env.svc.Get(ctx, env.actor, leaf.ID); err != nil {
		t.Errorf("Get restored descendant: %v", err)
	}

	entries, err := env.svc.GetRecycled(ctx, env.actor)
	if err != nil {
		t.Fatalf("GetRecycled: %v", err)
	}
	if len(entries) != 0 {
		t.Errorf("bin entries after restore = %d, want 0", len(entries))
	}
}

func TestRestoreWithoutBinEntryFails(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	item := env.mustFolder(t, nil, "Live")

	result, err := env.svc.Restore(ctx, env.actor, []uuid.UUID{item.ID})
	if err != nil {
		t.Fatalf("Restore: %v", err)
	}
	if !errors.Is(result.Errors[item.ID], domain.ErrNotFound) {
		t.Errorf("restore of live item: err = %v, want not found", result.Errors[item.ID])
	}
}

func TestDeleteRemovesRowsGrantsAndTags(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	folder := env.mustFolder(t, &root.ID, "Folder")
	leaf := env.mustCreate(t, &folder.ID, "Leaf", models.ItemTypeDocument)

	bob := uuid.New()
	env.grant(bob, folder.Path, models.PermissionRead)
	env.tag(leaf.Path, models.VisibilityHidden)

	result, err := env.svc.Delete(ctx, env.actor, []uuid.UUID{folder.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Delete errors: %+v", result.Errors)
	}

	if _, ok := env.store.items[folder.ID]; ok {
		t.Error("folder row survived the delete")
	}
	if _, ok := env.store.items[leaf.ID]; ok {
		t.Error("leaf row survived the delete")
	}
	for _, m := range env.store.memberships {
		if itempath.IsAncestorOrSelf(folder.Path, m.ItemPath) {
			t.Errorf("membership %+v survived the delete", m)
		}
	}
	for _, v := range env.store.visibilities {
		if itempath.IsAncestorOrSelf(folder.Path, v.ItemPath) {
			t.Errorf("visibility %+v survived the delete", v)
		}
	}
}

func TestDeleteWorksOnRecycledItems(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	folder := env.mustFolder(t, &root.ID, "Folder")
	env.mustCreate(t, &folder.ID, "Leaf", models.ItemTypeDocument)

	if result, _ := env.svc.Recycle(ctx, env.actor, []uuid.UUID{folder.ID}); result.Failed() {
		t.Fatalf("Recycle errors: %+v", result.Errors)
	}
	result, err := env.svc.Delete(ctx, env.actor, []uuid.UUID{folder.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if result.Failed() {
		t.Fatalf("Delete errors: %+v", result.Errors)
	}

	if _, ok := env.store.items[folder.ID]; ok {
		t.Error("recycled folder row survived the delete")
	}
	entries, _ := env.svc.GetRecycled(ctx, env.actor)
	if len(entries) != 0 {
		t.Errorf("bin entries after delete = %d, want 0", len(entries))
	}
}

func TestRecycleEnforcesDescendantBudget(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxDescendantsForDelete = 1
	env := newTestEnvWithLimits(t, limits)
	ctx := context.Background()

	subtree := env.mustFolder(t, nil, "Subtree")
	env.mustCreate(t, &subtree.ID, "A", models.ItemTypeDocument)
	env.mustCreate(t, &subtree.ID, "B", models.ItemTypeDocument)

	result, err := env.svc.Recycle(ctx, env.actor, []uuid.UUID{subtree.ID})
	if err != nil {
		t.Fatalf("Recycle: %v", err)
	}
	if !errors.Is(result.Errors[subtree.ID], domain.ErrCapacity) {
		t.Errorf("oversized recycle: err = %v, want capacity failure", result.Errors[subtree.ID])
	}
	if env.store.items[subtree.ID].IsDeleted() {
		t.Error("rejected recycle still soft-deleted the root")
	}
}

func TestDeleteEnforcesDescendantBudget(t *testing.T) {
	limits := config.DefaultLimits()
	limits.MaxDescendantsForDelete = 1
	env := newTestEnvWithLimits(t, limits)
	ctx := context.Background()

	subtree := env.mustFolder(t, nil, "Subtree")
	env.mustCreate(t, &subtree.ID, "A", models.ItemTypeDocument)
	env.mustCreate(t, &subtree.ID, "B", models.ItemTypeDocument)

	result, err := env.svc.Delete(ctx, env.actor, []uuid.UUID{subtree.ID})
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !errors.Is(result.Errors[subtree.ID], domain.ErrCapacity) {
		t.Errorf("oversized delete: err = %v, want capacity failure", result.Errors[subtree.ID])
	}
	if _, ok := env.store.items[subtree.ID]; !ok {
		t.Error("rejected delete still removed the root")
	}
}

func TestRecycleRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	bob := uuid.New()
	env.grant(bob, root.Path, models.PermissionWrite)

	result, err := env.svc.Recycle(ctx, bob, []uuid.UUID{root.ID})
	if err != nil {
		t.Fatalf("Recycle: %v", err)
	}
	if !errors.Is(result.Errors[root.ID], domain.ErrForbidden) {
		t.Errorf("recycle by writer: err = %v, want forbidden", result.Errors[root.ID])
	}
}
