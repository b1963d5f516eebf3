package hierarchy

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// seedSiblings appends documents A, B, C... under the parent in one batch,
// so they come out tail-ordered with evenly spaced ranks.
func seedSiblings(t *testing.T, env *testEnv, parentID uuid.UUID, names ...string) []models.Item {
	t.Helper()
	drafts := make([]models.ItemDraft, len(names))
	for i, name := range names {
		drafts[i] = models.ItemDraft{Name: name, Type: models.ItemTypeDocument}
	}
	result, err := env.svc.CreateMany(context.Background(), env.actor, &parentID, drafts)
	if err != nil {
		t.Fatalf("CreateMany: %v", err)
	}
	if result.Failed() {
		t.Fatalf("CreateMany errors: %+v", result.Errors)
	}
	return result.Items
}

func TestReorderToHeadStaysPositive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	siblings := seedSiblings(t, env, root.ID, "A", "B", "C")
	a, c := siblings[0], siblings[2]

	moved, err := env.svc.Reorder(ctx, env.actor, c.ID, nil)
	if err != nil {
		t.Fatalf("Reorder to head: %v", err)
	}
	if *moved.Order <= 0 || *moved.Order >= *a.Order {
		t.Errorf("head order = %v, want in (0, %v)", *moved.Order, *a.Order)
	}

	children, err := env.svc.GetChildren(ctx, env.actor, root.ID)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	if children[0].ID != c.ID {
		t.Errorf("first child = %q, want C", children[0].Name)
	}
}

func TestReorderAfterSibling(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	siblings := seedSiblings(t, env, root.ID, "A", "B", "C")
	a, b, c := siblings[0], siblings[1], siblings[2]

	moved, err := env.svc.Reorder(ctx, env.actor, a.ID, &b.ID)
	if err != nil {
		t.Fatalf("Reorder after sibling: %v", err)
	}
	if *moved.Order <= *b.Order || *moved.Order >= *c.Order {
		t.Errorf("order = %v, want between %v and %v", *moved.Order, *b.Order, *c.Order)
	}

	children, err := env.svc.GetChildren(ctx, env.actor, root.ID)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	wantNames := []string{"B", "A", "C"}
	for i, want := range wantNames {
		if children[i].Name != want {
			t.Errorf("children[%d] = %q, want %q", i, children[i].Name, want)
		}
	}
}

func TestReorderRootRejected(t *testing.T) {
	env := newTestEnv(t)
	root := env.mustFolder(t, nil, "Root")

	_, err := env.svc.Reorder(context.Background(), env.actor, root.ID, nil)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("reorder of root: err = %v, want validation failure", err)
	}
}

func TestReorderSelfFollowRejected(t *testing.T) {
	env := newTestEnv(t)
	root := env.mustFolder(t, nil, "Root")
	a := env.mustCreate(t, &root.ID, "A", models.ItemTypeDocument)

	_, err := env.svc.Reorder(context.Background(), env.actor, a.ID, &a.ID)
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("self-follow reorder: err = %v, want validation failure", err)
	}
}

func TestFixOrderRepairsCorruptScopes(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	root := env.mustFolder(t, nil, "Root")
	siblings := seedSiblings(t, env, root.ID, "A", "B", "C")
	a, b, c := siblings[0], siblings[1], siblings[2]

	// Corrupt the scope: duplicate rank and an unranked sibling.
	env.store.items[b.ID].Order = env.store.items[a.ID].Order
	env.store.items[c.ID].Order = nil

	if err := env.svc.FixOrder(ctx, env.actor, root.ID); err != nil {
		t.Fatalf("FixOrder: %v", err)
	}

	children, err := env.svc.GetChildren(ctx, env.actor, root.ID)
	if err != nil {
		t.Fatalf("GetChildren: %v", err)
	}
	seen := map[float64]bool{}
	prev := 0.0
	for _, child := range children {
		if child.Order == nil {
			t.Fatalf("child %q still unranked after repair", child.Name)
		}
		if seen[*child.Order] {
			t.Errorf("duplicate rank %v after repair", *child.Order)
		}
		seen[*child.Order] = true
		if *child.Order <= prev {
			t.Errorf("ranks not strictly increasing: %v after %v", *child.Order, prev)
		}
		prev = *child.Order
	}

	// Equal ranks fall back to creation order; the unranked sibling sinks
	// to the end.
	wantNames := []string{"A", "B", "C"}
	for i, want := range wantNames {
		if children[i].Name != want {
			t.Errorf("children[%d] = %q, want %q", i, children[i].Name, want)
		}
	}
}

func TestFixOrderRequiresAdmin(t *testing.T) {
	env := newTestEnv(t)
	root := env.mustFolder(t, nil, "Root")

	bob := uuid.New()
	env.grant(bob, root.Path, models.PermissionWrite)

	err := env.svc.FixOrder(context.Background(), bob, root.ID)
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("fix-order by writer: err = %v, want forbidden", err)
	}
}
