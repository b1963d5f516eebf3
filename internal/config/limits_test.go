package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoadLimitsDefaults(t *testing.T) {
	limits, err := LoadLimits("")
	if err != nil {
		t.Fatalf("LoadLimits(\"\"): %v", err)
	}
	if limits != DefaultLimits() {
		t.Errorf("limits = %+v, want the defaults", limits)
	}
}

func TestLoadLimitsPartialOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "limits.yaml")
	content := "max_children: 50\nmax_tree_depth: 8\n"
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write limits file: %v", err)
	}

	limits, err := LoadLimits(path)
	if err != nil {
		t.Fatalf("LoadLimits: %v", err)
	}
	if limits.MaxChildren != 50 {
		t.Errorf("MaxChildren = %d, want 50", limits.MaxChildren)
	}
	if limits.MaxTreeDepth != 8 {
		t.Errorf("MaxTreeDepth = %d, want 8", limits.MaxTreeDepth)
	}
	// Untouched fields keep their defaults.
	if limits.MaxDescendantsForCopy != DefaultLimits().MaxDescendantsForCopy {
		t.Errorf("MaxDescendantsForCopy = %d, want default", limits.MaxDescendantsForCopy)
	}
}

func TestLoadLimitsMissingFile(t *testing.T) {
	if _, err := LoadLimits(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("LoadLimits with a missing file: want an error")
	}
}
