package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Limits bounds the shape and batch sizes of the content tree. All checks
// run before any write; an operation that would exceed a limit is rejected
// whole.
type Limits struct {
	// MaxTreeDepth is the deepest allowed item, counting the root as 1.
	MaxTreeDepth int `yaml:"max_tree_depth"`

	// MaxChildren is the maximum number of direct children per parent.
	MaxChildren int `yaml:"max_children"`

	// MaxDescendantsForMove bounds the subtree size a move may carry.
	MaxDescendantsForMove int `yaml:"max_descendants_for_move"`

	// MaxDescendantsForCopy bounds the subtree size a copy may duplicate.
	// Lower than the move budget: a copy writes every row it touches.
	MaxDescendantsForCopy int `yaml:"max_descendants_for_copy"`

	// MaxDescendantsForDelete bounds the subtree size a delete may remove.
	MaxDescendantsForDelete int `yaml:"max_descendants_for_delete"`

	// MaxItemNameLength is the maximum item name length in bytes.
	MaxItemNameLength int `yaml:"max_item_name_length"`
}

// DefaultLimits returns the production limits.
func DefaultLimits() Limits {
	return Limits{
		MaxTreeDepth:            15,
		MaxChildren:             300,
		MaxDescendantsForMove:   1500,
		MaxDescendantsForCopy:   600,
		MaxDescendantsForDelete: 1500,
		MaxItemNameLength:       255,
	}
}

// LoadLimits returns the defaults, overridden by the YAML file at path when
// one is given. Zero-valued fields in the file keep their defaults.
func LoadLimits(path string) (Limits, error) {
	limits := DefaultLimits()
	if path == "" {
		return limits, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return limits, fmt.Errorf("read limits file: %w", err)
	}

	var overrides Limits
	if err := yaml.Unmarshal(data, &overrides); err != nil {
		return limits, fmt.Errorf("parse limits file: %w", err)
	}

	if overrides.MaxTreeDepth > 0 {
		limits.MaxTreeDepth = overrides.MaxTreeDepth
	}
	if overrides.MaxChildren > 0 {
		limits.MaxChildren = overrides.MaxChildren
	}
	if overrides.MaxDescendantsForMove > 0 {
		limits.MaxDescendantsForMove = overrides.MaxDescendantsForMove
	}
	if overrides.MaxDescendantsForCopy > 0 {
		limits.MaxDescendantsForCopy = overrides.MaxDescendantsForCopy
	}
	if overrides.MaxDescendantsForDelete > 0 {
		limits.MaxDescendantsForDelete = overrides.MaxDescendantsForDelete
	}
	if overrides.MaxItemNameLength > 0 {
		limits.MaxItemNameLength = overrides.MaxItemNameLength
	}
	return limits, nil
}
