package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

// VisibilityType tags an item path as public or hidden. Descendants inherit
// the tag via ancestor-path matching. At most one tag of a given type may
// exist anywhere in a path's ancestor chain.
type VisibilityType string

const (
	VisibilityPublic VisibilityType = "public"
	VisibilityHidden VisibilityType = "hidden"
)

// Valid reports whether t is a known visibility type.
func (t VisibilityType) Valid() bool {
	return t == VisibilityPublic || t == VisibilityHidden
}

// Visibility is one tag attached to an item path.
type Visibility struct {
	ID        uuid.UUID      `json:"id" db:"id"`
	ItemPath  string         `json:"item_path" db:"item_path"`
	Type      VisibilityType `json:"type" db:"type"`
	CreatorID uuid.UUID      `json:"creator_id" db:"creator_id"`
	CreatedAt time.Time      `json:"created_at" db:"created_at"`
}
