package hierarchy

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/itempath"
)

// ItemType discriminates which payload lives in an item's Extra bag.
type ItemType string

const (
	ItemTypeFolder   ItemType = "folder"
	ItemTypeDocument ItemType = "document"
	ItemTypeLink     ItemType = "link"
	ItemTypeApp      ItemType = "app"
	ItemTypeFile     ItemType = "file"
	ItemTypeShortcut ItemType = "shortcut"
	ItemTypePage     ItemType = "page"
)

// KnownItemTypes lists every valid discriminator, in declaration order.
var KnownItemTypes = []ItemType{
	ItemTypeFolder, ItemTypeDocument, ItemTypeLink, ItemTypeApp,
	ItemTypeFile, ItemTypeShortcut, ItemTypePage,
}

// Valid reports whether t is a known discriminator.
func (t ItemType) Valid() bool {
	for _, known := range KnownItemTypes {
		if t == known {
			return true
		}
	}
	return false
}

// CanHoldChildren reports whether items of this type may be parents.
// Only folders hold children.
func (t ItemType) CanHoldChildren() bool { return t == ItemTypeFolder }

// ItemSettings is the settings bag. The core only inspects HasThumbnail;
// everything else passes through untouched in Rest.
type ItemSettings struct {
	HasThumbnail bool
	Rest         json.RawMessage
}

// UnmarshalJSON keeps the full bag and extracts the one flag the core reads.
func (s *ItemSettings) UnmarshalJSON(data []byte) error {
	var probe struct {
		HasThumbnail bool `json:"hasThumbnail"`
	}
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}
	s.HasThumbnail = probe.HasThumbnail
	s.Rest = append([]byte(nil), data...)
	return nil
}

// MarshalJSON merges the flag back into the bag.
func (s ItemSettings) MarshalJSON() ([]byte, error) {
	bag := map[string]json.RawMessage{}
	if len(s.Rest) > 0 {
		if err := json.Unmarshal(s.Rest, &bag); err != nil {
			return nil, err
		}
	}
	if s.HasThumbnail {
		bag["hasThumbnail"] = json.RawMessage("true")
	} else {
		delete(bag, "hasThumbnail")
	}
	return json.Marshal(bag)
}

// ItemExtra is the type-keyed payload bag. The core checks that the key
// matching the item type is present; the payload itself is opaque.
type ItemExtra map[string]json.RawMessage

// Has reports whether the payload for the given type is present.
func (e ItemExtra) Has(t ItemType) bool {
	_, ok := e[string(t)]
	return ok
}

// Item is one node of the content hierarchy.
type Item struct {
	ID          uuid.UUID       `json:"id" db:"id"`
	Name        string          `json:"name" db:"name"`
	Type        ItemType        `json:"type" db:"type"`
	Path        string          `json:"path" db:"path"`
	Order       *float64        `json:"order" db:"order"` // nil only for roots
	Extra       ItemExtra       `json:"extra" db:"extra"`
	Settings    ItemSettings    `json:"settings" db:"settings"`
	Geolocation json.RawMessage `json:"geolocation,omitempty" db:"geolocation"`
	CreatorID   uuid.UUID       `json:"creator_id" db:"creator_id"`
	CreatedAt   time.Time       `json:"created_at" db:"created_at"`
	UpdatedAt   time.Time       `json:"updated_at" db:"updated_at"`
	DeletedAt   *time.Time      `json:"deleted_at,omitempty" db:"deleted_at"`
}

// Depth is the number of path segments (roots have depth 1).
func (i *Item) Depth() int { return itempath.Depth(i.Path) }

// ParentPath is the path without the item's own segment, "" for roots.
func (i *Item) ParentPath() string { return itempath.ParentPath(i.Path) }

// ParentID is derived from the path, never stored independently.
func (i *Item) ParentID() *uuid.UUID {
	id, err := itempath.ParentID(i.Path)
	if err != nil {
		return nil
	}
	return id
}

// IsRoot reports whether the item has no parent.
func (i *Item) IsRoot() bool { return itempath.Depth(i.Path) == 1 }

// IsDeleted reports whether the item is soft-deleted (in the recycle bin).
func (i *Item) IsDeleted() bool { return i.DeletedAt != nil }

// HasAncestorOrSelf reports whether ancestorPath covers this item.
func (i *Item) HasAncestorOrSelf(ancestorPath string) bool {
	return itempath.IsAncestorOrSelf(ancestorPath, i.Path)
}

// ItemDraft carries the caller-supplied fields of a new item. ID, path and
// order are assigned by the hierarchy service.
type ItemDraft struct {
	Name        string
	Type        ItemType
	Extra       ItemExtra
	Settings    ItemSettings
	Geolocation json.RawMessage
}
