package hierarchy

import (
	"github.com/google/uuid"
)

// MinimalMember is the identity slice attached to packed items.
type MinimalMember struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
}

// ThumbnailURLs holds the size variants served for an item that carries a
// thumbnail.
type ThumbnailURLs struct {
	Small  string `json:"small,omitempty"`
	Medium string `json:"medium,omitempty"`
	Large  string `json:"large,omitempty"`
}

// PackedItem is a read-only projection of an item decorated with the
// requesting principal's effective permission and the effective visibility
// of the nearest declaring ancestor. It is constructed per read and never
// persisted.
type PackedItem struct {
	Item
	Creator    *MinimalMember `json:"creator,omitempty"`
	Permission *Permission    `json:"permission"`
	Hidden     *Visibility    `json:"hidden,omitempty"`
	Public     *Visibility    `json:"public,omitempty"`
	Thumbnails *ThumbnailURLs `json:"thumbnails,omitempty"`
}
