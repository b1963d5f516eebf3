package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

// RecycleEntry records one recycled subtree root for retention-window
// tracking. Restoring the subtree removes the entry.
type RecycleEntry struct {
	ID        uuid.UUID `json:"id" db:"id"`
	ItemPath  string    `json:"item_path" db:"item_path"`
	CreatorID uuid.UUID `json:"creator_id" db:"creator_id"`
	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
