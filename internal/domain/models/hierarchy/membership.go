package hierarchy

import (
	"time"

	"github.com/google/uuid"
)

// Permission is the access level a membership grants. Levels are ordered:
// admin implies write, write implies read.
type Permission string

const (
	PermissionRead  Permission = "read"
	PermissionWrite Permission = "write"
	PermissionAdmin Permission = "admin"
)

var permissionRank = map[Permission]int{
	PermissionRead:  1,
	PermissionWrite: 2,
	PermissionAdmin: 3,
}

// Valid reports whether p is a known level.
func (p Permission) Valid() bool {
	_, ok := permissionRank[p]
	return ok
}

// AtLeast reports whether p grants at least the required level.
func (p Permission) AtLeast(required Permission) bool {
	return permissionRank[p] >= permissionRank[required]
}

// Membership grants a permission to an account over an item path and,
// via ancestor-path matching, its whole subtree. Cascades are expressed at
// the query level, never by physical propagation to descendants.
type Membership struct {
	ID         uuid.UUID  `json:"id" db:"id"`
	ItemPath   string     `json:"item_path" db:"item_path"`
	AccountID  uuid.UUID  `json:"account_id" db:"account_id"`
	Permission Permission `json:"permission" db:"permission"`
	CreatorID  uuid.UUID  `json:"creator_id" db:"creator_id"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time  `json:"updated_at" db:"updated_at"`
}

// MembershipDraft is the insertable slice of a membership.
type MembershipDraft struct {
	ItemPath   string
	AccountID  uuid.UUID
	Permission Permission
	CreatorID  uuid.UUID
}

// BestMembership returns the strongest of the given memberships, or nil.
func BestMembership(memberships []Membership) *Membership {
	var best *Membership
	for i := range memberships {
		if best == nil || permissionRank[memberships[i].Permission] > permissionRank[best.Permission] {
			best = &memberships[i]
		}
	}
	return best
}
