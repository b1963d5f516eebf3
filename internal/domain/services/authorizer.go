package services

import (
	"context"

	"github.com/google/uuid"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
)

// Authorizer answers "does this account hold at least the required
// permission on this item". Read access may also be satisfied by a public
// visibility covering the item, in which case the returned membership is
// nil. Services call the authorizer before reading anything beyond what the
// check itself needs.
type Authorizer interface {
	Authorize(ctx context.Context, accountID uuid.UUID, item *models.Item, required models.Permission) (*models.Membership, error)
}
