package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	"github.com/graasp/graasp-sub008/internal/domain/services"
)

type authorizer struct {
	memberships  hierarchyRepo.MembershipRepository
	visibilities hierarchyRepo.VisibilityRepository
	logger       *slog.Logger
}

// NewAuthorizer creates the permission checker used by the hierarchy
// service. Permissions inherit down the tree through membership paths; a
// public visibility grants read to any account, but a hidden visibility
// masks the item from everyone below write level, public or not.
func NewAuthorizer(
	memberships hierarchyRepo.MembershipRepository,
	visibilities hierarchyRepo.VisibilityRepository,
	logger *slog.Logger,
) services.Authorizer {
	return &authorizer{
		memberships:  memberships,
		visibilities: visibilities,
		logger:       logger,
	}
}

// Authorize returns the actor's strongest inherited membership when it
// satisfies the required level. Read may instead be satisfied by a public
// visibility, in which case the membership is nil.
func (a *authorizer) Authorize(ctx context.Context, accountID uuid.UUID, item *models.Item, required models.Permission) (*models.Membership, error) {
	membership, err := a.memberships.GetInherited(ctx, item.Path, accountID)
	if err != nil {
		return nil, fmt.Errorf("resolve membership: %w", err)
	}

	if required == models.PermissionRead {
		hidden, err := a.visibilities.GetType(ctx, item.Path, models.VisibilityHidden)
		if err != nil {
			return nil, fmt.Errorf("resolve hidden visibility: %w", err)
		}
		if hidden != nil {
			// Hidden is only lifted for write and above.
			if membership == nil || !membership.Permission.AtLeast(models.PermissionWrite) {
				return nil, &domain.ForbiddenError{Message: "item is hidden"}
			}
			return membership, nil
		}
		if membership != nil {
			return membership, nil
		}
		public, err := a.visibilities.GetType(ctx, item.Path, models.VisibilityPublic)
		if err != nil {
			return nil, fmt.Errorf("resolve public visibility: %w", err)
		}
		if public != nil {
			return nil, nil
		}
		return nil, &domain.ForbiddenError{Message: "account cannot access this item"}
	}

	if membership == nil || !membership.Permission.AtLeast(required) {
		a.logger.Debug("permission denied",
			"account_id", accountID,
			"item_id", item.ID,
			"required", required,
		)
		return nil, &domain.ForbiddenError{Message: fmt.Sprintf("account lacks %s permission on this item", required)}
	}
	return membership, nil
}
