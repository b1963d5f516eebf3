package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
)

const membershipColumns = `id, item_path, account_id, permission, creator_id, created_at, updated_at`

// PostgresMembershipRepository implements MembershipRepository. Inheritance
// is never materialized: a membership on an ancestor path covers the whole
// subtree through prefix matching here.
type PostgresMembershipRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMembershipRepository creates a new membership repository.
func NewMembershipRepository(config *postgres.RepositoryConfig) hierarchyRepo.MembershipRepository {
	return &PostgresMembershipRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	err := row.Scan(
		&m.ID,
		&m.ItemPath,
		&m.AccountID,
		&m.Permission,
		&m.CreatorID,
		&m.CreatedAt,
		&m.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}

func collectMemberships(rows pgx.Rows) ([]models.Membership, error) {
	defer rows.Close()

	var memberships []models.Membership
	for rows.Next() {
		m, err := scanMembership(rows)
		if err != nil {
			return nil, fmt.Errorf("scan membership: %w", err)
		}
		memberships = append(memberships, *m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate memberships: %w", err)
	}
	if memberships == nil {
		memberships = []models.Membership{}
	}
	return memberships, nil
}

// GetInherited returns the strongest membership the account holds on the
// path or any ancestor, nil when none exists.
func (r *PostgresMembershipRepository) GetInherited(ctx context.Context, itemPath string, accountID uuid.UUID) (*models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $2
		  AND ($1 = item_path OR $1 LIKE item_path || '.%%')
	`, membershipColumns, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, itemPath, accountID)
	if err != nil {
		return nil, fmt.Errorf("get inherited membership: %w", err)
	}
	memberships, err := collectMemberships(rows)
	if err != nil {
		return nil, err
	}
	return models.BestMembership(memberships), nil
}

// GetForManyItems resolves the account's effective membership per item in one
// round trip. Candidate paths are every ancestor-or-self path of every item,
// so the query stays an exact-match ANY instead of N prefix scans.
func (r *PostgresMembershipRepository) GetForManyItems(ctx context.Context, items []models.Item, accountID uuid.UUID) (map[uuid.UUID]*models.Membership, error) {
	result := make(map[uuid.UUID]*models.Membership, len(items))
	if len(items) == 0 {
		return result, nil
	}

	seen := make(map[string]struct{})
	var candidates []string
	for _, item := range items {
		ids, err := itempath.Decode(item.Path)
		if err != nil {
			return nil, fmt.Errorf("decode path %q: %w", item.Path, err)
		}
		for depth := 1; depth <= len(ids); depth++ {
			p := itempath.Encode(ids[:depth]...)
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				candidates = append(candidates, p)
			}
		}
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1 AND item_path = ANY($2)
	`, membershipColumns, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, accountID, candidates)
	if err != nil {
		return nil, fmt.Errorf("get memberships for items: %w", err)
	}
	memberships, err := collectMemberships(rows)
	if err != nil {
		return nil, err
	}

	for i := range items {
		var covering []models.Membership
		for _, m := range memberships {
			if itempath.IsAncestorOrSelf(m.ItemPath, items[i].Path) {
				covering = append(covering, m)
			}
		}
		result[items[i].ID] = models.BestMembership(covering)
	}
	return result, nil
}

// GetAllBelow returns every membership attached at or below the path.
func (r *PostgresMembershipRepository) GetAllBelow(ctx context.Context, itemPath string) ([]models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE item_path = $1 OR item_path LIKE $1 || '.%%'
		ORDER BY item_path
	`, membershipColumns, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, itemPath)
	if err != nil {
		return nil, fmt.Errorf("get memberships below: %w", err)
	}
	return collectMemberships(rows)
}

// GetByAccount returns all memberships held by the account.
func (r *PostgresMembershipRepository) GetByAccount(ctx context.Context, accountID uuid.UUID) ([]models.Membership, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE account_id = $1
		ORDER BY item_path
	`, membershipColumns, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, accountID)
	if err != nil {
		return nil, fmt.Errorf("get memberships by account: %w", err)
	}
	return collectMemberships(rows)
}

// AddMany inserts the drafts in one statement.
func (r *PostgresMembershipRepository) AddMany(ctx context.Context, drafts []models.MembershipDraft) ([]models.Membership, error) {
	if len(drafts) == 0 {
		return []models.Membership{}, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(drafts)*5)
	for i, draft := range drafts {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 5
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, now(), now())",
			base+1, base+2, base+3, base+4, base+5)
		args = append(args, uuid.New(), draft.ItemPath, draft.AccountID, draft.Permission, draft.CreatorID)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, item_path, account_id, permission, creator_id, created_at, updated_at)
		VALUES %s
		RETURNING %s
	`, r.tables.Memberships, sb.String(), membershipColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert memberships: %w", err)
	}
	return collectMemberships(rows)
}

// DeleteManyByPathAndAccount removes the accounts' memberships attached
// exactly at the path.
func (r *PostgresMembershipRepository) DeleteManyByPathAndAccount(ctx context.Context, itemPath string, accountIDs []uuid.UUID) error {
	if len(accountIDs) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE item_path = $1 AND account_id = ANY($2)
	`, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, itemPath, accountIDs); err != nil {
		return fmt.Errorf("delete memberships: %w", err)
	}
	return nil
}

// RewritePathForSubtree moves membership paths under a new prefix. Must run
// in the same transaction as the item path rewrite, before it.
func (r *PostgresMembershipRepository) RewritePathForSubtree(ctx context.Context, oldPrefix, newPrefix string) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET item_path = $1 || substr(item_path, $2),
		    updated_at = now()
		WHERE item_path = $3 OR item_path LIKE $3 || '.%%'
	`, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, newPrefix, len(oldPrefix)+1, oldPrefix); err != nil {
		return fmt.Errorf("rewrite membership paths: %w", err)
	}
	return nil
}

// DeleteAllBelow removes every membership at or below each path.
func (r *PostgresMembershipRepository) DeleteAllBelow(ctx context.Context, itemPaths []string) error {
	if len(itemPaths) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS p
			WHERE item_path = p OR item_path LIKE p || '.%%'
		)
	`, r.tables.Memberships)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, itemPaths); err != nil {
		return fmt.Errorf("delete memberships below: %w", err)
	}
	return nil
}
