package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
)

const visibilityColumns = `id, item_path, type, creator_id, created_at`

// PostgresVisibilityRepository implements VisibilityRepository. Like
// memberships, visibility tags cascade through path prefix matching, never
// by copying rows to descendants.
type PostgresVisibilityRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewVisibilityRepository creates a new visibility repository.
func NewVisibilityRepository(config *postgres.RepositoryConfig) hierarchyRepo.VisibilityRepository {
	return &PostgresVisibilityRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanVisibility(row pgx.Row) (*models.Visibility, error) {
	var v models.Visibility
	err := row.Scan(
		&v.ID,
		&v.ItemPath,
		&v.Type,
		&v.CreatorID,
		&v.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &v, nil
}

func collectVisibilities(rows pgx.Rows) ([]models.Visibility, error) {
	defer rows.Close()

	var visibilities []models.Visibility
	for rows.Next() {
		v, err := scanVisibility(rows)
		if err != nil {
			return nil, fmt.Errorf("scan visibility: %w", err)
		}
		visibilities = append(visibilities, *v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate visibilities: %w", err)
	}
	if visibilities == nil {
		visibilities = []models.Visibility{}
	}
	return visibilities, nil
}

// GetType returns the tag of the given type covering the path, or nil. The
// creation invariant keeps at most one per ancestor chain, so a bare
// prefix-match lookup is enough.
func (r *PostgresVisibilityRepository) GetType(ctx context.Context, itemPath string, t models.VisibilityType) (*models.Visibility, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE type = $2
		  AND ($1 = item_path OR $1 LIKE item_path || '.%%')
		LIMIT 1
	`, visibilityColumns, r.tables.Visibilities)

	executor := postgres.GetExecutor(ctx, r.pool)
	v, err := scanVisibility(executor.QueryRow(ctx, query, itemPath, t))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("get visibility: %w", err)
	}
	return v, nil
}

// GetForManyItems returns every tag covering each item's ancestor chain in
// one batched query, keyed by item id.
func (r *PostgresVisibilityRepository) GetForManyItems(ctx context.Context, items []models.Item) (map[uuid.UUID][]models.Visibility, error) {
	result := make(map[uuid.UUID][]models.Visibility, len(items))
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
		WHERE item_path = ANY($1)
	`, visibilityColumns, r.tables.Visibilities)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, candidates)
	if err != nil {
		return nil, fmt.Errorf("get visibilities for items: %w", err)
	}
	visibilities, err := collectVisibilities(rows)
	if err != nil {
		return nil, err
	}

	for i := range items {
		for _, v := range visibilities {
			if itempath.IsAncestorOrSelf(v.ItemPath, items[i].Path) {
				result[items[i].ID] = append(result[items[i].ID], v)
			}
		}
	}
	return result, nil
}

// GetBelow returns tags of the given type attached strictly below the path.
func (r *PostgresVisibilityRepository) GetBelow(ctx context.Context, itemPath string, t models.VisibilityType) ([]models.Visibility, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE type = $2 AND item_path LIKE $1 || '.%%'
		ORDER BY item_path
	`, visibilityColumns, r.tables.Visibilities)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, itemPath, t)
	if err != nil {
		return nil, fmt.Errorf("get visibilities below: %w", err)
	}
	return collectVisibilities(rows)
}

// Post attaches a tag after checking the chain invariant: no tag of the same
// type may already cover the path or exist anywhere below it.
func (r *PostgresVisibilityRepository) Post(ctx context.Context, draft hierarchyRepo.VisibilityDraft) (*models.Visibility, error) {
	checkQuery := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE type = $2
		  AND ($1 = item_path
		       OR $1 LIKE item_path || '.%%'
		       OR item_path LIKE $1 || '.%%')
	`, r.tables.Visibilities)

	executor := postgres.GetExecutor(ctx, r.pool)
	var count int
	if err := executor.QueryRow(ctx, checkQuery, draft.ItemPath, draft.Type).Scan(&count); err != nil {
		return nil, fmt.Errorf("check visibility chain: %w", err)
	}
	if count > 0 {
		return nil, &domain.ConflictError{
			Message:      fmt.Sprintf("a %s visibility already exists on this path's chain", draft.Type),
			ResourceType: "item_visibility",
		}
	}

	insertQuery := fmt.Sprintf(`
		INSERT INTO %s (id, item_path, type, creator_id, created_at)
		VALUES ($1, $2, $3, $4, now())
		RETURNING %s
	`, r.tables.Visibilities, visibilityColumns)

	v, err := scanVisibility(executor.QueryRow(ctx, insertQuery,
		uuid.New(), draft.ItemPath, draft.Type, draft.CreatorID))
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("a %s visibility already exists on this item", draft.Type),
				ResourceType: "item_visibility",
			}
		}
		return nil, fmt.Errorf("insert visibility: %w", err)
	}
	return v, nil
}

// DeleteOne removes a tag by id.
func (r *PostgresVisibilityRepository) DeleteOne(ctx context.Context, id uuid.UUID) error {
	query := fmt.Sprintf(`DELETE FROM %s WHERE id = $1`, r.tables.Visibilities)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id)
	if err != nil {
		return fmt.Errorf("delete visibility: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "item_visibility", ID: id.String()}
	}
	return nil
}

// DeleteAllBelow removes every tag at or below each path.
func (r *PostgresVisibilityRepository) DeleteAllBelow(ctx context.Context, itemPaths []string) error {
	if len(itemPaths) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE EXISTS (
			SELECT 1 FROM unnest($1::text[]) AS p
			WHERE item_path = p OR item_path LIKE p || '.%%'
		)
	`, r.tables.Visibilities)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, itemPaths); err != nil {
		return fmt.Errorf("delete visibilities below: %w", err)
	}
	return nil
}
