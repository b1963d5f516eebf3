package hierarchy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graasp/graasp-sub008/internal/domain"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyRepo "github.com/graasp/graasp-sub008/internal/domain/repositories/hierarchy"
	"github.com/graasp/graasp-sub008/internal/itempath"
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
)

const itemColumns = `id, name, type, path, "order", extra, settings, geolocation, creator_id, created_at, updated_at, deleted_at`

// PostgresItemRepository implements the ItemRepository interface over the
// materialized-path item table.
type PostgresItemRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewItemRepository creates a new item repository.
func NewItemRepository(config *postgres.RepositoryConfig) hierarchyRepo.ItemRepository {
	return &PostgresItemRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func scanItem(row pgx.Row) (*models.Item, error) {
	var item models.Item
	err := row.Scan(
		&item.ID,
		&item.Name,
		&item.Type,
		&item.Path,
		&item.Order,
		&item.Extra,
		&item.Settings,
		&item.Geolocation,
		&item.CreatorID,
		&item.CreatedAt,
		&item.UpdatedAt,
		&item.DeletedAt,
	)
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func collectItems(rows pgx.Rows) ([]models.Item, error) {
	defer rows.Close()

	var items []models.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, *item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	if items == nil {
		items = []models.Item{}
	}
	return items, nil
}

// GetByID retrieves a live item by id.
func (r *PostgresItemRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND deleted_at IS NULL
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	item, err := scanItem(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetByIDIncludingDeleted retrieves an item regardless of soft-delete state.
func (r *PostgresItemRepository) GetByIDIncludingDeleted(ctx context.Context, id uuid.UUID) (*models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	item, err := scanItem(executor.QueryRow(ctx, query, id))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
		}
		return nil, fmt.Errorf("get item: %w", err)
	}
	return item, nil
}

// GetMany retrieves items by id, reordered to match the input order. The
// first missing id fails the whole call.
func (r *PostgresItemRepository) GetMany(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = ANY($1) AND deleted_at IS NULL
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get many items: %w", err)
	}
	found, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Item, len(found))
	for _, item := range found {
		byID[item.ID] = item
	}

	ordered := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		item, ok := byID[id]
		if !ok {
			return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
		}
		ordered = append(ordered, item)
	}
	return ordered, nil
}

// GetAncestors returns the item's ancestors ordered root first, excluding
// the item itself. Segment order comes from the path, not the query.
func (r *PostgresItemRepository) GetAncestors(ctx context.Context, item *models.Item) ([]models.Item, error) {
	segments, err := itempath.Decode(item.Path)
	if err != nil {
		return nil, fmt.Errorf("decode path %q: %w", item.Path, err)
	}
	ancestorIDs := segments[:len(segments)-1]
	if len(ancestorIDs) == 0 {
		return []models.Item{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = ANY($1) AND deleted_at IS NULL
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ancestorIDs)
	if err != nil {
		return nil, fmt.Errorf("get ancestors: %w", err)
	}
	found, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Item, len(found))
	for _, ancestor := range found {
		byID[ancestor.ID] = ancestor
	}
	ordered := make([]models.Item, 0, len(ancestorIDs))
	for _, id := range ancestorIDs {
		if ancestor, ok := byID[id]; ok {
			ordered = append(ordered, ancestor)
		}
	}
	return ordered, nil
}

// GetDirectChildren returns the parent's immediate children.
func (r *PostgresItemRepository) GetDirectChildren(ctx context.Context, parent *models.Item) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE path LIKE $1 || '.%%'
		  AND path NOT LIKE $1 || '.%%.%%'
		  AND deleted_at IS NULL
		ORDER BY path
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parent.Path)
	if err != nil {
		return nil, fmt.Errorf("get direct children: %w", err)
	}
	return collectItems(rows)
}

// GetChildrenOrdered returns the parent's immediate children by order,
// tie-broken by creation time.
func (r *PostgresItemRepository) GetChildrenOrdered(ctx context.Context, parent *models.Item) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE path LIKE $1 || '.%%'
		  AND path NOT LIKE $1 || '.%%.%%'
		  AND deleted_at IS NULL
		ORDER BY "order" ASC NULLS LAST, created_at ASC
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, parent.Path)
	if err != nil {
		return nil, fmt.Errorf("get ordered children: %w", err)
	}
	return collectItems(rows)
}

// GetDescendants returns the live subtree below item in pre-order: ordering
// by path puts a parent before its children because the separator sorts
// below hexadecimal characters.
func (r *PostgresItemRepository) GetDescendants(ctx context.Context, item *models.Item, types ...models.ItemType) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE path LIKE $1 || '.%%' AND deleted_at IS NULL
	`, itemColumns, r.tables.Items)

	args := []interface{}{item.Path}
	if len(types) > 0 {
		typeNames := make([]string, len(types))
		for i, t := range types {
			typeNames[i] = string(t)
		}
		query += ` AND type = ANY($2)`
		args = append(args, typeNames)
	}
	query += ` ORDER BY path`

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("get descendants: %w", err)
	}
	return collectItems(rows)
}

// GetDeletedDescendants returns the soft-deleted subtree below item.
func (r *PostgresItemRepository) GetDeletedDescendants(ctx context.Context, item *models.Item) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE path LIKE $1 || '.%%' AND deleted_at IS NOT NULL
		ORDER BY path
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, item.Path)
	if err != nil {
		return nil, fmt.Errorf("get deleted descendants: %w", err)
	}
	return collectItems(rows)
}

// CountDescendants counts the live subtree below item without materializing
// rows.
func (r *PostgresItemRepository) CountDescendants(ctx context.Context, item *models.Item) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s
		WHERE path LIKE $1 || '.%%' AND deleted_at IS NULL
	`, r.tables.Items)

	var count int
	executor := postgres.GetExecutor(ctx, r.pool)
	if err := executor.QueryRow(ctx, query, item.Path).Scan(&count); err != nil {
		return 0, fmt.Errorf("count descendants: %w", err)
	}
	return count, nil
}

// GetRootsByCreator returns the live root items created by the account.
func (r *PostgresItemRepository) GetRootsByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.Item, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE creator_id = $1 AND path NOT LIKE '%%.%%' AND deleted_at IS NULL
		ORDER BY created_at ASC
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("get roots by creator: %w", err)
	}
	return collectItems(rows)
}

// GetByPaths retrieves live items by exact path.
func (r *PostgresItemRepository) GetByPaths(ctx context.Context, paths []string) ([]models.Item, error) {
	if len(paths) == 0 {
		return []models.Item{}, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE path = ANY($1) AND deleted_at IS NULL
		ORDER BY path
	`, itemColumns, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, paths)
	if err != nil {
		return nil, fmt.Errorf("get items by paths: %w", err)
	}
	return collectItems(rows)
}

// Insert persists one fully computed item.
func (r *PostgresItemRepository) Insert(ctx context.Context, item *models.Item) (*models.Item, error) {
	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, type, path, "order", extra, settings, geolocation, creator_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now(), now())
		RETURNING %s
	`, r.tables.Items, itemColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	inserted, err := scanItem(executor.QueryRow(ctx, query,
		item.ID,
		item.Name,
		item.Type,
		item.Path,
		item.Order,
		item.Extra,
		item.Settings,
		item.Geolocation,
		item.CreatorID,
	))
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("an item already occupies path %q", item.Path),
				ResourceType: "item",
				ResourceID:   item.ID.String(),
			}
		}
		return nil, fmt.Errorf("insert item: %w", err)
	}
	return inserted, nil
}

// InsertMany persists a batch in one statement and returns rows in input
// order.
func (r *PostgresItemRepository) InsertMany(ctx context.Context, items []models.Item) ([]models.Item, error) {
	if len(items) == 0 {
		return []models.Item{}, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(items)*9)
	for i, item := range items {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 9
		fmt.Fprintf(&sb, "($%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, $%d, now(), now())",
			base+1, base+2, base+3, base+4, base+5, base+6, base+7, base+8, base+9)
		args = append(args,
			item.ID, item.Name, item.Type, item.Path, item.Order,
			item.Extra, item.Settings, item.Geolocation, item.CreatorID)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, name, type, path, "order", extra, settings, geolocation, creator_id, created_at, updated_at)
		VALUES %s
		RETURNING %s
	`, r.tables.Items, sb.String(), itemColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return nil, &domain.ConflictError{
				Message:      "an item already occupies one of the target paths",
				ResourceType: "item",
			}
		}
		return nil, fmt.Errorf("insert items: %w", err)
	}
	inserted, err := collectItems(rows)
	if err != nil {
		return nil, err
	}

	byID := make(map[uuid.UUID]models.Item, len(inserted))
	for _, item := range inserted {
		byID[item.ID] = item
	}
	ordered := make([]models.Item, 0, len(items))
	for _, item := range items {
		row, ok := byID[item.ID]
		if !ok {
			return nil, fmt.Errorf("insert items: row %s missing from returning set", item.ID)
		}
		ordered = append(ordered, row)
	}
	return ordered, nil
}

// RewritePathForSubtree splices the subtree under a new ancestor prefix in a
// single statement, so a concurrent reader sees either the old or the new
// paths, never a mix. Soft-deleted descendants move along with the subtree.
func (r *PostgresItemRepository) RewritePathForSubtree(ctx context.Context, root *models.Item, newPrefix string, newOrder *float64) (*models.Item, error) {
	newRootPath := itempath.Child(newPrefix, root.ID)

	query := fmt.Sprintf(`
		UPDATE %s
		SET path = $1 || substr(path, $2),
		    "order" = CASE WHEN id = $3 THEN $4 ELSE "order" END,
		    updated_at = CASE WHEN id = $3 THEN now() ELSE updated_at END
		WHERE path = $5 OR path LIKE $5 || '.%%'
	`, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query,
		newRootPath,
		len(root.Path)+1,
		root.ID,
		newOrder,
		root.Path,
	)
	if err != nil {
		if postgres.IsPgDuplicateError(err) {
			return nil, &domain.ConflictError{
				Message:      fmt.Sprintf("an item already occupies path %q", newRootPath),
				ResourceType: "item",
				ResourceID:   root.ID.String(),
			}
		}
		return nil, fmt.Errorf("rewrite subtree paths: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return nil, &domain.NotFoundError{Resource: "item", ID: root.ID.String()}
	}

	return r.GetByID(ctx, root.ID)
}

// SoftDelete marks the items deleted and returns the updated rows.
func (r *PostgresItemRepository) SoftDelete(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = now()
		WHERE id = ANY($1) AND deleted_at IS NULL
		RETURNING %s
	`, r.tables.Items, itemColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("soft delete items: %w", err)
	}
	return collectItems(rows)
}

// Restore clears the soft-delete marker and returns the updated rows.
func (r *PostgresItemRepository) Restore(ctx context.Context, ids []uuid.UUID) ([]models.Item, error) {
	if len(ids) == 0 {
		return []models.Item{}, nil
	}

	query := fmt.Sprintf(`
		UPDATE %s
		SET deleted_at = NULL
		WHERE id = ANY($1) AND deleted_at IS NOT NULL
		RETURNING %s
	`, r.tables.Items, itemColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("restore items: %w", err)
	}
	return collectItems(rows)
}

// HardDelete removes the rows permanently.
func (r *PostgresItemRepository) HardDelete(ctx context.Context, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE id = ANY($1)`, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	if _, err := executor.Exec(ctx, query, ids); err != nil {
		return fmt.Errorf("hard delete items: %w", err)
	}
	return nil
}

// UpdateFields applies a partial non-structural patch.
func (r *PostgresItemRepository) UpdateFields(ctx context.Context, id uuid.UUID, patch hierarchyRepo.ItemPatch) (*models.Item, error) {
	if patch.Empty() {
		return nil, &domain.ValidationError{Message: "empty patch"}
	}

	var sets []string
	var args []interface{}
	next := func() int { return len(args) + 1 }

	if patch.Name != nil {
		sets = append(sets, fmt.Sprintf("name = $%d", next()))
		args = append(args, *patch.Name)
	}
	if patch.Settings != nil {
		sets = append(sets, fmt.Sprintf("settings = $%d", next()))
		args = append(args, *patch.Settings)
	}
	if patch.Extra != nil {
		sets = append(sets, fmt.Sprintf("extra = $%d", next()))
		args = append(args, patch.Extra)
	}
	if patch.Geolocation != nil {
		sets = append(sets, fmt.Sprintf("geolocation = $%d", next()))
		args = append(args, patch.Geolocation)
	}
	sets = append(sets, "updated_at = now()")

	query := fmt.Sprintf(`
		UPDATE %s
		SET %s
		WHERE id = $%d AND deleted_at IS NULL
		RETURNING %s
	`, r.tables.Items, strings.Join(sets, ", "), next(), itemColumns)
	args = append(args, id)

	executor := postgres.GetExecutor(ctx, r.pool)
	item, err := scanItem(executor.QueryRow(ctx, query, args...))
	if err != nil {
		if postgres.IsPgNoRowsError(err) {
			return nil, &domain.NotFoundError{Resource: "item", ID: id.String()}
		}
		return nil, fmt.Errorf("update item fields: %w", err)
	}
	return item, nil
}

// UpdateOrder rewrites one sibling's rank. Used by rescale passes; a failed
// write here is surfaced as an ordering error by the caller.
func (r *PostgresItemRepository) UpdateOrder(ctx context.Context, id uuid.UUID, order float64) error {
	query := fmt.Sprintf(`UPDATE %s SET "order" = $2 WHERE id = $1`, r.tables.Items)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, id, order)
	if err != nil {
		return fmt.Errorf("update item order: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return &domain.NotFoundError{Resource: "item", ID: id.String()}
	}
	return nil
}
