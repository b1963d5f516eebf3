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
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
)

const recycleColumns = `id, item_path, creator_id, created_at`

// PostgresRecycleBinRepository implements RecycleBinRepository.
type PostgresRecycleBinRepository struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewRecycleBinRepository creates a new recycle bin repository.
func NewRecycleBinRepository(config *postgres.RepositoryConfig) hierarchyRepo.RecycleBinRepository {
	return &PostgresRecycleBinRepository{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

func collectRecycleEntries(rows pgx.Rows) ([]models.RecycleEntry, error) {
	defer rows.Close()

	var entries []models.RecycleEntry
	for rows.Next() {
		var e models.RecycleEntry
		if err := rows.Scan(&e.ID, &e.ItemPath, &e.CreatorID, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan recycle entry: %w", err)
		}
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate recycle entries: %w", err)
	}
	if entries == nil {
		entries = []models.RecycleEntry{}
	}
	return entries, nil
}

// AddMany records one entry per recycled root.
func (r *PostgresRecycleBinRepository) AddMany(ctx context.Context, drafts []hierarchyRepo.RecycleEntryDraft) ([]models.RecycleEntry, error) {
	if len(drafts) == 0 {
		return []models.RecycleEntry{}, nil
	}

	var sb strings.Builder
	args := make([]interface{}, 0, len(drafts)*3)
	for i, draft := range drafts {
		if i > 0 {
			sb.WriteString(", ")
		}
		base := i * 3
		fmt.Fprintf(&sb, "($%d, $%d, $%d, now())", base+1, base+2, base+3)
		args = append(args, uuid.New(), draft.ItemPath, draft.CreatorID)
	}

	query := fmt.Sprintf(`
		INSERT INTO %s (id, item_path, creator_id, created_at)
		VALUES %s
		RETURNING %s
	`, r.tables.RecycledItems, sb.String(), recycleColumns)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("insert recycle entries: %w", err)
	}
	return collectRecycleEntries(rows)
}

// DeleteByItemPaths removes the entries for the given paths and reports how
// many existed. Callers treat zero as NotFound.
func (r *PostgresRecycleBinRepository) DeleteByItemPaths(ctx context.Context, itemPaths []string) (int, error) {
	if len(itemPaths) == 0 {
		return 0, nil
	}

	query := fmt.Sprintf(`DELETE FROM %s WHERE item_path = ANY($1)`, r.tables.RecycledItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	tag, err := executor.Exec(ctx, query, itemPaths)
	if err != nil {
		return 0, fmt.Errorf("delete recycle entries: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// GetByCreator lists the bin entries recorded for the account, newest first.
func (r *PostgresRecycleBinRepository) GetByCreator(ctx context.Context, creatorID uuid.UUID) ([]models.RecycleEntry, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE creator_id = $1
		ORDER BY created_at DESC
	`, recycleColumns, r.tables.RecycledItems)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, creatorID)
	if err != nil {
		return nil, fmt.Errorf("get recycle entries by creator: %w", err)
	}
	return collectRecycleEntries(rows)
}
