package hierarchy

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchyService "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
)

// PostgresMemberDirectory resolves creator identities from the members
// table. Account lifecycle lives elsewhere; this is a read-only lookup.
type PostgresMemberDirectory struct {
	pool   *pgxpool.Pool
	tables *postgres.TableNames
	logger *slog.Logger
}

// NewMemberDirectory creates a new member directory.
func NewMemberDirectory(config *postgres.RepositoryConfig) hierarchyService.MemberDirectory {
	return &PostgresMemberDirectory{
		pool:   config.Pool,
		tables: config.Tables,
		logger: config.Logger,
	}
}

// GetManyByID resolves ids to minimal identities. Unknown ids are absent
// from the map, never an error.
func (r *PostgresMemberDirectory) GetManyByID(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.MinimalMember, error) {
	result := make(map[uuid.UUID]models.MinimalMember, len(ids))
	if len(ids) == 0 {
		return result, nil
	}

	query := fmt.Sprintf(`SELECT id, name FROM %s WHERE id = ANY($1)`, r.tables.Members)

	executor := postgres.GetExecutor(ctx, r.pool)
	rows, err := executor.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get members: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var m models.MinimalMember
		if err := rows.Scan(&m.ID, &m.Name); err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		result[m.ID] = m
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate members: %w", err)
	}
	return result, nil
}
