package postgres

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/graasp/graasp-sub008/internal/domain/repositories"
)

// RepositoryConfig holds the shared pieces every repository implementation
// is constructed with.
type RepositoryConfig struct {
	Pool   *pgxpool.Pool
	Tables *TableNames
	Logger *slog.Logger
}

// TableNames holds environment-prefixed table names.
type TableNames struct {
	Items         string
	Memberships   string
	Visibilities  string
	RecycledItems string
	Members       string
}

// NewTableNames creates table names with the given prefix.
func NewTableNames(prefix string) *TableNames {
	return &TableNames{
		Items:         fmt.Sprintf("%sitems", prefix),
		Memberships:   fmt.Sprintf("%sitem_memberships", prefix),
		Visibilities:  fmt.Sprintf("%sitem_visibilities", prefix),
		RecycledItems: fmt.Sprintf("%srecycled_item_data", prefix),
		Members:       fmt.Sprintf("%smembers", prefix),
	}
}

// CreateConnectionPool creates a pgx connection pool and verifies it.
func CreateConnectionPool(ctx context.Context, databaseURL string) (*pgxpool.Pool, error) {
	config, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse connection string: %w", err)
	}

	config.MaxConns = 25
	config.MinConns = 5

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return pool, nil
}

// GetExecutor returns the transaction stored in the context when present,
// otherwise the pool. Repositories automatically participate in the
// caller's transaction this way.
func GetExecutor(ctx context.Context, pool *pgxpool.Pool) repositories.DBTX {
	if tx := repositories.GetTx(ctx); tx != nil {
		return tx
	}
	return pool
}
