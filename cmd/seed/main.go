package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"log/slog"
	"os"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/graasp/graasp-sub008/internal/config"
	models "github.com/graasp/graasp-sub008/internal/domain/models/hierarchy"
	hierarchySvc "github.com/graasp/graasp-sub008/internal/domain/services/hierarchy"
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
	postgresHierarchy "github.com/graasp/graasp-sub008/internal/repository/postgres/hierarchy"
	"github.com/graasp/graasp-sub008/internal/search"
	serviceHierarchy "github.com/graasp/graasp-sub008/internal/service/hierarchy"
)

// Seed account used for local development.
var seedAccountID = uuid.MustParse("6f1c3a52-9f6f-4f8a-bb1d-6a4c8a3b7e10")

func main() {
	// Parse command-line flags
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed items")
	clearData := flag.Bool("clear-data", false, "Clear all items and related rows (keep schema)")
	flag.Parse()

	// Load .env file
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && (*dropTables || *clearData) {
		log.Fatalf("🚫 BLOCKED: Cannot run destructive operations (--drop-tables or --clear-data) in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("🌱 Seeding database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("🗑️  Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("✅ Tables dropped")
	}

	log.Println("📋 Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("✅ Schema ready")

	if *schemaOnly {
		log.Println("✅ Schema setup complete (schema-only mode)")
		return
	}

	if *clearData {
		log.Println("🧹 Clearing existing items...")
		if err := clearAllData(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to clear data: %v", err)
		}
		log.Println("✅ Data cleared successfully")
		return
	}

	if err := ensureSeedAccount(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure seed account: %v", err)
	}

	// Create repositories and the hierarchy service
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	itemRepo := postgresHierarchy.NewItemRepository(repoConfig)
	membershipRepo := postgresHierarchy.NewMembershipRepository(repoConfig)
	visibilityRepo := postgresHierarchy.NewVisibilityRepository(repoConfig)
	recycleBinRepo := postgresHierarchy.NewRecycleBinRepository(repoConfig)
	memberDirectory := postgresHierarchy.NewMemberDirectory(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)
	authorizer := serviceHierarchy.NewAuthorizer(membershipRepo, visibilityRepo, logger)

	items := serviceHierarchy.NewService(
		itemRepo,
		membershipRepo,
		visibilityRepo,
		recycleBinRepo,
		txManager,
		authorizer,
		memberDirectory,
		search.NewLoggingIndexer(logger),
		nil,
		config.DefaultLimits(),
		logger,
	)

	log.Println("📝 Seeding item tree...")
	if err := seedTree(ctx, items); err != nil {
		log.Fatalf("Failed to seed items: %v", err)
	}
	log.Println("🎉 Seeding complete!")
}

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS ` + tables.Members + ` (
			id UUID PRIMARY KEY,
			name TEXT NOT NULL,
			email TEXT,
			created_at TIMESTAMPTZ DEFAULT NOW()
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Items + ` (
			id UUID PRIMARY KEY,
			name VARCHAR(255) NOT NULL,
			type VARCHAR(32) NOT NULL,
			path TEXT NOT NULL UNIQUE,
			"order" DOUBLE PRECISION,
			extra JSONB NOT NULL DEFAULT '{}'::jsonb,
			settings JSONB NOT NULL DEFAULT '{}'::jsonb,
			geolocation JSONB,
			creator_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			deleted_at TIMESTAMPTZ
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Memberships + ` (
			id UUID PRIMARY KEY,
			item_path TEXT NOT NULL,
			account_id UUID NOT NULL,
			permission VARCHAR(16) NOT NULL,
			creator_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (item_path, account_id)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.Visibilities + ` (
			id UUID PRIMARY KEY,
			item_path TEXT NOT NULL,
			type VARCHAR(16) NOT NULL,
			creator_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
			UNIQUE (item_path, type)
		)`,
		`CREATE TABLE IF NOT EXISTS ` + tables.RecycledItems + ` (
			id UUID PRIMARY KEY,
			item_path TEXT NOT NULL,
			creator_id UUID NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
		)`,
	}
	for _, stmt := range statements {
		if _, err := pool.Exec(ctx, stmt); err != nil {
			return err
		}
	}

	// Prefix-match queries rely on these; text_pattern_ops makes LIKE
	// 'prefix%' use the index.
	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `items_path_pattern ON ` + tables.Items + ` (path text_pattern_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `items_creator ON ` + tables.Items + ` (creator_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `memberships_path_pattern ON ` + tables.Memberships + ` (item_path text_pattern_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `memberships_account ON ` + tables.Memberships + ` (account_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `visibilities_path_pattern ON ` + tables.Visibilities + ` (item_path text_pattern_ops)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `recycled_creator ON ` + tables.RecycledItems + ` (creator_id)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}
	return nil
}

// dropAllTables drops all tables
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	tableNames := []string{
		tables.RecycledItems,
		tables.Visibilities,
		tables.Memberships,
		tables.Items,
		tables.Members,
	}
	for _, table := range tableNames {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  ✓ Dropped %s", table)
	}
	return nil
}

// clearAllData removes every row but keeps the schema
func clearAllData(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.RecycledItems, tables.Visibilities, tables.Memberships, tables.Items} {
		if _, err := pool.Exec(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// ensureSeedAccount creates the development account if it doesn't exist
func ensureSeedAccount(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	query := `
		INSERT INTO ` + tables.Members + ` (id, name, email)
		VALUES ($1, $2, $3)
		ON CONFLICT (id) DO NOTHING
	`
	_, err := pool.Exec(ctx, query, seedAccountID, "Seed Account", "seed@example.com")
	return err
}

// seedTree creates a small demo hierarchy through the service, so the seed
// data honors the same ordering and membership rules as real traffic.
func seedTree(ctx context.Context, items hierarchySvc.Service) error {
	root, err := items.Create(ctx, seedAccountID, &hierarchySvc.CreateItemRequest{
		Draft: models.ItemDraft{Name: "Getting Started", Type: models.ItemTypeFolder},
	})
	if err != nil {
		return err
	}
	log.Printf("✅ Created root folder %s", root.ID)

	docExtra := func(text string) models.ItemExtra {
		payload, _ := json.Marshal(map[string]string{"content": text})
		return models.ItemExtra{string(models.ItemTypeDocument): payload}
	}

	result, err := items.CreateMany(ctx, seedAccountID, &root.ID, []models.ItemDraft{
		{Name: "Welcome", Type: models.ItemTypeDocument, Extra: docExtra("Welcome to your workspace.")},
		{Name: "Resources", Type: models.ItemTypeFolder},
		{Name: "Scratchpad", Type: models.ItemTypeDocument, Extra: docExtra("Anything goes here.")},
	})
	if err != nil {
		return err
	}
	for id, itemErr := range result.Errors {
		log.Printf("❌ Failed to create seed item %s: %v", id, itemErr)
	}
	log.Printf("✅ Created %d items under %s", len(result.Items), root.Name)
	return nil
}
