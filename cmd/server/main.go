package main

import (
	"context"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/cors"

	"github.com/graasp/graasp-sub008/internal/auth"
	"github.com/graasp/graasp-sub008/internal/config"
	"github.com/graasp/graasp-sub008/internal/handler"
	"github.com/graasp/graasp-sub008/internal/middleware"
	"github.com/graasp/graasp-sub008/internal/repository/postgres"
	postgresHierarchy "github.com/graasp/graasp-sub008/internal/repository/postgres/hierarchy"
	"github.com/graasp/graasp-sub008/internal/search"
	serviceHierarchy "github.com/graasp/graasp-sub008/internal/service/hierarchy"
	"github.com/graasp/graasp-sub008/internal/thumbnail"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg := config.Load()

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	var logOut io.Writer = os.Stdout
	if cfg.LogDir != "" {
		logFile, err := config.SetupLogFile(cfg.LogDir, 10)
		if err != nil {
			log.Fatalf("Failed to set up log file: %v", err)
		}
		defer logFile.Close()
		logOut = io.MultiWriter(os.Stdout, logFile)
	}

	logger := slog.New(slog.NewJSONHandler(logOut, &slog.HandlerOptions{
		Level: logLevel,
	}))
	slog.SetDefault(logger)

	logger.Info("server starting",
		"environment", cfg.Environment,
		"port", cfg.Port,
		"table_prefix", cfg.TablePrefix,
	)

	// Hierarchy limits, optionally overridden by a YAML file
	limits, err := config.LoadLimits(cfg.LimitsFile)
	if err != nil {
		log.Fatalf("Failed to load limits: %v", err)
	}

	// Create JWT verifier
	verifier, err := auth.NewJWKSVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer verifier.Close()

	// Create pgx connection pool
	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	logger.Info("database connected",
		"max_conns", 25,
		"min_conns", 5,
	)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
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

	// Create collaborators and the hierarchy service
	authorizer := serviceHierarchy.NewAuthorizer(membershipRepo, visibilityRepo, logger)
	indexer := search.NewLoggingIndexer(logger)
	thumbnails := thumbnail.NewURLStore(cfg.ThumbnailBaseURL, logger)

	hierarchyService := serviceHierarchy.NewService(
		itemRepo,
		membershipRepo,
		visibilityRepo,
		recycleBinRepo,
		txManager,
		authorizer,
		memberDirectory,
		indexer,
		thumbnails,
		limits,
		logger,
	)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})

	itemHandler := handler.NewItemHandler(hierarchyService, logger)
	itemHandler.RegisterRoutes(mux)

	// Build middleware chain
	// Order: CORS → Recovery → Auth → Routes
	var h http.Handler = mux
	h = middleware.Auth(verifier, logger)(h)
	h = middleware.Recovery(logger)(h)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	h = corsHandler.Handler(h)

	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      h,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "port", cfg.Port)
	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Fatalf("Failed to start server: %v", err)
	}
}
