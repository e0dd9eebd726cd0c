package main

import (
	"context"
	"errors"
	"io"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"eswed/internal/auth"
	"eswed/internal/config"
	"eswed/internal/handler"
	"eswed/internal/middleware"
	"eswed/internal/repository/postgres"
	"eswed/internal/service"
	"eswed/internal/storage/wasabi"

	"github.com/joho/godotenv"
	"github.com/rs/cors"
)

func main() {
	// Load .env file (silently ignore if it doesn't exist - for production)
	_ = godotenv.Load()

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Setup structured logging
	logLevel := slog.LevelInfo
	if cfg.Environment == "dev" {
		logLevel = slog.LevelDebug
	}

	logOut := io.Writer(os.Stdout)
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

	// Create JWT verifier
	jwtVerifier, err := auth.NewJWTVerifier(cfg.JWKSURL, logger)
	if err != nil {
		log.Fatalf("Failed to create JWT verifier: %v", err)
	}
	defer jwtVerifier.Close()

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

	// Object store client; fail fast if the bucket is unreachable
	store, err := wasabi.NewClient(ctx, cfg.Wasabi, logger)
	if err != nil {
		log.Fatalf("Failed to create object store client: %v", err)
	}
	if err := store.HeadBucket(ctx); err != nil {
		log.Fatalf("Object store bucket check failed: %v", err)
	}
	logger.Info("object store connected", "bucket", cfg.Wasabi.Bucket)

	// Create repositories
	tables := postgres.NewTableNames(cfg.TablePrefix)
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	// Create services
	projectService := service.NewProjectService(projectRepo, nodeRepo, txManager, store, logger)
	treeService := service.NewTreeService(nodeRepo, projectRepo, txManager, store, logger)
	moveCoordinator := service.NewMoveCoordinator(treeService, nodeRepo, logger)
	searchService := service.NewSearchService(nodeRepo, projectRepo, logger)
	migrationService := service.NewMigrationService(nodeRepo, projectRepo, store, cfg.PresignTTL, logger)

	uploadService := service.NewUploadService(nodeRepo, projectRepo, store, cfg.PresignTTL, cfg.UploadIdleWindow, logger)
	uploadService.StartSweeper(cfg.UploadSweepInterval)
	defer uploadService.Close()

	// Create handlers
	projectHandler := handler.NewProjectHandler(projectService, migrationService, logger)
	treeHandler := handler.NewTreeHandler(treeService, logger)
	moveHandler := handler.NewMoveHandler(moveCoordinator, logger)
	uploadHandler := handler.NewUploadHandler(uploadService, logger)
	searchHandler := handler.NewSearchHandler(searchService, logger)

	logger.Info("services initialized")

	// Create HTTP router (Go 1.22+ enhanced patterns)
	mux := http.NewServeMux()

	// Health check
	mux.HandleFunc("GET /health", handler.HealthCheck)

	// Project routes
	mux.HandleFunc("GET /api/projects", projectHandler.ListProjects)
	mux.HandleFunc("POST /api/projects", projectHandler.CreateProject)
	mux.HandleFunc("GET /api/projects/{id}", projectHandler.GetProject)
	mux.HandleFunc("DELETE /api/projects/{id}", projectHandler.DeleteProject)

	// Project-scoped tree routes
	mux.HandleFunc("POST /api/projects/{id}/folders", treeHandler.CreateFolder)
	mux.HandleFunc("GET /api/projects/{id}/nodes", treeHandler.ListProject)
	mux.HandleFunc("GET /api/projects/{id}/children", treeHandler.ListChildren)
	mux.HandleFunc("GET /api/projects/{id}/search", searchHandler.Search)

	// Upload routes
	mux.HandleFunc("POST /api/projects/{id}/uploads", uploadHandler.DirectUpload)
	mux.HandleFunc("POST /api/projects/{id}/uploads/chunks", uploadHandler.ReceiveChunk)
	mux.HandleFunc("POST /api/projects/{id}/migrate", projectHandler.MigrateLegacyNodes)

	// Node routes
	mux.HandleFunc("GET /api/nodes/{id}", treeHandler.GetNode)
	mux.HandleFunc("PATCH /api/nodes/{id}/parent", treeHandler.MoveNode)
	mux.HandleFunc("PATCH /api/nodes/{id}/name", treeHandler.RenameNode)
	mux.HandleFunc("DELETE /api/nodes/{id}", treeHandler.DeleteNode)
	mux.HandleFunc("GET /api/nodes/{id}/download", uploadHandler.DownloadURL)
	mux.HandleFunc("POST /api/nodes/drop", moveHandler.Drop)

	// Build middleware chain
	var root http.Handler = mux

	// Apply middleware in reverse order (they wrap each other)
	// Order: CORS → Recovery → Auth → Routes
	root = middleware.AuthMiddleware(jwtVerifier)(root)
	root = middleware.Recovery(logger)(root)

	// CORS - Must be before auth to handle OPTIONS pre-flight requests
	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   strings.Split(cfg.CORSOrigins, ","),
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Origin", "Content-Type", "Accept", "Authorization"},
		AllowCredentials: true,
	})
	root = corsHandler.Handler(root)

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      root,
		ReadTimeout:  60 * time.Second, // chunk uploads can be slow on bad links
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server
	go func() {
		logger.Info("server listening", "port", cfg.Port)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown: drain in-flight requests before the upload
	// sweeper and pool are torn down
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	logger.Info("shutdown signal received")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", "error", err)
	}
	logger.Info("server stopped")
}
