package main

import (
	"context"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"eswed/internal/config"
	"eswed/internal/domain/services"
	"eswed/internal/repository/postgres"
	"eswed/internal/service"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
)

func main() {
	dropTables := flag.Bool("drop-tables", false, "Drop all tables before seeding (fresh start)")
	schemaOnly := flag.Bool("schema-only", false, "Only set up schema, don't seed a demo project")
	flag.Parse()

	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// SAFETY: Prevent destructive operations in production
	if cfg.Environment == "prod" && *dropTables {
		log.Fatalf("BLOCKED: cannot run --drop-tables in production environment")
	}

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	log.Printf("Preparing database (environment: %s, prefix: %s)", cfg.Environment, cfg.TablePrefix)

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)

	if *dropTables {
		log.Println("Dropping all tables...")
		if err := dropAllTables(ctx, pool, tables); err != nil {
			log.Fatalf("Failed to drop tables: %v", err)
		}
		log.Println("Tables dropped")
	}

	log.Println("Ensuring database schema is up to date...")
	if err := runSchema(ctx, pool, tables, cfg.TablePrefix); err != nil {
		log.Fatalf("Failed to run schema: %v", err)
	}
	log.Println("Schema ready")

	if *schemaOnly {
		return
	}

	// Seed a demo project with its system folders so a fresh environment
	// has something to click on.
	repoConfig := &postgres.RepositoryConfig{
		Pool:   pool,
		Tables: tables,
		Logger: logger,
	}
	projectRepo := postgres.NewProjectRepository(repoConfig)
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	txManager := postgres.NewTransactionManager(pool, logger)

	projectService := service.NewProjectService(projectRepo, nodeRepo, txManager, noopStore{}, logger)

	demoOwner := os.Getenv("SEED_OWNER_ID")
	if demoOwner == "" {
		log.Println("SEED_OWNER_ID not set, skipping demo project")
		return
	}

	project, err := projectService.Create(ctx, demoOwner, &services.CreateProjectRequest{Name: "Demo Project"})
	if err != nil {
		log.Fatalf("Failed to seed demo project: %v", err)
	}
	log.Printf("Seeded demo project %s for owner %s", project.ID, demoOwner)
}

// noopStore satisfies the object-store dependency of the project service.
// Seeding only creates metadata; no content ever reaches a bucket here.
type noopStore struct{}

func (noopStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	return nil
}
func (noopStore) Get(ctx context.Context, key string) ([]byte, error) { return nil, nil }
func (noopStore) Delete(ctx context.Context, key string) error        { return nil }
func (noopStore) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "", nil
}
func (noopStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "", nil
}
func (noopStore) HeadBucket(ctx context.Context) error { return nil }

// runSchema creates tables if they don't exist
func runSchema(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames, tablePrefix string) error {
	if _, err := pool.Exec(ctx, `CREATE EXTENSION IF NOT EXISTS "uuid-ossp"`); err != nil {
		return err
	}

	createProjects := `
		CREATE TABLE IF NOT EXISTS ` + tables.Projects + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			owner_id UUID NOT NULL,
			name TEXT NOT NULL,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createProjects); err != nil {
		return err
	}

	createNodes := `
		CREATE TABLE IF NOT EXISTS ` + tables.Nodes + ` (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			project_id UUID NOT NULL REFERENCES ` + tables.Projects + `(id) ON DELETE CASCADE,
			parent_id UUID REFERENCES ` + tables.Nodes + `(id) ON DELETE CASCADE,
			name TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('file', 'folder')),
			object_path TEXT,
			size BIGINT NOT NULL DEFAULT 0,
			mime_type TEXT NOT NULL DEFAULT '',
			description TEXT NOT NULL DEFAULT '',
			tags TEXT[] NOT NULL DEFAULT '{}',
			is_system_folder BOOLEAN NOT NULL DEFAULT FALSE,
			created_at TIMESTAMPTZ DEFAULT NOW(),
			updated_at TIMESTAMPTZ DEFAULT NOW()
		)
	`
	if _, err := pool.Exec(ctx, createNodes); err != nil {
		return err
	}

	indexes := []string{
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_project_parent ON ` + tables.Nodes + `(project_id, parent_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_project_id ON ` + tables.Nodes + `(project_id)`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `nodes_missing_content ON ` + tables.Nodes + `(project_id) WHERE kind = 'file' AND object_path IS NULL`,
		`CREATE INDEX IF NOT EXISTS idx_` + tablePrefix + `projects_owner ON ` + tables.Projects + `(owner_id)`,
	}
	for _, indexSQL := range indexes {
		if _, err := pool.Exec(ctx, indexSQL); err != nil {
			return err
		}
	}

	return nil
}

// dropAllTables drops all tables in reverse order (to respect foreign keys)
func dropAllTables(ctx context.Context, pool *pgxpool.Pool, tables *postgres.TableNames) error {
	for _, table := range []string{tables.Nodes, tables.Projects} {
		if _, err := pool.Exec(ctx, "DROP TABLE IF EXISTS "+table+" CASCADE"); err != nil {
			return err
		}
		log.Printf("  dropped %s", table)
	}
	return nil
}
