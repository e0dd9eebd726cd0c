package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"eswed/internal/domain/repositories"
	"eswed/internal/domain/services"
	"eswed/internal/storage"
)

// migrateParallelism bounds concurrent presign calls during a bulk pass.
const migrateParallelism = 4

type migrationService struct {
	nodeRepo    repositories.NodeRepository
	projectRepo repositories.ProjectRepository
	store       storage.ObjectStore
	presignTTL  time.Duration
	logger      *slog.Logger
}

// NewMigrationService creates the legacy-node migration service. Legacy
// nodes predate object storage: their rows exist but object_path is NULL,
// so their content never reached the bucket.
func NewMigrationService(
	nodeRepo repositories.NodeRepository,
	projectRepo repositories.ProjectRepository,
	store storage.ObjectStore,
	presignTTL time.Duration,
	logger *slog.Logger,
) services.MigrationService {
	return &migrationService{
		nodeRepo:    nodeRepo,
		projectRepo: projectRepo,
		store:       store,
		presignTTL:  presignTTL,
		logger:      logger,
	}
}

// MigrateLegacyNodes assigns a storage key to every file node that lacks
// one and returns a presigned upload URL per node so the client can push
// the content.
func (s *migrationService) MigrateLegacyNodes(ctx context.Context, userID, projectID string) (*services.MigrationReport, error) {
	if _, err := authorizeProject(ctx, s.projectRepo, userID, projectID); err != nil {
		return nil, err
	}

	legacy, err := s.nodeRepo.ListMissingObjectPath(ctx, projectID)
	if err != nil {
		return nil, err
	}

	report := &services.MigrationReport{Entries: make([]services.MigrationEntry, 0, len(legacy))}
	if len(legacy) == 0 {
		return report, nil
	}

	var mu sync.Mutex
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(migrateParallelism)

	for i := range legacy {
		node := legacy[i]
		g.Go(func() error {
			objectPath := GenerateObjectPath(userID, projectID, node.Name, node.ParentID, time.Now())

			uploadURL, err := s.store.PresignUpload(gctx, objectPath, node.MimeType, s.presignTTL)
			if err != nil {
				return err
			}

			node.ObjectPath = &objectPath
			node.UpdatedAt = time.Now()
			if err := s.nodeRepo.Update(gctx, &node); err != nil {
				return err
			}

			mu.Lock()
			report.Entries = append(report.Entries, services.MigrationEntry{
				NodeID:     node.ID,
				Name:       node.Name,
				ObjectPath: objectPath,
				UploadURL:  uploadURL,
			})
			mu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}

	report.Migrated = len(report.Entries)
	s.logger.Info("legacy nodes migrated",
		"project_id", projectID,
		"count", report.Migrated,
	)

	return report, nil
}
