package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"eswed/internal/config"
	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
	"eswed/internal/domain/services"
	"eswed/internal/storage"
)

type projectService struct {
	projectRepo repositories.ProjectRepository
	nodeRepo    repositories.NodeRepository
	txManager   repositories.TransactionManager
	store       storage.ObjectStore
	logger      *slog.Logger
}

// NewProjectService creates the project lifecycle service.
func NewProjectService(
	projectRepo repositories.ProjectRepository,
	nodeRepo repositories.NodeRepository,
	txManager repositories.TransactionManager,
	store storage.ObjectStore,
	logger *slog.Logger,
) services.ProjectService {
	return &projectService{
		projectRepo: projectRepo,
		nodeRepo:    nodeRepo,
		txManager:   txManager,
		store:       store,
		logger:      logger,
	}
}

// Create creates a project and bootstraps its four system folders in the
// same transaction, so no project ever exists half-initialized.
func (s *projectService) Create(ctx context.Context, ownerID string, req *services.CreateProjectRequest) (*models.Project, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name, validation.Required, validation.Length(1, config.MaxProjectNameLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	now := time.Now()
	project := &models.Project{
		OwnerID:   ownerID,
		Name:      req.Name,
		CreatedAt: now,
		UpdatedAt: now,
	}

	err := s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if err := s.projectRepo.Create(txCtx, project); err != nil {
			return err
		}
		for _, name := range models.SystemFolderNames {
			folder := &models.Node{
				ProjectID:      project.ID,
				Name:           name,
				Kind:           models.NodeKindFolder,
				IsSystemFolder: true,
				CreatedAt:      now,
				UpdatedAt:      now,
			}
			if err := s.nodeRepo.Create(txCtx, folder); err != nil {
				return fmt.Errorf("bootstrap folder '%s': %w", name, err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("project created",
		"id", project.ID,
		"name", project.Name,
		"owner_id", ownerID,
	)

	return project, nil
}

// Get retrieves a project the caller owns.
func (s *projectService) Get(ctx context.Context, userID, projectID string) (*models.Project, error) {
	return authorizeProject(ctx, s.projectRepo, userID, projectID)
}

// List returns all projects owned by a user.
func (s *projectService) List(ctx context.Context, ownerID string) ([]models.Project, error) {
	return s.projectRepo.ListByOwner(ctx, ownerID)
}

// Delete removes a project, its whole node tree, and best-effort its stored
// content.
func (s *projectService) Delete(ctx context.Context, userID, projectID string) error {
	if _, err := authorizeProject(ctx, s.projectRepo, userID, projectID); err != nil {
		return err
	}

	nodes, err := s.nodeRepo.ListByProject(ctx, projectID)
	if err != nil {
		return err
	}

	var ids []string
	var objectPaths []string
	for i := range nodes {
		ids = append(ids, nodes[i].ID)
		if nodes[i].Kind == models.NodeKindFile && nodes[i].ObjectPath != nil {
			objectPaths = append(objectPaths, *nodes[i].ObjectPath)
		}
	}

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		if len(ids) > 0 {
			if err := s.nodeRepo.Delete(txCtx, ids, projectID); err != nil {
				return err
			}
		}
		return s.projectRepo.Delete(txCtx, projectID)
	})
	if err != nil {
		return err
	}

	for _, path := range objectPaths {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn("orphaned object content", "object_path", path, "error", err)
		}
	}

	s.logger.Info("project deleted",
		"id", projectID,
		"nodes", len(ids),
	)

	return nil
}
