package repositories

import (
	"context"

	"eswed/internal/domain/models"
)

// ProjectRepository persists projects.
type ProjectRepository interface {
	Create(ctx context.Context, project *models.Project) error
	GetByID(ctx context.Context, id string) (*models.Project, error)
	ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error)
	Delete(ctx context.Context, id string) error
}
