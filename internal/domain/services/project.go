package services

import (
	"context"

	"eswed/internal/domain/models"
)

// CreateProjectRequest carries a project creation intent.
type CreateProjectRequest struct {
	Name string `json:"name"`
}

// ProjectService owns project lifecycle. Creating a project bootstraps the
// four system folders; deleting one cascades to its whole tree.
type ProjectService interface {
	Create(ctx context.Context, ownerID string, req *CreateProjectRequest) (*models.Project, error)
	Get(ctx context.Context, userID, projectID string) (*models.Project, error)
	List(ctx context.Context, ownerID string) ([]models.Project, error)
	Delete(ctx context.Context, userID, projectID string) error
}

// MigrationEntry describes one legacy node prepared for content migration.
type MigrationEntry struct {
	NodeID     string `json:"node_id"`
	Name       string `json:"name"`
	ObjectPath string `json:"object_path"`
	UploadURL  string `json:"upload_url"`
}

// MigrationReport summarizes a bulk migration pass.
type MigrationReport struct {
	Migrated int              `json:"migrated"`
	Entries  []MigrationEntry `json:"entries"`
}

// MigrationService assigns storage keys to legacy file nodes that predate
// object storage and hands back presigned upload URLs for their content.
type MigrationService interface {
	MigrateLegacyNodes(ctx context.Context, userID, projectID string) (*MigrationReport, error)
}
