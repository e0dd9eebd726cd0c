package repositories

import (
	"context"

	"eswed/internal/domain/models"
)

// NodeRepository persists file/folder nodes. Every method except GetByIDOnly
// is project-scoped; no query may leak nodes across projects.
type NodeRepository interface {
	// Create inserts the node and fills in ID and timestamps.
	Create(ctx context.Context, node *models.Node) error

	// GetByID retrieves a node scoped to a project.
	GetByID(ctx context.Context, id, projectID string) (*models.Node, error)

	// GetByIDOnly retrieves a node by id alone. Used by authorization to
	// discover the owning project before any scoped access happens.
	GetByIDOnly(ctx context.Context, id string) (*models.Node, error)

	// ListByProject returns all nodes of a project ordered by name.
	ListByProject(ctx context.Context, projectID string) ([]models.Node, error)

	// ListChildren returns the immediate children of a folder (nil = root).
	ListChildren(ctx context.Context, parentID *string, projectID string) ([]models.Node, error)

	// ListSystemFolders returns the project's folders flagged as system folders.
	ListSystemFolders(ctx context.Context, projectID string) ([]models.Node, error)

	// ListMissingObjectPath returns file nodes that have no storage key yet.
	ListMissingObjectPath(ctx context.Context, projectID string) ([]models.Node, error)

	// Update persists name, parent, object path, size, description, tags
	// and updated_at for an existing node.
	Update(ctx context.Context, node *models.Node) error

	// Delete removes a set of nodes of one project in a single statement.
	Delete(ctx context.Context, ids []string, projectID string) error

	// CountByProject returns the number of nodes in a project. Bounds
	// ancestor walks so traversal always terminates.
	CountByProject(ctx context.Context, projectID string) (int, error)
}
