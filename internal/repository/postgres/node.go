package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
)

const nodeColumns = `id, project_id, parent_id, name, kind, object_path, size,
	mime_type, description, tags, is_system_folder, created_at, updated_at`

// PostgresNodeRepository implements the NodeRepository interface.
type PostgresNodeRepository struct {
	pool   *pgxpool.Pool
	tables *TableNames
}

// NewNodeRepository creates a new node repository.
func NewNodeRepository(config *RepositoryConfig) repositories.NodeRepository {
	return &PostgresNodeRepository{
		pool:   config.Pool,
		tables: config.Tables,
	}
}

// Create inserts a node and fills in its generated id and timestamps.
func (r *PostgresNodeRepository) Create(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		INSERT INTO %s (project_id, parent_id, name, kind, object_path, size,
			mime_type, description, tags, is_system_folder, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`, r.tables.Nodes)

	err := GetExecutor(ctx, r.pool).QueryRow(ctx, query,
		node.ProjectID,
		node.ParentID,
		node.Name,
		node.Kind,
		node.ObjectPath,
		node.Size,
		node.MimeType,
		node.Description,
		node.Tags,
		node.IsSystemFolder,
		node.CreatedAt,
		node.UpdatedAt,
	).Scan(&node.ID, &node.CreatedAt, &node.UpdatedAt)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("node '%s': %w", node.Name, domain.ErrConflict)
		}
		if isPgForeignKeyError(err) {
			return fmt.Errorf("parent %v: %w", node.ParentID, domain.ErrNotFound)
		}
		return fmt.Errorf("create node: %w", err)
	}

	return nil
}

// GetByID retrieves a node scoped to a project.
func (r *PostgresNodeRepository) GetByID(ctx context.Context, id, projectID string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1 AND project_id = $2
	`, nodeColumns, r.tables.Nodes)

	node, err := scanNode(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id, projectID))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

// GetByIDOnly retrieves a node by id without project scoping. Only the
// authorization path may use it, to discover the owning project.
func (r *PostgresNodeRepository) GetByIDOnly(ctx context.Context, id string) (*models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE id = $1
	`, nodeColumns, r.tables.Nodes)

	node, err := scanNode(GetExecutor(ctx, r.pool).QueryRow(ctx, query, id))
	if err != nil {
		if isPgNoRowsError(err) {
			return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get node: %w", err)
	}
	return node, nil
}

// ListByProject returns all nodes of a project ordered by name.
func (r *PostgresNodeRepository) ListByProject(ctx context.Context, projectID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1
		ORDER BY name ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, projectID)
}

// ListChildren returns the immediate children of a folder (nil = root).
func (r *PostgresNodeRepository) ListChildren(ctx context.Context, parentID *string, projectID string) ([]models.Node, error) {
	if parentID == nil {
		query := fmt.Sprintf(`
			SELECT %s FROM %s
			WHERE project_id = $1 AND parent_id IS NULL
			ORDER BY name ASC
		`, nodeColumns, r.tables.Nodes)
		return r.queryNodes(ctx, query, projectID)
	}

	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND parent_id = $2
		ORDER BY name ASC
	`, nodeColumns, r.tables.Nodes)
	return r.queryNodes(ctx, query, projectID, *parentID)
}

// ListSystemFolders returns the project's default folders.
func (r *PostgresNodeRepository) ListSystemFolders(ctx context.Context, projectID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND is_system_folder = TRUE AND kind = 'folder'
		ORDER BY name ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, projectID)
}

// ListMissingObjectPath returns file nodes that have no storage key yet.
func (r *PostgresNodeRepository) ListMissingObjectPath(ctx context.Context, projectID string) ([]models.Node, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM %s
		WHERE project_id = $1 AND kind = 'file' AND object_path IS NULL
		ORDER BY name ASC
	`, nodeColumns, r.tables.Nodes)

	return r.queryNodes(ctx, query, projectID)
}

// Update persists the mutable fields of an existing node.
func (r *PostgresNodeRepository) Update(ctx context.Context, node *models.Node) error {
	query := fmt.Sprintf(`
		UPDATE %s
		SET parent_id = $1, name = $2, object_path = $3, size = $4,
			mime_type = $5, description = $6, tags = $7, updated_at = $8
		WHERE id = $9 AND project_id = $10
	`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query,
		node.ParentID,
		node.Name,
		node.ObjectPath,
		node.Size,
		node.MimeType,
		node.Description,
		node.Tags,
		node.UpdatedAt,
		node.ID,
		node.ProjectID,
	)

	if err != nil {
		if isPgDuplicateError(err) {
			return fmt.Errorf("node '%s': %w", node.Name, domain.ErrConflict)
		}
		return fmt.Errorf("update node: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}

	return nil
}

// Delete removes a set of nodes of one project in a single statement.
func (r *PostgresNodeRepository) Delete(ctx context.Context, ids []string, projectID string) error {
	if len(ids) == 0 {
		return nil
	}

	query := fmt.Sprintf(`
		DELETE FROM %s
		WHERE id = ANY($1) AND project_id = $2
	`, r.tables.Nodes)

	result, err := GetExecutor(ctx, r.pool).Exec(ctx, query, ids, projectID)
	if err != nil {
		return fmt.Errorf("delete nodes: %w", err)
	}

	if result.RowsAffected() == 0 {
		return fmt.Errorf("nodes %v: %w", ids, domain.ErrNotFound)
	}

	return nil
}

// CountByProject returns the number of nodes in a project.
func (r *PostgresNodeRepository) CountByProject(ctx context.Context, projectID string) (int, error) {
	query := fmt.Sprintf(`
		SELECT COUNT(*) FROM %s WHERE project_id = $1
	`, r.tables.Nodes)

	var count int
	if err := GetExecutor(ctx, r.pool).QueryRow(ctx, query, projectID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count nodes: %w", err)
	}
	return count, nil
}

func (r *PostgresNodeRepository) queryNodes(ctx context.Context, query string, args ...any) ([]models.Node, error) {
	rows, err := GetExecutor(ctx, r.pool).Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list nodes: %w", err)
	}
	defer rows.Close()

	var nodes []models.Node
	for rows.Next() {
		node, err := scanNode(rows)
		if err != nil {
			return nil, fmt.Errorf("scan node: %w", err)
		}
		nodes = append(nodes, *node)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate nodes: %w", err)
	}

	return nodes, nil
}

func scanNode(row pgx.Row) (*models.Node, error) {
	var node models.Node
	err := row.Scan(
		&node.ID,
		&node.ProjectID,
		&node.ParentID,
		&node.Name,
		&node.Kind,
		&node.ObjectPath,
		&node.Size,
		&node.MimeType,
		&node.Description,
		&node.Tags,
		&node.IsSystemFolder,
		&node.CreatedAt,
		&node.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &node, nil
}
