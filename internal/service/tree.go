package service

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"eswed/internal/config"
	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
	"eswed/internal/domain/services"
	"eswed/internal/storage"
)

var nodeNameRule = validation.Match(regexp.MustCompile(`^[^/]+$`)).
	Error("name cannot contain slashes")

type treeService struct {
	nodeRepo    repositories.NodeRepository
	projectRepo repositories.ProjectRepository
	txManager   repositories.TransactionManager
	store       storage.ObjectStore
	locks       *projectLocks
	logger      *slog.Logger
}

// NewTreeService creates the tree service owning all structural operations.
func NewTreeService(
	nodeRepo repositories.NodeRepository,
	projectRepo repositories.ProjectRepository,
	txManager repositories.TransactionManager,
	store storage.ObjectStore,
	logger *slog.Logger,
) services.TreeService {
	return &treeService{
		nodeRepo:    nodeRepo,
		projectRepo: projectRepo,
		txManager:   txManager,
		store:       store,
		locks:       newProjectLocks(),
		logger:      logger,
	}
}

// CreateFolder creates a new folder under an existing folder or at root.
func (s *treeService) CreateFolder(ctx context.Context, userID string, req *services.CreateFolderRequest) (*models.Node, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			nodeNameRule,
		),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := authorizeProject(ctx, s.projectRepo, userID, req.ProjectID); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(req.ProjectID)
	defer unlock()

	req.ParentID = normalizeParent(req.ParentID)
	if req.ParentID != nil {
		parent, err := s.nodeRepo.GetByID(ctx, *req.ParentID, req.ProjectID)
		if err != nil {
			return nil, fmt.Errorf("parent folder: %w", err)
		}
		if !parent.IsFolder() {
			return nil, fmt.Errorf("parent %s is not a folder: %w", parent.ID, domain.ErrInvalidOperation)
		}
	}

	now := time.Now()
	node := &models.Node{
		ProjectID: req.ProjectID,
		ParentID:  req.ParentID,
		Name:      req.Name,
		Kind:      models.NodeKindFolder,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("folder created",
		"id", node.ID,
		"name", node.Name,
		"project_id", req.ProjectID,
		"parent_id", req.ParentID,
	)

	return node, nil
}

// GetNode retrieves a single node the caller may access.
func (s *treeService) GetNode(ctx context.Context, userID, nodeID string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByIDOnly(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeProject(ctx, s.projectRepo, userID, node.ProjectID); err != nil {
		return nil, err
	}
	return node, nil
}

// ListProject returns the project's full node list with display paths.
func (s *treeService) ListProject(ctx context.Context, userID, projectID string) ([]models.Node, error) {
	if _, err := authorizeProject(ctx, s.projectRepo, userID, projectID); err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	fillDisplayPaths(nodes)
	return nodes, nil
}

// ListChildren returns a folder plus its immediate children (nil = root).
func (s *treeService) ListChildren(ctx context.Context, userID, projectID string, folderID *string) (*services.FolderContents, error) {
	if _, err := authorizeProject(ctx, s.projectRepo, userID, projectID); err != nil {
		return nil, err
	}

	var folder *models.Node
	folderID = normalizeParent(folderID)
	if folderID != nil {
		var err error
		folder, err = s.nodeRepo.GetByID(ctx, *folderID, projectID)
		if err != nil {
			return nil, err
		}
		if !folder.IsFolder() {
			return nil, fmt.Errorf("node %s is not a folder: %w", folder.ID, domain.ErrInvalidOperation)
		}
	}

	children, err := s.nodeRepo.ListChildren(ctx, folderID, projectID)
	if err != nil {
		return nil, fmt.Errorf("list children: %w", err)
	}

	return &services.FolderContents{
		Folder:   folder,
		Children: children,
	}, nil
}

// Move reparents a node. The cycle check and the update run under the
// project lock so a concurrent move cannot slip a cycle past the check.
func (s *treeService) Move(ctx context.Context, userID, nodeID string, newParentID *string) (*models.Node, error) {
	node, err := s.nodeRepo.GetByIDOnly(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeProject(ctx, s.projectRepo, userID, node.ProjectID); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(node.ProjectID)
	defer unlock()

	// Re-read under the lock; a concurrent move may have won the race.
	node, err = s.nodeRepo.GetByID(ctx, nodeID, node.ProjectID)
	if err != nil {
		return nil, err
	}

	newParentID = normalizeParent(newParentID)

	// Already there: succeed without touching updated_at.
	if equalParent(node.ParentID, newParentID) {
		return node, nil
	}

	if newParentID != nil {
		if err := s.validateMoveTarget(ctx, node, *newParentID); err != nil {
			return nil, err
		}
	}

	node.ParentID = newParentID
	node.UpdatedAt = time.Now()

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node moved",
		"id", node.ID,
		"name", node.Name,
		"project_id", node.ProjectID,
		"new_parent_id", newParentID,
	)

	return node, nil
}

// validateMoveTarget rejects self-moves, non-folder targets, cross-project
// targets, and moves that would create a cycle.
func (s *treeService) validateMoveTarget(ctx context.Context, node *models.Node, targetID string) error {
	if targetID == node.ID {
		return fmt.Errorf("cannot move a node into itself: %w", domain.ErrInvalidOperation)
	}

	target, err := s.nodeRepo.GetByIDOnly(ctx, targetID)
	if err != nil {
		return fmt.Errorf("move target: %w", err)
	}
	if target.ProjectID != node.ProjectID {
		return fmt.Errorf("move target belongs to another project: %w", domain.ErrInvalidOperation)
	}
	if !target.IsFolder() {
		return fmt.Errorf("move target %s is not a folder: %w", target.ID, domain.ErrInvalidOperation)
	}

	// Walk the ancestor chain from the target upward. Finding the moved
	// node means the target is one of its descendants. The walk is bounded
	// by the project's node count so it terminates even on corrupt data.
	bound, err := s.nodeRepo.CountByProject(ctx, node.ProjectID)
	if err != nil {
		return err
	}

	current := target
	for i := 0; i < bound; i++ {
		if current.ParentID == nil {
			return nil
		}
		if *current.ParentID == node.ID {
			return fmt.Errorf("cannot move a folder into its own descendant: %w", domain.ErrInvalidOperation)
		}
		current, err = s.nodeRepo.GetByID(ctx, *current.ParentID, node.ProjectID)
		if err != nil {
			return fmt.Errorf("walk ancestors: %w", err)
		}
	}

	return fmt.Errorf("ancestor chain exceeds project size: %w", domain.ErrInvalidOperation)
}

// Rename changes a node's display name.
func (s *treeService) Rename(ctx context.Context, userID, nodeID string, req *services.RenameRequest) (*models.Node, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.Name,
			validation.Required,
			validation.Length(1, config.MaxNodeNameLength),
			nodeNameRule,
		),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	node, err := s.nodeRepo.GetByIDOnly(ctx, nodeID)
	if err != nil {
		return nil, err
	}
	if _, err := authorizeProject(ctx, s.projectRepo, userID, node.ProjectID); err != nil {
		return nil, err
	}

	unlock := s.locks.Acquire(node.ProjectID)
	defer unlock()

	node.Name = req.Name
	node.UpdatedAt = time.Now()

	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("node renamed", "id", node.ID, "name", node.Name)
	return node, nil
}

// Delete removes a node and all of its descendants in one transaction, then
// best-effort deletes their stored content. Object deletion failures are
// logged, not surfaced: the metadata is gone and a storage sweep can finish
// the job later.
func (s *treeService) Delete(ctx context.Context, userID, nodeID string) error {
	node, err := s.nodeRepo.GetByIDOnly(ctx, nodeID)
	if err != nil {
		return err
	}
	if _, err := authorizeProject(ctx, s.projectRepo, userID, node.ProjectID); err != nil {
		return err
	}

	unlock := s.locks.Acquire(node.ProjectID)
	defer unlock()

	snapshot, err := s.nodeRepo.ListByProject(ctx, node.ProjectID)
	if err != nil {
		return err
	}

	ids, objectPaths := collectSubtree(snapshot, node.ID)

	err = s.txManager.ExecTx(ctx, func(txCtx context.Context) error {
		return s.nodeRepo.Delete(txCtx, ids, node.ProjectID)
	})
	if err != nil {
		return err
	}

	for _, path := range objectPaths {
		if err := s.store.Delete(ctx, path); err != nil {
			s.logger.Warn("orphaned object content", "object_path", path, "error", err)
		}
	}

	s.logger.Info("node deleted",
		"id", node.ID,
		"name", node.Name,
		"project_id", node.ProjectID,
		"descendants", len(ids)-1,
	)

	return nil
}

// collectSubtree returns the ids of rootID and all its descendants, plus the
// object paths of every file in that subtree.
func collectSubtree(nodes []models.Node, rootID string) (ids []string, objectPaths []string) {
	children := make(map[string][]*models.Node, len(nodes))
	byID := make(map[string]*models.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
		if nodes[i].ParentID != nil {
			children[*nodes[i].ParentID] = append(children[*nodes[i].ParentID], &nodes[i])
		}
	}

	queue := []string{rootID}
	seen := map[string]bool{rootID: true}
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		ids = append(ids, id)

		if n, ok := byID[id]; ok && n.Kind == models.NodeKindFile && n.ObjectPath != nil {
			objectPaths = append(objectPaths, *n.ObjectPath)
		}
		for _, child := range children[id] {
			if !seen[child.ID] {
				seen[child.ID] = true
				queue = append(queue, child.ID)
			}
		}
	}
	return ids, objectPaths
}

// fillDisplayPaths computes "Parent/Child/Name" display paths for a node
// snapshot with a memoized walk, relying on tree acyclicity instead of an
// arbitrary hop cap.
func fillDisplayPaths(nodes []models.Node) {
	byID := make(map[string]*models.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	memo := make(map[string]string, len(nodes))
	var pathOf func(n *models.Node, visited map[string]bool) string
	pathOf = func(n *models.Node, visited map[string]bool) string {
		if p, ok := memo[n.ID]; ok {
			return p
		}
		if visited[n.ID] {
			// Defensive only; Move/Create keep the tree acyclic.
			return n.Name
		}
		visited[n.ID] = true

		path := n.Name
		if n.ParentID != nil {
			if parent, ok := byID[*n.ParentID]; ok {
				path = pathOf(parent, visited) + "/" + n.Name
			}
		}
		memo[n.ID] = path
		return path
	}

	for i := range nodes {
		nodes[i].Path = pathOf(&nodes[i], make(map[string]bool))
	}
}
