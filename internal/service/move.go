package service

import (
	"context"
	"fmt"
	"log/slog"

	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
	"eswed/internal/domain/services"
)

type moveCoordinator struct {
	tree     services.TreeService
	nodeRepo repositories.NodeRepository
	logger   *slog.Logger
}

// NewMoveCoordinator creates the drag-and-drop coordinator. It pre-validates
// the drop target so obviously bad drops fail fast with a precise message,
// then delegates to the tree service, which re-validates under the project
// lock.
func NewMoveCoordinator(
	tree services.TreeService,
	nodeRepo repositories.NodeRepository,
	logger *slog.Logger,
) services.MoveCoordinator {
	return &moveCoordinator{
		tree:     tree,
		nodeRepo: nodeRepo,
		logger:   logger,
	}
}

// Drop validates and applies a drag-and-drop reparent. Tree store errors
// pass through verbatim; the client reverts its optimistic state and shows
// the message.
func (c *moveCoordinator) Drop(ctx context.Context, userID string, req *services.DragRequest) (*models.Node, error) {
	if req.NodeID == "" {
		return nil, fmt.Errorf("node_id is required: %w", domain.ErrValidation)
	}

	node, err := c.tree.GetNode(ctx, userID, req.NodeID)
	if err != nil {
		return nil, err
	}

	target := normalizeParent(req.TargetFolderID)

	if target != nil && *target == node.ID {
		return nil, fmt.Errorf("cannot drop a node onto itself: %w", domain.ErrInvalidOperation)
	}

	// Dropping onto the current parent is a successful no-op; skip the
	// store round-trip entirely.
	if equalParent(node.ParentID, target) {
		c.logger.Debug("drop is a no-op", "node_id", node.ID, "target", target)
		return node, nil
	}

	if node.IsFolder() && target != nil {
		descendant, err := c.isDescendant(ctx, node, *target)
		if err != nil {
			return nil, err
		}
		if descendant {
			return nil, fmt.Errorf("cannot drop a folder into its own descendant: %w", domain.ErrInvalidOperation)
		}
	}

	moved, err := c.tree.Move(ctx, userID, req.NodeID, target)
	if err != nil {
		return nil, err
	}

	c.logger.Info("drop applied", "node_id", moved.ID, "target", target)
	return moved, nil
}

// isDescendant reports whether candidateID sits below folder in the tree.
// Mirrors the tree store's ancestor walk from the other direction: it walks
// up from the candidate looking for the dragged folder.
func (c *moveCoordinator) isDescendant(ctx context.Context, folder *models.Node, candidateID string) (bool, error) {
	bound, err := c.nodeRepo.CountByProject(ctx, folder.ProjectID)
	if err != nil {
		return false, err
	}

	current, err := c.nodeRepo.GetByID(ctx, candidateID, folder.ProjectID)
	if err != nil {
		return false, fmt.Errorf("drop target: %w", err)
	}

	for i := 0; i < bound; i++ {
		if current.ParentID == nil {
			return false, nil
		}
		if *current.ParentID == folder.ID {
			return true, nil
		}
		current, err = c.nodeRepo.GetByID(ctx, *current.ParentID, folder.ProjectID)
		if err != nil {
			return false, fmt.Errorf("walk ancestors: %w", err)
		}
	}

	return false, fmt.Errorf("ancestor chain exceeds project size: %w", domain.ErrInvalidOperation)
}
