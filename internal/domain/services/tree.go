package services

import (
	"context"

	"eswed/internal/domain/models"
)

// CreateFolderRequest carries a folder creation intent.
type CreateFolderRequest struct {
	ProjectID string  `json:"-"`
	ParentID  *string `json:"parent_id,omitempty"`
	Name      string  `json:"name"`
}

// RenameRequest carries a rename intent for any node.
type RenameRequest struct {
	Name string `json:"name"`
}

// FolderContents is a folder plus its immediate children.
type FolderContents struct {
	Folder   *models.Node  `json:"folder,omitempty"`
	Children []models.Node `json:"children"`
}

// TreeService owns structural operations over the project node tree and
// enforces its invariants: acyclic parent chains, single project per tree,
// folder-only parents.
type TreeService interface {
	CreateFolder(ctx context.Context, userID string, req *CreateFolderRequest) (*models.Node, error)
	GetNode(ctx context.Context, userID, nodeID string) (*models.Node, error)
	ListProject(ctx context.Context, userID, projectID string) ([]models.Node, error)
	ListChildren(ctx context.Context, userID, projectID string, folderID *string) (*FolderContents, error)

	// Move reparents a node. newParentID nil moves to root. Moving a node
	// onto its current parent succeeds as a no-op without touching
	// updated_at.
	Move(ctx context.Context, userID, nodeID string, newParentID *string) (*models.Node, error)

	Rename(ctx context.Context, userID, nodeID string, req *RenameRequest) (*models.Node, error)

	// Delete removes a node and all of its descendants, then best-effort
	// deletes their object-store content.
	Delete(ctx context.Context, userID, nodeID string) error
}

// DragRequest is the move/drag coordinator's client-facing intent.
type DragRequest struct {
	NodeID         string  `json:"node_id"`
	TargetFolderID *string `json:"target_folder_id"` // nil = drop on root
}

// MoveCoordinator validates a drag-and-drop intent before delegating to the
// tree service. Store errors pass through verbatim so the client can revert
// its optimistic state and surface the message.
type MoveCoordinator interface {
	Drop(ctx context.Context, userID string, req *DragRequest) (*models.Node, error)
}
