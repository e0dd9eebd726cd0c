package models

import (
	"time"
)

// NodeKind discriminates files from folders.
type NodeKind string

const (
	NodeKindFile   NodeKind = "file"
	NodeKindFolder NodeKind = "folder"
)

// Label returns the human-facing kind label used in search matching.
func (k NodeKind) Label() string {
	return string(k)
}

// System folder names bootstrapped for every new project.
const (
	SystemFolderDocuments = "Documents"
	SystemFolderAssets    = "Assets"
	SystemFolderDesign    = "Design"
	SystemFolderPrint     = "Print"
)

// SystemFolderNames lists the four default folders in creation order.
var SystemFolderNames = []string{
	SystemFolderDocuments,
	SystemFolderAssets,
	SystemFolderDesign,
	SystemFolderPrint,
}

// Node is a file or folder in a project tree. The parent chain is acyclic
// and every ancestor shares ProjectID; both are enforced at mutation time.
type Node struct {
	ID             string    `json:"id" db:"id"`
	ProjectID      string    `json:"project_id" db:"project_id"`
	ParentID       *string   `json:"parent_id" db:"parent_id"` // NULL = root level
	Name           string    `json:"name" db:"name"`
	Kind           NodeKind  `json:"kind" db:"kind"`
	ObjectPath     *string   `json:"object_path,omitempty" db:"object_path"` // files only; NULL until content persisted
	Size           int64     `json:"size" db:"size"`
	MimeType       string    `json:"mime_type,omitempty" db:"mime_type"`
	Description    string    `json:"description,omitempty" db:"description"`
	Tags           []string  `json:"tags,omitempty" db:"tags"`
	IsSystemFolder bool      `json:"is_system_folder" db:"is_system_folder"`
	Path           string    `json:"path,omitempty"` // Computed display path, not stored in DB
	CreatedAt      time.Time `json:"created_at" db:"created_at"`
	UpdatedAt      time.Time `json:"updated_at" db:"updated_at"`
}

// IsFolder reports whether the node can hold children.
func (n *Node) IsFolder() bool {
	return n.Kind == NodeKindFolder
}
