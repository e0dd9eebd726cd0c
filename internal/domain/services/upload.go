package services

import (
	"context"

	"eswed/internal/domain/models"
)

// ChunkRequest carries one chunk of a chunked upload. Chunk 0 creates the
// session and the node; the final chunk (Index == TotalChunks-1) completes
// the upload.
type ChunkRequest struct {
	ProjectID   string
	FileName    string
	MimeType    string
	ParentID    *string // explicit target folder; nil = auto-sort
	Description string
	Tags        []string

	SessionToken string // empty on chunk 0, required afterwards
	ChunkIndex   int
	TotalChunks  int
	TotalSize    int64
	Data         []byte
}

// ChunkResult acknowledges a received chunk. NodeID is only set once the
// final chunk has been assembled and stored.
type ChunkResult struct {
	SessionToken string `json:"session_token"`
	Received     int    `json:"received"`
	Completed    bool   `json:"completed"`
	NodeID       string `json:"node_id,omitempty"`
}

// DirectUploadRequest uploads a whole file in one request.
type DirectUploadRequest struct {
	ProjectID   string
	FileName    string
	MimeType    string
	ParentID    *string // nil = auto-sort
	Description string
	Tags        []string
	Data        []byte
}

// UploadService assembles chunked uploads and persists file content.
type UploadService interface {
	ReceiveChunk(ctx context.Context, userID string, req *ChunkRequest) (*ChunkResult, error)
	DirectUpload(ctx context.Context, userID string, req *DirectUploadRequest) (*models.Node, error)

	// DownloadURL returns a time-limited URL for a file's content.
	DownloadURL(ctx context.Context, userID, nodeID string) (string, error)
}
