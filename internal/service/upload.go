package service

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"

	"eswed/internal/config"
	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
	"eswed/internal/domain/services"
	"eswed/internal/storage"
)

// uploadSession tracks one in-flight chunked upload. Sessions live in
// process memory only; a crashed server means the client restarts from
// chunk 0.
type uploadSession struct {
	mu           sync.Mutex
	token        string
	userID       string
	projectID    string
	nodeID       string
	objectPath   string
	mimeType     string
	chunks       [][]byte
	buffered     int64
	totalChunks  int
	declaredSize int64
	lastActivity time.Time
}

type uploadService struct {
	mu       sync.Mutex
	sessions map[string]*uploadSession

	nodeRepo    repositories.NodeRepository
	projectRepo repositories.ProjectRepository
	store       storage.ObjectStore
	logger      *slog.Logger

	presignTTL time.Duration
	idleWindow time.Duration
	maxBytes   int64
	done       chan struct{}
	closeOnce  sync.Once
}

// NewUploadService creates the chunked-upload session manager. Call
// StartSweeper to reap abandoned sessions and Close on shutdown.
func NewUploadService(
	nodeRepo repositories.NodeRepository,
	projectRepo repositories.ProjectRepository,
	store storage.ObjectStore,
	presignTTL time.Duration,
	idleWindow time.Duration,
	logger *slog.Logger,
) *uploadService {
	return &uploadService{
		sessions:    make(map[string]*uploadSession),
		nodeRepo:    nodeRepo,
		projectRepo: projectRepo,
		store:       store,
		presignTTL:  presignTTL,
		idleWindow:  idleWindow,
		maxBytes:    config.MaxUploadBytes,
		done:        make(chan struct{}),
		logger:      logger,
	}
}

var _ services.UploadService = (*uploadService)(nil)

// ReceiveChunk ingests one chunk. Chunk 0 resolves the target folder,
// creates the node and the session; the final chunk assembles the payload,
// stores it and completes the session.
func (s *uploadService) ReceiveChunk(ctx context.Context, userID string, req *services.ChunkRequest) (*services.ChunkResult, error) {
	if err := validateChunkRequest(req); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	if _, err := authorizeProject(ctx, s.projectRepo, userID, req.ProjectID); err != nil {
		return nil, err
	}

	var sess *uploadSession
	if req.ChunkIndex == 0 {
		var err error
		sess, err = s.openSession(ctx, userID, req)
		if err != nil {
			return nil, err
		}
	} else {
		s.mu.Lock()
		sess = s.sessions[req.SessionToken]
		s.mu.Unlock()
		if sess == nil {
			return nil, fmt.Errorf("unknown upload session: %w", domain.ErrInvalidState)
		}
		if sess.userID != userID || sess.projectID != req.ProjectID {
			return nil, fmt.Errorf("session does not belong to caller: %w", domain.ErrForbidden)
		}
	}

	sess.mu.Lock()
	defer sess.mu.Unlock()

	// Chunks must arrive strictly in order; a duplicate or skipped index
	// means the client and server disagree about the buffer.
	if req.ChunkIndex != len(sess.chunks) {
		return nil, fmt.Errorf("expected chunk %d, got %d: %w",
			len(sess.chunks), req.ChunkIndex, domain.ErrInvalidState)
	}
	if req.TotalChunks != sess.totalChunks {
		return nil, fmt.Errorf("total chunk count changed mid-session: %w", domain.ErrInvalidState)
	}

	// The per-chunk cap alone does not bound the buffer; the assembled
	// payload must respect the same limit the direct path enforces.
	if sess.buffered+int64(len(req.Data)) > s.maxBytes {
		return nil, fmt.Errorf("assembled upload exceeds %d bytes: %w", s.maxBytes, domain.ErrValidation)
	}

	sess.chunks = append(sess.chunks, req.Data)
	sess.buffered += int64(len(req.Data))
	sess.lastActivity = time.Now()

	if req.ChunkIndex < sess.totalChunks-1 {
		return &services.ChunkResult{
			SessionToken: sess.token,
			Received:     len(sess.chunks),
		}, nil
	}

	result, err := s.complete(ctx, sess)
	if err != nil {
		// Roll the final chunk back out of the buffer so the client can
		// retry it against the intact session.
		sess.chunks = sess.chunks[:len(sess.chunks)-1]
		sess.buffered -= int64(len(req.Data))
		return nil, err
	}
	return result, nil
}

// openSession handles chunk 0: resolve the target folder, generate the
// storage key, create the node and register the session.
func (s *uploadService) openSession(ctx context.Context, userID string, req *services.ChunkRequest) (*uploadSession, error) {
	parentID := normalizeParent(req.ParentID)
	if parentID == nil {
		parentID = s.classify(ctx, req.ProjectID, req.FileName, req.MimeType)
	}

	objectPath := GenerateObjectPath(userID, req.ProjectID, req.FileName, parentID, time.Now())

	now := time.Now()
	node := &models.Node{
		ProjectID:   req.ProjectID,
		ParentID:    parentID,
		Name:        req.FileName,
		Kind:        models.NodeKindFile,
		ObjectPath:  &objectPath,
		Size:        req.TotalSize,
		MimeType:    req.MimeType,
		Description: req.Description,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}

	sess := &uploadSession{
		token:        uuid.NewString(),
		userID:       userID,
		projectID:    req.ProjectID,
		nodeID:       node.ID,
		objectPath:   objectPath,
		mimeType:     req.MimeType,
		chunks:       make([][]byte, 0, req.TotalChunks),
		totalChunks:  req.TotalChunks,
		declaredSize: req.TotalSize,
		lastActivity: now,
	}

	s.mu.Lock()
	s.sessions[sess.token] = sess
	s.mu.Unlock()

	s.logger.Info("upload session opened",
		"token", sess.token,
		"node_id", node.ID,
		"file", req.FileName,
		"total_chunks", req.TotalChunks,
		"parent_id", parentID,
	)

	return sess, nil
}

// complete assembles the buffered chunks, stores the payload and finishes
// the session. A storage failure leaves the session intact so the caller
// can retry from a fresh chunk 0; only success removes it.
func (s *uploadService) complete(ctx context.Context, sess *uploadSession) (*services.ChunkResult, error) {
	payload := bytes.Join(sess.chunks, nil)

	if err := s.store.Put(ctx, sess.objectPath, payload, sess.mimeType); err != nil {
		s.logger.Error("final chunk store failed",
			"token", sess.token,
			"node_id", sess.nodeID,
			"error", err,
		)
		return nil, err
	}

	node, err := s.nodeRepo.GetByID(ctx, sess.nodeID, sess.projectID)
	if err != nil {
		return nil, err
	}
	node.Size = int64(len(payload))
	node.UpdatedAt = time.Now()
	if err := s.nodeRepo.Update(ctx, node); err != nil {
		return nil, err
	}

	s.mu.Lock()
	delete(s.sessions, sess.token)
	s.mu.Unlock()

	s.logger.Info("upload completed",
		"token", sess.token,
		"node_id", sess.nodeID,
		"size", len(payload),
	)

	return &services.ChunkResult{
		SessionToken: sess.token,
		Received:     len(sess.chunks),
		Completed:    true,
		NodeID:       sess.nodeID,
	}, nil
}

// DirectUpload stores a whole file in one call. Content goes to storage
// first so a failed Put never leaves metadata pointing at nothing.
func (s *uploadService) DirectUpload(ctx context.Context, userID string, req *services.DirectUploadRequest) (*models.Node, error) {
	if err := validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.FileName, validation.Required, validation.Length(1, config.MaxNodeNameLength), nodeNameRule),
		validation.Field(&req.Data, validation.Required),
		validation.Field(&req.Description, validation.Length(0, config.MaxDescriptionLength)),
	); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	if int64(len(req.Data)) > s.maxBytes {
		return nil, fmt.Errorf("file exceeds %d bytes: %w", s.maxBytes, domain.ErrValidation)
	}

	if _, err := authorizeProject(ctx, s.projectRepo, userID, req.ProjectID); err != nil {
		return nil, err
	}

	parentID := normalizeParent(req.ParentID)
	if parentID == nil {
		parentID = s.classify(ctx, req.ProjectID, req.FileName, req.MimeType)
	}

	objectPath := GenerateObjectPath(userID, req.ProjectID, req.FileName, parentID, time.Now())

	if err := s.store.Put(ctx, objectPath, req.Data, req.MimeType); err != nil {
		return nil, err
	}

	now := time.Now()
	node := &models.Node{
		ProjectID:   req.ProjectID,
		ParentID:    parentID,
		Name:        req.FileName,
		Kind:        models.NodeKindFile,
		ObjectPath:  &objectPath,
		Size:        int64(len(req.Data)),
		MimeType:    req.MimeType,
		Description: req.Description,
		Tags:        req.Tags,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.nodeRepo.Create(ctx, node); err != nil {
		return nil, err
	}

	s.logger.Info("file uploaded",
		"node_id", node.ID,
		"file", node.Name,
		"size", node.Size,
		"parent_id", parentID,
	)

	return node, nil
}

// DownloadURL returns a presigned, time-limited URL for a file's content.
func (s *uploadService) DownloadURL(ctx context.Context, userID, nodeID string) (string, error) {
	node, err := s.nodeRepo.GetByIDOnly(ctx, nodeID)
	if err != nil {
		return "", err
	}
	if _, err := authorizeProject(ctx, s.projectRepo, userID, node.ProjectID); err != nil {
		return "", err
	}

	if node.Kind != models.NodeKindFile {
		return "", fmt.Errorf("node %s is a folder: %w", nodeID, domain.ErrInvalidOperation)
	}
	if node.ObjectPath == nil {
		return "", fmt.Errorf("node %s has no stored content: %w", nodeID, domain.ErrInvalidState)
	}

	return s.store.PresignDownload(ctx, *node.ObjectPath, s.presignTTL)
}

// classify resolves the auto-sort target for an upload. Any failure loading
// the system folders degrades to nil (project root); classification must
// never block an upload.
func (s *uploadService) classify(ctx context.Context, projectID, fileName, mimeType string) *string {
	folders, err := s.nodeRepo.ListSystemFolders(ctx, projectID)
	if err != nil {
		s.logger.Warn("auto-sort lookup failed, using project root",
			"project_id", projectID,
			"error", err,
		)
		return nil
	}
	return ClassifyUploadTarget(folders, fileName, mimeType)
}

// StartSweeper launches a background loop that reaps sessions idle longer
// than the configured window.
func (s *uploadService) StartSweeper(interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.sweep(time.Now())
			case <-s.done:
				return
			}
		}
	}()
}

// Close stops the sweeper.
func (s *uploadService) Close() {
	s.closeOnce.Do(func() { close(s.done) })
}

// sweep removes sessions whose last activity is older than the idle window.
func (s *uploadService) sweep(now time.Time) {
	cutoff := now.Add(-s.idleWindow)

	s.mu.Lock()
	var stale []*uploadSession
	for token, sess := range s.sessions {
		sess.mu.Lock()
		idle := sess.lastActivity.Before(cutoff)
		sess.mu.Unlock()
		if idle {
			stale = append(stale, sess)
			delete(s.sessions, token)
		}
	}
	s.mu.Unlock()

	for _, sess := range stale {
		s.logger.Info("reaped abandoned upload session",
			"token", sess.token,
			"node_id", sess.nodeID,
			"received", len(sess.chunks),
		)
	}
}

func validateChunkRequest(req *services.ChunkRequest) error {
	return validation.ValidateStruct(req,
		validation.Field(&req.ProjectID, validation.Required),
		validation.Field(&req.FileName, validation.Required, validation.Length(1, config.MaxNodeNameLength), nodeNameRule),
		validation.Field(&req.TotalChunks, validation.Required, validation.Min(1)),
		validation.Field(&req.ChunkIndex, validation.Min(0), validation.Max(req.TotalChunks-1)),
		validation.Field(&req.Data, validation.Required, validation.Length(1, config.MaxChunkBytes)),
		validation.Field(&req.TotalSize, validation.Min(int64(0)), validation.Max(int64(config.MaxUploadBytes))),
	)
}
