package handler

import (
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"eswed/internal/config"
	"eswed/internal/domain/services"
	"eswed/internal/httputil"
)

// UploadHandler handles file content uploads and downloads
type UploadHandler struct {
	uploadService services.UploadService
	logger        *slog.Logger
}

// NewUploadHandler creates a new upload handler
func NewUploadHandler(uploadService services.UploadService, logger *slog.Logger) *UploadHandler {
	return &UploadHandler{
		uploadService: uploadService,
		logger:        logger,
	}
}

// ReceiveChunk accepts one chunk of a chunked upload as multipart form data.
// Chunk 0 opens the session; the response carries the session token for the
// remaining chunks.
// POST /api/projects/{id}/uploads/chunks
func (h *UploadHandler) ReceiveChunk(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	// A chunk plus its form fields; headroom over the chunk cap for
	// multipart framing.
	if err := r.ParseMultipartForm(int64(config.MaxChunkBytes) + 1<<20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	req, err := chunkRequestFromForm(r, projectID)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	result, err := h.uploadService.ReceiveChunk(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	status := http.StatusOK
	if result.Completed {
		status = http.StatusCreated
	}
	httputil.RespondJSON(w, status, result)
}

// DirectUpload accepts a whole file in one multipart request
// POST /api/projects/{id}/uploads
func (h *UploadHandler) DirectUpload(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	if err := r.ParseMultipartForm(int64(config.MaxUploadBytes) + 1<<20); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid multipart form")
		return
	}

	data, fileName, err := readFormFile(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}
	if name := r.FormValue("file_name"); name != "" {
		fileName = name
	}

	req := &services.DirectUploadRequest{
		ProjectID:   projectID,
		FileName:    fileName,
		MimeType:    r.FormValue("mime_type"),
		ParentID:    optionalFormValue(r, "parent_id"),
		Description: r.FormValue("description"),
		Tags:        parseTags(r.FormValue("tags")),
		Data:        data,
	}

	node, err := h.uploadService.DirectUpload(r.Context(), userID, req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, node)
}

// DownloadURL returns a time-limited URL for a file's content
// GET /api/nodes/{id}/download
func (h *UploadHandler) DownloadURL(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	if nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	url, err := h.uploadService.DownloadURL(r.Context(), userID, nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, map[string]string{"url": url})
}

// chunkRequestFromForm maps the multipart form onto a ChunkRequest. Numeric
// fields are only required where the protocol needs them: indexes always,
// totals on chunk 0.
func chunkRequestFromForm(r *http.Request, projectID string) (*services.ChunkRequest, error) {
	chunkIndex, err := strconv.Atoi(r.FormValue("chunk_index"))
	if err != nil || chunkIndex < 0 {
		return nil, errInvalidField("chunk_index")
	}
	totalChunks, err := strconv.Atoi(r.FormValue("total_chunks"))
	if err != nil || totalChunks < 1 {
		return nil, errInvalidField("total_chunks")
	}
	totalSize, err := strconv.ParseInt(r.FormValue("total_size"), 10, 64)
	if err != nil || totalSize < 0 {
		return nil, errInvalidField("total_size")
	}

	data, fileName, err := readFormFile(r)
	if err != nil {
		return nil, err
	}
	if name := r.FormValue("file_name"); name != "" {
		fileName = name
	}

	return &services.ChunkRequest{
		ProjectID:    projectID,
		FileName:     fileName,
		MimeType:     r.FormValue("mime_type"),
		ParentID:     optionalFormValue(r, "parent_id"),
		Description:  r.FormValue("description"),
		Tags:         parseTags(r.FormValue("tags")),
		SessionToken: r.FormValue("session_token"),
		ChunkIndex:   chunkIndex,
		TotalChunks:  totalChunks,
		TotalSize:    totalSize,
		Data:         data,
	}, nil
}

func readFormFile(r *http.Request) ([]byte, string, error) {
	file, header, err := r.FormFile("file")
	if err != nil {
		return nil, "", errInvalidField("file")
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return nil, "", errInvalidField("file")
	}
	return data, header.Filename, nil
}

func optionalFormValue(r *http.Request, key string) *string {
	if v := r.FormValue(key); v != "" {
		return &v
	}
	return nil
}

func parseTags(raw string) []string {
	if raw == "" {
		return nil
	}
	parts := strings.Split(raw, ",")
	tags := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

type fieldError string

func errInvalidField(field string) error { return fieldError(field) }

func (e fieldError) Error() string { return "invalid or missing field: " + string(e) }
