package handler

import (
	"log/slog"
	"net/http"

	"eswed/internal/domain/services"
	"eswed/internal/httputil"
)

// TreeHandler handles HTTP requests for node tree operations
type TreeHandler struct {
	treeService services.TreeService
	logger      *slog.Logger
}

// NewTreeHandler creates a new tree handler
func NewTreeHandler(treeService services.TreeService, logger *slog.Logger) *TreeHandler {
	return &TreeHandler{
		treeService: treeService,
		logger:      logger,
	}
}

// CreateFolder creates a folder in a project
// POST /api/projects/{id}/folders
func (h *TreeHandler) CreateFolder(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	var req services.CreateFolderRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	req.ProjectID = projectID

	folder, err := h.treeService.CreateFolder(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusCreated, folder)
}

// ListProject returns every node in a project with display paths filled in
// GET /api/projects/{id}/nodes
func (h *TreeHandler) ListProject(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	nodes, err := h.treeService.ListProject(r.Context(), userID, projectID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

// ListChildren returns a folder's immediate children. Without a folder_id
// query parameter it lists the project root.
// GET /api/projects/{id}/children?folder_id={folderID}
func (h *TreeHandler) ListChildren(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	var folderID *string
	if v := r.URL.Query().Get("folder_id"); v != "" {
		folderID = &v
	}

	contents, err := h.treeService.ListChildren(r.Context(), userID, projectID, folderID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, contents)
}

// GetNode retrieves a single node by ID
// GET /api/nodes/{id}
func (h *TreeHandler) GetNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	if nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	node, err := h.treeService.GetNode(r.Context(), userID, nodeID)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// moveNodeRequest uses OptionalString so clients can distinguish "move to
// root" (parent_id: null) from "field not sent".
type moveNodeRequest struct {
	ParentID httputil.OptionalString `json:"parent_id"`
}

// MoveNode reparents a node
// PATCH /api/nodes/{id}/parent
func (h *TreeHandler) MoveNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	if nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	var req moveNodeRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}
	if !req.ParentID.Present {
		httputil.RespondError(w, http.StatusBadRequest, "parent_id is required (use null for root)")
		return
	}

	node, err := h.treeService.Move(r.Context(), userID, nodeID, req.ParentID.Value)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// RenameNode renames a node
// PATCH /api/nodes/{id}/name
func (h *TreeHandler) RenameNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	if nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	var req services.RenameRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.treeService.Rename(r.Context(), userID, nodeID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}

// DeleteNode deletes a node and all of its descendants
// DELETE /api/nodes/{id}
func (h *TreeHandler) DeleteNode(w http.ResponseWriter, r *http.Request) {
	nodeID := r.PathValue("id")
	if nodeID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Node ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	if err := h.treeService.Delete(r.Context(), userID, nodeID); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
