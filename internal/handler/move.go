package handler

import (
	"log/slog"
	"net/http"

	"eswed/internal/domain/services"
	"eswed/internal/httputil"
)

// MoveHandler exposes the drag-and-drop coordinator
type MoveHandler struct {
	coordinator services.MoveCoordinator
	logger      *slog.Logger
}

// NewMoveHandler creates a new move handler
func NewMoveHandler(coordinator services.MoveCoordinator, logger *slog.Logger) *MoveHandler {
	return &MoveHandler{
		coordinator: coordinator,
		logger:      logger,
	}
}

// Drop applies a drag-and-drop intent. On failure the client is expected to
// revert its optimistic UI state using the returned error detail.
// POST /api/nodes/drop
func (h *MoveHandler) Drop(w http.ResponseWriter, r *http.Request) {
	userID := httputil.GetUserID(r)

	var req services.DragRequest
	if err := httputil.ParseJSON(w, r, &req); err != nil {
		httputil.RespondError(w, http.StatusBadRequest, "Invalid request body")
		return
	}

	node, err := h.coordinator.Drop(r.Context(), userID, &req)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, node)
}
