package handler

import (
	"log/slog"
	"net/http"

	"eswed/internal/domain/models"
	"eswed/internal/domain/services"
	"eswed/internal/httputil"
)

// SearchHandler handles project search requests
type SearchHandler struct {
	searchService services.SearchService
	logger        *slog.Logger
}

// NewSearchHandler creates a new search handler
func NewSearchHandler(searchService services.SearchService, logger *slog.Logger) *SearchHandler {
	return &SearchHandler{
		searchService: searchService,
		logger:        logger,
	}
}

// Search filters a project's nodes. Matches are returned together with every
// ancestor folder so the client can render them in place.
// GET /api/projects/{id}/search?q={query}&kind={file|folder}&mime_group={group}&include_system={bool}
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	projectID := r.PathValue("id")
	if projectID == "" {
		httputil.RespondError(w, http.StatusBadRequest, "Project ID is required")
		return
	}

	userID := httputil.GetUserID(r)

	filters, err := filtersFromQuery(r)
	if err != nil {
		httputil.RespondError(w, http.StatusBadRequest, err.Error())
		return
	}

	nodes, err := h.searchService.Search(r.Context(), userID, projectID, filters)
	if err != nil {
		handleError(w, err)
		return
	}

	httputil.RespondJSON(w, http.StatusOK, nodes)
}

func filtersFromQuery(r *http.Request) (*services.SearchFilters, error) {
	q := r.URL.Query()

	// System folders stay in unless the client opts out; they are the
	// ancestors of everything auto-sort places.
	filters := &services.SearchFilters{
		Query:                q.Get("q"),
		IncludeSystemFolders: q.Get("include_system") != "false",
	}

	if v := q.Get("kind"); v != "" {
		kind := models.NodeKind(v)
		if kind != models.NodeKindFile && kind != models.NodeKindFolder {
			return nil, errInvalidField("kind")
		}
		filters.Kind = &kind
	}

	if v := q.Get("mime_group"); v != "" {
		filters.MimeGroup = &v
	}

	return filters, nil
}
