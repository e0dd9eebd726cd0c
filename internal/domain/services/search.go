package services

import (
	"context"

	"eswed/internal/domain/models"
)

// SearchFilters narrow a project search. Optional filters are typed pointers
// rather than sentinel strings so an unset filter cannot be mistaken for a
// value.
type SearchFilters struct {
	Query                string
	Kind                 *models.NodeKind
	MimeGroup            *string // e.g. "image", "application"
	IncludeSystemFolders bool
}

// SearchService filters a project's nodes. Matches keep their structural
// context: every ancestor folder of a match is included in the result.
type SearchService interface {
	Search(ctx context.Context, userID, projectID string, filters *SearchFilters) ([]models.Node, error)
}
