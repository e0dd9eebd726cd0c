package service

import (
	"context"
	"log/slog"
	"sort"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
	"eswed/internal/domain/services"
)

type searchService struct {
	nodeRepo    repositories.NodeRepository
	projectRepo repositories.ProjectRepository
	logger      *slog.Logger
}

// NewSearchService creates the search and filter engine.
func NewSearchService(
	nodeRepo repositories.NodeRepository,
	projectRepo repositories.ProjectRepository,
	logger *slog.Logger,
) services.SearchService {
	return &searchService{
		nodeRepo:    nodeRepo,
		projectRepo: projectRepo,
		logger:      logger,
	}
}

// Search filters a project's nodes. A query matches on name, description,
// tags, kind label and MIME type, plus an extension-style ".query" suffix
// match. Every ancestor folder of a match is kept in the result so the
// client can render the match in place. A query that matches nothing
// returns an empty list; only the no-query case lists everything.
func (s *searchService) Search(ctx context.Context, userID, projectID string, filters *services.SearchFilters) ([]models.Node, error) {
	if _, err := authorizeProject(ctx, s.projectRepo, userID, projectID); err != nil {
		return nil, err
	}

	nodes, err := s.nodeRepo.ListByProject(ctx, projectID)
	if err != nil {
		return nil, err
	}

	if filters == nil {
		filters = &services.SearchFilters{IncludeSystemFolders: true}
	}

	query := strings.ToLower(strings.TrimSpace(filters.Query))

	var result []models.Node
	if query == "" {
		result = nodes
	} else {
		result = matchWithAncestors(nodes, query)
		if len(result) == 0 {
			return []models.Node{}, nil
		}
	}

	// Filters always apply, even to the no-query listing: an excluded
	// system folder stays excluded no matter how empty the answer gets.
	result = applyFilters(result, filters)

	sortNodes(result)
	return result, nil
}

// matchWithAncestors computes direct matches for the query and unions in
// every ancestor folder of each match, deduplicated by id. Ancestors are
// always folders, so later kind filtering can never strip a match's context
// by accident. The walk carries a visited set instead of a hop cap; the
// tree store keeps parent chains acyclic.
func matchWithAncestors(nodes []models.Node, query string) []models.Node {
	byID := make(map[string]*models.Node, len(nodes))
	for i := range nodes {
		byID[nodes[i].ID] = &nodes[i]
	}

	included := make(map[string]bool)
	var result []models.Node

	add := func(n *models.Node) {
		if !included[n.ID] {
			included[n.ID] = true
			result = append(result, *n)
		}
	}

	for i := range nodes {
		if !matchesQuery(&nodes[i], query) {
			continue
		}

		var chain []*models.Node
		visited := map[string]bool{nodes[i].ID: true}
		for cur := &nodes[i]; cur.ParentID != nil; {
			parent, ok := byID[*cur.ParentID]
			if !ok || visited[parent.ID] {
				break
			}
			visited[parent.ID] = true
			chain = append(chain, parent)
			cur = parent
		}

		// Root-most ancestor first so folders precede their contents even
		// before the final sort.
		for j := len(chain) - 1; j >= 0; j-- {
			add(chain[j])
		}
		add(&nodes[i])
	}

	return result
}

// matchesQuery reports whether a node directly matches the lowered query.
func matchesQuery(n *models.Node, query string) bool {
	name := strings.ToLower(n.Name)
	if strings.Contains(name, query) || strings.HasSuffix(name, "."+query) {
		return true
	}
	if strings.Contains(strings.ToLower(n.Description), query) {
		return true
	}
	for _, tag := range n.Tags {
		if strings.Contains(strings.ToLower(tag), query) {
			return true
		}
	}
	if strings.Contains(n.Kind.Label(), query) {
		return true
	}
	return n.MimeType != "" && strings.Contains(strings.ToLower(n.MimeType), query)
}

// applyFilters applies kind, MIME-group and system-folder filters after the
// ancestor union.
func applyFilters(nodes []models.Node, filters *services.SearchFilters) []models.Node {
	out := nodes[:0:0]
	for _, n := range nodes {
		if filters.Kind != nil && n.Kind != *filters.Kind {
			continue
		}
		// MIME grouping only means something for files.
		if filters.MimeGroup != nil && n.Kind == models.NodeKindFile && !matchesMimeGroup(n.MimeType, *filters.MimeGroup) {
			continue
		}
		if !filters.IncludeSystemFolders && n.IsSystemFolder {
			continue
		}
		out = append(out, n)
	}
	return out
}

// matchesMimeGroup matches "image" against "image/png" and the full type
// against itself.
func matchesMimeGroup(mimeType, group string) bool {
	mime := strings.ToLower(mimeType)
	group = strings.ToLower(group)
	return mime == group || strings.HasPrefix(mime, group+"/")
}

// sortNodes orders folders before files, then by name ascending with
// locale-aware, case-insensitive collation.
func sortNodes(nodes []models.Node) {
	// Collators are not safe for concurrent use, so each sort gets its own.
	c := collate.New(language.English, collate.IgnoreCase)
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].Kind != nodes[j].Kind {
			return nodes[i].Kind == models.NodeKindFolder
		}
		return c.CompareString(nodes[i].Name, nodes[j].Name) < 0
	})
}
