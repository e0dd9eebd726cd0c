package service

import (
	"context"
	"fmt"

	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
)

// authorizeProject resolves a project and verifies the caller owns it. Every
// public service entry point runs this before touching the tree; ownership
// failures fail closed as ErrForbidden.
func authorizeProject(ctx context.Context, repo repositories.ProjectRepository, userID, projectID string) (*models.Project, error) {
	project, err := repo.GetByID(ctx, projectID)
	if err != nil {
		return nil, err
	}
	if project.OwnerID != userID {
		return nil, fmt.Errorf("access denied to project %s: %w", projectID, domain.ErrForbidden)
	}
	return project, nil
}

// equalParent compares two optional parent references.
func equalParent(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// normalizeParent maps an empty id to nil (root level).
func normalizeParent(parentID *string) *string {
	if parentID != nil && *parentID == "" {
		return nil
	}
	return parentID
}
