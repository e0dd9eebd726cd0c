package service

import (
	"context"
	"errors"
	"math/rand"
	"testing"

	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/services"
)

func newTreeEnv(ctx context.Context) (*testEnv, services.TreeService) {
	env := newTestEnv(ctx)
	svc := NewTreeService(env.nodes, env.projects, env.tx, env.store, testLogger())
	return env, svc
}

func TestCreateFolder(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	root, err := svc.CreateFolder(ctx, env.ownerID, &services.CreateFolderRequest{
		ProjectID: env.projectID,
		Name:      "Campaign",
	})
	if err != nil {
		t.Fatalf("CreateFolder() error = %v", err)
	}
	if root.ParentID != nil {
		t.Errorf("root folder has parent %v", *root.ParentID)
	}
	if root.Kind != models.NodeKindFolder {
		t.Errorf("kind = %v, want folder", root.Kind)
	}

	child, err := svc.CreateFolder(ctx, env.ownerID, &services.CreateFolderRequest{
		ProjectID: env.projectID,
		ParentID:  &root.ID,
		Name:      "Drafts",
	})
	if err != nil {
		t.Fatalf("nested CreateFolder() error = %v", err)
	}
	if child.ParentID == nil || *child.ParentID != root.ID {
		t.Errorf("child parent = %v, want %s", child.ParentID, root.ID)
	}
}

func TestCreateFolder_Validation(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	tests := []struct {
		name    string
		req     *services.CreateFolderRequest
		wantErr error
	}{
		{
			name:    "empty name",
			req:     &services.CreateFolderRequest{ProjectID: env.projectID},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "slash in name",
			req:     &services.CreateFolderRequest{ProjectID: env.projectID, Name: "a/b"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "missing project",
			req:     &services.CreateFolderRequest{Name: "Campaign"},
			wantErr: domain.ErrValidation,
		},
		{
			name:    "unknown project",
			req:     &services.CreateFolderRequest{ProjectID: "proj-404", Name: "Campaign"},
			wantErr: domain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.CreateFolder(ctx, env.ownerID, tt.req)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("CreateFolder() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestCreateFolder_ParentMustBeFolder(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)
	file := env.seedFile(ctx, "notes.txt", nil, nil)

	_, err := svc.CreateFolder(ctx, env.ownerID, &services.CreateFolderRequest{
		ProjectID: env.projectID,
		ParentID:  &file.ID,
		Name:      "Under a file",
	})
	if !errors.Is(err, domain.ErrInvalidOperation) {
		t.Errorf("CreateFolder() under file error = %v, want ErrInvalidOperation", err)
	}
}

func TestCreateFolder_ForeignProject(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	_, err := svc.CreateFolder(ctx, "intruder", &services.CreateFolderRequest{
		ProjectID: env.projectID,
		Name:      "Campaign",
	})
	if !errors.Is(err, domain.ErrForbidden) {
		t.Errorf("CreateFolder() by non-owner error = %v, want ErrForbidden", err)
	}
}

func TestMove(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	src := env.seedFolder(ctx, "Source", nil)
	dst := env.seedFolder(ctx, "Destination", nil)
	file := env.seedFile(ctx, "doc.pdf", &src.ID, nil)

	moved, err := svc.Move(ctx, env.ownerID, file.ID, &dst.ID)
	if err != nil {
		t.Fatalf("Move() error = %v", err)
	}
	if moved.ParentID == nil || *moved.ParentID != dst.ID {
		t.Errorf("parent = %v, want %s", moved.ParentID, dst.ID)
	}

	// And back to root.
	moved, err = svc.Move(ctx, env.ownerID, file.ID, nil)
	if err != nil {
		t.Fatalf("Move() to root error = %v", err)
	}
	if moved.ParentID != nil {
		t.Errorf("parent after root move = %v, want nil", *moved.ParentID)
	}
}

func TestMove_IdempotentKeepsUpdatedAt(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	folder := env.seedFolder(ctx, "Docs", nil)
	file := env.seedFile(ctx, "doc.pdf", &folder.ID, nil)
	before, _ := env.nodes.GetByIDOnly(ctx, file.ID)

	moved, err := svc.Move(ctx, env.ownerID, file.ID, &folder.ID)
	if err != nil {
		t.Fatalf("no-op Move() error = %v", err)
	}
	if !moved.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("no-op move must not touch updated_at")
	}

	after, _ := env.nodes.GetByIDOnly(ctx, file.ID)
	if !after.UpdatedAt.Equal(before.UpdatedAt) {
		t.Error("no-op move must not persist a new updated_at")
	}
}

func TestMove_Rejections(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	parent := env.seedFolder(ctx, "Parent", nil)
	child := env.seedFolder(ctx, "Child", &parent.ID)
	grandchild := env.seedFolder(ctx, "Grandchild", &child.ID)
	file := env.seedFile(ctx, "doc.pdf", nil, nil)

	otherProject := &models.Project{OwnerID: env.ownerID, Name: "Other"}
	_ = env.projects.Create(ctx, otherProject)
	foreign := &models.Node{ProjectID: otherProject.ID, Name: "Foreign", Kind: models.NodeKindFolder}
	_ = env.nodes.Create(ctx, foreign)

	tests := []struct {
		name     string
		nodeID   string
		targetID string
	}{
		{"into itself", parent.ID, parent.ID},
		{"into own child", parent.ID, child.ID},
		{"into own grandchild", parent.ID, grandchild.ID},
		{"onto a file", child.ID, file.ID},
		{"across projects", child.ID, foreign.ID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Move(ctx, env.ownerID, tt.nodeID, &tt.targetID)
			if !errors.Is(err, domain.ErrInvalidOperation) {
				t.Errorf("Move() error = %v, want ErrInvalidOperation", err)
			}
		})
	}

	// None of the rejected moves may have changed stored parents.
	stored, _ := env.nodes.GetByIDOnly(ctx, parent.ID)
	if stored.ParentID != nil {
		t.Errorf("rejected moves changed parent of %s", parent.ID)
	}
	stored, _ = env.nodes.GetByIDOnly(ctx, child.ID)
	if stored.ParentID == nil || *stored.ParentID != parent.ID {
		t.Errorf("rejected moves changed parent of %s", child.ID)
	}
}

func TestMove_RandomMovesKeepTreeAcyclic(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	const folderCount = 12
	folders := make([]*models.Node, folderCount)
	for i := range folders {
		folders[i] = env.seedFolder(ctx, "F", nil)
	}

	rng := rand.New(rand.NewSource(1))
	for i := 0; i < 200; i++ {
		node := folders[rng.Intn(folderCount)]
		var target *string
		if rng.Intn(4) > 0 {
			target = &folders[rng.Intn(folderCount)].ID
		}
		// Rejections are expected; the invariant is about what survives.
		_, _ = svc.Move(ctx, env.ownerID, node.ID, target)
	}

	for _, f := range folders {
		current, err := env.nodes.GetByIDOnly(ctx, f.ID)
		if err != nil {
			t.Fatalf("node %s disappeared: %v", f.ID, err)
		}
		for hops := 0; current.ParentID != nil; hops++ {
			if hops > folderCount {
				t.Fatalf("cycle reachable from %s", f.ID)
			}
			current, err = env.nodes.GetByIDOnly(ctx, *current.ParentID)
			if err != nil {
				t.Fatalf("dangling parent above %s: %v", f.ID, err)
			}
		}
	}
}

func TestRename(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)
	folder := env.seedFolder(ctx, "Old Name", nil)

	renamed, err := svc.Rename(ctx, env.ownerID, folder.ID, &services.RenameRequest{Name: "New Name"})
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if renamed.Name != "New Name" {
		t.Errorf("name = %q, want %q", renamed.Name, "New Name")
	}

	if _, err := svc.Rename(ctx, env.ownerID, folder.ID, &services.RenameRequest{Name: "a/b"}); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("Rename() with slash error = %v, want ErrValidation", err)
	}
}

func TestDelete_CascadesAndCleansStorage(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	root := env.seedFolder(ctx, "Root", nil)
	sub := env.seedFolder(ctx, "Sub", &root.ID)
	kept := env.seedFolder(ctx, "Kept", nil)
	f1 := env.seedFile(ctx, "a.pdf", &root.ID, strPtr("u/p/1_a.pdf"))
	f2 := env.seedFile(ctx, "b.png", &sub.ID, strPtr("u/p/2_b.png"))
	env.store.objects["u/p/1_a.pdf"] = []byte("a")
	env.store.objects["u/p/2_b.png"] = []byte("b")

	if err := svc.Delete(ctx, env.ownerID, root.ID); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}

	for _, id := range []string{root.ID, sub.ID, f1.ID, f2.ID} {
		if _, err := env.nodes.GetByIDOnly(ctx, id); !errors.Is(err, domain.ErrNotFound) {
			t.Errorf("node %s survived cascade delete", id)
		}
	}
	if _, err := env.nodes.GetByIDOnly(ctx, kept.ID); err != nil {
		t.Errorf("sibling folder was deleted: %v", err)
	}
	if len(env.store.objects) != 0 {
		t.Errorf("object content survived delete: %v", env.store.deleted)
	}

	// No dangling parent references anywhere.
	remaining, _ := env.nodes.ListByProject(ctx, env.projectID)
	for _, n := range remaining {
		if n.ParentID == nil {
			continue
		}
		if _, err := env.nodes.GetByIDOnly(ctx, *n.ParentID); err != nil {
			t.Errorf("node %s points at deleted parent %s", n.ID, *n.ParentID)
		}
	}
}

func TestDelete_StorageFailureDoesNotBlockMetadata(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	file := env.seedFile(ctx, "a.pdf", nil, strPtr("u/p/1_a.pdf"))
	env.store.deleteErr = errors.New("bucket down")

	if err := svc.Delete(ctx, env.ownerID, file.ID); err != nil {
		t.Fatalf("Delete() error = %v, object deletion must be best-effort", err)
	}
	if _, err := env.nodes.GetByIDOnly(ctx, file.ID); !errors.Is(err, domain.ErrNotFound) {
		t.Error("metadata survived although storage cleanup failed")
	}
}

func TestListProject_FillsDisplayPaths(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	root := env.seedFolder(ctx, "Root", nil)
	sub := env.seedFolder(ctx, "Sub", &root.ID)
	env.seedFile(ctx, "doc.pdf", &sub.ID, nil)

	nodes, err := svc.ListProject(ctx, env.ownerID, env.projectID)
	if err != nil {
		t.Fatalf("ListProject() error = %v", err)
	}

	paths := make(map[string]string, len(nodes))
	for _, n := range nodes {
		paths[n.Name] = n.Path
	}
	if paths["Root"] != "Root" {
		t.Errorf("path(Root) = %q", paths["Root"])
	}
	if paths["Sub"] != "Root/Sub" {
		t.Errorf("path(Sub) = %q", paths["Sub"])
	}
	if paths["doc.pdf"] != "Root/Sub/doc.pdf" {
		t.Errorf("path(doc.pdf) = %q", paths["doc.pdf"])
	}
}

func TestListChildren(t *testing.T) {
	ctx := context.Background()
	env, svc := newTreeEnv(ctx)

	root := env.seedFolder(ctx, "Root", nil)
	env.seedFolder(ctx, "Sub", &root.ID)
	env.seedFile(ctx, "doc.pdf", &root.ID, nil)
	env.seedFile(ctx, "top.txt", nil, nil)

	contents, err := svc.ListChildren(ctx, env.ownerID, env.projectID, &root.ID)
	if err != nil {
		t.Fatalf("ListChildren() error = %v", err)
	}
	if contents.Folder == nil || contents.Folder.ID != root.ID {
		t.Errorf("folder = %v, want %s", contents.Folder, root.ID)
	}
	if len(contents.Children) != 2 {
		t.Errorf("children = %d, want 2", len(contents.Children))
	}

	rootContents, err := svc.ListChildren(ctx, env.ownerID, env.projectID, nil)
	if err != nil {
		t.Fatalf("ListChildren(root) error = %v", err)
	}
	if rootContents.Folder != nil {
		t.Error("root listing must not carry a folder")
	}
	if len(rootContents.Children) != 2 {
		t.Errorf("root children = %d, want 2", len(rootContents.Children))
	}

	file, _ := env.nodes.ListChildren(ctx, &root.ID, env.projectID)
	for _, n := range file {
		if n.Kind == models.NodeKindFile {
			if _, err := svc.ListChildren(ctx, env.ownerID, env.projectID, &n.ID); !errors.Is(err, domain.ErrInvalidOperation) {
				t.Errorf("ListChildren() of a file error = %v, want ErrInvalidOperation", err)
			}
		}
	}
}
