package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"eswed/internal/domain"
	"eswed/internal/domain/models"
	"eswed/internal/domain/repositories"
)

// In-memory fakes backing the service tests. They mirror the repository
// contracts closely enough that the services cannot tell the difference:
// project scoping, not-found sentinels, name-ordered listings.

type fakeNodeRepo struct {
	mu     sync.Mutex
	nodes  map[string]*models.Node
	nextID int

	createErr error
	updateErr error
}

func newFakeNodeRepo() *fakeNodeRepo {
	return &fakeNodeRepo{nodes: make(map[string]*models.Node)}
}

func (r *fakeNodeRepo) Create(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return r.createErr
	}
	r.nextID++
	node.ID = fmt.Sprintf("node-%d", r.nextID)
	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) GetByID(ctx context.Context, id, projectID string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok || n.ProjectID != projectID {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNodeRepo) GetByIDOnly(ctx context.Context, id string) (*models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	n, ok := r.nodes[id]
	if !ok {
		return nil, fmt.Errorf("node %s: %w", id, domain.ErrNotFound)
	}
	cp := *n
	return &cp, nil
}

func (r *fakeNodeRepo) ListByProject(ctx context.Context, projectID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Node
	for _, n := range r.nodes {
		if n.ProjectID == projectID {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeNodeRepo) ListChildren(ctx context.Context, parentID *string, projectID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Node
	for _, n := range r.nodes {
		if n.ProjectID != projectID {
			continue
		}
		if (n.ParentID == nil) != (parentID == nil) {
			continue
		}
		if parentID != nil && *n.ParentID != *parentID {
			continue
		}
		out = append(out, *n)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeNodeRepo) ListSystemFolders(ctx context.Context, projectID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Node
	for _, n := range r.nodes {
		if n.ProjectID == projectID && n.IsSystemFolder {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeNodeRepo) ListMissingObjectPath(ctx context.Context, projectID string) ([]models.Node, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Node
	for _, n := range r.nodes {
		if n.ProjectID == projectID && n.Kind == models.NodeKindFile && n.ObjectPath == nil {
			out = append(out, *n)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeNodeRepo) Update(ctx context.Context, node *models.Node) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.updateErr != nil {
		return r.updateErr
	}
	if _, ok := r.nodes[node.ID]; !ok {
		return fmt.Errorf("node %s: %w", node.ID, domain.ErrNotFound)
	}
	cp := *node
	r.nodes[node.ID] = &cp
	return nil
}

func (r *fakeNodeRepo) Delete(ctx context.Context, ids []string, projectID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, id := range ids {
		if n, ok := r.nodes[id]; ok && n.ProjectID == projectID {
			delete(r.nodes, id)
		}
	}
	return nil
}

func (r *fakeNodeRepo) CountByProject(ctx context.Context, projectID string) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	count := 0
	for _, n := range r.nodes {
		if n.ProjectID == projectID {
			count++
		}
	}
	return count, nil
}

type fakeProjectRepo struct {
	mu       sync.Mutex
	projects map[string]*models.Project
	nextID   int
}

func newFakeProjectRepo() *fakeProjectRepo {
	return &fakeProjectRepo{projects: make(map[string]*models.Project)}
}

func (r *fakeProjectRepo) Create(ctx context.Context, project *models.Project) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	project.ID = fmt.Sprintf("proj-%d", r.nextID)
	cp := *project
	r.projects[project.ID] = &cp
	return nil
}

func (r *fakeProjectRepo) GetByID(ctx context.Context, id string) (*models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return nil, fmt.Errorf("project %s: %w", id, domain.ErrNotFound)
	}
	cp := *p
	return &cp, nil
}

func (r *fakeProjectRepo) ListByOwner(ctx context.Context, ownerID string) ([]models.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []models.Project
	for _, p := range r.projects {
		if p.OwnerID == ownerID {
			out = append(out, *p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeProjectRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

type fakeObjectStore struct {
	mu      sync.Mutex
	objects map[string][]byte
	deleted []string

	putErr    error
	deleteErr error
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: make(map[string][]byte)}
}

func (s *fakeObjectStore) Put(ctx context.Context, key string, data []byte, contentType string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.putErr != nil {
		return s.putErr
	}
	cp := make([]byte, len(data))
	copy(cp, data)
	s.objects[key] = cp
	return nil
}

func (s *fakeObjectStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s: %w", key, domain.ErrNotFound)
	}
	return data, nil
}

func (s *fakeObjectStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.deleteErr != nil {
		return s.deleteErr
	}
	delete(s.objects, key)
	s.deleted = append(s.deleted, key)
	return nil
}

func (s *fakeObjectStore) PresignUpload(ctx context.Context, key, contentType string, ttl time.Duration) (string, error) {
	return "https://bucket.test/upload/" + key, nil
}

func (s *fakeObjectStore) PresignDownload(ctx context.Context, key string, ttl time.Duration) (string, error) {
	return "https://bucket.test/download/" + key, nil
}

func (s *fakeObjectStore) HeadBucket(ctx context.Context) error {
	return nil
}

type fakeTxManager struct{}

func (m *fakeTxManager) ExecTx(ctx context.Context, fn repositories.TxFn) error {
	return fn(ctx)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// testEnv bundles the fakes a service test needs plus a seeded owner and
// project.
type testEnv struct {
	nodes    *fakeNodeRepo
	projects *fakeProjectRepo
	store    *fakeObjectStore
	tx       *fakeTxManager

	ownerID   string
	projectID string
}

func newTestEnv(ctx context.Context) *testEnv {
	env := &testEnv{
		nodes:    newFakeNodeRepo(),
		projects: newFakeProjectRepo(),
		store:    newFakeObjectStore(),
		tx:       &fakeTxManager{},
		ownerID:  "user-1",
	}
	project := &models.Project{OwnerID: env.ownerID, Name: "Brand Refresh"}
	_ = env.projects.Create(ctx, project)
	env.projectID = project.ID
	return env
}

func (e *testEnv) seedFolder(ctx context.Context, name string, parentID *string) *models.Node {
	n := &models.Node{
		ProjectID: e.projectID,
		ParentID:  parentID,
		Name:      name,
		Kind:      models.NodeKindFolder,
	}
	_ = e.nodes.Create(ctx, n)
	return n
}

func (e *testEnv) seedSystemFolder(ctx context.Context, name string) *models.Node {
	n := &models.Node{
		ProjectID:      e.projectID,
		Name:           name,
		Kind:           models.NodeKindFolder,
		IsSystemFolder: true,
	}
	_ = e.nodes.Create(ctx, n)
	return n
}

func (e *testEnv) seedFile(ctx context.Context, name string, parentID *string, objectPath *string) *models.Node {
	n := &models.Node{
		ProjectID:  e.projectID,
		ParentID:   parentID,
		Name:       name,
		Kind:       models.NodeKindFile,
		ObjectPath: objectPath,
	}
	_ = e.nodes.Create(ctx, n)
	return n
}

func strPtr(s string) *string { return &s }
