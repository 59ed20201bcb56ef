package usecase

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/roomcraft/roomcraft/internal/config"
)

type fakeFinder struct {
	mu     sync.Mutex
	assets map[string]Asset
	err    error
	calls  int
}

func newFakeFinder(assets ...Asset) *fakeFinder {
	f := &fakeFinder{assets: make(map[string]Asset)}
	for _, a := range assets {
		f.assets[a.ID] = a
	}
	return f
}

func (f *fakeFinder) FindAssetByID(_ context.Context, id string) (Asset, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return Asset{}, false, f.err
	}
	a, ok := f.assets[id]
	return a, ok, nil
}

func (f *fakeFinder) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
}

type fakeRepo struct {
	mu       sync.Mutex
	projects map[uuid.UUID]Project
	jobs     map[uuid.UUID]Job
	assets   map[Catalog][]Asset

	replaceErr error
	createErr  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		projects: make(map[uuid.UUID]Project),
		jobs:     make(map[uuid.UUID]Job),
		assets:   make(map[Catalog][]Asset),
	}
}

func (r *fakeRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (r *fakeRepo) Close() error              { return nil }

func (r *fakeRepo) ListAssets(_ context.Context, c Catalog, opt ListAssetsOption) ([]Asset, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	all := r.assets[c]
	return all, len(all), nil
}

func (r *fakeRepo) ListProjects(_ context.Context, opt ListProjectsOption) ([]Project, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []Project
	for _, p := range r.projects {
		if p.OwnerID == opt.OwnerID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].LastModifiedAt.After(out[j].LastModifiedAt) })
	return out, len(out), nil
}

func (r *fakeRepo) GetProjectByID(_ context.Context, id uuid.UUID) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return Project{}, projectNotFound(id)
	}
	return p, nil
}

func (r *fakeRepo) CreateProject(_ context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.createErr != nil {
		return Project{}, r.createErr
	}
	now := time.Now()
	p.ID = uuid.New()
	p.CreatedAt = now
	p.LastModifiedAt = now
	r.projects[p.ID] = p
	return p, nil
}

func (r *fakeRepo) ReplaceProject(_ context.Context, p Project) (Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.replaceErr != nil {
		return Project{}, r.replaceErr
	}
	cur, ok := r.projects[p.ID]
	if !ok {
		return Project{}, projectNotFound(p.ID)
	}
	p.Version = cur.Version + 1
	p.CreatedAt = cur.CreatedAt
	p.LastModifiedAt = time.Now()
	r.projects[p.ID] = p
	return p, nil
}

func (r *fakeRepo) DeleteProject(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.projects[id]; !ok {
		return projectNotFound(id)
	}
	delete(r.projects, id)
	return nil
}

func (r *fakeRepo) GetJobByID(_ context.Context, id uuid.UUID) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return Job{}, ErrNotFound{ID: id, Code: "job_not_found", Message: "job not found"}
	}
	return j, nil
}

func (r *fakeRepo) CreateJob(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	r.jobs[j.ID] = j
	return j, nil
}

func (r *fakeRepo) UpdateJob(_ context.Context, j Job) (Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.UpdatedAt = time.Now()
	r.jobs[j.ID] = j
	return j, nil
}

type fakeStorage struct {
	mu    sync.Mutex
	files map[string][]byte
	err   error
}

func (s *fakeStorage) UploadFile(_ context.Context, path string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[path] = data
	return nil
}

func (s *fakeStorage) GetPresignedURL(_ context.Context, path string) (string, error) {
	return "https://files.test/" + path, nil
}

type enqueued struct {
	JobID   uuid.UUID
	Type    string
	Payload []byte
}

type fakeQueue struct {
	mu   sync.Mutex
	sent []enqueued
	err  error
}

func (q *fakeQueue) EnqueueJob(_ context.Context, jobID uuid.UUID, jobType string, payload []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	if q.err != nil {
		return q.err
	}
	q.sent = append(q.sent, enqueued{JobID: jobID, Type: jobType, Payload: payload})
	return nil
}

var errBoom = errors.New("boom")

type fixture struct {
	uc         Usecase
	repo       *fakeRepo
	models     *fakeFinder
	components *fakeFinder
	storage    *fakeStorage
	queue      *fakeQueue
	userID     uuid.UUID
	ctx        context.Context
}

var (
	sofa = Asset{ID: "11111111-1111-1111-1111-111111111111", Name: "Sofa", Category: "seating", FileURL: "/models/sofa.glb"}
	lamp = Asset{ID: "22222222-2222-2222-2222-222222222222", Name: "Lamp", Category: "lighting", FileURL: "/models/lamp.glb"}
	door = Asset{ID: "33333333-3333-3333-3333-333333333333", Name: "Door", Category: "doors", FileURL: "/components/door.glb"}
)

func newFixture() *fixture {
	f := &fixture{
		repo:       newFakeRepo(),
		models:     newFakeFinder(sofa, lamp),
		components: newFakeFinder(door),
		storage:    &fakeStorage{},
		queue:      &fakeQueue{},
		userID:     uuid.New(),
	}
	resolver := NewResolver(f.models, f.components, 4)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	f.uc = New(f.repo, resolver, f.storage, f.queue, logger)
	f.ctx = context.WithValue(context.Background(), config.CTX_KEY_USER_ID, f.userID)
	return f
}

func (f *fixture) asUser(id uuid.UUID) context.Context {
	return context.WithValue(context.Background(), config.CTX_KEY_USER_ID, id)
}

func ptr[T any](v T) *T { return &v }
