package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/roomcraft/roomcraft/internal/config"
	"github.com/roomcraft/roomcraft/internal/usecase"
)

type memFinder struct {
	mu     sync.Mutex
	assets map[string]usecase.Asset
}

func newMemFinder(assets ...usecase.Asset) *memFinder {
	f := &memFinder{assets: make(map[string]usecase.Asset)}
	for _, a := range assets {
		f.assets[a.ID] = a
	}
	return f
}

func (f *memFinder) FindAssetByID(_ context.Context, id string) (usecase.Asset, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.assets[id]
	return a, ok, nil
}

func (f *memFinder) list() []usecase.Asset {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]usecase.Asset, 0, len(f.assets))
	for _, a := range f.assets {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (f *memFinder) remove(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.assets, id)
}

type memRepo struct {
	mu         sync.Mutex
	models     *memFinder
	components *memFinder
	projects   map[uuid.UUID]usecase.Project
	jobs       map[uuid.UUID]usecase.Job
}

func (r *memRepo) Health() map[string]string { return map[string]string{"status": "up"} }
func (r *memRepo) Close() error              { return nil }

func (r *memRepo) ListAssets(_ context.Context, c usecase.Catalog, _ usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	f := r.models
	if c == usecase.CatalogComponent {
		f = r.components
	}
	list := f.list()
	return list, len(list), nil
}

func (r *memRepo) ListProjects(_ context.Context, opt usecase.ListProjectsOption) ([]usecase.Project, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []usecase.Project
	for _, p := range r.projects {
		if p.OwnerID == opt.OwnerID {
			out = append(out, p)
		}
	}
	return out, len(out), nil
}

func (r *memRepo) GetProjectByID(_ context.Context, id uuid.UUID) (usecase.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.projects[id]
	if !ok {
		return usecase.Project{}, usecase.ErrNotFound{ID: id, Code: "project_not_found", Message: "project not found"}
	}
	return p, nil
}

func (r *memRepo) CreateProject(_ context.Context, p usecase.Project) (usecase.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p.ID = uuid.New()
	p.CreatedAt = time.Now()
	p.LastModifiedAt = p.CreatedAt
	r.projects[p.ID] = p
	return p, nil
}

func (r *memRepo) ReplaceProject(_ context.Context, p usecase.Project) (usecase.Project, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cur, ok := r.projects[p.ID]
	if !ok {
		return usecase.Project{}, usecase.ErrNotFound{ID: p.ID, Code: "project_not_found", Message: "project not found"}
	}
	p.Version = cur.Version + 1
	p.LastModifiedAt = time.Now()
	r.projects[p.ID] = p
	return p, nil
}

func (r *memRepo) DeleteProject(_ context.Context, id uuid.UUID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.projects, id)
	return nil
}

func (r *memRepo) GetJobByID(_ context.Context, id uuid.UUID) (usecase.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j, ok := r.jobs[id]
	if !ok {
		return usecase.Job{}, usecase.ErrNotFound{ID: id, Code: "job_not_found", Message: "job not found"}
	}
	return j, nil
}

func (r *memRepo) CreateJob(_ context.Context, j usecase.Job) (usecase.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.ID = uuid.New()
	j.CreatedAt = time.Now()
	j.UpdatedAt = j.CreatedAt
	r.jobs[j.ID] = j
	return j, nil
}

func (r *memRepo) UpdateJob(_ context.Context, j usecase.Job) (usecase.Job, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	j.UpdatedAt = time.Now()
	r.jobs[j.ID] = j
	return j, nil
}

type memQueue struct {
	mu   sync.Mutex
	jobs []uuid.UUID
}

func (q *memQueue) EnqueueJob(_ context.Context, jobID uuid.UUID, _ string, _ []byte) error {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.jobs = append(q.jobs, jobID)
	return nil
}

var (
	sofa = usecase.Asset{ID: "11111111-1111-1111-1111-111111111111", Name: "Sofa", Category: "seating", FileURL: "/models/sofa.glb"}
	door = usecase.Asset{ID: "33333333-3333-3333-3333-333333333333", Name: "Door", Category: "doors", FileURL: "/components/door.glb"}
)

type testApp struct {
	handler    http.Handler
	repo       *memRepo
	models     *memFinder
	components *memFinder
	queue      *memQueue
	userID     uuid.UUID
}

func newTestApp(t *testing.T) *testApp {
	t.Helper()
	models := newMemFinder(sofa)
	components := newMemFinder(door)
	repo := &memRepo{
		models:     models,
		components: components,
		projects:   make(map[uuid.UUID]usecase.Project),
		jobs:       make(map[uuid.UUID]usecase.Job),
	}
	q := &memQueue{}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	uc := usecase.New(repo, usecase.NewResolver(models, components, 2), nil, q, logger)

	return &testApp{
		handler:    NewServer(uc, logger).RegisterRoutes("test"),
		repo:       repo,
		models:     models,
		components: components,
		queue:      q,
		userID:     uuid.New(),
	}
}

// do sends a request as the app's user unless another user id is given.
// uuid.Nil sends no identity at all.
func (a *testApp) do(t *testing.T, method, path, body string, as ...uuid.UUID) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != "" {
		r = bytes.NewBufferString(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	user := a.userID
	if len(as) > 0 {
		user = as[0]
	}
	if user != uuid.Nil {
		req.Header.Set(config.HEADER_KEY_X_USER_ID, user.String())
	}
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

type resOf[T any] struct {
	Data    T      `json:"data"`
	Error   string `json:"error"`
	Message string `json:"message"`
	Meta    *Meta  `json:"meta"`
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) resOf[T] {
	t.Helper()
	var res resOf[T]
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &res), rec.Body.String())
	return res
}

func (a *testApp) openScene(t *testing.T) Scene {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/scenes", "")
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[Scene](t, rec).Data
}

func (a *testApp) addInstance(t *testing.T, sceneID, assetID string) Instance {
	t.Helper()
	rec := a.do(t, http.MethodPost, "/api/v1/scenes/"+sceneID+"/instances", `{"asset_id":"`+assetID+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode[Instance](t, rec).Data
}
