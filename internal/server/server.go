package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/roomcraft/roomcraft/internal/cache"
	"github.com/roomcraft/roomcraft/internal/config"
	"github.com/roomcraft/roomcraft/internal/database"
	"github.com/roomcraft/roomcraft/internal/filestorage"
	"github.com/roomcraft/roomcraft/internal/queue"
	"github.com/roomcraft/roomcraft/internal/telemetry"
	"github.com/roomcraft/roomcraft/internal/usecase"
)

// Service is the application surface the HTTP handlers drive.
type Service interface {
	Health() map[string]string

	ListAssets(context.Context, usecase.Catalog, usecase.ListAssetsOption) ([]usecase.Asset, int, error)
	GetAsset(context.Context, usecase.Catalog, string) (usecase.Asset, error)

	OpenScene(context.Context) (*usecase.Scene, error)
	GetScene(context.Context, uuid.UUID) (*usecase.Scene, error)
	CloseScene(context.Context, uuid.UUID) error
	SaveScene(context.Context, *usecase.Scene, usecase.SaveProjectRequest) (usecase.Project, usecase.SaveReport, error)
	SceneManifest(context.Context, uuid.UUID) ([]byte, error)

	ListProjects(context.Context, usecase.ListProjectsOption) ([]usecase.Project, int, error)
	GetProject(context.Context, uuid.UUID) (usecase.Project, error)
	DeleteProject(context.Context, uuid.UUID) error
	OpenProject(ctx context.Context, projectID, sceneID uuid.UUID) (*usecase.Scene, usecase.LoadReport, error)
	DuplicateProject(ctx context.Context, projectID, userID uuid.UUID) (usecase.Project, usecase.LoadReport, error)
	ExportProjectManifest(context.Context, uuid.UUID) (string, error)

	GetJobByID(context.Context, uuid.UUID) (usecase.Job, error)
	GetExportURL(context.Context, uuid.UUID) (string, error)
}

type Server struct {
	server    Service
	validator *validator.Validate
	logger    *slog.Logger
}

func NewServer(svc Service, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		server:    svc,
		validator: validator.New(validator.WithRequiredStructEnabled()),
		logger:    logger,
	}
}

// App owns the HTTP server and everything it was wired with.
type App struct {
	http    *http.Server
	logger  *slog.Logger
	closers []func(context.Context) error
}

func NewApp() (*App, error) {
	cfg := config.Load()
	logger := telemetry.NewLogger(cfg.LogLevel)
	slog.SetDefault(logger)

	app := &App{logger: logger}

	shutdownTracing, err := telemetry.Setup(context.Background(), cfg.ServiceName, cfg.OTLPEndpoint)
	if err != nil {
		return nil, err
	}
	app.closers = append(app.closers, shutdownTracing)

	repo, err := database.New(cfg, logger)
	if err != nil {
		app.close(context.Background())
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}
	app.closers = append(app.closers, func(context.Context) error { return repo.Close() })

	rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		app.close(context.Background())
		return nil, err
	}
	app.closers = append(app.closers, func(context.Context) error { return rdb.Close() })

	cc := cache.NewCatalogCache(rdb, cfg.CatalogCacheTTL, logger)
	resolver := cache.NewResolver(
		repo.Catalog(usecase.CatalogModel),
		repo.Catalog(usecase.CatalogComponent),
		cc,
		config.RESOLVE_CONCURRENCY,
	)

	fsp, err := filestorage.NewMinIOStorage(cfg)
	if err != nil {
		app.close(context.Background())
		return nil, err
	}

	qc := queue.NewClient(cfg.RedisAddr, cfg.RedisPassword, logger)
	app.closers = append(app.closers, func(context.Context) error { return qc.Close() })

	uc := usecase.New(repo, resolver, fsp, qc, logger)
	s := NewServer(uc, logger)

	app.http = &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      s.RegisterRoutes(cfg.ServiceName),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
	return app, nil
}

func (a *App) Addr() string {
	return a.http.Addr
}

func (a *App) ListenAndServe() error {
	if err := a.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown drains HTTP traffic, then releases the queue, cache, database and
// tracer in reverse order of creation.
func (a *App) Shutdown(ctx context.Context) error {
	err := a.http.Shutdown(ctx)
	return errors.Join(err, a.close(ctx))
}

func (a *App) close(ctx context.Context) error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](ctx); err != nil {
			a.logger.Error("shutdown step failed", slog.Any("error", err))
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}
