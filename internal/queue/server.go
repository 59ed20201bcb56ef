package queue

import (
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	"github.com/roomcraft/roomcraft/internal/cache"
	"github.com/roomcraft/roomcraft/internal/config"
	"github.com/roomcraft/roomcraft/internal/database"
	"github.com/roomcraft/roomcraft/internal/filestorage"
	"github.com/roomcraft/roomcraft/internal/queue/handlers"
	"github.com/roomcraft/roomcraft/internal/usecase"
)

// Worker processes queued jobs with its own repository and storage.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
	uc     usecase.Usecase
	redis  *redis.Client
	logger *slog.Logger
}

func NewWorker(cfg config.Config, logger *slog.Logger) (*Worker, error) {
	logger.Info("initializing worker dependencies")

	repo, err := database.New(cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create repository: %w", err)
	}

	rdb, err := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword)
	if err != nil {
		repo.Close()
		return nil, err
	}
	cc := cache.NewCatalogCache(rdb, cfg.CatalogCacheTTL, logger)
	resolver := cache.NewResolver(
		repo.Catalog(usecase.CatalogModel),
		repo.Catalog(usecase.CatalogComponent),
		cc,
		config.RESOLVE_CONCURRENCY,
	)

	fsp, err := filestorage.NewMinIOStorage(cfg)
	if err != nil {
		repo.Close()
		rdb.Close()
		return nil, err
	}

	// workers never enqueue
	uc := usecase.New(repo, resolver, fsp, nil, logger)

	server := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		},
		asynq.Config{
			Concurrency: cfg.WorkerConcurrency,
			Queues: map[string]int{
				"critical": 6,
				"default":  3,
				"low":      1,
			},
			Logger: newAsynqLogger(logger),
		},
	)

	mux := asynq.NewServeMux()
	h := handlers.NewHandlers(uc, logger)
	mux.HandleFunc(usecase.JobTypeExportManifest, h.HandleExportManifest)

	logger.Info("worker registered handlers", slog.Any("types", []string{usecase.JobTypeExportManifest}))

	return &Worker{
		server: server,
		mux:    mux,
		uc:     uc,
		redis:  rdb,
		logger: logger,
	}, nil
}

func (w *Worker) Start() error {
	w.logger.Info("worker started")
	return w.server.Start(w.mux)
}

func (w *Worker) Stop() {
	w.logger.Info("stopping worker")
	w.server.Shutdown()

	if err := w.uc.Close(); err != nil {
		w.logger.Error("error closing database", slog.Any("error", err))
	}
	if err := w.redis.Close(); err != nil {
		w.logger.Error("error closing redis", slog.Any("error", err))
	}
}
