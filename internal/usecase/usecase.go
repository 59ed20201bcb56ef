package usecase

import (
	"context"
	"log/slog"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

func New(
	repo Repository,
	resolver *Resolver,
	fsp FileStorageProvider,
	qc QueueClient,
	logger *slog.Logger,
) Usecase {
	if logger == nil {
		logger = slog.Default()
	}
	validate := validator.New(validator.WithRequiredStructEnabled())
	validate.RegisterTagNameFunc(jsonFieldName)

	return Usecase{
		repo:                repo,
		resolver:            resolver,
		sessions:            NewSessionStore(resolver),
		fileStorageProvider: fsp,
		queueClient:         qc,
		logger:              logger,
		validate:            validate,
	}
}

type Repository interface {
	Health() map[string]string
	Close() error

	ListAssets(context.Context, Catalog, ListAssetsOption) ([]Asset, int, error)

	ListProjects(context.Context, ListProjectsOption) ([]Project, int, error)
	GetProjectByID(context.Context, uuid.UUID) (Project, error)
	CreateProject(context.Context, Project) (Project, error)
	// ReplaceProject overwrites metadata and objects, bumps the version by
	// one and stamps the modification time.
	ReplaceProject(context.Context, Project) (Project, error)
	DeleteProject(context.Context, uuid.UUID) error

	GetJobByID(context.Context, uuid.UUID) (Job, error)
	CreateJob(context.Context, Job) (Job, error)
	UpdateJob(context.Context, Job) (Job, error)
}

type FileStorageProvider interface {
	UploadFile(ctx context.Context, path string, data []byte) error
	GetPresignedURL(ctx context.Context, path string) (string, error)
}

type QueueClient interface {
	EnqueueJob(ctx context.Context, jobID uuid.UUID, jobType string, payload []byte) error
}

type Usecase struct {
	repo                Repository
	resolver            *Resolver
	sessions            *SessionStore
	fileStorageProvider FileStorageProvider
	queueClient         QueueClient
	logger              *slog.Logger
	validate            *validator.Validate
}

func (u Usecase) Health() map[string]string {
	return u.repo.Health()
}

func (u Usecase) Close() error {
	return u.repo.Close()
}

func (u Usecase) Resolver() *Resolver {
	return u.resolver
}
