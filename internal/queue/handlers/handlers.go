package handlers

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// JobProcessor runs stored jobs by id.
type JobProcessor interface {
	ProcessExportManifestJob(ctx context.Context, jobID uuid.UUID) error
}

type Handlers struct {
	usecase JobProcessor
	logger  *slog.Logger
}

func NewHandlers(uc JobProcessor, logger *slog.Logger) *Handlers {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handlers{
		usecase: uc,
		logger:  logger,
	}
}

// TaskPayload represents the standard payload structure for all tasks
type TaskPayload struct {
	JobID   string `json:"job_id"`
	Type    string `json:"type"`
	Payload string `json:"payload"`
}
