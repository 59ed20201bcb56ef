package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
)

// HandleExportManifest processes export:manifest tasks.
func (h *Handlers) HandleExportManifest(ctx context.Context, task *asynq.Task) error {
	var payload TaskPayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		h.logger.ErrorContext(ctx, "failed to parse task payload", slog.Any("error", err))
		return fmt.Errorf("%w: %v", asynq.SkipRetry, err)
	}

	jobID, err := uuid.Parse(payload.JobID)
	if err != nil {
		h.logger.ErrorContext(ctx, "invalid job id", slog.String("job_id", payload.JobID))
		return fmt.Errorf("%w: invalid job id %q", asynq.SkipRetry, payload.JobID)
	}

	log := h.logger.With(slog.String("job_id", jobID.String()), slog.String("type", task.Type()))
	log.InfoContext(ctx, "processing job")

	if err := h.usecase.ProcessExportManifestJob(ctx, jobID); err != nil {
		log.ErrorContext(ctx, "failed to process job", slog.Any("error", err))
		return err
	}

	log.InfoContext(ctx, "completed job")
	return nil
}
