package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

const (
	JobStatusPending    = "PENDING"
	JobStatusProcessing = "PROCESSING"
	JobStatusCompleted  = "COMPLETED"
	JobStatusFailed     = "FAILED"
)

type Job struct {
	ID         uuid.UUID
	Type       string
	OwnerID    uuid.UUID
	Status     string
	Payload    []byte
	Result     []byte
	Error      string
	StartedAt  *time.Time
	FinishedAt *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

// GetJobByID returns a job owned by the caller.
func (u Usecase) GetJobByID(ctx context.Context, id uuid.UUID) (Job, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return Job{}, err
	}
	job, err := u.repo.GetJobByID(ctx, id)
	if err != nil {
		return Job{}, err
	}
	if job.OwnerID != userID {
		return Job{}, ErrAuthorization
	}
	return job, nil
}

// createJob stores a pending job and hands it to the queue. A job that
// cannot be enqueued is marked failed.
func (u Usecase) createJob(ctx context.Context, job Job) (Job, error) {
	if job.Status == "" {
		job.Status = JobStatusPending
	}
	created, err := u.repo.CreateJob(ctx, job)
	if err != nil {
		return Job{}, fmt.Errorf("create job: %w", err)
	}

	if err := u.queueClient.EnqueueJob(ctx, created.ID, created.Type, created.Payload); err != nil {
		u.logger.ErrorContext(ctx, "failed to enqueue job",
			slog.String("job_id", created.ID.String()),
			slog.String("type", created.Type),
			slog.Any("error", err))
		finished := time.Now()
		created.Status = JobStatusFailed
		created.Error = err.Error()
		created.FinishedAt = &finished
		if _, uerr := u.repo.UpdateJob(ctx, created); uerr != nil {
			u.logger.ErrorContext(ctx, "failed to mark job failed",
				slog.String("job_id", created.ID.String()),
				slog.Any("error", uerr))
		}
		return Job{}, fmt.Errorf("enqueue job %s: %w", created.ID, err)
	}
	return created, nil
}

// runJob drives a job through PROCESSING to COMPLETED or FAILED.
func (u Usecase) runJob(ctx context.Context, jobID uuid.UUID, exec func(context.Context, Job) ([]byte, error)) error {
	job, err := u.repo.GetJobByID(ctx, jobID)
	if err != nil {
		return fmt.Errorf("failed to get job: %w", err)
	}

	now := time.Now()
	job.Status = JobStatusProcessing
	job.StartedAt = &now
	if job, err = u.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update job to PROCESSING: %w", err)
	}

	res, err := exec(ctx, job)
	if err != nil {
		finished := time.Now()
		job.Status = JobStatusFailed
		job.Error = err.Error()
		job.FinishedAt = &finished
		if _, uerr := u.repo.UpdateJob(ctx, job); uerr != nil {
			u.logger.ErrorContext(ctx, "failed to update job to FAILED",
				slog.String("job_id", job.ID.String()),
				slog.Any("error", uerr))
		}
		return fmt.Errorf("job %s failed: %w", job.ID, err)
	}

	finished := time.Now()
	job.Status = JobStatusCompleted
	job.Result = res
	job.FinishedAt = &finished
	if _, err := u.repo.UpdateJob(ctx, job); err != nil {
		return fmt.Errorf("failed to update job to COMPLETED: %w", err)
	}
	return nil
}
