package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/hibiken/asynq"
	"github.com/roomcraft/roomcraft/internal/queue/handlers"
)

// Client wraps asynq.Client for enqueuing tasks
type Client struct {
	client *asynq.Client
	logger *slog.Logger
}

func NewClient(redisAddr string, redisPassword string, logger *slog.Logger) *Client {
	client := asynq.NewClient(asynq.RedisClientOpt{
		Addr:     redisAddr,
		Password: redisPassword,
	})

	return &Client{
		client: client,
		logger: logger,
	}
}

func (c *Client) Close() error {
	return c.client.Close()
}

// EnqueueJob wraps a stored job in a task named after its type.
func (c *Client) EnqueueJob(ctx context.Context, jobID uuid.UUID, jobType string, payload []byte) error {
	task, err := NewJobTask(jobID, jobType, payload)
	if err != nil {
		return err
	}

	info, err := c.client.EnqueueContext(ctx, task, asynq.MaxRetry(3))
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}

	c.logger.InfoContext(ctx, "enqueued task",
		slog.String("task_id", info.ID),
		slog.String("queue", info.Queue),
		slog.String("job_id", jobID.String()),
		slog.String("type", jobType))
	return nil
}

func NewJobTask(jobID uuid.UUID, jobType string, payload []byte) (*asynq.Task, error) {
	b, err := json.Marshal(handlers.TaskPayload{
		JobID:   jobID.String(),
		Type:    jobType,
		Payload: string(payload),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal task payload: %w", err)
	}
	return asynq.NewTask(jobType, b), nil
}
