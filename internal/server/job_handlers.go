package server

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/usecase"
)

type Job struct {
	ID         string          `json:"id"`
	Type       string          `json:"type"`
	OwnerID    string          `json:"owner_id"`
	Status     string          `json:"status"`
	Payload    json.RawMessage `json:"payload,omitempty"`
	Result     json.RawMessage `json:"result,omitempty"`
	Error      string          `json:"error,omitempty"`
	StartedAt  *string         `json:"started_at,omitempty"`
	FinishedAt *string         `json:"finished_at,omitempty"`
	CreatedAt  string          `json:"created_at"`
	UpdatedAt  string          `json:"updated_at"`
}

func ConvertJobFrom(job usecase.Job) Job {
	j := Job{
		ID:        job.ID.String(),
		Type:      job.Type,
		OwnerID:   job.OwnerID.String(),
		Status:    job.Status,
		Error:     job.Error,
		CreatedAt: job.CreatedAt.UTC().Format(time.RFC3339),
		UpdatedAt: job.UpdatedAt.UTC().Format(time.RFC3339),
	}
	if json.Valid(job.Payload) {
		j.Payload = job.Payload
	}
	if json.Valid(job.Result) {
		j.Result = job.Result
	}
	if job.StartedAt != nil {
		tmp := job.StartedAt.UTC().Format(time.RFC3339)
		j.StartedAt = &tmp
	}
	if job.FinishedAt != nil {
		tmp := job.FinishedAt.UTC().Format(time.RFC3339)
		j.FinishedAt = &tmp
	}
	return j
}

type GetJobByIDRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetJobByID(ctx echo.Context) error {
	var req GetJobByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	job, err := s.server.GetJobByID(ctx.Request().Context(), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: ConvertJobFrom(job)})
}

// GetExportURL returns a fresh download link for a finished export.
func (s *Server) GetExportURL(ctx echo.Context) error {
	var req GetJobByIDRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	id, _ := uuid.Parse(req.ID)
	url, err := s.server.GetExportURL(ctx.Request().Context(), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: map[string]string{"url": url}})
}
