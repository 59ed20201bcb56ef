package server

import (
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/usecase"
)

type Project struct {
	ID             string                 `json:"id"`
	OwnerID        string                 `json:"owner_id"`
	Name           string                 `json:"name"`
	Description    string                 `json:"description,omitempty"`
	Type           string                 `json:"type"`
	Status         string                 `json:"status"`
	Dimensions     usecase.Dimensions     `json:"dimensions"`
	Camera         usecase.Camera         `json:"camera"`
	Environment    usecase.Environment    `json:"environment"`
	Objects        []usecase.StoredObject `json:"objects,omitempty"`
	ObjectCount    int                    `json:"object_count"`
	Version        int                    `json:"version"`
	LastModifiedAt string                 `json:"last_modified_at"`
	CreatedAt      string                 `json:"created_at"`
}

func ConvertProjectFrom(p usecase.Project) Project {
	return Project{
		ID:             p.ID.String(),
		OwnerID:        p.OwnerID.String(),
		Name:           p.Name,
		Description:    p.Description,
		Type:           string(p.Type),
		Status:         string(p.Status),
		Dimensions:     p.Dimensions,
		Camera:         p.Camera,
		Environment:    p.Environment,
		Objects:        p.Objects,
		ObjectCount:    len(p.Objects),
		Version:        p.Version,
		LastModifiedAt: p.LastModifiedAt.UTC().Format(time.RFC3339),
		CreatedAt:      p.CreatedAt.UTC().Format(time.RFC3339),
	}
}

type ListProjectsRequest struct {
	Skip   int    `query:"skip" validate:"gte=0"`
	Limit  int    `query:"limit" validate:"required,gte=1,lte=100"`
	Name   string `query:"name"`
	Status string `query:"status" validate:"omitempty,oneof=draft in-progress completed shared"`
}

func (s *Server) ListProjects(ctx echo.Context) error {
	var req = ListProjectsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	list, total, err := s.server.ListProjects(ctx.Request().Context(), usecase.ListProjectsOption{
		Skip:   req.Skip,
		Limit:  req.Limit,
		Name:   req.Name,
		Status: usecase.ProjectStatus(req.Status),
	})
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	projects := make([]Project, 0, len(list))
	for _, p := range list {
		pr := ConvertProjectFrom(p)
		// listings carry the count only
		pr.Objects = nil
		projects = append(projects, pr)
	}

	return ctx.JSON(200, Res{
		Data: projects,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type ProjectRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

func (s *Server) GetProject(ctx echo.Context) error {
	var req ProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	p, err := s.server.GetProject(ctx.Request().Context(), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}
	return ctx.JSON(200, Res{Data: ConvertProjectFrom(p)})
}

func (s *Server) DeleteProject(ctx echo.Context) error {
	var req ProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	if err := s.server.DeleteProject(ctx.Request().Context(), id); err != nil {
		return s.errorJSON(ctx, err)
	}
	return ctx.NoContent(204)
}

type LoadProjectRequest struct {
	ID      string `param:"id" validate:"required,uuid"`
	SceneID string `json:"scene_id" validate:"omitempty,uuid"`
}

type LoadResult struct {
	Scene   Scene     `json:"scene"`
	Kept    int       `json:"kept"`
	Dropped []Dropped `json:"dropped"`
}

// LoadProject opens a saved project for editing. With scene_id the open
// session's content is replaced; otherwise a new session is started.
func (s *Server) LoadProject(ctx echo.Context) error {
	var req LoadProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)
	var sceneID uuid.UUID
	if req.SceneID != "" {
		sceneID, _ = uuid.Parse(req.SceneID)
	}

	scene, report, err := s.server.OpenProject(ctx.Request().Context(), id, sceneID)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{
		Data: LoadResult{
			Scene:   ConvertSceneFrom(scene.Snapshot()),
			Kept:    report.Kept,
			Dropped: convertDropped(report),
		},
		Message: droppedMessage(report),
	})
}

func (s *Server) DuplicateProject(ctx echo.Context) error {
	var req ProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	p, report, err := s.server.DuplicateProject(ctx.Request().Context(), id, userID(ctx))
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(201, Res{
		Data: SaveResult{
			Project: ConvertProjectFrom(p),
			Kept:    report.Kept,
			Dropped: convertDropped(report),
		},
		Message: droppedMessage(report),
	})
}

func (s *Server) ExportProject(ctx echo.Context) error {
	var req ProjectRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	jobID, err := s.server.ExportProjectManifest(ctx.Request().Context(), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(202, Res{
		Data:    map[string]string{"job_id": jobID},
		Message: "Export queued",
	})
}
