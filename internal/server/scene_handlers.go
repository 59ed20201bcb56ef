package server

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/usecase"
)

type Instance struct {
	InstanceID     string            `json:"instance_id"`
	AssetID        string            `json:"asset_id"`
	AssetType      string            `json:"asset_type"`
	Position       usecase.Vector    `json:"position"`
	Rotation       usecase.Vector    `json:"rotation"`
	Scale          usecase.Vector    `json:"scale"`
	CustomMaterial *usecase.Material `json:"custom_material,omitempty"`
	Asset          *Asset            `json:"asset,omitempty"`
}

type Scene struct {
	ID        string     `json:"id"`
	ProjectID string     `json:"project_id,omitempty"`
	Version   int        `json:"version,omitempty"`
	Selected  *string    `json:"selected"`
	Instances []Instance `json:"instances"`
}

func ConvertInstanceFrom(p usecase.PlacedInstance) Instance {
	inst := Instance{
		InstanceID:     p.InstanceID,
		AssetID:        p.Ref.AssetID,
		AssetType:      string(p.Ref.Catalog),
		Position:       usecase.VectorOf(p.Transform.Position),
		Rotation:       usecase.VectorOf(p.Transform.Rotation),
		Scale:          usecase.VectorOf(p.Transform.Scale),
		CustomMaterial: p.CustomMaterial,
	}
	if p.Asset.ID != "" {
		a := ConvertAssetFrom(p.Asset)
		inst.Asset = &a
	}
	return inst
}

func ConvertSceneFrom(snap usecase.SceneSnapshot) Scene {
	sc := Scene{
		ID:        snap.SceneID.String(),
		Version:   snap.Version,
		Instances: make([]Instance, 0, len(snap.Instances)),
	}
	if snap.ProjectID != uuid.Nil {
		sc.ProjectID = snap.ProjectID.String()
	}
	if snap.Selected != "" {
		sel := snap.Selected
		sc.Selected = &sel
	}
	for _, p := range snap.Instances {
		sc.Instances = append(sc.Instances, ConvertInstanceFrom(p))
	}
	return sc
}

type SceneRequest struct {
	ID string `param:"id" validate:"required,uuid"`
}

// scene looks up the caller's open scene named by the :id path parameter.
// The body is left unread for the handler. A nil scene means the error
// response has already been written.
func (s *Server) scene(ctx echo.Context) (*usecase.Scene, error) {
	raw := ctx.Param("id")
	if err := s.validator.Var(raw, "required,uuid"); err != nil {
		return nil, ctx.JSON(422, map[string]string{"error": "id: " + err.Error()})
	}
	id, _ := uuid.Parse(raw)
	scene, err := s.server.GetScene(ctx.Request().Context(), id)
	if err != nil {
		return nil, s.errorJSON(ctx, err)
	}
	return scene, nil
}

func (s *Server) OpenScene(ctx echo.Context) error {
	scene, err := s.server.OpenScene(ctx.Request().Context())
	if err != nil {
		return s.errorJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: ConvertSceneFrom(scene.Snapshot())})
}

func (s *Server) GetScene(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	return ctx.JSON(200, Res{Data: ConvertSceneFrom(scene.Snapshot())})
}

func (s *Server) CloseScene(ctx echo.Context) error {
	var req SceneRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)
	if err := s.server.CloseScene(ctx.Request().Context(), id); err != nil {
		return s.errorJSON(ctx, err)
	}
	return ctx.NoContent(204)
}

type AddInstanceRequest struct {
	AssetID string `json:"asset_id" validate:"required"`
}

func (s *Server) AddInstance(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req AddInstanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	inst, err := scene.AddInstance(ctx.Request().Context(), req.AssetID)
	if err != nil {
		return s.errorJSON(ctx, err)
	}
	return ctx.JSON(201, Res{Data: ConvertInstanceFrom(inst)})
}

type SelectInstanceRequest struct {
	InstanceID *string `json:"instance_id"`
}

// SelectInstance selects an instance; a null or empty instance_id clears
// the selection.
func (s *Server) SelectInstance(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req SelectInstanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}

	var id string
	if req.InstanceID != nil {
		id = *req.InstanceID
	}
	if !scene.SelectInstance(id) {
		return s.errorJSON(ctx, instanceNotFound(id))
	}
	return ctx.JSON(200, Res{Data: ConvertSceneFrom(scene.Snapshot())})
}

type InstanceRequest struct {
	InstanceID string `param:"iid" validate:"required"`
}

type TransformInstanceRequest struct {
	InstanceID string               `param:"iid" validate:"required"`
	Position   *usecase.VectorInput `json:"position"`
	Rotation   *usecase.VectorInput `json:"rotation"`
	Scale      *usecase.VectorInput `json:"scale"`
}

// TransformInstance merges the given axes onto the instance's transform.
// Omitted vectors and axes keep their current value. An instance that no
// longer exists is a no-op.
func (s *Server) TransformInstance(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req TransformInstanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	inst, ok := scene.TransformInstance(req.InstanceID, usecase.TransformInput{
		Position: req.Position,
		Rotation: req.Rotation,
		Scale:    req.Scale,
	})
	if !ok {
		// removed while the renderer was still dragging it
		return ctx.NoContent(204)
	}
	return ctx.JSON(200, Res{Data: ConvertInstanceFrom(inst)})
}

type SetMaterialRequest struct {
	InstanceID string   `param:"iid" validate:"required"`
	Color      string   `json:"color" validate:"omitempty,hexcolor"`
	Texture    string   `json:"texture" validate:"omitempty,max=2048"`
	Roughness  *float64 `json:"roughness" validate:"omitempty,gte=0,lte=1"`
	Metalness  *float64 `json:"metalness" validate:"omitempty,gte=0,lte=1"`
}

func (s *Server) SetMaterial(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req SetMaterialRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}

	inst, ok := scene.SetMaterial(req.InstanceID, usecase.Material{
		Color:     req.Color,
		Texture:   req.Texture,
		Roughness: req.Roughness,
		Metalness: req.Metalness,
	})
	if !ok {
		return s.errorJSON(ctx, instanceNotFound(req.InstanceID))
	}
	return ctx.JSON(200, Res{Data: ConvertInstanceFrom(inst)})
}

func (s *Server) ResetMaterial(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req InstanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if !scene.ResetMaterial(req.InstanceID) {
		return s.errorJSON(ctx, instanceNotFound(req.InstanceID))
	}
	return ctx.NoContent(204)
}

func (s *Server) RemoveInstance(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req InstanceRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if !scene.RemoveInstance(req.InstanceID) {
		return s.errorJSON(ctx, instanceNotFound(req.InstanceID))
	}
	return ctx.NoContent(204)
}

type SaveSceneRequest struct {
	ProjectID   string               `json:"project_id" validate:"omitempty,uuid"`
	Name        string               `json:"name"`
	Description string               `json:"description"`
	Type        string               `json:"type"`
	Status      string               `json:"status"`
	Dimensions  *usecase.Dimensions  `json:"dimensions"`
	Camera      *usecase.Camera      `json:"camera"`
	Environment *usecase.Environment `json:"environment"`
}

type Dropped struct {
	InstanceID string `json:"instance_id"`
	AssetID    string `json:"asset_id"`
	AssetType  string `json:"asset_type"`
}

type SaveResult struct {
	Project Project   `json:"project"`
	Kept    int       `json:"kept"`
	Dropped []Dropped `json:"dropped"`
}

func convertDropped(report usecase.ReconcileReport) []Dropped {
	list := make([]Dropped, 0, len(report.Dropped))
	for _, d := range report.Dropped {
		list = append(list, Dropped{
			InstanceID: d.InstanceID,
			AssetID:    d.Ref.AssetID,
			AssetType:  string(d.Ref.Catalog),
		})
	}
	return list
}

func droppedMessage(report usecase.ReconcileReport) string {
	if len(report.Dropped) == 0 {
		return ""
	}
	return fmt.Sprintf("%d object(s) skipped because their assets are no longer available", len(report.Dropped))
}

// SaveScene creates a project from the scene, or replaces the stored
// objects of project_id. Field validation is left to the usecase so the
// same rules apply to every caller.
func (s *Server) SaveScene(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}
	var req SaveSceneRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Var(req.ProjectID, "omitempty,uuid"); err != nil {
		return ctx.JSON(422, map[string]string{"error": "project_id: " + err.Error()})
	}

	var projectID uuid.UUID
	if req.ProjectID != "" {
		projectID, _ = uuid.Parse(req.ProjectID)
	}

	p, report, err := s.server.SaveScene(ctx.Request().Context(), scene, usecase.SaveProjectRequest{
		ProjectID:   projectID,
		Name:        req.Name,
		Description: req.Description,
		Type:        usecase.ProjectType(req.Type),
		Status:      usecase.ProjectStatus(req.Status),
		Dimensions:  req.Dimensions,
		Camera:      req.Camera,
		Environment: req.Environment,
	})
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	status := 200
	if projectID == uuid.Nil {
		status = 201
	}
	return ctx.JSON(status, Res{
		Data: SaveResult{
			Project: ConvertProjectFrom(p),
			Kept:    report.Kept,
			Dropped: convertDropped(report),
		},
		Message: droppedMessage(report),
	})
}

func (s *Server) SceneManifest(ctx echo.Context) error {
	var req SceneRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	id, _ := uuid.Parse(req.ID)

	b, err := s.server.SceneManifest(ctx.Request().Context(), id)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	ctx.Response().Header().Set(echo.HeaderContentDisposition, fmt.Sprintf("attachment; filename=%q", "scene-"+req.ID+".csv"))
	return ctx.Blob(200, "text/csv", b)
}
