package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/google/uuid"
)

// SaveProjectRequest carries the project metadata for a save. A nil
// ProjectID creates a new project. On update, empty fields keep their
// stored values.
type SaveProjectRequest struct {
	ProjectID   uuid.UUID     `json:"project_id"`
	Name        string        `json:"name" validate:"max=200"`
	Description string        `json:"description" validate:"max=2000"`
	Type        ProjectType   `json:"type" validate:"omitempty,oneof=interior exterior mixed"`
	Status      ProjectStatus `json:"status" validate:"omitempty,oneof=draft in-progress completed shared"`
	Dimensions  *Dimensions   `json:"dimensions"`
	Camera      *Camera       `json:"camera"`
	Environment *Environment  `json:"environment"`
}

type DroppedObject struct {
	InstanceID string
	Ref        AssetRef
}

// ReconcileReport lists the references that no longer resolve and were
// left out of a save or load.
type ReconcileReport struct {
	Kept    int
	Dropped []DroppedObject
}

type (
	SaveReport = ReconcileReport
	LoadReport = ReconcileReport
)

// SaveScene persists the scene's instances. References are re-verified
// against their own catalog and stale ones are dropped from the document.
// The scene is bound to the resulting project only when the write succeeds.
func (u Usecase) SaveScene(ctx context.Context, scene *Scene, req SaveProjectRequest) (Project, SaveReport, error) {
	if err := u.validate.Struct(req); err != nil {
		return Project{}, SaveReport{}, validationError(err)
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.ProjectID == uuid.Nil && req.Name == "" {
		return Project{}, SaveReport{}, ValidationError{Field: "name", Message: "required"}
	}

	ownerID := scene.OwnerID()
	instances := scene.Instances()

	refs := make([]AssetRef, len(instances))
	for i, inst := range instances {
		refs[i] = inst.Ref
	}
	verified, err := u.resolver.VerifyAll(ctx, refs)
	if err != nil {
		return Project{}, SaveReport{}, fmt.Errorf("verify scene references: %w", err)
	}

	var report SaveReport
	objects := make([]StoredObject, 0, len(instances))
	for i, v := range verified {
		if !v.OK {
			report.Dropped = append(report.Dropped, DroppedObject{InstanceID: instances[i].InstanceID, Ref: v.Ref})
			u.logger.WarnContext(ctx, "dropping unresolvable reference on save",
				slog.String("instance_id", instances[i].InstanceID),
				slog.String("asset_id", v.Ref.AssetID),
				slog.String("catalog", string(v.Ref.Catalog)))
			continue
		}
		objects = append(objects, storedObjectFrom(instances[i]))
	}
	report.Kept = len(objects)

	var p Project
	if req.ProjectID == uuid.Nil {
		p = newProject(ownerID, req)
		p.Objects = objects
		p, err = u.repo.CreateProject(ctx, p)
		if err != nil {
			return Project{}, SaveReport{}, fmt.Errorf("create project: %w", err)
		}
	} else {
		existing, err := u.repo.GetProjectByID(ctx, req.ProjectID)
		if err != nil {
			return Project{}, SaveReport{}, err
		}
		if existing.OwnerID != ownerID {
			return Project{}, SaveReport{}, ErrAuthorization
		}
		applyMetadata(&existing, req)
		existing.Objects = objects
		p, err = u.repo.ReplaceProject(ctx, existing)
		if err != nil {
			return Project{}, SaveReport{}, fmt.Errorf("replace project %s: %w", existing.ID, err)
		}
	}

	scene.bind(p.ID, p.Version)
	u.logger.InfoContext(ctx, "scene saved",
		slog.String("scene_id", scene.ID().String()),
		slog.String("project_id", p.ID.String()),
		slog.Int("version", p.Version),
		slog.Int("objects", report.Kept),
		slog.Int("dropped", len(report.Dropped)))
	return p, report, nil
}

// LoadProject rebuilds a scene from a stored project. Stale references are
// dropped and counted; instance ids are preserved.
func (u Usecase) LoadProject(ctx context.Context, projectID, userID uuid.UUID) (*Scene, LoadReport, error) {
	p, err := u.ownedProject(ctx, projectID, userID)
	if err != nil {
		return nil, LoadReport{}, err
	}
	instances, report, err := u.rehydrate(ctx, p)
	if err != nil {
		return nil, LoadReport{}, err
	}
	return newLoadedScene(userID, u.resolver, p.ID, p.Version, instances), report, nil
}

// OpenProject loads a project into a session. With a zero sceneID a new
// session is opened; otherwise the open scene's content is replaced.
func (u Usecase) OpenProject(ctx context.Context, projectID, sceneID uuid.UUID) (*Scene, LoadReport, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, LoadReport{}, err
	}
	if sceneID != uuid.Nil {
		if _, err := u.sessions.Get(userID, sceneID); err != nil {
			return nil, LoadReport{}, err
		}
	}

	loaded, report, err := u.LoadProject(ctx, projectID, userID)
	if err != nil {
		return nil, LoadReport{}, err
	}
	if sceneID == uuid.Nil {
		u.sessions.put(loaded)
		return loaded, report, nil
	}
	s, err := u.sessions.Replace(userID, sceneID, loaded)
	if err != nil {
		return nil, LoadReport{}, err
	}
	return s, report, nil
}

// DuplicateProject copies a project under a new id with fresh instance ids.
// References that no longer resolve are not copied.
func (u Usecase) DuplicateProject(ctx context.Context, projectID, userID uuid.UUID) (Project, LoadReport, error) {
	src, err := u.ownedProject(ctx, projectID, userID)
	if err != nil {
		return Project{}, LoadReport{}, err
	}
	instances, report, err := u.rehydrate(ctx, src)
	if err != nil {
		return Project{}, LoadReport{}, err
	}

	dup := src
	dup.ID = uuid.Nil
	dup.Name = src.Name + " (Copy)"
	dup.Version = 1
	dup.Objects = make([]StoredObject, 0, len(instances))
	for _, inst := range instances {
		inst.InstanceID = AssignInstanceID("")
		dup.Objects = append(dup.Objects, storedObjectFrom(inst))
	}

	created, err := u.repo.CreateProject(ctx, dup)
	if err != nil {
		return Project{}, LoadReport{}, fmt.Errorf("create duplicate of %s: %w", src.ID, err)
	}
	return created, report, nil
}

func (u Usecase) rehydrate(ctx context.Context, p Project) ([]PlacedInstance, ReconcileReport, error) {
	refs := make([]AssetRef, len(p.Objects))
	for i, obj := range p.Objects {
		refs[i] = obj.Ref()
	}
	verified, err := u.resolver.VerifyAll(ctx, refs)
	if err != nil {
		return nil, ReconcileReport{}, fmt.Errorf("verify project references: %w", err)
	}

	var report ReconcileReport
	instances := make([]PlacedInstance, 0, len(p.Objects))
	for i, v := range verified {
		obj := p.Objects[i]
		if !v.OK {
			report.Dropped = append(report.Dropped, DroppedObject{InstanceID: obj.InstanceID, Ref: v.Ref})
			u.logger.WarnContext(ctx, "dropping unresolvable reference on load",
				slog.String("project_id", p.ID.String()),
				slog.String("instance_id", obj.InstanceID),
				slog.String("asset_id", v.Ref.AssetID),
				slog.String("catalog", string(v.Ref.Catalog)))
			continue
		}
		instances = append(instances, PlacedInstance{
			InstanceID:     obj.InstanceID,
			Ref:            v.Ref,
			Asset:          v.Asset,
			Transform:      Normalize(InputFromTransform(obj.Transform())),
			CustomMaterial: obj.CustomMaterial.clone(),
		})
	}
	report.Kept = len(instances)
	return instances, report, nil
}

func newProject(ownerID uuid.UUID, req SaveProjectRequest) Project {
	p := Project{
		OwnerID:     ownerID,
		Type:        ProjectTypeInterior,
		Status:      ProjectStatusDraft,
		Dimensions:  DefaultDimensions(),
		Camera:      DefaultCamera(),
		Environment: DefaultEnvironment(),
		Version:     1,
	}
	applyMetadata(&p, req)
	return p
}

func applyMetadata(p *Project, req SaveProjectRequest) {
	if req.Name != "" {
		p.Name = req.Name
	}
	if req.Description != "" {
		p.Description = req.Description
	}
	if req.Type != "" {
		p.Type = req.Type
	}
	if req.Status != "" {
		p.Status = req.Status
	}
	if req.Dimensions != nil {
		p.Dimensions = *req.Dimensions
	}
	if req.Camera != nil {
		p.Camera = *req.Camera
	}
	if req.Environment != nil {
		p.Environment = *req.Environment
	}
}
