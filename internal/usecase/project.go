package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

type ProjectType string

const (
	ProjectTypeInterior ProjectType = "interior"
	ProjectTypeExterior ProjectType = "exterior"
	ProjectTypeMixed    ProjectType = "mixed"
)

type ProjectStatus string

const (
	ProjectStatusDraft      ProjectStatus = "draft"
	ProjectStatusInProgress ProjectStatus = "in-progress"
	ProjectStatusCompleted  ProjectStatus = "completed"
	ProjectStatusShared     ProjectStatus = "shared"
)

type Dimensions struct {
	Width  float64 `json:"width" validate:"gt=0"`
	Height float64 `json:"height" validate:"gt=0"`
	Depth  float64 `json:"depth" validate:"gt=0"`
}

type Camera struct {
	Position Vector `json:"position"`
	Target   Vector `json:"target"`
}

type Environment struct {
	Lighting        string `json:"lighting" validate:"oneof=natural warm cool dramatic"`
	BackgroundColor string `json:"background_color" validate:"hexcolor"`
	AmbientColor    string `json:"ambient_color" validate:"hexcolor"`
}

func DefaultDimensions() Dimensions {
	return Dimensions{Width: 20, Height: 10, Depth: 20}
}

func DefaultCamera() Camera {
	return Camera{Position: Vector{X: 5, Y: 5, Z: 5}}
}

func DefaultEnvironment() Environment {
	return Environment{
		Lighting:        "natural",
		BackgroundColor: "#f0f0f0",
		AmbientColor:    "#404040",
	}
}

// StoredObject is the persisted form of a placed instance. Vectors are
// always stored canonical.
type StoredObject struct {
	InstanceID     string    `json:"instance_id"`
	AssetID        string    `json:"asset_id"`
	AssetType      Catalog   `json:"asset_type"`
	Position       Vector    `json:"position"`
	Rotation       Vector    `json:"rotation"`
	Scale          Vector    `json:"scale"`
	CustomMaterial *Material `json:"custom_material,omitempty"`
}

func (o StoredObject) Ref() AssetRef {
	return AssetRef{AssetID: o.AssetID, Catalog: o.AssetType}
}

func (o StoredObject) Transform() Transform {
	return Transform{
		Position: o.Position.Vec3(),
		Rotation: o.Rotation.Vec3(),
		Scale:    o.Scale.Vec3(),
	}
}

func storedObjectFrom(inst PlacedInstance) StoredObject {
	return StoredObject{
		InstanceID:     inst.InstanceID,
		AssetID:        inst.Ref.AssetID,
		AssetType:      inst.Ref.Catalog,
		Position:       VectorOf(inst.Transform.Position),
		Rotation:       VectorOf(inst.Transform.Rotation),
		Scale:          VectorOf(inst.Transform.Scale),
		CustomMaterial: inst.CustomMaterial.clone(),
	}
}

type Project struct {
	ID          uuid.UUID
	OwnerID     uuid.UUID
	Name        string
	Description string
	Type        ProjectType
	Status      ProjectStatus
	Dimensions  Dimensions
	Camera      Camera
	Environment Environment
	Objects     []StoredObject
	Version     int

	LastModifiedAt time.Time
	CreatedAt      time.Time
}

type ListProjectsOption struct {
	Skip  int
	Limit int

	OwnerID uuid.UUID
	Name    string
	Status  ProjectStatus
}

// ListProjects returns the caller's projects, most recently modified first.
func (u Usecase) ListProjects(ctx context.Context, opt ListProjectsOption) ([]Project, int, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return nil, 0, err
	}
	opt.OwnerID = userID
	return u.repo.ListProjects(ctx, opt)
}

func (u Usecase) GetProject(ctx context.Context, id uuid.UUID) (Project, error) {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return Project{}, err
	}
	return u.ownedProject(ctx, id, userID)
}

func (u Usecase) DeleteProject(ctx context.Context, id uuid.UUID) error {
	userID, err := userIDFromContext(ctx)
	if err != nil {
		return err
	}
	if _, err := u.ownedProject(ctx, id, userID); err != nil {
		return err
	}
	if err := u.repo.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("delete project %s: %w", id, err)
	}
	return nil
}

// ownedProject reports another user's project as not found.
func (u Usecase) ownedProject(ctx context.Context, id, userID uuid.UUID) (Project, error) {
	p, err := u.repo.GetProjectByID(ctx, id)
	if err != nil {
		return Project{}, err
	}
	if p.OwnerID != userID {
		return Project{}, projectNotFound(id)
	}
	return p, nil
}
