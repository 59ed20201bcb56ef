package database

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/roomcraft/roomcraft/internal/usecase"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type Project struct {
	ID             uuid.UUID                               `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	OwnerID        uuid.UUID                               `gorm:"column:owner_id;type:uuid;NOT NULL;index"`
	Name           string                                  `gorm:"column:name;type:varchar(255);NOT NULL"`
	Description    string                                  `gorm:"column:description;type:text"`
	Type           string                                  `gorm:"column:type;type:varchar(20);NOT NULL"`
	Status         string                                  `gorm:"column:status;type:varchar(20);NOT NULL"`
	Dimensions     datatypes.JSONType[usecase.Dimensions]  `gorm:"column:dimensions"`
	Camera         datatypes.JSONType[usecase.Camera]      `gorm:"column:camera"`
	Environment    datatypes.JSONType[usecase.Environment] `gorm:"column:environment"`
	Objects        datatypes.JSONType[[]projectObject]     `gorm:"column:objects"`
	Version        int                                     `gorm:"column:version;NOT NULL;default:1"`
	LastModifiedAt time.Time                               `gorm:"column:last_modified_at;autoUpdateTime;index"`
	CreatedAt      time.Time                               `gorm:"column:created_at"`
	DeletedAt      *gorm.DeletedAt                         `gorm:"column:deleted_at"`
}

func (Project) TableName() string {
	return "projects"
}

// projectObject is one element of the objects column. Vectors decode from
// any encoding older documents may hold and are written back canonical.
type projectObject struct {
	InstanceID     string               `json:"instance_id"`
	AssetID        string               `json:"asset_id"`
	AssetType      usecase.Catalog      `json:"asset_type"`
	Position       *usecase.VectorInput `json:"position,omitempty"`
	Rotation       *usecase.VectorInput `json:"rotation,omitempty"`
	Scale          *usecase.VectorInput `json:"scale,omitempty"`
	CustomMaterial *usecase.Material    `json:"custom_material,omitempty"`
}

func newProjectObjects(objs []usecase.StoredObject) []projectObject {
	out := make([]projectObject, 0, len(objs))
	for _, o := range objs {
		out = append(out, projectObject{
			InstanceID:     o.InstanceID,
			AssetID:        o.AssetID,
			AssetType:      o.AssetType,
			Position:       usecase.VectorFrom(o.Position.Vec3()),
			Rotation:       usecase.VectorFrom(o.Rotation.Vec3()),
			Scale:          usecase.VectorFrom(o.Scale.Vec3()),
			CustomMaterial: o.CustomMaterial,
		})
	}
	return out
}

func (o projectObject) ConvertToUsecase() usecase.StoredObject {
	t := usecase.Normalize(usecase.TransformInput{
		Position: o.Position,
		Rotation: o.Rotation,
		Scale:    o.Scale,
	})
	return usecase.StoredObject{
		InstanceID:     o.InstanceID,
		AssetID:        o.AssetID,
		AssetType:      o.AssetType,
		Position:       usecase.VectorOf(t.Position),
		Rotation:       usecase.VectorOf(t.Rotation),
		Scale:          usecase.VectorOf(t.Scale),
		CustomMaterial: o.CustomMaterial,
	}
}

func (s *service) ListProjects(ctx context.Context, opt usecase.ListProjectsOption) ([]usecase.Project, int, error) {
	var (
		projects  []Project
		uprojects []usecase.Project
		count     int64
	)

	db := s.db.Model([]Project{}).WithContext(ctx)

	if opt.OwnerID != uuid.Nil {
		db = db.Where("owner_id = ?", opt.OwnerID)
	}
	if opt.Name != "" {
		db = db.Where("name ILIKE ?", "%"+opt.Name+"%")
	}
	if opt.Status != "" {
		db = db.Where("status = ?", opt.Status)
	}

	if err := db.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		db = db.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		db = db.Offset(opt.Skip)
	}
	if err := db.Order("last_modified_at DESC").Find(&projects).Error; err != nil {
		return nil, 0, err
	}

	for _, p := range projects {
		uprojects = append(uprojects, p.ConvertToUsecase())
	}
	return uprojects, int(count), nil
}

func (s *service) GetProjectByID(ctx context.Context, id uuid.UUID) (usecase.Project, error) {
	var p Project
	err := s.db.WithContext(ctx).Where("id = ?", id).First(&p).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Project{}, projectNotFound(id)
	}
	if err != nil {
		return usecase.Project{}, err
	}
	return p.ConvertToUsecase(), nil
}

func (s *service) CreateProject(ctx context.Context, project usecase.Project) (usecase.Project, error) {
	p := newProjectRow(project)
	p.ID = uuid.Nil
	if p.Version == 0 {
		p.Version = 1
	}

	if err := s.db.
		WithContext(ctx).
		Clauses(clause.Returning{}).
		Create(&p).Error; err != nil {
		return usecase.Project{}, err
	}
	return p.ConvertToUsecase(), nil
}

// ReplaceProject writes metadata and the object list wholesale. The version
// bump and modification time are computed by the database.
func (s *service) ReplaceProject(ctx context.Context, project usecase.Project) (usecase.Project, error) {
	row := newProjectRow(project)

	var updated Project
	res := s.db.
		WithContext(ctx).
		Model(&updated).
		Clauses(clause.Returning{}).
		Where("id = ?", project.ID).
		Updates(map[string]any{
			"name":             row.Name,
			"description":      row.Description,
			"type":             row.Type,
			"status":           row.Status,
			"dimensions":       row.Dimensions,
			"camera":           row.Camera,
			"environment":      row.Environment,
			"objects":          row.Objects,
			"version":          gorm.Expr("version + 1"),
			"last_modified_at": gorm.Expr("NOW()"),
		})
	if res.Error != nil {
		return usecase.Project{}, res.Error
	}
	if res.RowsAffected == 0 {
		return usecase.Project{}, projectNotFound(project.ID)
	}
	return updated.ConvertToUsecase(), nil
}

func (s *service) DeleteProject(ctx context.Context, id uuid.UUID) error {
	res := s.db.WithContext(ctx).Delete(&Project{}, "id = ?", id)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return projectNotFound(id)
	}
	return nil
}

func newProjectRow(p usecase.Project) Project {
	return Project{
		ID:          p.ID,
		OwnerID:     p.OwnerID,
		Name:        p.Name,
		Description: p.Description,
		Type:        string(p.Type),
		Status:      string(p.Status),
		Dimensions:  datatypes.NewJSONType(p.Dimensions),
		Camera:      datatypes.NewJSONType(p.Camera),
		Environment: datatypes.NewJSONType(p.Environment),
		Objects:     datatypes.NewJSONType(newProjectObjects(p.Objects)),
		Version:     p.Version,
	}
}

func (p Project) ConvertToUsecase() usecase.Project {
	stored := p.Objects.Data()
	objects := make([]usecase.StoredObject, 0, len(stored))
	for _, o := range stored {
		objects = append(objects, o.ConvertToUsecase())
	}

	return usecase.Project{
		ID:             p.ID,
		OwnerID:        p.OwnerID,
		Name:           p.Name,
		Description:    p.Description,
		Type:           usecase.ProjectType(p.Type),
		Status:         usecase.ProjectStatus(p.Status),
		Dimensions:     p.Dimensions.Data(),
		Camera:         p.Camera.Data(),
		Environment:    p.Environment.Data(),
		Objects:        objects,
		Version:        p.Version,
		LastModifiedAt: p.LastModifiedAt,
		CreatedAt:      p.CreatedAt,
	}
}

func projectNotFound(id uuid.UUID) usecase.ErrNotFound {
	return usecase.ErrNotFound{
		ID:      id,
		Code:    "project_not_found",
		Message: "project " + id.String() + " not found",
	}
}
