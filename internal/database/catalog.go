package database

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/roomcraft/roomcraft/internal/usecase"
	"gorm.io/gorm"
)

type AssetColumns struct {
	ID          uuid.UUID       `gorm:"column:id;primaryKey;type:uuid;default:uuid_generate_v4()"`
	Name        string          `gorm:"column:name;type:varchar(255);NOT NULL"`
	Description string          `gorm:"column:description;type:text"`
	Category    string          `gorm:"column:category;type:varchar(100);index"`
	FileURL     string          `gorm:"column:file_url;type:text;NOT NULL"`
	Format      string          `gorm:"column:format;type:varchar(20)"`
	Thumbnail   string          `gorm:"column:thumbnail;type:text"`
	CreatedAt   time.Time       `gorm:"column:created_at"`
	UpdatedAt   time.Time       `gorm:"column:updated_at"`
	DeletedAt   *gorm.DeletedAt `gorm:"column:deleted_at"`
}

func (a AssetColumns) convert(c usecase.Catalog) usecase.Asset {
	return usecase.Asset{
		ID:          a.ID.String(),
		Catalog:     c,
		Name:        a.Name,
		Description: a.Description,
		Category:    a.Category,
		FileURL:     a.FileURL,
		Format:      a.Format,
		Thumbnail:   a.Thumbnail,
		CreatedAt:   a.CreatedAt,
		UpdatedAt:   a.UpdatedAt,
	}
}

// Model3D rows make up the model catalog, which wins precedence.
type Model3D struct {
	AssetColumns `gorm:"embedded"`
	RoomType     string `gorm:"column:room_type;type:varchar(50)"`
}

func (Model3D) TableName() string {
	return "models"
}

func (m Model3D) ConvertToUsecase() usecase.Asset {
	return m.convert(usecase.CatalogModel)
}

// Component rows are structural pieces such as doors and windows.
type Component struct {
	AssetColumns `gorm:"embedded"`
	Subcategory  string `gorm:"column:subcategory;type:varchar(100)"`
}

func (Component) TableName() string {
	return "components"
}

func (c Component) ConvertToUsecase() usecase.Asset {
	return c.convert(usecase.CatalogComponent)
}

type assetRecord interface {
	Model3D | Component
	ConvertToUsecase() usecase.Asset
}

type catalogFinder struct {
	db      *gorm.DB
	catalog usecase.Catalog
}

func (f catalogFinder) FindAssetByID(ctx context.Context, id string) (usecase.Asset, bool, error) {
	switch f.catalog {
	case usecase.CatalogModel:
		return findAsset[Model3D](ctx, f.db, id)
	case usecase.CatalogComponent:
		return findAsset[Component](ctx, f.db, id)
	}
	return usecase.Asset{}, false, fmt.Errorf("unknown catalog %q", f.catalog)
}

// findAsset treats ids that are not UUIDs as absent.
func findAsset[T assetRecord](ctx context.Context, db *gorm.DB, id string) (usecase.Asset, bool, error) {
	uid, err := uuid.Parse(id)
	if err != nil {
		return usecase.Asset{}, false, nil
	}

	var rec T
	err = db.WithContext(ctx).Where("id = ?", uid).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return usecase.Asset{}, false, nil
	}
	if err != nil {
		return usecase.Asset{}, false, err
	}
	return rec.ConvertToUsecase(), true, nil
}

func (s *service) ListAssets(ctx context.Context, c usecase.Catalog, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	switch c {
	case usecase.CatalogModel:
		return listAssets[Model3D](ctx, s.db, opt)
	case usecase.CatalogComponent:
		return listAssets[Component](ctx, s.db, opt)
	}
	return nil, 0, fmt.Errorf("unknown catalog %q", c)
}

func listAssets[T assetRecord](ctx context.Context, db *gorm.DB, opt usecase.ListAssetsOption) ([]usecase.Asset, int, error) {
	var (
		rows   []T
		assets []usecase.Asset
		count  int64
	)

	q := db.Model(new(T)).WithContext(ctx)
	if opt.Name != "" {
		q = q.Where("name ILIKE ?", "%"+opt.Name+"%")
	}
	if opt.Category != "" {
		q = q.Where("category = ?", opt.Category)
	}

	if err := q.Count(&count).Error; err != nil {
		return nil, 0, err
	}
	if opt.Limit > 0 {
		q = q.Limit(opt.Limit)
	}
	if opt.Skip > 0 {
		q = q.Offset(opt.Skip)
	}
	if err := q.Order("name ASC").Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	for _, r := range rows {
		assets = append(assets, r.ConvertToUsecase())
	}
	return assets, int(count), nil
}
