package usecase

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Catalog tags which read-only catalog an asset lives in. The values are
// persisted as the discriminator on stored objects.
type Catalog string

const (
	CatalogModel     Catalog = "Model3D"
	CatalogComponent Catalog = "Component"
)

func (c Catalog) Valid() bool {
	return c == CatalogModel || c == CatalogComponent
}

// ParseCatalog accepts either the stored tag or the plural path segment
// used by the API.
func ParseCatalog(s string) (Catalog, bool) {
	switch s {
	case "models", string(CatalogModel):
		return CatalogModel, true
	case "components", string(CatalogComponent):
		return CatalogComponent, true
	}
	return "", false
}

// AssetRef is a reference decided once at placement time. Later checks only
// consult the tagged catalog.
type AssetRef struct {
	AssetID string  `json:"asset_id"`
	Catalog Catalog `json:"asset_type"`
}

type Asset struct {
	ID          string    `json:"id"`
	Catalog     Catalog   `json:"catalog"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	Category    string    `json:"category,omitempty"`
	FileURL     string    `json:"file_url"`
	Format      string    `json:"format,omitempty"`
	Thumbnail   string    `json:"thumbnail,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AssetFinder looks up a single catalog. A missing asset is reported with
// ok=false; err is reserved for lookup failures.
type AssetFinder interface {
	FindAssetByID(ctx context.Context, id string) (Asset, bool, error)
}

type ListAssetsOption struct {
	Skip     int
	Limit    int
	Name     string
	Category string
}

func (u Usecase) ListAssets(ctx context.Context, catalog Catalog, opt ListAssetsOption) ([]Asset, int, error) {
	if !catalog.Valid() {
		return nil, 0, ValidationError{Field: "catalog", Message: "unknown catalog " + string(catalog)}
	}
	assets, total, err := u.repo.ListAssets(ctx, catalog, opt)
	if err != nil {
		return nil, 0, fmt.Errorf("list %s assets: %w", catalog, err)
	}
	return assets, total, nil
}

func (u Usecase) GetAsset(ctx context.Context, catalog Catalog, id string) (Asset, error) {
	if !catalog.Valid() {
		return Asset{}, ValidationError{Field: "catalog", Message: "unknown catalog " + string(catalog)}
	}
	asset, ok, err := u.resolver.Lookup(ctx, AssetRef{AssetID: id, Catalog: catalog})
	if err != nil {
		return Asset{}, err
	}
	if !ok {
		aid, _ := uuid.Parse(id)
		return Asset{}, ErrNotFound{
			ID:      aid,
			Code:    "asset_not_found",
			Message: "asset " + id + " not found",
		}
	}
	return asset, nil
}
