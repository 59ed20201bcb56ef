package server

import (
	"time"

	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/usecase"
)

type Asset struct {
	ID          string `json:"id"`
	Catalog     string `json:"catalog"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
	FileURL     string `json:"file_url"`
	Format      string `json:"format,omitempty"`
	Thumbnail   string `json:"thumbnail,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

func ConvertAssetFrom(a usecase.Asset) Asset {
	asset := Asset{
		ID:          a.ID,
		Catalog:     string(a.Catalog),
		Name:        a.Name,
		Description: a.Description,
		Category:    a.Category,
		FileURL:     a.FileURL,
		Format:      a.Format,
		Thumbnail:   a.Thumbnail,
	}
	if !a.CreatedAt.IsZero() {
		asset.CreatedAt = a.CreatedAt.UTC().Format(time.RFC3339)
	}
	if !a.UpdatedAt.IsZero() {
		asset.UpdatedAt = a.UpdatedAt.UTC().Format(time.RFC3339)
	}
	return asset
}

type ListAssetsRequest struct {
	Catalog  string `param:"catalog" validate:"required"`
	Skip     int    `query:"skip" validate:"gte=0"`
	Limit    int    `query:"limit" validate:"required,gte=1,lte=100"`
	Name     string `query:"name"`
	Category string `query:"category"`
}

func (s *Server) ListAssets(ctx echo.Context) error {
	var req = ListAssetsRequest{Limit: 20}
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	catalog, ok := usecase.ParseCatalog(req.Catalog)
	if !ok {
		return ctx.JSON(404, map[string]string{"error": "unknown catalog " + req.Catalog})
	}

	list, total, err := s.server.ListAssets(ctx.Request().Context(), catalog, usecase.ListAssetsOption{
		Skip:     req.Skip,
		Limit:    req.Limit,
		Name:     req.Name,
		Category: req.Category,
	})
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	assets := make([]Asset, 0, len(list))
	for _, a := range list {
		assets = append(assets, ConvertAssetFrom(a))
	}

	return ctx.JSON(200, Res{
		Data: assets,
		Meta: &Meta{
			Total: total,
			Skip:  req.Skip,
			Limit: req.Limit,
		},
	})
}

type GetAssetRequest struct {
	Catalog string `param:"catalog" validate:"required"`
	ID      string `param:"id" validate:"required"`
}

func (s *Server) GetAsset(ctx echo.Context) error {
	var req GetAssetRequest
	if err := ctx.Bind(&req); err != nil {
		return ctx.JSON(400, map[string]string{"error": err.Error()})
	}
	if err := s.validator.Struct(req); err != nil {
		return ctx.JSON(422, map[string]string{"error": err.Error()})
	}
	catalog, ok := usecase.ParseCatalog(req.Catalog)
	if !ok {
		return ctx.JSON(404, map[string]string{"error": "unknown catalog " + req.Catalog})
	}

	a, err := s.server.GetAsset(ctx.Request().Context(), catalog, req.ID)
	if err != nil {
		return s.errorJSON(ctx, err)
	}

	return ctx.JSON(200, Res{Data: ConvertAssetFrom(a)})
}
