package server

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.opentelemetry.io/contrib/instrumentation/github.com/labstack/echo/otelecho"
	"golang.org/x/time/rate"

	"github.com/roomcraft/roomcraft/internal/config"
)

func (s *Server) RegisterRoutes(serviceName string) http.Handler {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(otelecho.Middleware(serviceName, otelecho.WithSkipper(skipper)))
	e.Use(NewEchoLogger(s.logger))

	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"https://*", "http://*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", config.HEADER_KEY_X_USER_ID},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	e.Use(middleware.RateLimiterWithConfig(middleware.RateLimiterConfig{
		Skipper: skipper,
		Store: middleware.NewRateLimiterMemoryStoreWithConfig(middleware.RateLimiterMemoryStoreConfig{
			Rate:      rate.Limit(config.RATE_LIMIT_PER_SECOND),
			Burst:     config.RATE_LIMIT_BURST,
			ExpiresIn: 3 * time.Minute,
		}),
		DenyHandler: func(ctx echo.Context, _ string, err error) error {
			return ctx.JSON(http.StatusTooManyRequests, Res{Error: "rate limit exceeded"})
		},
	}))

	e.GET("/api/health", s.healthHandler)

	v1 := e.Group("/api/v1")

	var catalogGroup = v1.Group("/catalogs/:catalog/assets")
	catalogGroup.GET("", s.ListAssets)
	catalogGroup.GET("/:id", s.GetAsset)

	var sceneGroup = v1.Group("/scenes", s.WithUserID)
	sceneGroup.POST("", s.OpenScene)
	sceneGroup.GET("/:id", s.GetScene)
	sceneGroup.DELETE("/:id", s.CloseScene)
	sceneGroup.POST("/:id/instances", s.AddInstance)
	sceneGroup.PUT("/:id/selection", s.SelectInstance)
	sceneGroup.PATCH("/:id/instances/:iid/transform", s.TransformInstance)
	sceneGroup.PUT("/:id/instances/:iid/material", s.SetMaterial)
	sceneGroup.DELETE("/:id/instances/:iid/material", s.ResetMaterial)
	sceneGroup.DELETE("/:id/instances/:iid", s.RemoveInstance)
	sceneGroup.POST("/:id/save", s.SaveScene)
	sceneGroup.GET("/:id/manifest", s.SceneManifest)
	sceneGroup.GET("/:id/ws", s.StreamScene)

	var projectGroup = v1.Group("/projects", s.WithUserID)
	projectGroup.GET("", s.ListProjects)
	projectGroup.GET("/:id", s.GetProject)
	projectGroup.DELETE("/:id", s.DeleteProject)
	projectGroup.POST("/:id/load", s.LoadProject)
	projectGroup.POST("/:id/duplicate", s.DuplicateProject)
	projectGroup.POST("/:id/exports", s.ExportProject)

	var jobGroup = v1.Group("/jobs", s.WithUserID)
	jobGroup.GET("/:id", s.GetJobByID)
	jobGroup.GET("/:id/download", s.GetExportURL)

	return e
}

func (s *Server) healthHandler(ctx echo.Context) error {
	return ctx.JSON(http.StatusOK, s.server.Health())
}
