package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/usecase"
)

// errorJSON maps usecase errors onto HTTP statuses. Anything unrecognised is
// logged and reported as 500.
func (s *Server) errorJSON(ctx echo.Context, err error) error {
	var (
		verr usecase.ValidationError
		nf   usecase.ErrNotFound
	)
	switch {
	case errors.As(err, &verr):
		return ctx.JSON(http.StatusUnprocessableEntity, Res{Error: verr.Error(), Message: "invalid " + verr.Field})
	case errors.As(err, &nf):
		return ctx.JSON(http.StatusNotFound, Res{Error: nf.Error(), Message: nf.Code})
	case errors.Is(err, usecase.ErrAssetNotFound):
		return ctx.JSON(http.StatusNotFound, Res{Error: err.Error(), Message: usecase.ErrAssetNotFound.Error()})
	case errors.Is(err, usecase.ErrExportNotReady):
		return ctx.JSON(http.StatusConflict, Res{Error: err.Error(), Message: usecase.ErrExportNotReady.Error()})
	case errors.Is(err, usecase.ErrAuthorization):
		return ctx.JSON(http.StatusForbidden, Res{Error: err.Error(), Message: "Forbidden"})
	}

	s.logger.ErrorContext(ctx.Request().Context(), "request failed",
		slog.String("path", ctx.Path()),
		slog.Any("error", err))
	return ctx.JSON(http.StatusInternalServerError, Res{Error: err.Error()})
}

func instanceNotFound(id string) error {
	return usecase.ErrNotFound{
		Code:    "instance_not_found",
		Message: "instance " + id + " not found",
	}
}
