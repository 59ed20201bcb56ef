package server

import (
	"context"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/config"
)

// WithUserID reads the acting user from the X-User-Id header and stores it
// in the request context. Browsers cannot set headers on a websocket
// handshake, so upgrades may pass it as the user_id query parameter.
func (s *Server) WithUserID(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		raw := c.Request().Header.Get(config.HEADER_KEY_X_USER_ID)
		if raw == "" && c.IsWebSocket() {
			raw = c.QueryParam("user_id")
		}

		userID, err := uuid.Parse(raw)
		if err != nil || userID == uuid.Nil {
			return c.JSON(401, Res{
				Error:   "missing or invalid " + config.HEADER_KEY_X_USER_ID,
				Message: "User not identified",
			})
		}

		ctx := context.WithValue(c.Request().Context(), config.CTX_KEY_USER_ID, userID)
		c.SetRequest(c.Request().WithContext(ctx))

		return next(c)
	}
}

func userID(c echo.Context) uuid.UUID {
	id, _ := c.Request().Context().Value(config.CTX_KEY_USER_ID).(uuid.UUID)
	return id
}
