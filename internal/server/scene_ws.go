package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/labstack/echo/v4"

	"github.com/roomcraft/roomcraft/internal/usecase"
)

const (
	wsWriteTimeout = 10 * time.Second
	wsPingInterval = 30 * time.Second
)

// StreamScene pushes the scene to the renderer as JSON: the current state on
// connect, then a fresh snapshot after every change. A slow client only ever
// receives the latest snapshot. The stream ends when the client goes away or
// the scene is closed.
func (s *Server) StreamScene(ctx echo.Context) error {
	scene, err := s.scene(ctx)
	if scene == nil {
		return err
	}

	// lift the server write timeout for the long lived connection
	_ = http.NewResponseController(ctx.Response()).SetWriteDeadline(time.Time{})

	conn, err := websocket.Accept(ctx.Response(), ctx.Request(), &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		s.logger.WarnContext(ctx.Request().Context(), "websocket accept failed", slog.Any("error", err))
		return nil
	}
	defer conn.CloseNow()

	updates := make(chan usecase.SceneSnapshot, 1)
	cancel := scene.Subscribe(func(snap usecase.SceneSnapshot) {
		latest(updates, snap)
	})
	defer cancel()

	rctx := conn.CloseRead(ctx.Request().Context())
	sceneID := scene.ID()

	if err := writeScene(rctx, conn, scene.Snapshot()); err != nil {
		return nil
	}

	ticker := time.NewTicker(wsPingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-rctx.Done():
			return nil
		case snap := <-updates:
			if snap.Closed {
				conn.Close(websocket.StatusGoingAway, "scene closed")
				return nil
			}
			if err := writeScene(rctx, conn, snap); err != nil {
				s.logger.DebugContext(rctx, "scene stream write failed",
					slog.String("scene_id", sceneID.String()),
					slog.Any("error", err))
				return nil
			}
		case <-ticker.C:
			// catches a close that happened before Subscribe
			if _, err := s.server.GetScene(rctx, sceneID); err != nil {
				conn.Close(websocket.StatusGoingAway, "scene closed")
				return nil
			}
			pctx, cancel := context.WithTimeout(rctx, wsWriteTimeout)
			err := conn.Ping(pctx)
			cancel()
			if err != nil {
				return nil
			}
		}
	}
}

// latest replaces whatever is buffered in ch with snap. It never blocks.
func latest(ch chan usecase.SceneSnapshot, snap usecase.SceneSnapshot) {
	for {
		select {
		case ch <- snap:
			return
		default:
		}
		select {
		case <-ch:
		default:
		}
	}
}

func writeScene(ctx context.Context, conn *websocket.Conn, snap usecase.SceneSnapshot) error {
	ctx, cancel := context.WithTimeout(ctx, wsWriteTimeout)
	defer cancel()
	return wsjson.Write(ctx, conn, ConvertSceneFrom(snap))
}
