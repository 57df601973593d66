package server

import (
	"context"
	"encoding/json"
	"log/slog"

	"socialhub/internal/middleware"
	"socialhub/internal/models"
	"socialhub/internal/notifications"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
)

// WebsocketUpgrade rejects plain HTTP requests to the stream endpoint.
// It must run after AuthRequired.
func (s *Server) WebsocketUpgrade(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return c.Status(fiber.StatusUpgradeRequired).JSON(fiber.Map{
			"statusCode": fiber.StatusUpgradeRequired,
			"message":    "WebSocket upgrade required",
			"success":    false,
			"code":       models.CodeForStatus(fiber.StatusUpgradeRequired),
		})
	}
	return c.Next()
}

// WebsocketHandler handles GET /ws
// @Summary Realtime notification stream
// @Description Frames are {"type": <event>, "payload": {...}}. Browsers may pass the access token as ?token=.
// @Tags realtime
// @Security BearerAuth
// @Router /ws [get]
func (s *Server) WebsocketHandler() fiber.Handler {
	return websocket.New(func(conn *websocket.Conn) {
		uid, ok := conn.Locals("userID").(uint)
		if !ok || uid == 0 {
			_ = conn.Close()
			return
		}

		client, err := s.hub.Register(uid, conn)
		if err != nil {
			middleware.Logger.Warn("websocket registration rejected",
				slog.Uint64("user_id", uint64(uid)), slog.String("error", err.Error()))
			_ = conn.WriteMessage(websocket.TextMessage, []byte(`{"error":"`+err.Error()+`"}`))
			_ = conn.Close()
			return
		}
		defer s.hub.UnregisterClient(client)

		s.sendUnreadSnapshot(client)

		writerDone := make(chan struct{})
		go func() {
			defer close(writerDone)
			client.WritePump()
		}()
		client.ReadPump()
		// The connection is released when the handler returns.
		<-writerDone
	})
}

// sendUnreadSnapshot queues the unread counter so a fresh connection starts
// in sync.
func (s *Server) sendUnreadSnapshot(client *notifications.Client) {
	ctx := s.shutdownCtx
	if ctx == nil {
		ctx = context.Background()
	}
	n, err := s.notificationService.UnreadCount(ctx, client.UserID)
	if err != nil {
		middleware.Logger.Warn("failed to load unread count",
			slog.Uint64("user_id", uint64(client.UserID)), slog.String("error", err.Error()))
		return
	}
	raw, err := json.Marshal(notifications.Event{
		Type:    notifications.EventUnreadCount,
		Payload: fiber.Map{"count": n},
	})
	if err != nil {
		return
	}
	client.TrySend(raw)
}
