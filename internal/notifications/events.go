package notifications

import (
	"context"
	"encoding/json"
	"log/slog"

	"socialhub/internal/featureflags"
	"socialhub/internal/middleware"
	"socialhub/internal/observability"
)

// Realtime event types pushed to clients.
const (
	EventNotification          = "notification"
	EventFriendRequestReceived = "friend_request_received"
	EventFriendRequestAccepted = "friend_request_accepted"
	EventFriendRemoved         = "friend_removed"
	EventUnreadCount           = "unread_count"
	EventMessagesDropped       = "messages_dropped"
)

// Event is the envelope written to websocket clients.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

// Publisher delivers events to a user's connections. With Redis configured
// events travel through pub/sub and the subscriber started by
// Hub.StartWiring fans them out; otherwise they go straight to the local hub.
type Publisher struct {
	hub      *Hub
	notifier *Notifier
	flags    *featureflags.Manager
}

// NewPublisher wires a publisher. notifier and flags may be nil.
func NewPublisher(hub *Hub, notifier *Notifier, flags *featureflags.Manager) *Publisher {
	return &Publisher{hub: hub, notifier: notifier, flags: flags}
}

// Publish pushes an event to userID. Delivery is best-effort; failures are
// logged and counted, never returned.
func (p *Publisher) Publish(ctx context.Context, userID uint, eventType string, payload interface{}) {
	if p == nil || userID == 0 {
		return
	}
	if p.flags != nil && !p.flags.Enabled(featureflags.RealtimePush, userID) {
		observability.NotificationPushes.WithLabelValues("none", "disabled").Inc()
		return
	}

	raw, err := json.Marshal(Event{Type: eventType, Payload: payload})
	if err != nil {
		middleware.Logger.Error("failed to encode realtime event",
			slog.String("type", eventType), slog.String("error", err.Error()))
		observability.NotificationPushes.WithLabelValues("none", "encode_error").Inc()
		return
	}

	if p.notifier.Enabled() {
		err := p.notifier.PublishUser(ctx, userID, string(raw))
		if err == nil {
			observability.NotificationPushes.WithLabelValues("redis", "published").Inc()
			return
		}
		middleware.Logger.Warn("redis publish failed, delivering locally",
			slog.Uint64("user_id", uint64(userID)), slog.String("error", err.Error()))
		observability.NotificationPushes.WithLabelValues("redis", "error").Inc()
	}

	if p.hub == nil {
		return
	}
	if p.hub.Broadcast(userID, string(raw)) > 0 {
		observability.NotificationPushes.WithLabelValues("local", "delivered").Inc()
	} else {
		observability.NotificationPushes.WithLabelValues("local", "offline").Inc()
	}
}
