package ws

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type currentNotifier interface {
	CurrentNotification(ctx context.Context) (domain.Notification, bool, error)
}

// NotificationHandler exposes the hub over HTTP and greets each new client
// with the notification currently on screen.
type NotificationHandler struct {
	hub     *NotificationHub
	current currentNotifier
}

func NewNotificationHandler(hub *NotificationHub, current currentNotifier) *NotificationHandler {
	return &NotificationHandler{hub: hub, current: current}
}

func (h *NotificationHandler) Register(r *gin.RouterGroup) {
	r.GET("/ws/notifications", h.ServeWS)
}

func (h *NotificationHandler) ServeWS(c *gin.Context) {
	h.hub.Serve(c.Writer, c.Request, h.greeting(c.Request.Context()))
}

func (h *NotificationHandler) greeting(ctx context.Context) []byte {
	if h.current == nil {
		return nil
	}
	n, ok, err := h.current.CurrentNotification(ctx)
	if err != nil {
		slog.Warn("current notification lookup failed", "err", err)
		return nil
	}
	if !ok {
		return nil
	}
	data, err := json.Marshal(&domain.NotificationEvent{
		Type:           domain.NotificationShown,
		NotificationID: n.ID,
		Notification:   &n,
		Timestamp:      n.Timestamp,
	})
	if err != nil {
		return nil
	}
	return data
}
