package http

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

type notificationService interface {
	CurrentNotification(ctx context.Context) (domain.Notification, bool, error)
	Dismiss(ctx context.Context, notificationID string) (bool, error)
}

type NotificationHandler struct {
	svc notificationService
}

func NewNotificationHandler(svc notificationService) *NotificationHandler {
	return &NotificationHandler{svc: svc}
}

func (h *NotificationHandler) Register(r *gin.RouterGroup) {
	r.GET("/notifications/current", h.GetCurrent)
	r.POST("/notifications/:id/dismiss", h.Dismiss)
}

func (h *NotificationHandler) GetCurrent(c *gin.Context) {
	n, ok, err := h.svc.CurrentNotification(c.Request.Context())
	if err != nil {
		engineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "no notification shown"})
		return
	}
	c.JSON(http.StatusOK, n)
}

func (h *NotificationHandler) Dismiss(c *gin.Context) {
	ok, err := h.svc.Dismiss(c.Request.Context(), c.Param("id"))
	if err != nil {
		engineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "notification not shown"})
		return
	}
	c.Status(http.StatusNoContent)
}

// engineError maps a failed call into the engine loop to a response.
func engineError(c *gin.Context, err error) {
	if errors.Is(err, service.ErrStopped) {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "geofence engine stopped"})
		return
	}
	c.JSON(http.StatusInternalServerError, gin.H{"error": "geofence engine unavailable"})
}
