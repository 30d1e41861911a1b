package http

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type zoneService interface {
	Zones(ctx context.Context) ([]domain.Zone, error)
}

type zoneRefresher interface {
	Refresh(ctx context.Context, invalidate bool) ([]domain.Zone, error)
}

type ZoneHandler struct {
	svc       zoneService
	refresher zoneRefresher
}

func NewZoneHandler(svc zoneService, refresher zoneRefresher) *ZoneHandler {
	return &ZoneHandler{svc: svc, refresher: refresher}
}

func (h *ZoneHandler) Register(r *gin.RouterGroup) {
	r.GET("/zones", h.List)
	r.POST("/zones/refresh", h.Refresh)
}

func (h *ZoneHandler) List(c *gin.Context) {
	zones, err := h.svc.Zones(c.Request.Context())
	if err != nil {
		engineError(c, err)
		return
	}
	if zones == nil {
		zones = []domain.Zone{}
	}
	c.JSON(http.StatusOK, zones)
}

// Refresh is called by the zone CRUD layer after it creates or deletes a zone.
func (h *ZoneHandler) Refresh(c *gin.Context) {
	zones, err := h.refresher.Refresh(c.Request.Context(), true)
	if err != nil {
		slog.Error("zone refresh failed", "err", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "failed to reload zones"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"count": len(zones)})
}
