package http

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type violationService interface {
	ActiveViolations(ctx context.Context) ([]domain.ActiveViolation, error)
	ClearViolation(ctx context.Context, key domain.ViolationKey) (bool, error)
}

type violationResponse struct {
	Key         string               `json:"key"`
	VehicleID   string               `json:"vehicle_id"`
	VehicleName string               `json:"vehicle_name"`
	ZoneID      string               `json:"zone_id"`
	ZoneName    string               `json:"zone_name"`
	Rule        domain.RuleKind      `json:"rule"`
	Kind        domain.ViolationKind `json:"kind"`
	Location    string               `json:"location,omitempty"`
	Message     string               `json:"message"`
	DetectedAt  int64                `json:"detected_at"`
}

type ViolationHandler struct {
	svc violationService
}

func NewViolationHandler(svc violationService) *ViolationHandler {
	return &ViolationHandler{svc: svc}
}

func (h *ViolationHandler) Register(r *gin.RouterGroup) {
	r.GET("/violations", h.List)
	r.DELETE("/violations", h.Clear)
}

func (h *ViolationHandler) List(c *gin.Context) {
	active, err := h.svc.ActiveViolations(c.Request.Context())
	if err != nil {
		engineError(c, err)
		return
	}

	results := make([]violationResponse, len(active))
	for i, v := range active {
		results[i] = toViolationResponse(v)
	}
	c.JSON(http.StatusOK, results)
}

func (h *ViolationHandler) Clear(c *gin.Context) {
	key := domain.ViolationKey{
		VehicleID: c.Query("vehicle_id"),
		ZoneID:    c.Query("zone_id"),
		Kind:      domain.ViolationKind(c.Query("kind")),
	}
	if key.VehicleID == "" || key.ZoneID == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id and zone_id are required"})
		return
	}
	if !key.Kind.Valid() {
		c.JSON(http.StatusBadRequest, gin.H{"error": "kind must be violation_enter or violation_exit"})
		return
	}

	ok, err := h.svc.ClearViolation(c.Request.Context(), key)
	if err != nil {
		engineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "violation not active"})
		return
	}
	c.Status(http.StatusNoContent)
}

func toViolationResponse(v domain.ActiveViolation) violationResponse {
	return violationResponse{
		Key:         v.Key.String(),
		VehicleID:   v.Key.VehicleID,
		VehicleName: v.Vehicle.DisplayName(),
		ZoneID:      v.Key.ZoneID,
		ZoneName:    v.Zone.Name,
		Rule:        v.Zone.Rule,
		Kind:        v.Key.Kind,
		Location:    v.Location(),
		Message:     v.Message(),
		DetectedAt:  v.DetectedAt.Unix(),
	}
}
