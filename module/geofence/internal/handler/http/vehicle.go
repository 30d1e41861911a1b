package http

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

type positionService interface {
	GetLatest(ctx context.Context, vehicleID string) (*domain.VehiclePosition, error)
	GetHistory(ctx context.Context, query *domain.HistoryQuery) ([]domain.VehiclePosition, error)
}

type trackingService interface {
	UpdatePositions(ctx context.Context, vehicles []domain.Vehicle) (service.PassResult, error)
	VehicleStatus(ctx context.Context, vehicleID string) (service.VehicleStatus, bool, error)
	ForgetVehicle(ctx context.Context, vehicleID string) (int, error)
}

type positionResponse struct {
	VehicleID string   `json:"vehicle_id"`
	Latitude  float64  `json:"latitude"`
	Longitude float64  `json:"longitude"`
	Speed     *float64 `json:"speed,omitempty"`
	Timestamp int64    `json:"timestamp"`
}

type positionRequest struct {
	VehicleID string   `json:"vehicle_id"`
	Name      string   `json:"name"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	Speed     *float64 `json:"speed"`
	Timestamp int64    `json:"timestamp"`
}

type VehicleHandler struct {
	positionSvc positionService
	trackingSvc trackingService
}

func NewVehicleHandler(positionSvc positionService, trackingSvc trackingService) *VehicleHandler {
	return &VehicleHandler{positionSvc: positionSvc, trackingSvc: trackingSvc}
}

func (h *VehicleHandler) Register(r *gin.RouterGroup) {
	r.POST("/positions", h.PostPositions)
	r.GET("/vehicles/:vehicle_id/position", h.GetLatestPosition)
	r.GET("/vehicles/:vehicle_id/history", h.GetHistory)
	r.GET("/vehicles/:vehicle_id/status", h.GetStatus)
	r.DELETE("/vehicles/:vehicle_id/tracking", h.ForgetVehicle)
}

// PostPositions runs a detection pass over a batch of vehicle states. A
// vehicle without latitude and longitude has no fix and is skipped by the
// engine.
func (h *VehicleHandler) PostPositions(c *gin.Context) {
	var req []positionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	vehicles := make([]domain.Vehicle, 0, len(req))
	for _, p := range req {
		if p.VehicleID == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "vehicle_id is required"})
			return
		}
		v := domain.Vehicle{ID: p.VehicleID, Name: p.Name}
		if p.Latitude != nil && p.Longitude != nil {
			v.Position = &domain.Position{
				Lat:   *p.Latitude,
				Lng:   *p.Longitude,
				Speed: p.Speed,
			}
			if p.Timestamp > 0 {
				v.Position.Timestamp = time.Unix(p.Timestamp, 0)
			}
		}
		vehicles = append(vehicles, v)
	}

	res, err := h.trackingSvc.UpdatePositions(c.Request.Context(), vehicles)
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, res)
}

func (h *VehicleHandler) GetLatestPosition(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	vp, err := h.positionSvc.GetLatest(c.Request.Context(), vehicleID)
	if errors.Is(err, sql.ErrNoRows) {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not found"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch position"})
		return
	}

	c.JSON(http.StatusOK, toPositionResponse(vp))
}

func (h *VehicleHandler) GetHistory(c *gin.Context) {
	vehicleID := c.Param("vehicle_id")

	start, err := strconv.ParseInt(c.Query("start"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid start parameter"})
		return
	}

	end, err := strconv.ParseInt(c.Query("end"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid end parameter"})
		return
	}
	if end < start {
		c.JSON(http.StatusBadRequest, gin.H{"error": "end must not be before start"})
		return
	}

	query := &domain.HistoryQuery{
		VehicleID: vehicleID,
		Start:     time.Unix(start, 0),
		End:       time.Unix(end, 0),
	}

	positions, err := h.positionSvc.GetHistory(c.Request.Context(), query)
	if errors.Is(err, service.ErrInvalidRange) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to fetch history"})
		return
	}

	results := make([]positionResponse, len(positions))
	for i := range positions {
		results[i] = toPositionResponse(&positions[i])
	}
	c.JSON(http.StatusOK, results)
}

func (h *VehicleHandler) GetStatus(c *gin.Context) {
	st, ok, err := h.trackingSvc.VehicleStatus(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		engineError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"error": "vehicle not tracked"})
		return
	}
	c.JSON(http.StatusOK, st)
}

// ForgetVehicle is called when a vehicle is deleted, so none of its pending
// notifications come back.
func (h *VehicleHandler) ForgetVehicle(c *gin.Context) {
	n, err := h.trackingSvc.ForgetVehicle(c.Request.Context(), c.Param("vehicle_id"))
	if err != nil {
		engineError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"violations_cleared": n})
}

func toPositionResponse(vp *domain.VehiclePosition) positionResponse {
	return positionResponse{
		VehicleID: vp.VehicleID,
		Latitude:  vp.Position.Lat,
		Longitude: vp.Position.Lng,
		Speed:     vp.Position.Speed,
		Timestamp: vp.Position.Timestamp.Unix(),
	}
}
