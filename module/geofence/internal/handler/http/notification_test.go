package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

func TestGetCurrentNotification(t *testing.T) {
	ts := time.Unix(1715003456, 0).UTC()
	svc := &mockGeofenceService{
		currentNotificationFn: func(context.Context) (domain.Notification, bool, error) {
			return domain.Notification{
				ID:        "violation-1",
				VehicleID: "B1234XYZ",
				ZoneID:    "depot",
				Kind:      domain.ViolationEnter,
				Message:   "VIOLATION: vehicle Truck 7 entered geofence Depot (FORBIDDEN)",
				Timestamp: ts,
			}, true, nil
		},
	}

	r := setupRouter(NewNotificationHandler(svc))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/current", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	var n domain.Notification
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &n))
	assert.Equal(t, "violation-1", n.ID)
	assert.Equal(t, domain.ViolationEnter, n.Kind)
	assert.True(t, n.Timestamp.Equal(ts))
}

func TestGetCurrentNotification_None(t *testing.T) {
	svc := &mockGeofenceService{
		currentNotificationFn: func(context.Context) (domain.Notification, bool, error) {
			return domain.Notification{}, false, nil
		},
	}

	r := setupRouter(NewNotificationHandler(svc))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/current", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestGetCurrentNotification_EngineStopped(t *testing.T) {
	svc := &mockGeofenceService{
		currentNotificationFn: func(context.Context) (domain.Notification, bool, error) {
			return domain.Notification{}, false, service.ErrStopped
		},
	}

	r := setupRouter(NewNotificationHandler(svc))
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/notifications/current", nil)
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestDismissNotification(t *testing.T) {
	tests := []struct {
		name     string
		ok       bool
		err      error
		wantCode int
	}{
		{"dismissed", true, nil, http.StatusNoContent},
		{"not visible", false, nil, http.StatusNotFound},
		{"engine error", false, errors.New("deadline exceeded"), http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var gotID string
			svc := &mockGeofenceService{
				dismissFn: func(_ context.Context, id string) (bool, error) {
					gotID = id
					return tt.ok, tt.err
				},
			}

			r := setupRouter(NewNotificationHandler(svc))
			w := httptest.NewRecorder()
			req, _ := http.NewRequest("POST", "/notifications/violation-7/dismiss", nil)
			r.ServeHTTP(w, req)

			assert.Equal(t, tt.wantCode, w.Code)
			assert.Equal(t, "violation-7", gotID)
		})
	}
}
