package config

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
)

const checkTimeout = 2 * time.Second

// dependencyCheck probes one backing service. A failing optional dependency
// reports as degraded and does not fail the endpoint.
type dependencyCheck struct {
	name     string
	optional bool
	probe    func(ctx context.Context) error
}

type HealthChecker struct {
	checks []dependencyCheck
}

// NewHealthChecker reports on postgres, rabbitmq and mqtt, plus redis when
// rdb is not nil. Redis only backs the zone cache, so it is optional.
func NewHealthChecker(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, rdb *redis.Client) *HealthChecker {
	checks := []dependencyCheck{
		{name: "postgres", probe: db.PingContext},
		{name: "rabbitmq", probe: func(context.Context) error {
			if amqpConn.IsClosed() {
				return errors.New("connection closed")
			}
			return nil
		}},
		{name: "mqtt", probe: func(context.Context) error {
			if !mqttClient.IsConnectionOpen() {
				return errors.New("not connected")
			}
			return nil
		}},
	}
	if rdb != nil {
		checks = append(checks, dependencyCheck{
			name:     "redis",
			optional: true,
			probe:    func(ctx context.Context) error { return rdb.Ping(ctx).Err() },
		})
	}
	return &HealthChecker{checks: checks}
}

func (h *HealthChecker) Register(r *gin.Engine) {
	r.GET("/healthz", h.Handle)
}

func (h *HealthChecker) Handle(c *gin.Context) {
	status := http.StatusOK
	deps := gin.H{}

	for _, chk := range h.checks {
		ctx, cancel := context.WithTimeout(c.Request.Context(), checkTimeout)
		err := chk.probe(ctx)
		cancel()

		switch {
		case err == nil:
			deps[chk.name] = gin.H{"status": "up"}
		case chk.optional:
			deps[chk.name] = gin.H{"status": "degraded", "error": err.Error()}
		default:
			deps[chk.name] = gin.H{"status": "down", "error": err.Error()}
			status = http.StatusServiceUnavailable
		}
	}

	overall := "healthy"
	if status != http.StatusOK {
		overall = "unhealthy"
	}

	c.JSON(status, gin.H{
		"status":       overall,
		"dependencies": deps,
	})
}
