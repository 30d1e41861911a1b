package geofence

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/gin-gonic/gin"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	handler "github.com/nandanugg/fleet-geofence/module/geofence/internal/handler/http"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/handler/subscriber"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/handler/ws"
	cache "github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/cache/redis"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/database/postgres"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/file"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/publisher/rabbitmq"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

const broadcastBuffer = 64

type Options struct {
	Engine service.Config

	// ZonesFile switches the zone source from the geofences table to a YAML
	// file. File zones are not cached.
	ZonesFile           string
	ZoneCacheTTL        time.Duration
	ZoneRefreshInterval time.Duration
}

type registrar interface {
	Register(r *gin.RouterGroup)
}

type Module struct {
	PositionSvc *service.PositionService
	GeofenceSvc *service.GeofenceService

	refresher   *service.ZoneRefresher
	broadcaster *service.Broadcaster
	hub         *ws.NotificationHub
	handlers    []registrar
	subscriber  *subscriber.PositionSubscriber
}

// Build wires the geofence module. rdb may be nil, in which case zones are
// read from their source on every refresh.
func Build(db *sql.DB, amqpConn *amqp.Connection, mqttClient mqtt.Client, rdb *redis.Client, opts Options) (*Module, error) {
	positionRepo := postgres.NewPositionRepo(db)
	violationRepo := postgres.NewViolationRepo(db)

	var zoneRepo database.ZoneRepository
	if opts.ZonesFile != "" {
		zoneRepo = file.NewZoneRepo(opts.ZonesFile)
	} else {
		zoneRepo = postgres.NewZoneRepo(db)
		if rdb != nil {
			zoneRepo = cache.NewZoneCache(rdb, zoneRepo, opts.ZoneCacheTTL)
		}
	}

	notificationPub, err := rabbitmq.NewNotificationPublisher(amqpConn)
	if err != nil {
		return nil, fmt.Errorf("notification publisher: %w", err)
	}
	hub := ws.NewNotificationHub()
	broadcaster := service.NewBroadcaster(broadcastBuffer, notificationPub, hub)

	positionSvc := service.NewPositionService(positionRepo)
	geofenceSvc := service.NewGeofenceService(opts.Engine, broadcaster, violationRepo)
	refresher := service.NewZoneRefresher(zoneRepo, geofenceSvc, opts.ZoneRefreshInterval)

	return &Module{
		PositionSvc: positionSvc,
		GeofenceSvc: geofenceSvc,
		refresher:   refresher,
		broadcaster: broadcaster,
		hub:         hub,
		handlers: []registrar{
			handler.NewVehicleHandler(positionSvc, geofenceSvc),
			handler.NewNotificationHandler(geofenceSvc),
			handler.NewViolationHandler(geofenceSvc),
			handler.NewZoneHandler(geofenceSvc, refresher),
			ws.NewNotificationHandler(hub, geofenceSvc),
		},
		subscriber: subscriber.NewPositionSubscriber(mqttClient, positionSvc, geofenceSvc),
	}, nil
}

func (m *Module) RegisterRoutes(r *gin.RouterGroup) {
	for _, h := range m.handlers {
		h.Register(r)
	}
}

func (m *Module) StartSubscribers() error {
	return m.subscriber.Start()
}

// Run serves the engine loop, the notification fan-out and the zone refresher
// until ctx is done or one of them fails.
func (m *Module) Run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return m.GeofenceSvc.Run(ctx) })
	g.Go(func() error { return m.broadcaster.Run(ctx) })
	g.Go(func() error { return m.hub.Run(ctx) })
	g.Go(func() error { return m.refresher.Run(ctx) })

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

// LoadZonesFile reads a YAML zones document, as used by ZONES_FILE.
func LoadZonesFile(path string) ([]domain.Zone, error) {
	return file.NewZoneRepo(path).List(context.Background())
}
