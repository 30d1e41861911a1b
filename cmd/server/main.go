package main

import (
	"context"
	"errors"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"golang.org/x/sync/errgroup"

	"github.com/nandanugg/fleet-geofence/config"
	"github.com/nandanugg/fleet-geofence/module/geofence"
	"github.com/nandanugg/fleet-geofence/module/geofence/service"
)

func main() {
	cfg := config.Load()
	slog.SetDefault(config.NewLogger(cfg, os.Stderr))

	db, err := config.NewPostgres(cfg)
	if err != nil {
		log.Fatalf("postgres: %v", err)
	}
	defer func() { _ = db.Close() }()

	amqpConn, err := config.NewRabbitMQ(cfg)
	if err != nil {
		log.Fatalf("rabbitmq: %v", err)
	}
	defer func() { _ = amqpConn.Close() }()

	mqttClient, err := config.NewMQTT(cfg)
	if err != nil {
		log.Fatalf("mqtt: %v", err)
	}
	defer mqttClient.Disconnect(250)

	var rdb *redis.Client
	if cfg.ZonesFile == "" {
		rdb, err = config.NewRedis(cfg)
		if err != nil {
			slog.Warn("redis unavailable, zone cache disabled", "err", err)
		} else {
			defer func() { _ = rdb.Close() }()
		}
	}

	geofenceModule, err := geofence.Build(db, amqpConn, mqttClient, rdb, geofence.Options{
		Engine: service.Config{
			AutoRemoveDelay: cfg.NotificationAutoRemove,
			ReshowDelay:     cfg.NotificationReshow,
			PersistTimeout:  cfg.PersistTimeout,
		},
		ZonesFile:           cfg.ZonesFile,
		ZoneCacheTTL:        cfg.ZoneCacheTTL,
		ZoneRefreshInterval: cfg.ZoneRefreshInterval,
	})
	if err != nil {
		log.Fatalf("geofence module: %v", err)
	}

	if err := geofenceModule.StartSubscribers(); err != nil {
		log.Fatalf("start subscribers: %v", err)
	}

	gin.SetMode(gin.ReleaseMode)
	r := gin.New()
	r.Use(gin.Recovery())

	health := config.NewHealthChecker(db, amqpConn, mqttClient, rdb)
	health.Register(r)

	geofenceModule.RegisterRoutes(&r.RouterGroup)

	c := cors.New(cors.Options{
		AllowedOrigins: cfg.CORSAllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type"},
	})

	srv := &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           c.Handler(r),
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       time.Minute,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error { return geofenceModule.Run(ctx) })
	g.Go(func() error {
		slog.Info("listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Fatalf("server: %v", err)
	}
	slog.Info("shut down")
}
