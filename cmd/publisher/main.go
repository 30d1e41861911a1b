package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"os"
	"os/signal"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/spf13/cobra"

	"github.com/nandanugg/fleet-geofence/module/geofence"
	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type options struct {
	broker   string
	clientID string
	interval time.Duration
	vehicles int
	zones    string
	dwell    int
	seed     int64
}

func main() {
	if err := newRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	opts := &options{}

	cmd := &cobra.Command{
		Use:   "publisher",
		Short: "Simulate a fleet publishing positions over MQTT",
		Long: `Publish simulated vehicle positions to /fleet/vehicle/<id>/location.

With --zones, each vehicle is assigned a zone from the file and repeatedly
drives in and out of it, so both FORBIDDEN and STAY_IN rules fire.

Example:
  publisher --interval 2s --vehicles 5
  publisher --zones zones.yaml --dwell 4`,
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		PreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.interval <= 0 {
				return fmt.Errorf("interval must be positive, got %s", opts.interval)
			}
			if opts.vehicles <= 0 {
				return fmt.Errorf("vehicles must be positive, got %d", opts.vehicles)
			}
			if opts.dwell <= 0 {
				return fmt.Errorf("dwell must be positive, got %d", opts.dwell)
			}
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd.Context(), opts)
		},
	}

	broker := "tcp://localhost:1883"
	if v := os.Getenv("MQTT_BROKER"); v != "" {
		broker = v
	}

	cmd.Flags().StringVar(&opts.broker, "broker", broker, "MQTT broker URL")
	cmd.Flags().StringVar(&opts.clientID, "client-id", "fleet-mock-publisher", "MQTT client id")
	cmd.Flags().DurationVar(&opts.interval, "interval", 2*time.Second, "time between publish rounds")
	cmd.Flags().IntVar(&opts.vehicles, "vehicles", 5, "number of simulated vehicles")
	cmd.Flags().StringVar(&opts.zones, "zones", "", "YAML zones file to drive vehicles through")
	cmd.Flags().IntVar(&opts.dwell, "dwell", 3, "rounds spent inside or outside a zone before crossing")
	cmd.Flags().Int64Var(&opts.seed, "seed", time.Now().UnixNano(), "random seed")

	return cmd
}

func run(ctx context.Context, opts *options) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, stop := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var zones []domain.Zone
	if opts.zones != "" {
		var err error
		zones, err = geofence.LoadZonesFile(opts.zones)
		if err != nil {
			return err
		}
		slog.Info("zones loaded", "count", len(zones))
	}

	client := mqtt.NewClient(mqtt.NewClientOptions().
		AddBroker(opts.broker).
		SetClientID(opts.clientID))
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return fmt.Errorf("mqtt connect: %w", token.Error())
	}
	defer client.Disconnect(250)

	rng := rand.New(rand.NewSource(opts.seed))
	fleet := newFleet(rng, opts.vehicles, zones)
	for _, v := range fleet {
		slog.Info("vehicle", "id", v.id, "name", v.name, "anchored", v.anchor != nil)
	}
	slog.Info("publishing", "broker", opts.broker, "interval", opts.interval)

	ticker := time.NewTicker(opts.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}

		for _, v := range fleet {
			v.step(rng, opts.dwell)
			if err := publish(client, v, float64(rng.Intn(100))); err != nil {
				slog.Error("publish failed", "vehicle_id", v.id, "err", err)
			}
		}
	}
}

func publish(client mqtt.Client, v *vehicle, speed float64) error {
	payload, err := json.Marshal(positionMessage{
		VehicleID: v.id,
		Name:      v.name,
		Latitude:  v.pos.Lat,
		Longitude: v.pos.Lng,
		Speed:     speed,
		Timestamp: time.Now().Unix(),
	})
	if err != nil {
		return err
	}

	topic := fmt.Sprintf("/fleet/vehicle/%s/location", v.id)
	token := client.Publish(topic, 1, false, payload)
	token.Wait()
	if err := token.Error(); err != nil {
		return err
	}

	slog.Debug("published", "topic", topic, "payload", string(payload))
	return nil
}
