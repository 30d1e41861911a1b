package publisher

import (
	"context"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
)

type NotificationPublisher interface {
	PublishNotification(ctx context.Context, evt *domain.NotificationEvent) error
}
