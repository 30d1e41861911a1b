package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/nandanugg/fleet-geofence/module/geofence/domain"
	"github.com/nandanugg/fleet-geofence/module/geofence/internal/repository/publisher"
)

const publishTimeout = 5 * time.Second

// Broadcaster forwards notification changes from the engine loop to the
// outbound publishers. Enqueueing never blocks; when the buffer is full the
// event is dropped and logged.
type Broadcaster struct {
	events     chan domain.NotificationEvent
	publishers []publisher.NotificationPublisher
	now        func() time.Time
}

var _ NotificationSink = (*Broadcaster)(nil)

func NewBroadcaster(buffer int, pubs ...publisher.NotificationPublisher) *Broadcaster {
	return &Broadcaster{
		events:     make(chan domain.NotificationEvent, buffer),
		publishers: pubs,
		now:        time.Now,
	}
}

func (b *Broadcaster) NotificationShown(n domain.Notification) {
	b.enqueue(domain.NotificationEvent{
		Type:           domain.NotificationShown,
		NotificationID: n.ID,
		Notification:   &n,
		Timestamp:      b.now(),
	})
}

func (b *Broadcaster) NotificationRemoved(id string) {
	b.enqueue(domain.NotificationEvent{
		Type:           domain.NotificationRemoved,
		NotificationID: id,
		Timestamp:      b.now(),
	})
}

func (b *Broadcaster) enqueue(evt domain.NotificationEvent) {
	select {
	case b.events <- evt:
	default:
		slog.Warn("notification event dropped, buffer full",
			"type", evt.Type,
			"notification_id", evt.NotificationID,
		)
	}
}

// Run publishes queued events in order until ctx is done.
func (b *Broadcaster) Run(ctx context.Context) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case evt := <-b.events:
			b.publish(ctx, &evt)
		}
	}
}

func (b *Broadcaster) publish(ctx context.Context, evt *domain.NotificationEvent) {
	for _, p := range b.publishers {
		pctx, cancel := context.WithTimeout(ctx, publishTimeout)
		if err := p.PublishNotification(pctx, evt); err != nil {
			slog.Error("publish notification event failed",
				"err", err,
				"type", evt.Type,
				"notification_id", evt.NotificationID,
			)
		}
		cancel()
	}
}
