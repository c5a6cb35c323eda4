package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/shopping-list/internal/metrics"
	"github.com/iyhunko/shopping-list/internal/model"
	"github.com/iyhunko/shopping-list/internal/repository"
	"github.com/iyhunko/shopping-list/internal/sqs"
)

const outboxBatchSize = 100

// errUndeliverable marks events that will never publish and must not be retried.
var errUndeliverable = errors.New("undeliverable event")

// MessagePublisher sends product messages to a queue.
type MessagePublisher interface {
	PublishProductMessage(ctx context.Context, msg sqs.ProductMessage) error
}

// OutboxWorker relays pending outbox events to the queue. Events that fail
// to publish stay pending for the next round unless they are undeliverable.
type OutboxWorker struct {
	events    repository.EventStore
	publisher MessagePublisher
	interval  time.Duration
	stop      chan struct{}
}

func NewOutboxWorker(events repository.EventStore, publisher MessagePublisher, interval time.Duration) *OutboxWorker {
	return &OutboxWorker{
		events:    events,
		publisher: publisher,
		interval:  interval,
		stop:      make(chan struct{}),
	}
}

// Start polls every interval until ctx is done or Stop is called.
func (w *OutboxWorker) Start(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	slog.Info("Outbox worker started", slog.Duration("interval", w.interval))

	for {
		select {
		case <-ctx.Done():
			slog.Info("Outbox worker stopped by context")
			return
		case <-w.stop:
			slog.Info("Outbox worker stopped")
			return
		case <-ticker.C:
			w.relay(ctx)
		}
	}
}

func (w *OutboxWorker) Stop() {
	close(w.stop)
}

func (w *OutboxWorker) relay(ctx context.Context) {
	pending, err := w.events.ListPending(ctx, outboxBatchSize)
	if err != nil {
		slog.Error("Failed to retrieve pending events", slog.Any("err", err))
		return
	}
	if len(pending) == 0 {
		return
	}
	slog.Debug("Relaying pending events", slog.Int("count", len(pending)))

	for _, event := range pending {
		log := slog.With(slog.String("event_id", event.ID.String()), slog.String("event_type", event.EventType))

		status := model.EventStatusProcessed
		if err := w.publish(ctx, event); err != nil {
			if !errors.Is(err, errUndeliverable) {
				log.Warn("Publish failed, event stays pending", slog.Any("err", err))
				metrics.EventsPublished.WithLabelValues("retry").Inc()
				continue
			}
			log.Error("Dropping undeliverable event", slog.Any("err", err))
			status = model.EventStatusFailed
		}

		if err := w.events.UpdateStatus(ctx, event.ID, status); err != nil {
			log.Error("Failed to update event status", slog.String("status", string(status)), slog.Any("err", err))
			continue
		}
		metrics.EventsPublished.WithLabelValues(string(status)).Inc()
	}
}

func (w *OutboxWorker) publish(ctx context.Context, event *model.Event) error {
	var msg sqs.ProductMessage
	if err := json.Unmarshal(event.EventData, &msg); err != nil {
		return fmt.Errorf("%w: %v", errUndeliverable, err)
	}
	if err := msg.Validate(); err != nil {
		return fmt.Errorf("%w: %v", errUndeliverable, err)
	}
	return w.publisher.PublishProductMessage(ctx, msg)
}
