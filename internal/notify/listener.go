// Package notify turns Postgres LISTEN/NOTIFY traffic into change signals.
package notify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/iyhunko/shopping-list/internal/metrics"
	"github.com/lib/pq"
)

// Channel is the channel the products trigger notifies on.
const Channel = "products_changes"

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	pingInterval         = 90 * time.Second
)

// Source is the subset of *pq.Listener used by Listener.
type Source interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener reports every notification on Channel as a change.
type Listener struct {
	source Source
}

// NewListener opens a pq listener on the given connection string.
func NewListener(dsn string) *Listener {
	source := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			slog.Error("Postgres listener event", slog.Int("event", int(ev)), slog.Any("err", err))
		}
	})
	return NewListenerFromSource(source)
}

func NewListenerFromSource(source Source) *Listener {
	return &Listener{source: source}
}

// Subscribe listens until ctx is done, calling onChange for each notification.
// A reconnect arrives as a nil notification and is reported too, since
// changes may have been missed while disconnected.
func (l *Listener) Subscribe(ctx context.Context, onChange func()) error {
	if err := l.source.Listen(Channel); err != nil {
		return fmt.Errorf("failed to listen on %s: %w", Channel, err)
	}
	defer l.source.Close()

	slog.Info("Listening for product changes", slog.String("channel", Channel))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	notifications := l.source.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			slog.Info("Stopping postgres listener")
			return ctx.Err()
		case n, ok := <-notifications:
			if !ok {
				return fmt.Errorf("notification channel closed")
			}
			if n != nil {
				slog.Debug("Received product notification", slog.String("op", n.Extra))
			}
			metrics.ChangeNotifications.WithLabelValues("postgres").Inc()
			onChange()
		case <-ticker.C:
			if err := l.source.Ping(); err != nil {
				slog.Warn("Postgres listener ping failed", slog.Any("err", err))
			}
		}
	}
}
