package pqnotify

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.uber.org/zap"

	invalidationuc "github.com/kailas-cloud/prodsearch/internal/usecase/invalidation"
)

const (
	minReconnectInterval = 10 * time.Second
	maxReconnectInterval = time.Minute
	// pingInterval keeps an idle LISTEN connection from being dropped silently.
	pingInterval = 90 * time.Second
)

// EventHandler applies a change event to the result cache.
type EventHandler interface {
	Handle(ctx context.Context, ev invalidationuc.Event) (int, error)
}

// notifier is the subset of *pq.Listener the loop needs.
type notifier interface {
	Listen(channel string) error
	NotificationChannel() <-chan *pq.Notification
	Ping() error
	Close() error
}

// Listener turns Postgres NOTIFY payloads into cache invalidation events.
// Payloads are JSON: {"type":"product.updated"} or {"type":"order.created","user_id":4}.
type Listener struct {
	conn    notifier
	channel string
	handler EventHandler
	logger  *zap.Logger
}

// New opens a pq listener on dsn. The connection is established lazily by Run.
func New(dsn, channel string, handler EventHandler, logger *zap.Logger) *Listener {
	conn := pq.NewListener(dsn, minReconnectInterval, maxReconnectInterval,
		func(ev pq.ListenerEventType, err error) {
			if err != nil {
				logger.Warn("Postgres listener event", zap.Int("event", int(ev)), zap.Error(err))
			}
		})
	return newListener(conn, channel, handler, logger)
}

func newListener(conn notifier, channel string, handler EventHandler, logger *zap.Logger) *Listener {
	return &Listener{conn: conn, channel: channel, handler: handler, logger: logger}
}

// Run subscribes to the channel and dispatches notifications until ctx is done.
func (l *Listener) Run(ctx context.Context) error {
	if err := l.conn.Listen(l.channel); err != nil {
		return fmt.Errorf("listen %q: %w", l.channel, err)
	}
	l.logger.Info("Listening for cache invalidation events", zap.String("channel", l.channel))

	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	notifications := l.conn.NotificationChannel()
	for {
		select {
		case <-ctx.Done():
			if err := l.conn.Close(); err != nil {
				l.logger.Warn("Failed to close Postgres listener", zap.Error(err))
			}
			return nil
		case n, ok := <-notifications:
			if !ok {
				return fmt.Errorf("listener on %q closed", l.channel)
			}
			l.dispatch(ctx, n)
		case <-ticker.C:
			go func() {
				if err := l.conn.Ping(); err != nil {
					l.logger.Warn("Postgres listener ping failed", zap.Error(err))
				}
			}()
		}
	}
}

// dispatch handles one notification. A nil notification follows a reconnect:
// events may have been lost, so every cached list is dropped.
func (l *Listener) dispatch(ctx context.Context, n *pq.Notification) {
	var ev invalidationuc.Event
	if n == nil {
		l.logger.Info("Postgres listener reconnected, invalidating all cached results")
		ev = invalidationuc.Event{Type: invalidationuc.ProductUpdated}
	} else if err := json.Unmarshal([]byte(n.Extra), &ev); err != nil {
		l.logger.Warn("Ignoring malformed notification",
			zap.String("channel", n.Channel),
			zap.String("payload", n.Extra),
			zap.Error(err),
		)
		return
	}

	deleted, err := l.handler.Handle(ctx, ev)
	if err != nil {
		l.logger.Warn("Invalidation event failed", zap.String("type", string(ev.Type)), zap.Error(err))
		return
	}
	l.logger.Debug("Invalidation event applied",
		zap.String("type", string(ev.Type)),
		zap.Int64("user_id", ev.UserID),
		zap.Int("deleted", deleted),
	)
}
