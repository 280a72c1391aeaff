package engine

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// SignalSink accepts decoded completion signals for processing.
type SignalSink interface {
	Enqueue(signal *CompletionSignal) error
}

// ListenerConfig controls the callback listener connection.
type ListenerConfig struct {
	CallbackURL      string
	ReconnectBackoff time.Duration
	MaxBackoff       time.Duration
}

// Listener consumes engine completion callbacks over a websocket and
// forwards them to the signal queue. Delivery semantics are whatever
// the engine provides; the pipeline behind the sink is responsible for
// its own consistency.
type Listener struct {
	config ListenerConfig
	sink   SignalSink
	logger *logrus.Logger
}

// NewListener creates a callback listener feeding sink.
func NewListener(cfg ListenerConfig, sink SignalSink, logger *logrus.Logger) *Listener {
	if cfg.ReconnectBackoff <= 0 {
		cfg.ReconnectBackoff = 5 * time.Second
	}
	if cfg.MaxBackoff <= 0 {
		cfg.MaxBackoff = time.Minute
	}
	return &Listener{config: cfg, sink: sink, logger: logger}
}

// Run connects and consumes callbacks until the context is cancelled,
// reconnecting with backoff on connection loss.
func (l *Listener) Run(ctx context.Context) error {
	backoff := l.config.ReconnectBackoff

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := websocket.DefaultDialer.DialContext(ctx, l.config.CallbackURL, nil)
		if err != nil {
			l.logger.WithError(err).WithField("url", l.config.CallbackURL).
				Warn("Engine callback connection failed, retrying")
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
			if backoff *= 2; backoff > l.config.MaxBackoff {
				backoff = l.config.MaxBackoff
			}
			continue
		}

		l.logger.WithField("url", l.config.CallbackURL).Info("Engine callback listener connected")
		backoff = l.config.ReconnectBackoff

		if err := l.consume(ctx, conn); err != nil && ctx.Err() == nil {
			l.logger.WithError(err).Warn("Engine callback connection lost, reconnecting")
		}
		_ = conn.Close()
	}
}

func (l *Listener) consume(ctx context.Context, conn *websocket.Conn) error {
	// Close the connection when the context ends so ReadMessage unblocks.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			_ = conn.Close()
		case <-done:
		}
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var signal CompletionSignal
		if err := json.Unmarshal(data, &signal); err != nil {
			l.logger.WithError(err).Warn("Discarding malformed engine callback")
			continue
		}

		if err := l.sink.Enqueue(&signal); err != nil {
			l.logger.WithError(err).WithField("job_id", signal.JobID).
				Error("Failed to enqueue completion signal")
		}
	}
}
