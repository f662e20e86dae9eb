// Package events publishes commit attempt outcomes to NATS so external
// consumers (dashboards, notifiers) can react without polling the API.
package events

import (
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/nats-io/nats.go"

	"git.home.luguber.info/inful/autocommit/internal/config"
	"git.home.luguber.info/inful/autocommit/internal/history"
	"git.home.luguber.info/inful/autocommit/internal/logfields"
)

// Publisher emits attempt events. Publishing is best effort: failures are
// logged, never propagated into the attempt pipeline.
type Publisher interface {
	PublishAttempt(attempt history.CommitAttempt)
	Close() error
}

// NoopPublisher is used when event publishing is disabled.
type NoopPublisher struct{}

func (NoopPublisher) PublishAttempt(history.CommitAttempt) {}
func (NoopPublisher) Close() error                         { return nil }

// NATSPublisher publishes attempt events to a NATS subject.
type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// NewNATSPublisher connects to the configured NATS server.
func NewNATSPublisher(cfg *config.Config) (*NATSPublisher, error) {
	if !cfg.Daemon.Events.Enabled {
		return nil, fmt.Errorf("event publishing is disabled")
	}

	conn, err := nats.Connect(cfg.Daemon.Events.URL)
	if err != nil {
		return nil, fmt.Errorf("connect to NATS: %w", err)
	}

	slog.Info("NATS event publisher initialized",
		logfields.URL(cfg.Daemon.Events.URL),
		slog.String("subject", cfg.Daemon.Events.Subject))

	return &NATSPublisher{conn: conn, subject: cfg.Daemon.Events.Subject}, nil
}

// PublishAttempt emits one attempt record as JSON.
func (p *NATSPublisher) PublishAttempt(attempt history.CommitAttempt) {
	data, err := json.Marshal(attempt)
	if err != nil {
		slog.Warn("Failed to marshal attempt event", logfields.Error(err))
		return
	}

	if err := p.conn.Publish(p.subject, data); err != nil {
		slog.Warn("Failed to publish attempt event",
			slog.String("subject", p.subject),
			logfields.Error(err))
		return
	}

	slog.Debug("Published attempt event",
		slog.String("subject", p.subject),
		logfields.Hash(attempt.CommitHash))
}

// Close drains and closes the NATS connection.
func (p *NATSPublisher) Close() error {
	if p.conn != nil {
		p.conn.Close()
	}
	return nil
}
