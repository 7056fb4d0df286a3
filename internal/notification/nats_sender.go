package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

// JetStreamPublisher is the subset of jetstream.JetStream used for publishing
type JetStreamPublisher interface {
	Publish(ctx context.Context, subject string, data []byte, opts ...jetstream.PublishOpt) (*jetstream.PubAck, error)
}

// NATSSender publishes notifications to a JetStream subject
type NATSSender struct {
	js      JetStreamPublisher
	subject string
	timeout time.Duration
	now     func() time.Time
}

// NewNATSSender creates a sender over an existing JetStream context
func NewNATSSender(js JetStreamPublisher, subject string, timeout time.Duration) *NATSSender {
	return &NATSSender{
		js:      js,
		subject: subject,
		timeout: timeout,
		now:     time.Now,
	}
}

// ConnectNATS connects to NATS and makes sure the notification stream exists
func ConnectNATS(ctx context.Context, cfg config.NATSConfig, logger *slog.Logger) (*nats.Conn, jetstream.JetStream, error) {
	nc, err := nats.Connect(cfg.URL,
		nats.Name("hostbeat"),
		nats.MaxReconnects(-1),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				logger.Warn("nats disconnected", slog.String("error", err.Error()))
			}
		}),
	)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to nats %s: %w", cfg.URL, err)
	}

	js, err := jetstream.New(nc)
	if err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to create jetstream context: %w", err)
	}

	streamCtx, cancel := context.WithTimeout(ctx, cfg.PublishTimeout)
	defer cancel()

	if _, err := js.CreateOrUpdateStream(streamCtx, jetstream.StreamConfig{
		Name:     cfg.Stream,
		Subjects: []string{cfg.Subject},
	}); err != nil {
		nc.Close()
		return nil, nil, fmt.Errorf("failed to ensure stream %s: %w", cfg.Stream, err)
	}

	logger.Info("connected to nats",
		slog.String("url", cfg.URL),
		slog.String("stream", cfg.Stream),
		slog.String("subject", cfg.Subject),
	)

	return nc, js, nil
}

// Send publishes the notification and waits for the stream acknowledgement.
// The envelope ID doubles as the JetStream message ID for server-side dedupe.
func (s *NATSSender) Send(ctx context.Context, n model.Notification) error {
	id, payload, err := newEnvelope(n, s.now())
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	if _, err := s.js.Publish(ctx, s.subject, payload, jetstream.WithMsgID(id)); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.subject, err)
	}

	return nil
}
