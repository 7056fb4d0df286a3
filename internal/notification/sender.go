package notification

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/kirychukyurii/hostbeat/internal/model"
)

// Envelope is the wire format published by message-bus senders. The ID lets
// consumers drop duplicates, since delivery is at-least-once.
type Envelope struct {
	ID      string    `json:"id"`
	Subject string    `json:"subject"`
	Message string    `json:"message"`
	SentAt  time.Time `json:"sent_at"`
}

func newEnvelope(n model.Notification, now time.Time) (string, []byte, error) {
	id := uuid.New().String()

	payload, err := json.Marshal(Envelope{
		ID:      id,
		Subject: n.Subject,
		Message: n.Message,
		SentAt:  now.UTC(),
	})
	if err != nil {
		return "", nil, fmt.Errorf("failed to marshal notification: %w", err)
	}

	return id, payload, nil
}

// LogSender writes notifications to the structured log
type LogSender struct {
	logger *slog.Logger
}

// NewLogSender creates a sender that only logs
func NewLogSender(logger *slog.Logger) *LogSender {
	return &LogSender{logger: logger}
}

// Send logs the notification
func (s *LogSender) Send(_ context.Context, n model.Notification) error {
	s.logger.Info("notification",
		slog.String("subject", n.Subject),
		slog.String("message", n.Message),
	)
	return nil
}
