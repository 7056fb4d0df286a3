package notification

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirychukyurii/hostbeat/internal/metrics"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

// Sender delivers a single notification through an external transport
type Sender interface {
	Send(ctx context.Context, n model.Notification) error
}

// SenderFunc adapts a function to the Sender interface
type SenderFunc func(ctx context.Context, n model.Notification) error

// Send calls f(ctx, n)
func (f SenderFunc) Send(ctx context.Context, n model.Notification) error {
	return f(ctx, n)
}

// SendResult is the outcome of one send attempt
type SendResult struct {
	Notification model.Notification
	Err          error
}

// OK reports whether the send succeeded
func (r SendResult) OK() bool {
	return r.Err == nil
}

// Dispatcher sends notifications one by one. A failed send is logged and
// recorded; it never stops the remaining sends.
type Dispatcher struct {
	sender     Sender
	senderName string
	metrics    metrics.Collector
	logger     *slog.Logger
}

// NewDispatcher creates a new dispatcher
func NewDispatcher(sender Sender, senderName string, collector metrics.Collector, logger *slog.Logger) *Dispatcher {
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &Dispatcher{
		sender:     sender,
		senderName: senderName,
		metrics:    collector,
		logger:     logger,
	}
}

// Dispatch attempts every notification exactly once, in order, and returns
// true only if all of them were sent
func (d *Dispatcher) Dispatch(ctx context.Context, notifications []model.Notification) bool {
	return AllSucceeded(d.DispatchResults(ctx, notifications))
}

// DispatchResults attempts every notification and returns the per-item outcome
func (d *Dispatcher) DispatchResults(ctx context.Context, notifications []model.Notification) []SendResult {
	results := make([]SendResult, 0, len(notifications))

	for i, n := range notifications {
		err := d.send(ctx, n)
		d.metrics.RecordNotification(d.senderName, err == nil)

		if err != nil {
			d.logger.Error("send notification failed",
				slog.String("sender", d.senderName),
				slog.Int("index", i),
				slog.String("subject", n.Subject),
				slog.String("error", err.Error()),
			)
		} else {
			d.logger.Debug("notification sent",
				slog.String("sender", d.senderName),
				slog.String("subject", n.Subject),
			)
		}

		results = append(results, SendResult{Notification: n, Err: err})
	}

	return results
}

// send shields the dispatch loop from a panicking sender
func (d *Dispatcher) send(ctx context.Context, n model.Notification) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("sender panicked: %v", r)
		}
	}()

	return d.sender.Send(ctx, n)
}

// AllSucceeded reports whether every result is a success
func AllSucceeded(results []SendResult) bool {
	for _, r := range results {
		if !r.OK() {
			return false
		}
	}

	return true
}
