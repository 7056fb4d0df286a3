package changefeed

import (
	"log/slog"

	"github.com/kirychukyurii/hostbeat/internal/model"
)

// Classification holds the notable changes of a batch, in input order
type Classification struct {
	Missing    []model.HeartBeat
	Registered []model.HeartBeat
}

// Empty reports whether the batch produced no notable change
func (c Classification) Empty() bool {
	return len(c.Missing) == 0 && len(c.Registered) == 0
}

// Classifier turns raw change-feed records into missing and registered heartbeats
type Classifier struct {
	logger *slog.Logger
}

// NewClassifier creates a new classifier
func NewClassifier(logger *slog.Logger) *Classifier {
	return &Classifier{logger: logger}
}

// Events decodes the image relevant to each record. Malformed records are
// logged and skipped without affecting the rest of the batch.
func (c *Classifier) Events(records []Record) []model.ChangeEvent {
	events := make([]model.ChangeEvent, 0, len(records))

	for _, record := range records {
		var img Image
		switch record.Kind {
		case model.ChangeInserted, model.ChangeModified:
			img = record.NewImage
		case model.ChangeDeleted:
			img = record.OldImage
		default:
			c.logger.Warn("skipping change record with unknown kind",
				slog.String("key", record.Key),
				slog.Int64("revision", record.Revision),
				slog.Int("kind", int(record.Kind)),
			)
			continue
		}

		hb, err := DecodeImage(img)
		if err != nil {
			c.logger.Warn("skipping malformed change record",
				slog.String("key", record.Key),
				slog.Int64("revision", record.Revision),
				slog.String("kind", record.Kind.String()),
				slog.String("error", err.Error()),
			)
			continue
		}

		events = append(events, model.ChangeEvent{Kind: record.Kind, HeartBeat: hb})
	}

	return events
}

// Split separates events into missing (deleted) and registered (inserted)
// heartbeats. Modifications and test records are dropped.
func (c *Classifier) Split(events []model.ChangeEvent) Classification {
	result := Classification{
		Missing:    make([]model.HeartBeat, 0),
		Registered: make([]model.HeartBeat, 0),
	}

	for _, event := range events {
		if event.HeartBeat.IsTest {
			continue
		}

		switch event.Kind {
		case model.ChangeDeleted:
			result.Missing = append(result.Missing, event.HeartBeat)
		case model.ChangeInserted:
			result.Registered = append(result.Registered, event.HeartBeat)
		}
	}

	return result
}

// Classify decodes and splits a batch of records
func (c *Classifier) Classify(records []Record) Classification {
	result := c.Split(c.Events(records))

	c.logger.Debug("classified change batch",
		slog.Int("records", len(records)),
		slog.Int("missing", len(result.Missing)),
		slog.Int("registered", len(result.Registered)),
	)

	return result
}
