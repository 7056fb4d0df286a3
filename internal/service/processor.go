package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kirychukyurii/hostbeat/internal/changefeed"
	"github.com/kirychukyurii/hostbeat/internal/metrics"
	"github.com/kirychukyurii/hostbeat/internal/model"
	"github.com/kirychukyurii/hostbeat/internal/notification"
	"github.com/kirychukyurii/hostbeat/internal/region"
)

// RegionReader resolves the region this process owns
type RegionReader interface {
	CurrentRegion(ctx context.Context) (string, error)
}

// Dispatcher sends a batch of notifications
type Dispatcher interface {
	Dispatch(ctx context.Context, notifications []model.Notification) bool
}

// ChangeProcessor turns change-feed batches into notifications
type ChangeProcessor interface {
	// Process handles one batch. It returns false when any send failed and
	// an error only when the batch could not be processed at all.
	Process(ctx context.Context, records []changefeed.Record) (bool, error)
}

// changeProcessor implements ChangeProcessor
type changeProcessor struct {
	classifier *changefeed.Classifier
	regions    RegionReader
	builder    notification.Builder
	dispatcher Dispatcher
	metrics    metrics.Collector
	logger     *slog.Logger
}

// NewChangeProcessor creates a new change processor
func NewChangeProcessor(
	classifier *changefeed.Classifier,
	regions RegionReader,
	builder notification.Builder,
	dispatcher Dispatcher,
	collector metrics.Collector,
	logger *slog.Logger,
) ChangeProcessor {
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &changeProcessor{
		classifier: classifier,
		regions:    regions,
		builder:    builder,
		dispatcher: dispatcher,
		metrics:    collector,
		logger:     logger,
	}
}

func (p *changeProcessor) Process(ctx context.Context, records []changefeed.Record) (bool, error) {
	p.recordKinds(records)

	classified := p.classifier.Classify(records)
	if classified.Empty() {
		p.logger.Debug("no notable changes in batch", slog.Int("records", len(records)))
		p.metrics.RecordBatch(true)
		return true, nil
	}

	current, err := p.regions.CurrentRegion(ctx)
	if err != nil {
		p.metrics.RecordBatch(false)
		return false, fmt.Errorf("failed to process change batch: %w", err)
	}

	missing := region.InRegion(current, classified.Missing)
	registered := region.InRegion(current, classified.Registered)

	notifications := p.builder.Build(model.MissingMetadata, missing)
	notifications = append(notifications, p.builder.Build(model.RegisteredMetadata, registered)...)

	p.logger.Info("processing change batch",
		slog.String("region", current),
		slog.Int("records", len(records)),
		slog.Int("missing", len(missing)),
		slog.Int("registered", len(registered)),
		slog.Int("notifications", len(notifications)),
	)

	ok := p.dispatcher.Dispatch(ctx, notifications)
	p.metrics.RecordBatch(ok)

	if !ok {
		p.logger.Warn("some notifications were not sent", slog.String("region", current))
	}

	return ok, nil
}

func (p *changeProcessor) recordKinds(records []changefeed.Record) {
	counts := make(map[model.ChangeKind]int, 3)
	for _, r := range records {
		counts[r.Kind]++
	}

	for kind, count := range counts {
		p.metrics.RecordChanges(kind.String(), count)
	}
}
