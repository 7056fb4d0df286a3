package repository

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"go.etcd.io/etcd/api/v3/mvccpb"
	clientv3 "go.etcd.io/etcd/client/v3"

	"github.com/kirychukyurii/hostbeat/internal/cache"
	"github.com/kirychukyurii/hostbeat/internal/changefeed"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

const (
	watchRetryMin = 500 * time.Millisecond
	watchRetryMax = 30 * time.Second
)

// BatchHandler processes one batch of change records
type BatchHandler func(ctx context.Context, records []changefeed.Record) error

// Watcher turns the etcd watch stream under a prefix into change-feed batches.
// Delivery is at least once: after a reconnect the stream resumes from the
// last seen revision, and revisions already handled are dropped.
type Watcher struct {
	watcher clientv3.Watcher
	prefix  string
	seen    cache.Cache
	seenTTL time.Duration
	logger  *slog.Logger

	nextRev int64
}

// NewWatcher creates a new change-feed watcher
func NewWatcher(watcher clientv3.Watcher, prefix string, seen cache.Cache, seenTTL time.Duration, logger *slog.Logger) *Watcher {
	return &Watcher{
		watcher: watcher,
		prefix:  prefix,
		seen:    seen,
		seenTTL: seenTTL,
		logger:  logger,
	}
}

// Run watches until ctx is cancelled. Each watch response is handled as one
// batch, synchronously. Handler errors are logged and do not stop the watch.
func (w *Watcher) Run(ctx context.Context, handler BatchHandler) {
	w.logger.Info("starting change feed watcher", slog.String("prefix", w.prefix))

	retry := watchRetryMin
	for {
		resumeFrom := w.nextRev
		err := w.watch(ctx, handler)
		if ctx.Err() != nil {
			w.logger.Info("change feed watcher stopped")
			return
		}
		if w.nextRev != resumeFrom {
			retry = watchRetryMin
		}

		if err != nil {
			w.logger.Warn("change feed interrupted",
				slog.String("error", err.Error()),
				slog.Int64("resume_revision", w.nextRev),
				slog.Duration("retry_in", retry),
			)
		}

		select {
		case <-ctx.Done():
			w.logger.Info("change feed watcher stopped")
			return
		case <-time.After(retry):
		}

		retry = min(retry*2, watchRetryMax)
	}
}

func (w *Watcher) watch(ctx context.Context, handler BatchHandler) error {
	opts := []clientv3.OpOption{clientv3.WithPrefix(), clientv3.WithPrevKV()}
	if w.nextRev > 0 {
		opts = append(opts, clientv3.WithRev(w.nextRev))
	}

	watchCtx, cancel := context.WithCancel(clientv3.WithRequireLeader(ctx))
	defer cancel()

	for resp := range w.watcher.Watch(watchCtx, w.prefix, opts...) {
		if resp.CompactRevision > 0 {
			w.logger.Warn("change feed compacted, events were lost",
				slog.Int64("requested_revision", w.nextRev),
				slog.Int64("compact_revision", resp.CompactRevision),
			)
			w.nextRev = resp.CompactRevision
			return fmt.Errorf("watch revision compacted")
		}
		if err := resp.Err(); err != nil {
			return fmt.Errorf("watch failed: %w", err)
		}

		records := w.Fresh(ConvertEvents(resp.Events))
		if len(records) > 0 {
			if err := handler(ctx, records); err != nil {
				w.logger.Error("failed to handle change batch",
					slog.Int("records", len(records)),
					slog.Int64("revision", resp.Header.Revision),
					slog.String("error", err.Error()),
				)
			}
		}

		w.nextRev = resp.Header.Revision + 1
	}

	return ctx.Err()
}

// Fresh drops records whose key and revision were already handled
func (w *Watcher) Fresh(records []changefeed.Record) []changefeed.Record {
	fresh := make([]changefeed.Record, 0, len(records))
	for _, r := range records {
		if !w.seen.Add(fmt.Sprintf("%s@%d", r.Key, r.Revision), struct{}{}, w.seenTTL) {
			w.logger.Debug("dropping redelivered change",
				slog.String("key", r.Key),
				slog.Int64("revision", r.Revision),
			)
			continue
		}
		fresh = append(fresh, r)
	}

	return fresh
}

// ConvertEvents maps etcd watch events onto change-feed records. A put that
// creates the key is an insertion, any other put a modification. Deletions,
// including lease expiry, carry the previous value as the old image.
func ConvertEvents(events []*clientv3.Event) []changefeed.Record {
	records := make([]changefeed.Record, 0, len(events))

	for _, ev := range events {
		if ev == nil || ev.Kv == nil {
			continue
		}

		r := changefeed.Record{
			Key:      string(ev.Kv.Key),
			Revision: ev.Kv.ModRevision,
			OldImage: image(ev.PrevKv),
		}

		switch {
		case ev.Type == mvccpb.DELETE:
			r.Kind = model.ChangeDeleted
		case ev.IsCreate():
			r.Kind = model.ChangeInserted
			r.NewImage = image(ev.Kv)
		default:
			r.Kind = model.ChangeModified
			r.NewImage = image(ev.Kv)
		}

		records = append(records, r)
	}

	return records
}

// image returns nil for absent or unparsable values; the classifier reports those
func image(kv *mvccpb.KeyValue) changefeed.Image {
	if kv == nil {
		return nil
	}

	img, err := changefeed.ParseImage(kv.Value)
	if err != nil {
		return nil
	}

	return img
}
