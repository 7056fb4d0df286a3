package reaper

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/concurrent"
	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/metrics"
	"github.com/kirychukyurii/hostbeat/internal/repository"
)

const (
	defaultInitialDelay = 5 * time.Second
	deleteConcurrency   = 8
)

// Store is the part of the heartbeat repository the reaper needs
type Store interface {
	List(ctx context.Context) ([]repository.StoredHeartBeat, error)
	DeleteIfUnchanged(ctx context.Context, stored repository.StoredHeartBeat) (bool, error)
}

// RegionReader resolves the region this process owns
type RegionReader interface {
	CurrentRegion(ctx context.Context) (string, error)
}

// Reaper periodically deletes expired heartbeats of the current region.
// Every deletion surfaces on the change feed as a missing host.
type Reaper struct {
	cfg          config.ReaperConfig
	store        Store
	regions      RegionReader
	now          clock.NowReader
	metrics      metrics.Collector
	logger       *slog.Logger
	initialDelay time.Duration
	stopCh       chan struct{}
	wg           sync.WaitGroup
	failures     int // consecutive failed sweeps
	mu           sync.RWMutex
}

// New creates a new reaper
func New(
	cfg config.ReaperConfig,
	store Store,
	regions RegionReader,
	now clock.NowReader,
	collector metrics.Collector,
	logger *slog.Logger,
) *Reaper {
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &Reaper{
		cfg:          cfg,
		store:        store,
		regions:      regions,
		now:          now,
		metrics:      collector,
		logger:       logger,
		initialDelay: defaultInitialDelay,
		stopCh:       make(chan struct{}),
	}
}

// Start begins the sweep loop in a background goroutine
func (r *Reaper) Start(ctx context.Context) {
	if !r.cfg.Enabled {
		r.logger.Info("reaper is disabled")
		return
	}

	r.logger.Info("starting reaper",
		slog.Duration("interval", r.cfg.Interval),
		slog.Int("failed_threshold", r.cfg.FailedThreshold),
	)

	r.wg.Add(1)
	go r.run(ctx)
}

// Stop gracefully stops the reaper
func (r *Reaper) Stop() {
	if !r.cfg.Enabled {
		return
	}

	r.logger.Info("stopping reaper")
	close(r.stopCh)
	r.wg.Wait()
	r.logger.Info("reaper stopped")
}

// ConsecutiveFailures returns the number of failed sweeps since the last success
func (r *Reaper) ConsecutiveFailures() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.failures
}

func (r *Reaper) run(ctx context.Context) {
	defer r.wg.Done()

	select {
	case <-r.stopCh:
		return
	case <-ctx.Done():
		return
	case <-time.After(r.initialDelay):
	}
	r.performSweep(ctx)

	ticker := time.NewTicker(r.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.performSweep(ctx)
		}
	}
}

func (r *Reaper) performSweep(ctx context.Context) {
	reaped, err := r.Sweep(ctx)
	if err != nil {
		r.handleFailure(err)
		return
	}

	r.mu.Lock()
	previousFailures := r.failures
	r.failures = 0
	r.mu.Unlock()

	if previousFailures > 0 {
		r.logger.Info("reaper recovered", slog.Int("previous_failures", previousFailures))
	}
	if reaped > 0 {
		r.logger.Info("reaped expired heartbeats", slog.Int("count", reaped))
	}
}

// Sweep runs one cycle and returns how many heartbeats were deleted. Records
// rewritten between the read and the delete are left alone.
func (r *Reaper) Sweep(ctx context.Context) (int, error) {
	current, err := r.regions.CurrentRegion(ctx)
	if err != nil {
		return 0, err
	}

	stored, err := r.store.List(ctx)
	if err != nil {
		return 0, err
	}

	now := r.now.ReadUTC()
	expired := make([]repository.StoredHeartBeat, 0)
	for _, s := range stored {
		if s.Region == current && s.IsExpired(now) {
			expired = append(expired, s)
		}
	}

	if len(expired) == 0 {
		return 0, nil
	}

	results := concurrent.ParallelMapWithLimit(ctx, expired, func(ctx context.Context, s repository.StoredHeartBeat) (bool, error) {
		deleted, err := r.store.DeleteIfUnchanged(ctx, s)
		if err == nil && !deleted {
			r.logger.Debug("heartbeat refreshed before reaping", slog.String("host_id", s.HostID))
		}
		return deleted, err
	}, deleteConcurrency)

	deletedFlags, errs := concurrent.CollectResults(results)

	reaped := 0
	for _, deleted := range deletedFlags {
		if deleted {
			reaped++
		}
	}
	r.metrics.RecordReaped(reaped)

	if len(errs) > 0 {
		return reaped, fmt.Errorf("failed to delete %d of %d expired heartbeats: %w", len(errs), len(expired), errs[0])
	}

	return reaped, nil
}

func (r *Reaper) handleFailure(err error) {
	r.mu.Lock()
	r.failures++
	currentFailures := r.failures
	r.mu.Unlock()

	r.logger.Warn("reaper sweep failed",
		slog.String("error", err.Error()),
		slog.Int("consecutive_failures", currentFailures),
		slog.Int("threshold", r.cfg.FailedThreshold),
	)

	if currentFailures >= r.cfg.FailedThreshold {
		r.logger.Error("reaper failure threshold reached, expired heartbeats are not being removed",
			slog.Int("failures", currentFailures),
		)
	}
}
