package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/spf13/cast"

	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/metrics"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

// ErrInvalidRegistration is wrapped by every rejected registration
var ErrInvalidRegistration = errors.New("invalid registration")

// RegistrationInput is a heartbeat sent by a host
type RegistrationInput struct {
	HostID     string `json:"hostId"`
	IntervalMs any    `json:"intervalMs"` // number, numeric string or absent
	IsTest     bool   `json:"isTest"`
}

// HeartBeatSaver persists heartbeats, replacing any previous record of the host
type HeartBeatSaver interface {
	Save(ctx context.Context, hb model.HeartBeat) error
	SaveAll(ctx context.Context, hbs []model.HeartBeat) error
}

// RegistrationService records heartbeats sent by hosts
type RegistrationService interface {
	// Register validates and stores a single heartbeat
	Register(ctx context.Context, in RegistrationInput) (model.HeartBeat, error)

	// RegisterBatch validates every input first and stores nothing when any
	// of them is invalid
	RegisterBatch(ctx context.Context, inputs []RegistrationInput) ([]model.HeartBeat, error)
}

// registrationService implements RegistrationService
type registrationService struct {
	repo    HeartBeatSaver
	regions RegionReader
	now     clock.NowReader
	cfg     config.RegistrationConfig
	metrics metrics.Collector
	logger  *slog.Logger
}

// NewRegistrationService creates a new registration service
func NewRegistrationService(
	repo HeartBeatSaver,
	regions RegionReader,
	now clock.NowReader,
	cfg config.RegistrationConfig,
	collector metrics.Collector,
	logger *slog.Logger,
) RegistrationService {
	if collector == nil {
		collector = metrics.NewNop()
	}

	return &registrationService{
		repo:    repo,
		regions: regions,
		now:     now,
		cfg:     cfg,
		metrics: collector,
		logger:  logger,
	}
}

func (s *registrationService) Register(ctx context.Context, in RegistrationInput) (model.HeartBeat, error) {
	hb, err := s.register(ctx, in)
	s.metrics.RecordRegistration(err == nil)

	return hb, err
}

func (s *registrationService) register(ctx context.Context, in RegistrationInput) (model.HeartBeat, error) {
	current, err := s.regions.CurrentRegion(ctx)
	if err != nil {
		return model.HeartBeat{}, err
	}

	hb, err := s.heartBeat(in, current)
	if err != nil {
		return model.HeartBeat{}, err
	}

	if err := s.repo.Save(ctx, hb); err != nil {
		return model.HeartBeat{}, fmt.Errorf("failed to save heartbeat: %w", err)
	}

	s.logger.Debug("heartbeat registered",
		slog.String("host_id", hb.HostID),
		slog.String("region", hb.Region),
		slog.String("expiration_utc", model.FormatUTC(hb.ExpirationUTC, "")),
		slog.Bool("is_test", hb.IsTest),
	)

	return hb, nil
}

func (s *registrationService) RegisterBatch(ctx context.Context, inputs []RegistrationInput) ([]model.HeartBeat, error) {
	hbs, err := s.registerBatch(ctx, inputs)
	s.metrics.RecordRegistration(err == nil)

	return hbs, err
}

func (s *registrationService) registerBatch(ctx context.Context, inputs []RegistrationInput) ([]model.HeartBeat, error) {
	if len(inputs) == 0 {
		return nil, fmt.Errorf("%w: empty batch", ErrInvalidRegistration)
	}

	current, err := s.regions.CurrentRegion(ctx)
	if err != nil {
		return nil, err
	}

	hbs := make([]model.HeartBeat, 0, len(inputs))
	for i, in := range inputs {
		hb, err := s.heartBeat(in, current)
		if err != nil {
			return nil, fmt.Errorf("item %d: %w", i, err)
		}
		hbs = append(hbs, hb)
	}

	if err := s.repo.SaveAll(ctx, hbs); err != nil {
		return nil, fmt.Errorf("failed to save heartbeats: %w", err)
	}

	s.logger.Debug("heartbeat batch registered",
		slog.String("region", current),
		slog.Int("count", len(hbs)),
	)

	return hbs, nil
}

// heartBeat validates the input and builds the heartbeat to store
func (s *registrationService) heartBeat(in RegistrationInput, current string) (model.HeartBeat, error) {
	hostID := strings.TrimSpace(in.HostID)
	if err := validation.Validate(hostID,
		validation.Required,
		validation.Length(1, s.cfg.MaxHostIDLength),
		is.Alphanumeric,
	); err != nil {
		return model.HeartBeat{}, fmt.Errorf("%w: hostId: %v", ErrInvalidRegistration, err)
	}

	interval := ParseInterval(in.IntervalMs, s.cfg.DefaultInterval)
	if err := validation.Validate(interval,
		validation.Min(s.cfg.MinInterval),
		validation.Max(s.cfg.MaxInterval),
	); err != nil {
		return model.HeartBeat{}, fmt.Errorf("%w: intervalMs: %v", ErrInvalidRegistration, err)
	}

	return model.NewHeartBeat(hostID, s.now.ReadUTC().Add(interval), current, in.IsTest), nil
}

// ParseInterval reads a millisecond interval. Absent, blank or non-numeric
// values give fallback; fractional values are truncated.
func ParseInterval(raw any, fallback time.Duration) time.Duration {
	switch v := raw.(type) {
	case nil, bool:
		return fallback
	case string:
		if strings.TrimSpace(v) == "" {
			return fallback
		}
		raw = strings.TrimSpace(v)
	}

	ms, err := cast.ToFloat64E(raw)
	if err != nil || math.IsNaN(ms) || math.IsInf(ms, 0) {
		return fallback
	}

	ms = math.Trunc(ms)
	switch {
	case ms > float64(math.MaxInt64/int64(time.Millisecond)):
		return time.Duration(math.MaxInt64)
	case ms < float64(math.MinInt64/int64(time.Millisecond)):
		return time.Duration(math.MinInt64)
	}

	return time.Duration(ms) * time.Millisecond
}
