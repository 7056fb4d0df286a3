package region

import (
	"context"
	"fmt"

	"github.com/kirychukyurii/hostbeat/internal/model"
)

// SettingsReader reads a single setting by key
type SettingsReader interface {
	ReadString(ctx context.Context, key string) (string, error)
}

// Filter keeps only the heartbeats written from the region this process owns.
// The store is replicated across regions, so every regional instance sees
// every change; filtering makes exactly one region act on each event.
type Filter struct {
	settings SettingsReader
	key      string
}

// NewFilter creates a region filter reading the current region from key
func NewFilter(settings SettingsReader, key string) *Filter {
	return &Filter{
		settings: settings,
		key:      key,
	}
}

// CurrentRegion returns the region this process owns
func (f *Filter) CurrentRegion(ctx context.Context) (string, error) {
	current, err := f.settings.ReadString(ctx, f.key)
	if err != nil {
		return "", fmt.Errorf("failed to read current region: %w", err)
	}

	return current, nil
}

// Apply returns the heartbeats of the current region in their original order
func (f *Filter) Apply(ctx context.Context, heartBeats []model.HeartBeat) ([]model.HeartBeat, error) {
	current, err := f.CurrentRegion(ctx)
	if err != nil {
		return nil, err
	}

	return InRegion(current, heartBeats), nil
}

// InRegion returns the heartbeats whose region equals current. The result is never nil.
func InRegion(current string, heartBeats []model.HeartBeat) []model.HeartBeat {
	result := make([]model.HeartBeat, 0, len(heartBeats))
	for _, hb := range heartBeats {
		if hb.Region == current {
			result = append(result, hb)
		}
	}

	return result
}
