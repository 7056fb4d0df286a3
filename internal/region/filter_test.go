package region

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

const (
	currentRegion = "us-test-1"
	otherRegion   = "us-test-2"
)

type failingSettings struct{}

func (failingSettings) ReadString(context.Context, string) (string, error) {
	return "", errors.New("settings unavailable")
}

func seedHeartBeats(count int) []model.HeartBeat {
	expiration := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	hbs := make([]model.HeartBeat, count)
	for i := range hbs {
		hbs[i] = model.NewHeartBeat(fmt.Sprintf("test-host-%d", i), expiration, currentRegion, false)
	}

	return hbs
}

func newFilter() *Filter {
	return NewFilter(config.NewStaticSettings(map[string]string{config.SettingRegion: currentRegion}), config.SettingRegion)
}

func TestFilter_EmptyInput(t *testing.T) {
	result, err := newFilter().Apply(context.Background(), nil)

	require.NoError(t, err)
	assert.NotNil(t, result)
	assert.Empty(t, result)
}

func TestFilter_KeepsCurrentRegionInOrder(t *testing.T) {
	seeded := seedHeartBeats(12)
	seeded[2].Region = otherRegion
	seeded[8].Region = otherRegion
	seeded[9].Region = ""
	seeded[10].IsTest = true
	seeded[11].IsTest = true

	result, err := newFilter().Apply(context.Background(), seeded)
	require.NoError(t, err)

	expected := []model.HeartBeat{
		seeded[0], seeded[1], seeded[3], seeded[4], seeded[5],
		seeded[6], seeded[7], seeded[10], seeded[11],
	}
	assert.Equal(t, expected, result)
}

func TestFilter_IsIdempotent(t *testing.T) {
	seeded := seedHeartBeats(6)
	seeded[1].Region = otherRegion
	seeded[4].Region = otherRegion

	once, err := newFilter().Apply(context.Background(), seeded)
	require.NoError(t, err)

	twice, err := newFilter().Apply(context.Background(), once)
	require.NoError(t, err)

	assert.Equal(t, once, twice)
}

func TestFilter_RegionMatchIsExact(t *testing.T) {
	seeded := seedHeartBeats(3)
	seeded[0].Region = "US-TEST-1"
	seeded[1].Region = currentRegion + " "

	result, err := newFilter().Apply(context.Background(), seeded)
	require.NoError(t, err)

	assert.Equal(t, []model.HeartBeat{seeded[2]}, result)
}

func TestFilter_SettingsFailureIsFatal(t *testing.T) {
	filter := NewFilter(failingSettings{}, config.SettingRegion)

	result, err := filter.Apply(context.Background(), seedHeartBeats(2))

	assert.Error(t, err)
	assert.Nil(t, result)
}

func TestFilter_BlankRegionIsFatal(t *testing.T) {
	filter := NewFilter(config.NewStaticSettings(map[string]string{config.SettingRegion: ""}), config.SettingRegion)

	_, err := filter.Apply(context.Background(), seedHeartBeats(2))

	assert.ErrorIs(t, err, config.ErrMissingSetting)
}
