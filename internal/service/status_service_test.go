package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/model"
	"github.com/kirychukyurii/hostbeat/internal/region"
)

func TestStatusService_GetStatus(t *testing.T) {
	settings := config.NewStaticSettings(map[string]string{config.SettingRegion: regionA})
	svc := NewStatusService(region.NewFilter(settings, config.SettingRegion), "grouped", "nats")

	status, err := svc.GetStatus(context.Background())

	require.NoError(t, err)
	assert.Equal(t, &model.ServiceStatus{
		Status:  model.StatusOK,
		Region:  regionA,
		Builder: "grouped",
		Sender:  "nats",
	}, status)
}

func TestStatusService_GetStatusWithoutRegion(t *testing.T) {
	svc := NewStatusService(region.NewFilter(config.NewStaticSettings(nil), config.SettingRegion), "grouped", "log")

	_, err := svc.GetStatus(context.Background())

	assert.ErrorIs(t, err, config.ErrMissingSetting)
}
