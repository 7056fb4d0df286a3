package notification

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/model"
)

var builtAt = time.Date(2017, 7, 17, 20, 5, 31, 0, time.UTC)

func heartBeat(hostID string) model.HeartBeat {
	return model.NewHeartBeat(hostID, builtAt.Add(10*time.Minute), "us-test-1", false)
}

func TestNewBuilder(t *testing.T) {
	now := clock.NewFixed(builtAt)

	grouped, err := NewBuilder(KindGrouped, now)
	require.NoError(t, err)
	assert.IsType(t, &groupedBuilder{}, grouped)

	oneToOne, err := NewBuilder(KindOneToOne, now)
	require.NoError(t, err)
	assert.IsType(t, oneToOneBuilder{}, oneToOne)

	_, err = NewBuilder("carrier_pigeon", now)
	assert.Error(t, err)
}

func TestBuilders_EmptyInputYieldsNothing(t *testing.T) {
	builders := map[string]Builder{
		KindGrouped:  NewGroupedBuilder(clock.NewFixed(builtAt)),
		KindOneToOne: NewOneToOneBuilder(),
	}

	for name, b := range builders {
		t.Run(name, func(t *testing.T) {
			for _, hbs := range [][]model.HeartBeat{nil, {}} {
				got := b.Build(model.MissingMetadata, hbs)
				assert.NotNil(t, got)
				assert.Empty(t, got)
			}
		})
	}
}

func TestGroupedBuilder_SingleHeartBeat(t *testing.T) {
	hb := heartBeat("host1")
	b := NewGroupedBuilder(clock.NewFixed(builtAt))

	got := b.Build(model.MissingMetadata, []model.HeartBeat{hb})

	require.Len(t, got, 1)
	assert.Equal(t, "Hosts missing [host1]", got[0].Subject)
	assert.Equal(t,
		"Hosts missing [host1]\n\n"+
			hb.String()+"\n"+
			"--\nNotification Built: 2017-07-17T20:05:31Z\n--",
		got[0].Message,
	)
}

func TestGroupedBuilder_MultipleHeartBeatsKeepInputOrder(t *testing.T) {
	hbs := []model.HeartBeat{heartBeat("host3"), heartBeat("host1"), heartBeat("host2")}
	b := NewGroupedBuilder(clock.NewFixed(builtAt))

	got := b.Build(model.RegisteredMetadata, hbs)

	require.Len(t, got, 1)
	assert.Equal(t, "Hosts registered [host3, host1, host2]", got[0].Subject)
	assert.Equal(t,
		"Hosts registered [host3, host1, host2]\n\n"+
			hbs[0].String()+"\n"+
			hbs[1].String()+"\n"+
			hbs[2].String()+"\n"+
			"--\nNotification Built: 2017-07-17T20:05:31Z\n--",
		got[0].Message,
	)
}

func TestGroupedBuilder_UsesClockAtBuildTime(t *testing.T) {
	now := clock.NewFixed(builtAt)
	b := NewGroupedBuilder(now)

	now.Advance(time.Hour)
	got := b.Build(model.MissingMetadata, []model.HeartBeat{heartBeat("host1")})

	require.Len(t, got, 1)
	assert.Contains(t, got[0].Message, "Notification Built: 2017-07-17T21:05:31Z")
}

func TestOneToOneBuilder(t *testing.T) {
	hbs := []model.HeartBeat{heartBeat("host1"), heartBeat("host2")}

	got := NewOneToOneBuilder().Build(model.MissingMetadata, hbs)

	assert.Equal(t, []model.Notification{
		{Subject: "S-host1", Message: "M-host1-Hosts missing"},
		{Subject: "S-host2", Message: "M-host2-Hosts missing"},
	}, got)
}

func TestOneToOneBuilder_NoCrossContamination(t *testing.T) {
	got := NewOneToOneBuilder().Build(model.RegisteredMetadata, []model.HeartBeat{heartBeat("alpha"), heartBeat("beta")})

	require.Len(t, got, 2)
	assert.NotContains(t, got[0].Subject, "beta")
	assert.NotContains(t, got[0].Message, "beta")
	assert.NotContains(t, got[1].Subject, "alpha")
	assert.NotContains(t, got[1].Message, "alpha")
}
