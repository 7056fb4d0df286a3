package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testRegion = "us-test-1"

var baseTime = time.Date(2017, 7, 17, 20, 5, 31, 0, time.UTC)

func TestHeartBeat_String(t *testing.T) {
	hb := NewHeartBeat("myHost", baseTime, testRegion, false)

	assert.Equal(t, "HeartBeat, expirationUtc: 2017-07-17T20:05:31Z, hostId: myHost, isTest: false", hb.String())
}

func TestHeartBeat_StringForEmptyHeartBeat(t *testing.T) {
	assert.Equal(t, "HeartBeat, expirationUtc: null, hostId: , isTest: false", HeartBeat{}.String())
}

func TestHeartBeat_StringConvertsToUTC(t *testing.T) {
	local := time.Date(2017, 7, 17, 23, 5, 31, 0, time.FixedZone("UTC+3", 3*60*60))
	hb := NewHeartBeat("host1", local, testRegion, true)

	assert.Equal(t, "HeartBeat, expirationUtc: 2017-07-17T20:05:31Z, hostId: host1, isTest: true", hb.String())
}

func TestHeartBeat_IsExpired(t *testing.T) {
	now := baseTime

	tests := []struct {
		name       string
		expiration time.Time
		expired    bool
	}{
		{name: "future", expiration: now.Add(5 * time.Second), expired: false},
		{name: "close future", expiration: now.Add(time.Millisecond), expired: false},
		{name: "past", expiration: now.Add(-5 * time.Second), expired: true},
		{name: "boundary", expiration: now, expired: true},
		{name: "absent", expiration: time.Time{}, expired: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			hb := NewHeartBeat("host1", tt.expiration, testRegion, false)

			assert.Equal(t, tt.expired, hb.IsExpired(now))
			assert.Equal(t, !tt.expired, hb.IsNotExpired(now))
		})
	}
}

func TestHeartBeat_Equal(t *testing.T) {
	hb1 := NewHeartBeat("host1", baseTime, testRegion, false)

	assert.True(t, hb1.Equal(NewHeartBeat("host1", baseTime, testRegion, false)))
	assert.True(t, hb1 == NewHeartBeat("host1", baseTime, testRegion, false))

	assert.False(t, hb1.Equal(NewHeartBeat("", baseTime, testRegion, false)))
	assert.False(t, hb1.Equal(NewHeartBeat("host1", time.Time{}, testRegion, false)))
	assert.False(t, hb1.Equal(NewHeartBeat("host2", baseTime, testRegion, false)))
	assert.False(t, hb1.Equal(NewHeartBeat("host1", baseTime, "us-test-2", false)))
	assert.False(t, hb1.Equal(NewHeartBeat("host1", baseTime, testRegion, true)))
	assert.False(t, hb1.Equal(NewHeartBeat("host1", baseTime.Add(time.Millisecond), testRegion, false)))
	assert.False(t, hb1.Equal(NewHeartBeat("host1", baseTime.Add(3*time.Second), testRegion, false)))
}

func TestHeartBeat_EqualHeartBeatsShareMapKey(t *testing.T) {
	local := baseTime.In(time.FixedZone("UTC+3", 3*60*60))
	seen := map[HeartBeat]int{}

	seen[NewHeartBeat("host1", baseTime, testRegion, false)]++
	seen[NewHeartBeat("host1", local, testRegion, false)]++

	require.Len(t, seen, 1)
}

func TestHeartBeat_AlmostEqual(t *testing.T) {
	hb1 := NewHeartBeat("host1", baseTime, testRegion, false)

	assert.True(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime, testRegion, false)))
	assert.True(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime.Add(time.Millisecond), testRegion, false)))
	assert.True(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime.Add(AlmostEqualTolerance), testRegion, false)))
	assert.True(t, HeartBeat{}.AlmostEqual(NewHeartBeat("", time.Time{}, "", false)))

	assert.False(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime.Add(AlmostEqualTolerance+time.Millisecond), testRegion, false)))
	assert.False(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime.Add(3*time.Second), testRegion, false)))
	assert.False(t, hb1.AlmostEqual(NewHeartBeat("host1", time.Time{}, testRegion, false)))
	assert.False(t, hb1.AlmostEqual(NewHeartBeat("", baseTime, testRegion, false)))
	assert.False(t, hb1.AlmostEqual(NewHeartBeat("host2", baseTime, testRegion, false)))
	assert.False(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime, "us-test-2", false)))
	assert.False(t, hb1.AlmostEqual(NewHeartBeat("host1", baseTime.Add(time.Millisecond), testRegion, true)))
}

func TestHeartBeat_AlmostEqualIsSymmetric(t *testing.T) {
	offsets := []time.Duration{
		0,
		20 * time.Millisecond,
		-20 * time.Millisecond,
		AlmostEqualTolerance,
		-AlmostEqualTolerance,
		AlmostEqualTolerance + time.Millisecond,
		-400 * time.Millisecond,
	}

	hb1 := NewHeartBeat("host1", baseTime, testRegion, false)
	for _, offset := range offsets {
		hb2 := hb1.WithExpiration(baseTime.Add(offset))
		assert.Equal(t, hb1.AlmostEqual(hb2), hb2.AlmostEqual(hb1), "offset %s", offset)
	}
}

func TestHeartBeat_WithExpiration(t *testing.T) {
	original := NewHeartBeat("host1", baseTime, testRegion, true)

	updated := original.WithExpiration(baseTime.Add(3 * time.Second))

	assert.Equal(t, baseTime, original.ExpirationUTC)
	assert.Equal(t, baseTime.Add(3*time.Second), updated.ExpirationUTC)
	assert.Equal(t, original.HostID, updated.HostID)
	assert.Equal(t, original.Region, updated.Region)
	assert.Equal(t, original.IsTest, updated.IsTest)
	assert.True(t, NewHeartBeat("host1", baseTime.Add(3*time.Second), testRegion, true).AlmostEqual(updated))
}

func TestChangeKind_String(t *testing.T) {
	assert.Equal(t, "inserted", ChangeInserted.String())
	assert.Equal(t, "deleted", ChangeDeleted.String())
	assert.Equal(t, "modified", ChangeModified.String())
	assert.Equal(t, "unknown", ChangeKind(0).String())
}
