package model

import (
	"fmt"
	"time"
)

// AlmostEqualTolerance is the maximum expiration drift accepted by AlmostEqual.
// Expirations are computed independently at write time and at comparison time,
// so they differ by scheduling jitter only.
const AlmostEqualTolerance = 50 * time.Millisecond

// HeartBeat represents the liveness record of a single host
type HeartBeat struct {
	HostID        string    `json:"host_id"`
	ExpirationUTC time.Time `json:"expiration_utc"` // zero value means the host was never seen
	Region        string    `json:"region"`
	IsTest        bool      `json:"is_test"`
}

// NewHeartBeat creates a heartbeat with its expiration normalized to UTC.
// Normalized heartbeats can be compared with == and used as map keys.
func NewHeartBeat(hostID string, expiration time.Time, region string, isTest bool) HeartBeat {
	return HeartBeat{
		HostID:        hostID,
		ExpirationUTC: normalize(expiration),
		Region:        region,
		IsTest:        isTest,
	}
}

// HasExpiration reports whether the heartbeat carries an expiration
func (h HeartBeat) HasExpiration() bool {
	return !h.ExpirationUTC.IsZero()
}

// IsExpired returns true when the expiration is absent or not strictly after now
func (h HeartBeat) IsExpired(now time.Time) bool {
	if !h.HasExpiration() {
		return true
	}

	return !h.ExpirationUTC.After(now)
}

// IsNotExpired is the negation of IsExpired
func (h HeartBeat) IsNotExpired(now time.Time) bool {
	return !h.IsExpired(now)
}

// Equal returns true when every field, including the exact expiration, matches
func (h HeartBeat) Equal(other HeartBeat) bool {
	if !h.sameIdentity(other) {
		return false
	}

	return h.ExpirationUTC.Equal(other.ExpirationUTC)
}

// AlmostEqual compares identity fields exactly and expirations within AlmostEqualTolerance
func (h HeartBeat) AlmostEqual(other HeartBeat) bool {
	if !h.sameIdentity(other) {
		return false
	}

	if h.HasExpiration() != other.HasExpiration() {
		return false
	}

	diff := h.ExpirationUTC.Sub(other.ExpirationUTC)
	if diff < 0 {
		diff = -diff
	}

	return diff <= AlmostEqualTolerance
}

// WithExpiration returns a copy of the heartbeat with a different expiration
func (h HeartBeat) WithExpiration(expiration time.Time) HeartBeat {
	h.ExpirationUTC = normalize(expiration)
	return h
}

// String renders the heartbeat for logs and notification bodies
func (h HeartBeat) String() string {
	return fmt.Sprintf(
		"HeartBeat, expirationUtc: %s, hostId: %s, isTest: %t",
		FormatUTC(h.ExpirationUTC, "null"),
		h.HostID,
		h.IsTest,
	)
}

func (h HeartBeat) sameIdentity(other HeartBeat) bool {
	return h.HostID == other.HostID &&
		h.Region == other.Region &&
		h.IsTest == other.IsTest
}

// FormatUTC renders t as RFC3339 in UTC, or fallback when t is zero
func FormatUTC(t time.Time, fallback string) string {
	if t.IsZero() {
		return fallback
	}

	return t.UTC().Format(time.RFC3339)
}

func normalize(t time.Time) time.Time {
	if t.IsZero() {
		return time.Time{}
	}

	return t.UTC().Round(0)
}
