package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/knadh/koanf/v2"
)

// SettingRegion is the key holding the region this process owns
const SettingRegion = "region"

// ErrMissingSetting is returned when a required setting is absent or blank
var ErrMissingSetting = errors.New("missing setting")

// Settings reads individual keys from the loaded configuration
type Settings struct {
	k *koanf.Koanf
}

// NewStaticSettings creates settings from a fixed set of values
func NewStaticSettings(values map[string]string) *Settings {
	k := koanf.New(".")
	for key, value := range values {
		_ = k.Set(key, value)
	}

	return &Settings{k: k}
}

// ReadString returns the value stored under key
func (s *Settings) ReadString(_ context.Context, key string) (string, error) {
	if s == nil || s.k == nil || !s.k.Exists(key) {
		return "", fmt.Errorf("%w: %s", ErrMissingSetting, key)
	}

	value := strings.TrimSpace(s.k.String(key))
	if value == "" {
		return "", fmt.Errorf("%w: %s", ErrMissingSetting, key)
	}

	return value, nil
}
