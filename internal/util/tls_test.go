package util

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kirychukyurii/hostbeat/internal/config"
)

func TestLoadTLSConfig_Nil(t *testing.T) {
	tlsConfig, err := LoadTLSConfig(nil)

	require.NoError(t, err)
	assert.Nil(t, tlsConfig)
}

func TestLoadTLSConfig_MissingCA(t *testing.T) {
	_, err := LoadTLSConfig(&config.TLSConfig{CA: filepath.Join(t.TempDir(), "missing.pem")})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read CA certificate")
}

func TestLoadTLSConfig_InvalidCA(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ca.pem")
	require.NoError(t, os.WriteFile(path, []byte("not a certificate"), 0o600))

	_, err := LoadTLSConfig(&config.TLSConfig{CA: path})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to append CA certificate")
}
