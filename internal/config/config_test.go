package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(body), 0o600))

	return path
}

func TestLoad_AppliesDefaults(t *testing.T) {
	path := writeConfig(t, `
region: us-test-1
etcd:
  endpoints:
    - localhost:2379
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "us-test-1", cfg.Region)
	assert.Equal(t, defaultServerAddr, cfg.Server.Addr)
	assert.Equal(t, defaultEtcdPrefix, cfg.Etcd.Prefix)
	assert.Equal(t, BuilderGrouped, cfg.Notification.Builder)
	assert.Equal(t, SenderLog, cfg.Notification.Sender)
	assert.Equal(t, 10*time.Minute, cfg.Registration.DefaultInterval)
	assert.Equal(t, time.Second, cfg.Registration.MinInterval)
	assert.Equal(t, 12*time.Hour, cfg.Registration.MaxInterval)
	assert.Equal(t, 100, cfg.Registration.MaxHostIDLength)
	assert.Equal(t, LogLevelInfo, cfg.Logging.Level)
}

func TestLoad_ParsesDurationsAndNestedSections(t *testing.T) {
	path := writeConfig(t, `
server:
  addr: ":9090"
  read_timeout: 5s
region: eu-test-1
etcd:
  endpoints: ["etcd-1:2379", "etcd-2:2379"]
  prefix: "beats/"
notification:
  builder: one_to_one
  sender: mqtt
  mqtt:
    broker: tcp://localhost:1883
    qos: 1
reaper:
  enabled: true
  interval: 30s
`)

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9090", cfg.Server.Addr)
	assert.Equal(t, 5*time.Second, cfg.Server.ReadTimeout)
	assert.Equal(t, []string{"etcd-1:2379", "etcd-2:2379"}, cfg.Etcd.Endpoints)
	assert.Equal(t, "beats/", cfg.Etcd.Prefix)
	assert.Equal(t, BuilderOneToOne, cfg.Notification.Builder)
	assert.Equal(t, "tcp://localhost:1883", cfg.Notification.MQTT.Broker)
	assert.Equal(t, 1, cfg.Notification.MQTT.QOS)
	assert.True(t, cfg.Reaper.Enabled)
	assert.Equal(t, 30*time.Second, cfg.Reaper.Interval)
}

func TestLoad_RejectsInvalidConfig(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{
			name: "missing region",
			body: "etcd:\n  endpoints: [\"localhost:2379\"]\n",
		},
		{
			name: "missing endpoints",
			body: "region: us-test-1\n",
		},
		{
			name: "unknown builder",
			body: "region: us-test-1\netcd:\n  endpoints: [\"localhost:2379\"]\nnotification:\n  builder: digest\n",
		},
		{
			name: "mqtt without broker",
			body: "region: us-test-1\netcd:\n  endpoints: [\"localhost:2379\"]\nnotification:\n  sender: mqtt\n",
		},
		{
			name: "nats without url",
			body: "region: us-test-1\netcd:\n  endpoints: [\"localhost:2379\"]\nnotification:\n  sender: nats\n",
		},
		{
			name: "unknown log level",
			body: "region: us-test-1\netcd:\n  endpoints: [\"localhost:2379\"]\nlogging:\n  level: chatty\n",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(writeConfig(t, tt.body))
			assert.Error(t, err)
		})
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestSettings_ReadString(t *testing.T) {
	path := writeConfig(t, `
region: us-test-1
etcd:
  endpoints: ["localhost:2379"]
  prefix: hostbeat/heartbeats/
`)
	cfg, err := Load(path)
	require.NoError(t, err)

	settings := cfg.Settings()

	region, err := settings.ReadString(context.Background(), SettingRegion)
	require.NoError(t, err)
	assert.Equal(t, "us-test-1", region)

	prefix, err := settings.ReadString(context.Background(), "etcd.prefix")
	require.NoError(t, err)
	assert.Equal(t, "hostbeat/heartbeats/", prefix)
}

func TestSettings_MissingOrBlankKey(t *testing.T) {
	settings := NewStaticSettings(map[string]string{"region": "  "})

	_, err := settings.ReadString(context.Background(), SettingRegion)
	assert.ErrorIs(t, err, ErrMissingSetting)

	_, err = settings.ReadString(context.Background(), "absent")
	assert.ErrorIs(t, err, ErrMissingSetting)

	var nilSettings *Settings
	_, err = nilSettings.ReadString(context.Background(), SettingRegion)
	assert.ErrorIs(t, err, ErrMissingSetting)
}
