package config

import (
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Notification builder strategies
const (
	BuilderGrouped  = "grouped"
	BuilderOneToOne = "one_to_one"
)

// Notification transports
const (
	SenderLog  = "log"
	SenderMQTT = "mqtt"
	SenderNATS = "nats"
)

// Log levels
const (
	LogLevelDebug = "debug"
	LogLevelInfo  = "info"
	LogLevelWarn  = "warn"
	LogLevelError = "error"
)

const (
	defaultEtcdPrefix       = "hostbeat/heartbeats/"
	defaultEtcdDialTimeout  = 5 * time.Second
	defaultInterval         = 10 * time.Minute
	defaultMinInterval      = time.Second
	defaultMaxInterval      = 12 * time.Hour
	defaultMaxHostIDLength  = 100
	defaultCacheTTL         = 10 * time.Minute
	defaultReaperInterval   = time.Minute
	defaultReaperThreshold  = 3
	defaultSaveConcurrency  = 8
	defaultMQTTTopic        = "hostbeat/notifications"
	defaultNATSSubject      = "hostbeat.notifications"
	defaultNATSStream       = "HOSTBEAT"
	defaultPublishTimeout   = 10 * time.Second
	defaultServerAddr       = ":8080"
	defaultServerRWTimeout  = 15 * time.Second
	defaultNotificationKind = BuilderGrouped
)

// Config represents the application configuration
type Config struct {
	Server       ServerConfig       `koanf:"server"`
	Region       string             `koanf:"region"`
	Etcd         EtcdConfig         `koanf:"etcd"`
	Notification NotificationConfig `koanf:"notification"`
	Registration RegistrationConfig `koanf:"registration"`
	Reaper       ReaperConfig       `koanf:"reaper"`
	Cache        CacheConfig        `koanf:"cache"`
	Logging      LoggingConfig      `koanf:"logging"`

	k *koanf.Koanf
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Addr         string        `koanf:"addr"`
	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	BasePath     string        `koanf:"base_path"` // Optional base path for reverse proxy
}

// EtcdConfig represents the heartbeat store connection
type EtcdConfig struct {
	Endpoints       []string      `koanf:"endpoints"`
	DialTimeout     time.Duration `koanf:"dial_timeout"`
	Username        string        `koanf:"username"`
	Password        string        `koanf:"password"`
	Prefix          string        `koanf:"prefix"`           // Key prefix holding heartbeat records
	SaveConcurrency int           `koanf:"save_concurrency"` // Parallel puts for batch saves
	TLS             *TLSConfig    `koanf:"tls"`
}

// NotificationConfig selects the builder strategy and the transport
type NotificationConfig struct {
	Builder string     `koanf:"builder"` // grouped | one_to_one
	Sender  string     `koanf:"sender"`  // log | mqtt | nats
	MQTT    MQTTConfig `koanf:"mqtt"`
	NATS    NATSConfig `koanf:"nats"`
}

// MQTTConfig represents the MQTT notification transport
type MQTTConfig struct {
	Broker         string        `koanf:"broker"`
	ClientID       string        `koanf:"client_id"`
	Topic          string        `koanf:"topic"`
	QOS            int           `koanf:"qos"`
	PublishTimeout time.Duration `koanf:"publish_timeout"`
	TLS            *TLSConfig    `koanf:"tls"`
}

// NATSConfig represents the NATS JetStream notification transport
type NATSConfig struct {
	URL            string        `koanf:"url"`
	Subject        string        `koanf:"subject"`
	Stream         string        `koanf:"stream"` // JetStream stream bound to Subject, created when missing
	PublishTimeout time.Duration `koanf:"publish_timeout"`
}

// RegistrationConfig bounds the interval a host may request
type RegistrationConfig struct {
	DefaultInterval time.Duration `koanf:"default_interval"`
	MinInterval     time.Duration `koanf:"min_interval"`
	MaxInterval     time.Duration `koanf:"max_interval"`
	MaxHostIDLength int           `koanf:"max_host_id_length"`
}

// ReaperConfig represents the expired heartbeat sweep
type ReaperConfig struct {
	Enabled         bool          `koanf:"enabled"`
	Interval        time.Duration `koanf:"interval"`
	FailedThreshold int           `koanf:"failed_threshold"`
}

// CacheConfig represents cache configuration
type CacheConfig struct {
	TTL time.Duration `koanf:"ttl"`
}

// LoggingConfig represents logger configuration
type LoggingConfig struct {
	Level string `koanf:"level"`
}

// TLSConfig represents client TLS material
type TLSConfig struct {
	CA   string `koanf:"ca"`
	Cert string `koanf:"cert"`
	Key  string `koanf:"key"`
}

// Load loads configuration from the specified file
func Load(configPath string) (*Config, error) {
	k := koanf.New(".")

	// Load YAML config
	if err := k.Load(file.Provider(configPath), yaml.Parser()); err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	return fromKoanf(k)
}

func fromKoanf(k *koanf.Koanf) (*Config, error) {
	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	cfg.k = k
	cfg.applyDefaults()

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Settings exposes the loaded configuration as a key/value settings source
func (c *Config) Settings() *Settings {
	if c.k == nil {
		c.k = koanf.New(".")
	}

	// Region may have been defaulted or overridden after load
	_ = c.k.Set(SettingRegion, c.Region)

	return &Settings{k: c.k}
}

func (c *Config) applyDefaults() {
	if c.Server.Addr == "" {
		c.Server.Addr = defaultServerAddr
	}
	if c.Server.ReadTimeout == 0 {
		c.Server.ReadTimeout = defaultServerRWTimeout
	}
	if c.Server.WriteTimeout == 0 {
		c.Server.WriteTimeout = defaultServerRWTimeout
	}

	if c.Etcd.Prefix == "" {
		c.Etcd.Prefix = defaultEtcdPrefix
	}
	if c.Etcd.DialTimeout == 0 {
		c.Etcd.DialTimeout = defaultEtcdDialTimeout
	}
	if c.Etcd.SaveConcurrency == 0 {
		c.Etcd.SaveConcurrency = defaultSaveConcurrency
	}

	if c.Notification.Builder == "" {
		c.Notification.Builder = defaultNotificationKind
	}
	if c.Notification.Sender == "" {
		c.Notification.Sender = SenderLog
	}
	if c.Notification.MQTT.Topic == "" {
		c.Notification.MQTT.Topic = defaultMQTTTopic
	}
	if c.Notification.MQTT.PublishTimeout == 0 {
		c.Notification.MQTT.PublishTimeout = defaultPublishTimeout
	}
	if c.Notification.NATS.Subject == "" {
		c.Notification.NATS.Subject = defaultNATSSubject
	}
	if c.Notification.NATS.Stream == "" {
		c.Notification.NATS.Stream = defaultNATSStream
	}
	if c.Notification.NATS.PublishTimeout == 0 {
		c.Notification.NATS.PublishTimeout = defaultPublishTimeout
	}

	if c.Registration.DefaultInterval == 0 {
		c.Registration.DefaultInterval = defaultInterval
	}
	if c.Registration.MinInterval == 0 {
		c.Registration.MinInterval = defaultMinInterval
	}
	if c.Registration.MaxInterval == 0 {
		c.Registration.MaxInterval = defaultMaxInterval
	}
	if c.Registration.MaxHostIDLength == 0 {
		c.Registration.MaxHostIDLength = defaultMaxHostIDLength
	}

	if c.Reaper.Interval == 0 {
		c.Reaper.Interval = defaultReaperInterval
	}
	if c.Reaper.FailedThreshold == 0 {
		c.Reaper.FailedThreshold = defaultReaperThreshold
	}

	if c.Cache.TTL == 0 {
		c.Cache.TTL = defaultCacheTTL
	}

	if c.Logging.Level == "" {
		c.Logging.Level = LogLevelInfo
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Server),
		validation.Field(&c.Region, validation.Required),
		validation.Field(&c.Etcd),
		validation.Field(&c.Notification),
		validation.Field(&c.Registration),
		validation.Field(&c.Reaper),
		validation.Field(&c.Cache),
		validation.Field(&c.Logging),
	)
}

// Validate validates the HTTP server configuration
func (s ServerConfig) Validate() error {
	return validation.ValidateStruct(&s,
		validation.Field(&s.Addr, validation.Required),
		validation.Field(&s.ReadTimeout, validation.Min(time.Duration(0))),
		validation.Field(&s.WriteTimeout, validation.Min(time.Duration(0))),
	)
}

// Validate validates the etcd configuration
func (e EtcdConfig) Validate() error {
	return validation.ValidateStruct(&e,
		validation.Field(&e.Endpoints, validation.Required),
		validation.Field(&e.Prefix, validation.Required),
		validation.Field(&e.DialTimeout, validation.Min(time.Millisecond)),
		validation.Field(&e.SaveConcurrency, validation.Min(1)),
	)
}

// Validate validates the notification configuration
func (n NotificationConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.Builder, validation.Required, validation.In(BuilderGrouped, BuilderOneToOne)),
		validation.Field(&n.Sender, validation.Required, validation.In(SenderLog, SenderMQTT, SenderNATS)),
		validation.Field(&n.MQTT, validation.Skip.When(n.Sender != SenderMQTT)),
		validation.Field(&n.NATS, validation.Skip.When(n.Sender != SenderNATS)),
	)
}

// Validate validates the MQTT transport configuration
func (m MQTTConfig) Validate() error {
	return validation.ValidateStruct(&m,
		validation.Field(&m.Broker, validation.Required),
		validation.Field(&m.Topic, validation.Required),
		validation.Field(&m.QOS, validation.Min(0), validation.Max(2)),
	)
}

// Validate validates the NATS transport configuration
func (n NATSConfig) Validate() error {
	return validation.ValidateStruct(&n,
		validation.Field(&n.URL, validation.Required),
		validation.Field(&n.Subject, validation.Required),
		validation.Field(&n.Stream, validation.Required),
	)
}

// Validate validates the registration bounds
func (r RegistrationConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.MinInterval, validation.Min(time.Millisecond)),
		validation.Field(&r.MaxInterval, validation.Min(r.MinInterval)),
		validation.Field(&r.DefaultInterval, validation.Min(r.MinInterval), validation.Max(r.MaxInterval)),
		validation.Field(&r.MaxHostIDLength, validation.Min(1)),
	)
}

// Validate validates the reaper configuration
func (r ReaperConfig) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Interval, validation.When(r.Enabled, validation.Min(time.Second))),
		validation.Field(&r.FailedThreshold, validation.When(r.Enabled, validation.Min(1))),
	)
}

// Validate validates the cache configuration
func (c CacheConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.TTL, validation.Min(time.Second)),
	)
}

// Validate validates the logging configuration
func (l LoggingConfig) Validate() error {
	return validation.ValidateStruct(&l,
		validation.Field(&l.Level, validation.In(LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError)),
	)
}
