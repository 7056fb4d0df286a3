package notification

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/model"
	"github.com/kirychukyurii/hostbeat/internal/util"
)

// MQTTPublisher is the subset of the paho client used for publishing
type MQTTPublisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTSender publishes notifications to an MQTT topic
type MQTTSender struct {
	client  MQTTPublisher
	topic   string
	qos     byte
	timeout time.Duration
	now     func() time.Time
}

// NewMQTTSender creates a sender over an already connected publisher
func NewMQTTSender(client MQTTPublisher, topic string, qos byte, timeout time.Duration) *MQTTSender {
	return &MQTTSender{
		client:  client,
		topic:   topic,
		qos:     qos,
		timeout: timeout,
		now:     time.Now,
	}
}

// ConnectMQTT connects to the configured broker. The client ID gets a random
// suffix so several replicas can share one configuration.
func ConnectMQTT(cfg config.MQTTConfig, logger *slog.Logger) (mqtt.Client, error) {
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "hostbeat"
	}
	clientID = clientID + "-" + uuid.New().String()

	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	opts.SetClientID(clientID)
	opts.SetAutoReconnect(true)
	opts.SetConnectionLostHandler(func(_ mqtt.Client, err error) {
		logger.Warn("mqtt connection lost", slog.String("error", err.Error()))
	})

	tlsConfig, err := util.LoadTLSConfig(cfg.TLS)
	if err != nil {
		return nil, fmt.Errorf("failed to load mqtt TLS config: %w", err)
	}
	if tlsConfig != nil {
		opts.SetTLSConfig(tlsConfig)
	}

	client := mqtt.NewClient(opts)
	token := client.Connect()
	if !token.WaitTimeout(cfg.PublishTimeout) {
		return nil, fmt.Errorf("timed out connecting to mqtt broker %s", cfg.Broker)
	}
	if err := token.Error(); err != nil {
		return nil, fmt.Errorf("failed to connect to mqtt broker %s: %w", cfg.Broker, err)
	}

	logger.Info("connected to mqtt broker",
		slog.String("broker", cfg.Broker),
		slog.String("client_id", clientID),
	)

	return client, nil
}

// Send publishes the notification and waits for the broker acknowledgement
func (s *MQTTSender) Send(_ context.Context, n model.Notification) error {
	_, payload, err := newEnvelope(n, s.now())
	if err != nil {
		return err
	}

	token := s.client.Publish(s.topic, s.qos, false, payload)
	if !token.WaitTimeout(s.timeout) {
		return fmt.Errorf("timed out publishing to %s", s.topic)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to %s: %w", s.topic, err)
	}

	return nil
}
