package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/kirychukyurii/hostbeat/internal/api"
	"github.com/kirychukyurii/hostbeat/internal/cache"
	"github.com/kirychukyurii/hostbeat/internal/changefeed"
	"github.com/kirychukyurii/hostbeat/internal/clock"
	"github.com/kirychukyurii/hostbeat/internal/config"
	"github.com/kirychukyurii/hostbeat/internal/logger"
	"github.com/kirychukyurii/hostbeat/internal/metrics"
	"github.com/kirychukyurii/hostbeat/internal/notification"
	"github.com/kirychukyurii/hostbeat/internal/reaper"
	"github.com/kirychukyurii/hostbeat/internal/region"
	"github.com/kirychukyurii/hostbeat/internal/repository"
	"github.com/kirychukyurii/hostbeat/internal/service"
	"github.com/kirychukyurii/hostbeat/pkg/httpserver"
)

func main() {
	// Parse command line flags
	configPath := flag.String("config", "config.yaml", "path to configuration file")
	flag.Parse()

	// Load configuration
	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.New(config.LogLevelInfo).Error("failed to load configuration",
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	log := logger.New(cfg.Logging.Level)
	log.Info("configuration loaded",
		slog.String("region", cfg.Region),
		slog.String("builder", cfg.Notification.Builder),
		slog.String("sender", cfg.Notification.Sender),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("service failed", slog.String("error", err.Error()))
		os.Exit(1)
	}

	log.Info("shutdown complete")
}

func run(ctx context.Context, cfg *config.Config, log *slog.Logger) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := clock.System{}
	collector := metrics.NewPrometheus("")
	regions := region.NewFilter(cfg.Settings(), config.SettingRegion)

	// The region must resolve before any change is processed
	if _, err := regions.CurrentRegion(ctx); err != nil {
		return err
	}

	etcdClient, err := repository.NewEtcdClient(ctx, cfg.Etcd, log)
	if err != nil {
		return err
	}
	defer etcdClient.Close()

	repo := repository.NewHeartBeatRepository(etcdClient, cfg.Etcd.Prefix, cfg.Etcd.SaveConcurrency, now, log)

	sender, closeSender, err := newSender(ctx, cfg.Notification, log)
	if err != nil {
		return err
	}
	defer closeSender()

	builder, err := notification.NewBuilder(cfg.Notification.Builder, now)
	if err != nil {
		return err
	}

	processor := service.NewChangeProcessor(
		changefeed.NewClassifier(log),
		regions,
		builder,
		notification.NewDispatcher(sender, cfg.Notification.Sender, collector, log),
		collector,
		log,
	)

	// Start change feed watcher
	watcher := repository.NewWatcher(etcdClient, cfg.Etcd.Prefix, cache.New(cfg.Cache.TTL), cfg.Cache.TTL, log)
	watcherDone := make(chan struct{})
	go func() {
		defer close(watcherDone)
		watcher.Run(ctx, func(ctx context.Context, records []changefeed.Record) error {
			_, err := processor.Process(ctx, records)
			return err
		})
	}()

	// Start reaper
	heartBeatReaper := reaper.New(cfg.Reaper, repo, regions, now, collector, log)
	heartBeatReaper.Start(ctx)

	handler := api.NewHandler(
		service.NewRegistrationService(repo, regions, now, cfg.Registration, collector, log),
		service.NewStatusService(regions, cfg.Notification.Builder, cfg.Notification.Sender),
		collector.Handler(),
		cfg.Server.BasePath,
		log,
	)

	srv := httpserver.New(
		cfg.Server.Addr,
		handler.Router(),
		cfg.Server.ReadTimeout,
		cfg.Server.WriteTimeout,
		log,
	)

	log.Info("starting hostbeat service")

	serverErr := srv.Run(ctx)

	// Graceful shutdown, also when the server failed on its own
	cancel()
	heartBeatReaper.Stop()
	<-watcherDone

	return serverErr
}

// newSender builds the configured notification transport. The returned
// close function releases its connection.
func newSender(ctx context.Context, cfg config.NotificationConfig, log *slog.Logger) (notification.Sender, func(), error) {
	switch cfg.Sender {
	case config.SenderLog:
		return notification.NewLogSender(log), func() {}, nil

	case config.SenderMQTT:
		client, err := notification.ConnectMQTT(cfg.MQTT, log)
		if err != nil {
			return nil, nil, err
		}
		sender := notification.NewMQTTSender(client, cfg.MQTT.Topic, byte(cfg.MQTT.QOS), cfg.MQTT.PublishTimeout)
		return sender, func() { client.Disconnect(250) }, nil

	case config.SenderNATS:
		nc, js, err := notification.ConnectNATS(ctx, cfg.NATS, log)
		if err != nil {
			return nil, nil, err
		}
		sender := notification.NewNATSSender(js, cfg.NATS.Subject, cfg.NATS.PublishTimeout)
		return sender, func() { _ = nc.Drain() }, nil

	default:
		return nil, nil, fmt.Errorf("unknown notification sender %q", cfg.Sender)
	}
}
