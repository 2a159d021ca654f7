package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"core_innovators/internal/config"
	"core_innovators/internal/handlers"
	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/mqtt"
	"core_innovators/internal/notify"
	"core_innovators/internal/repository"
	"core_innovators/internal/repository/db"
	"core_innovators/internal/repository/gormstore"
	"core_innovators/internal/server"
	"core_innovators/internal/service"

	"github.com/go-redis/redis/v8"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP/WebSocket API and background monitor",
	RunE:  runServe,
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(configDir, envFile)
	if err != nil {
		return err
	}
	log := logger.Get(cfg.LogLevel)
	defer func() { _ = log.Sync() }()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := newApp(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer a.close()

	return a.run(ctx)
}

// app holds everything serve starts and must later release.
type app struct {
	cfg      *config.Config
	log      *logger.Logger
	services *service.Service
	handler  *handlers.Handler
	bridge   *mqtt.Bridge
	closers  []func() error
}

func newApp(ctx context.Context, cfg *config.Config, log *logger.Logger) (*app, error) {
	a := &app{cfg: cfg, log: log}

	sqlDB, err := db.InitDB(cfg.DB.Path)
	if err != nil {
		return nil, fmt.Errorf("init sqlite: %w", err)
	}
	a.closers = append(a.closers, sqlDB.Close)

	repos := repository.NewRepository(sqlDB)
	if err := a.attachReadingStore(repos); err != nil {
		a.close()
		return nil, err
	}

	gate, err := a.cooldownGate(ctx)
	if err != nil {
		a.close()
		return nil, err
	}

	// The bridge needs the reading service and the service needs the bridge
	// as a notifier; ingest is bound once the service exists.
	ingest := &deferredIngester{}
	var notifiers notify.Multi
	if cfg.Notify.WebhookURL != "" {
		notifiers = append(notifiers, notify.NewWebhook(cfg.Notify.WebhookURL, cfg.Notify.Headers))
	}
	if cfg.MQTT.Enabled {
		a.bridge = mqtt.Dial(mqttOptions(cfg.MQTT), ingest, log.Component("mqtt"))
		notifiers = append(notifiers, a.bridge)
	}

	opts, err := serviceOptions(cfg, log)
	if err != nil {
		a.close()
		return nil, err
	}
	opts.Gate = gate
	if len(notifiers) > 0 {
		opts.Notifier = notifiers
	}

	a.services, err = service.NewService(ctx, repos, opts)
	if err != nil {
		a.close()
		return nil, err
	}
	ingest.target = a.services.Readings
	a.handler = handlers.NewHandler(a.services, log.Component("http"))
	return a, nil
}

// attachReadingStore swaps the sqlite reading feed for an external
// database when readings.driver asks for one.
func (a *app) attachReadingStore(repos *repository.Repository) error {
	rc := a.cfg.Readings
	if rc.Driver == "sqlite" {
		return nil
	}
	gdb, err := gormstore.Open(rc.Driver, rc.DSN, gormstore.Pool{
		MaxIdleConns:    rc.MaxIdleConns,
		MaxOpenConns:    rc.MaxOpenConns,
		ConnMaxLifetime: rc.ConnMaxLifetime,
	})
	if err != nil {
		return err
	}
	if sqlDB, err := gdb.DB(); err == nil {
		a.closers = append(a.closers, sqlDB.Close)
	}
	store := gormstore.NewReadingStore(gdb)
	if rc.Migrate {
		if err := store.Migrate(); err != nil {
			return fmt.Errorf("migrate readings: %w", err)
		}
	}
	repos.Readings = store
	a.log.Infow("readings_store_external", "driver", rc.Driver)
	return nil
}

func (a *app) cooldownGate(ctx context.Context) (service.CooldownGate, error) {
	gc := a.cfg.Outbound.Gate
	if gc.Backend != "redis" {
		return service.NewMemoryGate(service.RealClock()), nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     gc.RedisAddr,
		Password: gc.RedisPassword,
		DB:       gc.RedisDB,
	})
	a.closers = append(a.closers, client.Close)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("connect redis at %s: %w", gc.RedisAddr, err)
	}
	a.log.Infow("cooldown_gate_redis", "addr", gc.RedisAddr)
	return service.NewRedisGate(client, gc.Prefix), nil
}

func (a *app) run(ctx context.Context) error {
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		srv := &server.Server{}
		a.log.Infow("http_listening", "port", a.cfg.Port)
		return srv.ListenAndServe(ctx, a.cfg.Port, a.handler.InitRoutes(), server.DefaultShutdownTimeout)
	})
	g.Go(func() error {
		return a.services.Monitor.Run(ctx)
	})
	if a.cfg.Simulator.Enabled {
		g.Go(func() error {
			a.services.Simulator.Run(ctx, a.cfg.Simulator.Tick)
			return nil
		})
	}
	if a.bridge != nil {
		g.Go(func() error {
			return a.bridge.Run(ctx)
		})
	}

	err := g.Wait()
	a.log.Infow("shutdown_complete")
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.log.Warnw("close_failed", "err", err)
		}
	}
	a.closers = nil
}

// deferredIngester forwards to target, which is set before the bridge runs.
type deferredIngester struct {
	target mqtt.Ingester
}

func (d *deferredIngester) Ingest(ctx context.Context, r models.SensorReading) (models.SensorReading, error) {
	if d.target == nil {
		return models.SensorReading{}, errors.New("reading service not ready")
	}
	return d.target.Ingest(ctx, r)
}

func mqttOptions(c config.MQTTConfig) mqtt.Options {
	return mqtt.Options{
		Broker:        c.Broker,
		ClientID:      c.ClientID,
		Username:      c.Username,
		Password:      c.Password,
		ReadingsTopic: c.ReadingsTopic,
		AlertsTopic:   c.AlertsTopic,
		QoS:           c.QoS,
		ConnectWait:   c.ConnectWait,
	}
}

func serviceOptions(cfg *config.Config, log *logger.Logger) (service.Options, error) {
	loc, err := time.LoadLocation(cfg.Assistant.Timezone)
	if err != nil {
		return service.Options{}, fmt.Errorf("assistant.timezone: %w", err)
	}
	l := cfg.Outbound.Limits
	return service.Options{
		SigningKey:       cfg.Auth.SigningKey,
		TokenTTL:         cfg.Auth.TokenTTL,
		AlertRoom:        cfg.Alerts.Room,
		AlertThresholds:  thresholds(cfg.Alerts.InApp),
		StatusThresholds: thresholds(cfg.Alerts.Status),
		AlertDebounce:    cfg.Alerts.Debounce,
		AlertCooldown:    cfg.Alerts.Cooldown,
		Outbound: service.OutboundLimits{
			HighCO2:        l.HighCO2,
			HighCO:         l.HighCO,
			HighAirQuality: l.HighAirQuality,
			HighSmoke:      l.HighSmoke,
			LowCO2:         l.LowCO2,
			LowCO:          l.LowCO,
		},
		OutboundCooldown:  cfg.Outbound.Cooldown,
		NotifyTimeout:     cfg.Outbound.NotifyTimeout,
		NotificationEmail: cfg.Outbound.Email,
		Assistant:         assistantOptions(cfg.Assistant, loc),
		SeedRules:         cfg.Automation.SeedDefaults,
		Log:               log,
	}, nil
}

func thresholds(t config.ThresholdsConfig) service.Thresholds {
	band := func(b config.Band) service.Band { return service.Band{Warning: b.Warning, Critical: b.Critical} }
	return service.Thresholds{
		models.ChannelCO2:        band(t.CO2),
		models.ChannelCO:         band(t.CO),
		models.ChannelAirQuality: band(t.AirQuality),
		models.ChannelSmoke:      band(t.Smoke),
	}
}
