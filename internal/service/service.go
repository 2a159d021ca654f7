package service

import (
	"context"
	"fmt"
	"time"

	"core_innovators/internal/assistant"
	"core_innovators/internal/knowledge"
	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"
)

// Authorization manages household accounts and access tokens.
type Authorization interface {
	SignUp(ctx context.Context, in SignUpInput) (int, error)
	GenerateToken(ctx context.Context, username, password string) (string, error)
	ParseToken(accessToken string) (models.Identity, error)
	Profile(ctx context.Context, userID int) (models.User, error)
}

// Readings serves sensor data and accepts new readings.
type Readings interface {
	Latest(ctx context.Context) (models.SensorReading, error)
	Status(ctx context.Context) (models.SensorReading, []ChannelStatus, error)
	List(ctx context.Context, f ReadingFilter) ([]models.SensorReading, error)
	Ingest(ctx context.Context, r models.SensorReading) (models.SensorReading, error)
	Subscribe(fn func(models.SensorReading)) (unsubscribe func())
}

// Devices controls the smart device registry.
type Devices interface {
	List(ctx context.Context) []models.Device
	Get(ctx context.Context, id string) (models.Device, error)
	Toggle(ctx context.Context, id string, state models.PowerState) (models.Device, error)
	SetMode(ctx context.Context, id string, mode models.DeviceMode) (models.Device, error)
	Apply(ctx context.Context, a models.Action) (int, error)
}

// Knowledge is the read-only knowledge base.
type Knowledge interface {
	Search(query string, limit int) []knowledge.Match
	Categories() []knowledge.Category
	ByCategory(category, subcategory string) ([]knowledge.QAPair, error)
	HighPriority(limit int) []knowledge.QAPair
	Entry(id string) (knowledge.QAPair, error)
	Related(id string, limit int) ([]knowledge.QAPair, error)
}

// Assistant answers free-text commands.
type Assistant interface {
	Handle(ctx context.Context, utterance string) assistant.Reply
}

// Automation manages IF-THEN rules.
type Automation interface {
	List(ctx context.Context) ([]models.AutomationRule, error)
	Get(ctx context.Context, id string) (models.AutomationRule, error)
	Create(ctx context.Context, rule models.AutomationRule) (models.AutomationRule, error)
	Update(ctx context.Context, rule models.AutomationRule) (models.AutomationRule, error)
	SetEnabled(ctx context.Context, id string, enabled bool) (models.AutomationRule, error)
	Delete(ctx context.Context, id string) error
}

// Alerts exposes outbound alert history and live notifications.
type Alerts interface {
	History(ctx context.Context) ([]models.AlertRecord, error)
	Recent() []models.Notification
	SubscribeNotifications(fn func(models.Notification)) (unsubscribe func())
}

// Settings holds user preferences.
type Settings interface {
	NotificationEmail(ctx context.Context) (string, error)
	SetNotificationEmail(ctx context.Context, email string) (string, error)
}

// EventLog exposes append-only logs with filtering access.
type EventLog interface {
	List(ctx context.Context, f LogFilter) ([]models.Event, error)
}

// Simulator feeds random readings; stop it by cancelling ctx.
type Simulator interface {
	Run(ctx context.Context, tick time.Duration)
}

// Runner is a long-lived background loop.
type Runner interface {
	Run(ctx context.Context) error
}

// Service aggregates every sub-service the transport layers use.
type Service struct {
	Authorization Authorization
	Readings      Readings
	Devices       Devices
	Knowledge     Knowledge
	Assistant     Assistant
	Automation    Automation
	Alerts        Alerts
	Settings      Settings
	EventLog      EventLog
	Simulator     Simulator
	Monitor       Runner
}

// Options carries the tunables NewService needs beyond the repositories.
type Options struct {
	SigningKey string
	TokenTTL   time.Duration

	AlertRoom        string
	AlertThresholds  Thresholds
	StatusThresholds Thresholds
	AlertDebounce    time.Duration
	AlertCooldown    time.Duration

	Outbound         OutboundLimits
	OutboundCooldown time.Duration
	NotifyTimeout    time.Duration
	Gate             CooldownGate
	Notifier         Notifier

	NotificationEmail string
	Devices           []models.Device
	Knowledge         *knowledge.Store
	Assistant         assistant.Options
	SeedRules         bool

	Clock Clock
	Log   *logger.Logger
}

// NewService wires the repository layer into concrete services.
func NewService(ctx context.Context, repos *repository.Repository, opts Options) (*Service, error) {
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if opts.Devices == nil {
		opts.Devices = DefaultDevices()
	}
	var err error
	store := opts.Knowledge
	if store == nil {
		if store, err = knowledge.LoadDefault(); err != nil {
			return nil, fmt.Errorf("load knowledge base: %w", err)
		}
	}
	matcher := knowledge.NewMatcher(store)

	hub := NewNotificationHub(repos.Events)
	hub.SetLogger(opts.Log)
	readings := NewReadingService(repos.Readings, repos.Events)
	readings.SetLogger(opts.Log)
	if opts.StatusThresholds != nil {
		readings.SetStatusThresholds(opts.StatusThresholds)
	}
	devices := NewDeviceRegistry(opts.Devices, repos.Events)
	devices.SetLogger(opts.Log)
	settings := NewSettingsService(repos.Settings, opts.NotificationEmail)
	auth, err := NewAuthService(repos.Users, AuthOptions{
		SigningKey: opts.SigningKey,
		TokenTTL:   opts.TokenTTL,
		Recipients: settings,
		Now:        opts.Clock.Now,
		Log:        opts.Log,
	})
	if err != nil {
		return nil, err
	}

	automation := NewAutomationService(repos.Rules, devices, repos.Events)
	automation.SetLogger(opts.Log)
	automation.SetSink(hub.Publish)
	if opts.SeedRules {
		if err := automation.SeedDefaults(ctx); err != nil {
			return nil, fmt.Errorf("seed automation rules: %w", err)
		}
	}

	alerts := NewAlertEvaluator(AlertOptions{
		Room:       opts.AlertRoom,
		Thresholds: opts.AlertThresholds,
		Debounce:   opts.AlertDebounce,
		Cooldown:   opts.AlertCooldown,
		Clock:      opts.Clock,
	}, hub.Publish)
	outbound := NewOutboundPolicy(OutboundOptions{
		Limits:        opts.Outbound,
		Cooldown:      opts.OutboundCooldown,
		NotifyTimeout: opts.NotifyTimeout,
		Clock:         opts.Clock,
		Log:           opts.Log,
	}, opts.Gate, opts.Notifier, repos.Alerts, settings, hub.Publish)

	interpreter := assistant.NewInterpreter(devices, readings, matcher, opts.Assistant)

	return &Service{
		Authorization: auth,
		Readings:      readings,
		Devices:       devices,
		Knowledge:     NewKnowledgeService(matcher),
		Assistant:     NewAssistantService(interpreter, repos.Events, opts.Log),
		Automation:    automation,
		Alerts:        &AlertFeed{outbound: outbound, hub: hub},
		Settings:      settings,
		EventLog:      NewEventLogService(repos.Events),
		Simulator:     NewSimulatorService(readings, nil, opts.Log),
		Monitor:       NewMonitor(readings, alerts, outbound, automation, opts.Log),
	}, nil
}

// AlertFeed joins the outbound history with the live notification hub.
type AlertFeed struct {
	outbound *OutboundPolicy
	hub      *NotificationHub
}

func (f *AlertFeed) History(ctx context.Context) ([]models.AlertRecord, error) {
	return f.outbound.History(ctx)
}

func (f *AlertFeed) Recent() []models.Notification { return f.hub.Recent() }

func (f *AlertFeed) SubscribeNotifications(fn func(models.Notification)) func() {
	return f.hub.Subscribe(fn)
}
