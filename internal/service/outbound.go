package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"

	"github.com/google/uuid"
)

const (
	DefaultOutboundCooldown = 3 * time.Minute
	DefaultNotifyTimeout    = 10 * time.Second
	AlertHistoryLimit       = 50

	alertSubject     = "CORE Innovators - Gas Level Alert"
	outboundGateKey  = "outbound-alert"
	flameDetected    = "DETECTED"
	flameNotDetected = "Not detected"
)

// Notifier delivers an alert to the outbound notification service.
type Notifier interface {
	Notify(ctx context.Context, recipient string, payload models.AlertPayload) error
}

// NotifierFunc adapts a plain function to Notifier.
type NotifierFunc func(ctx context.Context, recipient string, payload models.AlertPayload) error

func (f NotifierFunc) Notify(ctx context.Context, recipient string, payload models.AlertPayload) error {
	return f(ctx, recipient, payload)
}

var (
	// ErrNoNotifier is reported for every delivery when no notifier is configured.
	ErrNoNotifier = errors.New("no outbound notifier configured")
	// ErrNoRecipient is recorded on alerts raised while no address is set.
	ErrNoRecipient = errors.New("no alert email configured")
)

// AlertHistory persists outbound alerts.
type AlertHistory interface {
	Append(ctx context.Context, rec models.AlertRecord) error
	MarkDelivered(ctx context.Context, id string, deliveryErr string) error
	Recent(ctx context.Context, limit int) ([]models.AlertRecord, error)
}

// RecipientSource resolves the address outbound alerts go to.
type RecipientSource interface {
	NotificationEmail(ctx context.Context) (string, error)
}

// OutboundLimits are the trigger levels of the outbound policy. High levels
// fire strictly above, low levels strictly below.
type OutboundLimits struct {
	HighCO2        float64
	HighCO         float64
	HighAirQuality float64
	HighSmoke      float64
	LowCO2         float64
	LowCO          float64
}

func DefaultOutboundLimits() OutboundLimits {
	return OutboundLimits{
		HighCO2:        1000,
		HighCO:         9,
		HighAirQuality: 75,
		HighSmoke:      150,
		LowCO2:         300,
		LowCO:          1,
	}
}

type OutboundOptions struct {
	Limits        OutboundLimits
	Cooldown      time.Duration
	NotifyTimeout time.Duration
	Clock         Clock
	Log           *logger.Logger
}

// OutboundResult describes what one Check did.
type OutboundResult struct {
	Lines     []string
	Gated     bool
	Remaining time.Duration
	Record    *models.AlertRecord
}

// Triggered reports whether the reading matched any condition.
func (r OutboundResult) Triggered() bool { return len(r.Lines) > 0 }

// OutboundPolicy decides when to send an outbound alert. A single global
// gate suppresses every condition while any alert is cooling down.
type OutboundPolicy struct {
	limits     OutboundLimits
	cooldown   time.Duration
	timeout    time.Duration
	clock      Clock
	gate       CooldownGate
	notifier   Notifier
	history    AlertHistory
	recipients RecipientSource
	sink       func(models.Notification)
	log        *logger.Logger

	wg sync.WaitGroup
}

func NewOutboundPolicy(opts OutboundOptions, gate CooldownGate, notifier Notifier, history AlertHistory,
	recipients RecipientSource, sink func(models.Notification)) *OutboundPolicy {
	if opts.Limits == (OutboundLimits{}) {
		opts.Limits = DefaultOutboundLimits()
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultOutboundCooldown
	}
	if opts.NotifyTimeout <= 0 {
		opts.NotifyTimeout = DefaultNotifyTimeout
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	if gate == nil {
		gate = NewMemoryGate(opts.Clock)
	}
	if notifier == nil {
		notifier = NotifierFunc(func(context.Context, string, models.AlertPayload) error { return ErrNoNotifier })
	}
	return &OutboundPolicy{
		limits:     opts.Limits,
		cooldown:   opts.Cooldown,
		timeout:    opts.NotifyTimeout,
		clock:      opts.Clock,
		gate:       gate,
		notifier:   notifier,
		history:    history,
		recipients: recipients,
		sink:       sink,
		log:        opts.Log,
	}
}

// Conditions lists the alert lines r triggers. Readings missing any gas
// channel never trigger.
func (p *OutboundPolicy) Conditions(r models.SensorReading) []string {
	if !r.HasAllGases() {
		return nil
	}
	co2, _ := r.Value(models.ChannelCO2)
	co, _ := r.Value(models.ChannelCO)
	aq, _ := r.Value(models.ChannelAirQuality)
	smoke, _ := r.Value(models.ChannelSmoke)
	flame, _ := r.Flag(models.ChannelFlame)

	l := p.limits
	var lines []string
	if co2 > l.HighCO2 {
		lines = append(lines, "⚠️ High CO2: "+models.FormatPPM(co2)+" PPM")
	}
	if co > l.HighCO {
		lines = append(lines, "⚠️ High CO: "+models.FormatPPM(co)+" PPM")
	}
	if aq > l.HighAirQuality {
		lines = append(lines, "⚠️ High Air Quality: "+models.FormatPPM(aq)+" PPM")
	}
	if smoke > l.HighSmoke {
		lines = append(lines, "⚠️ High Smoke: "+models.FormatPPM(smoke)+" PPM")
	}
	if flame {
		lines = append(lines, "🔥 FLAME DETECTED!")
	}
	if co2 < l.LowCO2 {
		lines = append(lines, "⬇️ Low CO2: "+models.FormatPPM(co2)+" PPM")
	}
	if co < l.LowCO {
		lines = append(lines, "⬇️ Low CO: "+models.FormatPPM(co)+" PPM")
	}
	return lines
}

// Check evaluates r and, when allowed by the gate, records the alert and
// dispatches it asynchronously. Delivery failures surface as notices only.
// Without a recipient the alert is recorded as undelivered and nothing is
// sent.
func (p *OutboundPolicy) Check(ctx context.Context, r models.SensorReading) (OutboundResult, error) {
	res := OutboundResult{Lines: p.Conditions(r)}
	if !res.Triggered() {
		return res, nil
	}

	ok, remaining, err := p.gate.Acquire(ctx, outboundGateKey, p.cooldown)
	if err != nil {
		return res, fmt.Errorf("acquire outbound cooldown: %w", err)
	}
	now := p.clock.Now().UTC()
	if !ok {
		res.Gated = true
		res.Remaining = remaining
		p.emit(models.Notification{
			Severity: models.SeverityWarn,
			Message:  fmt.Sprintf("Gas level alert detected! Email cooldown active. Next alert in %d min", ceilMinutes(remaining)),
			At:       now,
		})
		return res, nil
	}

	recipient, err := p.recipients.NotificationEmail(ctx)
	if err != nil {
		return res, fmt.Errorf("resolve alert recipient: %w", err)
	}

	rec := models.AlertRecord{
		ID:        uuid.NewString(),
		At:        now,
		Recipient: recipient,
		Message:   strings.Join(res.Lines, "\n"),
		Sensors:   r,
	}
	if recipient == "" {
		rec.Error = ErrNoRecipient.Error()
	}
	if err := p.history.Append(ctx, rec); err != nil {
		return res, fmt.Errorf("record alert: %w", err)
	}
	res.Record = &rec

	if recipient == "" {
		if p.log != nil {
			p.log.Warnw("outbound_alert_without_recipient", "alert_id", rec.ID)
		}
		p.emit(models.Notification{
			Severity: models.SeverityWarn,
			Message:  "Gas level alert! No alert email is set, so no email was sent: " + strings.Join(res.Lines, " | "),
			At:       now,
		})
		return res, nil
	}

	p.emit(models.Notification{
		Severity: models.SeverityCritical,
		Message:  fmt.Sprintf("Gas level alert! Email sent to %s: %s", recipient, strings.Join(res.Lines, " | ")),
		At:       now,
	})

	payload := buildPayload(rec, r)
	p.wg.Add(1)
	go p.deliver(context.WithoutCancel(ctx), rec, payload)
	return res, nil
}

func (p *OutboundPolicy) deliver(ctx context.Context, rec models.AlertRecord, payload models.AlertPayload) {
	defer p.wg.Done()

	sendCtx, cancel := context.WithTimeout(ctx, p.timeout)
	err := p.notifier.Notify(sendCtx, rec.Recipient, payload)
	cancel()

	var errMsg string
	if err != nil {
		errMsg = err.Error()
		p.emit(models.Notification{
			Severity: models.SeverityWarn,
			Message:  "Failed to send email alert: " + errMsg,
			At:       p.clock.Now().UTC(),
		})
	} else {
		p.emit(models.Notification{
			Severity: models.SeveritySafe,
			Message:  "Email alert sent successfully to " + rec.Recipient,
			At:       p.clock.Now().UTC(),
		})
	}
	if err := p.history.MarkDelivered(ctx, rec.ID, errMsg); err != nil && p.log != nil {
		p.log.Warnw("alert_mark_delivered_failed", "alert_id", rec.ID, "error", err)
	}
}

// History returns the most recent outbound alerts, newest first.
func (p *OutboundPolicy) History(ctx context.Context) ([]models.AlertRecord, error) {
	return p.history.Recent(ctx, AlertHistoryLimit)
}

// Wait blocks until in-flight deliveries finish.
func (p *OutboundPolicy) Wait() { p.wg.Wait() }

func (p *OutboundPolicy) emit(n models.Notification) {
	if p.sink != nil {
		p.sink(n)
	}
}

func buildPayload(rec models.AlertRecord, r models.SensorReading) models.AlertPayload {
	flame := flameNotDetected
	if v, ok := r.Flag(models.ChannelFlame); ok && v {
		flame = flameDetected
	}
	return models.AlertPayload{
		Subject:     alertSubject,
		Message:     rec.Message,
		Timestamp:   rec.At,
		CO2Level:    r.CO2PPM,
		COLevel:     r.COPPM,
		AirQuality:  r.AirQualityPPM,
		SmokeLevel:  r.SmokePPM,
		FlameStatus: flame,
	}
}

func ceilMinutes(d time.Duration) int {
	return int(math.Ceil(d.Minutes()))
}
