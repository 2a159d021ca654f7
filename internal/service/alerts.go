package service

import (
	"fmt"
	"sync"
	"time"

	"core_innovators/internal/models"
)

const (
	DefaultAlertDebounce = 10 * time.Second
	DefaultAlertCooldown = 5 * time.Minute
	DefaultAlertRoom     = "Home"

	autoOptimizeAction = "auto_optimize"
)

// alertChannels are evaluated in this order on every reading.
var alertChannels = []models.Channel{
	models.ChannelAirQuality, models.ChannelCO, models.ChannelCO2,
	models.ChannelSmoke, models.ChannelFlame,
}

// AlertKey identifies a fired alert for de-duplication.
type AlertKey struct {
	Room     string
	Channel  models.Channel
	Severity models.Severity
}

func (k AlertKey) String() string {
	return fmt.Sprintf("%s-%s-%s", k.Room, k.Channel, k.Severity)
}

// AlertOptions configure an AlertEvaluator. Zero values take defaults.
type AlertOptions struct {
	Room       string
	Thresholds Thresholds
	Debounce   time.Duration
	Cooldown   time.Duration
	Clock      Clock
}

// AlertEvaluator is the in-app alert policy. Readings are debounced so only
// the last one of a burst is evaluated, and each AlertKey stays suppressed for
// the cooldown window after it fires.
type AlertEvaluator struct {
	room       string
	thresholds Thresholds
	debounce   time.Duration
	cooldown   time.Duration
	clock      Clock
	sink       func(models.Notification)

	mu      sync.Mutex
	pending models.SensorReading
	timer   Timer
	gen     uint64
	active  map[AlertKey]Timer
	closed  bool
}

// NewAlertEvaluator builds an evaluator that hands notifications to sink.
func NewAlertEvaluator(opts AlertOptions, sink func(models.Notification)) *AlertEvaluator {
	if opts.Room == "" {
		opts.Room = DefaultAlertRoom
	}
	if opts.Thresholds == nil {
		opts.Thresholds = DefaultAlertThresholds()
	}
	if opts.Debounce <= 0 {
		opts.Debounce = DefaultAlertDebounce
	}
	if opts.Cooldown <= 0 {
		opts.Cooldown = DefaultAlertCooldown
	}
	if opts.Clock == nil {
		opts.Clock = RealClock()
	}
	return &AlertEvaluator{
		room:       opts.Room,
		thresholds: opts.Thresholds,
		debounce:   opts.Debounce,
		cooldown:   opts.Cooldown,
		clock:      opts.Clock,
		sink:       sink,
		active:     make(map[AlertKey]Timer),
	}
}

// Submit records r as the latest reading and restarts the debounce window.
func (e *AlertEvaluator) Submit(r models.SensorReading) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.pending = r
	if e.timer != nil {
		e.timer.Stop()
	}
	e.gen++
	gen := e.gen
	e.timer = e.clock.AfterFunc(e.debounce, func() { e.flush(gen) })
}

// flush evaluates the pending reading unless a later Submit has replaced
// the timer that called it.
func (e *AlertEvaluator) flush(gen uint64) {
	e.mu.Lock()
	if e.closed || gen != e.gen {
		e.mu.Unlock()
		return
	}
	r := e.pending
	e.timer = nil
	out := e.evaluateLocked(r)
	e.mu.Unlock()

	for _, n := range out {
		e.sink(n)
	}
}

// Evaluate classifies r immediately, bypassing the debounce, and returns the
// notifications that were not suppressed. They are also sent to the sink.
func (e *AlertEvaluator) Evaluate(r models.SensorReading) []models.Notification {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	out := e.evaluateLocked(r)
	e.mu.Unlock()

	for _, n := range out {
		e.sink(n)
	}
	return out
}

func (e *AlertEvaluator) evaluateLocked(r models.SensorReading) []models.Notification {
	var out []models.Notification
	now := e.clock.Now()
	for _, c := range alertChannels {
		sev := e.thresholds.Classify(c, r)
		if sev != models.SeverityWarn && sev != models.SeverityCritical {
			continue
		}
		key := AlertKey{Room: e.room, Channel: c, Severity: sev}
		if _, live := e.active[key]; live {
			continue
		}
		e.active[key] = e.clock.AfterFunc(e.cooldown, func() { e.expire(key) })
		out = append(out, e.notification(c, sev, r, now))
	}
	return out
}

func (e *AlertEvaluator) expire(key AlertKey) {
	e.mu.Lock()
	delete(e.active, key)
	e.mu.Unlock()
}

// Suppressed reports whether key is inside its cooldown window.
func (e *AlertEvaluator) Suppressed(key AlertKey) bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	_, ok := e.active[key]
	return ok
}

// Close cancels the pending debounce and every cooldown timer. Later
// submissions are ignored.
func (e *AlertEvaluator) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if e.timer != nil {
		e.timer.Stop()
		e.timer = nil
	}
	for k, t := range e.active {
		t.Stop()
		delete(e.active, k)
	}
}

func (e *AlertEvaluator) notification(c models.Channel, sev models.Severity, r models.SensorReading, at time.Time) models.Notification {
	n := models.Notification{Room: e.room, Channel: c, Severity: sev, At: at.UTC()}
	if v, ok := r.Value(c); ok {
		n.Value = models.Float(v)
	}
	if sev == models.SeverityCritical {
		n.RecommendedAction = autoOptimizeAction
	}
	n.Message = alertMessage(c, sev, e.room, n.Value)
	return n
}

func alertMessage(c models.Channel, sev models.Severity, room string, v *float64) string {
	val := func(prec int) string {
		if v == nil {
			return ""
		}
		return fmt.Sprintf("%.*f", prec, *v)
	}
	crit := sev == models.SeverityCritical
	switch c {
	case models.ChannelAirQuality:
		if crit {
			return fmt.Sprintf("🚨 CRITICAL: Air quality hazardous in %s: %s PPM. Ventilate immediately.", room, val(1))
		}
		return fmt.Sprintf("⚠️ Air quality elevated in %s: %s PPM. Ventilate or let the assistant optimize.", room, val(1))
	case models.ChannelCO:
		if crit {
			return fmt.Sprintf("🚨 CRITICAL: Carbon Monoxide detected in %s: %s PPM. Evacuate, open windows, call emergency services.", room, val(1))
		}
		return fmt.Sprintf("⚠️ CO levels elevated in %s: %s PPM. Check ventilation.", room, val(1))
	case models.ChannelCO2:
		if crit {
			return fmt.Sprintf("🚨 CRITICAL: CO₂ levels dangerous in %s: %s PPM.", room, val(0))
		}
		return fmt.Sprintf("⚠️ CO₂ elevated in %s: %s PPM. Increase ventilation.", room, val(0))
	case models.ChannelSmoke:
		if crit {
			return fmt.Sprintf("🚨 CRITICAL: Smoke detected in %s. Check for fire immediately.", room)
		}
		return fmt.Sprintf("⚠️ Smoke levels elevated in %s. Investigate source.", room)
	case models.ChannelFlame:
		return fmt.Sprintf("🚨 CRITICAL: Flame detected in %s! Call emergency services immediately.", room)
	}
	return fmt.Sprintf("%s %s in %s", c.Label(), sev, room)
}
