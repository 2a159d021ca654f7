package service

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
	"core_innovators/internal/repository"

	"github.com/google/uuid"
)

var (
	ErrInvalidRule  = errors.New("invalid automation rule")
	ErrRuleNotFound = errors.New("automation rule not found")
)

// Rule actions understood by the engine.
const (
	RuleTurnFanOn        = "turn_fan_on"
	RuleTurnFanOff       = "turn_fan_off"
	RuleTurnLightOn      = "turn_light_on"
	RuleTurnLightOff     = "turn_light_off"
	RuleTurnPurifierOn   = "turn_purifier_on"
	RuleTurnPurifierOff  = "turn_purifier_off"
	RulePurifierAuto     = "set_purifier_auto"
	RulePurifierPower    = "set_purifier_power"
	RulePurifierSleep    = "set_purifier_sleep"
	RuleAllOff           = "all_devices_off"
	RuleTriggerAlarm     = "trigger_alarm"
	RuleSendNotification = "send_notification"
)

var ruleActions = map[string]*models.Action{
	RuleTurnFanOn:        models.SetType(models.DeviceFan, models.PowerOn),
	RuleTurnFanOff:       models.SetType(models.DeviceFan, models.PowerOff),
	RuleTurnLightOn:      models.SetType(models.DeviceLight, models.PowerOn),
	RuleTurnLightOff:     models.SetType(models.DeviceLight, models.PowerOff),
	RuleTurnPurifierOn:   models.SetType(models.DevicePurifier, models.PowerOn),
	RuleTurnPurifierOff:  models.SetType(models.DevicePurifier, models.PowerOff),
	RulePurifierAuto:     models.SetModeByType(models.DevicePurifier, models.ModeAuto),
	RulePurifierPower:    models.SetModeByType(models.DevicePurifier, models.ModePower),
	RulePurifierSleep:    models.SetModeByType(models.DevicePurifier, models.ModeSleep),
	RuleAllOff:           models.SetAll(models.PowerOff),
	RuleTriggerAlarm:     nil,
	RuleSendNotification: nil,
}

// conditionChannels maps rule condition names to reading channels. "gas" is
// the generic gas sensor and reads the air quality channel.
var conditionChannels = map[string]models.Channel{
	"co2":         models.ChannelCO2,
	"co":          models.ChannelCO,
	"air_quality": models.ChannelAirQuality,
	"gas":         models.ChannelAirQuality,
	"smoke":       models.ChannelSmoke,
	"flame":       models.ChannelFlame,
	"motion":      models.ChannelMotion,
}

// DefaultRules are seeded into an empty rule table.
func DefaultRules() []models.AutomationRule {
	return []models.AutomationRule{
		{Condition: "gas", ConditionValue: "> 70", Action: RuleTurnFanOn, Enabled: true},
		{Condition: "co2", ConditionValue: ">= 1000", Action: RulePurifierPower, Enabled: true},
		{Condition: "motion", ConditionValue: "detected", Action: RuleTurnLightOn, Enabled: false},
	}
}

// Condition is a parsed rule predicate over one channel.
type Condition struct {
	Channel models.Channel
	Op      string // >, >=, <, <=, ==, detected, clear
	Value   float64
}

// ParseCondition validates a rule's condition and value.
func ParseCondition(name, value string) (Condition, error) {
	ch, ok := conditionChannels[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return Condition{}, fmt.Errorf("%w: unknown condition %q", ErrInvalidRule, name)
	}
	v := strings.ToLower(strings.TrimSpace(value))

	if ch == models.ChannelFlame || ch == models.ChannelMotion {
		switch v {
		case "detected", "true", "yes":
			return Condition{Channel: ch, Op: "detected"}, nil
		case "clear", "not detected", "false", "no":
			return Condition{Channel: ch, Op: "clear"}, nil
		}
		return Condition{}, fmt.Errorf("%w: %s expects detected or clear, got %q", ErrInvalidRule, name, value)
	}

	for _, op := range []string{">=", "<=", "==", ">", "<"} {
		if rest, ok := strings.CutPrefix(v, op); ok {
			n, err := strconv.ParseFloat(strings.TrimSpace(rest), 64)
			if err != nil {
				return Condition{}, fmt.Errorf("%w: bad number in %q", ErrInvalidRule, value)
			}
			return Condition{Channel: ch, Op: op, Value: n}, nil
		}
	}
	return Condition{}, fmt.Errorf("%w: %q needs an operator like \"> 70\"", ErrInvalidRule, value)
}

// Match reports whether r satisfies c. Unknown channel values never match.
func (c Condition) Match(r models.SensorReading) bool {
	switch c.Op {
	case "detected", "clear":
		v, ok := r.Flag(c.Channel)
		return ok && v == (c.Op == "detected")
	}
	v, ok := r.Value(c.Channel)
	if !ok {
		return false
	}
	switch c.Op {
	case ">":
		return v > c.Value
	case ">=":
		return v >= c.Value
	case "<":
		return v < c.Value
	case "<=":
		return v <= c.Value
	case "==":
		return v == c.Value
	}
	return false
}

// RuleFiring is one rule that fired on a reading.
type RuleFiring struct {
	Rule   models.AutomationRule
	Action *models.Action
	Err    error
}

// AutomationService manages IF-THEN rules and runs them against readings.
// A rule fires when its condition becomes true, not on every reading while it
// stays true.
type AutomationService struct {
	repo    repository.RuleRepo
	devices *DeviceRegistry
	events  repository.EventRepo
	sink    func(models.Notification)
	log     *logger.Logger

	mu      sync.Mutex
	matched map[string]bool
}

func NewAutomationService(repo repository.RuleRepo, devices *DeviceRegistry, events repository.EventRepo) *AutomationService {
	return &AutomationService{
		repo:    repo,
		devices: devices,
		events:  events,
		matched: make(map[string]bool),
	}
}

// SetLogger sets where event log failures are reported.
func (s *AutomationService) SetLogger(log *logger.Logger) { s.log = log }

// SetSink routes alarm and notification actions.
func (s *AutomationService) SetSink(sink func(models.Notification)) { s.sink = sink }

func (s *AutomationService) List(ctx context.Context) ([]models.AutomationRule, error) {
	return s.repo.List(ctx)
}

func (s *AutomationService) Get(ctx context.Context, id string) (models.AutomationRule, error) {
	r, err := s.repo.Get(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return models.AutomationRule{}, ErrRuleNotFound
	}
	return r, err
}

func (s *AutomationService) Create(ctx context.Context, rule models.AutomationRule) (models.AutomationRule, error) {
	if err := validateRule(rule); err != nil {
		return models.AutomationRule{}, err
	}
	rule.ID = uuid.NewString()
	rule.CreatedAt = time.Now().UTC()
	rule.Condition = strings.ToLower(strings.TrimSpace(rule.Condition))
	rule.ConditionValue = strings.TrimSpace(rule.ConditionValue)
	if err := s.repo.Create(ctx, rule); err != nil {
		return models.AutomationRule{}, err
	}
	return rule, nil
}

func (s *AutomationService) Update(ctx context.Context, rule models.AutomationRule) (models.AutomationRule, error) {
	if err := validateRule(rule); err != nil {
		return models.AutomationRule{}, err
	}
	cur, err := s.Get(ctx, rule.ID)
	if err != nil {
		return models.AutomationRule{}, err
	}
	rule.CreatedAt = cur.CreatedAt
	if err := s.repo.Update(ctx, rule); err != nil {
		return models.AutomationRule{}, err
	}
	s.forget(rule.ID)
	return rule, nil
}

func (s *AutomationService) SetEnabled(ctx context.Context, id string, enabled bool) (models.AutomationRule, error) {
	rule, err := s.Get(ctx, id)
	if err != nil {
		return models.AutomationRule{}, err
	}
	rule.Enabled = enabled
	if err := s.repo.Update(ctx, rule); err != nil {
		return models.AutomationRule{}, err
	}
	s.forget(id)
	return rule, nil
}

func (s *AutomationService) Delete(ctx context.Context, id string) error {
	err := s.repo.Delete(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return ErrRuleNotFound
	}
	s.forget(id)
	return err
}

// SeedDefaults stores DefaultRules when no rule exists yet.
func (s *AutomationService) SeedDefaults(ctx context.Context) error {
	existing, err := s.repo.List(ctx)
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}
	for _, r := range DefaultRules() {
		if _, err := s.Create(ctx, r); err != nil {
			return fmt.Errorf("seed rule %s: %w", r.Action, err)
		}
	}
	return nil
}

// Evaluate runs every enabled rule against r and applies the actions of the
// rules whose condition just became true.
func (s *AutomationService) Evaluate(ctx context.Context, r models.SensorReading) ([]RuleFiring, error) {
	rules, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}

	var fired []RuleFiring
	for _, rule := range rules {
		if !rule.Enabled {
			continue
		}
		cond, err := ParseCondition(rule.Condition, rule.ConditionValue)
		if err != nil {
			continue
		}
		now := cond.Match(r)
		if !s.transition(rule.ID, now) {
			continue
		}
		f := RuleFiring{Rule: rule, Action: ruleActions[rule.Action]}
		f.Err = s.run(ctx, rule, f.Action)
		fired = append(fired, f)
	}
	return fired, nil
}

// transition records the latest match state and reports a false->true edge.
func (s *AutomationService) transition(id string, now bool) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	was := s.matched[id]
	s.matched[id] = now
	return now && !was
}

func (s *AutomationService) forget(id string) {
	s.mu.Lock()
	delete(s.matched, id)
	s.mu.Unlock()
}

func (s *AutomationService) run(ctx context.Context, rule models.AutomationRule, a *models.Action) error {
	desc := fmt.Sprintf("Rule fired: IF %s %s THEN %s", rule.Condition, rule.ConditionValue, rule.Action)
	appendEvent(ctx, s.events, s.log, models.Event{
		EventID:     uuid.NewString(),
		Type:        models.EventAutomation,
		Description: desc,
		Metadata:    map[string]any{"rule_id": rule.ID, "action": rule.Action},
	})

	if a != nil {
		_, err := s.devices.Apply(ctx, *a)
		return err
	}
	if s.sink == nil {
		return nil
	}
	sev := models.SeverityWarn
	if rule.Action == RuleTriggerAlarm {
		sev = models.SeverityCritical
	}
	s.sink(models.Notification{
		Severity: sev,
		Message:  desc,
		At:       time.Now().UTC(),
	})
	return nil
}

func validateRule(r models.AutomationRule) error {
	if _, err := ParseCondition(r.Condition, r.ConditionValue); err != nil {
		return err
	}
	if _, ok := ruleActions[r.Action]; !ok {
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRule, r.Action)
	}
	return nil
}
