package service

import (
	"context"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"
)

// Monitor connects the reading feed to the alert policies and the
// automation engine.
type Monitor struct {
	readings   *ReadingService
	alerts     *AlertEvaluator
	outbound   *OutboundPolicy
	automation *AutomationService
	log        *logger.Logger
}

func NewMonitor(readings *ReadingService, alerts *AlertEvaluator, outbound *OutboundPolicy,
	automation *AutomationService, log *logger.Logger) *Monitor {
	return &Monitor{
		readings:   readings,
		alerts:     alerts,
		outbound:   outbound,
		automation: automation,
		log:        log,
	}
}

// Run processes readings until ctx is cancelled. The stored latest reading
// is evaluated first, then pushed readings. Readings that arrive while one is
// being processed replace each other, so only the newest is handled.
// On return the subscription is removed and pending alert timers are stopped.
func (m *Monitor) Run(ctx context.Context) error {
	slot := make(chan models.SensorReading, 1)
	offer := func(r models.SensorReading) {
		for {
			select {
			case slot <- r:
				return
			default:
			}
			select {
			case <-slot:
			default:
			}
		}
	}
	unsubscribe := m.readings.Subscribe(offer)
	defer func() {
		unsubscribe()
		m.alerts.Close()
		m.outbound.Wait()
	}()

	latest, err := m.readings.Latest(ctx)
	switch {
	case err != nil:
		m.logw("latest_reading_failed", err)
	case !latest.IsEmpty():
		select {
		case slot <- latest:
		default:
			// a pushed reading is already queued and is at least as new
		}
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case r := <-slot:
			m.handle(ctx, r)
		}
	}
}

func (m *Monitor) handle(ctx context.Context, r models.SensorReading) {
	m.alerts.Submit(r)

	if _, err := m.outbound.Check(ctx, r); err != nil {
		m.logw("outbound_check_failed", err)
	}

	if m.automation == nil {
		return
	}
	fired, err := m.automation.Evaluate(ctx, r)
	if err != nil {
		m.logw("automation_eval_failed", err)
		return
	}
	for _, f := range fired {
		if f.Err != nil {
			m.logw("automation_action_failed", f.Err, "rule_id", f.Rule.ID)
		} else if m.log != nil {
			m.log.Infow("automation_rule_fired", "rule_id", f.Rule.ID, "action", f.Rule.Action)
		}
	}
}

func (m *Monitor) logw(msg string, err error, kv ...any) {
	if m.log == nil {
		return
	}
	m.log.Errorw(msg, append([]any{"error", err}, kv...)...)
}
