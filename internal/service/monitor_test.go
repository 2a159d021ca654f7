package service

import (
	"context"
	"testing"
	"time"

	"core_innovators/internal/models"

	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMonitor_FeedsPoliciesAndStopsCleanly(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock()
	repo := &memReadingRepo{}
	events := &fakeEventRepo{}
	readings := NewReadingService(repo, events)
	sink := &notificationSink{}
	notifier := &recordingNotifier{}

	alerts := NewAlertEvaluator(AlertOptions{Clock: clock}, sink.publish)
	outbound := NewOutboundPolicy(OutboundOptions{Clock: clock}, NewMemoryGate(clock), notifier,
		&memAlertHistory{}, NewSettingsService(&memSettingsRepo{}, testRecipient), sink.publish)
	devices := NewDeviceRegistry(DefaultDevices(), nil)
	automation := NewAutomationService(newMemRuleRepo(models.AutomationRule{
		ID: "fan", Condition: "co2", ConditionValue: "> 1000", Action: RuleTurnFanOn, Enabled: true,
	}), devices, events)

	m := NewMonitor(readings, alerts, outbound, automation, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return readings.Subscribers() == 1 }, time.Second, 5*time.Millisecond)

	_, err := readings.Ingest(context.Background(), reading(1200, 4, 20, 100, false))
	require.NoError(t, err)

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.calls == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool {
		return len(events.ofType(models.EventAutomation)) == 1
	}, time.Second, 5*time.Millisecond)

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
	require.Equal(t, 0, readings.Subscribers())
	require.Equal(t, 0, clock.pending())
}

func TestMonitor_EvaluatesStoredReadingOnStart(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock()
	repo := &memReadingRepo{rows: []models.SensorReading{reading(1200, 40, 20, 100, true)}}
	readings := NewReadingService(repo, &fakeEventRepo{})
	sink := &notificationSink{}
	notifier := &recordingNotifier{}

	alerts := NewAlertEvaluator(AlertOptions{Clock: clock}, sink.publish)
	outbound := NewOutboundPolicy(OutboundOptions{Clock: clock}, NewMemoryGate(clock), notifier,
		&memAlertHistory{}, NewSettingsService(&memSettingsRepo{}, testRecipient), sink.publish)

	m := NewMonitor(readings, alerts, outbound, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool {
		notifier.mu.Lock()
		defer notifier.mu.Unlock()
		return notifier.calls == 1
	}, time.Second, 5*time.Millisecond)
	require.Eventually(t, func() bool { return clock.pending() == 1 }, time.Second, 5*time.Millisecond)

	clock.Advance(DefaultAlertDebounce)

	var inApp []models.Notification
	for _, n := range sink.all() {
		if n.Channel != "" {
			inApp = append(inApp, n)
		}
	}
	require.NotEmpty(t, inApp)
	channels := map[models.Channel]models.Severity{}
	for _, n := range inApp {
		channels[n.Channel] = n.Severity
	}
	require.Equal(t, models.SeverityCritical, channels[models.ChannelCO])
	require.Equal(t, models.SeverityCritical, channels[models.ChannelFlame])

	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_EmptyStoreWaitsForPush(t *testing.T) {
	defer goleak.VerifyNone(t)

	clock := newFakeClock()
	readings := NewReadingService(&memReadingRepo{}, &fakeEventRepo{})
	notifier := &recordingNotifier{}
	sink := &notificationSink{}
	alerts := NewAlertEvaluator(AlertOptions{Clock: clock}, sink.publish)
	outbound := NewOutboundPolicy(OutboundOptions{Clock: clock}, NewMemoryGate(clock), notifier,
		&memAlertHistory{}, NewSettingsService(&memSettingsRepo{}, testRecipient), sink.publish)

	m := NewMonitor(readings, alerts, outbound, nil, nil)
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return readings.Subscribers() == 1 }, time.Second, 5*time.Millisecond)
	require.Never(t, func() bool { return clock.pending() > 0 }, 50*time.Millisecond, 5*time.Millisecond)

	cancel()
	require.NoError(t, <-done)
	require.Zero(t, notifier.calls)
	require.Empty(t, sink.all())
}
