package service

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"core_innovators/internal/logger"
	"core_innovators/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAppendEvent_FailuresAreLogged(t *testing.T) {
	ctx := context.Background()
	events := &fakeEventRepo{appendErr: errors.New("database is locked")}
	var buf bytes.Buffer
	log := logger.New(&buf, logger.WarnLevel)

	devices := NewDeviceRegistry(DefaultDevices(), events)
	devices.SetLogger(log)
	_, err := devices.Toggle(ctx, "lr-light", models.PowerOff)
	require.NoError(t, err, "a failed event write does not fail the toggle")

	readings := NewReadingService(&memReadingRepo{}, events)
	readings.SetLogger(log)
	_, err = readings.Ingest(ctx, reading(400, 2, 20, 100, false))
	require.NoError(t, err)

	hub := NewNotificationHub(events)
	hub.SetLogger(log)
	hub.Publish(models.Notification{Severity: models.SeveritySafe, Message: "Scene set"})

	automation := NewAutomationService(nil, devices, events)
	automation.SetLogger(log)
	require.NoError(t, automation.run(ctx, models.AutomationRule{ID: "r1", Condition: "co2", ConditionValue: "high", Action: "notify"}, nil))

	_ = log.Sync()
	out := buf.String()
	assert.Equal(t, 4, strings.Count(out, "event_append_failed"), out)
	assert.Equal(t, 4, strings.Count(out, "database is locked"), out)
	for _, typ := range []string{models.EventDevice, models.EventReading, models.EventNotification, models.EventAutomation} {
		assert.Contains(t, out, typ)
	}
}

func TestAppendEvent_NilRepoIsSkipped(t *testing.T) {
	var buf bytes.Buffer
	assert.NotPanics(t, func() {
		appendEvent(context.Background(), nil, logger.New(&buf, logger.DebugLevel), models.Event{Type: models.EventDevice})
	})
	assert.Empty(t, buf.String())
}

func TestDeviceEvents_CarryCaller(t *testing.T) {
	events := &fakeEventRepo{}
	devices := NewDeviceRegistry(DefaultDevices(), events)
	ctx := WithIdentity(context.Background(), models.Identity{UserID: 7, Username: "durai"})

	_, err := devices.Toggle(ctx, "br-lamp", models.PowerOn)
	require.NoError(t, err)

	got := events.ofType(models.EventDevice)
	require.Len(t, got, 1)
	meta := got[0].Metadata.(map[string]any)
	assert.Equal(t, 7, meta["user_id"])
	assert.Equal(t, "durai", meta["username"])
	assert.Equal(t, "br-lamp", meta["id"])
}
