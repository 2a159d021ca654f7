package main

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"
	"time"

	"core_innovators/internal/assistant"
	"core_innovators/internal/config"
	"core_innovators/internal/models"
	"core_innovators/internal/service"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testCmd(t *testing.T) (*cobra.Command, *bytes.Buffer) {
	t.Helper()
	configDir = t.TempDir()
	envFile = ""
	t.Cleanup(func() { configDir, envFile = "configs", ".env" })

	var buf bytes.Buffer
	cmd := &cobra.Command{}
	cmd.SetOut(&buf)
	cmd.SetContext(context.Background())
	return cmd, &buf
}

func TestKBSearch(t *testing.T) {
	cmd, out := testCmd(t)
	kbLimit = 3

	require.NoError(t, runKBSearch(cmd, []string{"What", "is", "CO2?"}))
	assert.Contains(t, out.String(), "aq_co2_001")
}

func TestKBShowUnknown(t *testing.T) {
	cmd, _ := testCmd(t)

	err := runKBShow(cmd, []string{"nope"})
	assert.ErrorIs(t, err, service.ErrEntryNotFound)
}

func TestKBCategories(t *testing.T) {
	cmd, out := testCmd(t)

	require.NoError(t, runKBCategories(cmd, nil))
	assert.Contains(t, out.String(), "air_quality")
	assert.Contains(t, out.String(), "troubleshooting")
}

func TestAskJSON(t *testing.T) {
	cmd, out := testCmd(t)
	askJSON = true
	t.Cleanup(func() { askJSON = false })

	require.NoError(t, runAsk(cmd, []string{"turn", "on", "all", "lights"}))
	var reply assistant.Reply
	require.NoError(t, json.Unmarshal(out.Bytes(), &reply))
	require.NotNil(t, reply.Action)
	assert.Equal(t, models.ActionSetType, reply.Action.Kind)
	assert.Equal(t, models.PowerOn, reply.Action.State)
}

func TestServiceOptionsFromConfig(t *testing.T) {
	configDir = t.TempDir()
	t.Cleanup(func() { configDir = "configs" })
	cfg, err := config.Load(configDir, "")
	require.NoError(t, err)

	opts, err := serviceOptions(cfg, nil)
	require.NoError(t, err)
	assert.Equal(t, 3*time.Minute, opts.OutboundCooldown)
	assert.Equal(t, service.Band{Warning: 35, Critical: 75}, opts.AlertThresholds[models.ChannelAirQuality])
	assert.Equal(t, service.Band{Warning: 36, Critical: 75}, opts.StatusThresholds[models.ChannelAirQuality])
	assert.Equal(t, 1000.0, opts.Outbound.HighCO2)
	assert.True(t, opts.SeedRules)

	cfg.Assistant.Timezone = "Mars/Olympus"
	_, err = serviceOptions(cfg, nil)
	assert.Error(t, err)
}

func TestDeferredIngester(t *testing.T) {
	d := &deferredIngester{}
	_, err := d.Ingest(context.Background(), models.SensorReading{})
	assert.Error(t, err)
}
