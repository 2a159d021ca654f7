package logger

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseLevel(t *testing.T) {
	cases := map[string]zapcore.Level{
		"debug":   zapcore.DebugLevel,
		" WARN ":  zapcore.WarnLevel,
		"error":   zapcore.ErrorLevel,
		"info":    zapcore.InfoLevel,
		"verbose": zapcore.InfoLevel,
		"":        zapcore.InfoLevel,
	}
	for in, want := range cases {
		assert.Equal(t, want, ParseLevel(in), "level %q", in)
	}
}

func TestNew_FiltersByLevelAndTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, WarnLevel).Component("mqtt")

	log.Infow("mqtt_connected", "broker", "tcp://localhost:1883")
	log.Warnw("mqtt_connection_lost", "error", "EOF")
	_ = log.Sync()

	out := buf.String()
	assert.NotContains(t, out, "mqtt_connected")
	assert.Contains(t, out, "mqtt_connection_lost")
	assert.Contains(t, out, "component")
	assert.Contains(t, out, "mqtt")
	assert.Equal(t, 1, strings.Count(out, "\n"))
}

func TestNop_IsSilent(t *testing.T) {
	assert.NotPanics(t, func() { Nop().Errorw("ignored", "k", "v") })
}
