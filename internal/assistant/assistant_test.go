package assistant

import (
	"context"
	"errors"
	"testing"
	"time"

	"core_innovators/internal/knowledge"
	"core_innovators/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type stubDevices struct {
	applied []models.Action
	err     error
	devices []models.Device
}

func (s *stubDevices) Apply(_ context.Context, a models.Action) (int, error) {
	s.applied = append(s.applied, a)
	if s.err != nil {
		return 0, s.err
	}
	return 2, nil
}

func (s *stubDevices) List(context.Context) []models.Device { return s.devices }

type stubReadings struct {
	r   models.SensorReading
	err error
}

func (s stubReadings) Latest(context.Context) (models.SensorReading, error) { return s.r, s.err }

func newTestInterpreter(t *testing.T, devices *stubDevices, r models.SensorReading) *Interpreter {
	t.Helper()
	store, err := knowledge.LoadDefault()
	require.NoError(t, err)
	return NewInterpreter(devices, stubReadings{r: r}, knowledge.NewMatcher(store), Options{
		Now:      func() time.Time { return time.Date(2026, 3, 14, 15, 4, 0, 0, time.UTC) },
		Location: time.UTC,
	})
}

func fullReading() models.SensorReading {
	return models.SensorReading{
		CO2PPM:        models.Float(650),
		COPPM:         models.Float(4),
		AirQualityPPM: models.Float(20),
		SmokePPM:      models.Float(120),
		FlameDetected: models.Bool(false),
	}
}

func TestHandle_SensorQueryReportsLiveValue(t *testing.T) {
	devices := &stubDevices{}
	in := newTestInterpreter(t, devices, fullReading())

	reply := in.Handle(context.Background(), "What is the CO2 level?")

	assert.Equal(t, SourceSensor, reply.Source)
	assert.Contains(t, reply.Text, "650")
	assert.Contains(t, reply.Text, "excellent")
	assert.Empty(t, devices.applied)
}

func TestHandle_SensorQueryBands(t *testing.T) {
	tests := []struct {
		name      string
		utterance string
		reading   models.SensorReading
		want      string
		emotion   Emotion
	}{
		{"co2 elevated", "check co2", models.SensorReading{CO2PPM: models.Float(1200)},
			"Current CO2 level is 1200 PPM, which is elevated.", EmotionCalm},
		{"co dangerous", "what's the carbon monoxide", models.SensorReading{COPPM: models.Float(40)},
			"Current carbon monoxide level is 40 PPM, which is DANGEROUS - evacuate immediately.", EmotionCaring},
		{"air quality moderate", "show me air quality", models.SensorReading{AirQualityPPM: models.Float(50)},
			"Current air quality is 50 PPM, which is moderate.", EmotionCalm},
		{"smoke high", "tell me the smoke level", models.SensorReading{SmokePPM: models.Float(900)},
			"Current smoke level is 900 PPM, which is high - check for fire.", EmotionCalm},
		{"flame detected", "check fire", models.SensorReading{FlameDetected: models.Bool(true)},
			"ALERT! Flame has been detected! Please evacuate immediately and call emergency services.", EmotionCaring},
		{"smoke missing", "what is the smoke level", models.SensorReading{CO2PPM: models.Float(500)},
			"Smoke level data is not available yet.", EmotionCalm},
		{"all sensors empty", "show me all sensors", models.SensorReading{},
			"No sensor data is currently available.", EmotionCalm},
		{"all sensors", "check all readings", fullReading(),
			"Current sensor readings: CO2: 650 PPM, CO: 4 PPM, Air Quality: 20 PPM, Smoke: 120 PPM, Flame: Not detected.", EmotionCalm},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := newTestInterpreter(t, &stubDevices{}, tt.reading)
			reply := in.Handle(context.Background(), tt.utterance)
			assert.Equal(t, SourceSensor, reply.Source)
			assert.Equal(t, tt.want, reply.Text)
			assert.Equal(t, tt.emotion, reply.Emotion)
			assert.Equal(t, VoiceFor(tt.emotion), reply.Voice)
		})
	}
}

func TestHandle_ReadingsErrorTreatedAsNoData(t *testing.T) {
	store, err := knowledge.LoadDefault()
	require.NoError(t, err)
	in := NewInterpreter(&stubDevices{}, stubReadings{err: errors.New("db down")}, knowledge.NewMatcher(store), Options{})

	reply := in.Handle(context.Background(), "what is the co2 level")
	assert.Equal(t, "CO2 level data is not available yet.", reply.Text)
}

func TestHandle_DeviceCommandsApplyOnce(t *testing.T) {
	tests := []struct {
		utterance string
		want      models.Action
	}{
		{"turn on all lights", *models.SetType(models.DeviceLight, models.PowerOn)},
		{"Hey Core, turn off all fans", *models.SetType(models.DeviceFan, models.PowerOff)},
		{"turn on living room lamp", *models.SetRoomDevice("Living Room", models.DeviceLight, models.PowerOn)},
		{"turn off the bedroom fan", *models.SetRoomDevice("Bedroom", models.DeviceFan, models.PowerOff)},
		{"turn on the kitchen", *models.SetRoom("Kitchen", models.PowerOn)},
		{"please switch off everything", *models.SetAll(models.PowerOff)},
		{"turn on the ceiling fan", *models.ToggleByName("ceiling fan")},
		{"set purifier to sleep mode", *models.SetModeByType(models.DevicePurifier, models.ModeSleep)},
		{"purifier power mode", *models.SetModeByType(models.DevicePurifier, models.ModePower)},
		{"power on the purifier", *models.SetType(models.DevicePurifier, models.PowerOn)},
		{"lights on", *models.SetType(models.DeviceLight, models.PowerOn)},
		{"lights off", *models.SetType(models.DeviceLight, models.PowerOff)},
		{"fans on", *models.SetType(models.DeviceFan, models.PowerOn)},
		{"fans off", *models.SetType(models.DeviceFan, models.PowerOff)},
		{"start all fans", *models.SetType(models.DeviceFan, models.PowerOn)},
		{"stop all fans", *models.SetType(models.DeviceFan, models.PowerOff)},
		{"living room on", *models.SetRoom("Living Room", models.PowerOn)},
		{"turn off bedroom", *models.SetRoom("Bedroom", models.PowerOff)},
		{"kitchen exhaust on", *models.SetRoomDevice("Kitchen", models.DeviceFan, models.PowerOn)},
		{"kitchen fan off", *models.SetRoomDevice("Kitchen", models.DeviceFan, models.PowerOff)},
		{"bedroom light on", *models.SetRoomDevice("Bedroom", models.DeviceLight, models.PowerOn)},
		{"kitchen lights on", *models.SetRoomDevice("Kitchen", models.DeviceLight, models.PowerOn)},
		{"turn the fan off", *models.SetType(models.DeviceFan, models.PowerOff)},
		{"turn the lights on", *models.SetType(models.DeviceLight, models.PowerOn)},
		{"going out", *models.SetAll(models.PowerOff)},
		{"movie time", models.Action{}},
		{"cinema mode", models.Action{}},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			devices := &stubDevices{}
			in := newTestInterpreter(t, devices, models.SensorReading{})

			reply := in.Handle(context.Background(), tt.utterance)

			assert.Equal(t, SourceRule, reply.Source)
			if tt.want.Kind == "" {
				assert.Nil(t, reply.Action)
				assert.Empty(t, devices.applied)
				return
			}
			require.Len(t, devices.applied, 1)
			assert.Equal(t, tt.want, devices.applied[0])
			require.NotNil(t, reply.Action)
			assert.Equal(t, tt.want, *reply.Action)
			assert.Equal(t, 2, reply.Affected)
		})
	}
}

func TestHandle_ApplyFailureIsReported(t *testing.T) {
	devices := &stubDevices{err: errors.New("no device matches")}
	in := newTestInterpreter(t, devices, models.SensorReading{})

	reply := in.Handle(context.Background(), "turn off the kitchen light")

	require.Len(t, devices.applied, 1)
	assert.Equal(t, "no device matches", reply.Error)
	assert.Equal(t, EmotionCaring, reply.Emotion)
	assert.Contains(t, reply.Text, "couldn't find")
}

func TestHandle_WakeWord(t *testing.T) {
	in := newTestInterpreter(t, &stubDevices{}, models.SensorReading{})

	reply := in.Handle(context.Background(), "Hey Core!")

	assert.Equal(t, SourceWake, reply.Source)
	assert.Equal(t, "Yes, Durai? I'm listening.", reply.Text)
	assert.Equal(t, EmotionHappy, reply.Emotion)
	assert.Equal(t, Voice{Rate: 1.1, Pitch: 1.2, Volume: 1}, reply.Voice)
}

func TestHandle_KnowledgeAnswer(t *testing.T) {
	devices := &stubDevices{}
	in := newTestInterpreter(t, devices, models.SensorReading{})

	reply := in.Handle(context.Background(), "How do I lower CO2 levels?")

	assert.Equal(t, SourceKnowledge, reply.Source)
	assert.Equal(t, "aq_co2_004", reply.KnowledgeID)
	assert.Equal(t, "air_quality", reply.Category)
	assert.Contains(t, reply.Text, "open windows")
	assert.Empty(t, devices.applied)
}

func TestHandle_Fallback(t *testing.T) {
	devices := &stubDevices{}
	in := newTestInterpreter(t, devices, models.SensorReading{})

	reply := in.Handle(context.Background(), "xylophone zebra quartz")

	assert.Equal(t, SourceFallback, reply.Source)
	assert.Equal(t, "I heard: xylophone zebra quartz. I can help you control devices, check environment data, manage security, or answer questions about your home. What would you like?", reply.Text)
	assert.Empty(t, devices.applied)
}

func TestHandle_EmptyUtterance(t *testing.T) {
	in := newTestInterpreter(t, &stubDevices{}, models.SensorReading{})
	reply := in.Handle(context.Background(), "  ?! ")
	assert.Equal(t, SourceFallback, reply.Source)
}

func TestHandle_CannedRules(t *testing.T) {
	devices := &stubDevices{devices: []models.Device{
		{Name: "Main Light", Type: models.DeviceLight, Status: models.PowerOn},
		{Name: "Ceiling Fan", Type: models.DeviceFan, Status: models.PowerOn},
		{Name: "Bedside Lamp", Type: models.DeviceLight, Status: models.PowerOff},
	}}
	in := newTestInterpreter(t, devices, fullReading())

	tests := []struct {
		utterance string
		category  string
		want      string
	}{
		{"what time is it", "time", "It's 3:04 PM."},
		{"what date is it", "date", "Today is Saturday, March 14, 2026."},
		{"temperature in the bedroom", "environment", "Bedroom temperature is 22°C."},
		{"what devices are on", "status", "2 devices are on: Main Light, Ceiling Fan."},
		{"how much energy", "energy", "Your devices are drawing about 70 watts across 2 active devices."},
		{"is everything safe", "safety", "Yes, Durai. All sensors read normal. Your home is safe."},
		{"turn on security", "safety", "Security system armed. I'll watch over your home, Durai."},
		{"lock the doors", "safety", "All doors locked. Your home is secure."},
		{"thank you", "greetings", "You're welcome, Durai. Always here for you."},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			reply := in.Handle(context.Background(), tt.utterance)
			assert.Equal(t, SourceRule, reply.Source)
			assert.Equal(t, tt.category, reply.Category)
			assert.Equal(t, tt.want, reply.Text)
		})
	}
	assert.Empty(t, devices.applied)
}

func TestHandle_LegacyPhrases(t *testing.T) {
	devices := &stubDevices{devices: []models.Device{
		{Name: "Main Light", Type: models.DeviceLight, Status: models.PowerOn},
		{Name: "Ceiling Fan", Type: models.DeviceFan, Status: models.PowerOn},
	}}
	in := newTestInterpreter(t, devices, fullReading())

	tests := []struct {
		utterance string
		category  string
		want      string
	}{
		{"open doors", "safety", "Doors unlocked. Remember to lock them again, Durai."},
		{"secure doors", "safety", "All doors locked. Your home is secure."},
		{"deactivate security", "safety", "Security system disarmed."},
		{"how much power", "energy", "Your devices are drawing about 70 watts across 2 active devices."},
		{"electricity usage", "energy", "Your devices are drawing about 70 watts across 2 active devices."},
		{"energy cost", "energy", "At about 70 watts, running costs are roughly 0.56 rupees per hour."},
		{"arrived home", "scenes", "Welcome home, Durai! Home mode activated."},
		{"cinema mode", "scenes", "Movie mode activated. Enjoy your film, Durai."},
		{"teach me", "help", "Just speak naturally. Try 'turn on lights', 'what's the temperature' or 'is everything safe'."},
		{"everything ok", "status", ""},
	}
	for _, tt := range tests {
		t.Run(tt.utterance, func(t *testing.T) {
			reply := in.Handle(context.Background(), tt.utterance)
			assert.Equal(t, SourceRule, reply.Source)
			assert.Equal(t, tt.category, reply.Category)
			if tt.want != "" {
				assert.Equal(t, tt.want, reply.Text)
			}
		})
	}
	assert.Empty(t, devices.applied)
}

func TestHandle_StateQuestionIsNotACommand(t *testing.T) {
	devices := &stubDevices{}
	in := newTestInterpreter(t, devices, models.SensorReading{})

	reply := in.Handle(context.Background(), "is the fan on")

	assert.Nil(t, reply.Action)
	assert.Empty(t, devices.applied)
}

func TestHandle_SafetyListsIssues(t *testing.T) {
	r := fullReading()
	r.COPPM = models.Float(12)
	r.FlameDetected = models.Bool(true)
	in := newTestInterpreter(t, &stubDevices{}, r)

	reply := in.Handle(context.Background(), "am i safe")

	assert.Equal(t, "Attention: carbon monoxide level is elevated - ventilate now; flame detected.", reply.Text)
	assert.Equal(t, EmotionCaring, reply.Emotion)
}

func TestNormalize(t *testing.T) {
	tests := map[string]string{
		"  Hey, CORE!  ":        "hey core",
		"What's the CO₂ level?": "what's the co2 level",
		"PM2.5 today.":          "pm2.5 today",
		"'quoted'":              "quoted",
	}
	for in, want := range tests {
		assert.Equal(t, want, normalize(in), in)
	}
}
