package assistant

import (
	"context"
	"fmt"
	"strings"

	"core_innovators/internal/models"
)

// sensorCues mark an utterance as a request for live data.
var sensorCues = []string{"what is", "what's", "check", "tell me", "show me", "current"}

// sensorTopic is a channel (or the whole snapshot) a question can ask about.
type sensorTopic struct {
	channel models.Channel
	all     bool
	match   func(q string) bool
}

var sensorTopics = []sensorTopic{
	{channel: models.ChannelCO2, match: func(q string) bool {
		return hasAnyPhrase(q, "co2", "carbon dioxide")
	}},
	{channel: models.ChannelCO, match: func(q string) bool {
		return hasAnyPhrase(q, "co", "carbon monoxide")
	}},
	{channel: models.ChannelAirQuality, match: func(q string) bool {
		return hasAnyPhrase(q, "air quality", "air pollution")
	}},
	{channel: models.ChannelSmoke, match: func(q string) bool {
		return hasPhrase(q, "smoke")
	}},
	{channel: models.ChannelFlame, match: func(q string) bool {
		return hasAnyPhrase(q, "flame", "fire")
	}},
	{all: true, match: func(q string) bool {
		return hasAnyPhrase(q, "all sensors", "all sensor", "all readings", "all reading", "sensor status", "sensor readings")
	}},
}

// sensorQuery answers "what is the CO2 level"-style questions from the
// latest reading. It reports ok=false when the utterance is not one.
func (in *Interpreter) sensorQuery(ctx context.Context, q string) (Reply, bool) {
	cued := false
	for _, c := range sensorCues {
		if strings.Contains(q, c) {
			cued = true
			break
		}
	}
	if !cued {
		return Reply{}, false
	}
	for _, t := range sensorTopics {
		if !t.match(q) {
			continue
		}
		r := in.latest(ctx)
		if t.all {
			return in.say(SourceSensor, allSensorsReport(r), EmotionCalm), true
		}
		text, emotion := channelReport(t.channel, r)
		return in.say(SourceSensor, text, emotion), true
	}
	return Reply{}, false
}

// band maps a value to a descriptive status; the first bound the value is
// below wins, otherwise the last label applies.
type band struct {
	bounds []float64
	labels []string
}

func (b band) label(v float64) string {
	for i, limit := range b.bounds {
		if v < limit {
			return b.labels[i]
		}
	}
	return b.labels[len(b.labels)-1]
}

var reportBands = map[models.Channel]band{
	models.ChannelCO2: {
		bounds: []float64{800, 1000, 1500},
		labels: []string{"excellent", "good", "elevated", "unhealthy"},
	},
	models.ChannelCO: {
		bounds: []float64{9, 35},
		labels: []string{"safe", "elevated - ventilate now", "DANGEROUS - evacuate immediately"},
	},
	models.ChannelAirQuality: {
		bounds: []float64{35, 75},
		labels: []string{"good", "moderate", "unhealthy"},
	},
	models.ChannelSmoke: {
		bounds: []float64{300, 800},
		labels: []string{"normal", "elevated", "high - check for fire"},
	},
}

// dangerousCO is where the CO report switches to a caring tone.
const dangerousCO = 35

var reportSubjects = map[models.Channel]string{
	models.ChannelCO2:        "CO2 level",
	models.ChannelCO:         "carbon monoxide level",
	models.ChannelAirQuality: "air quality",
	models.ChannelSmoke:      "smoke level",
}

// channelReport renders one channel. Missing data is reported as such and
// never invented.
func channelReport(c models.Channel, r models.SensorReading) (string, Emotion) {
	if c == models.ChannelFlame {
		detected, ok := r.Flag(c)
		switch {
		case !ok:
			return "Flame sensor data is not available yet.", EmotionCalm
		case detected:
			return "ALERT! Flame has been detected! Please evacuate immediately and call emergency services.", EmotionCaring
		default:
			return "No flame detected. Fire sensor is normal.", EmotionCalm
		}
	}

	subject := reportSubjects[c]
	v, ok := r.Value(c)
	if !ok {
		return upperFirst(subject) + " data is not available yet.", EmotionCalm
	}
	text := fmt.Sprintf("Current %s is %s PPM, which is %s.", subject, models.FormatPPM(v), reportBands[c].label(v))
	if c == models.ChannelCO && v >= dangerousCO {
		return text, EmotionCaring
	}
	return text, EmotionCalm
}

func allSensorsReport(r models.SensorReading) string {
	if r.IsEmpty() {
		return "No sensor data is currently available."
	}
	parts := make([]string, 0, len(models.GasChannels)+1)
	for _, c := range models.GasChannels {
		label := c.Label()
		if c == models.ChannelCO2 {
			label = "CO2"
		}
		if v, ok := r.Value(c); ok {
			parts = append(parts, fmt.Sprintf("%s: %s PPM", label, models.FormatPPM(v)))
		} else {
			parts = append(parts, label+": n/a")
		}
	}
	flame := "n/a"
	if detected, ok := r.Flag(models.ChannelFlame); ok {
		flame = "Not detected"
		if detected {
			flame = "Detected"
		}
	}
	parts = append(parts, "Flame: "+flame)
	return "Current sensor readings: " + strings.Join(parts, ", ") + "."
}

func upperFirst(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}
