package service

import "core_innovators/internal/models"

// Band holds the warning and critical levels of one numeric channel.
type Band struct {
	Warning  float64
	Critical float64
}

// Thresholds maps each numeric channel to its band. Flame is boolean and
// motion is informational, so neither needs an entry.
type Thresholds map[models.Channel]Band

// DefaultAlertThresholds drive in-app alerting.
func DefaultAlertThresholds() Thresholds {
	return Thresholds{
		models.ChannelCO2:        {Warning: 800, Critical: 1000},
		models.ChannelCO:         {Warning: 9, Critical: 35},
		models.ChannelAirQuality: {Warning: 35, Critical: 75},
		models.ChannelSmoke:      {Warning: 300, Critical: 800},
	}
}

// DefaultStatusThresholds drive the per-channel status tiles. They differ
// from the alert profile on the air quality warning level.
func DefaultStatusThresholds() Thresholds {
	t := DefaultAlertThresholds()
	t[models.ChannelAirQuality] = Band{Warning: 36, Critical: 75}
	return t
}

// Classify bands a channel of r. Unknown values are no-data and never
// treated as zero.
func (t Thresholds) Classify(c models.Channel, r models.SensorReading) models.Severity {
	switch c {
	case models.ChannelFlame:
		v, ok := r.Flag(c)
		switch {
		case !ok:
			return models.SeverityNoData
		case v:
			return models.SeverityCritical
		default:
			return models.SeveritySafe
		}
	case models.ChannelMotion:
		if _, ok := r.Flag(c); !ok {
			return models.SeverityNoData
		}
		return models.SeveritySafe
	}

	v, ok := r.Value(c)
	if !ok {
		return models.SeverityNoData
	}
	b, ok := t[c]
	if !ok {
		return models.SeveritySafe
	}
	switch {
	case v >= b.Critical:
		return models.SeverityCritical
	case v >= b.Warning:
		return models.SeverityWarn
	default:
		return models.SeveritySafe
	}
}

// ChannelStatus is one row of a status report.
type ChannelStatus struct {
	Channel  models.Channel  `json:"channel"`
	Label    string          `json:"label"`
	Value    *float64        `json:"value,omitempty"`
	Detected *bool           `json:"detected,omitempty"`
	Severity models.Severity `json:"severity"`
}

// StatusChannels is the order channels are reported in.
var StatusChannels = []models.Channel{
	models.ChannelCO2, models.ChannelCO, models.ChannelAirQuality,
	models.ChannelSmoke, models.ChannelFlame, models.ChannelMotion,
}

// Status classifies every channel of r for display.
func (t Thresholds) Status(r models.SensorReading) []ChannelStatus {
	out := make([]ChannelStatus, 0, len(StatusChannels))
	for _, c := range StatusChannels {
		st := ChannelStatus{Channel: c, Label: c.Label(), Severity: t.Classify(c, r)}
		if v, ok := r.Value(c); ok {
			st.Value = models.Float(v)
		}
		if v, ok := r.Flag(c); ok {
			st.Detected = models.Bool(v)
		}
		out = append(out, st)
	}
	return out
}
