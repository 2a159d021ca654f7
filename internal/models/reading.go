package models

import (
	"strconv"
	"time"
)

// Channel names a single sensor stream on a reading.
type Channel string

const (
	ChannelCO2        Channel = "co2"
	ChannelCO         Channel = "co"
	ChannelAirQuality Channel = "air_quality"
	ChannelSmoke      Channel = "smoke"
	ChannelFlame      Channel = "flame"
	ChannelMotion     Channel = "motion"
)

// GasChannels are the numeric ppm channels, in display order.
var GasChannels = []Channel{ChannelCO2, ChannelCO, ChannelAirQuality, ChannelSmoke}

// Label returns the human readable channel name used in messages.
func (c Channel) Label() string {
	switch c {
	case ChannelCO2:
		return "CO₂"
	case ChannelCO:
		return "CO"
	case ChannelAirQuality:
		return "Air Quality"
	case ChannelSmoke:
		return "Smoke"
	case ChannelFlame:
		return "Flame"
	case ChannelMotion:
		return "Motion"
	default:
		return string(c)
	}
}

// SensorReading is one row of the environment_data feed.
// A nil field means the channel has not reported yet; it is never a zero.
type SensorReading struct {
	ID             int64     `json:"id,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
	CO2PPM         *float64  `json:"co2_ppm"`
	COPPM          *float64  `json:"co_ppm"`
	AirQualityPPM  *float64  `json:"air_quality_ppm"`
	SmokePPM       *float64  `json:"smoke_ppm"`
	FlameDetected  *bool     `json:"flame_detected"`
	MotionDetected *bool     `json:"motion_detected"`
	RelayOn        *bool     `json:"relay_on,omitempty"`
}

// Value returns the numeric value of a gas channel and whether it is known.
func (r SensorReading) Value(c Channel) (float64, bool) {
	var p *float64
	switch c {
	case ChannelCO2:
		p = r.CO2PPM
	case ChannelCO:
		p = r.COPPM
	case ChannelAirQuality:
		p = r.AirQualityPPM
	case ChannelSmoke:
		p = r.SmokePPM
	}
	if p == nil {
		return 0, false
	}
	return *p, true
}

// Flag returns the boolean value of flame/motion and whether it is known.
func (r SensorReading) Flag(c Channel) (bool, bool) {
	var p *bool
	switch c {
	case ChannelFlame:
		p = r.FlameDetected
	case ChannelMotion:
		p = r.MotionDetected
	}
	if p == nil {
		return false, false
	}
	return *p, true
}

// HasAllGases reports whether every numeric channel carries a reading.
func (r SensorReading) HasAllGases() bool {
	for _, c := range GasChannels {
		if _, ok := r.Value(c); !ok {
			return false
		}
	}
	return true
}

// IsEmpty reports whether no channel has reported at all.
func (r SensorReading) IsEmpty() bool {
	return r.CO2PPM == nil && r.COPPM == nil && r.AirQualityPPM == nil &&
		r.SmokePPM == nil && r.FlameDetected == nil && r.MotionDetected == nil
}

// FormatPPM renders a ppm value without a trailing ".0" for whole numbers.
func FormatPPM(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Float returns a pointer to v, for building readings.
func Float(v float64) *float64 { return &v }

// Bool returns a pointer to v, for building readings.
func Bool(v bool) *bool { return &v }
