package service

import (
	"testing"

	"core_innovators/internal/models"
)

func TestThresholds_Classify(t *testing.T) {
	t.Parallel()

	alert := DefaultAlertThresholds()
	tests := []struct {
		name string
		c    models.Channel
		r    models.SensorReading
		want models.Severity
	}{
		{"co2 below warning", models.ChannelCO2, models.SensorReading{CO2PPM: models.Float(799)}, models.SeveritySafe},
		{"co2 at warning", models.ChannelCO2, models.SensorReading{CO2PPM: models.Float(800)}, models.SeverityWarn},
		{"co2 below critical", models.ChannelCO2, models.SensorReading{CO2PPM: models.Float(999.9)}, models.SeverityWarn},
		{"co2 at critical", models.ChannelCO2, models.SensorReading{CO2PPM: models.Float(1000)}, models.SeverityCritical},
		{"co2 unknown", models.ChannelCO2, models.SensorReading{}, models.SeverityNoData},
		{"co zero is a value", models.ChannelCO, models.SensorReading{COPPM: models.Float(0)}, models.SeveritySafe},
		{"co at critical", models.ChannelCO, models.SensorReading{COPPM: models.Float(35)}, models.SeverityCritical},
		{"smoke warn", models.ChannelSmoke, models.SensorReading{SmokePPM: models.Float(300)}, models.SeverityWarn},
		{"flame true", models.ChannelFlame, models.SensorReading{FlameDetected: models.Bool(true)}, models.SeverityCritical},
		{"flame false", models.ChannelFlame, models.SensorReading{FlameDetected: models.Bool(false)}, models.SeveritySafe},
		{"flame unknown", models.ChannelFlame, models.SensorReading{}, models.SeverityNoData},
		{"motion never alerts", models.ChannelMotion, models.SensorReading{MotionDetected: models.Bool(true)}, models.SeveritySafe},
		{"motion unknown", models.ChannelMotion, models.SensorReading{}, models.SeverityNoData},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := alert.Classify(tt.c, tt.r); got != tt.want {
				t.Fatalf("Classify(%s) = %s, want %s", tt.c, got, tt.want)
			}
		})
	}
}

func TestThresholds_AirQualityProfilesDiffer(t *testing.T) {
	t.Parallel()

	r := models.SensorReading{AirQualityPPM: models.Float(35)}
	if got := DefaultAlertThresholds().Classify(models.ChannelAirQuality, r); got != models.SeverityWarn {
		t.Fatalf("alert profile: got %s, want warn", got)
	}
	if got := DefaultStatusThresholds().Classify(models.ChannelAirQuality, r); got != models.SeveritySafe {
		t.Fatalf("status profile: got %s, want safe", got)
	}
}

func TestThresholds_StatusOrderAndValues(t *testing.T) {
	t.Parallel()

	r := reading(650, 4, 20, 120, false)
	got := DefaultStatusThresholds().Status(r)
	if len(got) != len(StatusChannels) {
		t.Fatalf("expected %d rows, got %d", len(StatusChannels), len(got))
	}
	for i, st := range got {
		if st.Channel != StatusChannels[i] {
			t.Fatalf("row %d: channel %s, want %s", i, st.Channel, StatusChannels[i])
		}
	}
	if got[0].Value == nil || *got[0].Value != 650 {
		t.Fatalf("co2 value not carried: %+v", got[0])
	}
	if got[4].Detected == nil || *got[4].Detected {
		t.Fatalf("flame flag not carried: %+v", got[4])
	}
	if got[5].Severity != models.SeverityNoData {
		t.Fatalf("motion without data should be no-data, got %s", got[5].Severity)
	}
}
