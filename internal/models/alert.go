package models

import "time"

// Severity is the classification band of a channel.
type Severity string

const (
	SeveritySafe     Severity = "safe"
	SeverityWarn     Severity = "warn"
	SeverityCritical Severity = "critical"
	SeverityNoData   Severity = "no-data"
)

// Notification is what an alert policy hands to a sink. It never carries
// sensor state back; it only describes what to show or send.
type Notification struct {
	Room              string    `json:"room,omitempty"`
	Channel           Channel   `json:"channel,omitempty"`
	Severity          Severity  `json:"severity"`
	Message           string    `json:"message"`
	Value             *float64  `json:"value,omitempty"`
	RecommendedAction string    `json:"recommended_action,omitempty"`
	At                time.Time `json:"at"`
}

// AlertRecord is one outbound alert kept in history.
type AlertRecord struct {
	ID        string        `json:"id"`
	At        time.Time     `json:"timestamp"`
	Recipient string        `json:"email"`
	Message   string        `json:"message"`
	Sensors   SensorReading `json:"sensors"`
	Delivered bool          `json:"delivered"`
	Error     string        `json:"error,omitempty"`
}

// AlertPayload is the structured body sent to the outbound notification service.
type AlertPayload struct {
	Subject     string    `json:"subject"`
	Message     string    `json:"message"`
	Timestamp   time.Time `json:"timestamp"`
	CO2Level    *float64  `json:"co2_level"`
	COLevel     *float64  `json:"co_level"`
	AirQuality  *float64  `json:"air_quality"`
	SmokeLevel  *float64  `json:"smoke_level"`
	FlameStatus string    `json:"flame_status"`
}
