package models

import "time"

// Event types written to the event log.
const (
	EventReading      = "READING"
	EventAlert        = "ALERT"
	EventNotification = "NOTIFICATION"
	EventDevice       = "DEVICE"
	EventAutomation   = "AUTOMATION"
	EventAssistant    = "ASSISTANT"
)

// Event is a single log entry.
type Event struct {
	EventID     string    `json:"event_id"`
	OccurredAt  time.Time `json:"occurred_at"`
	Type        string    `json:"type"`        // READING | ALERT | NOTIFICATION | DEVICE | AUTOMATION | ASSISTANT
	Description string    `json:"description"` // human-readable
	Metadata    any       `json:"metadata,omitempty"`
}
