package models

import "time"

// AutomationRule is a user defined IF-THEN rule: when Condition satisfies
// ConditionValue, run Action.
type AutomationRule struct {
	ID             string    `json:"id"`
	Condition      string    `json:"condition"`       // co2 | co | air_quality | gas | smoke | flame | motion
	ConditionValue string    `json:"condition_value"` // "> 70", "<= 5", "detected", "clear"
	Action         string    `json:"action"`          // turn_fan_on | turn_light_off | send_notification ...
	Enabled        bool      `json:"enabled"`
	CreatedAt      time.Time `json:"created_at"`
}
