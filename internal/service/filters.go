package service

import "time"

// MaxReadingPage caps how many readings one List call returns.
const MaxReadingPage = 500

// LogFilter supports history filtering by time range and type.
type LogFilter struct {
	From time.Time // inclusive; zero means no lower bound
	To   time.Time // inclusive; zero means no upper bound
	Type string    // "", "READING", "ALERT", "NOTIFICATION", "DEVICE", "AUTOMATION", "ASSISTANT"
}

// ReadingFilter selects stored sensor readings.
type ReadingFilter struct {
	From  time.Time
	To    time.Time
	Limit int // <= 0 or above MaxReadingPage means MaxReadingPage
}
