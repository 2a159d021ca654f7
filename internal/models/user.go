package models

import "time"

// User is a household account allowed to use the dashboard API. Email is
// optional and, for the first account that sets one, becomes the alert
// recipient.
type User struct {
	ID           int       `json:"id"`
	Username     string    `json:"username"`
	Email        string    `json:"email,omitempty"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
}

// Identity is the authenticated caller of a request, as carried by its token.
type Identity struct {
	UserID   int    `json:"user_id"`
	Username string `json:"username"`
}
