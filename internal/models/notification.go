package models

import "time"

// Notification is a point-to-point system message, distinct from
// conversational messages. Read state lives on the row itself.
type Notification struct {
	ID           int        `db:"id" json:"id"`
	SenderID     int        `db:"sender_id" json:"sender_id"`
	RecipientID  int        `db:"recipient_id" json:"recipient_id"`
	Component    string     `db:"component" json:"component"`
	EventName    string     `db:"event_name" json:"event_name"`
	Subject      string     `db:"subject" json:"subject"`
	FullMessage  string     `db:"full_message" json:"full_message"`
	SmallMessage string     `db:"small_message" json:"small_message"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ReadAt       *time.Time `db:"read_at" json:"read_at,omitempty"`
}
