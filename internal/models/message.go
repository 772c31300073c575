package models

import "time"

// Per-user message actions.
const (
	ActionRead    = 1
	ActionDeleted = 2
)

// Message is an append-only conversation message. Rows are immutable once
// created; all per-user state lives in MessageUserAction.
type Message struct {
	ID             int       `db:"id" json:"id"`
	ConversationID int       `db:"conversation_id" json:"conversation_id"`
	SenderID       int       `db:"sender_id" json:"sender_id"`
	Subject        string    `db:"subject" json:"subject"`
	FullMessage    string    `db:"full_message" json:"full_message"`
	SmallMessage   string    `db:"small_message" json:"small_message"`
	CreatedAt      time.Time `db:"created_at" json:"created_at"`
}

// MessageUserAction records read/deleted state for one user on one message
// without mutating the shared row.
type MessageUserAction struct {
	ID        int       `db:"id" json:"id"`
	MessageID int       `db:"message_id" json:"message_id"`
	UserID    int       `db:"user_id" json:"user_id"`
	Action    int       `db:"action" json:"action"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// Row kinds for the combined messages/notifications query.
const (
	RowTypeMessage      = "message"
	RowTypeNotification = "notification"
)

// MessageView is the normalized row returned by the combined
// messages/notifications query. ReadAt is nil while unread.
type MessageView struct {
	ID           int        `db:"id" json:"id"`
	Type         string     `db:"row_type" json:"type"`
	SenderID     int        `db:"sender_id" json:"sender_id"`
	RecipientID  int        `db:"recipient_id" json:"recipient_id"`
	Subject      string     `db:"subject" json:"subject"`
	FullMessage  string     `db:"full_message" json:"full_message"`
	SmallMessage string     `db:"small_message" json:"small_message"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	ReadAt       *time.Time `db:"read_at" json:"read_at,omitempty"`
}
