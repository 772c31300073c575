package models

import "time"

// Contact is a directional contact row. "Are contacts" checks must look at
// both directions; confirming a request inserts both.
type Contact struct {
	ID        int       `db:"id" json:"id"`
	UserID    int       `db:"user_id" json:"user_id"`
	ContactID int       `db:"contact_id" json:"contact_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ContactRequest is a pending proposal from UserID to become mutual contacts
// with RequestedUserID.
type ContactRequest struct {
	ID              int       `db:"id" json:"id"`
	UserID          int       `db:"user_id" json:"user_id"`
	RequestedUserID int       `db:"requested_user_id" json:"requested_user_id"`
	CreatedAt       time.Time `db:"created_at" json:"created_at"`
}

// BlockedUser records that UserID has blocked BlockedUserID.
type BlockedUser struct {
	ID            int       `db:"id" json:"id"`
	UserID        int       `db:"user_id" json:"user_id"`
	BlockedUserID int       `db:"blocked_user_id" json:"blocked_user_id"`
	CreatedAt     time.Time `db:"created_at" json:"created_at"`
}
