package models

import "time"

// Conversation types.
const (
	ConversationTypeIndividual = 1
	ConversationTypeGroup      = 2
)

// Conversation is a durable container of messages shared by a fixed member set.
type Conversation struct {
	ID         int       `db:"id" json:"id"`
	Type       int       `db:"conv_type" json:"type"`
	Name       *string   `db:"name" json:"name,omitempty"`
	Component  *string   `db:"component" json:"component,omitempty"`
	ItemID     *int      `db:"item_id" json:"item_id,omitempty"`
	MemberHash *string   `db:"member_hash" json:"-"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}

// ConversationMember links a user to a conversation.
type ConversationMember struct {
	ID             int `db:"id" json:"id"`
	ConversationID int `db:"conversation_id" json:"conversation_id"`
	UserID         int `db:"user_id" json:"user_id"`
}

// ConversationSummary is a conversation row plus the newest message time
// still visible to the listing user. LastMessageAt is nil for conversations
// with no visible messages; those sort after all messaging conversations.
type ConversationSummary struct {
	Conversation
	LastMessageAt *time.Time `db:"last_message_at" json:"last_message_at,omitempty"`
}

// FavouriteConversation is a per-user pin flag on a conversation.
type FavouriteConversation struct {
	ConversationID int `db:"conversation_id" json:"conversation_id"`
	UserID         int `db:"user_id" json:"user_id"`
}

// ConversationView is the assembled per-user view returned by listing:
// display metadata, member list, visible messages and the unread count.
type ConversationView struct {
	ID          int           `json:"id"`
	Type        int           `json:"type"`
	Name        string        `json:"name"`
	Subname     string        `json:"subname,omitempty"`
	ImageURL    string        `json:"image_url,omitempty"`
	IsFavourite bool          `json:"is_favourite"`
	UnreadCount int           `json:"unread_count"`
	Members     []MemberView  `json:"members"`
	Messages    []Message     `json:"messages"`
}

// MemberView is a conversation member decorated with directory display fields
// and the viewer's relationship to them.
type MemberView struct {
	ID              int              `json:"id"`
	FullName        string           `json:"full_name"`
	ProfileImageURL string           `json:"profile_image_url,omitempty"`
	IsContact       bool             `json:"is_contact"`
	IsBlocked       bool             `json:"is_blocked"`
	IsDeleted       bool             `json:"is_deleted"`
	ContactRequests []ContactRequest `json:"contact_requests,omitempty"`
}
