package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrMessageNotFound = errors.New("message not found")

// Combined-query type filters. "both" unions messages and notifications.
const (
	MessageTypeConversations = "conversations"
	MessageTypeNotifications = "notifications"
	MessageTypeBoth          = "both"
)

// MessageFilter drives the combined messages/notifications query. A zero
// RecipientID or SenderID is the wildcard. VisibleTo is the user whose
// per-message delete state filters conversational rows.
type MessageFilter struct {
	RecipientID int
	SenderID    int
	Type        string
	Read        bool
	NewestFirst bool
	LimitFrom   int
	LimitNum    int
	VisibleTo   int
}

// MessageRepository abstracts the append-only message log and the per-user
// action overlay.
type MessageRepository interface {
	Create(ctx context.Context, conversationID int, senderID int, subject, fullMessage, smallMessage string, createdAt time.Time) (models.Message, error)
	Get(ctx context.Context, messageID int) (models.Message, error)
	VisibleMessages(ctx context.Context, conversationID int, userID int, limitFrom, limitNum int) ([]models.Message, error)
	RecentVisibleMessages(ctx context.Context, conversationID int, userID int, limit int) ([]models.Message, error)
	HasAction(ctx context.Context, messageID int, userID int, action int) (bool, error)
	AddAction(ctx context.Context, messageID int, userID int, action int, at time.Time) (bool, error)
	UnreadCount(ctx context.Context, conversationID int, userID int) (int, error)
	UnreadConversationsCount(ctx context.Context, userID int) (int, error)
	MarkAllRead(ctx context.Context, userID int, fromUserID int, at time.Time) error
	MarkAllConversationRead(ctx context.Context, conversationID int, userID int, at time.Time) error
	DeleteAllForUser(ctx context.Context, conversationID int, userID int, at time.Time) error
	List(ctx context.Context, f MessageFilter) ([]models.MessageView, error)
	Search(ctx context.Context, userID int, query string, limitFrom, limitNum int) ([]models.Message, error)
}

// MessageRepo is a sqlx implementation of MessageRepository.
type MessageRepo struct {
	db *sqlx.DB
}

// NewMessageRepo constructs a MessageRepo.
func NewMessageRepo(db *sqlx.DB) *MessageRepo {
	return &MessageRepo{db: db}
}

// Create appends a message to a conversation.
func (r *MessageRepo) Create(ctx context.Context, conversationID int, senderID int, subject, fullMessage, smallMessage string, createdAt time.Time) (models.Message, error) {
	var msg models.Message
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO messages (conversation_id, sender_id, subject, full_message, small_message, created_at)
         VALUES ($1, $2, $3, $4, $5, $6)
         RETURNING id, conversation_id, sender_id, subject, full_message, small_message, created_at`,
		conversationID, senderID, subject, fullMessage, smallMessage, createdAt).
		Scan(&msg.ID, &msg.ConversationID, &msg.SenderID, &msg.Subject, &msg.FullMessage, &msg.SmallMessage, &msg.CreatedAt)
	return msg, err
}

// Get retrieves a single message.
func (r *MessageRepo) Get(ctx context.Context, messageID int) (models.Message, error) {
	var msg models.Message
	err := r.db.GetContext(ctx, &msg,
		`SELECT id, conversation_id, sender_id, subject, full_message, small_message, created_at
         FROM messages WHERE id=$1`, messageID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Message{}, ErrMessageNotFound
	}
	return msg, err
}

// VisibleMessages returns conversation messages the user has not deleted,
// oldest first.
func (r *MessageRepo) VisibleMessages(ctx context.Context, conversationID int, userID int, limitFrom, limitNum int) ([]models.Message, error) {
	query := `SELECT m.id, m.conversation_id, m.sender_id, m.subject, m.full_message, m.small_message, m.created_at
        FROM messages m
        WHERE m.conversation_id=$1
          AND NOT EXISTS (
              SELECT 1 FROM message_user_actions a
              WHERE a.message_id=m.id AND a.user_id=$2 AND a.action=$3
          )
        ORDER BY m.created_at ASC, m.id ASC`
	args := []interface{}{conversationID, userID, models.ActionDeleted}
	if limitNum > 0 {
		args = append(args, limitNum)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if limitFrom > 0 {
		args = append(args, limitFrom)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, query, args...)
	return msgs, err
}

// RecentVisibleMessages returns the newest limit messages the user has not
// deleted, re-sorted oldest first so callers render them in thread order.
func (r *MessageRepo) RecentVisibleMessages(ctx context.Context, conversationID int, userID int, limit int) ([]models.Message, error) {
	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs,
		`SELECT id, conversation_id, sender_id, subject, full_message, small_message, created_at FROM (
            SELECT m.id, m.conversation_id, m.sender_id, m.subject, m.full_message, m.small_message, m.created_at
            FROM messages m
            WHERE m.conversation_id=$1
              AND NOT EXISTS (
                  SELECT 1 FROM message_user_actions a
                  WHERE a.message_id=m.id AND a.user_id=$2 AND a.action=$3
              )
            ORDER BY m.created_at DESC, m.id DESC
            LIMIT $4
        ) recent ORDER BY created_at ASC, id ASC`,
		conversationID, userID, models.ActionDeleted, limit)
	return msgs, err
}

// HasAction reports whether the user already has the given action on the message.
func (r *MessageRepo) HasAction(ctx context.Context, messageID int, userID int, action int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM message_user_actions WHERE message_id=$1 AND user_id=$2 AND action=$3)`,
		messageID, userID, action)
	return exists, err
}

// AddAction inserts a read/deleted action for one user. Returns false when
// the action already existed; the second insert is a no-op, never an error.
func (r *MessageRepo) AddAction(ctx context.Context, messageID int, userID int, action int, at time.Time) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`INSERT INTO message_user_actions (message_id, user_id, action, created_at)
         VALUES ($1, $2, $3, $4) ON CONFLICT DO NOTHING`,
		messageID, userID, action, at)
	if err != nil {
		return false, err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// UnreadCount counts messages in one conversation sent by others that the
// user has neither read nor deleted.
func (r *MessageRepo) UnreadCount(ctx context.Context, conversationID int, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM messages m
         WHERE m.conversation_id=$1 AND m.sender_id<>$2
           AND NOT EXISTS (
               SELECT 1 FROM message_user_actions a
               WHERE a.message_id=m.id AND a.user_id=$2
           )`, conversationID, userID)
	return count, err
}

// UnreadConversationsCount counts the user's conversations holding at least
// one unread message.
func (r *MessageRepo) UnreadConversationsCount(ctx context.Context, userID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(DISTINCT m.conversation_id) FROM messages m
         JOIN conversation_members cm ON cm.conversation_id=m.conversation_id AND cm.user_id=$1
         WHERE m.sender_id<>$1
           AND NOT EXISTS (
               SELECT 1 FROM message_user_actions a
               WHERE a.message_id=m.id AND a.user_id=$1
           )`, userID)
	return count, err
}

// MarkAllRead bulk-inserts READ actions for every currently-unread message
// addressed to the user, optionally restricted to one sender. The single
// INSERT..SELECT keeps the operation atomic.
func (r *MessageRepo) MarkAllRead(ctx context.Context, userID int, fromUserID int, at time.Time) error {
	query := `INSERT INTO message_user_actions (message_id, user_id, action, created_at)
        SELECT m.id, $1, $2, $3 FROM messages m
        JOIN conversation_members cm ON cm.conversation_id=m.conversation_id AND cm.user_id=$1
        WHERE m.sender_id<>$1
          AND NOT EXISTS (
              SELECT 1 FROM message_user_actions a
              WHERE a.message_id=m.id AND a.user_id=$1 AND a.action=$4
          )`
	args := []interface{}{userID, models.ActionRead, at, models.ActionDeleted}
	if fromUserID != 0 {
		args = append(args, fromUserID)
		query += fmt.Sprintf(` AND m.sender_id=$%d`, len(args))
	}
	query += ` ON CONFLICT DO NOTHING`

	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// MarkAllConversationRead bulk-inserts READ actions for one conversation.
func (r *MessageRepo) MarkAllConversationRead(ctx context.Context, conversationID int, userID int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_user_actions (message_id, user_id, action, created_at)
         SELECT m.id, $2, $3, $4 FROM messages m
         WHERE m.conversation_id=$1 AND m.sender_id<>$2
           AND NOT EXISTS (
               SELECT 1 FROM message_user_actions a
               WHERE a.message_id=m.id AND a.user_id=$2 AND a.action=$5
           )
         ON CONFLICT DO NOTHING`,
		conversationID, userID, models.ActionRead, at, models.ActionDeleted)
	return err
}

// DeleteAllForUser hides every conversation message for one user. Equivalent
// to deleting each visible message individually, but atomic.
func (r *MessageRepo) DeleteAllForUser(ctx context.Context, conversationID int, userID int, at time.Time) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO message_user_actions (message_id, user_id, action, created_at)
         SELECT m.id, $2, $3, $4 FROM messages m
         WHERE m.conversation_id=$1
         ON CONFLICT DO NOTHING`,
		conversationID, userID, models.ActionDeleted, at)
	return err
}

// List runs the combined messages/notifications query. Conversational rows
// are expanded per recipient (one row per member other than the sender)
// so the read flag is the recipient's; notification rows carry their own
// read_at. Both halves share the MessageView shape.
func (r *MessageRepo) List(ctx context.Context, f MessageFilter) ([]models.MessageView, error) {
	var parts []string
	var args []interface{}

	arg := func(v interface{}) string {
		args = append(args, v)
		return fmt.Sprintf("$%d", len(args))
	}

	if f.Type == MessageTypeConversations || f.Type == MessageTypeBoth {
		conds := []string{
			"cm.user_id <> m.sender_id",
			fmt.Sprintf(`NOT EXISTS (SELECT 1 FROM message_user_actions d
                WHERE d.message_id=m.id AND d.user_id=%s AND d.action=%s)`,
				arg(f.VisibleTo), arg(models.ActionDeleted)),
		}
		if f.RecipientID != 0 {
			conds = append(conds, "cm.user_id="+arg(f.RecipientID))
		}
		if f.SenderID != 0 {
			conds = append(conds, "m.sender_id="+arg(f.SenderID))
		}
		if f.Read {
			conds = append(conds, "ra.created_at IS NOT NULL")
		} else {
			conds = append(conds, "ra.created_at IS NULL")
		}
		parts = append(parts, fmt.Sprintf(
			`SELECT m.id, 'message' AS row_type, m.sender_id, cm.user_id AS recipient_id,
                m.subject, m.full_message, m.small_message, m.created_at, ra.created_at AS read_at
             FROM messages m
             JOIN conversation_members cm ON cm.conversation_id=m.conversation_id
             LEFT JOIN message_user_actions ra
                ON ra.message_id=m.id AND ra.user_id=cm.user_id AND ra.action=%s
             WHERE %s`, arg(models.ActionRead), strings.Join(conds, " AND ")))
	}

	if f.Type == MessageTypeNotifications || f.Type == MessageTypeBoth {
		conds := []string{"TRUE"}
		if f.RecipientID != 0 {
			conds = append(conds, "n.recipient_id="+arg(f.RecipientID))
		}
		if f.SenderID != 0 {
			conds = append(conds, "n.sender_id="+arg(f.SenderID))
		}
		if f.Read {
			conds = append(conds, "n.read_at IS NOT NULL")
		} else {
			conds = append(conds, "n.read_at IS NULL")
		}
		parts = append(parts, fmt.Sprintf(
			`SELECT n.id, 'notification' AS row_type, n.sender_id, n.recipient_id,
                n.subject, n.full_message, n.small_message, n.created_at, n.read_at
             FROM notifications n
             WHERE %s`, strings.Join(conds, " AND ")))
	}

	if len(parts) == 0 {
		return nil, fmt.Errorf("unknown message type filter %q", f.Type)
	}

	query := "(" + strings.Join(parts, ") UNION ALL (") + ")"
	if f.NewestFirst {
		query += " ORDER BY created_at DESC, id DESC"
	} else {
		query += " ORDER BY created_at ASC, id ASC"
	}
	if f.LimitNum > 0 {
		query += " LIMIT " + arg(f.LimitNum)
	}
	if f.LimitFrom > 0 {
		query += " OFFSET " + arg(f.LimitFrom)
	}

	var views []models.MessageView
	err := r.db.SelectContext(ctx, &views, query, args...)
	return views, err
}

// Search matches the query case-insensitively against bodies of messages in
// conversations the user belongs to, newest first, honouring per-user deletes.
func (r *MessageRepo) Search(ctx context.Context, userID int, query string, limitFrom, limitNum int) ([]models.Message, error) {
	sqlQuery := `SELECT m.id, m.conversation_id, m.sender_id, m.subject, m.full_message, m.small_message, m.created_at
        FROM messages m
        JOIN conversation_members cm ON cm.conversation_id=m.conversation_id AND cm.user_id=$1
        WHERE m.full_message ILIKE '%' || $2 || '%'
          AND NOT EXISTS (
              SELECT 1 FROM message_user_actions a
              WHERE a.message_id=m.id AND a.user_id=$1 AND a.action=$3
          )
        ORDER BY m.created_at DESC, m.id DESC`
	args := []interface{}{userID, query, models.ActionDeleted}
	if limitNum > 0 {
		args = append(args, limitNum)
		sqlQuery += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if limitFrom > 0 {
		args = append(args, limitFrom)
		sqlQuery += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	var msgs []models.Message
	err := r.db.SelectContext(ctx, &msgs, sqlQuery, args...)
	return msgs, err
}
