package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"messaging-service/internal/models"
)

var ErrConversationNotFound = errors.New("conversation not found")

// pgUniqueViolation is the Postgres error code raised on unique conflicts.
const pgUniqueViolation = "23505"

// ConversationRepository abstracts conversation and membership persistence.
type ConversationRepository interface {
	Get(ctx context.Context, conversationID int) (models.Conversation, error)
	Create(ctx context.Context, convType int, memberIDs []int, name *string, component *string, itemID *int) (models.Conversation, error)
	FindIndividual(ctx context.Context, userID int, otherUserID int) (models.Conversation, error)
	FindOrCreateIndividual(ctx context.Context, userID int, otherUserID int) (models.Conversation, bool, error)
	IsMember(ctx context.Context, conversationID int, userID int) (bool, error)
	MemberIDs(ctx context.Context, conversationID int) ([]int, error)
	ListForUser(ctx context.Context, q ConversationQuery) ([]models.ConversationSummary, error)
	SetFavourite(ctx context.Context, conversationID int, userID int) error
	UnsetFavourite(ctx context.Context, conversationID int, userID int) error
	FavouriteIDs(ctx context.Context, userID int) ([]int, error)
}

// ConversationQuery filters ListForUser. Type 0 means any type.
type ConversationQuery struct {
	UserID         int
	LimitFrom      int
	LimitNum       int
	Type           int
	FavouritesOnly bool
}

// ConversationRepo is a sqlx implementation of ConversationRepository.
type ConversationRepo struct {
	db *sqlx.DB
}

// NewConversationRepo constructs a ConversationRepo.
func NewConversationRepo(db *sqlx.DB) *ConversationRepo {
	return &ConversationRepo{db: db}
}

// memberHash is the serialization key for an individual conversation pair.
func memberHash(userID, otherUserID int) string {
	if otherUserID < userID {
		userID, otherUserID = otherUserID, userID
	}
	return fmt.Sprintf("%d-%d", userID, otherUserID)
}

// Get fetches a conversation by id.
func (r *ConversationRepo) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, conv_type, name, component, item_id, member_hash, created_at
         FROM conversations WHERE id=$1`, conversationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// Create inserts a conversation with its members in one transaction.
// Member validation happens in the service; this only persists.
func (r *ConversationRepo) Create(ctx context.Context, convType int, memberIDs []int, name *string, component *string, itemID *int) (models.Conversation, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Conversation{}, err
	}
	defer tx.Rollback()

	var hash *string
	if convType == models.ConversationTypeIndividual {
		h := memberHash(memberIDs[0], memberIDs[1])
		hash = &h
	}

	var conv models.Conversation
	err = tx.QueryRowxContext(ctx,
		`INSERT INTO conversations (conv_type, name, component, item_id, member_hash)
         VALUES ($1, $2, $3, $4, $5)
         RETURNING id, conv_type, name, component, item_id, member_hash, created_at`,
		convType, name, component, itemID, hash).
		Scan(&conv.ID, &conv.Type, &conv.Name, &conv.Component, &conv.ItemID, &conv.MemberHash, &conv.CreatedAt)
	if err != nil {
		return models.Conversation{}, err
	}

	for _, memberID := range memberIDs {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO conversation_members (conversation_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
			conv.ID, memberID); err != nil {
			return models.Conversation{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return models.Conversation{}, err
	}
	return conv, nil
}

// FindIndividual returns the individual conversation for exactly this pair.
func (r *ConversationRepo) FindIndividual(ctx context.Context, userID int, otherUserID int) (models.Conversation, error) {
	var conv models.Conversation
	err := r.db.GetContext(ctx, &conv,
		`SELECT id, conv_type, name, component, item_id, member_hash, created_at
         FROM conversations WHERE conv_type=$1 AND member_hash=$2`,
		models.ConversationTypeIndividual, memberHash(userID, otherUserID))
	if errors.Is(err, sql.ErrNoRows) {
		return models.Conversation{}, ErrConversationNotFound
	}
	return conv, err
}

// FindOrCreateIndividual returns the pair's conversation, creating it when
// missing. Concurrent callers race on the member_hash unique constraint; the
// loser retries the lookup, so exactly one conversation ever exists per pair.
func (r *ConversationRepo) FindOrCreateIndividual(ctx context.Context, userID int, otherUserID int) (models.Conversation, bool, error) {
	conv, err := r.FindIndividual(ctx, userID, otherUserID)
	if err == nil {
		return conv, false, nil
	}
	if !errors.Is(err, ErrConversationNotFound) {
		return models.Conversation{}, false, err
	}

	conv, err = r.Create(ctx, models.ConversationTypeIndividual, []int{userID, otherUserID}, nil, nil, nil)
	if err == nil {
		return conv, true, nil
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) && string(pqErr.Code) == pgUniqueViolation {
		conv, err = r.FindIndividual(ctx, userID, otherUserID)
		return conv, false, err
	}
	return models.Conversation{}, false, err
}

// IsMember checks whether a user belongs to the conversation.
func (r *ConversationRepo) IsMember(ctx context.Context, conversationID int, userID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM conversation_members WHERE conversation_id=$1 AND user_id=$2)`,
		conversationID, userID)
	return exists, err
}

// MemberIDs returns the member user ids of a conversation.
func (r *ConversationRepo) MemberIDs(ctx context.Context, conversationID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT user_id FROM conversation_members WHERE conversation_id=$1 ORDER BY id`,
		conversationID)
	return ids, err
}

// ListForUser returns the user's conversations in the listing order:
// conversations with a visible message first, newest message first, then
// message-less conversations by id descending. The visibility subquery keeps
// messages the user deleted out of the recency computation, which is what
// makes pagination stable after per-user deletes.
func (r *ConversationRepo) ListForUser(ctx context.Context, q ConversationQuery) ([]models.ConversationSummary, error) {
	query := `SELECT c.id, c.conv_type, c.name, c.component, c.item_id, c.member_hash, c.created_at,
            (SELECT MAX(m.created_at) FROM messages m
             WHERE m.conversation_id=c.id
               AND NOT EXISTS (
                   SELECT 1 FROM message_user_actions a
                   WHERE a.message_id=m.id AND a.user_id=cm.user_id AND a.action=` + fmt.Sprint(models.ActionDeleted) + `
               )) AS last_message_at
        FROM conversations c
        JOIN conversation_members cm ON cm.conversation_id=c.id AND cm.user_id=$1`

	args := []interface{}{q.UserID}
	if q.Type != 0 {
		args = append(args, q.Type)
		query += fmt.Sprintf(` WHERE c.conv_type=$%d`, len(args))
	} else {
		query += ` WHERE TRUE`
	}
	if q.FavouritesOnly {
		query += ` AND EXISTS (SELECT 1 FROM favourite_conversations f
            WHERE f.conversation_id=c.id AND f.user_id=cm.user_id)`
	}

	query += ` ORDER BY last_message_at DESC NULLS LAST, c.id DESC`
	if q.LimitNum > 0 {
		args = append(args, q.LimitNum)
		query += fmt.Sprintf(` LIMIT $%d`, len(args))
	}
	if q.LimitFrom > 0 {
		args = append(args, q.LimitFrom)
		query += fmt.Sprintf(` OFFSET $%d`, len(args))
	}

	var summaries []models.ConversationSummary
	err := r.db.SelectContext(ctx, &summaries, query, args...)
	return summaries, err
}

// SetFavourite marks a conversation as favourite for the user. Idempotent.
func (r *ConversationRepo) SetFavourite(ctx context.Context, conversationID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO favourite_conversations (conversation_id, user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		conversationID, userID)
	return err
}

// UnsetFavourite removes the favourite flag, silently if absent.
func (r *ConversationRepo) UnsetFavourite(ctx context.Context, conversationID int, userID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM favourite_conversations WHERE conversation_id=$1 AND user_id=$2`,
		conversationID, userID)
	return err
}

// FavouriteIDs returns the ids of the user's favourite conversations.
func (r *ConversationRepo) FavouriteIDs(ctx context.Context, userID int) ([]int, error) {
	var ids []int
	err := r.db.SelectContext(ctx, &ids,
		`SELECT conversation_id FROM favourite_conversations WHERE user_id=$1 ORDER BY conversation_id`,
		userID)
	return ids, err
}
