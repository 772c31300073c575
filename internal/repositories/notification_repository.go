package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrNotificationNotFound = errors.New("notification not found")

// NotificationRepository abstracts the point-to-point notification log.
type NotificationRepository interface {
	Create(ctx context.Context, n models.Notification) (models.Notification, error)
	Get(ctx context.Context, notificationID int) (models.Notification, error)
	MarkRead(ctx context.Context, notificationID int, at time.Time) error
	MarkAllRead(ctx context.Context, recipientID int, senderID int, at time.Time) error
}

// NotificationRepo is a sqlx implementation of NotificationRepository.
type NotificationRepo struct {
	db *sqlx.DB
}

// NewNotificationRepo constructs a NotificationRepo.
func NewNotificationRepo(db *sqlx.DB) *NotificationRepo {
	return &NotificationRepo{db: db}
}

// Create persists a notification.
func (r *NotificationRepo) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	created := n.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO notifications (sender_id, recipient_id, component, event_name, subject, full_message, small_message, created_at)
         VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
         RETURNING id, created_at`,
		n.SenderID, n.RecipientID, n.Component, n.EventName, n.Subject, n.FullMessage, n.SmallMessage, created).
		Scan(&n.ID, &n.CreatedAt)
	return n, err
}

// Get retrieves a single notification.
func (r *NotificationRepo) Get(ctx context.Context, notificationID int) (models.Notification, error) {
	var n models.Notification
	err := r.db.GetContext(ctx, &n,
		`SELECT id, sender_id, recipient_id, component, event_name, subject, full_message, small_message, created_at, read_at
         FROM notifications WHERE id=$1`, notificationID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Notification{}, ErrNotificationNotFound
	}
	return n, err
}

// MarkRead stamps read_at once; marking an already-read notification keeps
// the original timestamp.
func (r *NotificationRepo) MarkRead(ctx context.Context, notificationID int, at time.Time) error {
	res, err := r.db.ExecContext(ctx,
		`UPDATE notifications SET read_at=COALESCE(read_at, $2) WHERE id=$1`,
		notificationID, at)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrNotificationNotFound
	}
	return nil
}

// MarkAllRead stamps every unread notification for a recipient, optionally
// restricted to one sender.
func (r *NotificationRepo) MarkAllRead(ctx context.Context, recipientID int, senderID int, at time.Time) error {
	query := `UPDATE notifications SET read_at=$2 WHERE recipient_id=$1 AND read_at IS NULL`
	args := []interface{}{recipientID, at}
	if senderID != 0 {
		args = append(args, senderID)
		query += fmt.Sprintf(` AND sender_id=$%d`, len(args))
	}
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}
