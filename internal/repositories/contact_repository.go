package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

var ErrContactRequestNotFound = errors.New("contact request not found")

// ContactRepository abstracts contact, contact-request and block persistence.
type ContactRepository interface {
	AddContact(ctx context.Context, userID int, contactID int) error
	DeleteContact(ctx context.Context, userID int, contactID int) error
	AreContacts(ctx context.Context, userID int, otherUserID int) (bool, error)
	ListContacts(ctx context.Context, userID int) ([]models.Contact, error)
	Block(ctx context.Context, userID int, blockedUserID int) error
	Unblock(ctx context.Context, userID int, blockedUserID int) error
	IsBlocked(ctx context.Context, userID int, blockedUserID int) (bool, error)
	ListBlocked(ctx context.Context, userID int) ([]models.BlockedUser, error)
	CreateRequest(ctx context.Context, userID int, requestedUserID int) (models.ContactRequest, error)
	GetRequest(ctx context.Context, userID int, requestedUserID int) (models.ContactRequest, error)
	DeleteRequest(ctx context.Context, userID int, requestedUserID int) error
	ConfirmRequest(ctx context.Context, userID int, requestedUserID int) error
	ListIncomingRequests(ctx context.Context, userID int) ([]models.ContactRequest, error)
	RequestsBetween(ctx context.Context, userID int, otherUserID int) ([]models.ContactRequest, error)
}

// ContactRepo is a sqlx implementation of ContactRepository.
type ContactRepo struct {
	db *sqlx.DB
}

// NewContactRepo constructs a ContactRepo.
func NewContactRepo(db *sqlx.DB) *ContactRepo {
	return &ContactRepo{db: db}
}

// AddContact inserts a directional contact row. Duplicate adds are no-ops.
func (r *ContactRepo) AddContact(ctx context.Context, userID int, contactID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO contacts (user_id, contact_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, contactID)
	return err
}

// DeleteContact removes a directional contact row, silently if absent.
func (r *ContactRepo) DeleteContact(ctx context.Context, userID int, contactID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM contacts WHERE user_id=$1 AND contact_id=$2`, userID, contactID)
	return err
}

// AreContacts checks the relation in either direction.
func (r *ContactRepo) AreContacts(ctx context.Context, userID int, otherUserID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(
            SELECT 1 FROM contacts
            WHERE (user_id=$1 AND contact_id=$2) OR (user_id=$2 AND contact_id=$1)
        )`, userID, otherUserID)
	return exists, err
}

// ListContacts returns the user's contact rows ordered by contact id.
func (r *ContactRepo) ListContacts(ctx context.Context, userID int) ([]models.Contact, error) {
	var contacts []models.Contact
	err := r.db.SelectContext(ctx, &contacts,
		`SELECT id, user_id, contact_id, created_at FROM contacts WHERE user_id=$1 ORDER BY contact_id`,
		userID)
	return contacts, err
}

// Block inserts a directional block row. Duplicate blocks are no-ops.
func (r *ContactRepo) Block(ctx context.Context, userID int, blockedUserID int) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO blocked_users (user_id, blocked_user_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`,
		userID, blockedUserID)
	return err
}

// Unblock removes a block row, silently if absent.
func (r *ContactRepo) Unblock(ctx context.Context, userID int, blockedUserID int) error {
	_, err := r.db.ExecContext(ctx,
		`DELETE FROM blocked_users WHERE user_id=$1 AND blocked_user_id=$2`, userID, blockedUserID)
	return err
}

// IsBlocked reports whether userID has blocked blockedUserID.
func (r *ContactRepo) IsBlocked(ctx context.Context, userID int, blockedUserID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists,
		`SELECT EXISTS(SELECT 1 FROM blocked_users WHERE user_id=$1 AND blocked_user_id=$2)`,
		userID, blockedUserID)
	return exists, err
}

// ListBlocked returns every user blocked by userID.
func (r *ContactRepo) ListBlocked(ctx context.Context, userID int) ([]models.BlockedUser, error) {
	var blocked []models.BlockedUser
	err := r.db.SelectContext(ctx, &blocked,
		`SELECT id, user_id, blocked_user_id, created_at FROM blocked_users WHERE user_id=$1 ORDER BY blocked_user_id`,
		userID)
	return blocked, err
}

// CreateRequest records a pending contact request. At most one pending
// request exists per ordered pair; a duplicate create returns the existing row.
func (r *ContactRepo) CreateRequest(ctx context.Context, userID int, requestedUserID int) (models.ContactRequest, error) {
	var req models.ContactRequest
	err := r.db.QueryRowxContext(ctx,
		`INSERT INTO contact_requests (user_id, requested_user_id) VALUES ($1, $2)
         ON CONFLICT (user_id, requested_user_id) DO UPDATE SET user_id=EXCLUDED.user_id
         RETURNING id, user_id, requested_user_id, created_at`,
		userID, requestedUserID).
		Scan(&req.ID, &req.UserID, &req.RequestedUserID, &req.CreatedAt)
	return req, err
}

// GetRequest fetches a pending request for the ordered pair.
func (r *ContactRepo) GetRequest(ctx context.Context, userID int, requestedUserID int) (models.ContactRequest, error) {
	var req models.ContactRequest
	err := r.db.GetContext(ctx, &req,
		`SELECT id, user_id, requested_user_id, created_at FROM contact_requests
         WHERE user_id=$1 AND requested_user_id=$2`, userID, requestedUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.ContactRequest{}, ErrContactRequestNotFound
	}
	return req, err
}

// DeleteRequest removes a pending request without creating contacts.
func (r *ContactRepo) DeleteRequest(ctx context.Context, userID int, requestedUserID int) error {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM contact_requests WHERE user_id=$1 AND requested_user_id=$2`,
		userID, requestedUserID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrContactRequestNotFound
	}
	return nil
}

// ConfirmRequest transactionally removes the pending request and inserts
// contact rows for both directions.
func (r *ContactRepo) ConfirmRequest(ctx context.Context, userID int, requestedUserID int) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx,
		`DELETE FROM contact_requests WHERE user_id=$1 AND requested_user_id=$2`,
		userID, requestedUserID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrContactRequestNotFound
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO contacts (user_id, contact_id) VALUES ($1, $2), ($2, $1) ON CONFLICT DO NOTHING`,
		userID, requestedUserID); err != nil {
		return err
	}

	return tx.Commit()
}

// ListIncomingRequests returns pending requests addressed to userID, newest
// first, excluding requesters the user has blocked.
func (r *ContactRepo) ListIncomingRequests(ctx context.Context, userID int) ([]models.ContactRequest, error) {
	var requests []models.ContactRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT cr.id, cr.user_id, cr.requested_user_id, cr.created_at
         FROM contact_requests cr
         WHERE cr.requested_user_id=$1
           AND NOT EXISTS (
               SELECT 1 FROM blocked_users b
               WHERE b.user_id=$1 AND b.blocked_user_id=cr.user_id
           )
         ORDER BY cr.created_at DESC, cr.id DESC`, userID)
	return requests, err
}

// RequestsBetween returns pending requests in either direction between two users.
func (r *ContactRepo) RequestsBetween(ctx context.Context, userID int, otherUserID int) ([]models.ContactRequest, error) {
	var requests []models.ContactRequest
	err := r.db.SelectContext(ctx, &requests,
		`SELECT id, user_id, requested_user_id, created_at FROM contact_requests
         WHERE (user_id=$1 AND requested_user_id=$2) OR (user_id=$2 AND requested_user_id=$1)
         ORDER BY id`, userID, otherUserID)
	return requests, err
}
