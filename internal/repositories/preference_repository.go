package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"messaging-service/internal/models"
)

// PreferenceRepository is the opaque per-user key-value settings store
// consumed by the messaging core.
type PreferenceRepository interface {
	Get(ctx context.Context, userID int, name string) (string, bool, error)
	Set(ctx context.Context, userID int, name string, value string) error
	ListForUser(ctx context.Context, userID int) ([]models.UserPreference, error)
}

// PreferenceRepo is a sqlx implementation of PreferenceRepository.
type PreferenceRepo struct {
	db *sqlx.DB
}

// NewPreferenceRepo constructs a PreferenceRepo.
func NewPreferenceRepo(db *sqlx.DB) *PreferenceRepo {
	return &PreferenceRepo{db: db}
}

// Get returns the value and whether the preference is set at all.
func (r *PreferenceRepo) Get(ctx context.Context, userID int, name string) (string, bool, error) {
	var value string
	err := r.db.GetContext(ctx, &value,
		`SELECT value FROM user_preferences WHERE user_id=$1 AND name=$2`, userID, name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set upserts a preference value.
func (r *PreferenceRepo) Set(ctx context.Context, userID int, name string, value string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO user_preferences (user_id, name, value) VALUES ($1, $2, $3)
         ON CONFLICT (user_id, name) DO UPDATE SET value=EXCLUDED.value`,
		userID, name, value)
	return err
}

// ListForUser returns every stored preference for the user.
func (r *PreferenceRepo) ListForUser(ctx context.Context, userID int) ([]models.UserPreference, error) {
	var prefs []models.UserPreference
	err := r.db.SelectContext(ctx, &prefs,
		`SELECT id, user_id, name, value FROM user_preferences WHERE user_id=$1 ORDER BY name`,
		userID)
	return prefs, err
}
