package db

import (
	"fmt"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

// Connect initializes the database connection.
func Connect(dsn string) (*sqlx.DB, error) {
	database, err := sqlx.Connect("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("connect db: %w", err)
	}
	return database, nil
}

// Migrate applies the messaging schema. Statements are idempotent.
func Migrate(database *sqlx.DB) error {
	migrations := []string{
		`CREATE TABLE IF NOT EXISTS conversations (
            id SERIAL PRIMARY KEY,
            conv_type INT NOT NULL,
            name TEXT,
            component TEXT,
            item_id INT,
            member_hash TEXT,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(member_hash)
        );`,
		`CREATE TABLE IF NOT EXISTS conversation_members (
            id SERIAL PRIMARY KEY,
            conversation_id INT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            UNIQUE(conversation_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS messages (
            id SERIAL PRIMARY KEY,
            conversation_id INT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            sender_id INT NOT NULL,
            subject TEXT NOT NULL DEFAULT '',
            full_message TEXT NOT NULL,
            small_message TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        );`,
		`CREATE INDEX IF NOT EXISTS idx_messages_conversation_created
            ON messages(conversation_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS message_user_actions (
            id SERIAL PRIMARY KEY,
            message_id INT NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            action INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(message_id, user_id, action)
        );`,
		`CREATE TABLE IF NOT EXISTS notifications (
            id SERIAL PRIMARY KEY,
            sender_id INT NOT NULL,
            recipient_id INT NOT NULL,
            component TEXT NOT NULL DEFAULT '',
            event_name TEXT NOT NULL DEFAULT '',
            subject TEXT NOT NULL DEFAULT '',
            full_message TEXT NOT NULL,
            small_message TEXT NOT NULL DEFAULT '',
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            read_at TIMESTAMPTZ
        );`,
		`CREATE INDEX IF NOT EXISTS idx_notifications_recipient_created
            ON notifications(recipient_id, created_at);`,
		`CREATE TABLE IF NOT EXISTS contacts (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            contact_id INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(user_id, contact_id)
        );`,
		`CREATE TABLE IF NOT EXISTS contact_requests (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            requested_user_id INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(user_id, requested_user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS blocked_users (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            blocked_user_id INT NOT NULL,
            created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
            UNIQUE(user_id, blocked_user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS favourite_conversations (
            conversation_id INT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
            user_id INT NOT NULL,
            PRIMARY KEY(conversation_id, user_id)
        );`,
		`CREATE TABLE IF NOT EXISTS user_preferences (
            id SERIAL PRIMARY KEY,
            user_id INT NOT NULL,
            name TEXT NOT NULL,
            value TEXT NOT NULL,
            UNIQUE(user_id, name)
        );`,
	}

	for _, m := range migrations {
		if _, err := database.Exec(m); err != nil {
			return fmt.Errorf("run migration: %w", err)
		}
	}
	return nil
}
