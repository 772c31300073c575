package models

// UserPreference is an opaque per-user key-value setting. The messaging core
// only interprets the notification processor keys and the privacy preference.
type UserPreference struct {
	ID     int    `db:"id" json:"id"`
	UserID int    `db:"user_id" json:"user_id"`
	Name   string `db:"name" json:"name"`
	Value  string `db:"value" json:"value"`
}

// Messaging privacy preference values.
const (
	PrivacyContactsOnly  = "contacts"
	PrivacyCourseMembers = "coursemembers"
	PrivacySite          = "site"
)

// ProcessorPreference is the resolved {loggedin, loggedoff} state of one
// notification provider for one user.
type ProcessorPreference struct {
	Component string `json:"component"`
	Name      string `json:"name"`
	LoggedIn  bool   `json:"loggedin"`
	LoggedOff bool   `json:"loggedoff"`
}

// NotificationPreferences is the full per-user preference view.
type NotificationPreferences struct {
	UserID     int                   `json:"user_id"`
	Privacy    string                `json:"privacy"`
	Processors []ProcessorPreference `json:"processors"`
}
