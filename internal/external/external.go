// Package external declares the boundaries the messaging core consumes but
// does not implement: the capability oracle, the user directory, group/course
// linkage and the runtime settings snapshot. Host processes provide concrete
// implementations; tests use the mocks package.
package external

import "context"

// Capability names understood by the oracle.
const (
	CapSend      = "messaging:send"
	CapReadAll   = "messaging:readall"
	CapManageAll = "messaging:manageall"
)

// CapabilityChecker answers yes/no authorization questions. It never carries
// policy of its own here; every decision is delegated.
type CapabilityChecker interface {
	CanOperateOnUser(ctx context.Context, actorID, targetUserID int, capability string) (bool, error)
	CanOperateOnConversation(ctx context.Context, actorID, conversationID int, capability string) (bool, error)
}

// UserDisplay is the directory's public view of a user.
type UserDisplay struct {
	ID         int    `json:"id"`
	FullName   string `json:"full_name"`
	Email      string `json:"email"`
	City       string `json:"city"`
	Country    string `json:"country"`
	PictureURL string `json:"picture_url"`
}

// UserDirectory exposes externally-owned user lifecycle and display state.
type UserDirectory interface {
	Exists(ctx context.Context, userID int) (bool, error)
	IsActive(ctx context.Context, userID int) (bool, error)
	DisplayFields(ctx context.Context, userID int) (UserDisplay, error)
	BulkDisplayFields(ctx context.Context, userIDs []int) ([]UserDisplay, error)
	// Search matches the query case-insensitively against name fields.
	Search(ctx context.Context, query string, limit int) ([]UserDisplay, error)
}

// LinkedDisplay is the subname/image override supplied by an entity a group
// conversation is linked to.
type LinkedDisplay struct {
	Subname  string `json:"subname"`
	ImageURL string `json:"image_url"`
}

// GroupLinker exposes read-only enrollment/group data for display and policy.
type GroupLinker interface {
	// LinkedDisplay returns nil when the conversation has no linked entity.
	LinkedDisplay(ctx context.Context, conversationID int) (*LinkedDisplay, error)
	// ShareCourse reports whether two users are enrolled in a common course.
	ShareCourse(ctx context.Context, userID, otherUserID int) (bool, error)
	// SearchEnrolled matches enrolled users of one course against a query.
	SearchEnrolled(ctx context.Context, courseID int, query string) ([]UserDisplay, error)
}

// Settings is the site-wide runtime configuration snapshot. It is re-read on
// every call so toggling takes effect without a restart.
type Settings struct {
	MessagingEnabled bool
	AllowAllUsers    bool
}

// SettingsProvider supplies the current settings snapshot.
type SettingsProvider interface {
	Snapshot(ctx context.Context) (Settings, error)
}

// StaticSettings is a fixed-value SettingsProvider for hosts without a
// dynamic configuration store, and for tests.
type StaticSettings struct {
	Settings Settings
}

func (s StaticSettings) Snapshot(ctx context.Context) (Settings, error) {
	return s.Settings, nil
}
