// Package service implements the messaging core: contact relationships,
// conversations, message delivery with per-user read/delete state, and
// notifications. Every public operation validates global availability, the
// target, and the acting user's authorization, in that order.
package service

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"messaging-service/internal/external"
	"messaging-service/internal/notify"
	"messaging-service/internal/repositories"
	apperrors "messaging-service/pkg/errors"
	"messaging-service/pkg/logger"
)

// Service orchestrates the messaging stores behind the authorization gate.
type Service struct {
	contacts      repositories.ContactRepository
	conversations repositories.ConversationRepository
	messages      repositories.MessageRepository
	notifications repositories.NotificationRepository
	prefs         repositories.PreferenceRepository

	caps     external.CapabilityChecker
	users    external.UserDirectory
	links    external.GroupLinker
	settings external.SettingsProvider

	registry   notify.ProviderRegistry
	dispatcher *notify.Dispatcher

	log    *logger.Logger
	tracer trace.Tracer
	now    func() time.Time
}

// Deps bundles the service dependencies.
type Deps struct {
	Contacts      repositories.ContactRepository
	Conversations repositories.ConversationRepository
	Messages      repositories.MessageRepository
	Notifications repositories.NotificationRepository
	Prefs         repositories.PreferenceRepository
	Caps          external.CapabilityChecker
	Users         external.UserDirectory
	Links         external.GroupLinker
	Settings      external.SettingsProvider
	Registry      notify.ProviderRegistry
	Dispatcher    *notify.Dispatcher
	Log           *logger.Logger
}

// New constructs the messaging service.
func New(deps Deps) *Service {
	log := deps.Log
	if log == nil {
		log = logger.NewNop()
	}
	return &Service{
		contacts:      deps.Contacts,
		conversations: deps.Conversations,
		messages:      deps.Messages,
		notifications: deps.Notifications,
		prefs:         deps.Prefs,
		caps:          deps.Caps,
		users:         deps.Users,
		links:         deps.Links,
		settings:      deps.Settings,
		registry:      deps.Registry,
		dispatcher:    deps.Dispatcher,
		log:           log,
		tracer:        otel.Tracer("messaging-service"),
		now:           time.Now,
	}
}

func (s *Service) startSpan(ctx context.Context, name string) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, name)
}

// snapshot re-reads the site settings; the messaging-enabled check always
// short-circuits every other validation.
func (s *Service) snapshot(ctx context.Context) (external.Settings, error) {
	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return external.Settings{}, apperrors.Internal("read settings", err)
	}
	if !settings.MessagingEnabled {
		return external.Settings{}, apperrors.ErrMessagingDisabled
	}
	return settings, nil
}

// requireActiveUser fails with InvalidUser for unknown or deleted users.
func (s *Service) requireActiveUser(ctx context.Context, userID int) error {
	if userID <= 0 {
		return apperrors.ErrUserNotFound
	}
	exists, err := s.users.Exists(ctx, userID)
	if err != nil {
		return apperrors.Internal("query user directory", err)
	}
	if !exists {
		return apperrors.ErrUserNotFound
	}
	active, err := s.users.IsActive(ctx, userID)
	if err != nil {
		return apperrors.Internal("query user directory", err)
	}
	if !active {
		return apperrors.ErrUserDeleted
	}
	return nil
}

// authorizeForUser passes when the actor operates on their own data or the
// capability oracle grants the named capability for the target.
func (s *Service) authorizeForUser(ctx context.Context, actorID, targetUserID int, capability string) error {
	if actorID == targetUserID {
		return nil
	}
	allowed, err := s.caps.CanOperateOnUser(ctx, actorID, targetUserID, capability)
	if err != nil {
		return apperrors.Internal("query capability oracle", err)
	}
	if !allowed {
		return apperrors.PermissionDenied("acting user may not operate on this user's messaging data")
	}
	return nil
}

// hasUserCapability is authorizeForUser without the error shape, for paths
// that map denial to AccessDenied instead.
func (s *Service) hasUserCapability(ctx context.Context, actorID, targetUserID int, capability string) (bool, error) {
	if actorID == targetUserID {
		return true, nil
	}
	allowed, err := s.caps.CanOperateOnUser(ctx, actorID, targetUserID, capability)
	if err != nil {
		return false, apperrors.Internal("query capability oracle", err)
	}
	return allowed, nil
}

// mapRepoErr translates repository sentinels to coded application errors.
func mapRepoErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repositories.ErrConversationNotFound):
		return apperrors.ErrConversationNotFound
	case errors.Is(err, repositories.ErrMessageNotFound):
		return apperrors.ErrMessageNotFound
	case errors.Is(err, repositories.ErrNotificationNotFound):
		return apperrors.ErrNotificationNotFound
	case errors.Is(err, repositories.ErrContactRequestNotFound):
		return apperrors.ErrContactRequestNotFound
	default:
		return apperrors.Internal("storage failure", err)
	}
}

// Warning is the per-item failure entry batch operations return instead of
// failing the whole batch.
type Warning struct {
	Item    int    `json:"item"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

func warningFor(item int, err error) Warning {
	return Warning{
		Item:    item,
		Code:    string(apperrors.CodeOf(err)),
		Message: err.Error(),
	}
}

// displayMap resolves directory display fields for a set of users, tolerating
// lookup failures with an empty map rather than failing a whole listing.
func (s *Service) displayMap(ctx context.Context, userIDs []int) map[int]external.UserDisplay {
	byID := make(map[int]external.UserDisplay, len(userIDs))
	if len(userIDs) == 0 {
		return byID
	}
	users, err := s.users.BulkDisplayFields(ctx, userIDs)
	if err != nil {
		s.log.Warn(ctx, "bulk display lookup failed")
		return byID
	}
	for _, u := range users {
		byID[u.ID] = u
	}
	return byID
}
