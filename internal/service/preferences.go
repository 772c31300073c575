package service

import (
	"context"
	"fmt"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	"messaging-service/internal/notify"
	apperrors "messaging-service/pkg/errors"
)

// providerPrefKey builds the stored preference key for one provider state,
// e.g. "message_provider_messaging_instantmessage_loggedin".
func providerPrefKey(component, name, state string) string {
	return fmt.Sprintf("message_provider_%s_%s_%s", component, name, state)
}

// GetUserNotificationPreferences resolves the user's per-provider delivery
// preferences, falling back to each provider's defaults where the user has
// stored nothing. Preferences stay readable while messaging is disabled.
func (s *Service) GetUserNotificationPreferences(ctx context.Context, actorID, userID int) (models.NotificationPreferences, error) {
	ctx, span := s.startSpan(ctx, "GetUserNotificationPreferences")
	defer span.End()

	if err := s.requireActiveUser(ctx, userID); err != nil {
		return models.NotificationPreferences{}, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return models.NotificationPreferences{}, err
	}

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return models.NotificationPreferences{}, apperrors.Internal("read settings", err)
	}

	prefs := models.NotificationPreferences{
		UserID:  userID,
		Privacy: s.privacyPreference(ctx, userID, settings),
	}
	for _, provider := range s.registry.Providers() {
		processor := models.ProcessorPreference{
			Component: provider.Component,
			Name:      provider.Name,
			LoggedIn:  s.providerState(ctx, userID, provider.Component, provider.Name, "loggedin", provider.DefaultLoggedIn),
			LoggedOff: s.providerState(ctx, userID, provider.Component, provider.Name, "loggedoff", provider.DefaultLoggedOff),
		}
		prefs.Processors = append(prefs.Processors, processor)
	}
	return prefs, nil
}

func (s *Service) providerState(ctx context.Context, userID int, component, name, state string, fallback bool) bool {
	value, ok, err := s.prefs.Get(ctx, userID, providerPrefKey(component, name, state))
	if err != nil || !ok {
		return fallback
	}
	return value == "1" || value == "true" || value == "enabled"
}

// GetUserMessagePreferences resolves message-delivery preferences: the
// privacy setting plus the instant-message providers only.
func (s *Service) GetUserMessagePreferences(ctx context.Context, actorID, userID int) (models.NotificationPreferences, error) {
	ctx, span := s.startSpan(ctx, "GetUserMessagePreferences")
	defer span.End()

	prefs, err := s.GetUserNotificationPreferences(ctx, actorID, userID)
	if err != nil {
		return models.NotificationPreferences{}, err
	}

	filtered := prefs.Processors[:0:0]
	for _, processor := range prefs.Processors {
		if processor.Name == notify.NameInstantMessage {
			filtered = append(filtered, processor)
		}
	}
	prefs.Processors = filtered
	return prefs, nil
}

// SetUserPreference stores one opaque preference value for the user.
func (s *Service) SetUserPreference(ctx context.Context, actorID, userID int, name, value string) error {
	ctx, span := s.startSpan(ctx, "SetUserPreference")
	defer span.End()

	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}
	if name == "" {
		return apperrors.InvalidArg("a preference name is required")
	}
	if name == PrefMessagePrivacy {
		switch value {
		case models.PrivacyContactsOnly, models.PrivacyCourseMembers, models.PrivacySite:
		default:
			return apperrors.InvalidArg("unrecognized privacy preference value")
		}
	}

	if err := s.prefs.Set(ctx, userID, name, value); err != nil {
		return mapRepoErr(err)
	}
	return nil
}
