package service

import (
	"context"

	"go.uber.org/zap"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	apperrors "messaging-service/pkg/errors"
)

// SendNotification persists a notification and hands it to the dispatcher.
// The actor must be the sender, or hold the manage capability to send on
// another sender's (or the system's) behalf.
// Notifications from providers the registry does not enable are dropped
// before persistence; the drop is logged and counted and the call still
// succeeds, reporting accepted=false. Delivery is fire-and-forget, so a
// publish failure never unwinds the stored row.
func (s *Service) SendNotification(ctx context.Context, actorID int, n models.Notification) (models.Notification, bool, error) {
	ctx, span := s.startSpan(ctx, "SendNotification")
	defer span.End()

	// Sending as anyone but yourself, including the system sender 0, is a
	// managed operation.
	if err := s.authorizeForUser(ctx, actorID, n.SenderID, external.CapManageAll); err != nil {
		return models.Notification{}, false, err
	}
	if err := s.requireActiveUser(ctx, n.RecipientID); err != nil {
		return models.Notification{}, false, err
	}
	if n.SenderID != 0 {
		if exists, err := s.users.Exists(ctx, n.SenderID); err != nil {
			return models.Notification{}, false, apperrors.Internal("query user directory", err)
		} else if !exists {
			return models.Notification{}, false, apperrors.ErrUserNotFound
		}
	}
	if n.Component == "" || n.EventName == "" {
		return models.Notification{}, false, apperrors.InvalidArg("a notification needs a component and an event name")
	}

	if !s.registry.Enabled(n.Component, n.EventName) {
		observability.IncNotificationDropped(n.Component, n.EventName)
		s.log.Warn(ctx, "notification dropped, provider not enabled",
			zap.String("component", n.Component),
			zap.String("name", n.EventName),
			zap.Int("recipient_id", n.RecipientID))
		return models.Notification{}, false, nil
	}

	n.CreatedAt = s.now()
	n.ReadAt = nil
	stored, err := s.notifications.Create(ctx, n)
	if err != nil {
		return models.Notification{}, false, mapRepoErr(err)
	}
	observability.IncNotificationSent()

	s.dispatcher.Dispatch(ctx, stored)
	return stored, true, nil
}
