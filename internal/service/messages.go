package service

import (
	"context"
	"time"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	apperrors "messaging-service/pkg/errors"
)

// GetMessages runs the combined messages/notifications query. Either side may
// be the zero wildcard; wildcarding both sides needs the read-all capability.
// Notification-only reads stay available while messaging is disabled.
func (s *Service) GetMessages(ctx context.Context, actorID, toUserID, fromUserID int, msgType string, read, newestFirst bool, limitFrom, limitNum int) ([]models.MessageView, error) {
	ctx, span := s.startSpan(ctx, "GetMessages")
	defer span.End()

	settings, err := s.settings.Snapshot(ctx)
	if err != nil {
		return nil, apperrors.Internal("read settings", err)
	}
	switch msgType {
	case repositories.MessageTypeConversations, repositories.MessageTypeNotifications, repositories.MessageTypeBoth:
	default:
		return nil, apperrors.InvalidArg("unrecognized message type filter")
	}
	if !settings.MessagingEnabled && msgType != repositories.MessageTypeNotifications {
		return nil, apperrors.ErrMessagingDisabled
	}

	for _, userID := range []int{toUserID, fromUserID} {
		if userID == 0 {
			continue
		}
		if err := s.requireActiveUser(ctx, userID); err != nil {
			return nil, err
		}
	}

	// The all-wildcard query spans every user, so it takes the same
	// elevation as reading a conversation the actor is no party to.
	if actorID != toUserID && actorID != fromUserID {
		allowed, err := s.hasUserCapability(ctx, actorID, 0, external.CapReadAll)
		if err != nil {
			return nil, err
		}
		if !allowed {
			return nil, apperrors.AccessDenied("you do not have permission to read other users' messages")
		}
	}

	// Delete state is applied for the queried side the caller stands on;
	// an elevated reader sees through the recipient's overlay.
	visibleTo := toUserID
	if actorID == fromUserID && fromUserID != 0 {
		visibleTo = fromUserID
	}
	if visibleTo == 0 {
		visibleTo = fromUserID
	}

	views, err := s.messages.List(ctx, repositories.MessageFilter{
		RecipientID: toUserID,
		SenderID:    fromUserID,
		Type:        msgType,
		Read:        read,
		NewestFirst: newestFirst,
		LimitFrom:   limitFrom,
		LimitNum:    limitNum,
		VisibleTo:   visibleTo,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return views, nil
}

// MarkMessageRead records a read action for the actor, stamped with readAt
// (zero means now). Marking an already read message is a no-op.
func (s *Service) MarkMessageRead(ctx context.Context, actorID, messageID int, readAt time.Time) error {
	ctx, span := s.startSpan(ctx, "MarkMessageRead")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, actorID); err != nil {
		return err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return mapRepoErr(err)
	}
	if msg.SenderID == actorID {
		return apperrors.InvalidParam("a sender cannot mark their own message as read")
	}
	member, err := s.conversations.IsMember(ctx, msg.ConversationID, actorID)
	if err != nil {
		return mapRepoErr(err)
	}
	if !member {
		return apperrors.InvalidParam("the message was not sent to this user")
	}

	if readAt.IsZero() {
		readAt = s.now()
	}
	if _, err := s.messages.AddAction(ctx, messageID, actorID, models.ActionRead, readAt); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// MarkNotificationRead stamps a notification's read time (zero means now).
// Already-read notifications keep their original timestamp.
func (s *Service) MarkNotificationRead(ctx context.Context, actorID, notificationID int, readAt time.Time) error {
	ctx, span := s.startSpan(ctx, "MarkNotificationRead")
	defer span.End()

	if err := s.requireActiveUser(ctx, actorID); err != nil {
		return err
	}

	n, err := s.notifications.Get(ctx, notificationID)
	if err != nil {
		return mapRepoErr(err)
	}
	if n.RecipientID != actorID {
		return apperrors.InvalidParam("the notification was not sent to this user")
	}

	if readAt.IsZero() {
		readAt = s.now()
	}
	if err := s.notifications.MarkRead(ctx, notificationID, readAt); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// MarkAllMessagesAsRead marks every unread message addressed to the user as
// read, optionally limited to a single sender. The whole sweep is one
// statement, so concurrent sends either land before it or stay unread.
func (s *Service) MarkAllMessagesAsRead(ctx context.Context, actorID, userID, fromUserID int) error {
	ctx, span := s.startSpan(ctx, "MarkAllMessagesAsRead")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}
	if fromUserID != 0 {
		if err := s.requireActiveUser(ctx, fromUserID); err != nil {
			return err
		}
	}

	if err := s.messages.MarkAllRead(ctx, userID, fromUserID, s.now()); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// MarkAllConversationMessagesAsRead marks every unread message of one
// conversation as read for the user.
func (s *Service) MarkAllConversationMessagesAsRead(ctx context.Context, actorID, userID, conversationID int) error {
	ctx, span := s.startSpan(ctx, "MarkAllConversationMessagesAsRead")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}
	if _, err := s.conversations.Get(ctx, conversationID); err != nil {
		return mapRepoErr(err)
	}
	member, err := s.conversations.IsMember(ctx, conversationID, userID)
	if err != nil {
		return mapRepoErr(err)
	}
	if !member {
		return apperrors.ErrNotConversationMember
	}

	if err := s.messages.MarkAllConversationRead(ctx, conversationID, userID, s.now()); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// MarkAllNotificationsAsRead marks the user's unread notifications as read,
// optionally limited to one sender.
func (s *Service) MarkAllNotificationsAsRead(ctx context.Context, actorID, userID, fromUserID int) error {
	ctx, span := s.startSpan(ctx, "MarkAllNotificationsAsRead")
	defer span.End()

	if err := s.requireActiveUser(ctx, userID); err != nil {
		return err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return err
	}

	if err := s.notifications.MarkAllRead(ctx, userID, fromUserID, s.now()); err != nil {
		return mapRepoErr(err)
	}
	return nil
}

// DeleteMessage hides one message for the user. It reports whether the call
// changed anything; deleting an already hidden message returns false with no
// error. The row itself is never removed, so the other party keeps it.
func (s *Service) DeleteMessage(ctx context.Context, actorID, userID, messageID int) (bool, error) {
	ctx, span := s.startSpan(ctx, "DeleteMessage")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return false, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return false, err
	}

	msg, err := s.messages.Get(ctx, messageID)
	if err != nil {
		return false, mapRepoErr(err)
	}
	member, err := s.conversations.IsMember(ctx, msg.ConversationID, userID)
	if err != nil {
		return false, mapRepoErr(err)
	}
	if !member {
		return false, apperrors.PermissionDenied("the user is not a party to the message")
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return false, err
	}

	changed, err := s.messages.AddAction(ctx, messageID, userID, models.ActionDeleted, s.now())
	if err != nil {
		return false, mapRepoErr(err)
	}
	return changed, nil
}
