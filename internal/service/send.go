package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	"messaging-service/internal/observability"
	apperrors "messaging-service/pkg/errors"
)

// PrefMessagePrivacy is the per-user privacy preference key.
const PrefMessagePrivacy = "message_privacy"

// InstantMessage is one send request in a batch.
type InstantMessage struct {
	ToUserID    int    `json:"touserid"`
	Text        string `json:"text"`
	ClientMsgID string `json:"clientmsgid,omitempty"`
}

// SentMessage is the per-item result of SendInstantMessages. ErrorMessage is
// set instead of MsgID when the item was refused; refusals never abort the
// batch.
type SentMessage struct {
	MsgID          int       `json:"msgid"`
	ClientMsgID    string    `json:"clientmsgid,omitempty"`
	ConversationID int       `json:"conversationid"`
	Text           string    `json:"text"`
	CreatedAt      time.Time `json:"timecreated"`
	ErrorMessage   string    `json:"errormessage,omitempty"`
}

// SendInstantMessages delivers a batch of messages from the actor. The whole
// call fails only when messaging is disabled or the actor lacks the send
// capability; per-recipient refusals are reported per item.
func (s *Service) SendInstantMessages(ctx context.Context, actorID int, items []InstantMessage) ([]SentMessage, error) {
	ctx, span := s.startSpan(ctx, "SendInstantMessages")
	defer span.End()

	settings, err := s.snapshot(ctx)
	if err != nil {
		return nil, err
	}

	// Send capability is site-scoped; 0 is the "no target" id.
	allowed, err := s.caps.CanOperateOnUser(ctx, actorID, 0, external.CapSend)
	if err != nil {
		return nil, apperrors.Internal("query capability oracle", err)
	}
	if !allowed {
		return nil, apperrors.PermissionDenied("acting user may not send messages")
	}

	results := make([]SentMessage, 0, len(items))
	for _, item := range items {
		result := SentMessage{ClientMsgID: item.ClientMsgID, Text: item.Text}

		if err := s.requireActiveUser(ctx, item.ToUserID); err != nil {
			result.ErrorMessage = err.Error()
			results = append(results, result)
			continue
		}
		if item.ToUserID == actorID {
			result.ErrorMessage = apperrors.ErrSelfReference.Error()
			results = append(results, result)
			continue
		}

		ok, reason, err := s.canMessage(ctx, settings, actorID, item.ToUserID)
		if err != nil {
			return nil, err
		}
		if !ok {
			observability.IncSendBlocked(reason)
			result.ErrorMessage = apperrors.ErrCannotMessageUser.Error()
			results = append(results, result)
			continue
		}

		msg, err := s.deliver(ctx, actorID, item.ToUserID, item.Text)
		if err != nil {
			return nil, err
		}
		result.MsgID = msg.ID
		result.ConversationID = msg.ConversationID
		result.CreatedAt = msg.CreatedAt
		results = append(results, result)
	}
	return results, nil
}

// SendMessageToConversation appends a message to an existing conversation the
// user is a member of. For individual conversations the block policy against
// the other member still applies.
func (s *Service) SendMessageToConversation(ctx context.Context, actorID, userID, conversationID int, text string) (models.Message, error) {
	ctx, span := s.startSpan(ctx, "SendMessageToConversation")
	defer span.End()

	settings, err := s.snapshot(ctx)
	if err != nil {
		return models.Message{}, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return models.Message{}, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapManageAll); err != nil {
		return models.Message{}, err
	}

	conv, err := s.conversations.Get(ctx, conversationID)
	if err != nil {
		return models.Message{}, mapRepoErr(err)
	}
	member, err := s.conversations.IsMember(ctx, conversationID, userID)
	if err != nil {
		return models.Message{}, mapRepoErr(err)
	}
	if !member {
		return models.Message{}, apperrors.ErrNotConversationMember
	}

	if conv.Type == models.ConversationTypeIndividual {
		memberIDs, err := s.conversations.MemberIDs(ctx, conversationID)
		if err != nil {
			return models.Message{}, mapRepoErr(err)
		}
		for _, otherID := range memberIDs {
			if otherID == userID {
				continue
			}
			ok, reason, err := s.canMessage(ctx, settings, userID, otherID)
			if err != nil {
				return models.Message{}, err
			}
			if !ok {
				observability.IncSendBlocked(reason)
				return models.Message{}, apperrors.ErrUserBlocked
			}
		}
	}

	msg, err := s.messages.Create(ctx, conversationID, userID, "", text, text, s.now())
	if err != nil {
		return models.Message{}, mapRepoErr(err)
	}
	observability.IncMessageSent()
	return msg, nil
}

// deliver finds or creates the pair's conversation and appends the message.
// Creation loss to a concurrent sender is absorbed by the repository retry,
// so both racers land in the same conversation.
func (s *Service) deliver(ctx context.Context, senderID, recipientID int, text string) (models.Message, error) {
	conv, created, err := s.conversations.FindOrCreateIndividual(ctx, senderID, recipientID)
	if err != nil {
		return models.Message{}, mapRepoErr(err)
	}
	if created {
		s.log.Debug(ctx, "individual conversation created",
			zap.Int("conversation_id", conv.ID),
			zap.Int("sender_id", senderID),
			zap.Int("recipient_id", recipientID))
	}

	msg, err := s.messages.Create(ctx, conv.ID, senderID, "", text, text, s.now())
	if err != nil {
		return models.Message{}, mapRepoErr(err)
	}
	observability.IncMessageSent()
	return msg, nil
}

// canMessage is the delivery policy: blocks first (with the contact
// exemption), then the recipient's privacy preference against the site
// allow-all setting. Elevated actors bypass both.
func (s *Service) canMessage(ctx context.Context, settings external.Settings, senderID, recipientID int) (bool, string, error) {
	elevated, err := s.caps.CanOperateOnUser(ctx, senderID, recipientID, external.CapManageAll)
	if err != nil {
		return false, "", apperrors.Internal("query capability oracle", err)
	}
	if elevated {
		return true, "", nil
	}

	areContacts, err := s.contacts.AreContacts(ctx, senderID, recipientID)
	if err != nil {
		return false, "", mapRepoErr(err)
	}

	blocked, err := s.contacts.IsBlocked(ctx, recipientID, senderID)
	if err != nil {
		return false, "", mapRepoErr(err)
	}
	if blocked && !areContacts {
		return false, "blocked", nil
	}

	privacy := s.privacyPreference(ctx, recipientID, settings)
	switch privacy {
	case models.PrivacySite:
		return true, "", nil
	case models.PrivacyCourseMembers:
		if areContacts {
			return true, "", nil
		}
		shared, err := s.links.ShareCourse(ctx, senderID, recipientID)
		if err != nil {
			return false, "", apperrors.Internal("query group linkage", err)
		}
		if shared {
			return true, "", nil
		}
		return false, "privacy", nil
	default: // contacts only
		if areContacts {
			return true, "", nil
		}
		return false, "privacy", nil
	}
}

// privacyPreference resolves the recipient's effective privacy setting. A
// stored site-wide preference degrades to course members when the site no
// longer allows messaging all users.
func (s *Service) privacyPreference(ctx context.Context, userID int, settings external.Settings) string {
	value, ok, err := s.prefs.Get(ctx, userID, PrefMessagePrivacy)
	if err != nil || !ok {
		if settings.AllowAllUsers {
			return models.PrivacySite
		}
		return models.PrivacyCourseMembers
	}
	if value == models.PrivacySite && !settings.AllowAllUsers {
		return models.PrivacyCourseMembers
	}
	return value
}
