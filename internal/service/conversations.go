package service

import (
	"context"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
	apperrors "messaging-service/pkg/errors"
)

// GetConversationBetweenUsers returns the individual conversation for exactly
// the given two-user set.
func (s *Service) GetConversationBetweenUsers(ctx context.Context, actorID int, userIDs [2]int) (models.Conversation, error) {
	ctx, span := s.startSpan(ctx, "GetConversationBetweenUsers")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return models.Conversation{}, err
	}
	if userIDs[0] == userIDs[1] {
		return models.Conversation{}, apperrors.ErrSelfReference
	}
	if actorID != userIDs[0] && actorID != userIDs[1] {
		if err := s.authorizeForUser(ctx, actorID, userIDs[0], external.CapReadAll); err != nil {
			return models.Conversation{}, err
		}
	}

	conv, err := s.conversations.FindIndividual(ctx, userIDs[0], userIDs[1])
	if err != nil {
		return models.Conversation{}, mapRepoErr(err)
	}
	return conv, nil
}

// CreateConversation validates members and creates a conversation. Individual
// conversations are unique per pair; creating a second one fails.
func (s *Service) CreateConversation(ctx context.Context, actorID, convType int, memberIDs []int, name *string, component *string, itemID *int) (models.Conversation, error) {
	ctx, span := s.startSpan(ctx, "CreateConversation")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return models.Conversation{}, err
	}

	switch convType {
	case models.ConversationTypeIndividual:
		if len(memberIDs) != 2 {
			return models.Conversation{}, apperrors.InvalidArg("an individual conversation needs exactly two members")
		}
	case models.ConversationTypeGroup:
		if len(memberIDs) < 2 {
			return models.Conversation{}, apperrors.InvalidArg("a group conversation needs at least two members")
		}
	default:
		return models.Conversation{}, apperrors.InvalidArg("unrecognized conversation type")
	}

	seen := make(map[int]struct{}, len(memberIDs))
	for _, memberID := range memberIDs {
		if _, dup := seen[memberID]; dup {
			return models.Conversation{}, apperrors.InvalidArg("conversation members must be distinct")
		}
		seen[memberID] = struct{}{}
		if err := s.requireActiveUser(ctx, memberID); err != nil {
			return models.Conversation{}, err
		}
	}

	if convType == models.ConversationTypeIndividual {
		conv, created, err := s.conversations.FindOrCreateIndividual(ctx, memberIDs[0], memberIDs[1])
		if err != nil {
			return models.Conversation{}, mapRepoErr(err)
		}
		if !created {
			return models.Conversation{}, apperrors.InvalidArg("a conversation between these users already exists")
		}
		return conv, nil
	}

	conv, err := s.conversations.Create(ctx, convType, memberIDs, name, component, itemID)
	if err != nil {
		return models.Conversation{}, mapRepoErr(err)
	}
	return conv, nil
}

// GetConversations assembles the user's conversation list. Ordering comes
// from the store: conversations with a visible message by newest message
// time descending, then message-less conversations by id descending.
func (s *Service) GetConversations(ctx context.Context, actorID, userID, limitFrom, limitNum, convType int, favouritesOnly bool) ([]models.ConversationView, error) {
	ctx, span := s.startSpan(ctx, "GetConversations")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return nil, err
	}
	if convType != 0 && convType != models.ConversationTypeIndividual && convType != models.ConversationTypeGroup {
		return nil, apperrors.InvalidArg("unrecognized conversation type filter")
	}

	summaries, err := s.conversations.ListForUser(ctx, repositories.ConversationQuery{
		UserID:         userID,
		LimitFrom:      limitFrom,
		LimitNum:       limitNum,
		Type:           convType,
		FavouritesOnly: favouritesOnly,
	})
	if err != nil {
		return nil, mapRepoErr(err)
	}

	favouriteIDs, err := s.conversations.FavouriteIDs(ctx, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	favourites := make(map[int]struct{}, len(favouriteIDs))
	for _, id := range favouriteIDs {
		favourites[id] = struct{}{}
	}

	views := make([]models.ConversationView, 0, len(summaries))
	for _, summary := range summaries {
		view, err := s.buildConversationView(ctx, userID, summary, favourites)
		if err != nil {
			return nil, err
		}
		views = append(views, view)
	}
	return views, nil
}

// GetConversationMessages returns one conversation's messages visible to the
// user, oldest first, with offset pagination. The user must be a member.
func (s *Service) GetConversationMessages(ctx context.Context, actorID, userID, conversationID, limitFrom, limitNum int) ([]models.Message, error) {
	ctx, span := s.startSpan(ctx, "GetConversationMessages")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return nil, err
	}
	if _, err := s.conversations.Get(ctx, conversationID); err != nil {
		return nil, mapRepoErr(err)
	}
	member, err := s.conversations.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !member {
		return nil, apperrors.ErrNotConversationMember
	}

	messages, err := s.messages.VisibleMessages(ctx, conversationID, userID, limitFrom, limitNum)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return messages, nil
}

// conversationPreviewLimit caps how much history the listing carries per
// conversation; GetConversationMessages pages through the rest.
const conversationPreviewLimit = 100

func (s *Service) buildConversationView(ctx context.Context, userID int, summary models.ConversationSummary, favourites map[int]struct{}) (models.ConversationView, error) {
	view := models.ConversationView{
		ID:   summary.ID,
		Type: summary.Type,
	}
	if summary.Name != nil {
		view.Name = *summary.Name
	}
	_, view.IsFavourite = favourites[summary.ID]

	messages, err := s.messages.RecentVisibleMessages(ctx, summary.ID, userID, conversationPreviewLimit)
	if err != nil {
		return models.ConversationView{}, mapRepoErr(err)
	}
	view.Messages = messages

	unread, err := s.messages.UnreadCount(ctx, summary.ID, userID)
	if err != nil {
		return models.ConversationView{}, mapRepoErr(err)
	}
	view.UnreadCount = unread

	memberIDs, err := s.conversations.MemberIDs(ctx, summary.ID)
	if err != nil {
		return models.ConversationView{}, mapRepoErr(err)
	}

	// A deleted member stays listed only while they authored the newest
	// visible message, so the conversation still names its last speaker.
	lastSenderID := 0
	if len(messages) > 0 {
		lastSenderID = messages[len(messages)-1].SenderID
	}

	members, err := s.buildMemberViews(ctx, userID, memberIDs, lastSenderID, false)
	if err != nil {
		return models.ConversationView{}, err
	}
	view.Members = members

	if summary.Type == models.ConversationTypeIndividual && view.Name == "" {
		for _, member := range members {
			if member.ID != userID {
				view.Name = member.FullName
				break
			}
		}
	}

	if summary.Component != nil {
		linked, err := s.links.LinkedDisplay(ctx, summary.ID)
		if err != nil {
			return models.ConversationView{}, apperrors.Internal("query group linkage", err)
		}
		if linked != nil {
			view.Subname = linked.Subname
			view.ImageURL = linked.ImageURL
		}
	}
	return view, nil
}

// buildMemberViews decorates members other than the viewer, dropping deleted
// users unless they are keepDeletedID.
func (s *Service) buildMemberViews(ctx context.Context, viewerID int, memberIDs []int, keepDeletedID int, includeContactRequests bool) ([]models.MemberView, error) {
	ids := make([]int, 0, len(memberIDs))
	for _, id := range memberIDs {
		if id != viewerID {
			ids = append(ids, id)
		}
	}
	byID := s.displayMap(ctx, ids)

	views := make([]models.MemberView, 0, len(ids))
	for _, id := range ids {
		active, err := s.users.IsActive(ctx, id)
		if err != nil {
			return nil, apperrors.Internal("query user directory", err)
		}
		if !active && id != keepDeletedID {
			continue
		}

		isContact, err := s.contacts.AreContacts(ctx, viewerID, id)
		if err != nil {
			return nil, mapRepoErr(err)
		}
		isBlocked, err := s.contacts.IsBlocked(ctx, viewerID, id)
		if err != nil {
			return nil, mapRepoErr(err)
		}

		display := byID[id]
		view := models.MemberView{
			ID:              id,
			FullName:        display.FullName,
			ProfileImageURL: display.PictureURL,
			IsContact:       isContact,
			IsBlocked:       isBlocked,
			IsDeleted:       !active,
		}
		if includeContactRequests {
			requests, err := s.contacts.RequestsBetween(ctx, viewerID, id)
			if err != nil {
				return nil, mapRepoErr(err)
			}
			view.ContactRequests = requests
		}
		views = append(views, view)
	}
	return views, nil
}

// GetConversationMembers returns member views of one conversation. The user
// must be a member; elevated actors may inspect other users' conversations.
func (s *Service) GetConversationMembers(ctx context.Context, actorID, userID, conversationID int, includeContactRequests bool) ([]models.MemberView, error) {
	ctx, span := s.startSpan(ctx, "GetConversationMembers")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return nil, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return nil, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return nil, err
	}
	if _, err := s.conversations.Get(ctx, conversationID); err != nil {
		return nil, mapRepoErr(err)
	}
	member, err := s.conversations.IsMember(ctx, conversationID, userID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	if !member {
		return nil, apperrors.PermissionDenied("user is not a member of the conversation")
	}

	memberIDs, err := s.conversations.MemberIDs(ctx, conversationID)
	if err != nil {
		return nil, mapRepoErr(err)
	}
	return s.buildMemberViews(ctx, userID, memberIDs, 0, includeContactRequests)
}

// SetFavouriteConversations marks conversations as favourites for the user.
// The whole batch fails when any target is unknown or the user is not a
// member of it.
func (s *Service) SetFavouriteConversations(ctx context.Context, actorID, userID int, conversationIDs []int) error {
	ctx, span := s.startSpan(ctx, "SetFavouriteConversations")
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

	for _, conversationID := range conversationIDs {
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
	}
	for _, conversationID := range conversationIDs {
		if err := s.conversations.SetFavourite(ctx, conversationID, userID); err != nil {
			return mapRepoErr(err)
		}
	}
	return nil
}

// UnsetFavouriteConversations clears favourite flags. Unsetting a
// conversation that was never favourited is a no-op; an unknown conversation
// still fails the batch.
func (s *Service) UnsetFavouriteConversations(ctx context.Context, actorID, userID int, conversationIDs []int) error {
	ctx, span := s.startSpan(ctx, "UnsetFavouriteConversations")
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

	for _, conversationID := range conversationIDs {
		if _, err := s.conversations.Get(ctx, conversationID); err != nil {
			return mapRepoErr(err)
		}
	}
	for _, conversationID := range conversationIDs {
		if err := s.conversations.UnsetFavourite(ctx, conversationID, userID); err != nil {
			return mapRepoErr(err)
		}
	}
	return nil
}

// DeleteConversation hides every message of one conversation for the user.
func (s *Service) DeleteConversation(ctx context.Context, actorID, userID, conversationID int) error {
	return s.DeleteConversationsByID(ctx, actorID, userID, []int{conversationID})
}

// DeleteConversationsByID bulk-hides all messages of the given conversations
// for the user. Each conversation's hide is a single atomic statement.
func (s *Service) DeleteConversationsByID(ctx context.Context, actorID, userID int, conversationIDs []int) error {
	ctx, span := s.startSpan(ctx, "DeleteConversationsByID")
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

	for _, conversationID := range conversationIDs {
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
	}
	for _, conversationID := range conversationIDs {
		if err := s.messages.DeleteAllForUser(ctx, conversationID, userID, s.now()); err != nil {
			return mapRepoErr(err)
		}
	}
	return nil
}

// GetUnreadConversationsCount counts the user's conversations with at least
// one unread message.
func (s *Service) GetUnreadConversationsCount(ctx context.Context, actorID, userID int) (int, error) {
	ctx, span := s.startSpan(ctx, "GetUnreadConversationsCount")
	defer span.End()

	if _, err := s.snapshot(ctx); err != nil {
		return 0, err
	}
	if err := s.requireActiveUser(ctx, userID); err != nil {
		return 0, err
	}
	if err := s.authorizeForUser(ctx, actorID, userID, external.CapReadAll); err != nil {
		return 0, err
	}

	count, err := s.messages.UnreadConversationsCount(ctx, userID)
	if err != nil {
		return 0, mapRepoErr(err)
	}
	return count, nil
}
