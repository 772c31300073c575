package mocks

import (
	"context"
	"time"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	"messaging-service/internal/repositories"
)

type ContactRepositoryMock struct {
	mock.Mock
}

func (m *ContactRepositoryMock) AddContact(ctx context.Context, userID int, contactID int) error {
	args := m.Called(ctx, userID, contactID)
	return args.Error(0)
}

func (m *ContactRepositoryMock) DeleteContact(ctx context.Context, userID int, contactID int) error {
	args := m.Called(ctx, userID, contactID)
	return args.Error(0)
}

func (m *ContactRepositoryMock) AreContacts(ctx context.Context, userID int, otherUserID int) (bool, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Bool(0), args.Error(1)
}

func (m *ContactRepositoryMock) ListContacts(ctx context.Context, userID int) ([]models.Contact, error) {
	args := m.Called(ctx, userID)
	var list []models.Contact
	if val := args.Get(0); val != nil {
		list = val.([]models.Contact)
	}
	return list, args.Error(1)
}

func (m *ContactRepositoryMock) Block(ctx context.Context, userID int, blockedUserID int) error {
	args := m.Called(ctx, userID, blockedUserID)
	return args.Error(0)
}

func (m *ContactRepositoryMock) Unblock(ctx context.Context, userID int, blockedUserID int) error {
	args := m.Called(ctx, userID, blockedUserID)
	return args.Error(0)
}

func (m *ContactRepositoryMock) IsBlocked(ctx context.Context, userID int, blockedUserID int) (bool, error) {
	args := m.Called(ctx, userID, blockedUserID)
	return args.Bool(0), args.Error(1)
}

func (m *ContactRepositoryMock) ListBlocked(ctx context.Context, userID int) ([]models.BlockedUser, error) {
	args := m.Called(ctx, userID)
	var list []models.BlockedUser
	if val := args.Get(0); val != nil {
		list = val.([]models.BlockedUser)
	}
	return list, args.Error(1)
}

func (m *ContactRepositoryMock) CreateRequest(ctx context.Context, userID int, requestedUserID int) (models.ContactRequest, error) {
	args := m.Called(ctx, userID, requestedUserID)
	var req models.ContactRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ContactRequest)
	}
	return req, args.Error(1)
}

func (m *ContactRepositoryMock) GetRequest(ctx context.Context, userID int, requestedUserID int) (models.ContactRequest, error) {
	args := m.Called(ctx, userID, requestedUserID)
	var req models.ContactRequest
	if val := args.Get(0); val != nil {
		req = val.(models.ContactRequest)
	}
	return req, args.Error(1)
}

func (m *ContactRepositoryMock) DeleteRequest(ctx context.Context, userID int, requestedUserID int) error {
	args := m.Called(ctx, userID, requestedUserID)
	return args.Error(0)
}

func (m *ContactRepositoryMock) ConfirmRequest(ctx context.Context, userID int, requestedUserID int) error {
	args := m.Called(ctx, userID, requestedUserID)
	return args.Error(0)
}

func (m *ContactRepositoryMock) ListIncomingRequests(ctx context.Context, userID int) ([]models.ContactRequest, error) {
	args := m.Called(ctx, userID)
	var list []models.ContactRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.ContactRequest)
	}
	return list, args.Error(1)
}

func (m *ContactRepositoryMock) RequestsBetween(ctx context.Context, userID int, otherUserID int) ([]models.ContactRequest, error) {
	args := m.Called(ctx, userID, otherUserID)
	var list []models.ContactRequest
	if val := args.Get(0); val != nil {
		list = val.([]models.ContactRequest)
	}
	return list, args.Error(1)
}

type ConversationRepositoryMock struct {
	mock.Mock
}

func (m *ConversationRepositoryMock) Get(ctx context.Context, conversationID int) (models.Conversation, error) {
	args := m.Called(ctx, conversationID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) Create(ctx context.Context, convType int, memberIDs []int, name *string, component *string, itemID *int) (models.Conversation, error) {
	args := m.Called(ctx, convType, memberIDs, name, component, itemID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) FindIndividual(ctx context.Context, userID int, otherUserID int) (models.Conversation, error) {
	args := m.Called(ctx, userID, otherUserID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Error(1)
}

func (m *ConversationRepositoryMock) FindOrCreateIndividual(ctx context.Context, userID int, otherUserID int) (models.Conversation, bool, error) {
	args := m.Called(ctx, userID, otherUserID)
	var conv models.Conversation
	if val := args.Get(0); val != nil {
		conv = val.(models.Conversation)
	}
	return conv, args.Bool(1), args.Error(2)
}

func (m *ConversationRepositoryMock) IsMember(ctx context.Context, conversationID int, userID int) (bool, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Bool(0), args.Error(1)
}

func (m *ConversationRepositoryMock) MemberIDs(ctx context.Context, conversationID int) ([]int, error) {
	args := m.Called(ctx, conversationID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

func (m *ConversationRepositoryMock) ListForUser(ctx context.Context, q repositories.ConversationQuery) ([]models.ConversationSummary, error) {
	args := m.Called(ctx, q)
	var list []models.ConversationSummary
	if val := args.Get(0); val != nil {
		list = val.([]models.ConversationSummary)
	}
	return list, args.Error(1)
}

func (m *ConversationRepositoryMock) SetFavourite(ctx context.Context, conversationID int, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) UnsetFavourite(ctx context.Context, conversationID int, userID int) error {
	args := m.Called(ctx, conversationID, userID)
	return args.Error(0)
}

func (m *ConversationRepositoryMock) FavouriteIDs(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	var ids []int
	if val := args.Get(0); val != nil {
		ids = val.([]int)
	}
	return ids, args.Error(1)
}

type MessageRepositoryMock struct {
	mock.Mock
}

func (m *MessageRepositoryMock) Create(ctx context.Context, conversationID int, senderID int, subject, fullMessage, smallMessage string, createdAt time.Time) (models.Message, error) {
	args := m.Called(ctx, conversationID, senderID, subject, fullMessage, smallMessage, createdAt)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) Get(ctx context.Context, messageID int) (models.Message, error) {
	args := m.Called(ctx, messageID)
	var msg models.Message
	if val := args.Get(0); val != nil {
		msg = val.(models.Message)
	}
	return msg, args.Error(1)
}

func (m *MessageRepositoryMock) VisibleMessages(ctx context.Context, conversationID int, userID int, limitFrom, limitNum int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, userID, limitFrom, limitNum)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) RecentVisibleMessages(ctx context.Context, conversationID int, userID int, limit int) ([]models.Message, error) {
	args := m.Called(ctx, conversationID, userID, limit)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) HasAction(ctx context.Context, messageID int, userID int, action int) (bool, error) {
	args := m.Called(ctx, messageID, userID, action)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) AddAction(ctx context.Context, messageID int, userID int, action int, at time.Time) (bool, error) {
	args := m.Called(ctx, messageID, userID, action, at)
	return args.Bool(0), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadCount(ctx context.Context, conversationID int, userID int) (int, error) {
	args := m.Called(ctx, conversationID, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) UnreadConversationsCount(ctx context.Context, userID int) (int, error) {
	args := m.Called(ctx, userID)
	return args.Int(0), args.Error(1)
}

func (m *MessageRepositoryMock) MarkAllRead(ctx context.Context, userID int, fromUserID int, at time.Time) error {
	args := m.Called(ctx, userID, fromUserID, at)
	return args.Error(0)
}

func (m *MessageRepositoryMock) MarkAllConversationRead(ctx context.Context, conversationID int, userID int, at time.Time) error {
	args := m.Called(ctx, conversationID, userID, at)
	return args.Error(0)
}

func (m *MessageRepositoryMock) DeleteAllForUser(ctx context.Context, conversationID int, userID int, at time.Time) error {
	args := m.Called(ctx, conversationID, userID, at)
	return args.Error(0)
}

func (m *MessageRepositoryMock) List(ctx context.Context, f repositories.MessageFilter) ([]models.MessageView, error) {
	args := m.Called(ctx, f)
	var list []models.MessageView
	if val := args.Get(0); val != nil {
		list = val.([]models.MessageView)
	}
	return list, args.Error(1)
}

func (m *MessageRepositoryMock) Search(ctx context.Context, userID int, query string, limitFrom, limitNum int) ([]models.Message, error) {
	args := m.Called(ctx, userID, query, limitFrom, limitNum)
	var list []models.Message
	if val := args.Get(0); val != nil {
		list = val.([]models.Message)
	}
	return list, args.Error(1)
}

type NotificationRepositoryMock struct {
	mock.Mock
}

func (m *NotificationRepositoryMock) Create(ctx context.Context, n models.Notification) (models.Notification, error) {
	args := m.Called(ctx, n)
	var stored models.Notification
	if val := args.Get(0); val != nil {
		stored = val.(models.Notification)
	}
	return stored, args.Error(1)
}

func (m *NotificationRepositoryMock) Get(ctx context.Context, notificationID int) (models.Notification, error) {
	args := m.Called(ctx, notificationID)
	var n models.Notification
	if val := args.Get(0); val != nil {
		n = val.(models.Notification)
	}
	return n, args.Error(1)
}

func (m *NotificationRepositoryMock) MarkRead(ctx context.Context, notificationID int, at time.Time) error {
	args := m.Called(ctx, notificationID, at)
	return args.Error(0)
}

func (m *NotificationRepositoryMock) MarkAllRead(ctx context.Context, recipientID int, senderID int, at time.Time) error {
	args := m.Called(ctx, recipientID, senderID, at)
	return args.Error(0)
}

type PreferenceRepositoryMock struct {
	mock.Mock
}

func (m *PreferenceRepositoryMock) Get(ctx context.Context, userID int, name string) (string, bool, error) {
	args := m.Called(ctx, userID, name)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *PreferenceRepositoryMock) Set(ctx context.Context, userID int, name string, value string) error {
	args := m.Called(ctx, userID, name, value)
	return args.Error(0)
}

func (m *PreferenceRepositoryMock) ListForUser(ctx context.Context, userID int) ([]models.UserPreference, error) {
	args := m.Called(ctx, userID)
	var list []models.UserPreference
	if val := args.Get(0); val != nil {
		list = val.([]models.UserPreference)
	}
	return list, args.Error(1)
}

type CapabilityCheckerMock struct {
	mock.Mock
}

func (m *CapabilityCheckerMock) CanOperateOnUser(ctx context.Context, actorID, targetUserID int, capability string) (bool, error) {
	args := m.Called(ctx, actorID, targetUserID, capability)
	return args.Bool(0), args.Error(1)
}

func (m *CapabilityCheckerMock) CanOperateOnConversation(ctx context.Context, actorID, conversationID int, capability string) (bool, error) {
	args := m.Called(ctx, actorID, conversationID, capability)
	return args.Bool(0), args.Error(1)
}

type UserDirectoryMock struct {
	mock.Mock
}

func (m *UserDirectoryMock) Exists(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserDirectoryMock) IsActive(ctx context.Context, userID int) (bool, error) {
	args := m.Called(ctx, userID)
	return args.Bool(0), args.Error(1)
}

func (m *UserDirectoryMock) DisplayFields(ctx context.Context, userID int) (external.UserDisplay, error) {
	args := m.Called(ctx, userID)
	var display external.UserDisplay
	if val := args.Get(0); val != nil {
		display = val.(external.UserDisplay)
	}
	return display, args.Error(1)
}

func (m *UserDirectoryMock) BulkDisplayFields(ctx context.Context, userIDs []int) ([]external.UserDisplay, error) {
	args := m.Called(ctx, userIDs)
	var list []external.UserDisplay
	if val := args.Get(0); val != nil {
		list = val.([]external.UserDisplay)
	}
	return list, args.Error(1)
}

func (m *UserDirectoryMock) Search(ctx context.Context, query string, limit int) ([]external.UserDisplay, error) {
	args := m.Called(ctx, query, limit)
	var list []external.UserDisplay
	if val := args.Get(0); val != nil {
		list = val.([]external.UserDisplay)
	}
	return list, args.Error(1)
}

type GroupLinkerMock struct {
	mock.Mock
}

func (m *GroupLinkerMock) LinkedDisplay(ctx context.Context, conversationID int) (*external.LinkedDisplay, error) {
	args := m.Called(ctx, conversationID)
	var linked *external.LinkedDisplay
	if val := args.Get(0); val != nil {
		linked = val.(*external.LinkedDisplay)
	}
	return linked, args.Error(1)
}

func (m *GroupLinkerMock) ShareCourse(ctx context.Context, userID, otherUserID int) (bool, error) {
	args := m.Called(ctx, userID, otherUserID)
	return args.Bool(0), args.Error(1)
}

func (m *GroupLinkerMock) SearchEnrolled(ctx context.Context, courseID int, query string) ([]external.UserDisplay, error) {
	args := m.Called(ctx, courseID, query)
	var list []external.UserDisplay
	if val := args.Get(0); val != nil {
		list = val.([]external.UserDisplay)
	}
	return list, args.Error(1)
}

type SettingsProviderMock struct {
	mock.Mock
}

func (m *SettingsProviderMock) Snapshot(ctx context.Context) (external.Settings, error) {
	args := m.Called(ctx)
	var settings external.Settings
	if val := args.Get(0); val != nil {
		settings = val.(external.Settings)
	}
	return settings, args.Error(1)
}

var _ repositories.ContactRepository = (*ContactRepositoryMock)(nil)
var _ repositories.ConversationRepository = (*ConversationRepositoryMock)(nil)
var _ repositories.MessageRepository = (*MessageRepositoryMock)(nil)
var _ repositories.NotificationRepository = (*NotificationRepositoryMock)(nil)
var _ repositories.PreferenceRepository = (*PreferenceRepositoryMock)(nil)
var _ external.CapabilityChecker = (*CapabilityCheckerMock)(nil)
var _ external.UserDirectory = (*UserDirectoryMock)(nil)
var _ external.GroupLinker = (*GroupLinkerMock)(nil)
var _ external.SettingsProvider = (*SettingsProviderMock)(nil)
