package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/external"
	"messaging-service/internal/models"
	apperrors "messaging-service/pkg/errors"
)

func TestCreateContactsCollectsWarnings(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.activeUser(2)
	deps.unknownUser(3)
	deps.contacts.On("AddContact", mock.Anything, 1, 2).Return(nil).Once()

	warnings, err := svc.CreateContacts(context.Background(), 1, 1, []int{2, 3, 1})
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Equal(t, 1, warnings[0].Item)
	assert.Equal(t, string(apperrors.CodeInvalidUser), warnings[0].Code)
	assert.Equal(t, 2, warnings[1].Item)
	assert.Equal(t, string(apperrors.CodeInvalidArgument), warnings[1].Code)
	deps.assertExpectations(t)
}

func TestCreateContactsForOtherUserNeedsCapability(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(2)
	deps.caps.On("CanOperateOnUser", mock.Anything, 1, 2, external.CapManageAll).Return(false, nil).Once()

	_, err := svc.CreateContacts(context.Background(), 1, 2, []int{3})
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
	deps.assertExpectations(t)
}

func TestDeleteContactsRemovesBothDirections(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.contacts.On("DeleteContact", mock.Anything, 1, 2).Return(nil).Once()
	deps.contacts.On("DeleteContact", mock.Anything, 2, 1).Return(nil).Once()

	require.NoError(t, svc.DeleteContacts(context.Background(), 1, 1, []int{2}))
	deps.assertExpectations(t)
}

func TestBlockUserSelfRefused(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)

	err := svc.BlockUser(context.Background(), 1, 1, 1)
	require.Error(t, err)
	assert.True(t, errors.Is(err, apperrors.ErrSelfReference))
	deps.contacts.AssertNotCalled(t, "Block", mock.Anything, mock.Anything, mock.Anything)
	deps.assertExpectations(t)
}

func TestBlockUserDeletedTargetRefused(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.deletedUser(2)

	err := svc.BlockUser(context.Background(), 1, 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidUser))
	deps.assertExpectations(t)
}

func TestUnblockUserNotBlockedIsNoOp(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.contacts.On("Unblock", mock.Anything, 1, 2).Return(nil).Once()

	require.NoError(t, svc.UnblockUser(context.Background(), 1, 1, 2))
	deps.assertExpectations(t)
}

func TestCreateContactRequestSucceeds(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.activeUser(2)
	deps.caps.On("CanOperateOnUser", mock.Anything, 1, 2, external.CapManageAll).Return(false, nil).Once()
	deps.contacts.On("AreContacts", mock.Anything, 1, 2).Return(false, nil).Once()
	deps.contacts.On("IsBlocked", mock.Anything, 2, 1).Return(false, nil).Once()
	deps.prefs.On("Get", mock.Anything, 2, PrefMessagePrivacy).Return("", false, nil).Once()
	deps.contacts.On("CreateRequest", mock.Anything, 1, 2).
		Return(models.ContactRequest{ID: 6, UserID: 1, RequestedUserID: 2}, nil).Once()

	req, err := svc.CreateContactRequest(context.Background(), 1, 1, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, req.ID)
	deps.assertExpectations(t)
}

func TestCreateContactRequestRefusedWhenBlocked(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.activeUser(2)
	deps.caps.On("CanOperateOnUser", mock.Anything, 1, 2, external.CapManageAll).Return(false, nil).Once()
	deps.contacts.On("AreContacts", mock.Anything, 1, 2).Return(false, nil).Once()
	deps.contacts.On("IsBlocked", mock.Anything, 2, 1).Return(true, nil).Once()

	_, err := svc.CreateContactRequest(context.Background(), 1, 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidOperation))
	deps.contacts.AssertNotCalled(t, "CreateRequest", mock.Anything, mock.Anything, mock.Anything)
	deps.assertExpectations(t)
}

func TestConfirmContactRequestOnlyRequestedUser(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(2)
	deps.caps.On("CanOperateOnUser", mock.Anything, 1, 2, external.CapManageAll).Return(false, nil).Once()

	// User 1 sent the request to user 2 and now tries to confirm it themselves.
	err := svc.ConfirmContactRequest(context.Background(), 1, 1, 2)
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodePermissionDenied))
	deps.contacts.AssertNotCalled(t, "ConfirmRequest", mock.Anything, mock.Anything, mock.Anything)
	deps.assertExpectations(t)
}

func TestConfirmContactRequestByRequestedUser(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(2)
	deps.contacts.On("ConfirmRequest", mock.Anything, 1, 2).Return(nil).Once()

	require.NoError(t, svc.ConfirmContactRequest(context.Background(), 2, 1, 2))
	deps.assertExpectations(t)
}

func TestDeclineContactRequestByRequestedUser(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(2)
	deps.contacts.On("DeleteRequest", mock.Anything, 1, 2).Return(nil).Once()

	require.NoError(t, svc.DeclineContactRequest(context.Background(), 2, 1, 2))
	deps.assertExpectations(t)
}

func TestGetContactRequestsDecoratesRequesters(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(2)
	deps.contacts.On("ListIncomingRequests", mock.Anything, 2).
		Return([]models.ContactRequest{{ID: 4, UserID: 1, RequestedUserID: 2}}, nil).Once()
	deps.users.On("BulkDisplayFields", mock.Anything, []int{1}).
		Return([]external.UserDisplay{{ID: 1, FullName: "Alice Smith", Email: "alice@example.com"}}, nil).Once()

	views, err := svc.GetContactRequests(context.Background(), 2, 2)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, "Alice Smith", views[0].FullName)
	deps.assertExpectations(t)
}

func TestGetContactsDecoratesDisplay(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.contacts.On("ListContacts", mock.Anything, 1).
		Return([]models.Contact{{ID: 1, UserID: 1, ContactID: 2}}, nil).Once()
	deps.users.On("BulkDisplayFields", mock.Anything, []int{2}).
		Return([]external.UserDisplay{{ID: 2, FullName: "Bob Jones"}}, nil).Once()

	views, err := svc.GetContacts(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, 2, views[0].ID)
	assert.Equal(t, "Bob Jones", views[0].FullName)
	deps.assertExpectations(t)
}
