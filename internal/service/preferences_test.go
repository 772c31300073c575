package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/models"
	"messaging-service/internal/notify"
	apperrors "messaging-service/pkg/errors"
)

func testRegistry() notify.StaticRegistry {
	return notify.StaticRegistry{Entries: []notify.Provider{
		{Component: notify.ComponentMessaging, Name: notify.NameInstantMessage, DefaultLoggedIn: true, DefaultLoggedOff: false},
		{Component: "gradebook", Name: "graded", DefaultLoggedIn: false, DefaultLoggedOff: false},
	}}
}

func TestGetUserNotificationPreferencesDefaults(t *testing.T) {
	svc, deps := newTestService(testRegistry(), nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.prefs.On("Get", mock.Anything, 1, mock.AnythingOfType("string")).Return("", false, nil)

	prefs, err := svc.GetUserNotificationPreferences(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PrivacySite, prefs.Privacy)
	require.Len(t, prefs.Processors, 2)
	assert.True(t, prefs.Processors[0].LoggedIn)
	assert.False(t, prefs.Processors[0].LoggedOff)
	assert.False(t, prefs.Processors[1].LoggedIn)
	deps.assertExpectations(t)
}

func TestGetUserNotificationPreferencesStoredOverride(t *testing.T) {
	svc, deps := newTestService(testRegistry(), nil)
	deps.messagingEnabled(false)
	deps.activeUser(1)
	deps.prefs.On("Get", mock.Anything, 1, PrefMessagePrivacy).
		Return(models.PrivacyContactsOnly, true, nil).Once()
	deps.prefs.On("Get", mock.Anything, 1, providerPrefKey(notify.ComponentMessaging, notify.NameInstantMessage, "loggedin")).
		Return("0", true, nil).Once()
	deps.prefs.On("Get", mock.Anything, 1, providerPrefKey(notify.ComponentMessaging, notify.NameInstantMessage, "loggedoff")).
		Return("1", true, nil).Once()
	deps.prefs.On("Get", mock.Anything, 1, mock.AnythingOfType("string")).Return("", false, nil)

	prefs, err := svc.GetUserNotificationPreferences(context.Background(), 1, 1)
	require.NoError(t, err)
	assert.Equal(t, models.PrivacyContactsOnly, prefs.Privacy)
	assert.False(t, prefs.Processors[0].LoggedIn)
	assert.True(t, prefs.Processors[0].LoggedOff)
	deps.assertExpectations(t)
}

func TestGetUserMessagePreferencesFiltersInstantMessage(t *testing.T) {
	svc, deps := newTestService(testRegistry(), nil)
	deps.messagingEnabled(true)
	deps.activeUser(1)
	deps.prefs.On("Get", mock.Anything, 1, mock.AnythingOfType("string")).Return("", false, nil)

	prefs, err := svc.GetUserMessagePreferences(context.Background(), 1, 1)
	require.NoError(t, err)
	require.Len(t, prefs.Processors, 1)
	assert.Equal(t, notify.NameInstantMessage, prefs.Processors[0].Name)
	deps.assertExpectations(t)
}

func TestSetUserPreferenceRejectsBadPrivacyValue(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.activeUser(1)

	err := svc.SetUserPreference(context.Background(), 1, 1, PrefMessagePrivacy, "everyone")
	require.Error(t, err)
	assert.True(t, apperrors.HasCode(err, apperrors.CodeInvalidArgument))
	deps.prefs.AssertNotCalled(t, "Set", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	deps.assertExpectations(t)
}

func TestSetUserPreferenceStoresPrivacy(t *testing.T) {
	svc, deps := newTestService(nil, nil)
	deps.activeUser(1)
	deps.prefs.On("Set", mock.Anything, 1, PrefMessagePrivacy, models.PrivacyContactsOnly).Return(nil).Once()

	require.NoError(t, svc.SetUserPreference(context.Background(), 1, 1, PrefMessagePrivacy, models.PrivacyContactsOnly))
	deps.assertExpectations(t)
}
