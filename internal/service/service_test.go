package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/mock"

	"messaging-service/internal/external"
	"messaging-service/internal/mocks"
	"messaging-service/internal/notify"
)

var testNow = time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)

type testDeps struct {
	contacts *mocks.ContactRepositoryMock
	convs    *mocks.ConversationRepositoryMock
	msgs     *mocks.MessageRepositoryMock
	notifs   *mocks.NotificationRepositoryMock
	prefs    *mocks.PreferenceRepositoryMock
	caps     *mocks.CapabilityCheckerMock
	users    *mocks.UserDirectoryMock
	links    *mocks.GroupLinkerMock
	settings *mocks.SettingsProviderMock
}

func newTestService(registry notify.ProviderRegistry, dispatcher *notify.Dispatcher) (*Service, *testDeps) {
	deps := &testDeps{
		contacts: new(mocks.ContactRepositoryMock),
		convs:    new(mocks.ConversationRepositoryMock),
		msgs:     new(mocks.MessageRepositoryMock),
		notifs:   new(mocks.NotificationRepositoryMock),
		prefs:    new(mocks.PreferenceRepositoryMock),
		caps:     new(mocks.CapabilityCheckerMock),
		users:    new(mocks.UserDirectoryMock),
		links:    new(mocks.GroupLinkerMock),
		settings: new(mocks.SettingsProviderMock),
	}
	svc := New(Deps{
		Contacts:      deps.contacts,
		Conversations: deps.convs,
		Messages:      deps.msgs,
		Notifications: deps.notifs,
		Prefs:         deps.prefs,
		Caps:          deps.caps,
		Users:         deps.users,
		Links:         deps.links,
		Settings:      deps.settings,
		Registry:      registry,
		Dispatcher:    dispatcher,
	})
	svc.now = func() time.Time { return testNow }
	return svc, deps
}

func (d *testDeps) messagingEnabled(allowAllUsers bool) {
	d.settings.On("Snapshot", mock.Anything).
		Return(external.Settings{MessagingEnabled: true, AllowAllUsers: allowAllUsers}, nil)
}

func (d *testDeps) messagingDisabled() {
	d.settings.On("Snapshot", mock.Anything).
		Return(external.Settings{MessagingEnabled: false}, nil)
}

func (d *testDeps) activeUser(userID int) {
	d.users.On("Exists", mock.Anything, userID).Return(true, nil)
	d.users.On("IsActive", mock.Anything, userID).Return(true, nil)
}

func (d *testDeps) deletedUser(userID int) {
	d.users.On("Exists", mock.Anything, userID).Return(true, nil)
	d.users.On("IsActive", mock.Anything, userID).Return(false, nil)
}

func (d *testDeps) unknownUser(userID int) {
	d.users.On("Exists", mock.Anything, userID).Return(false, nil)
}

func (d *testDeps) assertExpectations(t *testing.T) {
	t.Helper()
	d.contacts.AssertExpectations(t)
	d.convs.AssertExpectations(t)
	d.msgs.AssertExpectations(t)
	d.notifs.AssertExpectations(t)
	d.prefs.AssertExpectations(t)
	d.caps.AssertExpectations(t)
	d.settings.AssertExpectations(t)
}
