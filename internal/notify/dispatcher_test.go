package notify_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"messaging-service/internal/mocks"
	"messaging-service/internal/models"
	"messaging-service/internal/notify"
	"messaging-service/pkg/logger"
)

func TestDispatcherPublishesEnvelope(t *testing.T) {
	pub := new(mocks.PublisherMock)
	var published notify.Envelope
	pub.On("Publish", mock.Anything, "notifications.created", mock.AnythingOfType("notify.Envelope")).
		Run(func(args mock.Arguments) { published = args.Get(2).(notify.Envelope) }).
		Return(nil).Once()

	d := notify.NewDispatcher(pub, "notifications.created", "messaging", "test", logger.NewNop())
	d.Dispatch(context.Background(), models.Notification{
		SenderID:     1,
		RecipientID:  2,
		Component:    notify.ComponentMessaging,
		EventName:    notify.NameInstantMessage,
		Subject:      "New message",
		SmallMessage: "hello",
	})

	pub.AssertExpectations(t)
	assert.Equal(t, 1, published.SchemaVersion)
	assert.Equal(t, "messaging", published.Service)
	assert.Equal(t, "test", published.Environment)
	assert.Equal(t, notify.ComponentMessaging, published.Component)
	assert.Equal(t, notify.NameInstantMessage, published.Name)
	assert.Equal(t, 1, published.SenderID)
	assert.Equal(t, 2, published.RecipientID)
	assert.Equal(t, "New message", published.Subject)
	assert.Equal(t, "hello", published.SmallMessage)
	assert.NotEmpty(t, published.OccurredAt)
	_, err := uuid.Parse(published.EventID)
	assert.NoError(t, err)
}

func TestDispatcherSwallowsPublishError(t *testing.T) {
	pub := new(mocks.PublisherMock)
	pub.On("Publish", mock.Anything, "notifications.created", mock.AnythingOfType("notify.Envelope")).
		Return(errors.New("broker gone")).Once()

	d := notify.NewDispatcher(pub, "notifications.created", "messaging", "test", logger.NewNop())
	d.Dispatch(context.Background(), models.Notification{
		RecipientID: 2,
		Component:   notify.ComponentMessaging,
		EventName:   notify.NameInstantMessage,
	})

	pub.AssertExpectations(t)
	expected := strings.NewReader(`
# HELP messaging_amqp_publish_errors_total Total number of AMQP publish errors.
# TYPE messaging_amqp_publish_errors_total counter
messaging_amqp_publish_errors_total 1
`)
	require.NoError(t, testutil.GatherAndCompare(prometheus.DefaultGatherer, expected,
		"messaging_amqp_publish_errors_total"))
}

func TestDispatcherWithoutPublisherIsNoop(t *testing.T) {
	d := notify.NewDispatcher(nil, "notifications.created", "messaging", "test", logger.NewNop())
	d.Dispatch(context.Background(), models.Notification{RecipientID: 2})

	var nilDispatcher *notify.Dispatcher
	nilDispatcher.Dispatch(context.Background(), models.Notification{RecipientID: 2})
}
