package rabbitmq_adapter_test

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	rabbitmq_adapter "favorites-sync/internal/adapters/rabbitmq"
	"favorites-sync/internal/contextkeys"
	"favorites-sync/internal/core/domain"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockProducer struct {
	mock.Mock
}

func (m *mockProducer) Publish(ctx context.Context, routingKey string, msg amqp.Publishing) error {
	args := m.Called(ctx, routingKey, msg)
	return args.Error(0)
}

func TestSyncEventsPublisher_PublishesJSON(t *testing.T) {
	producer := &mockProducer{}
	var published amqp.Publishing
	producer.On("Publish", mock.Anything, "favorites.synced", mock.Anything).
		Run(func(args mock.Arguments) { published = args.Get(2).(amqp.Publishing) }).
		Return(nil).Once()

	publisher, err := rabbitmq_adapter.NewSyncEventsPublisher(producer, "favorites.synced")
	require.NoError(t, err)

	ctx := contextkeys.ContextWithTraceID(context.Background(), "trace-1")
	report := domain.SyncReport{
		UserID:     "uid-1",
		Applied:    2,
		Favorites:  []domain.Favorite{{Symbol: "AAPL"}, {Symbol: "TSLA"}},
		FinishedAt: time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC),
	}
	require.NoError(t, publisher.PublishFavoritesSynced(ctx, report))

	producer.AssertExpectations(t)
	assert.Equal(t, "application/json", published.ContentType)
	assert.Equal(t, amqp.Persistent, published.DeliveryMode)
	assert.Equal(t, "trace-1", published.Headers["x-trace-id"])
	assert.NotEmpty(t, published.MessageId)

	var decoded domain.SyncReport
	require.NoError(t, json.Unmarshal(published.Body, &decoded))
	assert.Equal(t, report, decoded)
}

func TestSyncEventsPublisher_WrapsProducerError(t *testing.T) {
	producer := &mockProducer{}
	brokerErr := errors.New("channel closed")
	producer.On("Publish", mock.Anything, mock.Anything, mock.Anything).Return(brokerErr)

	publisher, err := rabbitmq_adapter.NewSyncEventsPublisher(producer, "favorites.synced")
	require.NoError(t, err)

	err = publisher.PublishFavoritesSynced(context.Background(), domain.SyncReport{UserID: "uid-1"})
	assert.ErrorIs(t, err, brokerErr)
}

func TestNewSyncEventsPublisher_Validation(t *testing.T) {
	_, err := rabbitmq_adapter.NewSyncEventsPublisher(nil, "key")
	assert.Error(t, err)
	_, err = rabbitmq_adapter.NewSyncEventsPublisher(&mockProducer{}, "")
	assert.Error(t, err)
}
