package messaging_test

import (
	"context"
	"errors"
	"testing"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/message/router/middleware"
	"github.com/serroba/wordlink/internal/messaging"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockPublisher struct {
	messages   []*message.Message
	topic      string
	publishErr error
	closeErr   error
	closed     bool
}

func (m *mockPublisher) Publish(topic string, msgs ...*message.Message) error {
	if m.publishErr != nil {
		return m.publishErr
	}

	m.topic = topic
	m.messages = append(m.messages, msgs...)

	return nil
}

func (m *mockPublisher) Close() error {
	m.closed = true

	return m.closeErr
}

type publishTestEvent struct {
	Keyword string `json:"keyword"`
}

func TestNewPublishFunc(t *testing.T) {
	t.Run("publishes event as json", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "record.created")

		err := publish(context.Background(), &publishTestEvent{Keyword: "apple"})

		require.NoError(t, err)
		assert.Equal(t, "record.created", mock.topic)
		require.Len(t, mock.messages, 1)
		assert.JSONEq(t, `{"keyword":"apple"}`, string(mock.messages[0].Payload))
	})

	t.Run("copies the correlation id from the context", func(t *testing.T) {
		mock := &mockPublisher{}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "record.created")
		ctx := messaging.ContextWithCorrelationID(context.Background(), "req-1")

		err := publish(ctx, &publishTestEvent{Keyword: "apple"})

		require.NoError(t, err)
		assert.Equal(t, "req-1", middleware.MessageCorrelationID(mock.messages[0]))
	})

	t.Run("returns error when publish fails", func(t *testing.T) {
		mock := &mockPublisher{publishErr: errors.New("publish error")}
		publish := messaging.NewPublishFunc[publishTestEvent](mock, "record.created")

		err := publish(context.Background(), &publishTestEvent{Keyword: "apple"})

		assert.Error(t, err)
	})
}

func TestPublisherGroup(t *testing.T) {
	t.Run("returns underlying publisher", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		assert.Equal(t, mock, group.Publisher())
	})

	t.Run("closes the publisher on shutdown", func(t *testing.T) {
		mock := &mockPublisher{}
		group := messaging.NewPublisherGroup(mock)

		err := group.Shutdown()

		require.NoError(t, err)
		assert.True(t, mock.closed)
	})

	t.Run("returns close error", func(t *testing.T) {
		mock := &mockPublisher{closeErr: errors.New("close error")}
		group := messaging.NewPublisherGroup(mock)

		assert.Error(t, group.Shutdown())
	})
}

func TestCorrelationIDFromContext(t *testing.T) {
	assert.Empty(t, messaging.CorrelationIDFromContext(context.Background()))
}
