package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	routingKey string
	body       []byte
}

// fakePublisher implements Publisher for testing.
type fakePublisher struct {
	messages []published
	err      error
	calls    int
}

func (p *fakePublisher) Publish(_ context.Context, routingKey string, payload []byte) error {
	p.calls++
	if p.err != nil {
		return p.err
	}
	p.messages = append(p.messages, published{routingKey: routingKey, body: payload})
	return nil
}

func (p *fakePublisher) Close() error { return nil }

func TestPublishingHandler_ForwardsEvent(t *testing.T) {
	pub := &fakePublisher{}
	h := NewPublishingHandler(pub, BreakerSettings{FailureThreshold: 3}, discardLogger())

	event, err := NewTaskEvent(TaskCreated, "task-1", "person-1", map[string]string{"title": "Pay bills"})
	require.NoError(t, err)

	require.NoError(t, h.HandleEvent(context.Background(), event))
	require.Len(t, pub.messages, 1)
	assert.Equal(t, TaskCreated, pub.messages[0].routingKey)

	var decoded TaskEvent
	require.NoError(t, json.Unmarshal(pub.messages[0].body, &decoded))
	assert.Equal(t, event.ID, decoded.ID)
	assert.Equal(t, "task-1", decoded.TaskID)
	assert.JSONEq(t, `{"title":"Pay bills"}`, string(decoded.Payload))
}

func TestPublishingHandler_OpensCircuitAfterConsecutiveFailures(t *testing.T) {
	pub := &fakePublisher{err: errors.New("broker down")}
	h := NewPublishingHandler(pub, BreakerSettings{FailureThreshold: 2}, discardLogger())

	event, err := NewTaskEvent(TaskDeleted, "task-1", "person-1", nil)
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		err := h.HandleEvent(context.Background(), event)
		require.Error(t, err)
		assert.NotErrorIs(t, err, ErrPublisherUnavailable)
	}
	assert.Equal(t, gobreaker.StateOpen, h.State())

	err = h.HandleEvent(context.Background(), event)
	assert.ErrorIs(t, err, ErrPublisherUnavailable)
	assert.Equal(t, 2, pub.calls, "open circuit must not reach the publisher")
}

func TestNoopPublisher(t *testing.T) {
	p := NewNoopPublisher(nil)
	assert.NoError(t, p.Publish(context.Background(), TaskCreated, []byte("{}")))
	assert.NoError(t, p.Close())
}

func TestNewRabbitMQPublisher_BadURL(t *testing.T) {
	_, err := NewRabbitMQPublisher("not-an-amqp-url", "tasks.events", discardLogger())
	assert.Error(t, err)
}
