package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/talentscan/talentscan-backend/pkg/logger"
)

type recordingAck struct {
	acked    bool
	nacked   bool
	requeue  bool
	rejected bool
}

func (a *recordingAck) Ack(uint64, bool) error { a.acked = true; return nil }
func (a *recordingAck) Nack(_ uint64, _ bool, requeue bool) error {
	a.nacked, a.requeue = true, requeue
	return nil
}
func (a *recordingAck) Reject(_ uint64, requeue bool) error {
	a.rejected, a.requeue = true, requeue
	return nil
}

func newTestConsumer() *Consumer {
	return &Consumer{handlers: make(map[string]MessageHandler), logger: logger.Nop()}
}

func delivery(t *testing.T, ack amqp.Acknowledger, eventType string, data any) amqp.Delivery {
	t.Helper()
	event, err := NewEvent(eventType, "test", "corr-1", data)
	require.NoError(t, err)
	body, err := json.Marshal(event)
	require.NoError(t, err)
	return amqp.Delivery{Acknowledger: ack, DeliveryTag: 1, Body: body}
}

func TestHandleMessage_AcksOnSuccess(t *testing.T) {
	c := newTestConsumer()
	var got IngestRequestedEvent
	var corr string
	c.RegisterHandler(EventResumeIngestRequested, func(ctx context.Context, e *Event) error {
		corr = getCorrelationID(ctx)
		return e.UnmarshalData(&got)
	})

	ack := &recordingAck{}
	c.handleMessage(context.Background(), delivery(t, ack, EventResumeIngestRequested,
		IngestRequestedEvent{Path: "uploads/cv.pdf", Filename: "cv.pdf"}))

	assert.True(t, ack.acked)
	assert.Equal(t, "uploads/cv.pdf", got.Path)
	assert.Equal(t, "corr-1", corr)
}

func TestHandleMessage_RequeuesFirstFailure(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventResumeIngestRequested, func(context.Context, *Event) error {
		return errors.New("db down")
	})

	ack := &recordingAck{}
	c.handleMessage(context.Background(), delivery(t, ack, EventResumeIngestRequested, IngestRequestedEvent{}))

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestHandleMessage_DeadLettersRedelivery(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventResumeIngestRequested, func(context.Context, *Event) error {
		return errors.New("db down")
	})

	ack := &recordingAck{}
	msg := delivery(t, ack, EventResumeIngestRequested, IngestRequestedEvent{})
	msg.Redelivered = true
	c.handleMessage(context.Background(), msg)

	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}

func TestHandleMessage_RequeueIgnoresDeathHistory(t *testing.T) {
	c := newTestConsumer()
	c.RegisterHandler(EventResumeIngestRequested, func(context.Context, *Event) error {
		return errors.New("db down")
	})

	// a message replayed from the dead letter queue gets one fresh retry
	ack := &recordingAck{}
	msg := delivery(t, ack, EventResumeIngestRequested, IngestRequestedEvent{})
	msg.Headers = amqp.Table{"x-death": []any{amqp.Table{"count": int64(4)}}}
	c.handleMessage(context.Background(), msg)

	assert.True(t, ack.nacked)
	assert.True(t, ack.requeue)
}

func TestHandleMessage_MalformedBodyRejected(t *testing.T) {
	ack := &recordingAck{}
	newTestConsumer().handleMessage(context.Background(), amqp.Delivery{Acknowledger: ack, Body: []byte("{")})

	assert.True(t, ack.rejected)
	assert.False(t, ack.requeue)
}

func TestHandleMessage_UnknownTypeAcked(t *testing.T) {
	ack := &recordingAck{}
	newTestConsumer().handleMessage(context.Background(), delivery(t, ack, EventCandidateCreated, CandidateChangedEvent{}))

	assert.True(t, ack.acked)
}
