package broker

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"anime-market/internal/models"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (w *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if w.err != nil {
		return w.err
	}
	w.msgs = append(w.msgs, msgs...)
	return nil
}

func (w *fakeWriter) Close() error { return nil }

type fakeReader struct {
	mu        sync.Mutex
	queue     []kafka.Message
	committed []int64
}

func (r *fakeReader) FetchMessage(ctx context.Context) (kafka.Message, error) {
	r.mu.Lock()
	if len(r.queue) > 0 {
		msg := r.queue[0]
		r.queue = r.queue[1:]
		r.mu.Unlock()
		return msg, nil
	}
	r.mu.Unlock()
	<-ctx.Done()
	return kafka.Message{}, ctx.Err()
}

func (r *fakeReader) CommitMessages(_ context.Context, msgs ...kafka.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, m := range msgs {
		r.committed = append(r.committed, m.Offset)
	}
	return nil
}

func (r *fakeReader) Close() error { return nil }

func (r *fakeReader) commits() []int64 {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int64(nil), r.committed...)
}

func orderEventJSON(t *testing.T, eventType string, orderID int64) []byte {
	t.Helper()
	b, err := json.Marshal(&models.OrderEvent{
		BaseEvent: models.BaseEvent{EventID: "evt", EventType: eventType, Timestamp: time.Now()},
		OrderID:   orderID,
		To:        models.OrderStatusPaid,
	})
	require.NoError(t, err)
	return b
}

func TestPublishOrderEventKeysByOrder(t *testing.T) {
	w := &fakeWriter{}
	pub := NewEventPublisher(newProducer(w))

	err := pub.PublishOrderEvent(context.Background(), &models.OrderEvent{
		BaseEvent: models.BaseEvent{EventID: "e1", EventType: models.EventTypeOrderPaid},
		OrderID:   42,
	})
	require.NoError(t, err)
	require.Len(t, w.msgs, 1)
	assert.Equal(t, "order-42", string(w.msgs[0].Key))

	var decoded models.OrderEvent
	require.NoError(t, json.Unmarshal(w.msgs[0].Value, &decoded))
	assert.Equal(t, models.EventTypeOrderPaid, decoded.EventType)
	assert.EqualValues(t, 42, decoded.OrderID)
}

func TestPublishOrderEventWriteFailure(t *testing.T) {
	pub := NewEventPublisher(newProducer(&fakeWriter{err: errors.New("broker down")}))
	err := pub.PublishOrderEvent(context.Background(), &models.OrderEvent{OrderID: 1})
	assert.ErrorContains(t, err, "broker down")
}

func TestHandleMessageRoutesOrderEvents(t *testing.T) {
	h := NewEventHandler()
	var got []*models.OrderEvent
	h.OnOrderEvent(func(_ context.Context, e *models.OrderEvent) error {
		got = append(got, e)
		return nil
	})
	ctx := context.Background()

	require.NoError(t, h.HandleMessage(ctx, kafka.Message{Value: orderEventJSON(t, models.EventTypeOrderPaid, 7)}))
	require.NoError(t, h.HandleMessage(ctx, kafka.Message{Value: []byte(`{"event_type":"USER_CREATED"}`)}))
	assert.Error(t, h.HandleMessage(ctx, kafka.Message{Value: []byte(`not json`)}))

	require.Len(t, got, 1)
	assert.EqualValues(t, 7, got[0].OrderID)
	assert.Equal(t, models.OrderStatusPaid, got[0].To)
}

func TestStartConsumingCommitsHandledMessages(t *testing.T) {
	r := &fakeReader{queue: []kafka.Message{
		{Offset: 1, Value: []byte("ok")},
		{Offset: 2, Value: []byte("fail")},
		{Offset: 3, Value: []byte("ok")},
	}}
	c := newConsumer(r, "order-events")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var handled int
	done := make(chan error, 1)
	go func() {
		done <- c.StartConsuming(ctx, func(_ context.Context, msg kafka.Message) error {
			handled++
			if string(msg.Value) == "fail" {
				return errors.New("boom")
			}
			if msg.Offset == 3 {
				cancel()
			}
			return nil
		})
	}()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("consumer did not stop")
	}
	assert.Equal(t, 3, handled)
	assert.Equal(t, []int64{1}, r.commits()[:1])
	assert.NotContains(t, r.commits(), int64(2))
}
