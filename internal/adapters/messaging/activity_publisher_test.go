package messaging

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/sony/gobreaker"

	"github.com/isavralabel/pickpoint-console/internal/config"
	"github.com/isavralabel/pickpoint-console/internal/core/ports"
)

type fakeChannel struct {
	mu        sync.Mutex
	published []amqp.Publishing
	keys      []string
	err       error
	closed    bool
}

func (f *fakeChannel) PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func newTestBroker(ch *fakeChannel) *RabbitMQBroker {
	return &RabbitMQBroker{ch: ch, queueName: "console_activity", cb: config.NewCircuitBreaker(config.BreakerRabbitMQ)}
}

func TestPublishActivity(t *testing.T) {
	ch := &fakeChannel{}
	broker := newTestBroker(ch)
	evt := ports.ActivityEvent{
		ID:         "evt-1",
		Type:       ports.ActivityPackagePickedUp,
		Actor:      "staff",
		Role:       "staff",
		LocationID: 3,
		ResourceID: 42,
		Amount:     45000,
		OccurredAt: time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC),
	}

	if err := broker.PublishActivity(context.Background(), evt); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(ch.published) != 1 {
		t.Fatalf("expected 1 message, got %d", len(ch.published))
	}
	msg := ch.published[0]
	if ch.keys[0] != "console_activity" {
		t.Errorf("expected routing key console_activity, got %q", ch.keys[0])
	}
	if msg.DeliveryMode != amqp.Persistent || msg.ContentType != "application/json" {
		t.Errorf("expected persistent json message, got mode %d type %q", msg.DeliveryMode, msg.ContentType)
	}
	if msg.MessageId != "evt-1" || msg.Type != "package.picked_up" {
		t.Errorf("unexpected message metadata %q %q", msg.MessageId, msg.Type)
	}

	var decoded ports.ActivityEvent
	if err := json.Unmarshal(msg.Body, &decoded); err != nil {
		t.Fatalf("decode body: %v", err)
	}
	if decoded.ResourceID != 42 || decoded.Amount != 45000 {
		t.Errorf("unexpected body %+v", decoded)
	}
}

func TestPublishActivity_ExpiredContext(t *testing.T) {
	ch := &fakeChannel{}
	broker := newTestBroker(ch)

	ctx, cancel := context.WithDeadline(context.Background(), time.Now().Add(-time.Second))
	defer cancel()

	if err := broker.PublishActivity(ctx, ports.ActivityEvent{ID: "x"}); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
	if len(ch.published) != 0 {
		t.Error("expected nothing to be published")
	}
}

func TestPublishActivity_BreakerOpens(t *testing.T) {
	ch := &fakeChannel{err: amqp.ErrClosed}
	broker := newTestBroker(ch)

	for i := 0; i < 3; i++ {
		_ = broker.PublishActivity(context.Background(), ports.ActivityEvent{ID: "x"})
	}
	err := broker.PublishActivity(context.Background(), ports.ActivityEvent{ID: "x"})
	if !errors.Is(err, gobreaker.ErrOpenState) {
		t.Errorf("expected open breaker, got %v", err)
	}
}

func TestClose(t *testing.T) {
	ch := &fakeChannel{}
	if err := newTestBroker(ch).Close(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !ch.closed {
		t.Error("expected channel to be closed")
	}
}
