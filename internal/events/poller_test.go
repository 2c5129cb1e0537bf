package events

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fjod/go_cart/storefront/internal/checkout"
	"github.com/fjod/go_cart/storefront/internal/logger"
)

type mockWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	failOn   string
	closed   bool
}

func (w *mockWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	for _, m := range msgs {
		if string(m.Key) == w.failOn {
			return errors.New("broker unavailable")
		}
		w.messages = append(w.messages, m)
	}
	return nil
}

func (w *mockWriter) Close() error {
	w.closed = true
	return nil
}

func (w *mockWriter) keys() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	var keys []string
	for _, m := range w.messages {
		keys = append(keys, string(m.Key))
	}
	return keys
}

func newLedger(t *testing.T) *checkout.SQLiteLedger {
	t.Helper()
	l, err := checkout.NewSQLiteLedger(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	t.Cleanup(func() { l.Close() })
	return l
}

func appendEvents(t *testing.T, l *checkout.SQLiteLedger, ids ...string) {
	t.Helper()
	for _, id := range ids {
		require.NoError(t, l.Append(context.Background(), checkout.Event{
			AggregateID: id,
			Type:        checkout.EventCheckoutSucceeded,
			Payload:     []byte(`{"orderId":"` + id + `"}`),
			CreatedAt:   time.Now(),
		}))
	}
}

func TestProcessUnpublishedEvents(t *testing.T) {
	l := newLedger(t)
	appendEvents(t, l, "o-1", "o-2")
	w := &mockWriter{}
	p := NewOutboxPoller(l, w, logger.Discard())

	n := p.processUnpublishedEvents(context.Background())

	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"o-1", "o-2"}, w.keys())
	assert.Equal(t, "event_type", w.messages[0].Headers[0].Key)
	assert.Equal(t, checkout.EventCheckoutSucceeded, string(w.messages[0].Headers[0].Value))

	pending, err := l.Unpublished(context.Background(), 10)
	require.NoError(t, err)
	assert.Empty(t, pending)

	assert.Zero(t, p.processUnpublishedEvents(context.Background()))
	assert.Len(t, w.keys(), 2)
}

func TestProcessUnpublishedEvents_FailureKeepsOrder(t *testing.T) {
	l := newLedger(t)
	appendEvents(t, l, "o-1", "o-2", "o-3")
	w := &mockWriter{failOn: "o-2"}
	p := NewOutboxPoller(l, w, logger.Discard())

	n := p.processUnpublishedEvents(context.Background())

	assert.Equal(t, 1, n)
	assert.Equal(t, []string{"o-1"}, w.keys())

	w.failOn = ""
	n = p.processUnpublishedEvents(context.Background())
	assert.Equal(t, 2, n)
	assert.Equal(t, []string{"o-1", "o-2", "o-3"}, w.keys())
}

func TestRun_PublishesUntilCancelled(t *testing.T) {
	l := newLedger(t)
	appendEvents(t, l, "o-1")
	w := &mockWriter{}
	p := NewOutboxPoller(l, w, logger.Discard())
	p.eventTick = 10 * time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		p.Run(ctx)
		close(done)
	}()

	assert.Eventually(t, func() bool { return len(w.keys()) == 1 }, time.Second, 10*time.Millisecond)
	cancel()
	<-done

	require.NoError(t, p.Close())
	assert.True(t, w.closed)
}
