package basket

import (
	"context"
	"errors"
	"testing"

	"github.com/fjod/go_cart/storefront/internal/logger"
	"github.com/stretchr/testify/assert"
)

func TestNotifier_DeliversInSubscriptionOrder(t *testing.T) {
	var n Notifier
	var order []int
	n.Subscribe(func() { order = append(order, 1) })
	n.Subscribe(func() { order = append(order, 2) })
	n.Subscribe(func() { order = append(order, 3) })

	n.Notify()

	assert.Equal(t, []int{1, 2, 3}, order)
}

func TestNotifier_Unsubscribe(t *testing.T) {
	var n Notifier
	calls := 0
	unsubscribe := n.Subscribe(func() { calls++ })

	n.Notify()
	unsubscribe()
	unsubscribe()
	n.Notify()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 0, n.Len())
}

func TestNotifier_UnsubscribeFromCallback(t *testing.T) {
	var n Notifier
	var calls int
	var unsubscribe func()
	unsubscribe = n.Subscribe(func() {
		calls++
		unsubscribe()
	})
	other := 0
	n.Subscribe(func() { other++ })

	n.Notify()
	n.Notify()

	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, other)
}

func TestNotifier_NoSubscribers(t *testing.T) {
	var n Notifier
	assert.NotPanics(t, n.Notify)
}

type recordingPublisher struct {
	profiles []string
	err      error
}

func (r *recordingPublisher) Publish(_ context.Context, profileID string) error {
	r.profiles = append(r.profiles, profileID)
	return r.err
}

func TestHub_ChangedDeliversLocallyAndPublishes(t *testing.T) {
	hub := NewHub(logger.Discard())
	pub := &recordingPublisher{}
	hub.Attach(pub)

	calls := 0
	hub.Subscribe("p1", func() { calls++ })

	hub.Changed(context.Background(), "p1")

	assert.Equal(t, 1, calls)
	assert.Equal(t, []string{"p1"}, pub.profiles)
}

func TestHub_PublishFailureIsNotFatal(t *testing.T) {
	hub := NewHub(logger.Discard())
	hub.Attach(&recordingPublisher{err: errors.New("redis down")})

	calls := 0
	hub.Subscribe("p1", func() { calls++ })

	assert.NotPanics(t, func() { hub.Changed(context.Background(), "p1") })
	assert.Equal(t, 1, calls)
}

func TestHub_ReleasesEmptyNotifiers(t *testing.T) {
	hub := NewHub(logger.Discard())

	unsubA := hub.Subscribe("p1", func() {})
	unsubB := hub.Subscribe("p1", func() {})
	unsubA()
	assert.Len(t, hub.notifiers, 1)

	unsubB()
	assert.Empty(t, hub.notifiers)

	// a fresh subscription after release still receives hints
	calls := 0
	hub.Subscribe("p1", func() { calls++ })
	hub.Changed(context.Background(), "p1")
	assert.Equal(t, 1, calls)
}
