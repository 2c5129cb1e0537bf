package basket

import (
	"context"
	"log/slog"
	"sync"
)

// Notifier is a zero-payload broadcast. Subscribers treat a notification as a
// hint to re-read the basket, never as data.
type Notifier struct {
	mu   sync.Mutex
	next uint64
	subs []subscription
}

type subscription struct {
	id uint64
	fn func()
}

// Subscribe registers fn and returns the function that removes it.
// Calling the returned function more than once is harmless.
func (n *Notifier) Subscribe(fn func()) func() {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.next++
	id := n.next
	n.subs = append(n.subs, subscription{id: id, fn: fn})

	return func() {
		n.mu.Lock()
		defer n.mu.Unlock()
		for i, s := range n.subs {
			if s.id == id {
				n.subs = append(n.subs[:i:i], n.subs[i+1:]...)
				return
			}
		}
	}
}

// Notify calls every current subscriber synchronously, in subscription order.
// Subscribers may re-enter the store or unsubscribe from inside the callback.
func (n *Notifier) Notify() {
	n.mu.Lock()
	subs := make([]subscription, len(n.subs))
	copy(subs, n.subs)
	n.mu.Unlock()

	for _, s := range subs {
		s.fn()
	}
}

func (n *Notifier) Len() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.subs)
}

// Publisher forwards a change hint beyond this process.
type Publisher interface {
	Publish(ctx context.Context, profileID string) error
}

// Hub owns one Notifier per browser profile.
type Hub struct {
	mu        sync.Mutex
	notifiers map[string]*Notifier
	publisher Publisher
	log       *slog.Logger
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		notifiers: make(map[string]*Notifier),
		log:       log,
	}
}

// Attach makes every local change also go out through p.
func (h *Hub) Attach(p Publisher) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.publisher = p
}

// Subscribe registers fn for changes to the given profile's basket.
func (h *Hub) Subscribe(profileID string, fn func()) func() {
	h.mu.Lock()
	n, ok := h.notifiers[profileID]
	if !ok {
		n = &Notifier{}
		h.notifiers[profileID] = n
	}
	unsubscribe := n.Subscribe(fn)
	h.mu.Unlock()

	return func() {
		unsubscribe()
		h.release(profileID)
	}
}

// Changed delivers the local notification before returning, then publishes
// the hint to other instances. A publish failure is logged, not returned:
// local subscribers already have the hint.
func (h *Hub) Changed(ctx context.Context, profileID string) {
	h.deliver(profileID)

	h.mu.Lock()
	p := h.publisher
	h.mu.Unlock()
	if p == nil {
		return
	}
	if err := p.Publish(ctx, profileID); err != nil {
		h.log.WarnContext(ctx, "basket change publish failed", slog.String("profile", profileID), slog.Any("error", err))
	}
}

// deliver notifies local subscribers only; used for hints from other instances.
func (h *Hub) deliver(profileID string) {
	h.mu.Lock()
	n, ok := h.notifiers[profileID]
	h.mu.Unlock()
	if ok {
		n.Notify()
	}
}

func (h *Hub) release(profileID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if n, ok := h.notifiers[profileID]; ok && n.Len() == 0 {
		delete(h.notifiers, profileID)
	}
}
