// Package basket holds the pre-checkout basket of a browser profile and the
// change notifications that keep every basket view consistent.
package basket

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

// Changes receives a hint after every successful basket mutation.
type Changes interface {
	Changed(ctx context.Context, profileID string)
}

// Pusher sends the local basket to the backend's server-side basket.
type Pusher interface {
	PushBasket(ctx context.Context, token string, lines []domain.BasketLine) error
}

// Baskets hands out per-profile Stores that share storage, notifications and
// a per-profile write lock.
type Baskets struct {
	storage Storage
	changes Changes
	log     *slog.Logger
	locks   sync.Map // profileID -> *sync.Mutex
}

func NewBaskets(storage Storage, changes Changes, log *slog.Logger) *Baskets {
	return &Baskets{
		storage: storage,
		changes: changes,
		log:     log,
	}
}

func (b *Baskets) For(profileID string) *Store {
	mu, _ := b.locks.LoadOrStore(profileID, &sync.Mutex{})
	return &Store{
		profileID: profileID,
		key:       storageKey(profileID),
		mu:        mu.(*sync.Mutex),
		storage:   b.storage,
		changes:   b.changes,
		log:       b.log,
	}
}

func storageKey(profileID string) string {
	return fmt.Sprintf("basket:%s", profileID)
}

// Store is the basket of one browser profile.
type Store struct {
	profileID string
	key       string
	mu        *sync.Mutex
	storage   Storage
	changes   Changes
	log       *slog.Logger
}

// All returns the lines in insertion order. Unreadable or malformed data
// yields an empty basket.
func (s *Store) All(ctx context.Context) []domain.BasketLine {
	return s.load(ctx)
}

func (s *Store) Add(ctx context.Context, p domain.ProductRef) error {
	if p.ID == "" {
		return &domain.ValidationError{Field: "id", Message: "product id is required"}
	}
	return s.mutate(ctx, func(lines []domain.BasketLine) []domain.BasketLine {
		for i := range lines {
			if lines[i].ID == p.ID {
				lines[i].Quantity++
				return lines
			}
		}
		return append(lines, domain.BasketLine{ID: p.ID, Name: p.Name, Price: p.Price, Quantity: 1})
	})
}

func (s *Store) Remove(ctx context.Context, id string) error {
	return s.mutate(ctx, func(lines []domain.BasketLine) []domain.BasketLine {
		out := lines[:0]
		for _, l := range lines {
			if l.ID != id {
				out = append(out, l)
			}
		}
		return out
	})
}

// SetQuantity moves a line's quantity by delta, never below 1.
func (s *Store) SetQuantity(ctx context.Context, id string, delta int) error {
	return s.mutate(ctx, func(lines []domain.BasketLine) []domain.BasketLine {
		for i := range lines {
			if lines[i].ID == id {
				lines[i].Quantity = max(1, lines[i].Quantity+delta)
			}
		}
		return lines
	})
}

func (s *Store) Clear(ctx context.Context) error {
	s.mu.Lock()
	err := s.storage.Delete(ctx, s.key)
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("clear basket: %w", err)
	}
	s.changes.Changed(ctx, s.profileID)
	return nil
}

func (s *Store) TotalValue(ctx context.Context) int64 {
	return TotalValue(s.load(ctx))
}

func (s *Store) TotalCount(ctx context.Context) int {
	return TotalCount(s.load(ctx))
}

// Sync pushes the basket to the server-side basket and clears it locally once
// the backend accepted it.
func (s *Store) Sync(ctx context.Context, token string, pusher Pusher) error {
	lines := s.load(ctx)
	if len(lines) == 0 {
		return ErrEmptyBasket
	}
	if err := pusher.PushBasket(ctx, token, lines); err != nil {
		return err
	}
	return s.Clear(ctx)
}

var ErrEmptyBasket = errors.New("basket is empty")

func TotalValue(lines []domain.BasketLine) int64 {
	var total int64
	for _, l := range lines {
		total += l.Price * int64(l.Quantity)
	}
	return total
}

func TotalCount(lines []domain.BasketLine) int {
	count := 0
	for _, l := range lines {
		count += l.Quantity
	}
	return count
}

// mutate runs a read-modify-write under the profile lock and notifies after
// the lock is released, so subscribers can re-read without deadlocking.
func (s *Store) mutate(ctx context.Context, fn func([]domain.BasketLine) []domain.BasketLine) error {
	s.mu.Lock()
	lines := fn(s.load(ctx))
	err := s.save(ctx, lines)
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.changes.Changed(ctx, s.profileID)
	return nil
}

func (s *Store) load(ctx context.Context) []domain.BasketLine {
	data, err := s.storage.Load(ctx, s.key)
	if err != nil {
		if !errors.Is(err, ErrNotFound) {
			s.log.WarnContext(ctx, "basket read failed, using empty basket", slog.String("profile", s.profileID), slog.Any("error", err))
		}
		return []domain.BasketLine{}
	}

	var lines []domain.BasketLine
	if err := json.Unmarshal(data, &lines); err != nil {
		s.log.WarnContext(ctx, "malformed basket, using empty basket", slog.String("profile", s.profileID), slog.Any("error", err))
		return []domain.BasketLine{}
	}
	return normalize(lines)
}

func (s *Store) save(ctx context.Context, lines []domain.BasketLine) error {
	data, err := json.Marshal(lines)
	if err != nil {
		return fmt.Errorf("marshal basket failed: %w", err)
	}
	if err := s.storage.Save(ctx, s.key, data); err != nil {
		return fmt.Errorf("save basket: %w", err)
	}
	return nil
}

// normalize repairs data written by older or foreign writers: lines without
// an id are dropped, duplicate ids are merged, quantities are at least 1.
func normalize(lines []domain.BasketLine) []domain.BasketLine {
	out := make([]domain.BasketLine, 0, len(lines))
	index := make(map[string]int, len(lines))
	for _, l := range lines {
		if l.ID == "" {
			continue
		}
		if l.Quantity < 1 {
			l.Quantity = 1
		}
		if i, ok := index[l.ID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ID] = len(out)
		out = append(out, l)
	}
	return out
}
