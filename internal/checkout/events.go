package checkout

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	EventCheckoutSucceeded = "checkout.succeeded"
	EventPaymentFailed     = "checkout.payment_failed"
)

// Event is one outbox row. Payload is JSON.
type Event struct {
	ID          int64
	AggregateID string
	Type        string
	Payload     []byte
	CreatedAt   time.Time
}

// Outbox records checkout outcomes for publishing.
type Outbox interface {
	Append(ctx context.Context, e Event) error
}

type eventPayload struct {
	ProfileID   string             `json:"profileId"`
	OrderID     string             `json:"orderId,omitempty"`
	OrderNumber string             `json:"orderNumber,omitempty"`
	PaymentType domain.PaymentType `json:"paymentType"`
	RefID       string             `json:"refId,omitempty"`
	Authority   string             `json:"authority,omitempty"`
	TotalAmount int64              `json:"totalAmount,omitempty"`
	Message     string             `json:"message,omitempty"`
	OccurredAt  time.Time          `json:"occurredAt"`
}

// emit appends an outcome to the outbox. A failure is logged; the checkout
// outcome stands regardless.
func (o *Orchestrator) emit(ctx context.Context, eventType string, p eventPayload) {
	if o.outbox == nil {
		return
	}

	p.ProfileID = o.profileID
	p.OccurredAt = o.now().UTC()
	payload, err := json.Marshal(p)
	if err != nil {
		o.log.Error("failed to marshal checkout event", "event_type", eventType, "error", err)
		return
	}

	aggregateID := p.OrderID
	if aggregateID == "" {
		aggregateID = p.Authority
	}
	if aggregateID == "" {
		aggregateID = o.profileID
	}

	err = o.outbox.Append(ctx, Event{
		AggregateID: aggregateID,
		Type:        eventType,
		Payload:     payload,
		CreatedAt:   p.OccurredAt,
	})
	if err != nil {
		o.log.Error("failed to append checkout event", "event_type", eventType, "error", err)
	}
}

func orderPayload(order *domain.Order, paymentType domain.PaymentType) eventPayload {
	p := eventPayload{PaymentType: paymentType}
	if order != nil {
		p.OrderID = order.ID
		p.OrderNumber = order.OrderNumber
		p.TotalAmount = order.TotalAmount
	}
	return p
}

func (l *SQLiteLedger) Append(ctx context.Context, e Event) error {
	query := `
		INSERT INTO checkout_events (aggregate_id, event_type, payload, created_at)
		VALUES (?, ?, ?, ?)
	`
	if _, err := l.db.ExecContext(ctx, query, e.AggregateID, e.Type, e.Payload, e.CreatedAt.Unix()); err != nil {
		return fmt.Errorf("failed to append event: %w", err)
	}
	return nil
}

// Unpublished returns up to limit events not yet marked published, oldest first.
func (l *SQLiteLedger) Unpublished(ctx context.Context, limit int) ([]Event, error) {
	query := `
		SELECT id, aggregate_id, event_type, payload, created_at
		FROM checkout_events
		WHERE published_at IS NULL
		ORDER BY id
		LIMIT ?
	`

	rows, err := l.db.QueryContext(ctx, query, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var (
			e         Event
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.AggregateID, &e.Type, &e.Payload, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan event: %w", err)
		}
		e.CreatedAt = time.Unix(createdAt, 0).UTC()
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate events: %w", err)
	}
	return events, nil
}

func (l *SQLiteLedger) MarkPublished(ctx context.Context, id int64) error {
	res, err := l.db.ExecContext(ctx,
		`UPDATE checkout_events SET published_at = ? WHERE id = ? AND published_at IS NULL`,
		time.Now().Unix(), id,
	)
	if err != nil {
		return fmt.Errorf("failed to mark event published: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("event %d: %w", id, sql.ErrNoRows)
	}
	return nil
}

// LogValue keeps event logging compact.
func (e Event) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int64("id", e.ID),
		slog.String("type", e.Type),
		slog.String("aggregate_id", e.AggregateID),
	)
}
