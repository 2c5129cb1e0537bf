package checkout

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/fjod/go_cart/storefront/internal/auth"
	"github.com/fjod/go_cart/storefront/internal/backend"
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const statusOK = "OK"

var (
	ErrPaymentFailed = errors.New("payment failed")
	ErrNoBasket      = errors.New("no basket to delete")
)

// IllegalTransitionError is returned when an operation is not valid in the
// current checkout state.
type IllegalTransitionError struct {
	From      string
	Operation string
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("cannot %s while checkout is %s", e.Operation, e.From)
}

// Backend is the part of the storefront backend the checkout talks to.
type Backend interface {
	Basket(ctx context.Context, token string) (*domain.ServerBasket, error)
	User(ctx context.Context, token, userID string) (*domain.UserProfile, error)
	CreateOrder(ctx context.Context, token, addressID string, paymentType domain.PaymentType) (*domain.Order, error)
	InitiatePayment(ctx context.Context, token, orderID, callbackURL string) (*domain.PaymentInitiation, error)
	VerifyPayment(ctx context.Context, token, authority string) (*domain.PaymentVerification, error)
	Order(ctx context.Context, token, orderID string) (*domain.Order, error)
	DeleteBasket(ctx context.Context, token, basketID string) error
}

// Basket is the profile's local basket, emptied once a paid order succeeds.
type Basket interface {
	Clear(ctx context.Context) error
}

// Orchestrator drives one profile's checkout. Operations are serialised;
// View may be called at any time and sees intermediate states.
type Orchestrator struct {
	profileID   string
	backend     Backend
	ledger      Ledger
	basket      Basket
	callbackURL string
	outbox      Outbox
	log         *slog.Logger
	now         func() time.Time

	opMu sync.Mutex

	mu      sync.RWMutex
	state   State
	message string
}

type Option func(*Orchestrator)

// WithOutbox records terminal outcomes in outbox.
func WithOutbox(outbox Outbox) Option {
	return func(o *Orchestrator) { o.outbox = outbox }
}

func NewOrchestrator(profileID string, b Backend, ledger Ledger, basket Basket, callbackURL string, log *slog.Logger, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		profileID:   profileID,
		backend:     b,
		ledger:      ledger,
		basket:      basket,
		callbackURL: callbackURL,
		log:         log.With("profile_id", profileID),
		now:         time.Now,
		state:       Init{},
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

func (o *Orchestrator) State() State {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return o.state
}

func (o *Orchestrator) View() View {
	o.mu.RLock()
	defer o.mu.RUnlock()
	return viewOf(o.state, o.message)
}

func (o *Orchestrator) set(s State, message string) {
	o.mu.Lock()
	o.state = s
	o.message = message
	o.mu.Unlock()
}

// Start loads the server basket and the user's addresses. It may be called
// again from any state except while another operation runs.
func (o *Orchestrator) Start(ctx context.Context, token string) (State, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	prev := o.State()
	userID, err := auth.UserID(token)
	if err != nil {
		return o.unauthenticated(), nil
	}

	o.set(FetchingBasketAndUser{}, "")

	basket, err := o.backend.Basket(ctx, token)
	if err != nil {
		return o.fail(prev, "load basket", err)
	}
	user, err := o.backend.User(ctx, token, userID)
	if err != nil {
		return o.fail(prev, "load user", err)
	}

	if len(user.Addresses) == 0 {
		s := ProfileIncomplete{RedirectURL: completeInfoPath}
		o.set(s, "")
		return s, nil
	}

	s := AwaitingAddressSelection{
		BasketID:          basket.ID,
		Basket:            *basket,
		Totals:            basket.Totals(),
		User:              *user,
		SelectedAddressID: user.Addresses[0].ID,
	}
	o.set(s, "")
	return s, nil
}

func (o *Orchestrator) SelectAddress(addressID string) (State, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	cur, ok := o.State().(AwaitingAddressSelection)
	if !ok {
		return o.State(), o.illegal("select address")
	}
	if !cur.User.HasAddress(addressID) {
		return cur, &domain.ValidationError{Field: "addressId", Message: "unknown address"}
	}

	cur.SelectedAddressID = addressID
	o.set(cur, "")
	return cur, nil
}

// Submit creates the order and moves on according to the payment type.
func (o *Orchestrator) Submit(ctx context.Context, token, addressID string, paymentType domain.PaymentType) (State, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	cur, ok := o.State().(AwaitingAddressSelection)
	if !ok {
		return o.State(), o.illegal("submit order")
	}
	addressID = strings.TrimSpace(addressID)
	if addressID == "" {
		return cur, &domain.ValidationError{Field: "addressId", Message: "choose a delivery address"}
	}
	if !cur.User.HasAddress(addressID) {
		return cur, &domain.ValidationError{Field: "addressId", Message: "unknown address"}
	}
	if token == "" {
		return o.unauthenticated(), nil
	}

	cur.SelectedAddressID = addressID
	o.set(Submitting{AddressID: addressID, PaymentType: paymentType}, "")

	var order *domain.Order
	if p := cur.Pending; p != nil && p.AddressID == addressID && p.PaymentType == paymentType {
		pending := p.Order
		order = &pending
		o.log.Info("reusing created order", "order_id", order.ID)
	} else {
		created, err := o.backend.CreateOrder(ctx, token, addressID, paymentType)
		if err != nil {
			return o.fail(cur, "create order", err)
		}
		order = created
		o.log.Info("order created", "order_id", order.ID, "payment_type", paymentType)
	}

	switch paymentType {
	case domain.PaymentOnline:
		payment, err := o.backend.InitiatePayment(ctx, token, order.ID, o.callbackURL)
		if err != nil {
			cur.Pending = &PendingOrder{Order: *order, AddressID: addressID, PaymentType: paymentType}
			return o.fail(cur, "initiate payment", err)
		}
		s := AwaitingOnlinePayment{Order: *order, PaymentURL: payment.PaymentURL, Authority: payment.Authority}
		o.set(s, "")
		return s, nil

	case domain.PaymentBankTransfer:
		s := AwaitingManualConfirmation{Order: *order}
		o.set(s, "")
		return s, nil

	default:
		o.clearBasket(ctx)
		o.emit(ctx, EventCheckoutSucceeded, orderPayload(order, paymentType))
		s := Success{Order: order, PaymentType: paymentType}
		o.set(s, "")
		return s, nil
	}
}

// ConfirmTransfer closes a bank-transfer checkout once the user has read the
// transfer instructions. The basket is left alone until the transfer clears.
func (o *Orchestrator) ConfirmTransfer(ctx context.Context) (State, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	cur, ok := o.State().(AwaitingManualConfirmation)
	if !ok {
		return o.State(), o.illegal("confirm transfer")
	}

	order := cur.Order
	o.emit(ctx, EventCheckoutSucceeded, orderPayload(&order, domain.PaymentBankTransfer))
	s := Success{Order: &order, PaymentType: domain.PaymentBankTransfer}
	o.set(s, "")
	return s, nil
}

// HandleCallback processes the gateway's return. An authority that was already
// verified is answered from the ledger without calling the backend.
func (o *Orchestrator) HandleCallback(ctx context.Context, token, authority, status string) (State, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	authority = strings.TrimSpace(authority)
	if authority == "" {
		return o.State(), &domain.ValidationError{Field: "Authority", Message: "missing payment authority"}
	}

	recorded, err := o.ledger.Lookup(ctx, authority)
	switch {
	case err == nil:
		o.log.Info("payment callback already verified", "authority", authority)
		return o.replay(ctx, token, recorded)
	case !errors.Is(err, ErrNotRecorded):
		return o.State(), fmt.Errorf("look up authority: %w", err)
	}

	if status != statusOK {
		s := Failed{Authority: authority, Message: "payment was cancelled"}
		o.set(s, "")
		return s, ErrPaymentFailed
	}
	if token == "" {
		return o.unauthenticated(), nil
	}

	prev := o.State()
	o.set(PaymentCallbackPending{Authority: authority}, "")

	result, err := o.backend.VerifyPayment(ctx, token, authority)
	if err != nil {
		return o.fail(prev, "verify payment", err)
	}

	v := Verification{
		Authority:  authority,
		ProfileID:  o.profileID,
		Success:    result.Success,
		RefID:      result.RefID,
		OrderID:    result.OrderID,
		Message:    result.Message,
		VerifiedAt: o.now(),
	}
	wrote, err := o.ledger.Record(ctx, v)
	if err != nil {
		return o.fail(prev, "record verification", err)
	}
	if !wrote {
		// another request verified this authority first
		recorded, err := o.ledger.Lookup(ctx, authority)
		if err != nil {
			return o.fail(prev, "look up authority", err)
		}
		return o.replay(ctx, token, recorded)
	}

	if !result.Success {
		o.log.Warn("payment verification failed", "authority", authority, "message", result.Message)
		o.emit(ctx, EventPaymentFailed, eventPayload{
			OrderID:     result.OrderID,
			PaymentType: domain.PaymentOnline,
			Authority:   authority,
			Message:     result.Message,
		})
		s := Failed{Authority: authority, Message: result.Message}
		o.set(s, "")
		return s, ErrPaymentFailed
	}

	o.log.Info("payment verified", "authority", authority, "ref_id", result.RefID, "order_id", result.OrderID)
	o.clearBasket(ctx)

	order := o.orderDetails(ctx, token, result.OrderID)
	payload := orderPayload(order, domain.PaymentOnline)
	payload.OrderID = result.OrderID
	payload.RefID = result.RefID
	payload.Authority = authority
	o.emit(ctx, EventCheckoutSucceeded, payload)

	s := Success{Order: order, PaymentType: domain.PaymentOnline, RefID: result.RefID}
	o.set(s, "")
	return s, nil
}

// DeleteBasket removes the server-side basket. confirmed must be true; the
// page asks the user first.
func (o *Orchestrator) DeleteBasket(ctx context.Context, token string, confirmed bool) (State, error) {
	o.opMu.Lock()
	defer o.opMu.Unlock()

	cur, ok := o.State().(AwaitingAddressSelection)
	if !ok {
		return o.State(), o.illegal("delete basket")
	}
	if !confirmed {
		return cur, &domain.ValidationError{Field: "confirm", Message: "deleting the basket must be confirmed"}
	}
	if cur.BasketID == "" {
		return cur, ErrNoBasket
	}
	if token == "" {
		return o.unauthenticated(), nil
	}

	if err := o.backend.DeleteBasket(ctx, token, cur.BasketID); err != nil {
		return o.fail(cur, "delete basket", err)
	}

	cur.BasketID = ""
	cur.Basket = domain.ServerBasket{}
	cur.Totals = domain.BasketTotals{}
	cur.Pending = nil
	o.set(cur, "")
	return cur, nil
}

// replay answers a callback from the ledger. A verification recorded for
// another profile is not disclosed.
func (o *Orchestrator) replay(ctx context.Context, token string, v *Verification) (State, error) {
	if v.ProfileID != o.profileID {
		o.log.Warn("payment authority belongs to another profile", "authority", v.Authority)
		s := Failed{Authority: v.Authority, Message: "this payment does not belong to your session"}
		o.set(s, "")
		return s, ErrPaymentFailed
	}
	if !v.Success {
		s := Failed{Authority: v.Authority, Message: v.Message}
		o.set(s, "")
		return s, ErrPaymentFailed
	}

	var order *domain.Order
	if token != "" {
		order = o.orderDetails(ctx, token, v.OrderID)
	}
	s := Success{Order: order, PaymentType: domain.PaymentOnline, RefID: v.RefID}
	o.set(s, "")
	return s, nil
}

// orderDetails is best effort: the payment already succeeded.
func (o *Orchestrator) orderDetails(ctx context.Context, token, orderID string) *domain.Order {
	if orderID == "" {
		return nil
	}
	order, err := o.backend.Order(ctx, token, orderID)
	if err != nil {
		o.log.Warn("failed to load order details", "order_id", orderID, "error", err)
		return nil
	}
	return order
}

func (o *Orchestrator) clearBasket(ctx context.Context) {
	if o.basket == nil {
		return
	}
	if err := o.basket.Clear(ctx); err != nil {
		o.log.Error("failed to clear basket after checkout", "error", err)
	}
}

func (o *Orchestrator) unauthenticated() State {
	s := Unauthenticated{ReturnPath: checkoutPath}
	o.set(s, "")
	return s
}

// fail restores back, or goes to Unauthenticated on a rejected token, and
// keeps a message for the page.
func (o *Orchestrator) fail(back State, op string, err error) (State, error) {
	if errors.Is(err, backend.ErrUnauthorized) {
		return o.unauthenticated(), nil
	}
	o.log.Error("checkout step failed", "op", op, "state", back.Name(), "error", err)
	o.set(back, userMessage(err))
	return back, fmt.Errorf("%s: %w", op, err)
}

func (o *Orchestrator) illegal(op string) error {
	return &IllegalTransitionError{From: o.State().Name(), Operation: op}
}

func userMessage(err error) string {
	var re *backend.RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	if errors.Is(err, backend.ErrUnavailable) {
		return "the shop is temporarily unavailable, please try again"
	}
	return "something went wrong, please try again"
}
