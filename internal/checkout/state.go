package checkout

import (
	"github.com/fjod/go_cart/storefront/internal/domain"
)

const (
	checkoutPath     = "/checkout"
	completeInfoPath = "/complete-info?fromCheckout=1"
)

// State is one step of a checkout. The concrete types below are the only
// implementations.
type State interface {
	Name() string
	isState()
}

type Init struct{}

type FetchingBasketAndUser struct{}

type AwaitingAddressSelection struct {
	BasketID          string
	Basket            domain.ServerBasket
	Totals            domain.BasketTotals
	User              domain.UserProfile
	SelectedAddressID string
	// Pending is an order created by a submit whose payment could not be
	// started. A retry with the same address and payment type reuses it.
	Pending *PendingOrder
}

type PendingOrder struct {
	Order       domain.Order
	AddressID   string
	PaymentType domain.PaymentType
}

type Submitting struct {
	AddressID   string
	PaymentType domain.PaymentType
}

type AwaitingOnlinePayment struct {
	Order      domain.Order
	PaymentURL string
	Authority  string
}

type AwaitingManualConfirmation struct {
	Order domain.Order
}

type PaymentCallbackPending struct {
	Authority string
}

type Success struct {
	Order       *domain.Order
	PaymentType domain.PaymentType
	RefID       string
}

type Failed struct {
	Authority string
	Message   string
}

// Unauthenticated sends the browser to the login page, which returns to
// ReturnPath afterwards.
type Unauthenticated struct {
	ReturnPath string
}

// ProfileIncomplete sends the browser to the profile form to add an address.
type ProfileIncomplete struct {
	RedirectURL string
}

func (Init) Name() string                       { return "init" }
func (FetchingBasketAndUser) Name() string      { return "fetching_basket_and_user" }
func (AwaitingAddressSelection) Name() string   { return "awaiting_address_selection" }
func (Submitting) Name() string                 { return "submitting" }
func (AwaitingOnlinePayment) Name() string      { return "awaiting_online_payment" }
func (AwaitingManualConfirmation) Name() string { return "awaiting_manual_confirmation" }
func (PaymentCallbackPending) Name() string     { return "payment_callback_pending" }
func (Success) Name() string                    { return "success" }
func (Failed) Name() string                     { return "failed" }
func (Unauthenticated) Name() string            { return "unauthenticated" }
func (ProfileIncomplete) Name() string          { return "profile_incomplete" }

func (Init) isState()                       {}
func (FetchingBasketAndUser) isState()      {}
func (AwaitingAddressSelection) isState()   {}
func (Submitting) isState()                 {}
func (AwaitingOnlinePayment) isState()      {}
func (AwaitingManualConfirmation) isState() {}
func (PaymentCallbackPending) isState()     {}
func (Success) isState()                    {}
func (Failed) isState()                     {}
func (Unauthenticated) isState()            {}
func (ProfileIncomplete) isState()          {}

// View is the JSON shape of a checkout for the page layer.
type View struct {
	State             string                    `json:"state"`
	Error             string                    `json:"error,omitempty"`
	BasketID          string                    `json:"basketId,omitempty"`
	Items             []domain.ServerBasketItem `json:"items,omitempty"`
	Totals            *domain.BasketTotals      `json:"totals,omitempty"`
	Addresses         []domain.Address          `json:"addresses,omitempty"`
	SelectedAddressID string                    `json:"selectedAddressId,omitempty"`
	Order             *domain.Order             `json:"order,omitempty"`
	PaymentType       domain.PaymentType        `json:"paymentType,omitempty"`
	PaymentURL        string                    `json:"paymentUrl,omitempty"`
	RefID             string                    `json:"refId,omitempty"`
	RedirectURL       string                    `json:"redirectUrl,omitempty"`
}

func viewOf(s State, message string) View {
	v := View{State: s.Name(), Error: message}
	switch st := s.(type) {
	case AwaitingAddressSelection:
		v.BasketID = st.BasketID
		v.Items = st.Basket.Items
		totals := st.Totals
		v.Totals = &totals
		v.Addresses = st.User.Addresses
		v.SelectedAddressID = st.SelectedAddressID
		if st.Pending != nil {
			order := st.Pending.Order
			v.Order = &order
		}
	case Submitting:
		v.SelectedAddressID = st.AddressID
		v.PaymentType = st.PaymentType
	case AwaitingOnlinePayment:
		order := st.Order
		v.Order = &order
		v.PaymentType = domain.PaymentOnline
		v.PaymentURL = st.PaymentURL
	case AwaitingManualConfirmation:
		order := st.Order
		v.Order = &order
		v.PaymentType = domain.PaymentBankTransfer
	case Success:
		v.Order = st.Order
		v.PaymentType = st.PaymentType
		v.RefID = st.RefID
	case Failed:
		if v.Error == "" {
			v.Error = st.Message
		}
	case Unauthenticated:
		v.RedirectURL = st.ReturnPath
	case ProfileIncomplete:
		v.RedirectURL = st.RedirectURL
	}
	return v
}
