package domain

import "fmt"

type PaymentType string

const (
	PaymentOnline         PaymentType = "ONLINE"
	PaymentCashOnDelivery PaymentType = "CASH_ON_DELIVERY"
	PaymentBankTransfer   PaymentType = "BANK_TRANSFER"
)

func ParsePaymentType(s string) (PaymentType, error) {
	switch PaymentType(s) {
	case PaymentOnline, PaymentCashOnDelivery, PaymentBankTransfer:
		return PaymentType(s), nil
	case "":
		return PaymentOnline, nil
	}
	return "", &ValidationError{Field: "paymentType", Message: fmt.Sprintf("unknown payment type %q", s)}
}

type Order struct {
	ID          string      `json:"id"`
	OrderNumber string      `json:"orderNumber"`
	TotalAmount int64       `json:"totalAmount"`
	Status      string      `json:"status,omitempty"`
	PaymentType PaymentType `json:"paymentType,omitempty"`
	CreatedAt   string      `json:"createdAt,omitempty"`
	Items       []OrderItem `json:"orderItems,omitempty"`
}

type OrderItem struct {
	ID        string  `json:"id"`
	ProductID string  `json:"productId"`
	Quantity  int     `json:"quantity"`
	Price     int64   `json:"price"`
	Discount  int64   `json:"discount"`
	Product   Product `json:"product"`
}

type PaymentInitiation struct {
	Success    bool   `json:"success"`
	PaymentURL string `json:"paymentUrl"`
	Authority  string `json:"authority"`
	Message    string `json:"message"`
}

type PaymentVerification struct {
	Success bool   `json:"success"`
	RefID   string `json:"refId,omitempty"`
	OrderID string `json:"orderId,omitempty"`
	Message string `json:"message"`
}
