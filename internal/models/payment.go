package models

import "time"

const (
	PaymentStatusPaid    = "Paid"
	PaymentStatusPending = "Pending"

	DefaultPaymentMethod = "gcash"

	// IntentStatusSucceeded is the gateway status of a settled intent.
	IntentStatusSucceeded = "succeeded"
)

type Payment struct {
	ID              int       `json:"paymentId"`
	RoomID          int       `json:"roomId"`
	Amount          float64   `json:"amount"`
	Status          string    `json:"status"`
	PaymentMethod   string    `json:"paymentMethod"`
	PaymentIntentID string    `json:"paymentIntentId"`
	PaidDate        Date      `json:"paidDate"`
	CreatedAt       time.Time `json:"createdAt"`
}

// PaymentIntent is the gateway's view of a charge attempt. Amount is in the
// smallest currency unit.
type PaymentIntent struct {
	ID                   string   `json:"id"`
	ClientKey            string   `json:"clientKey"`
	CheckoutURL          string   `json:"checkoutUrl,omitempty"`
	Status               string   `json:"status"`
	Amount               int      `json:"amount"`
	Currency             string   `json:"currency"`
	PaymentMethodAllowed []string `json:"paymentMethodAllowed"`
}

type PaymentMethod struct {
	ID   string `json:"id"`
	Type string `json:"type"`
}

type IntentRequest struct {
	Amount int `json:"amount" validate:"required,gt=0"`
}

type PaymentMethodRequest struct {
	Name  string `json:"name" validate:"required"`
	Email string `json:"email" validate:"required,email"`
	Phone string `json:"phone" validate:"required"`
	Type  string `json:"type" validate:"required"`
}

type AttachRequest struct {
	PaymentMethod string `json:"paymentMethod" validate:"required"`
	ClientKey     string `json:"clientKey" validate:"required"`
	ReturnURL     string `json:"returnUrl"`
}

type SavePaymentRequest struct {
	PaymentIntentID string `json:"paymentIntentId" validate:"required"`
	RoomID          int    `json:"roomId" validate:"required,gt=0"`
}
