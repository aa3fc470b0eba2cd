package models

import "time"

type RentedUnit struct {
	ID        int       `json:"id"`
	RenterID  int       `json:"renterId"`
	RoomID    int       `json:"roomId"`
	StartDate Date      `json:"startDate"`
	EndDate   Date      `json:"endDate"`
	CreatedAt time.Time `json:"createdAt"`
	Room      *Room     `json:"room,omitempty"`
}

type RentalRequest struct {
	RoomID    int  `json:"roomId" validate:"required,gt=0"`
	RenterID  int  `json:"-"`
	StartDate Date `json:"startDate"`
	EndDate   Date `json:"endDate"`
}

// Checkout is what a client needs to continue a payment with the gateway.
type Checkout struct {
	PaymentIntentID string `json:"paymentIntentId"`
	ClientKey       string `json:"clientKey"`
	CheckoutURL     string `json:"checkoutUrl,omitempty"`
}

type RentalCreated struct {
	RentedUnit RentedUnit `json:"rentedUnit"`
	Checkout
}

type InitiatePaymentRequest struct {
	RoomID int `json:"roomId" validate:"required,gt=0"`
}
