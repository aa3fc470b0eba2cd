package models

import "time"

const (
	RoomStatusAvailable   = "available"
	RoomStatusUnavailable = "unavailable"
	RoomStatusRented      = "rented"
)

type Room struct {
	ID            int        `json:"roomId"`
	OwnerID       int        `json:"ownerId"`
	UnitName      string     `json:"unitName" validate:"required,max=255"`
	NumberOfRooms int        `json:"numberOfRooms" validate:"gte=0"`
	Description   string     `json:"description"`
	RentalFee     float64    `json:"rentalFee" validate:"gt=0"`
	AddressLine1  string     `json:"addressLine1" validate:"required"`
	AddressLine2  string     `json:"addressLine2"`
	City          string     `json:"city" validate:"required"`
	PostalCode    string     `json:"postalCode"`
	Status        string     `json:"status"`
	ImagePaths    []string   `json:"imagePaths"`
	CreatedAt     time.Time  `json:"createdAt"`
	UpdatedAt     *time.Time `json:"updatedAt,omitempty"`
}

// RoomStats summarises an owner's listings. Revenue is the sum of payments
// recorded as Paid.
type RoomStats struct {
	Total     int64   `json:"total"`
	Available int64   `json:"available"`
	Rented    int64   `json:"rented"`
	Revenue   float64 `json:"revenue"`
}

type RoomStatusRequest struct {
	Status string `json:"status" validate:"required,oneof=available unavailable rented"`
}

// Upload is an in-memory file received from a multipart form.
type Upload struct {
	Name        string
	ContentType string
	Data        []byte
}
