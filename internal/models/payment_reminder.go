package models

import "time"

const (
	ApprovalPending  = "pending"
	ApprovalApproved = "approved"
	ApprovalRejected = "rejected"
)

// PaymentReminder tracks a booking awaiting the owner's decision and the
// payment due for it. OwnerID is a snapshot taken at creation; ownership
// checks always use Room.OwnerID.
type PaymentReminder struct {
	ID             int       `json:"id"`
	RoomID         int       `json:"roomId" validate:"required,gt=0"`
	RenterID       int       `json:"renterId" validate:"required,gt=0"`
	OwnerID        int       `json:"ownerId"`
	DueDate        Date      `json:"dueDate"`
	RentalFee      float64   `json:"rentalFee" validate:"gte=0"`
	Note           string    `json:"note" validate:"max=1000"`
	ApprovalStatus string    `json:"approvalStatus" validate:"omitempty,oneof=pending approved rejected"`
	CreatedAt      time.Time `json:"createdAt"`
	Room           *Room     `json:"room,omitempty"`
}

type ApprovalRequest struct {
	Status string `json:"approvalStatus" validate:"required,oneof=approved rejected"`
}
