package models

import "time"

const (
	NotificationBookingRequested = "booking_requested"
	NotificationBookingCancelled = "booking_cancelled"
	NotificationReminderCreated  = "reminder_created"
	NotificationReminderDecided  = "reminder_decided"
)

type Notification struct {
	Type      string            `json:"type"`
	Title     string            `json:"title"`
	Body      string            `json:"body"`
	Data      map[string]string `json:"data,omitempty"`
	CreatedAt time.Time         `json:"createdAt"`
}

type DeviceToken struct {
	Principal Principal `json:"principal"`
	Token     string    `json:"token" validate:"required"`
}
