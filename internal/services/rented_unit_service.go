package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"rentease/internal/fsm"
	"rentease/internal/models"
)

type RentedUnitStore interface {
	Create(ctx context.Context, u models.RentedUnit) (models.RentedUnit, error)
	GetByID(ctx context.Context, id int) (models.RentedUnit, error)
	GetByIDForUpdate(ctx context.Context, id int) (models.RentedUnit, error)
	List(ctx context.Context) ([]models.RentedUnit, error)
	ListByRenter(ctx context.Context, renterID int) ([]models.RentedUnit, error)
	ListByRoom(ctx context.Context, roomID int) ([]models.RentedUnit, error)
	Delete(ctx context.Context, id int) error
}

// PendingReminderStore is the part of the reminder store used when booking
// and cancelling.
type PendingReminderStore interface {
	HasPending(ctx context.Context, roomID, renterID int) (bool, error)
	Create(ctx context.Context, r models.PaymentReminder) (models.PaymentReminder, error)
	RejectPending(ctx context.Context, roomID, renterID int) (int, error)
}

// RentedUnitService books rooms. A booking flips the room to unavailable,
// records the rental and a pending reminder, and opens a payment intent, all
// inside one transaction.
type RentedUnitService struct {
	Tx        TxRunner
	Rooms     RoomStatusStore
	Units     RentedUnitStore
	Reminders PendingReminderStore
	Gateway   PaymentGateway
	Notifier  Notifier
	Logger    Logger
}

// BookingNote is the system note attached to the reminder of a new booking.
func BookingNote(start models.Date) string {
	return "Booking pending approval for " + start.String()
}

func validateRental(req models.RentalRequest) error {
	if req.RoomID <= 0 {
		return fmt.Errorf("%w: roomId is required", models.ErrValidation)
	}
	if req.RenterID <= 0 {
		return fmt.Errorf("%w: renter is required", models.ErrValidation)
	}
	if req.StartDate.IsZero() {
		return fmt.Errorf("%w: startDate is required", models.ErrValidation)
	}
	if !req.EndDate.IsZero() && req.EndDate.Before(req.StartDate) {
		return fmt.Errorf("%w: endDate is before startDate", models.ErrValidation)
	}
	return nil
}

// feeAmount is the whole-unit amount charged for a room's fee.
func feeAmount(fee float64) int {
	return int(math.Round(fee))
}

func (s *RentedUnitService) Create(ctx context.Context, req models.RentalRequest) (models.RentalCreated, error) {
	if err := validateRental(req); err != nil {
		return models.RentalCreated{}, err
	}

	var out models.RentalCreated
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		room, err := s.Rooms.GetByID(ctx, req.RoomID)
		if err != nil {
			return err
		}
		if room.Status == models.RoomStatusRented {
			return fmt.Errorf("%w: room %d is already rented", models.ErrConflict, room.ID)
		}
		err = fsm.Apply(ctx, s.Rooms, room.ID, models.RoomStatusAvailable, models.RoomStatusUnavailable)
		if errors.Is(err, fsm.ErrStaleStatus) {
			return fmt.Errorf("%w: room %d is not available", models.ErrConflict, room.ID)
		}
		if err != nil {
			return err
		}
		room.Status = models.RoomStatusUnavailable

		unit, err := s.Units.Create(ctx, models.RentedUnit{
			RenterID:  req.RenterID,
			RoomID:    room.ID,
			StartDate: req.StartDate,
			EndDate:   req.EndDate,
		})
		if err != nil {
			return err
		}

		pending, err := s.Reminders.HasPending(ctx, room.ID, req.RenterID)
		if err != nil {
			return err
		}
		if !pending {
			_, err = s.Reminders.Create(ctx, models.PaymentReminder{
				RoomID:         room.ID,
				RenterID:       req.RenterID,
				OwnerID:        room.OwnerID,
				DueDate:        req.StartDate,
				RentalFee:      room.RentalFee,
				Note:           BookingNote(req.StartDate),
				ApprovalStatus: models.ApprovalPending,
			})
			if err != nil {
				return err
			}
		}

		intent, err := s.Gateway.CreateIntent(ctx, feeAmount(room.RentalFee))
		if err != nil {
			return err
		}

		unit.Room = &room
		out = models.RentalCreated{
			RentedUnit: unit,
			Checkout: models.Checkout{
				PaymentIntentID: intent.ID,
				ClientKey:       intent.ClientKey,
				CheckoutURL:     intent.CheckoutURL,
			},
		}
		return nil
	})
	if err != nil {
		return models.RentalCreated{}, err
	}

	room := out.RentedUnit.Room
	notify(ctx, s.Notifier, s.Logger, models.Principal{Kind: models.PrincipalOwner, ID: room.OwnerID}, models.Notification{
		Type:  models.NotificationBookingRequested,
		Title: "New booking request",
		Body:  fmt.Sprintf("%s was requested from %s", room.UnitName, out.RentedUnit.StartDate),
		Data: map[string]string{
			"roomId":       strconv.Itoa(room.ID),
			"rentedUnitId": strconv.Itoa(out.RentedUnit.ID),
		},
		CreatedAt: time.Now().UTC(),
	})
	return out, nil
}

// Delete removes a rental and makes its room available again. The pair's
// pending reminder is rejected so it cannot confirm a later booking. Only the
// renter who booked and the room's owner may delete.
func (s *RentedUnitService) Delete(ctx context.Context, id int, actor models.Principal) error {
	var unit models.RentedUnit
	var room models.Room
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		var err error
		unit, err = s.Units.GetByIDForUpdate(ctx, id)
		if err != nil {
			return err
		}
		room, err = s.Rooms.GetByID(ctx, unit.RoomID)
		if err != nil {
			return err
		}
		if !actor.IsRenter(unit.RenterID) && !actor.IsOwner(room.OwnerID) {
			return fmt.Errorf("%w: rented unit %d belongs to another account", models.ErrForbidden, id)
		}
		if err := s.Units.Delete(ctx, id); err != nil {
			return err
		}
		n, err := s.Reminders.RejectPending(ctx, unit.RoomID, unit.RenterID)
		if err != nil {
			return err
		}
		if n > 0 {
			loggerOrNop(s.Logger).Infof("rented unit %d removed, rejected %d pending reminder(s)", id, n)
		}
		return s.Rooms.SetStatus(ctx, unit.RoomID, models.RoomStatusAvailable)
	})
	if err != nil {
		return err
	}

	notify(ctx, s.Notifier, s.Logger, models.Principal{Kind: models.PrincipalOwner, ID: room.OwnerID}, models.Notification{
		Type:      models.NotificationBookingCancelled,
		Title:     "Booking cancelled",
		Body:      fmt.Sprintf("The booking of %s starting %s was removed", room.UnitName, unit.StartDate),
		Data:      map[string]string{"roomId": strconv.Itoa(room.ID)},
		CreatedAt: time.Now().UTC(),
	})
	return nil
}

func (s *RentedUnitService) GetByID(ctx context.Context, id int) (models.RentedUnit, error) {
	return s.Units.GetByID(ctx, id)
}

func (s *RentedUnitService) List(ctx context.Context) ([]models.RentedUnit, error) {
	return s.Units.List(ctx)
}

func (s *RentedUnitService) ListByRenter(ctx context.Context, renterID int) ([]models.RentedUnit, error) {
	return s.Units.ListByRenter(ctx, renterID)
}

func (s *RentedUnitService) ListByRoom(ctx context.Context, roomID int) ([]models.RentedUnit, error) {
	return s.Units.ListByRoom(ctx, roomID)
}

// InitiatePayment opens a payment intent for a room's fee without booking it.
func (s *RentedUnitService) InitiatePayment(ctx context.Context, roomID int) (models.Checkout, error) {
	room, err := s.Rooms.GetByID(ctx, roomID)
	if err != nil {
		return models.Checkout{}, err
	}
	intent, err := s.Gateway.CreateIntent(ctx, feeAmount(room.RentalFee))
	if err != nil {
		return models.Checkout{}, err
	}
	return models.Checkout{
		PaymentIntentID: intent.ID,
		ClientKey:       intent.ClientKey,
		CheckoutURL:     intent.CheckoutURL,
	}, nil
}
