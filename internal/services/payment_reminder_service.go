package services

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/exp/slices"

	"rentease/internal/fsm"
	"rentease/internal/models"
)

// reservedPhrases prefix notes that only the system may write.
var reservedPhrases = []string{"Payment is due", "Booking pending approval"}

type ReminderStore interface {
	Create(ctx context.Context, r models.PaymentReminder) (models.PaymentReminder, error)
	GetByID(ctx context.Context, id int) (models.PaymentReminder, error)
	List(ctx context.Context) ([]models.PaymentReminder, error)
	ListByRenter(ctx context.Context, renterID int) ([]models.PaymentReminder, error)
	ListByOwner(ctx context.Context, ownerID int) ([]models.PaymentReminder, error)
	ListByRoom(ctx context.Context, roomID int) ([]models.PaymentReminder, error)
	CompareAndSwapApproval(ctx context.Context, id int, from, to string) (bool, error)
	Delete(ctx context.Context, id int) error
}

// ActiveRentalChecker reports whether a renter currently holds a rental of
// a room.
type ActiveRentalChecker interface {
	HasActive(ctx context.Context, roomID, renterID int) (bool, error)
}

type PaymentReminderService struct {
	Tx        TxRunner
	Reminders ReminderStore
	Rooms     RoomStatusStore
	Units     ActiveRentalChecker
	Notifier  Notifier
	Logger    Logger
}

// ValidateNote rejects notes that would pass for system notifications.
func ValidateNote(note string) error {
	lower := strings.ToLower(note)
	for _, phrase := range reservedPhrases {
		if strings.Contains(lower, strings.ToLower(phrase)) {
			return fmt.Errorf("%w: note may not contain %q", models.ErrValidation, phrase)
		}
	}
	return nil
}

// Create records an owner-written reminder. The owner is taken from the room.
func (s *PaymentReminderService) Create(ctx context.Context, r models.PaymentReminder, actor models.Principal) (models.PaymentReminder, error) {
	if err := ValidateNote(r.Note); err != nil {
		return models.PaymentReminder{}, err
	}
	if r.RoomID <= 0 || r.RenterID <= 0 {
		return models.PaymentReminder{}, fmt.Errorf("%w: roomId and renterId are required", models.ErrValidation)
	}
	if r.DueDate.IsZero() {
		return models.PaymentReminder{}, fmt.Errorf("%w: dueDate is required", models.ErrValidation)
	}
	if r.ApprovalStatus == "" {
		r.ApprovalStatus = models.ApprovalPending
	}
	if _, ok := approvalStatuses[r.ApprovalStatus]; !ok {
		return models.PaymentReminder{}, fmt.Errorf("%w: unknown approval status %q", models.ErrValidation, r.ApprovalStatus)
	}

	room, err := s.Rooms.GetByID(ctx, r.RoomID)
	if err != nil {
		return models.PaymentReminder{}, err
	}
	if !actor.IsOwner(room.OwnerID) {
		return models.PaymentReminder{}, fmt.Errorf("%w: room %d belongs to another owner", models.ErrForbidden, room.ID)
	}
	r.OwnerID = room.OwnerID

	created, err := s.Reminders.Create(ctx, r)
	if err != nil {
		return models.PaymentReminder{}, err
	}
	created.Room = &room

	notify(ctx, s.Notifier, s.Logger, models.Principal{Kind: models.PrincipalRenter, ID: r.RenterID}, models.Notification{
		Type:      models.NotificationReminderCreated,
		Title:     "Payment reminder",
		Body:      fmt.Sprintf("%s: %s (due %s)", room.UnitName, r.Note, r.DueDate),
		Data:      map[string]string{"reminderId": strconv.Itoa(created.ID)},
		CreatedAt: time.Now().UTC(),
	})
	return created, nil
}

var approvalStatuses = map[string]struct{}{
	models.ApprovalPending:  {},
	models.ApprovalApproved: {},
	models.ApprovalRejected: {},
}

func (s *PaymentReminderService) GetByID(ctx context.Context, id int) (models.PaymentReminder, error) {
	return s.Reminders.GetByID(ctx, id)
}

func (s *PaymentReminderService) List(ctx context.Context) ([]models.PaymentReminder, error) {
	return s.Reminders.List(ctx)
}

func (s *PaymentReminderService) ListByRenter(ctx context.Context, renterID int) ([]models.PaymentReminder, error) {
	return s.Reminders.ListByRenter(ctx, renterID)
}

func (s *PaymentReminderService) ListByRoom(ctx context.Context, roomID int) ([]models.PaymentReminder, error) {
	return s.Reminders.ListByRoom(ctx, roomID)
}

// GetByOwnerID returns the reminders of rooms currently owned by ownerID.
// The stored owner snapshot is ignored.
func (s *PaymentReminderService) GetByOwnerID(ctx context.Context, ownerID int) ([]models.PaymentReminder, error) {
	reminders, err := s.Reminders.ListByOwner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return slices.DeleteFunc(reminders, func(r models.PaymentReminder) bool {
		return r.Room == nil || r.Room.OwnerID != ownerID
	}), nil
}

func (s *PaymentReminderService) Delete(ctx context.Context, id int, actor models.Principal) error {
	r, err := s.Reminders.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if r.Room == nil || !actor.IsOwner(r.Room.OwnerID) {
		return fmt.Errorf("%w: reminder %d belongs to another owner", models.ErrForbidden, id)
	}
	return s.Reminders.Delete(ctx, id)
}

// Decide records the owner's decision on a reminder. Approving a booking
// whose room is still unavailable confirms the room as rented in the same
// transaction. Repeating a decision is a no-op.
func (s *PaymentReminderService) Decide(ctx context.Context, id int, decision string, actor models.Principal) (models.PaymentReminder, error) {
	if decision != models.ApprovalApproved && decision != models.ApprovalRejected {
		return models.PaymentReminder{}, fmt.Errorf("%w: decision must be approved or rejected", models.ErrValidation)
	}

	var out models.PaymentReminder
	changed := false
	err := s.Tx.InTx(ctx, func(ctx context.Context) error {
		r, err := s.Reminders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if r.Room == nil || !actor.IsOwner(r.Room.OwnerID) {
			return fmt.Errorf("%w: reminder %d belongs to another owner", models.ErrForbidden, id)
		}
		out = r
		if r.ApprovalStatus == decision {
			return nil
		}
		if !fsm.CanDecide(r.ApprovalStatus, decision) {
			return fmt.Errorf("%w: reminder %d is already %s", models.ErrConflict, id, r.ApprovalStatus)
		}
		ok, err := s.Reminders.CompareAndSwapApproval(ctx, id, r.ApprovalStatus, decision)
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%w: reminder %d was decided concurrently", models.ErrConflict, id)
		}
		out.ApprovalStatus = decision
		changed = true

		if decision != models.ApprovalApproved || r.Room.Status != models.RoomStatusUnavailable {
			return nil
		}
		// Only the renter holding the booking can confirm the room.
		active, err := s.hasActive(ctx, r.RoomID, r.RenterID)
		if err != nil {
			return err
		}
		if !active {
			s.logger().Infof("reminder %d approved but renter %d holds no rental of room %d", id, r.RenterID, r.RoomID)
			return nil
		}
		err = fsm.Apply(ctx, s.Rooms, r.RoomID, models.RoomStatusUnavailable, models.RoomStatusRented)
		switch {
		case errors.Is(err, fsm.ErrStaleStatus):
			s.logger().Infof("reminder %d approved but room %d left its unavailable state", id, r.RoomID)
			return nil
		case err != nil:
			return err
		}
		room := *r.Room
		room.Status = models.RoomStatusRented
		out.Room = &room
		return nil
	})
	if err != nil {
		return models.PaymentReminder{}, err
	}

	if changed {
		notify(ctx, s.Notifier, s.Logger, models.Principal{Kind: models.PrincipalRenter, ID: out.RenterID}, models.Notification{
			Type:      models.NotificationReminderDecided,
			Title:     "Booking " + decision,
			Body:      fmt.Sprintf("Your booking of %s was %s", out.Room.UnitName, decision),
			Data:      map[string]string{"reminderId": strconv.Itoa(out.ID), "approvalStatus": decision},
			CreatedAt: time.Now().UTC(),
		})
	}
	return out, nil
}

func (s *PaymentReminderService) hasActive(ctx context.Context, roomID, renterID int) (bool, error) {
	if s.Units == nil {
		return false, nil
	}
	return s.Units.HasActive(ctx, roomID, renterID)
}

func (s *PaymentReminderService) logger() Logger { return loggerOrNop(s.Logger) }
