package fsm

import (
	"context"
	"errors"
	"fmt"

	"golang.org/x/exp/slices"

	"rentease/internal/models"
)

var (
	// ErrInvalidTransition is returned for transitions missing from the tables.
	ErrInvalidTransition = fmt.Errorf("%w: invalid status transition", models.ErrValidation)
	// ErrStaleStatus means the row no longer held the expected status when the
	// conditional update ran.
	ErrStaleStatus = errors.New("fsm: status changed concurrently")
)

var roomTransitions = map[string]map[string]struct{}{
	models.RoomStatusAvailable: {
		models.RoomStatusUnavailable: {},
	},
	models.RoomStatusUnavailable: {
		models.RoomStatusRented:    {},
		models.RoomStatusAvailable: {},
	},
	models.RoomStatusRented: {
		models.RoomStatusAvailable: {},
	},
}

var approvalTransitions = map[string]map[string]struct{}{
	models.ApprovalPending: {
		models.ApprovalApproved: {},
		models.ApprovalRejected: {},
	},
	models.ApprovalApproved: {},
	models.ApprovalRejected: {},
}

// RoomStatuses returns the known room statuses in a stable order.
func RoomStatuses() []string {
	keys := make([]string, 0, len(roomTransitions))
	for k := range roomTransitions {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

func ValidRoomStatus(status string) bool {
	_, ok := roomTransitions[status]
	return ok
}

// CanTransition reports whether a room may move from one status to another.
func CanTransition(from, to string) bool {
	return allowed(roomTransitions, from, to)
}

// CanDecide reports whether a reminder's approval status may change.
func CanDecide(from, to string) bool {
	return allowed(approvalTransitions, from, to)
}

func allowed(table map[string]map[string]struct{}, from, to string) bool {
	next, ok := table[from]
	if !ok {
		return false
	}
	if from == to {
		return true
	}
	_, ok = next[to]
	return ok
}

// StatusSwapper performs a conditional status update and reports whether a
// row changed.
type StatusSwapper interface {
	CompareAndSwapStatus(ctx context.Context, roomID int, from, to string) (bool, error)
}

// Apply moves a room between statuses with a compare-and-swap on the status
// column. It returns ErrStaleStatus when the room was not in fromStatus.
func Apply(ctx context.Context, s StatusSwapper, roomID int, fromStatus, toStatus string) error {
	if !CanTransition(fromStatus, toStatus) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, fromStatus, toStatus)
	}
	if fromStatus == toStatus {
		return nil
	}
	ok, err := s.CompareAndSwapStatus(ctx, roomID, fromStatus, toStatus)
	if err != nil {
		return err
	}
	if !ok {
		return ErrStaleStatus
	}
	return nil
}
