package models

import (
	"errors"
	"fmt"
)

// Error kinds shared by repositories, services and handlers. Callers wrap them
// with context and match with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
	ErrForbidden       = errors.New("forbidden")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrExternalService = errors.New("external service failure")
)

var (
	ErrInvalidCredentials = fmt.Errorf("%w: invalid username or password", ErrUnauthorized)
	ErrDuplicateUsername  = fmt.Errorf("%w: username already taken", ErrConflict)
	ErrRoomNotFound       = fmt.Errorf("%w: room", ErrNotFound)
	ErrRentedUnitNotFound = fmt.Errorf("%w: rented unit", ErrNotFound)
	ErrReminderNotFound   = fmt.Errorf("%w: payment reminder", ErrNotFound)
	ErrPaymentNotFound    = fmt.Errorf("%w: payment", ErrNotFound)
	ErrAccountNotFound    = fmt.Errorf("%w: account", ErrNotFound)
)
