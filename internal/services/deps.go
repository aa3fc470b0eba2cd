package services

import (
	"context"
	"log"

	"rentease/internal/models"
)

// Logger provides the minimal logging the services need.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
}

// StdLogger adapts a pair of standard loggers to Logger.
type StdLogger struct {
	Info  *log.Logger
	Error *log.Logger
}

func (l StdLogger) Infof(format string, args ...interface{}) {
	if l.Info != nil {
		l.Info.Printf(format, args...)
	}
}

func (l StdLogger) Errorf(format string, args ...interface{}) {
	if l.Error != nil {
		l.Error.Printf(format, args...)
	}
}

type nopLogger struct{}

func (nopLogger) Infof(string, ...interface{})  {}
func (nopLogger) Errorf(string, ...interface{}) {}

func loggerOrNop(l Logger) Logger {
	if l == nil {
		return nopLogger{}
	}
	return l
}

// TxRunner runs fn inside one database transaction; repository calls made
// with the context handed to fn take part in it.
type TxRunner interface {
	InTx(ctx context.Context, fn func(ctx context.Context) error) error
}

// Notifier delivers a notification to a principal. Delivery is best effort.
type Notifier interface {
	Notify(ctx context.Context, to models.Principal, n models.Notification) error
}

// RoomReader is the read side of the room store.
type RoomReader interface {
	GetByID(ctx context.Context, id int) (models.Room, error)
}

// RoomStatusStore reads rooms and moves their status.
type RoomStatusStore interface {
	RoomReader
	CompareAndSwapStatus(ctx context.Context, id int, from, to string) (bool, error)
	SetStatus(ctx context.Context, id int, status string) error
}

// PaymentGateway is the external payment-intent API.
type PaymentGateway interface {
	CreateIntent(ctx context.Context, amount int) (models.PaymentIntent, error)
	RetrieveIntent(ctx context.Context, id string) (models.PaymentIntent, error)
	AttachIntent(ctx context.Context, id string, req models.AttachRequest) (models.PaymentIntent, error)
	CreateMethod(ctx context.Context, req models.PaymentMethodRequest) (models.PaymentMethod, error)
}

func notify(ctx context.Context, n Notifier, log Logger, to models.Principal, msg models.Notification) {
	if n == nil || to.ID == 0 {
		return
	}
	if err := n.Notify(ctx, to, msg); err != nil {
		loggerOrNop(log).Errorf("notify %s %d (%s): %v", to.Kind, to.ID, msg.Type, err)
	}
}
