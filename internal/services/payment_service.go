package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"rentease/internal/models"
)

type PaymentStore interface {
	Create(ctx context.Context, p models.Payment) (models.Payment, error)
	GetByIntentID(ctx context.Context, intentID string) (models.Payment, error)
	MarkPaid(ctx context.Context, intentID string, amount float64, paidDate models.Date) (bool, error)
}

// PaymentService fronts the gateway and keeps the local payment records.
type PaymentService struct {
	Gateway       PaymentGateway
	Payments      PaymentStore
	Rooms         RoomReader
	ReturnURL     string
	WebhookSecret string
	Logger        Logger
	Now           func() time.Time
}

const eventPaymentPaid = "payment.paid"

func (s *PaymentService) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

func (s *PaymentService) CreateIntent(ctx context.Context, amount int) (models.PaymentIntent, error) {
	return s.Gateway.CreateIntent(ctx, amount)
}

func (s *PaymentService) CreateMethod(ctx context.Context, req models.PaymentMethodRequest) (models.PaymentMethod, error) {
	return s.Gateway.CreateMethod(ctx, req)
}

func (s *PaymentService) AttachIntent(ctx context.Context, id string, req models.AttachRequest) (models.PaymentIntent, error) {
	if req.ReturnURL == "" {
		req.ReturnURL = s.ReturnURL
	}
	return s.Gateway.AttachIntent(ctx, id, req)
}

func (s *PaymentService) RetrieveIntent(ctx context.Context, id string) (models.PaymentIntent, error) {
	return s.Gateway.RetrieveIntent(ctx, id)
}

// SavePayment records the outcome of an intent for a room. When the gateway
// cannot be reached the payment is stored as Pending with no amount.
func (s *PaymentService) SavePayment(ctx context.Context, req models.SavePaymentRequest) (models.Payment, error) {
	if strings.TrimSpace(req.PaymentIntentID) == "" || req.RoomID <= 0 {
		return models.Payment{}, fmt.Errorf("%w: paymentIntentId and roomId are required", models.ErrValidation)
	}
	if _, err := s.Rooms.GetByID(ctx, req.RoomID); err != nil {
		return models.Payment{}, err
	}

	p := models.Payment{
		RoomID:          req.RoomID,
		Status:          models.PaymentStatusPending,
		PaymentMethod:   models.DefaultPaymentMethod,
		PaymentIntentID: req.PaymentIntentID,
	}

	intent, err := s.Gateway.RetrieveIntent(ctx, req.PaymentIntentID)
	if err != nil {
		loggerOrNop(s.Logger).Errorf("retrieve intent %s: %v; saving as pending", req.PaymentIntentID, err)
	} else {
		p.Amount = float64(intent.Amount) / 100
		if len(intent.PaymentMethodAllowed) > 0 && intent.PaymentMethodAllowed[0] != "" {
			p.PaymentMethod = intent.PaymentMethodAllowed[0]
		}
		if intent.Status == models.IntentStatusSucceeded {
			p.Status = models.PaymentStatusPaid
			p.PaidDate = models.DateOf(s.now())
		}
	}
	return s.Payments.Create(ctx, p)
}

func (s *PaymentService) GetByIntentID(ctx context.Context, intentID string) (models.Payment, error) {
	return s.Payments.GetByIntentID(ctx, intentID)
}

type webhookEvent struct {
	Data struct {
		ID         string `json:"id"`
		Attributes struct {
			Type string `json:"type"`
			Data struct {
				ID         string `json:"id"`
				Attributes struct {
					Amount          int    `json:"amount"`
					PaymentIntentID string `json:"payment_intent_id"`
				} `json:"attributes"`
			} `json:"data"`
		} `json:"attributes"`
	} `json:"data"`
}

// HandleWebhook verifies and applies a gateway event. Events other than
// payment.paid, and payments for intents we never saved, are ignored.
func (s *PaymentService) HandleWebhook(ctx context.Context, body []byte, signature string) error {
	if err := VerifyWebhookSignature(signature, body, s.WebhookSecret); err != nil {
		return err
	}
	var ev webhookEvent
	if err := json.Unmarshal(body, &ev); err != nil {
		return fmt.Errorf("%w: malformed webhook body", models.ErrValidation)
	}
	attrs := ev.Data.Attributes
	if attrs.Type != eventPaymentPaid {
		loggerOrNop(s.Logger).Infof("webhook %s: ignoring event %q", ev.Data.ID, attrs.Type)
		return nil
	}
	intentID := attrs.Data.Attributes.PaymentIntentID
	if intentID == "" {
		return fmt.Errorf("%w: payment.paid without payment_intent_id", models.ErrValidation)
	}

	amount := float64(attrs.Data.Attributes.Amount) / 100
	if amount == 0 {
		if prev, err := s.Payments.GetByIntentID(ctx, intentID); err == nil {
			amount = prev.Amount
		} else if !errors.Is(err, models.ErrNotFound) {
			return err
		}
	}
	ok, err := s.Payments.MarkPaid(ctx, intentID, amount, models.DateOf(s.now()))
	if err != nil {
		return err
	}
	if !ok {
		loggerOrNop(s.Logger).Infof("webhook %s: no payment recorded for intent %s", ev.Data.ID, intentID)
	}
	return nil
}
