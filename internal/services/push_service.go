package services

import (
	"context"
	"errors"
	"fmt"

	"firebase.google.com/go/messaging"

	"rentease/internal/models"
)

// MessageSender is the part of the FCM client used for delivery.
type MessageSender interface {
	Send(ctx context.Context, message *messaging.Message) (string, error)
}

type DeviceTokenStore interface {
	Save(ctx context.Context, t models.DeviceToken) error
	ListByPrincipal(ctx context.Context, p models.Principal) ([]string, error)
	Delete(ctx context.Context, token string) error
}

// PushService sends notifications to every device a principal registered.
type PushService struct {
	Client MessageSender
	Tokens DeviceTokenStore
	Logger Logger
}

func (s *PushService) RegisterDevice(ctx context.Context, t models.DeviceToken) error {
	if t.Token == "" {
		return fmt.Errorf("%w: token is required", models.ErrValidation)
	}
	if !t.Principal.Kind.Valid() || t.Principal.ID <= 0 {
		return models.ErrUnauthorized
	}
	return s.Tokens.Save(ctx, t)
}

func buildMessage(token string, n models.Notification) *messaging.Message {
	data := map[string]string{"type": n.Type}
	for k, v := range n.Data {
		data[k] = v
	}
	return &messaging.Message{
		Token: token,
		Notification: &messaging.Notification{
			Title: n.Title,
			Body:  n.Body,
		},
		Data: data,
		Android: &messaging.AndroidConfig{
			Priority: "high",
			Notification: &messaging.AndroidNotification{
				ChannelID: "high_priority_channel",
			},
		},
		APNS: &messaging.APNSConfig{
			Headers: map[string]string{"apns-priority": "10"},
			Payload: &messaging.APNSPayload{
				Aps: &messaging.Aps{
					Alert: &messaging.ApsAlert{Title: n.Title, Body: n.Body},
					Sound: "default",
				},
			},
		},
	}
}

// Notify pushes n to each registered device of to. Tokens FCM reports as
// unregistered are dropped.
func (s *PushService) Notify(ctx context.Context, to models.Principal, n models.Notification) error {
	if s.Client == nil {
		return nil
	}
	tokens, err := s.Tokens.ListByPrincipal(ctx, to)
	if err != nil {
		return err
	}
	var errs []error
	for _, token := range tokens {
		resp, err := s.Client.Send(ctx, buildMessage(token, n))
		if err != nil {
			if messaging.IsRegistrationTokenNotRegistered(err) {
				if derr := s.Tokens.Delete(ctx, token); derr != nil {
					loggerOrNop(s.Logger).Errorf("drop stale token: %v", derr)
				}
				continue
			}
			errs = append(errs, err)
			continue
		}
		loggerOrNop(s.Logger).Infof("push %s to %s %d: %s", n.Type, to.Kind, to.ID, resp)
	}
	return errors.Join(errs...)
}

// Fanout delivers to every notifier and reports all failures together.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, to models.Principal, n models.Notification) error {
	var errs []error
	for _, notifier := range f {
		if notifier == nil {
			continue
		}
		if err := notifier.Notify(ctx, to, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
