package services

import (
	"context"
	"errors"
	"sync"
	"testing"

	"firebase.google.com/go/messaging"
	"github.com/stretchr/testify/require"

	"rentease/internal/models"
)

type memTokens struct {
	mu     sync.Mutex
	tokens map[string]models.Principal
}

func (m *memTokens) Save(_ context.Context, t models.DeviceToken) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.tokens == nil {
		m.tokens = map[string]models.Principal{}
	}
	m.tokens[t.Token] = t.Principal
	return nil
}

func (m *memTokens) ListByPrincipal(_ context.Context, p models.Principal) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []string
	for tok, owner := range m.tokens {
		if owner == p {
			out = append(out, tok)
		}
	}
	return out, nil
}

func (m *memTokens) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.tokens, token)
	return nil
}

type captureSender struct {
	mu   sync.Mutex
	msgs []*messaging.Message
	err  error
}

func (c *captureSender) Send(_ context.Context, m *messaging.Message) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.msgs = append(c.msgs, m)
	if c.err != nil {
		return "", c.err
	}
	return "projects/test/messages/1", nil
}

func TestPushServiceNotify(t *testing.T) {
	tokens := &memTokens{}
	sender := &captureSender{}
	svc := &PushService{Client: sender, Tokens: tokens}
	ctx := context.Background()

	require.NoError(t, svc.RegisterDevice(ctx, models.DeviceToken{Principal: owner(7), Token: "tok-1"}))
	require.NoError(t, svc.RegisterDevice(ctx, models.DeviceToken{Principal: renter(7), Token: "tok-2"}))
	require.ErrorIs(t, svc.RegisterDevice(ctx, models.DeviceToken{Principal: owner(7)}), models.ErrValidation)

	err := svc.Notify(ctx, owner(7), models.Notification{
		Type:  models.NotificationBookingRequested,
		Title: "New booking request",
		Body:  "Unit A",
		Data:  map[string]string{"roomId": "1"},
	})
	require.NoError(t, err)
	require.Len(t, sender.msgs, 1)
	msg := sender.msgs[0]
	require.Equal(t, "tok-1", msg.Token)
	require.Equal(t, "New booking request", msg.Notification.Title)
	require.Equal(t, "1", msg.Data["roomId"])
	require.Equal(t, models.NotificationBookingRequested, msg.Data["type"])
}

func TestPushServiceWithoutClient(t *testing.T) {
	svc := &PushService{Tokens: &memTokens{}}
	require.NoError(t, svc.Notify(context.Background(), owner(1), models.Notification{}))
}

func TestFanoutCollectsErrors(t *testing.T) {
	ok := &recordingNotifier{}
	failing := &recordingNotifier{err: errors.New("offline")}
	f := Fanout{ok, nil, failing}

	err := f.Notify(context.Background(), renter(2), models.Notification{Type: "x"})
	require.Error(t, err)
	require.Len(t, ok.all(), 1)
	require.Len(t, failing.all(), 1)
}
