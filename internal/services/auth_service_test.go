package services

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"rentease/internal/models"
	"rentease/utils"
)

type memAccounts struct {
	mu   sync.Mutex
	kind models.PrincipalKind
	byID map[int]models.Account
	next int
}

func newMemAccounts(kind models.PrincipalKind) *memAccounts {
	return &memAccounts{kind: kind, byID: map[int]models.Account{}}
}

func (m *memAccounts) Create(_ context.Context, a models.Account) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.byID {
		if existing.Username == a.Username {
			return models.Account{}, models.ErrDuplicateUsername
		}
	}
	m.next++
	a.ID = m.next
	a.Kind = m.kind
	m.byID[a.ID] = a
	return a, nil
}

func (m *memAccounts) GetByID(_ context.Context, id int) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return models.Account{}, models.ErrAccountNotFound
	}
	return a, nil
}

func (m *memAccounts) GetByUsername(_ context.Context, username string) (models.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.byID {
		if a.Username == username {
			return a, nil
		}
	}
	return models.Account{}, models.ErrAccountNotFound
}

func (m *memAccounts) UpdateFullName(_ context.Context, id int, name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	a, ok := m.byID[id]
	if !ok {
		return models.ErrAccountNotFound
	}
	a.FullName = name
	m.byID[id] = a
	return nil
}

func (m *memAccounts) Delete(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.byID[id]; !ok {
		return models.ErrAccountNotFound
	}
	delete(m.byID, id)
	return nil
}

type memSessions struct {
	mu       sync.Mutex
	sessions map[string]models.Principal
}

func (m *memSessions) Save(_ context.Context, token string, p models.Principal, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.sessions == nil {
		m.sessions = map[string]models.Principal{}
	}
	m.sessions[token] = p
	return nil
}

func (m *memSessions) Take(_ context.Context, token string) (models.Principal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.sessions[token]
	if !ok {
		return models.Principal{}, fmt.Errorf("%w: unknown refresh token", models.ErrUnauthorized)
	}
	delete(m.sessions, token)
	return p, nil
}

func (m *memSessions) Delete(_ context.Context, token string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, token)
	return nil
}

func newAuthService(t *testing.T) (*AuthService, *utils.Manager) {
	t.Helper()
	mgr, err := utils.NewManager("test-secret", time.Hour)
	require.NoError(t, err)
	return &AuthService{
		Owners:   newMemAccounts(models.PrincipalOwner),
		Renters:  newMemAccounts(models.PrincipalRenter),
		Sessions: &memSessions{},
		Tokens:   mgr,
	}, mgr
}

func TestAuthRegisterAndLogin(t *testing.T) {
	svc, mgr := newAuthService(t)
	ctx := context.Background()

	acc, err := svc.Register(ctx, models.PrincipalRenter, models.RegisterRequest{
		Username: "maria", Email: "maria@example.com", FullName: "Maria Cruz", Password: "secret1",
	})
	require.NoError(t, err)
	require.Equal(t, models.PrincipalRenter, acc.Kind)
	require.NotEqual(t, "secret1", acc.PasswordHash)

	_, err = svc.Register(ctx, models.PrincipalRenter, models.RegisterRequest{Username: "maria", Password: "other1"})
	require.ErrorIs(t, err, models.ErrConflict)

	tokens, err := svc.Login(ctx, models.PrincipalRenter, models.LoginRequest{Username: "maria", Password: "secret1"})
	require.NoError(t, err)
	require.NotEmpty(t, tokens.RefreshToken)

	p, err := mgr.Parse(tokens.AccessToken)
	require.NoError(t, err)
	require.Equal(t, models.Principal{Kind: models.PrincipalRenter, ID: acc.ID}, p)

	_, err = svc.Login(ctx, models.PrincipalRenter, models.LoginRequest{Username: "maria", Password: "wrong"})
	require.ErrorIs(t, err, models.ErrInvalidCredentials)
	_, err = svc.Login(ctx, models.PrincipalOwner, models.LoginRequest{Username: "maria", Password: "secret1"})
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthRefreshRotates(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	_, err := svc.Register(ctx, models.PrincipalOwner, models.RegisterRequest{Username: "owner1", Password: "secret1"})
	require.NoError(t, err)
	first, err := svc.Login(ctx, models.PrincipalOwner, models.LoginRequest{Username: "owner1", Password: "secret1"})
	require.NoError(t, err)

	second, err := svc.Refresh(ctx, first.RefreshToken)
	require.NoError(t, err)
	require.NotEqual(t, first.RefreshToken, second.RefreshToken)
	require.Equal(t, models.PrincipalOwner, second.Account.Kind)

	_, err = svc.Refresh(ctx, first.RefreshToken)
	require.ErrorIs(t, err, models.ErrUnauthorized)

	require.NoError(t, svc.Logout(ctx, second.RefreshToken))
	_, err = svc.Refresh(ctx, second.RefreshToken)
	require.ErrorIs(t, err, models.ErrUnauthorized)
}

func TestAuthAccountMaintenance(t *testing.T) {
	svc, _ := newAuthService(t)
	ctx := context.Background()
	acc, err := svc.Register(ctx, models.PrincipalRenter, models.RegisterRequest{Username: "juan", FullName: "Juan", Password: "secret1"})
	require.NoError(t, err)
	me := renter(acc.ID)

	updated, err := svc.UpdateName(ctx, me, "Juan Dela Cruz")
	require.NoError(t, err)
	require.Equal(t, "Juan Dela Cruz", updated.FullName)

	_, err = svc.UpdateName(ctx, me, "  ")
	require.ErrorIs(t, err, models.ErrValidation)

	require.ErrorIs(t, svc.Delete(ctx, models.PrincipalRenter, acc.ID, renter(acc.ID+1)), models.ErrForbidden)
	require.ErrorIs(t, svc.Delete(ctx, models.PrincipalRenter, acc.ID, owner(acc.ID)), models.ErrForbidden)
	require.NoError(t, svc.Delete(ctx, models.PrincipalRenter, acc.ID, me))

	_, err = svc.Current(ctx, me)
	require.ErrorIs(t, err, models.ErrNotFound)
}
