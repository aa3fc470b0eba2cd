package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"rentease/internal/models"
)

type AccountStore interface {
	Create(ctx context.Context, a models.Account) (models.Account, error)
	GetByID(ctx context.Context, id int) (models.Account, error)
	GetByUsername(ctx context.Context, username string) (models.Account, error)
	UpdateFullName(ctx context.Context, id int, fullName string) error
	Delete(ctx context.Context, id int) error
}

type SessionStore interface {
	Save(ctx context.Context, token string, p models.Principal, ttl time.Duration) error
	Take(ctx context.Context, token string) (models.Principal, error)
	Delete(ctx context.Context, token string) error
}

type TokenIssuer interface {
	NewJWT(p models.Principal) (string, error)
	NewRefreshToken() (string, error)
}

// AuthService signs owners and renters up and in. Refresh tokens are opaque
// and live in the session store; each refresh rotates them.
type AuthService struct {
	Owners     AccountStore
	Renters    AccountStore
	Sessions   SessionStore
	Tokens     TokenIssuer
	RefreshTTL time.Duration
	Logger     Logger
}

func (s *AuthService) accounts(kind models.PrincipalKind) (AccountStore, error) {
	switch kind {
	case models.PrincipalOwner:
		return s.Owners, nil
	case models.PrincipalRenter:
		return s.Renters, nil
	}
	return nil, fmt.Errorf("%w: unknown account kind %q", models.ErrValidation, kind)
}

func (s *AuthService) refreshTTL() time.Duration {
	if s.RefreshTTL <= 0 {
		return 30 * 24 * time.Hour
	}
	return s.RefreshTTL
}

func (s *AuthService) Register(ctx context.Context, kind models.PrincipalKind, req models.RegisterRequest) (models.Account, error) {
	store, err := s.accounts(kind)
	if err != nil {
		return models.Account{}, err
	}
	req.Username = strings.TrimSpace(req.Username)
	if req.Username == "" || req.Password == "" {
		return models.Account{}, fmt.Errorf("%w: username and password are required", models.ErrValidation)
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return models.Account{}, err
	}
	acc, err := store.Create(ctx, models.Account{
		Kind:         kind,
		Username:     req.Username,
		Email:        req.Email,
		FullName:     req.FullName,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		return models.Account{}, err
	}
	loggerOrNop(s.Logger).Infof("registered %s %d (%s)", kind, acc.ID, acc.Username)
	return acc, nil
}

func (s *AuthService) Login(ctx context.Context, kind models.PrincipalKind, req models.LoginRequest) (models.Tokens, error) {
	store, err := s.accounts(kind)
	if err != nil {
		return models.Tokens{}, err
	}
	acc, err := store.GetByUsername(ctx, strings.TrimSpace(req.Username))
	if errors.Is(err, models.ErrNotFound) {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	if err != nil {
		return models.Tokens{}, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(acc.PasswordHash), []byte(req.Password)); err != nil {
		return models.Tokens{}, models.ErrInvalidCredentials
	}
	return s.issue(ctx, acc)
}

func (s *AuthService) issue(ctx context.Context, acc models.Account) (models.Tokens, error) {
	p := models.Principal{Kind: acc.Kind, ID: acc.ID}
	access, err := s.Tokens.NewJWT(p)
	if err != nil {
		return models.Tokens{}, err
	}
	refresh, err := s.Tokens.NewRefreshToken()
	if err != nil {
		return models.Tokens{}, err
	}
	if err := s.Sessions.Save(ctx, refresh, p, s.refreshTTL()); err != nil {
		return models.Tokens{}, err
	}
	return models.Tokens{AccessToken: access, RefreshToken: refresh, Account: acc}, nil
}

// Refresh exchanges a refresh token for a new pair. The old token is spent.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (models.Tokens, error) {
	if refreshToken == "" {
		return models.Tokens{}, fmt.Errorf("%w: refresh token is required", models.ErrUnauthorized)
	}
	p, err := s.Sessions.Take(ctx, refreshToken)
	if err != nil {
		return models.Tokens{}, err
	}
	acc, err := s.Current(ctx, p)
	if errors.Is(err, models.ErrNotFound) {
		return models.Tokens{}, fmt.Errorf("%w: account no longer exists", models.ErrUnauthorized)
	}
	if err != nil {
		return models.Tokens{}, err
	}
	return s.issue(ctx, acc)
}

func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if refreshToken == "" {
		return nil
	}
	return s.Sessions.Delete(ctx, refreshToken)
}

func (s *AuthService) Current(ctx context.Context, p models.Principal) (models.Account, error) {
	store, err := s.accounts(p.Kind)
	if err != nil {
		return models.Account{}, err
	}
	return store.GetByID(ctx, p.ID)
}

func (s *AuthService) UpdateName(ctx context.Context, p models.Principal, fullName string) (models.Account, error) {
	fullName = strings.TrimSpace(fullName)
	if fullName == "" {
		return models.Account{}, fmt.Errorf("%w: fullName is required", models.ErrValidation)
	}
	store, err := s.accounts(p.Kind)
	if err != nil {
		return models.Account{}, err
	}
	if err := store.UpdateFullName(ctx, p.ID, fullName); err != nil {
		return models.Account{}, err
	}
	return store.GetByID(ctx, p.ID)
}

// Delete removes the account with the given id. Callers may only delete
// themselves.
func (s *AuthService) Delete(ctx context.Context, kind models.PrincipalKind, id int, actor models.Principal) error {
	if actor.Kind != kind || actor.ID != id {
		return fmt.Errorf("%w: accounts can only delete themselves", models.ErrForbidden)
	}
	store, err := s.accounts(kind)
	if err != nil {
		return err
	}
	if err := store.Delete(ctx, id); err != nil {
		return err
	}
	loggerOrNop(s.Logger).Infof("deleted %s %d", kind, id)
	return nil
}
