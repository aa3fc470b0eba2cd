package utils

import (
	"errors"
	"testing"
	"time"

	"rentease/internal/models"
)

func TestManagerRoundTrip(t *testing.T) {
	m, err := NewManager("secret", time.Hour)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	for _, p := range []models.Principal{
		{Kind: models.PrincipalOwner, ID: 3},
		{Kind: models.PrincipalRenter, ID: 9},
	} {
		tok, err := m.NewJWT(p)
		if err != nil {
			t.Fatalf("NewJWT: %v", err)
		}
		got, err := m.Parse(tok)
		if err != nil {
			t.Fatalf("Parse: %v", err)
		}
		if got != p {
			t.Fatalf("expected %+v, got %+v", p, got)
		}
	}
}

func TestManagerRejectsForeignKey(t *testing.T) {
	a, _ := NewManager("a", time.Hour)
	b, _ := NewManager("b", time.Hour)
	tok, err := a.NewJWT(models.Principal{Kind: models.PrincipalOwner, ID: 1})
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}
	if _, err := b.Parse(tok); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected unauthorized, got %v", err)
	}
}

func TestManagerRejectsExpired(t *testing.T) {
	m, _ := NewManager("secret", time.Nanosecond)
	tok, err := m.NewJWT(models.Principal{Kind: models.PrincipalRenter, ID: 1})
	if err != nil {
		t.Fatalf("NewJWT: %v", err)
	}
	time.Sleep(1100 * time.Millisecond)
	if _, err := m.Parse(tok); !errors.Is(err, models.ErrUnauthorized) {
		t.Fatalf("expected expired token to fail, got %v", err)
	}
}

func TestNewRefreshTokenIsRandom(t *testing.T) {
	m, _ := NewManager("secret", time.Hour)
	a, _ := m.NewRefreshToken()
	b, _ := m.NewRefreshToken()
	if len(a) != 64 || a == b {
		t.Fatalf("unexpected refresh tokens %q %q", a, b)
	}
}
