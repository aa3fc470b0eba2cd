package utils

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt"

	"rentease/internal/models"
)

type Manager struct {
	signingKey string
	accessTTL  time.Duration
}

func NewManager(signingKey string, accessTTL time.Duration) (*Manager, error) {
	if signingKey == "" {
		return nil, errors.New("empty signing key")
	}
	if accessTTL <= 0 {
		accessTTL = 20 * time.Hour
	}
	return &Manager{signingKey: signingKey, accessTTL: accessTTL}, nil
}

// NewJWT issues an access token carrying the principal.
func (m *Manager) NewJWT(p models.Principal) (string, error) {
	now := time.Now()
	claims := &models.Claims{
		Kind:   p.Kind,
		UserID: p.ID,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(m.accessTTL).Unix(),
			IssuedAt:  now.Unix(),
			Subject:   fmt.Sprintf("%s:%d", p.Kind, p.ID),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(m.signingKey))
}

// Parse validates an access token and returns its principal.
func (m *Manager) Parse(accessToken string) (models.Principal, error) {
	claims := &models.Claims{}
	token, err := jwt.ParseWithClaims(accessToken, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(m.signingKey), nil
	})
	if err != nil || !token.Valid {
		return models.Principal{}, fmt.Errorf("%w: invalid access token", models.ErrUnauthorized)
	}
	if !claims.Kind.Valid() || claims.UserID <= 0 {
		return models.Principal{}, fmt.Errorf("%w: malformed access token", models.ErrUnauthorized)
	}
	return models.Principal{Kind: claims.Kind, ID: claims.UserID}, nil
}

func (m *Manager) NewRefreshToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}
