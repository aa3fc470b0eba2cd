package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"rentease/internal/models"
)

const sessionKeyPrefix = "rentease:session:"

// SessionRepository keeps refresh-token sessions in redis. Expiry is left to
// the key TTL.
type SessionRepository struct {
	RDB *redis.Client
}

func sessionKey(token string) string { return sessionKeyPrefix + token }

func (r *SessionRepository) Save(ctx context.Context, token string, p models.Principal, ttl time.Duration) error {
	payload, err := json.Marshal(p)
	if err != nil {
		return err
	}
	return r.RDB.Set(ctx, sessionKey(token), payload, ttl).Err()
}

// Take reads and removes a session in one step so a refresh token can only
// be rotated once.
func (r *SessionRepository) Take(ctx context.Context, token string) (models.Principal, error) {
	raw, err := r.RDB.GetDel(ctx, sessionKey(token)).Bytes()
	if errors.Is(err, redis.Nil) {
		return models.Principal{}, fmt.Errorf("%w: unknown or expired refresh token", models.ErrUnauthorized)
	}
	if err != nil {
		return models.Principal{}, err
	}
	var p models.Principal
	if err := json.Unmarshal(raw, &p); err != nil {
		return models.Principal{}, fmt.Errorf("decode session: %w", err)
	}
	return p, nil
}

func (r *SessionRepository) Delete(ctx context.Context, token string) error {
	return r.RDB.Del(ctx, sessionKey(token)).Err()
}
