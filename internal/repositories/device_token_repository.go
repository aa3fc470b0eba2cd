package repositories

import (
	"context"
	"database/sql"
	"time"

	"rentease/internal/models"
)

type DeviceTokenRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

// Save registers a push token for a principal. A token moves to the latest
// principal that registered it.
func (r *DeviceTokenRepository) Save(ctx context.Context, t models.DeviceToken) error {
	store := &Store{DB: r.DB, Dialect: r.Dialect}
	return store.InTx(ctx, func(ctx context.Context) error {
		q := conn(ctx, r.DB, r.Dialect)
		if _, err := q.exec(ctx, `DELETE FROM device_tokens WHERE token = ?`, t.Token); err != nil {
			return err
		}
		_, err := q.exec(ctx,
			`INSERT INTO device_tokens (principal_kind, principal_id, token, created_at) VALUES (?, ?, ?, ?)`,
			string(t.Principal.Kind), t.Principal.ID, t.Token, time.Now().UTC())
		return err
	})
}

func (r *DeviceTokenRepository) ListByPrincipal(ctx context.Context, p models.Principal) ([]string, error) {
	q := conn(ctx, r.DB, r.Dialect)
	rows, err := q.query(ctx,
		`SELECT token FROM device_tokens WHERE principal_kind = ? AND principal_id = ? ORDER BY id`, string(p.Kind), p.ID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tokens []string
	for rows.Next() {
		var tok string
		if err := rows.Scan(&tok); err != nil {
			return nil, err
		}
		tokens = append(tokens, tok)
	}
	return tokens, rows.Err()
}

func (r *DeviceTokenRepository) Delete(ctx context.Context, token string) error {
	q := conn(ctx, r.DB, r.Dialect)
	_, err := q.exec(ctx, `DELETE FROM device_tokens WHERE token = ?`, token)
	return err
}
