package repositories

import (
	"context"
	"database/sql"
	"time"

	"rentease/internal/models"
)

type PaymentRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const paymentColumns = `id, room_id, amount, status, payment_method, payment_intent_id, paid_date, created_at`

func scanPayment(row rowScanner) (models.Payment, error) {
	var p models.Payment
	err := row.Scan(&p.ID, &p.RoomID, &p.Amount, &p.Status, &p.PaymentMethod, &p.PaymentIntentID, &p.PaidDate, &p.CreatedAt)
	return p, err
}

func (r *PaymentRepository) Create(ctx context.Context, p models.Payment) (models.Payment, error) {
	q := conn(ctx, r.DB, r.Dialect)
	now := time.Now().UTC()
	id, err := q.insert(ctx, `
    INSERT INTO payments (room_id, amount, status, payment_method, payment_intent_id, paid_date, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?)`,
		p.RoomID, p.Amount, p.Status, p.PaymentMethod, p.PaymentIntentID, p.PaidDate, now,
	)
	if err != nil {
		return models.Payment{}, insertError(err, "payment")
	}
	p.ID = id
	p.CreatedAt = now
	return p, nil
}

// GetByIntentID returns the most recent payment recorded for an intent.
func (r *PaymentRepository) GetByIntentID(ctx context.Context, intentID string) (models.Payment, error) {
	q := conn(ctx, r.DB, r.Dialect)
	p, err := scanPayment(q.queryRow(ctx,
		`SELECT `+paymentColumns+` FROM payments WHERE payment_intent_id = ? ORDER BY id DESC LIMIT 1`, intentID))
	if err != nil {
		return models.Payment{}, notFound(err, models.ErrPaymentNotFound)
	}
	return p, nil
}

func (r *PaymentRepository) ListByRoom(ctx context.Context, roomID int) ([]models.Payment, error) {
	q := conn(ctx, r.DB, r.Dialect)
	rows, err := q.query(ctx, `SELECT `+paymentColumns+` FROM payments WHERE room_id = ? ORDER BY id`, roomID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	payments := []models.Payment{}
	for rows.Next() {
		p, err := scanPayment(rows)
		if err != nil {
			return nil, err
		}
		payments = append(payments, p)
	}
	return payments, rows.Err()
}

// MarkPaid settles every payment recorded for an intent. It reports whether
// any row matched.
func (r *PaymentRepository) MarkPaid(ctx context.Context, intentID string, amount float64, paidDate models.Date) (bool, error) {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx,
		`UPDATE payments SET status = ?, amount = ?, paid_date = ? WHERE payment_intent_id = ?`,
		models.PaymentStatusPaid, amount, paidDate, intentID)
	if err != nil {
		return false, err
	}
	return affected(res)
}
