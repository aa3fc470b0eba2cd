package repositories

import (
	"context"
	"database/sql"
	"time"

	"rentease/internal/models"
)

type PaymentReminderRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const reminderColumns = `pr.id, pr.room_id, pr.renter_id, pr.owner_id, pr.due_date, pr.rental_fee, pr.note, pr.approval_status, pr.created_at, ` + roomColumns

const reminderFrom = ` FROM payment_reminders pr JOIN rooms r ON r.id = pr.room_id`

func scanReminder(row rowScanner) (models.PaymentReminder, error) {
	var pr models.PaymentReminder
	var room models.Room
	var note, desc, addr2, postal sql.NullString
	var updated sql.NullTime
	err := row.Scan(
		&pr.ID, &pr.RoomID, &pr.RenterID, &pr.OwnerID, &pr.DueDate, &pr.RentalFee, &note, &pr.ApprovalStatus, &pr.CreatedAt,
		&room.ID, &room.OwnerID, &room.UnitName, &room.NumberOfRooms, &desc, &room.RentalFee,
		&room.AddressLine1, &addr2, &room.City, &postal, &room.Status, &room.CreatedAt, &updated,
	)
	if err != nil {
		return models.PaymentReminder{}, err
	}
	pr.Note = note.String
	room.Description = desc.String
	room.AddressLine2 = addr2.String
	room.PostalCode = postal.String
	if updated.Valid {
		t := updated.Time
		room.UpdatedAt = &t
	}
	pr.Room = &room
	return pr, nil
}

func (r *PaymentReminderRepository) Create(ctx context.Context, pr models.PaymentReminder) (models.PaymentReminder, error) {
	q := conn(ctx, r.DB, r.Dialect)
	now := time.Now().UTC()
	if pr.ApprovalStatus == "" {
		pr.ApprovalStatus = models.ApprovalPending
	}
	id, err := q.insert(ctx, `
    INSERT INTO payment_reminders (room_id, renter_id, owner_id, due_date, rental_fee, note, approval_status, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		pr.RoomID, pr.RenterID, pr.OwnerID, pr.DueDate, pr.RentalFee, pr.Note, pr.ApprovalStatus, now,
	)
	if err != nil {
		return models.PaymentReminder{}, insertError(err, "payment reminder")
	}
	pr.ID = id
	pr.CreatedAt = now
	return pr, nil
}

func (r *PaymentReminderRepository) GetByID(ctx context.Context, id int) (models.PaymentReminder, error) {
	q := conn(ctx, r.DB, r.Dialect)
	pr, err := scanReminder(q.queryRow(ctx, `SELECT `+reminderColumns+reminderFrom+` WHERE pr.id = ?`, id))
	if err != nil {
		return models.PaymentReminder{}, notFound(err, models.ErrReminderNotFound)
	}
	return pr, nil
}

func (r *PaymentReminderRepository) List(ctx context.Context) ([]models.PaymentReminder, error) {
	return r.list(ctx, `SELECT `+reminderColumns+reminderFrom+` ORDER BY pr.id`)
}

func (r *PaymentReminderRepository) ListByRenter(ctx context.Context, renterID int) ([]models.PaymentReminder, error) {
	return r.list(ctx, `SELECT `+reminderColumns+reminderFrom+` WHERE pr.renter_id = ? ORDER BY pr.id`, renterID)
}

// ListByOwner filters on the room's current owner rather than the stored
// owner snapshot.
func (r *PaymentReminderRepository) ListByOwner(ctx context.Context, ownerID int) ([]models.PaymentReminder, error) {
	return r.list(ctx, `SELECT `+reminderColumns+reminderFrom+` WHERE r.owner_id = ? ORDER BY pr.id`, ownerID)
}

func (r *PaymentReminderRepository) ListByRoom(ctx context.Context, roomID int) ([]models.PaymentReminder, error) {
	return r.list(ctx, `SELECT `+reminderColumns+reminderFrom+` WHERE pr.room_id = ? ORDER BY pr.id`, roomID)
}

func (r *PaymentReminderRepository) list(ctx context.Context, query string, args ...any) ([]models.PaymentReminder, error) {
	q := conn(ctx, r.DB, r.Dialect)
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	reminders := []models.PaymentReminder{}
	for rows.Next() {
		pr, err := scanReminder(rows)
		if err != nil {
			return nil, err
		}
		reminders = append(reminders, pr)
	}
	return reminders, rows.Err()
}

// HasPending reports whether a pending reminder exists for the pair.
func (r *PaymentReminderRepository) HasPending(ctx context.Context, roomID, renterID int) (bool, error) {
	q := conn(ctx, r.DB, r.Dialect)
	var n int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM payment_reminders WHERE room_id = ? AND renter_id = ? AND approval_status = ?`,
		roomID, renterID, models.ApprovalPending,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// RejectPending rejects every pending reminder of the pair and returns how
// many were changed.
func (r *PaymentReminderRepository) RejectPending(ctx context.Context, roomID, renterID int) (int, error) {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx,
		`UPDATE payment_reminders SET approval_status = ? WHERE room_id = ? AND renter_id = ? AND approval_status = ?`,
		models.ApprovalRejected, roomID, renterID, models.ApprovalPending)
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	return int(n), nil
}

// CompareAndSwapApproval sets the approval status only if the reminder still
// holds from.
func (r *PaymentReminderRepository) CompareAndSwapApproval(ctx context.Context, id int, from, to string) (bool, error) {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx,
		`UPDATE payment_reminders SET approval_status = ? WHERE id = ? AND approval_status = ?`, to, id, from)
	if err != nil {
		return false, err
	}
	return affected(res)
}

func (r *PaymentReminderRepository) Delete(ctx context.Context, id int) error {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx, `DELETE FROM payment_reminders WHERE id = ?`, id)
	if err != nil {
		return err
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrReminderNotFound
	}
	return nil
}
