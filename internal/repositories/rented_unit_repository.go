package repositories

import (
	"context"
	"database/sql"
	"time"

	"rentease/internal/models"
)

type RentedUnitRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const rentedUnitColumns = `u.id, u.renter_id, u.room_id, u.start_date, u.end_date, u.created_at, ` + roomColumns

const rentedUnitFrom = ` FROM rented_units u JOIN rooms r ON r.id = u.room_id`

func scanRentedUnit(row rowScanner) (models.RentedUnit, error) {
	var u models.RentedUnit
	var room models.Room
	var updated sql.NullTime
	var addr2, postal, desc sql.NullString
	err := row.Scan(
		&u.ID, &u.RenterID, &u.RoomID, &u.StartDate, &u.EndDate, &u.CreatedAt,
		&room.ID, &room.OwnerID, &room.UnitName, &room.NumberOfRooms, &desc, &room.RentalFee,
		&room.AddressLine1, &addr2, &room.City, &postal, &room.Status, &room.CreatedAt, &updated,
	)
	if err != nil {
		return models.RentedUnit{}, err
	}
	room.Description = desc.String
	room.AddressLine2 = addr2.String
	room.PostalCode = postal.String
	if updated.Valid {
		t := updated.Time
		room.UpdatedAt = &t
	}
	u.Room = &room
	return u, nil
}

func (r *RentedUnitRepository) Create(ctx context.Context, u models.RentedUnit) (models.RentedUnit, error) {
	q := conn(ctx, r.DB, r.Dialect)
	now := time.Now().UTC()
	id, err := q.insert(ctx,
		`INSERT INTO rented_units (renter_id, room_id, start_date, end_date, created_at) VALUES (?, ?, ?, ?, ?)`,
		u.RenterID, u.RoomID, u.StartDate, u.EndDate, now,
	)
	if err != nil {
		return models.RentedUnit{}, insertError(err, "rented unit")
	}
	u.ID = id
	u.CreatedAt = now
	return u, nil
}

func (r *RentedUnitRepository) GetByID(ctx context.Context, id int) (models.RentedUnit, error) {
	q := conn(ctx, r.DB, r.Dialect)
	u, err := scanRentedUnit(q.queryRow(ctx, `SELECT `+rentedUnitColumns+rentedUnitFrom+` WHERE u.id = ?`, id))
	if err != nil {
		return models.RentedUnit{}, notFound(err, models.ErrRentedUnitNotFound)
	}
	return u, nil
}

// GetByIDForUpdate reads a rental and locks its row until the transaction ends.
func (r *RentedUnitRepository) GetByIDForUpdate(ctx context.Context, id int) (models.RentedUnit, error) {
	q := conn(ctx, r.DB, r.Dialect)
	var u models.RentedUnit
	err := q.queryRow(ctx,
		`SELECT id, renter_id, room_id, start_date, end_date, created_at FROM rented_units WHERE id = ? FOR UPDATE`, id,
	).Scan(&u.ID, &u.RenterID, &u.RoomID, &u.StartDate, &u.EndDate, &u.CreatedAt)
	if err != nil {
		return models.RentedUnit{}, notFound(err, models.ErrRentedUnitNotFound)
	}
	return u, nil
}

func (r *RentedUnitRepository) List(ctx context.Context) ([]models.RentedUnit, error) {
	return r.list(ctx, `SELECT `+rentedUnitColumns+rentedUnitFrom+` ORDER BY u.id`)
}

func (r *RentedUnitRepository) ListByRenter(ctx context.Context, renterID int) ([]models.RentedUnit, error) {
	return r.list(ctx, `SELECT `+rentedUnitColumns+rentedUnitFrom+` WHERE u.renter_id = ? ORDER BY u.id`, renterID)
}

func (r *RentedUnitRepository) ListByRoom(ctx context.Context, roomID int) ([]models.RentedUnit, error) {
	return r.list(ctx, `SELECT `+rentedUnitColumns+rentedUnitFrom+` WHERE u.room_id = ? ORDER BY u.id`, roomID)
}

func (r *RentedUnitRepository) list(ctx context.Context, query string, args ...any) ([]models.RentedUnit, error) {
	q := conn(ctx, r.DB, r.Dialect)
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	units := []models.RentedUnit{}
	for rows.Next() {
		u, err := scanRentedUnit(rows)
		if err != nil {
			return nil, err
		}
		units = append(units, u)
	}
	return units, rows.Err()
}

// HasActive reports whether the renter holds a rental of the room.
func (r *RentedUnitRepository) HasActive(ctx context.Context, roomID, renterID int) (bool, error) {
	q := conn(ctx, r.DB, r.Dialect)
	var n int
	err := q.queryRow(ctx,
		`SELECT COUNT(*) FROM rented_units WHERE room_id = ? AND renter_id = ?`, roomID, renterID,
	).Scan(&n)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *RentedUnitRepository) Delete(ctx context.Context, id int) error {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx, `DELETE FROM rented_units WHERE id = ?`, id)
	if err != nil {
		return deleteError(err, "rented unit")
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrRentedUnitNotFound
	}
	return nil
}
