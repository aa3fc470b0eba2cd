package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentease/internal/models"
)

type RoomRepository struct {
	DB      *sql.DB
	Dialect Dialect
}

const roomColumns = `r.id, r.owner_id, r.unit_name, r.number_of_rooms, r.description, r.rental_fee,
       r.address_line1, r.address_line2, r.city, r.postal_code, r.status, r.created_at, r.updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRoom(row rowScanner, room *models.Room) error {
	var updated sql.NullTime
	var addr2, postal, desc sql.NullString
	if err := row.Scan(
		&room.ID, &room.OwnerID, &room.UnitName, &room.NumberOfRooms, &desc, &room.RentalFee,
		&room.AddressLine1, &addr2, &room.City, &postal, &room.Status, &room.CreatedAt, &updated,
	); err != nil {
		return err
	}
	room.Description = desc.String
	room.AddressLine2 = addr2.String
	room.PostalCode = postal.String
	if updated.Valid {
		t := updated.Time
		room.UpdatedAt = &t
	}
	return nil
}

func (r *RoomRepository) Create(ctx context.Context, room models.Room) (models.Room, error) {
	q := conn(ctx, r.DB, r.Dialect)
	now := time.Now().UTC()
	if room.Status == "" {
		room.Status = models.RoomStatusAvailable
	}
	id, err := q.insert(ctx, `
    INSERT INTO rooms (owner_id, unit_name, number_of_rooms, description, rental_fee, address_line1, address_line2, city, postal_code, status, created_at)
    VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		room.OwnerID, room.UnitName, room.NumberOfRooms, room.Description, room.RentalFee,
		room.AddressLine1, room.AddressLine2, room.City, room.PostalCode, room.Status, now,
	)
	if err != nil {
		return models.Room{}, insertError(err, "room")
	}
	room.ID = id
	room.CreatedAt = now
	if err := r.insertImages(ctx, q, id, room.ImagePaths); err != nil {
		return models.Room{}, err
	}
	return room, nil
}

func (r *RoomRepository) insertImages(ctx context.Context, q querier, roomID int, paths []string) error {
	for i, p := range paths {
		if _, err := q.exec(ctx, `INSERT INTO room_images (room_id, path, position) VALUES (?, ?, ?)`, roomID, p, i); err != nil {
			return fmt.Errorf("insert room image: %w", err)
		}
	}
	return nil
}

func (r *RoomRepository) GetByID(ctx context.Context, id int) (models.Room, error) {
	q := conn(ctx, r.DB, r.Dialect)
	var room models.Room
	err := scanRoom(q.queryRow(ctx, `SELECT `+roomColumns+` FROM rooms r WHERE r.id = ?`, id), &room)
	if err != nil {
		return models.Room{}, notFound(err, models.ErrRoomNotFound)
	}
	rooms := []models.Room{room}
	if err := r.loadImages(ctx, q, rooms); err != nil {
		return models.Room{}, err
	}
	return rooms[0], nil
}

// List returns all rooms, optionally restricted to one status.
func (r *RoomRepository) List(ctx context.Context, status string) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms r`
	var args []any
	if status != "" {
		query += ` WHERE r.status = ?`
		args = append(args, status)
	}
	return r.list(ctx, query+` ORDER BY r.id`, args...)
}

// ListByOwner returns an owner's rooms, optionally restricted to one status.
func (r *RoomRepository) ListByOwner(ctx context.Context, ownerID int, status string) ([]models.Room, error) {
	query := `SELECT ` + roomColumns + ` FROM rooms r WHERE r.owner_id = ?`
	args := []any{ownerID}
	if status != "" {
		query += ` AND r.status = ?`
		args = append(args, status)
	}
	return r.list(ctx, query+` ORDER BY r.id`, args...)
}

func (r *RoomRepository) list(ctx context.Context, query string, args ...any) ([]models.Room, error) {
	q := conn(ctx, r.DB, r.Dialect)
	rows, err := q.query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	rooms := []models.Room{}
	for rows.Next() {
		var room models.Room
		if err := scanRoom(rows, &room); err != nil {
			return nil, err
		}
		rooms = append(rooms, room)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if err := r.loadImages(ctx, q, rooms); err != nil {
		return nil, err
	}
	return rooms, nil
}

func (r *RoomRepository) loadImages(ctx context.Context, q querier, rooms []models.Room) error {
	if len(rooms) == 0 {
		return nil
	}
	index := make(map[int]int, len(rooms))
	args := make([]any, 0, len(rooms))
	for i := range rooms {
		rooms[i].ImagePaths = []string{}
		index[rooms[i].ID] = i
		args = append(args, rooms[i].ID)
	}
	rows, err := q.query(ctx,
		`SELECT room_id, path FROM room_images WHERE room_id IN (`+placeholders(len(args))+`) ORDER BY room_id, position`,
		args...)
	if err != nil {
		return fmt.Errorf("load room images: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var roomID int
		var path string
		if err := rows.Scan(&roomID, &path); err != nil {
			return err
		}
		if i, ok := index[roomID]; ok {
			rooms[i].ImagePaths = append(rooms[i].ImagePaths, path)
		}
	}
	return rows.Err()
}

// Update writes the descriptive fields. Owner and status are not touched.
func (r *RoomRepository) Update(ctx context.Context, room models.Room) (models.Room, error) {
	q := conn(ctx, r.DB, r.Dialect)
	now := time.Now().UTC()
	res, err := q.exec(ctx, `
    UPDATE rooms SET unit_name = ?, number_of_rooms = ?, description = ?, rental_fee = ?, address_line1 = ?,
           address_line2 = ?, city = ?, postal_code = ?, updated_at = ?
    WHERE id = ?`,
		room.UnitName, room.NumberOfRooms, room.Description, room.RentalFee, room.AddressLine1,
		room.AddressLine2, room.City, room.PostalCode, now, room.ID,
	)
	if err != nil {
		return models.Room{}, insertError(err, "room")
	}
	if ok, err := affected(res); err != nil {
		return models.Room{}, err
	} else if !ok {
		return models.Room{}, models.ErrRoomNotFound
	}
	room.UpdatedAt = &now
	return room, nil
}

// ReplaceImages swaps the stored image list of a room.
func (r *RoomRepository) ReplaceImages(ctx context.Context, roomID int, paths []string) error {
	q := conn(ctx, r.DB, r.Dialect)
	if _, err := q.exec(ctx, `DELETE FROM room_images WHERE room_id = ?`, roomID); err != nil {
		return err
	}
	return r.insertImages(ctx, q, roomID, paths)
}

func (r *RoomRepository) Delete(ctx context.Context, id int) error {
	q := conn(ctx, r.DB, r.Dialect)
	if _, err := q.exec(ctx, `DELETE FROM room_images WHERE room_id = ?`, id); err != nil {
		return err
	}
	res, err := q.exec(ctx, `DELETE FROM rooms WHERE id = ?`, id)
	if err != nil {
		return deleteError(err, "room")
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrRoomNotFound
	}
	return nil
}

// CompareAndSwapStatus sets the status only if the room currently holds
// from. The UPDATE keeps the row locked until the surrounding transaction
// ends, so concurrent swaps on one room serialise.
func (r *RoomRepository) CompareAndSwapStatus(ctx context.Context, id int, from, to string) (bool, error) {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx, `UPDATE rooms SET status = ?, updated_at = ? WHERE id = ? AND status = ?`, to, time.Now().UTC(), id, from)
	if err != nil {
		return false, err
	}
	return affected(res)
}

// SetStatus overwrites the status unconditionally.
func (r *RoomRepository) SetStatus(ctx context.Context, id int, status string) error {
	q := conn(ctx, r.DB, r.Dialect)
	_, err := q.exec(ctx, `UPDATE rooms SET status = ?, updated_at = ? WHERE id = ?`, status, time.Now().UTC(), id)
	return err
}

func (r *RoomRepository) Stats(ctx context.Context, ownerID int) (models.RoomStats, error) {
	q := conn(ctx, r.DB, r.Dialect)
	var stats models.RoomStats
	err := q.queryRow(ctx, `
    SELECT COUNT(*),
           COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
           COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0)
    FROM rooms WHERE owner_id = ?`,
		models.RoomStatusAvailable, models.RoomStatusRented, ownerID,
	).Scan(&stats.Total, &stats.Available, &stats.Rented)
	if err != nil {
		return models.RoomStats{}, err
	}
	err = q.queryRow(ctx, `
    SELECT COALESCE(SUM(p.amount), 0)
    FROM payments p
    JOIN rooms r ON r.id = p.room_id
    WHERE r.owner_id = ? AND p.status = ?`,
		ownerID, models.PaymentStatusPaid,
	).Scan(&stats.Revenue)
	if err != nil {
		return models.RoomStats{}, err
	}
	return stats, nil
}
