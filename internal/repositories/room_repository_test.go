package repositories

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/go-sql-driver/mysql"

	"rentease/internal/models"
)

var roomRowColumns = []string{
	"id", "owner_id", "unit_name", "number_of_rooms", "description", "rental_fee",
	"address_line1", "address_line2", "city", "postal_code", "status", "created_at", "updated_at",
}

func TestRoomGetByIDLoadsImages(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	rooms := &RoomRepository{DB: db}
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms r WHERE r.id = ?")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows(roomRowColumns).
			AddRow(4, 1, "Unit A", 2, nil, 5000.0, "1 Main St", nil, "Manila", "1000", "available", created, nil))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT room_id, path FROM room_images WHERE room_id IN (?)")).WithArgs(4).
		WillReturnRows(sqlmock.NewRows([]string{"room_id", "path"}).
			AddRow(4, "https://cdn/rooms/a.jpg").
			AddRow(4, "https://cdn/rooms/b.jpg"))

	room, err := rooms.GetByID(context.Background(), 4)
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if room.UnitName != "Unit A" || room.Description != "" || room.UpdatedAt != nil {
		t.Fatalf("unexpected room: %+v", room)
	}
	if len(room.ImagePaths) != 2 || room.ImagePaths[1] != "https://cdn/rooms/b.jpg" {
		t.Fatalf("unexpected images: %v", room.ImagePaths)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expectations: %v", err)
	}
}

func TestRoomGetByIDMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	rooms := &RoomRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms r WHERE r.id = ?")).WithArgs(99).
		WillReturnRows(sqlmock.NewRows(roomRowColumns))

	_, err = rooms.GetByID(context.Background(), 99)
	if !errors.Is(err, models.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestRoomStats(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	rooms := &RoomRepository{DB: db}

	mock.ExpectQuery(regexp.QuoteMeta("FROM rooms WHERE owner_id = ?")).
		WithArgs(models.RoomStatusAvailable, models.RoomStatusRented, 1).
		WillReturnRows(sqlmock.NewRows([]string{"total", "available", "rented"}).AddRow(3, 1, 1))
	mock.ExpectQuery(regexp.QuoteMeta("JOIN rooms r ON r.id = p.room_id")).
		WithArgs(1, models.PaymentStatusPaid).
		WillReturnRows(sqlmock.NewRows([]string{"revenue"}).AddRow(12500.5))

	stats, err := rooms.Stats(context.Background(), 1)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	want := models.RoomStats{Total: 3, Available: 1, Rented: 1, Revenue: 12500.5}
	if stats != want {
		t.Fatalf("stats = %+v, want %+v", stats, want)
	}
}

func TestAccountCreateDuplicateUsername(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	renters := NewRenterRepository(db, MySQL)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO renters (username")).
		WillReturnError(&mysql.MySQLError{Number: 1062})

	_, err = renters.Create(context.Background(), models.Account{Username: "ana"})
	if !errors.Is(err, models.ErrDuplicateUsername) {
		t.Fatalf("expected duplicate username, got %v", err)
	}
}
