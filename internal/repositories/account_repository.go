package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"rentease/internal/models"
)

// AccountRepository serves the owners and renters tables, which share a
// layout.
type AccountRepository struct {
	DB      *sql.DB
	Dialect Dialect
	Kind    models.PrincipalKind
}

func NewOwnerRepository(db *sql.DB, d Dialect) *AccountRepository {
	return &AccountRepository{DB: db, Dialect: d, Kind: models.PrincipalOwner}
}

func NewRenterRepository(db *sql.DB, d Dialect) *AccountRepository {
	return &AccountRepository{DB: db, Dialect: d, Kind: models.PrincipalRenter}
}

func (r *AccountRepository) table() string {
	if r.Kind == models.PrincipalOwner {
		return "owners"
	}
	return "renters"
}

func (r *AccountRepository) scan(row rowScanner) (models.Account, error) {
	var a models.Account
	var phone sql.NullString
	err := row.Scan(&a.ID, &a.Username, &a.Email, &a.FullName, &phone, &a.PasswordHash, &a.CreatedAt)
	a.Phone = phone.String
	a.Kind = r.Kind
	return a, err
}

func (r *AccountRepository) Create(ctx context.Context, a models.Account) (models.Account, error) {
	q := conn(ctx, r.DB, r.Dialect)
	now := time.Now().UTC()
	id, err := q.insert(ctx,
		fmt.Sprintf(`INSERT INTO %s (username, email, full_name, phone, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)`, r.table()),
		a.Username, a.Email, a.FullName, a.Phone, a.PasswordHash, now,
	)
	if err != nil {
		if isDuplicateError(err) {
			return models.Account{}, models.ErrDuplicateUsername
		}
		return models.Account{}, err
	}
	a.ID = id
	a.Kind = r.Kind
	a.CreatedAt = now
	return a, nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id int) (models.Account, error) {
	q := conn(ctx, r.DB, r.Dialect)
	a, err := r.scan(q.queryRow(ctx,
		fmt.Sprintf(`SELECT id, username, email, full_name, phone, password_hash, created_at FROM %s WHERE id = ?`, r.table()), id))
	if err != nil {
		return models.Account{}, notFound(err, models.ErrAccountNotFound)
	}
	return a, nil
}

func (r *AccountRepository) GetByUsername(ctx context.Context, username string) (models.Account, error) {
	q := conn(ctx, r.DB, r.Dialect)
	a, err := r.scan(q.queryRow(ctx,
		fmt.Sprintf(`SELECT id, username, email, full_name, phone, password_hash, created_at FROM %s WHERE username = ?`, r.table()), username))
	if err != nil {
		return models.Account{}, notFound(err, models.ErrAccountNotFound)
	}
	return a, nil
}

func (r *AccountRepository) UpdateFullName(ctx context.Context, id int, fullName string) error {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx, fmt.Sprintf(`UPDATE %s SET full_name = ? WHERE id = ?`, r.table()), fullName, id)
	if err != nil {
		return err
	}
	if ok, err := affected(res); err != nil {
		return err
	} else if !ok {
		// MySQL reports zero rows when the value is unchanged.
		if _, err := r.GetByID(ctx, id); err != nil {
			return err
		}
	}
	return nil
}

// Delete removes an account. Owners cascade to their rooms through the
// foreign key; a renter with bookings is refused.
func (r *AccountRepository) Delete(ctx context.Context, id int) error {
	q := conn(ctx, r.DB, r.Dialect)
	res, err := q.exec(ctx, fmt.Sprintf(`DELETE FROM %s WHERE id = ?`, r.table()), id)
	if err != nil {
		return deleteError(err, string(r.Kind))
	}
	ok, err := affected(res)
	if err != nil {
		return err
	}
	if !ok {
		return models.ErrAccountNotFound
	}
	return nil
}
