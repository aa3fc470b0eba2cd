package repositories

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"
	"github.com/jackc/pgx/v5/pgconn"

	"rentease/internal/models"
)

const (
	mysqlDuplicateEntry   = 1062
	mysqlRowIsReferenced  = 1451
	mysqlNoReferencedRow  = 1452
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

func isDuplicateError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlDuplicateEntry
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}

// isForeignKeyConstraintError checks for a foreign key failure on either a
// missing parent row or a still-referenced row.
func isForeignKeyConstraintError(err error) bool {
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return mysqlErr.Number == mysqlNoReferencedRow || mysqlErr.Number == mysqlRowIsReferenced
	}
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgForeignKeyViolation
}

// insertError translates driver errors raised by INSERT/UPDATE statements.
func insertError(err error, what string) error {
	switch {
	case isDuplicateError(err):
		return fmt.Errorf("%w: %s already exists", models.ErrConflict, what)
	case isForeignKeyConstraintError(err):
		return fmt.Errorf("%w: %s references a missing record", models.ErrValidation, what)
	default:
		return err
	}
}

// deleteError translates driver errors raised by DELETE statements.
func deleteError(err error, what string) error {
	if isForeignKeyConstraintError(err) {
		return fmt.Errorf("%w: %s is still referenced", models.ErrConflict, what)
	}
	return err
}

// notFound converts sql.ErrNoRows to the given not-found error.
func notFound(err error, nf error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return nf
	}
	return err
}
