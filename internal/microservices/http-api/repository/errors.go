package repository

import (
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

// Postgres error codes that mean "somebody else won, try again".
const (
	pgUniqueViolation      = "23505"
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
)

// Postgres error codes for an id that names no row: a malformed uuid, or a
// progress record pointing at a user that does not exist.
const (
	pgInvalidTextRepresentation = "22P02"
	pgForeignKeyViolation       = "23503"
)

// translate maps driver errors onto the package sentinels.
func translate(op string, err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation, pgSerializationFailure, pgDeadlockDetected:
			return fmt.Errorf("%s: %w: %s", op, ErrConflict, pgErr.Message)
		case pgInvalidTextRepresentation, pgForeignKeyViolation:
			return fmt.Errorf("%s: %w: %s", op, ErrNotFound, pgErr.Message)
		}
	}
	return fmt.Errorf("%s: %w", op, err)
}
