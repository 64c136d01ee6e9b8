package database

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// PostgreSQL SQLSTATE codes the translator understands
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
	pgNotNullViolation    = "23502"
	pgCheckViolation      = "23514"
	pgInvalidTextRepr     = "22P02"
	pgNumericOutOfRange   = "22003"
)

// ErrorTranslator converts a low-level store error into a message that can be
// shown to the caller
type ErrorTranslator interface {
	Translate(err error) string
}

// PgErrorTranslator translates pgx / pgconn errors
type PgErrorTranslator struct{}

func NewPgErrorTranslator() *PgErrorTranslator {
	return &PgErrorTranslator{}
}

func (t *PgErrorTranslator) Translate(err error) string {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return "The database took too long to respond"
	case errors.Is(err, context.Canceled):
		return "The request was cancelled"
	case errors.Is(err, pgx.ErrNoRows):
		return "The requested record does not exist"
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return uniqueViolationMessage(pgErr.ConstraintName)
		case pgForeignKeyViolation:
			return "The referenced car does not exist"
		case pgNotNullViolation:
			if pgErr.ColumnName != "" {
				return "Missing required field: " + pgErr.ColumnName
			}
			return "A required field is missing"
		case pgCheckViolation:
			return "One of the values is out of the allowed range"
		case pgInvalidTextRepr:
			return "One of the values has an invalid format"
		case pgNumericOutOfRange:
			return "A numeric value is too large"
		}
		if pgErr.Message != "" {
			return pgErr.Message
		}
	}

	var connErr *pgconn.ConnectError
	if errors.As(err, &connErr) {
		return "The database is unavailable"
	}

	return err.Error()
}

func uniqueViolationMessage(constraint string) string {
	switch constraint {
	case "cars_slug_key":
		return "A car with this name already exists"
	case "car_images_car_id_path_key":
		return "The same image was submitted twice"
	case "car_pricing_car_id_key":
		return "Pricing already exists for this car"
	default:
		return "A record with the same value already exists"
	}
}

// IsUniqueViolation reports a unique constraint violation anywhere in the chain
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation
}
