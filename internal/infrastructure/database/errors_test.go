package database

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestPgErrorTranslator(t *testing.T) {
	tr := NewPgErrorTranslator()

	tests := []struct {
		name string
		err  error
		want string
	}{
		{"nil", nil, ""},
		{"timeout", fmt.Errorf("query: %w", context.DeadlineExceeded), "The database took too long to respond"},
		{"cancelled", context.Canceled, "The request was cancelled"},
		{"no rows", pgx.ErrNoRows, "The requested record does not exist"},
		{"slug taken", &pgconn.PgError{Code: "23505", ConstraintName: "cars_slug_key"}, "A car with this name already exists"},
		{"duplicate image", &pgconn.PgError{Code: "23505", ConstraintName: "car_images_car_id_path_key"}, "The same image was submitted twice"},
		{"other unique", &pgconn.PgError{Code: "23505", ConstraintName: "something_else"}, "A record with the same value already exists"},
		{"foreign key", &pgconn.PgError{Code: "23503"}, "The referenced car does not exist"},
		{"not null with column", &pgconn.PgError{Code: "23502", ColumnName: "category"}, "Missing required field: category"},
		{"not null", &pgconn.PgError{Code: "23502"}, "A required field is missing"},
		{"check", &pgconn.PgError{Code: "23514"}, "One of the values is out of the allowed range"},
		{"bad text", &pgconn.PgError{Code: "22P02"}, "One of the values has an invalid format"},
		{"numeric", &pgconn.PgError{Code: "22003"}, "A numeric value is too large"},
		{"unknown pg code", &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}, "relation does not exist"},
		{"plain", errors.New("socket closed"), "socket closed"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tr.Translate(tt.err))
		})
	}
}

func TestIsUniqueViolation(t *testing.T) {
	assert.True(t, IsUniqueViolation(fmt.Errorf("insert: %w", &pgconn.PgError{Code: "23505"})))
	assert.False(t, IsUniqueViolation(&pgconn.PgError{Code: "23503"}))
	assert.False(t, IsUniqueViolation(errors.New("x")))
	assert.False(t, IsUniqueViolation(nil))
}
