package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"

	"github.com/MrJamesThe3rd/bookxchange/internal/ledger"
)

func TestMapError(t *testing.T) {
	other := errors.New("boom")

	tests := []struct {
		name string
		err  error
		want error
	}{
		{"NoRows", sql.ErrNoRows, ledger.ErrNotFound},
		{"SerializationFailure", &pgconn.PgError{Code: "40001"}, ledger.ErrConflict},
		{"Deadlock", &pgconn.PgError{Code: "40P01"}, ledger.ErrConflict},
		{"UniqueViolation", &pgconn.PgError{Code: "23505", ConstraintName: "users_pkey"}, ledger.ErrAlreadyExists},
		{"CheckViolation", &pgconn.PgError{Code: "23514", ConstraintName: "users_credits_non_negative"}, ledger.ErrInvalidInput},
		{"ForeignKeyViolation", &pgconn.PgError{Code: "23503"}, ledger.ErrNotFound},
		{"Unrelated", other, other},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, mapError(tt.err), tt.want)
		})
	}

	assert.NoError(t, mapError(nil))
}
