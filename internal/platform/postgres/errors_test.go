package postgres

import (
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/recall-api/internal/store"
	"github.com/stretchr/testify/assert"
)

func TestMapError(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		err      error
		expected error
	}{
		{"no rows", sql.ErrNoRows, store.ErrNotFound},
		{"wrapped no rows", fmt.Errorf("scan: %w", sql.ErrNoRows), store.ErrNotFound},
		{"unique violation", &pgconn.PgError{Code: uniqueViolationCode}, store.ErrDuplicate},
		{"foreign key violation", &pgconn.PgError{Code: foreignKeyViolationCode, ConstraintName: "fk_user"}, store.ErrInvalidEntity},
		{"check violation", &pgconn.PgError{Code: checkViolationCode, ConstraintName: "chk_interval"}, store.ErrInvalidEntity},
		{"not null violation", &pgconn.PgError{Code: notNullViolationCode, ColumnName: "score"}, store.ErrInvalidEntity},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			mapped := MapError(tt.err)
			assert.ErrorIs(t, mapped, tt.expected)
			assert.ErrorIs(t, mapped, tt.err, "original error stays in the chain")
		})
	}

	t.Run("nil", func(t *testing.T) {
		t.Parallel()
		assert.NoError(t, MapError(nil))
	})

	t.Run("unmapped error passes through", func(t *testing.T) {
		t.Parallel()
		original := errors.New("connection refused")
		assert.Same(t, original, MapError(original))
	})

	t.Run("unmapped pg code passes through", func(t *testing.T) {
		t.Parallel()
		original := &pgconn.PgError{Code: "40001"}
		assert.Equal(t, error(original), MapError(original))
	})
}

func TestMapUniqueViolation(t *testing.T) {
	t.Parallel()

	err := MapUniqueViolation(&pgconn.PgError{Code: uniqueViolationCode}, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrDuplicate)

	err = MapUniqueViolation(sql.ErrNoRows, store.ErrEmailExists)
	assert.ErrorIs(t, err, store.ErrNotFound)
	assert.NotErrorIs(t, err, store.ErrEmailExists)
}
