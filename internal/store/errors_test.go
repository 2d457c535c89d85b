package store

import (
	"database/sql"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
)

func TestClassify(t *testing.T) {
	assert.Nil(t, classify(nil))
	assert.ErrorIs(t, classify(sql.ErrNoRows), ErrNotFound)

	dup := classify(&pgconn.PgError{Code: "23505"})
	assert.ErrorIs(t, dup, ErrDuplicate)
	assert.ErrorIs(t, dup, ErrConstraint)
	assert.NotErrorIs(t, dup, ErrForeignKey)

	fk := classify(&pgconn.PgError{Code: "23503"})
	assert.ErrorIs(t, fk, ErrForeignKey)
	assert.ErrorIs(t, fk, ErrConstraint)

	check := classify(&pgconn.PgError{Code: "23514"})
	assert.ErrorIs(t, check, ErrConstraint)

	other := errors.New("boom")
	assert.Equal(t, other, classify(other))
}

func TestWrapKeepsSentinel(t *testing.T) {
	err := wrap("getting warehouse", sql.ErrNoRows)
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "getting warehouse")
}
