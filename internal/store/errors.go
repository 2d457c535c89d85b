package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

// Store errors. Callers match them with errors.Is.
var (
	ErrNotFound          = errors.New("not found")
	ErrConstraint        = errors.New("constraint violation")
	ErrDuplicate         = fmt.Errorf("%w: duplicate", ErrConstraint)
	ErrForeignKey        = fmt.Errorf("%w: referenced entity not found", ErrConstraint)
	ErrInvalidTransition = errors.New("invalid status transition")
)

// Postgres SQLSTATE codes.
const (
	pgUniqueViolation     = "23505"
	pgForeignKeyViolation = "23503"
)

// classify maps driver errors onto the store's sentinel errors. Errors it
// does not recognise are returned unchanged.
func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, sql.ErrNoRows) {
		return ErrNotFound
	}

	var sqliteErr *sqlite.Error
	if errors.As(err, &sqliteErr) {
		switch sqliteErr.Code() {
		case sqlite3.SQLITE_CONSTRAINT_UNIQUE, sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY:
			return fmt.Errorf("%w (%w)", ErrDuplicate, err)
		case sqlite3.SQLITE_CONSTRAINT_FOREIGNKEY:
			return fmt.Errorf("%w (%w)", ErrForeignKey, err)
		}
		if sqliteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT {
			msg := sqliteErr.Error()
			switch {
			case strings.Contains(msg, "FOREIGN KEY"):
				return fmt.Errorf("%w (%w)", ErrForeignKey, err)
			case strings.Contains(msg, "UNIQUE"):
				return fmt.Errorf("%w (%w)", ErrDuplicate, err)
			}
			return fmt.Errorf("%w (%w)", ErrConstraint, err)
		}
		return err
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		switch pgErr.Code {
		case pgUniqueViolation:
			return fmt.Errorf("%w (%w)", ErrDuplicate, err)
		case pgForeignKeyViolation:
			return fmt.Errorf("%w (%w)", ErrForeignKey, err)
		}
		if strings.HasPrefix(pgErr.Code, "23") {
			return fmt.Errorf("%w (%w)", ErrConstraint, err)
		}
	}

	return err
}

// wrap classifies err and prefixes it with the failed operation.
func wrap(op string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", op, classify(err))
}
