package postgres

import (
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
)

const pgUniqueViolation = "23505"

// uniqueConstraint returns the violated constraint name for a 23505 error.
func uniqueConstraint(err error) (string, bool) {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgUniqueViolation {
		return pgErr.ConstraintName, true
	}
	return "", false
}

// validID guards lookups so a malformed path id reads as "not found" rather
// than a 22P02 cast error from Postgres.
func validID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
