package db

import (
	"strings"

	pkgerrors "github.com/angelmondragon/storefront-backend/pkg/errors"
)

const sqlStateUniqueViolation = "23505"

// IsUniqueViolation reports whether err is a unique-constraint violation from
// Postgres (pgx or lib/pq) or SQLite. When constraintName is provided the
// constraint must also appear in the error.
func IsUniqueViolation(err error, constraintName string) bool {
	if err == nil {
		return false
	}
	dump := pkgerrors.Dump(err)
	if dump.PGCode == sqlStateUniqueViolation {
		return constraintName == "" || dump.PGConstraint == constraintName || strings.Contains(dump.TopMessage, constraintName)
	}

	msg := err.Error()
	if !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	return constraintName == "" || strings.Contains(msg, constraintName)
}
