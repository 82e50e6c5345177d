package db

import (
	"errors"
	"strings"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/lib/pq"
)

const uniqueViolationCode = "23505"

// IsUniqueViolation reports whether err is a Postgres unique violation. When
// constraint names are given, the violation must reference one of them. The
// message fallback keeps the check working under sqlite in tests.
func IsUniqueViolation(err error, constraints ...string) bool {
	if err == nil {
		return false
	}

	code, constraint := "", ""
	var pgErr *pgconn.PgError
	var pqErr *pq.Error
	switch {
	case errors.As(err, &pgErr):
		code, constraint = pgErr.Code, pgErr.ConstraintName
	case errors.As(err, &pqErr):
		code, constraint = string(pqErr.Code), pqErr.Constraint
	}

	msg := err.Error()
	if code != "" && code != uniqueViolationCode {
		return false
	}
	if code == "" && !strings.Contains(msg, "duplicate key value") && !strings.Contains(msg, "UNIQUE constraint failed") {
		return false
	}
	if len(constraints) == 0 {
		return true
	}
	for _, name := range constraints {
		if constraint == name || strings.Contains(msg, name) {
			return true
		}
	}
	return false
}
