package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned by repositories when no row matches.
// Callers classify with errors.Is.
var ErrNotFound = errors.New("not found")

// IsUniqueViolation reports whether err is a Postgres unique-constraint
// violation (code 23505), however deeply wrapped.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}
