package store

import (
	"errors"

	"github.com/lib/pq"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a write would violate a uniqueness rule,
// such as a reused email or a second active application for the same role.
var ErrDuplicate = errors.New("duplicate record")

// ErrStaleStatus is returned by a conditional status update when the stored
// status no longer matches the expected one.
var ErrStaleStatus = errors.New("status changed concurrently")

const uniqueViolation = "23505"

func mapWriteError(err error) error {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return ErrDuplicate
	}
	return err
}
