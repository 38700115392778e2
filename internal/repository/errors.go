// Package repository holds the database/sql data access layer, one
// repository per table.  Ownership is enforced in SQL and surfaced through
// the sentinel errors below so handlers can map them to HTTP statuses.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when no row matches.  Rows owned by someone else
// are reported the same way so their existence is not leaked.
var ErrNotFound = errors.New("not found")

// ErrForbidden is returned when the caller is authenticated but the
// operation is not theirs to perform (e.g. reviewing another driver's request).
var ErrForbidden = errors.New("forbidden")

// ErrConflict is returned when the operation clashes with existing state,
// such as a second mechanic profile for one user or a duplicate review.
var ErrConflict = errors.New("conflict")

// ErrEmailExists is returned on signup with an address already registered.
var ErrEmailExists = errors.New("email already exists")

// ErrInvalidTransition is returned when a service request status change is
// not allowed from its current status.
var ErrInvalidTransition = errors.New("invalid status transition")

// mysqlDuplicateEntry is ER_DUP_ENTRY.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// ErrNotCompleted is returned when reviewing a request that has not been completed.
var ErrNotCompleted = errors.New("service request is not completed")
