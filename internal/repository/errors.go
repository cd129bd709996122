// Package repository implements the MySQL-backed stores for accounts,
// approved emails, refresh tokens, companies and work days. Sentinel
// errors let the service layer distinguish policy-relevant outcomes
// (missing row, unique-constraint violation) from plain storage
// failures without inspecting driver errors itself.
package repository

import (
	"errors"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a lookup, update or delete matches no row.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when an insert or update violates a unique
// constraint (email already taken, duplicate work day, reused token).
var ErrDuplicate = errors.New("duplicate entry")

// mysqlDuplicateEntry is the server error number for a unique-key
// violation.
const mysqlDuplicateEntry = 1062

func isDuplicate(err error) bool {
	var me *mysql.MySQLError
	return errors.As(err, &me) && me.Number == mysqlDuplicateEntry
}
