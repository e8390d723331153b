// Package repository defines the MySQL stores for users and leads and the
// error values shared by every store driver.  These sentinel values allow
// higher layers such as services and handlers to distinguish between
// different failure scenarios without knowing which driver is in use.
package repository

import (
	"errors"
	"strings"

	"github.com/go-sql-driver/mysql"
)

// ErrNotFound is returned when a record does not exist or is owned by
// someone else.  The two cases are deliberately the same value.
var ErrNotFound = errors.New("not found")

// ErrDuplicate is returned when a lead with the same email already exists
// for the same owner.
var ErrDuplicate = errors.New("duplicate")

// ErrEmailExists is returned when a user registers with an email that is
// already taken.
var ErrEmailExists = errors.New("email already exists")

// isDuplicateKey reports whether err is a MySQL unique-key violation (1062).
func isDuplicateKey(err error) bool {
	var me *mysql.MySQLError
	if errors.As(err, &me) {
		return me.Number == 1062
	}
	return strings.Contains(strings.ToLower(err.Error()), "1062")
}
