package app

import (
	"errors"

	"github.com/roach88/bookstore/internal/account"
	"github.com/roach88/bookstore/internal/catalog"
	"github.com/roach88/bookstore/internal/command"
	"github.com/roach88/bookstore/internal/ledger"
	"github.com/roach88/bookstore/internal/money"
	"github.com/roach88/bookstore/internal/session"
)

var (
	// ErrArity is returned for a command with the wrong number of arguments.
	ErrArity = errors.New("wrong number of arguments")

	// ErrPrivilege is returned when the privilege in force is too low.
	ErrPrivilege = errors.New("insufficient privilege")

	// ErrLoggedIn is returned when deleting a user who has an active login.
	ErrLoggedIn = errors.New("user is logged in")

	// errStop ends the command loop.
	errStop = errors.New("stop")
)

// rejections are the recoverable failures. Each leaves state unchanged
// and is reported to the user as "Invalid".
var rejections = []error{
	ErrArity,
	ErrPrivilege,
	ErrLoggedIn,
	command.ErrUnprintable,
	command.ErrUnknown,
	command.ErrSyntax,
	money.ErrSyntax,
	money.ErrPrecision,
	money.ErrOverflow,
	account.ErrInvalid,
	account.ErrExists,
	account.ErrNotFound,
	account.ErrDenied,
	catalog.ErrInvalid,
	catalog.ErrNotFound,
	catalog.ErrConflict,
	catalog.ErrInsufficient,
	catalog.ErrNoSelection,
	ledger.ErrInvalid,
	ledger.ErrTooMany,
	session.ErrEmpty,
}

// IsRejection reports whether err is a recoverable command failure.
// Anything else (I/O errors, record bounds violations) is fatal.
func IsRejection(err error) bool {
	if err == nil {
		return false
	}
	for _, target := range rejections {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
