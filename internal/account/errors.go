package account

import "errors"

var (
	// ErrInvalid is returned when an id, password, name or privilege is malformed.
	ErrInvalid = errors.New("invalid account field")

	// ErrExists is returned when the id is already taken by a live user.
	ErrExists = errors.New("user already exists")

	// ErrNotFound is returned when no live user has the id.
	ErrNotFound = errors.New("user not found")

	// ErrDenied is returned for a wrong password or insufficient caller privilege.
	ErrDenied = errors.New("permission denied")
)
