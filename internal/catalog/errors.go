package catalog

import "errors"

var (
	// ErrInvalid is returned for a malformed field value, quantity or change set.
	ErrInvalid = errors.New("invalid book field")

	// ErrNotFound is returned when no live book has the ISBN.
	ErrNotFound = errors.New("book not found")

	// ErrConflict is returned when an ISBN change would collide with an
	// existing record or rename a book to its own ISBN.
	ErrConflict = errors.New("isbn conflict")

	// ErrInsufficient is returned when stock cannot cover a purchase.
	ErrInsufficient = errors.New("insufficient stock")

	// ErrNoSelection is returned when an operation needs a selected book.
	ErrNoSelection = errors.New("no book selected")
)
