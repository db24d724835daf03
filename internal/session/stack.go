// Package session tracks the stack of logged-in users.
//
// Nested su without logout pushes a new context. The privilege in force is
// always the top context's; an empty stack has privilege 0. Sessions live
// in memory only.
package session

import (
	"errors"
	"slices"

	"github.com/google/uuid"

	"github.com/roach88/bookstore/internal/catalog"
)

// ErrEmpty is returned when popping an empty stack.
var ErrEmpty = errors.New("no active session")

// Context is one login.
type Context struct {
	UserID string
	// Privilege is copied from the user record at login and not re-read.
	Privilege int
	Selected  catalog.Cursor
	// Token identifies the login in debug logs.
	Token string
}

// TokenGenerator creates session tokens.
type TokenGenerator interface {
	Generate() string
}

// UUIDv7Generator generates time-sortable UUIDv7 session tokens.
type UUIDv7Generator struct{}

// Generate creates a new UUIDv7 and returns it as a hyphenated string.
//
// Panics if UUID generation fails (should never happen in practice).
func (UUIDv7Generator) Generate() string {
	return uuid.Must(uuid.NewV7()).String()
}

// Stack is the login stack.
type Stack struct {
	contexts []Context
	tokens   TokenGenerator
}

// NewStack returns an empty stack. A nil generator means UUIDv7Generator.
func NewStack(tokens TokenGenerator) *Stack {
	if tokens == nil {
		tokens = UUIDv7Generator{}
	}
	return &Stack{tokens: tokens}
}

// Push starts a new login for userID at privilege and returns its context.
func (s *Stack) Push(userID string, privilege int) Context {
	ctx := Context{
		UserID:    userID,
		Privilege: privilege,
		Selected:  catalog.NoCursor,
		Token:     s.tokens.Generate(),
	}
	s.contexts = append(s.contexts, ctx)
	return ctx
}

// Pop ends the most recent login.
func (s *Stack) Pop() (Context, error) {
	if len(s.contexts) == 0 {
		return Context{}, ErrEmpty
	}
	top := s.contexts[len(s.contexts)-1]
	s.contexts = s.contexts[:len(s.contexts)-1]
	return top, nil
}

// Top returns the current login. ok is false when the stack is empty.
func (s *Stack) Top() (ctx Context, ok bool) {
	if len(s.contexts) == 0 {
		return Context{}, false
	}
	return s.contexts[len(s.contexts)-1], true
}

// Select sets the selection cursor of the current login.
func (s *Stack) Select(c catalog.Cursor) error {
	if len(s.contexts) == 0 {
		return ErrEmpty
	}
	s.contexts[len(s.contexts)-1].Selected = c
	return nil
}

// Privilege returns the privilege in force, 0 when nobody is logged in.
func (s *Stack) Privilege() int {
	if top, ok := s.Top(); ok {
		return top.Privilege
	}
	return 0
}

// Empty reports whether nobody is logged in.
func (s *Stack) Empty() bool {
	return len(s.contexts) == 0
}

// Depth returns the number of active logins.
func (s *Stack) Depth() int {
	return len(s.contexts)
}

// IsLoggedIn reports whether id has a login anywhere in the stack.
func (s *Stack) IsLoggedIn(id string) bool {
	return slices.ContainsFunc(s.contexts, func(c Context) bool {
		return c.UserID == id
	})
}
