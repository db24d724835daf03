package account

import (
	"github.com/roach88/bookstore/internal/record"
)

// Privilege levels. A caller may only act on users strictly below its own level.
const (
	PrivilegeGuest    = 0
	PrivilegeCustomer = 1
	PrivilegeClerk    = 3
	PrivilegeRoot     = 7
)

// Canonical bootstrap account. It always occupies the first record.
const (
	RootID       = "root"
	RootPassword = "sjtu"
	RootName     = "Super Admin"
)

// MaxFieldLen is the longest id, password or display name accepted.
const MaxFieldLen = 30

const fieldWidth = MaxFieldLen + 1

// User is one row of the users file. An empty ID marks a deleted user.
type User struct {
	ID        string
	Password  string
	Name      string
	Privilege int
}

// Tombstoned implements record.Record.
func (u User) Tombstoned() bool {
	return u.ID == ""
}

func rootUser() User {
	return User{ID: RootID, Password: RootPassword, Name: RootName, Privilege: PrivilegeRoot}
}

// userCodec lays a User out as id[31] password[31] name[31] privilege(int32).
type userCodec struct{}

var _ record.Codec[User] = userCodec{}

func (userCodec) Size() int {
	return 3*fieldWidth + 4
}

func (userCodec) Encode(u User, buf []byte) {
	e := record.NewEncoder(buf)
	e.String(u.ID, fieldWidth)
	e.String(u.Password, fieldWidth)
	e.String(u.Name, fieldWidth)
	e.Int32(int32(u.Privilege))
}

func (userCodec) Decode(buf []byte) User {
	d := record.NewDecoder(buf)
	return User{
		ID:        d.String(fieldWidth),
		Password:  d.String(fieldWidth),
		Name:      d.String(fieldWidth),
		Privilege: int(d.Int32()),
	}
}

// ValidPrivilege reports whether p is an assignable privilege level.
func ValidPrivilege(p int) bool {
	return p == PrivilegeCustomer || p == PrivilegeClerk || p == PrivilegeRoot
}

// validField checks an id, password or display name: 1..30 visible ASCII
// characters. Double quotes are only allowed when allowQuotes is set.
func validField(s string, allowQuotes bool) bool {
	if len(s) == 0 || len(s) > MaxFieldLen {
		return false
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c < 33 || c > 126 {
			return false
		}
		if c == '"' && !allowQuotes {
			return false
		}
	}
	return true
}
