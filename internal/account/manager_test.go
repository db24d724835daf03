package account

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/bookstore/internal/record"
)

func ptr(s string) *string { return &s }

func openTestManager(t *testing.T) (*Manager, string) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "users.dat")
	m, err := Open(path, nil)
	require.NoError(t, err)
	t.Cleanup(func() { m.Close() })
	return m, path
}

func requireOnlyRoot(t *testing.T, path string) {
	t.Helper()
	f, err := record.Open[User](path, infoSlots, userCodec{})
	require.NoError(t, err)
	defer f.Close()

	n, err := f.Info(slotCount)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	size, err := f.Size()
	require.NoError(t, err)
	assert.Equal(t, f.HeaderSize()+f.RecordSize(), size)

	u, err := f.Read(f.Offset(0))
	require.NoError(t, err)
	assert.Equal(t, rootUser(), u)
}

func TestOpen_BootstrapsMissingFile(t *testing.T) {
	_, path := openTestManager(t)
	requireOnlyRoot(t, path)
}

func TestOpen_RepairsEmptyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.dat")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	m, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	requireOnlyRoot(t, path)
}

func TestOpen_RepairsGarbageFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.dat")
	garbage := make([]byte, 500)
	for i := range garbage {
		garbage[i] = byte(i)
	}
	require.NoError(t, os.WriteFile(path, garbage, 0o644))

	m, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, m.Close())

	requireOnlyRoot(t, path)
}

func TestOpen_RepairsZeroCount(t *testing.T) {
	m, path := openTestManager(t)
	require.NoError(t, m.Register("alice", "pw1", "Alice"))
	require.NoError(t, m.file.SetInfo(slotCount, 0))
	require.NoError(t, m.Close())

	m2, err := Open(path, nil)
	require.NoError(t, err)
	require.NoError(t, m2.Close())

	requireOnlyRoot(t, path)
}

func TestOpen_RepairsTamperedRoot(t *testing.T) {
	m, path := openTestManager(t)
	require.NoError(t, m.ChangePassword(RootID, ptr(RootPassword), "hacked", PrivilegeRoot))
	require.NoError(t, m.Close())

	m2, err := Open(path, nil)
	require.NoError(t, err)
	defer m2.Close()

	_, err = m2.Login(RootID, ptr(RootPassword), PrivilegeGuest)
	assert.NoError(t, err)
	requireOnlyRoot(t, path)
}

func TestOpen_KeepsIntactFile(t *testing.T) {
	m, path := openTestManager(t)
	require.NoError(t, m.Register("alice", "pw1", "Alice"))
	require.NoError(t, m.Close())

	m2, err := Open(path, nil)
	require.NoError(t, err)
	defer m2.Close()

	u, err := m2.Login("alice", ptr("pw1"), PrivilegeGuest)
	require.NoError(t, err)
	assert.Equal(t, PrivilegeCustomer, u.Privilege)
}

func TestIntact(t *testing.T) {
	path := filepath.Join(t.TempDir(), "users.dat")
	f, err := record.Open[User](path, infoSlots, userCodec{})
	require.NoError(t, err)
	defer f.Close()

	ok, err := Intact(f)
	require.NoError(t, err)
	assert.False(t, ok, "header only")

	_, err = f.Append(rootUser())
	require.NoError(t, err)
	ok, err = Intact(f)
	require.NoError(t, err)
	assert.False(t, ok, "count slot still zero")

	require.NoError(t, f.SetInfo(slotCount, 1))
	ok, err = Intact(f)
	require.NoError(t, err)
	assert.True(t, ok)

	bad := rootUser()
	bad.Privilege = PrivilegeClerk
	require.NoError(t, f.Update(bad, f.Offset(0)))
	ok, err = Intact(f)
	require.NoError(t, err)
	assert.False(t, ok, "root privilege changed")

	require.NoError(t, Rebuild(f))
	ok, err = Intact(f)
	require.NoError(t, err)
	assert.True(t, ok)
}

func TestRegister(t *testing.T) {
	m, _ := openTestManager(t)

	require.NoError(t, m.Register("alice", "pw1", "Alice"))

	u, err := m.Lookup("alice")
	require.NoError(t, err)
	assert.Equal(t, User{ID: "alice", Password: "pw1", Name: "Alice", Privilege: PrivilegeCustomer}, u)

	err = m.Register("alice", "other", "Other")
	assert.True(t, errors.Is(err, ErrExists))

	err = m.Register(RootID, "x", "x")
	assert.True(t, errors.Is(err, ErrExists))
}

func TestRegister_Validation(t *testing.T) {
	m, _ := openTestManager(t)

	tests := []struct {
		name, id, pw, display string
	}{
		{"empty id", "", "pw", "n"},
		{"space in id", "a b", "pw", "n"},
		{"quote in id", `a"b`, "pw", "n"},
		{"quote in password", "a", `p"w`, "n"},
		{"id too long", "0123456789012345678901234567890", "pw", "n"},
		{"control char", "a\tb", "pw", "n"},
		{"non ascii name", "a", "pw", "名字"},
		{"empty name", "a", "pw", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := m.Register(tt.id, tt.pw, tt.display)
			assert.True(t, errors.Is(err, ErrInvalid), "got %v", err)
		})
	}

	assert.NoError(t, m.Register("quoted", "pw", `"Q"`), "quotes allowed in display name")
	assert.NoError(t, m.Register("012345678901234567890123456789", "pw", "max"))
}

func TestLogin(t *testing.T) {
	m, _ := openTestManager(t)
	require.NoError(t, m.Register("alice", "pw1", "Alice"))
	require.NoError(t, m.AddUser("clerk", "cpw", PrivilegeClerk, "Clerk", PrivilegeRoot))

	_, err := m.Login("alice", ptr("pw1"), PrivilegeGuest)
	assert.NoError(t, err)

	_, err = m.Login("alice", ptr("PW1"), PrivilegeGuest)
	assert.True(t, errors.Is(err, ErrDenied), "password is case-sensitive")

	_, err = m.Login("nobody", ptr("x"), PrivilegeRoot)
	assert.True(t, errors.Is(err, ErrNotFound))

	_, err = m.Login("alice", nil, PrivilegeClerk)
	assert.NoError(t, err, "higher privilege may switch without password")

	_, err = m.Login("clerk", nil, PrivilegeClerk)
	assert.True(t, errors.Is(err, ErrDenied), "equal privilege needs password")

	_, err = m.Login("clerk", nil, PrivilegeCustomer)
	assert.True(t, errors.Is(err, ErrDenied))

	u, err := m.Login("clerk", nil, PrivilegeRoot)
	require.NoError(t, err)
	assert.Equal(t, PrivilegeClerk, u.Privilege)
}

func TestChangePassword(t *testing.T) {
	m, _ := openTestManager(t)
	require.NoError(t, m.Register("alice", "pw1", "Alice"))

	err := m.ChangePassword("alice", ptr("wrong"), "pw2", PrivilegeCustomer)
	assert.True(t, errors.Is(err, ErrDenied))

	require.NoError(t, m.ChangePassword("alice", ptr("pw1"), "pw2", PrivilegeCustomer))
	_, err = m.Login("alice", ptr("pw2"), PrivilegeGuest)
	assert.NoError(t, err)

	err = m.ChangePassword("alice", nil, "pw3", PrivilegeClerk)
	assert.True(t, errors.Is(err, ErrDenied), "only root may force")

	require.NoError(t, m.ChangePassword("alice", nil, "pw3", PrivilegeRoot))
	_, err = m.Login("alice", ptr("pw3"), PrivilegeGuest)
	assert.NoError(t, err)

	err = m.ChangePassword("alice", ptr("pw3"), "bad pw", PrivilegeCustomer)
	assert.True(t, errors.Is(err, ErrInvalid))

	err = m.ChangePassword("ghost", nil, "pw", PrivilegeRoot)
	assert.True(t, errors.Is(err, ErrNotFound))
}

func TestAddUser(t *testing.T) {
	m, _ := openTestManager(t)

	require.NoError(t, m.AddUser("clerk", "cpw", PrivilegeClerk, "Clerk", PrivilegeRoot))

	err := m.AddUser("peer", "pw", PrivilegeClerk, "Peer", PrivilegeClerk)
	assert.True(t, errors.Is(err, ErrDenied), "caller must be strictly above target")

	require.NoError(t, m.AddUser("cust", "pw", PrivilegeCustomer, "Cust", PrivilegeClerk))

	err = m.AddUser("odd", "pw", 2, "Odd", PrivilegeRoot)
	assert.True(t, errors.Is(err, ErrInvalid))

	err = m.AddUser("clerk", "pw", PrivilegeCustomer, "Dup", PrivilegeRoot)
	assert.True(t, errors.Is(err, ErrExists))

	err = m.AddUser("root2", "pw", PrivilegeRoot, "R", PrivilegeRoot)
	assert.True(t, errors.Is(err, ErrDenied))
}

func TestDelete_TombstoneFreesIdentity(t *testing.T) {
	m, _ := openTestManager(t)
	require.NoError(t, m.AddUser("bob", "pw", PrivilegeClerk, "Bob", PrivilegeRoot))

	before, err := m.Records()
	require.NoError(t, err)

	require.NoError(t, m.Delete("bob"))
	_, err = m.Lookup("bob")
	assert.True(t, errors.Is(err, ErrNotFound))

	err = m.Delete("bob")
	assert.True(t, errors.Is(err, ErrNotFound))

	require.NoError(t, m.Register("bob", "new", "Bobby"))
	u, err := m.Lookup("bob")
	require.NoError(t, err)
	assert.Equal(t, PrivilegeCustomer, u.Privilege, "fresh record, privilege reset")
	assert.Equal(t, "new", u.Password)

	after, err := m.Records()
	require.NoError(t, err)
	assert.Equal(t, before+1, after, "append-only: no slot recycling")

	users, err := m.Users()
	require.NoError(t, err)
	ids := make([]string, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	assert.Equal(t, []string{RootID, "bob"}, ids)
}

func TestDelete_SurvivesReopen(t *testing.T) {
	m, path := openTestManager(t)
	require.NoError(t, m.Register("alice", "pw1", "Alice"))
	require.NoError(t, m.Delete("alice"))
	require.NoError(t, m.Close())

	m2, err := Open(path, nil)
	require.NoError(t, err)
	defer m2.Close()

	_, err = m2.Lookup("alice")
	assert.True(t, errors.Is(err, ErrNotFound))
	n, err := m2.Records()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestVerify(t *testing.T) {
	m, _ := openTestManager(t)
	require.NoError(t, m.Register("alice", "pw", "Alice"))
	require.NoError(t, m.Verify())

	require.NoError(t, m.file.Update(User{ID: "root", Password: "changed", Name: "Super Admin", Privilege: PrivilegeRoot}, m.file.Offset(0)))
	assert.Error(t, m.Verify())
}
