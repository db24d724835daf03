// Package account stores users and their privilege levels.
//
// Users live in a record.File with a single info slot holding the record
// count. Deleting a user clears its id in place; the freed id can be
// registered again as a brand new record appended at the end.
package account

import (
	"fmt"
	"log/slog"

	"github.com/dolthub/swiss"

	"github.com/roach88/bookstore/internal/record"
)

const (
	infoSlots = 1
	slotCount = 1
)

// Manager owns the users file.
type Manager struct {
	file   *record.File[User]
	index  *swiss.Map[string, record.Offset]
	logger *slog.Logger
}

// Open opens the users file at path, repairing it if the bootstrap
// invariant does not hold, and builds the id index.
func Open(path string, logger *slog.Logger) (*Manager, error) {
	if logger == nil {
		logger = slog.Default()
	}

	f, err := record.Open[User](path, infoSlots, userCodec{})
	if err != nil {
		return nil, fmt.Errorf("open users: %w", err)
	}

	ok, err := Intact(f)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("check users: %w", err)
	}
	if !ok {
		logger.Warn("users file failed bootstrap check, rebuilding", "path", path)
		if err := Rebuild(f); err != nil {
			f.Close()
			return nil, fmt.Errorf("rebuild users: %w", err)
		}
	}

	m := &Manager{file: f, logger: logger}
	if err := m.reindex(); err != nil {
		f.Close()
		return nil, err
	}
	return m, nil
}

// Close releases the users file.
func (m *Manager) Close() error {
	return m.file.Close()
}

// Intact reports whether f satisfies the bootstrap invariant: it holds a
// header plus at least one record, the count slot is non-zero, and the
// first record is exactly the canonical root account.
func Intact(f *record.File[User]) (bool, error) {
	size, err := f.Size()
	if err != nil {
		return false, err
	}
	if size < f.HeaderSize()+f.RecordSize() {
		return false, nil
	}

	n, err := f.Info(slotCount)
	if err != nil {
		return false, err
	}
	if n <= 0 {
		return false, nil
	}

	first, err := f.Read(f.Offset(0))
	if err != nil {
		return false, err
	}
	root := rootUser()
	return first.ID == root.ID && first.Password == root.Password && first.Privilege == root.Privilege, nil
}

// Rebuild reinitialises f with the root account as its only record.
func Rebuild(f *record.File[User]) error {
	if err := f.Initialise(); err != nil {
		return err
	}
	if _, err := f.Append(rootUser()); err != nil {
		return err
	}
	return f.SetInfo(slotCount, 1)
}

func (m *Manager) count() (int64, error) {
	return m.file.Info(slotCount)
}

func (m *Manager) reindex() error {
	n, err := m.count()
	if err != nil {
		return fmt.Errorf("index users: %w", err)
	}
	m.index = swiss.NewMap[string, record.Offset](uint32(n) + 1)
	err = m.file.Scan(n, func(off record.Offset, u User) error {
		if !m.index.Has(u.ID) {
			m.index.Put(u.ID, off)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("index users: %w", err)
	}
	return nil
}

// find returns the live user with id and its offset.
func (m *Manager) find(id string) (User, record.Offset, error) {
	off, ok := m.index.Get(id)
	if !ok {
		return User{}, record.NoOffset, fmt.Errorf("%w: %q", ErrNotFound, id)
	}
	u, err := m.file.Read(off)
	if err != nil {
		return User{}, record.NoOffset, err
	}
	return u, off, nil
}

func (m *Manager) appendUser(u User) error {
	n, err := m.count()
	if err != nil {
		return err
	}
	off, err := m.file.Append(u)
	if err != nil {
		return err
	}
	if err := m.file.SetInfo(slotCount, n+1); err != nil {
		return err
	}
	m.index.Put(u.ID, off)
	return nil
}

// Register creates a privilege-1 user.
func (m *Manager) Register(id, password, name string) error {
	if !validField(id, false) || !validField(password, false) || !validField(name, true) {
		return fmt.Errorf("register: %w", ErrInvalid)
	}
	if _, ok := m.index.Get(id); ok {
		return fmt.Errorf("register %q: %w", id, ErrExists)
	}
	if err := m.appendUser(User{ID: id, Password: password, Name: name, Privilege: PrivilegeCustomer}); err != nil {
		return fmt.Errorf("register %q: %w", id, err)
	}
	m.logger.Debug("user registered", "user_id", id)
	return nil
}

// Login authenticates id. With a password it must match exactly; without
// one the caller's privilege must be strictly greater than the target's.
func (m *Manager) Login(id string, password *string, callerPrivilege int) (User, error) {
	u, _, err := m.find(id)
	if err != nil {
		return User{}, fmt.Errorf("login: %w", err)
	}
	if password != nil {
		if *password != u.Password {
			return User{}, fmt.Errorf("login %q: wrong password: %w", id, ErrDenied)
		}
	} else if callerPrivilege <= u.Privilege {
		return User{}, fmt.Errorf("login %q without password: %w", id, ErrDenied)
	}
	return u, nil
}

// ChangePassword sets a new password. Without the old password only the
// root privilege level may force it.
func (m *Manager) ChangePassword(id string, oldPassword *string, newPassword string, callerPrivilege int) error {
	if !validField(newPassword, false) {
		return fmt.Errorf("passwd: %w", ErrInvalid)
	}
	u, off, err := m.find(id)
	if err != nil {
		return fmt.Errorf("passwd: %w", err)
	}
	if oldPassword != nil {
		if *oldPassword != u.Password {
			return fmt.Errorf("passwd %q: wrong password: %w", id, ErrDenied)
		}
	} else if callerPrivilege != PrivilegeRoot {
		return fmt.Errorf("passwd %q without old password: %w", id, ErrDenied)
	}

	u.Password = newPassword
	if err := m.file.Update(u, off); err != nil {
		return fmt.Errorf("passwd %q: %w", id, err)
	}
	m.logger.Debug("password changed", "user_id", id)
	return nil
}

// AddUser creates a user with an explicit privilege, which must be below
// the caller's.
func (m *Manager) AddUser(id, password string, privilege int, name string, callerPrivilege int) error {
	if !validField(id, false) || !validField(password, false) || !validField(name, true) {
		return fmt.Errorf("useradd: %w", ErrInvalid)
	}
	if !ValidPrivilege(privilege) {
		return fmt.Errorf("useradd: privilege %d: %w", privilege, ErrInvalid)
	}
	if callerPrivilege <= privilege {
		return fmt.Errorf("useradd %q: %w", id, ErrDenied)
	}
	if _, ok := m.index.Get(id); ok {
		return fmt.Errorf("useradd %q: %w", id, ErrExists)
	}
	if err := m.appendUser(User{ID: id, Password: password, Name: name, Privilege: privilege}); err != nil {
		return fmt.Errorf("useradd %q: %w", id, err)
	}
	m.logger.Debug("user added", "user_id", id, "privilege", privilege)
	return nil
}

// Delete tombstones the user in place.
func (m *Manager) Delete(id string) error {
	u, off, err := m.find(id)
	if err != nil {
		return fmt.Errorf("delete: %w", err)
	}
	u.ID = ""
	if err := m.file.Update(u, off); err != nil {
		return fmt.Errorf("delete %q: %w", id, err)
	}
	m.index.Delete(id)
	m.logger.Debug("user deleted", "user_id", id)
	return nil
}

// Lookup returns the live user with id.
func (m *Manager) Lookup(id string) (User, error) {
	u, _, err := m.find(id)
	return u, err
}

// Users returns all live users in file order.
func (m *Manager) Users() ([]User, error) {
	n, err := m.count()
	if err != nil {
		return nil, err
	}
	users := []User{}
	err = m.file.Scan(n, func(_ record.Offset, u User) error {
		users = append(users, u)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	return users, nil
}

// Records returns the high-water record count, tombstones included.
func (m *Manager) Records() (int64, error) {
	return m.count()
}

// Verify checks the count slot against the file and the bootstrap
// invariant. Open repairs the latter, so a failure here means the file was
// changed underneath the manager.
func (m *Manager) Verify() error {
	if err := m.file.CheckCount(slotCount); err != nil {
		return err
	}
	ok, err := Intact(m.file)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("%s: root account is not the first record", m.file.Path())
	}
	return nil
}
