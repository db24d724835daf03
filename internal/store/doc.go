// Package store exports the bookstore record files to SQLite.
//
// The binary record files stay authoritative. An export is a read-only
// snapshot for ad hoc SQL: every table is cleared and refilled inside one
// transaction, so a database always holds one consistent snapshot.
//
// Tables:
//   - users: live accounts (passwords are not exported)
//   - books: live catalog records
//   - ledger: every finance entry in posting order
//   - audit_log: every audit entry in recording order
//
// # Database Configuration
//
//   - WAL mode: Concurrent reads during writes
//   - synchronous=NORMAL: Balance durability/performance
//   - busy_timeout=5000: Wait for locks up to 5 seconds
package store
