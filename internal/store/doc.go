// Package store provides durable ledger state for memorychain.
//
// The store holds four kinds of rows:
//   - Accounts: program-owned data keyed by address (records live here)
//   - Mints: typed balance definitions of the token ledger
//   - Token accounts: balances keyed by their associated address
//   - Receipts: one per executed transaction, ordered by seq
//
// # Critical Patterns
//
// Write-once accounts
//   - CreateAccount inserts with ON CONFLICT DO NOTHING and reports
//     ErrAlreadyExists when no row was written. There is no update or
//     delete path for accounts.
//
// Atomic transactions
//   - Every ledger transaction runs inside one *Tx. The engine rolls the
//     whole Tx back on any failure, so partial effects are never visible.
//
// Logical time
//   - Receipts are ordered by seq (logical clock), never by timestamp.
//   - All list queries use ORDER BY seq ASC.
//
// # Drivers
//
// SQLite (github.com/mattn/go-sqlite3) is the default; a DSN starting with
// postgres:// or postgresql:// selects Postgres (github.com/lib/pq). Queries
// are written with ? placeholders and rebound by sqlx for the active driver.
//
// SQLite configuration:
//   - WAL mode: concurrent reads during writes
//   - synchronous=NORMAL
//   - busy_timeout=5000
//   - foreign_keys=ON
package store
