// Package storage provides storage backends for governance data.
//
// # Backends
//
//   - SQL: database/sql over SQLite (github.com/mattn/go-sqlite3, driver
//     "sqlite3", or modernc.org/sqlite, driver "sqlite") or PostgreSQL
//     (github.com/jackc/pgx/v5/stdlib, driver "pgx").
//   - Memory: in-memory maps for tests.
//
// SQLite runs in WAL mode with a busy timeout so the read API and the CLI
// can read while a cycle writes.
//
// # Basic Usage
//
//	store, err := storage.NewSQLStorage(&storage.SQLConfig{
//	    Driver:      storage.DriverSQLite3,
//	    DSN:         "data/steward.db",
//	    WALMode:     true,
//	    BusyTimeout: 5 * time.Second,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
// The event_log table is append-only: neither backend exposes an update or
// delete for events.
package storage
