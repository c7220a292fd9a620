// Package store provides persistent storage for student records using SQLite.
//
// # Architecture
//
// Store is the single interface used by the rest of the portal:
//
//   - AddStudent: stamp enrollment data and insert, returning the new id
//   - GetStudent: fetch one record by id (nil when absent)
//   - ListStudents: fetch all records in ascending id order
//   - UpdateStudent: replace a whole record keyed by id
//   - DeleteStudent: remove a record, idempotently
//
// SQLiteStore owns exactly one database handle. It is opened lazily by the
// first operation (or an explicit Open) and reused afterwards; a failed open
// is retried on the next call. Every operation is its own unit of work:
// writes run in a transaction that is rolled back on error, reads close
// their rows before returning.
//
// # Data Model
//
// Records live in one collection (table "students") keyed by an
// auto-incrementing integer id. The record value is the full JSON student
// document, so fields the portal does not model survive a round trip.
//
//	CREATE TABLE students (
//	    id  INTEGER PRIMARY KEY AUTOINCREMENT,
//	    doc TEXT NOT NULL
//	);
//
// The schema version is kept in PRAGMA user_version. A database written by
// a newer version refuses to open.
//
// # Drivers
//
// The default driver is modernc.org/sqlite ("sqlite"), which needs no cgo.
// github.com/mattn/go-sqlite3 ("sqlite3") can be selected with WithDriver
// when the binary is built with cgo.
//
// # Error Handling
//
//   - ErrStoreUnavailable: the database could not be opened
//   - ErrRead: a get or list failed
//   - ErrWrite: an add, update or delete failed
//
// Errors wrap one of these sentinels; use errors.Is. A missing record is not
// an error.
//
// # Testing
//
// Use NewMockStore() for unit tests of code above the store, and
// NewSQLiteStore(filepath.Join(t.TempDir(), "test.db")) for tests against
// real SQLite.
package store
