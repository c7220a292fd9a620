// ABOUTME: SQLite implementation of the Store interface using sqlx
// ABOUTME: Lazily opens one shared handle and runs each operation as its own unit of work

package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
	_ "modernc.org/sqlite"
)

// Supported database/sql driver names.
const (
	DriverModernc = "sqlite"  // modernc.org/sqlite, pure Go
	DriverCGO     = "sqlite3" // github.com/mattn/go-sqlite3
)

func init() {
	sqlx.BindDriver(DriverModernc, sqlx.QUESTION)
}

// SQLiteStore implements the Store interface using SQLite.
// The database is not touched until the first operation (or Open).
type SQLiteStore struct {
	path       string
	driver     string
	enrollment Enrollment
	logger     *slog.Logger

	mu sync.Mutex
	db *sqlx.DB
}

// Option configures a SQLiteStore.
type Option func(*SQLiteStore)

// WithDriver selects the database/sql driver (DriverModernc or DriverCGO).
func WithDriver(name string) Option {
	return func(s *SQLiteStore) {
		if name != "" {
			s.driver = name
		}
	}
}

// WithEnrollment overrides the rules used to stamp new students.
func WithEnrollment(e Enrollment) Option {
	return func(s *SQLiteStore) {
		s.enrollment = e
	}
}

// WithLogger sets the logger used by the store.
func WithLogger(logger *slog.Logger) Option {
	return func(s *SQLiteStore) {
		if logger != nil {
			s.logger = logger.With("component", "store")
		}
	}
}

// NewSQLiteStore creates a store for the database file at path.
// Use ":memory:" for a private in-memory database.
func NewSQLiteStore(path string, opts ...Option) *SQLiteStore {
	s := &SQLiteStore{
		path:       path,
		driver:     DriverModernc,
		enrollment: DefaultEnrollment(),
		logger:     slog.Default().With("component", "store"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Path returns the database location.
func (s *SQLiteStore) Path() string {
	return s.path
}

// Open makes sure the database is open and the collection exists.
// It is safe to call repeatedly and from several goroutines.
func (s *SQLiteStore) Open(ctx context.Context) error {
	_, err := s.handle(ctx)
	return err
}

// handle returns the shared database handle, opening it on first use.
// A failed open is not cached; the next call tries again.
func (s *SQLiteStore) handle(ctx context.Context) (*sqlx.DB, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db, nil
	}

	db, err := s.open(ctx)
	if err != nil {
		s.logger.Error("database error", "path", s.path, "driver", s.driver, "error", err)
		return nil, fmt.Errorf("%w: could not open database: %w", ErrStoreUnavailable, err)
	}
	s.db = db
	return db, nil
}

func (s *SQLiteStore) open(ctx context.Context) (*sqlx.DB, error) {
	if s.path != ":memory:" {
		// Ensure parent directory exists
		if err := os.MkdirAll(filepath.Dir(s.path), 0755); err != nil {
			return nil, fmt.Errorf("creating database directory: %w", err)
		}
	}

	db, err := sqlx.Open(s.driver, s.path)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	// One connection: operations are serialized through it, and an
	// in-memory database stays the same database across calls.
	db.SetMaxOpenConns(1)

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	if err := s.createSchema(ctx, db); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating schema: %w", err)
	}

	s.logger.Info("SQLite store initialized", "path", s.path, "database", DatabaseName, "version", SchemaVersion)
	return db, nil
}

// createSchema creates the students collection if absent and records the
// schema version in user_version.
func (s *SQLiteStore) createSchema(ctx context.Context, db *sqlx.DB) error {
	var version int
	if err := db.GetContext(ctx, &version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if version > SchemaVersion {
		return fmt.Errorf("database version %d is newer than supported version %d", version, SchemaVersion)
	}

	schema := `
		CREATE TABLE IF NOT EXISTS ` + CollectionName + ` (
			id  INTEGER PRIMARY KEY AUTOINCREMENT,
			doc TEXT NOT NULL
		);
	`
	if _, err := db.ExecContext(ctx, schema); err != nil {
		return err
	}

	if version < SchemaVersion {
		if _, err := db.ExecContext(ctx, fmt.Sprintf("PRAGMA user_version = %d", SchemaVersion)); err != nil {
			return fmt.Errorf("setting schema version: %w", err)
		}
		s.logger.Info("applied schema version", "from", version, "to", SchemaVersion)
	}
	return nil
}

// Close closes the database connection. A later operation reopens it.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return nil
	}
	s.logger.Info("closing SQLite store")
	err := s.db.Close()
	s.db = nil
	return err
}

// studentRow is one row of the students collection.
type studentRow struct {
	ID  int64  `db:"id"`
	Doc string `db:"doc"`
}

func (r studentRow) decode() (*Student, error) {
	var st Student
	if err := json.Unmarshal([]byte(r.Doc), &st); err != nil {
		return nil, fmt.Errorf("decoding student %d: %w", r.ID, err)
	}
	st.ID = r.ID
	return &st, nil
}

// encodeDoc serializes a student without its id; the key column owns it.
func encodeDoc(st *Student) (string, error) {
	c := *st
	c.ID = 0
	data, err := json.Marshal(c)
	if err != nil {
		return "", fmt.Errorf("encoding student: %w", err)
	}
	return string(data), nil
}

// inTx runs fn in a transaction that is rolled back unless fn succeeds.
func inTx(ctx context.Context, db *sqlx.DB, fn func(tx *sqlx.Tx) error) error {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

// isConstraintViolation checks if the error is a SQLite constraint violation
func isConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return strings.Contains(err.Error(), "constraint failed")
}

// AddStudent stores a new student. A positive student.ID is used as the key
// instead of the next auto-increment value; if that key is taken the add
// fails with ErrWrite.
func (s *SQLiteStore) AddStudent(ctx context.Context, student *Student) (int64, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return 0, err
	}

	rec := student.Clone()
	s.enrollment.Stamp(rec)

	doc, err := encodeDoc(rec)
	if err != nil {
		return 0, fmt.Errorf("%w: %w", ErrWrite, err)
	}

	var id int64
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		var res sql.Result
		var err error
		if rec.ID > 0 {
			res, err = tx.ExecContext(ctx, `INSERT INTO `+CollectionName+` (id, doc) VALUES (?, ?)`, rec.ID, doc)
		} else {
			res, err = tx.ExecContext(ctx, `INSERT INTO `+CollectionName+` (doc) VALUES (?)`, doc)
		}
		if err != nil {
			if isConstraintViolation(err) {
				return fmt.Errorf("student %d already exists: %w", rec.ID, err)
			}
			return fmt.Errorf("inserting student: %w", err)
		}
		id, err = res.LastInsertId()
		return err
	})
	if err != nil {
		return 0, fmt.Errorf("%w: error adding student: %w", ErrWrite, err)
	}

	student.ID = id
	student.DateEnrolled = rec.DateEnrolled
	student.StudentCode = rec.StudentCode

	s.logger.Debug("added student", "id", id, "code", rec.StudentCode)
	return id, nil
}

// ListStudents returns all students ordered by id.
func (s *SQLiteStore) ListStudents(ctx context.Context) ([]*Student, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var rows []studentRow
	if err := db.SelectContext(ctx, &rows, `SELECT id, doc FROM `+CollectionName+` ORDER BY id`); err != nil {
		return nil, fmt.Errorf("%w: error fetching students: %w", ErrRead, err)
	}

	students := make([]*Student, 0, len(rows))
	for _, row := range rows {
		st, err := row.decode()
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrRead, err)
		}
		students = append(students, st)
	}
	return students, nil
}

// GetStudent retrieves a student by id.
// Returns nil with no error if no student has that id.
func (s *SQLiteStore) GetStudent(ctx context.Context, id int64) (*Student, error) {
	db, err := s.handle(ctx)
	if err != nil {
		return nil, err
	}

	var row studentRow
	err = db.GetContext(ctx, &row, `SELECT id, doc FROM `+CollectionName+` WHERE id = ?`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: error fetching student: %w", ErrRead, err)
	}

	st, err := row.decode()
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrRead, err)
	}
	return st, nil
}

// UpdateStudent replaces the stored record with student. Nothing is merged:
// fields missing from student are gone afterwards. A record that does not
// exist yet is created under student.ID.
func (s *SQLiteStore) UpdateStudent(ctx context.Context, student *Student) error {
	if student.ID <= 0 {
		return fmt.Errorf("%w: error updating student: student id is required", ErrWrite)
	}

	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	doc, err := encodeDoc(student)
	if err != nil {
		return fmt.Errorf("%w: %w", ErrWrite, err)
	}

	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO `+CollectionName+` (id, doc) VALUES (?, ?)
			ON CONFLICT(id) DO UPDATE SET doc = excluded.doc
		`, student.ID, doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: error updating student: %w", ErrWrite, err)
	}

	s.logger.Debug("updated student", "id", student.ID)
	return nil
}

// DeleteStudent removes the student with the given id, if any.
func (s *SQLiteStore) DeleteStudent(ctx context.Context, id int64) error {
	db, err := s.handle(ctx)
	if err != nil {
		return err
	}

	var removed int64
	err = inTx(ctx, db, func(tx *sqlx.Tx) error {
		res, err := tx.ExecContext(ctx, `DELETE FROM `+CollectionName+` WHERE id = ?`, id)
		if err != nil {
			return err
		}
		removed, err = res.RowsAffected()
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: error deleting student: %w", ErrWrite, err)
	}

	s.logger.Debug("deleted student", "id", id, "removed", removed)
	return nil
}
