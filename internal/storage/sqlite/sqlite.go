// Package sqlite provides a SQLite-backed implementation of
// storage.Storage using database/sql and the mattn/go-sqlite3 driver.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/mattn/go-sqlite3"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

// SQLite is the concrete implementation of storage.Storage.
// A single *sql.DB is safe for concurrent use by multiple goroutines.
type SQLite struct {
	Db  *sql.DB
	now func() time.Time
}

// New opens the SQLite database at path and creates the tables if they
// do not already exist.
func New(ctx context.Context, path string) (*SQLite, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("sqlite.New: create dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("sqlite.New: open db: %w", err)
	}

	// SQLite allows a single writer at a time.
	db.SetMaxOpenConns(1)

	s := NewWithDB(db)
	if err := s.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}

	return s, nil
}

// NewWithDB wraps an already opened database. No schema is created.
func NewWithDB(db *sql.DB) *SQLite {
	return &SQLite{Db: db, now: time.Now}
}

// Migrate creates the students and counters tables. It is idempotent.
//
// Schema:
//
//	students.id    - generated identifier, primary key
//	students.email - caller supplied, unique
//	counters       - one row per named sequence
func (s *SQLite) Migrate(ctx context.Context) error {
	_, err := s.Db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS students (
			id         TEXT     PRIMARY KEY,
			email      TEXT     NOT NULL UNIQUE,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlite.Migrate: create students: %w", err)
	}

	_, err = s.Db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS counters (
			name TEXT    PRIMARY KEY,
			seq  INTEGER NOT NULL
		)
	`)
	if err != nil {
		return fmt.Errorf("sqlite.Migrate: create counters: %w", err)
	}

	return nil
}

// Create inserts a new row into the students table.
func (s *SQLite) Create(ctx context.Context, student types.Student) (types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"INSERT INTO students (id, email, created_at, updated_at) VALUES (?, ?, ?, ?)",
	)
	if err != nil {
		return types.Student{}, fmt.Errorf("Create: prepare: %w", err)
	}
	defer stmt.Close()

	now := s.now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	if _, err := stmt.ExecContext(ctx, student.ID, student.Email, now, now); err != nil {
		if dup := duplicateError(err); dup != nil {
			return types.Student{}, dup
		}
		return types.Student{}, fmt.Errorf("Create: exec: %w", err)
	}

	return student, nil
}

// FindAll returns all student rows in insertion order.
func (s *SQLite) FindAll(ctx context.Context) ([]types.Student, error) {
	stmt, err := s.Db.PrepareContext(ctx,
		"SELECT id, email, created_at, updated_at FROM students ORDER BY rowid",
	)
	if err != nil {
		return nil, fmt.Errorf("FindAll: prepare: %w", err)
	}
	defer stmt.Close()

	rows, err := stmt.QueryContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("FindAll: query: %w", err)
	}
	defer rows.Close()

	students := make([]types.Student, 0)

	for rows.Next() {
		var student types.Student

		if err := rows.Scan(
			&student.ID,
			&student.Email,
			&student.CreatedAt,
			&student.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("FindAll: scan row: %w", err)
		}

		students = append(students, student)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("FindAll: rows iteration: %w", err)
	}

	return students, nil
}

// Next increments the named counter and returns the new value in a
// single statement, creating the counter on first use.
func (s *SQLite) Next(ctx context.Context, name string) (int64, error) {
	var seq int64
	err := s.Db.QueryRowContext(ctx, `
		INSERT INTO counters (name, seq) VALUES (?, 1)
		ON CONFLICT(name) DO UPDATE SET seq = seq + 1
		RETURNING seq
	`, name).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("Next: %s: %w", name, err)
	}

	return seq, nil
}

func (s *SQLite) Ping(ctx context.Context) error {
	return s.Db.PingContext(ctx)
}

func (s *SQLite) Close(context.Context) error {
	return s.Db.Close()
}

// duplicateError maps a unique constraint violation to the matching
// storage sentinel. It returns nil for every other error.
func duplicateError(err error) error {
	var sqliteErr sqlite3.Error
	if !errors.As(err, &sqliteErr) || sqliteErr.Code != sqlite3.ErrConstraint {
		return nil
	}

	if strings.Contains(sqliteErr.Error(), "students.email") {
		return fmt.Errorf("%w: %w", storage.ErrDuplicateEmail, err)
	}
	return fmt.Errorf("%w: %w", storage.ErrDuplicateID, err)
}

var _ storage.Storage = (*SQLite)(nil)
