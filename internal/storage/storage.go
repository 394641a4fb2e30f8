// Package storage defines the persistence contract for student records.
//
// Handlers and the student service only know about the interfaces in
// this package. The concrete backends live in the sub-packages:
//
//   - storage/mongodb - MongoDB document collection (default)
//   - storage/sqlite  - single-file SQLite database
//   - storage/memory  - process-local maps, used by tests and local runs
package storage

import (
	"context"
	"errors"

	"github.com/aanand-mishra/student-registry/internal/types"
)

// StudentSequence is the counter name used for student identifiers.
const StudentSequence = "students"

var (
	// ErrDuplicateID is returned by Create when a record with the same
	// id already exists.
	ErrDuplicateID = errors.New("student id already exists")

	// ErrDuplicateEmail is returned by Create when a record with the
	// same email already exists.
	ErrDuplicateEmail = errors.New("student email already exists")
)

// Store is the student persistence boundary.
type Store interface {
	// FindAll returns every stored student, oldest first.
	// Returns an empty slice (not nil) if there are no students.
	FindAll(ctx context.Context) ([]types.Student, error)

	// Create persists a fully formed record and returns it as stored,
	// including the timestamps assigned by the store.
	Create(ctx context.Context, student types.Student) (types.Student, error)
}

// Sequence hands out monotonically increasing numbers per name. Every
// call is a single atomic operation in the backing store, so concurrent
// callers never observe the same value.
type Sequence interface {
	Next(ctx context.Context, name string) (int64, error)
}

// Storage is what a backend provides to the application.
type Storage interface {
	Store
	Sequence

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close(ctx context.Context) error
}
