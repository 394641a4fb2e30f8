package sqlite

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

func newTestDB(t *testing.T) *SQLite {
	t.Helper()

	s, err := New(context.Background(), filepath.Join(t.TempDir(), "students.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close(context.Background()) })

	return s
}

func TestSQLite_FindAllEmpty(t *testing.T) {
	s := newTestDB(t)

	students, err := s.FindAll(context.Background())
	require.NoError(t, err)
	assert.NotNil(t, students)
	assert.Empty(t, students)
}

func TestSQLite_CreateAndFindAll(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	created, err := s.Create(ctx, types.Student{ID: "STU-000001", Email: "a@example.com"})
	require.NoError(t, err)
	assert.Equal(t, "STU-000001", created.ID)
	assert.False(t, created.CreatedAt.IsZero())

	_, err = s.Create(ctx, types.Student{ID: "STU-000002", Email: "b@example.com"})
	require.NoError(t, err)

	students, err := s.FindAll(ctx)
	require.NoError(t, err)
	require.Len(t, students, 2)
	assert.Equal(t, "STU-000001", students[0].ID)
	assert.Equal(t, "a@example.com", students[0].Email)
	assert.Equal(t, "STU-000002", students[1].ID)
	assert.WithinDuration(t, created.CreatedAt, students[0].CreatedAt, time.Second)
}

func TestSQLite_CreateDuplicates(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	_, err := s.Create(ctx, types.Student{ID: "STU-000001", Email: "a@example.com"})
	require.NoError(t, err)

	_, err = s.Create(ctx, types.Student{ID: "STU-000001", Email: "b@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateID)

	_, err = s.Create(ctx, types.Student{ID: "STU-000002", Email: "a@example.com"})
	assert.ErrorIs(t, err, storage.ErrDuplicateEmail)

	students, err := s.FindAll(ctx)
	require.NoError(t, err)
	assert.Len(t, students, 1)
}

func TestSQLite_NextConcurrent(t *testing.T) {
	ctx := context.Background()
	s := newTestDB(t)

	const n = 20
	values := make(chan int64, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			v, err := s.Next(ctx, storage.StudentSequence)
			assert.NoError(t, err)
			values <- v
		}()
	}
	wg.Wait()
	close(values)

	seen := make(map[int64]bool)
	for v := range values {
		seen[v] = true
	}
	assert.Len(t, seen, n)
	for i := int64(1); i <= n; i++ {
		assert.True(t, seen[i], "missing sequence value %d", i)
	}
}

func TestSQLite_Migrate_Idempotent(t *testing.T) {
	s := newTestDB(t)
	assert.NoError(t, s.Migrate(context.Background()))
}

func TestSQLite_CreateExecError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare("INSERT INTO students").
		ExpectExec().
		WithArgs("STU-000001", "a@example.com", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnError(errors.New("disk I/O error"))

	_, err = NewWithDB(db).Create(context.Background(), types.Student{ID: "STU-000001", Email: "a@example.com"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk I/O error")
	assert.NotErrorIs(t, err, storage.ErrDuplicateID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_FindAllQueryError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectPrepare("SELECT id, email, created_at, updated_at FROM students").
		ExpectQuery().
		WillReturnError(errors.New("connection lost"))

	students, err := NewWithDB(db).FindAll(context.Background())
	require.Error(t, err)
	assert.Nil(t, students)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLite_FindAllRows(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Date(2025, 12, 28, 10, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "email", "created_at", "updated_at"}).
		AddRow("STU-000001", "a@example.com", now, now)

	mock.ExpectPrepare("SELECT id, email").ExpectQuery().WillReturnRows(rows)

	students, err := NewWithDB(db).FindAll(context.Background())
	require.NoError(t, err)
	require.Len(t, students, 1)
	assert.Equal(t, "STU-000001", students[0].ID)
	assert.Equal(t, now, students[0].CreatedAt)
}

func TestSQLite_NextError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO counters").
		WithArgs(storage.StudentSequence).
		WillReturnError(errors.New("database is locked"))

	_, err = NewWithDB(db).Next(context.Background(), storage.StudentSequence)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "database is locked")
	assert.NoError(t, mock.ExpectationsWereMet())
}
