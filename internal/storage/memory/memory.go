// Package memory provides a process-local implementation of
// storage.Storage. Data is lost when the process exits.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

// Memory keeps students in insertion order and indexes them by id and email.
type Memory struct {
	mu       sync.RWMutex
	students []types.Student
	byID     map[string]struct{}
	byEmail  map[string]struct{}
	counters map[string]int64

	now func() time.Time
}

// New returns an empty store.
func New() *Memory {
	return &Memory{
		byID:     make(map[string]struct{}),
		byEmail:  make(map[string]struct{}),
		counters: make(map[string]int64),
		now:      time.Now,
	}
}

func (m *Memory) FindAll(ctx context.Context) ([]types.Student, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	students := make([]types.Student, len(m.students))
	copy(students, m.students)
	return students, nil
}

func (m *Memory) Create(ctx context.Context, student types.Student) (types.Student, error) {
	if err := ctx.Err(); err != nil {
		return types.Student{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.byID[student.ID]; ok {
		return types.Student{}, storage.ErrDuplicateID
	}
	if _, ok := m.byEmail[student.Email]; ok {
		return types.Student{}, storage.ErrDuplicateEmail
	}

	now := m.now().UTC()
	student.CreatedAt = now
	student.UpdatedAt = now

	m.students = append(m.students, student)
	m.byID[student.ID] = struct{}{}
	m.byEmail[student.Email] = struct{}{}

	return student, nil
}

func (m *Memory) Next(ctx context.Context, name string) (int64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.counters[name]++
	return m.counters[name], nil
}

// Len reports how many students are stored.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.students)
}

func (m *Memory) Ping(ctx context.Context) error {
	return ctx.Err()
}

func (m *Memory) Close(context.Context) error {
	return nil
}

var _ storage.Storage = (*Memory)(nil)
