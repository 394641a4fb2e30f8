package student

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/idgen"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/types"
)

// maxCreateAttempts bounds how often CreateStudent regenerates an id
// after the store reports an id collision.
const maxCreateAttempts = 3

var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrEmailRequired = fmt.Errorf("%w: email is required", ErrInvalidInput)

	// ErrCreateStudent and ErrListStudents wrap every failure of the
	// matching operation. The underlying cause stays reachable through
	// errors.Is and errors.As.
	ErrCreateStudent = errors.New("failed to create student")
	ErrListStudents  = errors.New("failed to retrieve students")
)

type Service interface {
	CreateStudent(ctx context.Context, email string) (types.Student, error)
	ListStudents(ctx context.Context) ([]types.PublicStudent, error)
}

type service struct {
	store  storage.Store
	ids    idgen.Generator
	logger *slog.Logger
}

func NewService(store storage.Store, ids idgen.Generator, logger *slog.Logger) Service {
	return &service{
		store:  store,
		ids:    ids,
		logger: logger,
	}
}

func (s *service) CreateStudent(ctx context.Context, email string) (types.Student, error) {
	email = strings.TrimSpace(email)
	if email == "" {
		return types.Student{}, ErrEmailRequired
	}

	var lastErr error
	for attempt := 1; attempt <= maxCreateAttempts; attempt++ {
		id, err := s.ids.NextID(ctx)
		if err != nil {
			return types.Student{}, fmt.Errorf("%w: %w", ErrCreateStudent, err)
		}

		created, err := s.store.Create(ctx, types.Student{ID: id, Email: email})
		if err == nil {
			return created, nil
		}
		if !errors.Is(err, storage.ErrDuplicateID) {
			return types.Student{}, fmt.Errorf("%w: %w", ErrCreateStudent, err)
		}

		s.logger.WarnContext(ctx, "generated student id already taken, retrying",
			slog.String("id", id),
			slog.Int("attempt", attempt))
		lastErr = err
	}

	return types.Student{}, fmt.Errorf("%w: %w", ErrCreateStudent, lastErr)
}

func (s *service) ListStudents(ctx context.Context) ([]types.PublicStudent, error) {
	students, err := s.store.FindAll(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrListStudents, err)
	}

	public := make([]types.PublicStudent, 0, len(students))
	for _, st := range students {
		public = append(public, st.Public())
	}
	return public, nil
}
