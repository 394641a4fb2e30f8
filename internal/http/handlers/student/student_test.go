package student_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aanand-mishra/student-registry/internal/http/apperror"
	handler "github.com/aanand-mishra/student-registry/internal/http/handlers/student"
	"github.com/aanand-mishra/student-registry/internal/http/routes"
	"github.com/aanand-mishra/student-registry/internal/idgen"
	"github.com/aanand-mishra/student-registry/internal/metrics"
	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/storage/memory"
	"github.com/aanand-mishra/student-registry/internal/student"
	"github.com/aanand-mishra/student-registry/internal/types"
)

type envelope struct {
	Success      bool            `json:"success"`
	Message      string          `json:"message"`
	Data         json.RawMessage `json:"data"`
	ErrorDetails []string        `json:"errorDetails"`
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func setupRouter(svc student.Service) chi.Router {
	logger := discardLogger()
	r := chi.NewRouter()
	r.Use(apperror.Recoverer(logger))
	r.NotFound(apperror.NotFound)
	routes.Mount(r, handler.Routes(svc, logger, metrics.New()))
	return r
}

func setupWithMemory(t *testing.T) (chi.Router, *memory.Memory) {
	t.Helper()
	store := memory.New()
	ids := idgen.NewSequence(store, storage.StudentSequence, idgen.DefaultPrefix)
	return setupRouter(student.NewService(store, ids, discardLogger())), store
}

func do(t *testing.T, r http.Handler, method, path, body string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w, env
}

// stubService lets a test decide what the service returns.
type stubService struct {
	create func(ctx context.Context, email string) (types.Student, error)
	list   func(ctx context.Context) ([]types.PublicStudent, error)
}

func (s stubService) CreateStudent(ctx context.Context, email string) (types.Student, error) {
	return s.create(ctx, email)
}

func (s stubService) ListStudents(ctx context.Context) ([]types.PublicStudent, error) {
	return s.list(ctx)
}

func TestCreateStudent(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		router, store := setupWithMemory(t)

		w, env := do(t, router, http.MethodPost, "/users/create-student", `{"email":"ayesha@example.com"}`)

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, handler.MsgCreated, env.Message)

		var created types.Student
		require.NoError(t, json.Unmarshal(env.Data, &created))
		assert.Equal(t, "STU-000001", created.ID)
		assert.Equal(t, "ayesha@example.com", created.Email)
		assert.Equal(t, 1, store.Len())
	})

	t.Run("EmptyBody", func(t *testing.T) {
		router, store := setupWithMemory(t)

		w, env := do(t, router, http.MethodPost, "/users/create-student", "")

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, []string{"request body is empty"}, env.ErrorDetails)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("MalformedJSON", func(t *testing.T) {
		router, store := setupWithMemory(t)

		w, env := do(t, router, http.MethodPost, "/users/create-student", `{"email":`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("MissingEmail", func(t *testing.T) {
		router, store := setupWithMemory(t)

		w, env := do(t, router, http.MethodPost, "/users/create-student", `{}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, apperror.MsgValidation, env.Message)
		assert.Equal(t, []string{"field email is required"}, env.ErrorDetails)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("InvalidEmail", func(t *testing.T) {
		router, store := setupWithMemory(t)

		w, env := do(t, router, http.MethodPost, "/users/create-student", `{"email":"bad"}`)

		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, []string{"field email must be a valid email address"}, env.ErrorDetails)
		assert.Equal(t, 0, store.Len())
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		router, _ := setupWithMemory(t)

		w, _ := do(t, router, http.MethodPost, "/users/create-student", `{"email":"dup@example.com"}`)
		require.Equal(t, http.StatusOK, w.Code)

		w, env := do(t, router, http.MethodPost, "/users/create-student", `{"email":"dup@example.com"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.False(t, env.Success)
	})

	t.Run("ServiceError", func(t *testing.T) {
		svc := stubService{create: func(context.Context, string) (types.Student, error) {
			return types.Student{}, fmt.Errorf("%w: %w", student.ErrCreateStudent, errors.New("mongo: no reachable servers"))
		}}

		w, env := do(t, setupRouter(svc), http.MethodPost, "/users/create-student", `{"email":"a@example.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, apperror.MsgCreateFailed, env.Message)
		assert.NotContains(t, w.Body.String(), "mongo")
	})

	t.Run("ServicePanics", func(t *testing.T) {
		svc := stubService{create: func(context.Context, string) (types.Student, error) {
			panic("unexpected nil store")
		}}

		w, env := do(t, setupRouter(svc), http.MethodPost, "/users/create-student", `{"email":"a@example.com"}`)

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, apperror.MsgInternal, env.Message)
	})
}

func TestGetAllStudents(t *testing.T) {
	t.Run("Empty", func(t *testing.T) {
		router, _ := setupWithMemory(t)

		w, env := do(t, router, http.MethodGet, "/users/all-students", "")

		assert.Equal(t, http.StatusOK, w.Code)
		assert.True(t, env.Success)
		assert.Equal(t, handler.MsgRetrieved, env.Message)
		assert.JSONEq(t, `[]`, string(env.Data))
	})

	t.Run("AfterCreate", func(t *testing.T) {
		router, _ := setupWithMemory(t)

		for _, email := range []string{"r1@example.com", "r2@example.com"} {
			w, _ := do(t, router, http.MethodPost, "/users/create-student", fmt.Sprintf(`{"email":%q}`, email))
			require.Equal(t, http.StatusOK, w.Code)
		}

		w, env := do(t, router, http.MethodGet, "/users/all-students", "")
		require.Equal(t, http.StatusOK, w.Code)

		var students []types.PublicStudent
		require.NoError(t, json.Unmarshal(env.Data, &students))
		require.Len(t, students, 2)

		emails := []string{students[0].Email, students[1].Email}
		assert.ElementsMatch(t, []string{"r1@example.com", "r2@example.com"}, emails)
	})

	t.Run("ServiceError", func(t *testing.T) {
		svc := stubService{list: func(context.Context) ([]types.PublicStudent, error) {
			return nil, fmt.Errorf("%w: %w", student.ErrListStudents, errors.New("connection reset"))
		}}

		w, env := do(t, setupRouter(svc), http.MethodGet, "/users/all-students", "")

		assert.Equal(t, http.StatusInternalServerError, w.Code)
		assert.False(t, env.Success)
		assert.Equal(t, apperror.MsgListFailed, env.Message)
	})
}

func TestUndefinedRoute(t *testing.T) {
	router, _ := setupWithMemory(t)

	w, env := do(t, router, http.MethodGet, "/users/does-not-exist", "")

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, env.Success)
	assert.Equal(t, apperror.MsgNotFound, env.Message)
}
