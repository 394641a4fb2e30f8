// Package apperror is the single place where errors become HTTP
// responses.
//
// Handlers return errors unmodified; Handle converts them to the error
// envelope, Recoverer does the same for panics and NotFound answers
// unmatched routes. The original cause of a server-side failure is only
// logged, never written to the client.
package apperror

import (
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"runtime/debug"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-registry/internal/storage"
	"github.com/aanand-mishra/student-registry/internal/student"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

const (
	MsgValidation    = "Validation failed"
	MsgNotFound      = "API Not Found"
	MsgInternal      = "Something went wrong"
	MsgCreateFailed  = "Failed to create student"
	MsgListFailed    = "Failed to retrieve students"
	MsgDuplicateMail = "A student with this email already exists"
)

// Error carries an explicit status and client-facing message.
type Error struct {
	Status  int
	Message string
	Details []string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// BadRequest builds a 400 error.
func BadRequest(message string, err error, details ...string) *Error {
	return &Error{
		Status:  http.StatusBadRequest,
		Message: message,
		Details: details,
		Err:     err,
	}
}

// HandlerFunc is an http.HandlerFunc that may fail.
type HandlerFunc func(w http.ResponseWriter, r *http.Request) error

// Handle adapts fn to http.HandlerFunc, translating its error.
func Handle(logger *slog.Logger, fn HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(w, r); err != nil {
			Write(w, r, logger, err)
		}
	}
}

// Write translates err into the error envelope.
func Write(w http.ResponseWriter, r *http.Request, logger *slog.Logger, err error) {
	status, message, details := translate(err)

	attrs := []any{
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status", status),
		slog.String("error", err.Error()),
	}
	if status >= http.StatusInternalServerError {
		logger.ErrorContext(r.Context(), "request failed", attrs...)
	} else {
		logger.InfoContext(r.Context(), "request rejected", attrs...)
	}

	_ = response.Failure(w, status, message, details...)
}

func translate(err error) (int, string, []string) {
	var appErr *Error
	if errors.As(err, &appErr) {
		return appErr.Status, appErr.Message, appErr.Details
	}

	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		return http.StatusBadRequest, MsgValidation, response.ValidationDetails(verrs)
	}

	switch {
	case errors.Is(err, student.ErrEmailRequired):
		return http.StatusBadRequest, MsgValidation, []string{"field email is required"}
	case errors.Is(err, student.ErrInvalidInput):
		return http.StatusBadRequest, MsgValidation, nil
	case errors.Is(err, storage.ErrDuplicateEmail):
		return http.StatusConflict, MsgDuplicateMail, nil
	case errors.Is(err, student.ErrCreateStudent):
		return http.StatusInternalServerError, MsgCreateFailed, nil
	case errors.Is(err, student.ErrListStudents):
		return http.StatusInternalServerError, MsgListFailed, nil
	default:
		return http.StatusInternalServerError, MsgInternal, nil
	}
}

// Recoverer turns a panic in any downstream handler into the generic
// error envelope. The server keeps serving other requests.
func Recoverer(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				rec := recover()
				if rec == nil {
					return
				}
				if rec == http.ErrAbortHandler {
					panic(rec)
				}

				logger.ErrorContext(r.Context(), "panic recovered",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Any("panic", rec),
					slog.String("stack", string(debug.Stack())))

				_ = response.Failure(w, http.StatusInternalServerError, MsgInternal)
			}()

			next.ServeHTTP(w, r)
		})
	}
}

// NotFound answers requests that match no route.
func NotFound(w http.ResponseWriter, r *http.Request) {
	_ = response.Failure(w, http.StatusNotFound, MsgNotFound,
		fmt.Sprintf("%s %s not found", r.Method, r.URL.Path))
}
