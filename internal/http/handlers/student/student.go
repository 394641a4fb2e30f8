// Package student contains the HTTP handlers of the Student resource.
//
// Handlers follow the factory pattern: a function receives the
// dependencies once, at startup, and returns the function that runs on
// every request.
//
//	create := student.New(service, logger, metrics)
//
// The returned functions report failures by returning an error; the
// apperror package turns it into the error envelope.
package student

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/aanand-mishra/student-registry/internal/http/apperror"
	"github.com/aanand-mishra/student-registry/internal/http/routes"
	"github.com/aanand-mishra/student-registry/internal/metrics"
	"github.com/aanand-mishra/student-registry/internal/student"
	"github.com/aanand-mishra/student-registry/internal/types"
	"github.com/aanand-mishra/student-registry/internal/utils/response"
)

const (
	MsgCreated   = "Student is created successfully"
	MsgRetrieved = "Retrieved all students successfully"

	maxBodyBytes = 1 << 20
)

var validate = newValidator()

// newValidator reports field names the way clients send them (the json
// tag), e.g. "email" instead of "Email".
func newValidator() *validator.Validate {
	v := validator.New()
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" || name == "" {
			return fld.Name
		}
		return name
	})
	return v
}

// Routes returns the /users module of the route table.
func Routes(service student.Service, logger *slog.Logger, m *metrics.Metrics) routes.Module {
	return routes.Module{
		Path:        "/users",
		Tag:         "Users",
		Description: "User management APIs",
		Routes: []routes.Route{
			{
				Method:      http.MethodGet,
				Path:        "/all-students",
				Summary:     "List all students",
				Description: "Returns every stored student. The list is empty when none exist.",
				Response:    []types.PublicStudent{},
				Status:      http.StatusOK,
				Handler:     apperror.Handle(logger, GetList(service, logger, m)),
			},
			{
				Method:      http.MethodPost,
				Path:        "/create-student",
				Summary:     "Create a student",
				Description: "Creates a student from an email address and assigns it a generated id.",
				Request:     types.CreateStudentRequest{},
				Response:    types.Student{},
				Status:      http.StatusOK,
				Handler:     apperror.Handle(logger, New(service, logger, m)),
			},
		},
	}
}

// New handles POST /users/create-student.
//
// Request body (JSON):
//
//	{ "email": "ayesha@example.com" }
//
// Success response (200 OK):
//
//	{ "success": true, "message": "Student is created successfully",
//	  "data": { "id": "STU-000001", "email": "ayesha@example.com", ... } }
//
// Error responses:
//
//	400 Bad Request  empty body, malformed JSON, or failed validation
//	409 Conflict     email already registered
//	500 Internal     id generation or database failure
func New(service student.Service, logger *slog.Logger, m *metrics.Metrics) apperror.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		logger.InfoContext(r.Context(), "creating a student")

		var req types.CreateStudentRequest

		err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes)).Decode(&req)
		if errors.Is(err, io.EOF) {
			return apperror.BadRequest(apperror.MsgValidation, err, "request body is empty")
		}
		if err != nil {
			return apperror.BadRequest(apperror.MsgValidation, err, "request body is not valid JSON")
		}

		if err := validate.Struct(req); err != nil {
			return err
		}

		created, err := service.CreateStudent(r.Context(), req.Email)
		if err != nil {
			return err
		}

		m.RecordStudentCreated()
		logger.InfoContext(r.Context(), "student created", slog.String("id", created.ID))

		return response.Success(w, http.StatusOK, MsgCreated, created)
	}
}

// GetList handles GET /users/all-students.
//
// Success response (200 OK):
//
//	{ "success": true, "message": "Retrieved all students successfully",
//	  "data": [ { "id": "STU-000001", "email": "ayesha@example.com", ... } ] }
//
// data is an empty array [] (not null) when there are no students.
func GetList(service student.Service, logger *slog.Logger, m *metrics.Metrics) apperror.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) error {
		logger.InfoContext(r.Context(), "getting all students")

		students, err := service.ListStudents(r.Context())
		if err != nil {
			return err
		}

		m.RecordStudentsListed()

		return response.Success(w, http.StatusOK, MsgRetrieved, students)
	}
}
