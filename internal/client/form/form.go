// Package form models the "Create Student" form: the fields a user fills
// in, client-side validation, and what happens on submit and reset.
//
// The form collects a first name, last name and phone number, but only
// the email is sent to the server. The server stores nothing else.
package form

import (
	"context"
	"errors"
	"regexp"
	"strings"

	"github.com/aanand-mishra/student-registry/internal/types"
)

const (
	ErrFirstNameRequired = "First name is required"
	ErrEmailRequired     = "Email is required"
	ErrEmailFormat       = "Invalid email format"
	ErrFallback          = "Something went wrong"

	MsgCreated = "Student created successfully"
)

var emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)

// Creator creates a student from an email address.
type Creator interface {
	CreateStudent(ctx context.Context, email string) (types.Student, error)
}

type Form struct {
	FirstName string
	LastName  string
	Email     string
	Phone     string

	// Error and Success hold the outcome of the last Submit.
	Error   string
	Success string
}

// Validate returns the first validation message, or "" if the form is
// valid.
func (f *Form) Validate() string {
	if strings.TrimSpace(f.FirstName) == "" {
		return ErrFirstNameRequired
	}
	if strings.TrimSpace(f.Email) == "" {
		return ErrEmailRequired
	}
	if !emailPattern.MatchString(f.Email) {
		return ErrEmailFormat
	}
	return ""
}

// SubmitDisabled reports whether the submit action is unavailable.
func (f *Form) SubmitDisabled() bool {
	return strings.TrimSpace(f.FirstName) == "" || strings.TrimSpace(f.Email) == ""
}

// Submit validates the form and, if valid, creates the student. On
// success the fields are cleared; on failure they are kept so the user
// can correct them.
func (f *Form) Submit(ctx context.Context, creator Creator) (types.Student, error) {
	f.Error = ""
	f.Success = ""

	if msg := f.Validate(); msg != "" {
		f.Error = msg
		return types.Student{}, errors.New(msg)
	}

	created, err := creator.CreateStudent(ctx, f.Email)
	if err != nil {
		f.Error = err.Error()
		if f.Error == "" {
			f.Error = ErrFallback
		}
		return types.Student{}, err
	}

	f.Success = MsgCreated
	f.clearFields()
	return created, nil
}

// Reset clears the fields and both messages.
func (f *Form) Reset() {
	f.Error = ""
	f.Success = ""
	f.clearFields()
}

func (f *Form) clearFields() {
	f.FirstName = ""
	f.LastName = ""
	f.Email = ""
	f.Phone = ""
}
