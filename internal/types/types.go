// Package types holds the shared data structures used across the
// application. Handlers, storage backends and the service all import
// types without depending on each other.
package types

import "time"

// Student is the stored student record.
//
// ID is produced by the identifier generator and never taken from a
// caller. Email is the caller-supplied address. The timestamps are
// assigned by the store when the record is persisted.
//
// The bson tags are used by the MongoDB backend; the SQLite and memory
// backends ignore them.
type Student struct {
	ID        string    `json:"id"        bson:"id"`
	Email     string    `json:"email"     bson:"email"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// PublicStudent is the view of a Student returned by the list endpoint.
// Store-only fields never reach it.
type PublicStudent struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Public projects s into its public view.
func (s Student) Public() PublicStudent {
	return PublicStudent{
		ID:        s.ID,
		Email:     s.Email,
		CreatedAt: s.CreatedAt,
		UpdatedAt: s.UpdatedAt,
	}
}

// CreateStudentRequest is the body of POST /users/create-student.
//
// Only email is accepted. The client form also collects a name and a
// phone number, but the backend does not persist them.
type CreateStudentRequest struct {
	Email string `json:"email" validate:"required,email"`
}
