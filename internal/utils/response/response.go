// Package response writes the uniform JSON envelope returned by every
// endpoint.
//
// Success responses look like:
//
//	{ "success": true, "message": "Student is created successfully", "data": { ... } }
//
// Error responses look like:
//
//	{ "success": false, "message": "Validation failed", "errorDetails": ["field email is required"] }
package response

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/go-playground/validator/v10"
)

// Envelope is the success response shape.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
	Data    any    `json:"data"`
}

// ErrorEnvelope is the failure response shape. ErrorDetails is omitted
// when there is nothing to add to Message.
type ErrorEnvelope struct {
	Success      bool     `json:"success"`
	Message      string   `json:"message"`
	ErrorDetails []string `json:"errorDetails,omitempty"`
}

// WriteJSON writes data as JSON with the given HTTP status code.
//
// Header() → WriteHeader() → body writes, in that order: once
// WriteHeader is called the headers are locked.
func WriteJSON(w http.ResponseWriter, status int, data any) error {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	return json.NewEncoder(w).Encode(data)
}

// Success writes a success envelope.
func Success(w http.ResponseWriter, status int, message string, data any) error {
	return WriteJSON(w, status, Envelope{
		Success: true,
		Message: message,
		Data:    data,
	})
}

// Failure writes an error envelope.
func Failure(w http.ResponseWriter, status int, message string, details ...string) error {
	return WriteJSON(w, status, ErrorEnvelope{
		Success:      false,
		Message:      message,
		ErrorDetails: details,
	})
}

// ValidationDetails converts validator field errors into one
// human-readable sentence per field.
//
// Example output:
//
//	["field email is required", "field email must be a valid email address"]
func ValidationDetails(errs validator.ValidationErrors) []string {
	details := make([]string, 0, len(errs))

	for _, e := range errs {
		switch e.ActualTag() {
		case "required":
			details = append(details,
				fmt.Sprintf("field %s is required", e.Field()))
		case "email":
			details = append(details,
				fmt.Sprintf("field %s must be a valid email address", e.Field()))
		default:
			details = append(details,
				fmt.Sprintf("field %s is invalid", e.Field()))
		}
	}

	return details
}
