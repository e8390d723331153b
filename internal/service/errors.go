package service

import (
	"errors"
	"strings"
)

var (
	// ErrNotFound is returned for a missing lead and for a lead owned by
	// someone else alike.
	ErrNotFound = errors.New("lead not found")
	// ErrDuplicateLead is returned when the owner already has a lead with
	// the same email.
	ErrDuplicateLead = errors.New("lead with this email already exists")
	// ErrDuplicateEmail is returned when registering a taken email.
	ErrDuplicateEmail = errors.New("user already exists with this email")
	// ErrInvalidCredentials covers unknown emails and wrong passwords.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated is returned for a missing, malformed, expired or
	// orphaned session token.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// FieldError describes one rejected input field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ValidationError lists every violated field of one request.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, 0, len(e.Fields))
	for _, f := range e.Fields {
		parts = append(parts, f.Field+": "+f.Message)
	}
	return "validation failed: " + strings.Join(parts, "; ")
}
