package leadclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrUnauthenticated matches any 401 response.
	ErrUnauthenticated = errors.New("not authenticated")
	// ErrNetwork wraps transport failures.
	ErrNetwork = errors.New("unable to connect to server")
)

// FieldError is one per-field validation message.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response.
type APIError struct {
	Status  int
	Message string
	Fields  []FieldError
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("leadclient: HTTP %d", e.Status)
	}
	return fmt.Sprintf("leadclient: HTTP %d: %s", e.Status, e.Message)
}

// Is lets errors.Is(err, ErrUnauthenticated) match a 401.
func (e *APIError) Is(target error) bool {
	return target == ErrUnauthenticated && e.Status == http.StatusUnauthorized
}

// FieldMessage returns the message for field, or "".
func (e *APIError) FieldMessage(field string) string {
	for _, f := range e.Fields {
		if f.Field == field {
			return f.Message
		}
	}
	return ""
}
