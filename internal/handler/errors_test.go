package handler

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/leadbook/internal/service"
)

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		production bool
		wantStatus int
		wantBody   echo.Map
	}{
		{"not found", fmt.Errorf("wrapped: %w", service.ErrNotFound), true, http.StatusNotFound, echo.Map{"message": "Lead not found"}},
		{"route", echo.ErrNotFound, true, http.StatusNotFound, echo.Map{"message": "Not Found"}},
		{"bad body", errBadBody, true, http.StatusBadRequest, echo.Map{"message": "Invalid request body"}},
		{"unexpected prod", errors.New("db exploded"), true, http.StatusInternalServerError, echo.Map{"message": "Server error"}},
		{"unexpected dev", errors.New("db exploded"), false, http.StatusInternalServerError, echo.Map{"message": "Server error", "error": "db exploded"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := errorResponse(tt.err, tt.production)
			assert.Equal(t, tt.wantStatus, status)
			assert.Equal(t, tt.wantBody, body)
		})
	}
}
