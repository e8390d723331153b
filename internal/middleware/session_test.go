package middleware

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"

	"github.com/iliyamo/leadbook/internal/model"
	"github.com/iliyamo/leadbook/internal/service"
)

type fakeAuth map[string]model.Identity

func (f fakeAuth) Authenticate(_ context.Context, token string) (model.Identity, error) {
	if token == "boom" {
		return model.Identity{}, errors.New("store down")
	}
	id, ok := f[token]
	if !ok {
		return model.Identity{}, service.ErrUnauthenticated
	}
	return id, nil
}

func serve(t *testing.T, req *http.Request) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	auth := fakeAuth{"good": {UserID: "7", Email: "a@x.com"}}
	e.GET("/me", func(c echo.Context) error {
		id, ok := IdentityFrom(c)
		if !ok {
			return c.NoContent(http.StatusTeapot)
		}
		return c.String(http.StatusOK, id.UserID)
	}, SessionAuth(auth, "token"))
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestSessionAuth(t *testing.T) {
	tests := []struct {
		name       string
		cookie     string
		header     string
		wantStatus int
		wantBody   string
	}{
		{"cookie", "good", "", http.StatusOK, "7"},
		{"bearer", "", "Bearer good", http.StatusOK, "7"},
		{"cookie wins", "good", "Bearer bad", http.StatusOK, "7"},
		{"missing", "", "", http.StatusUnauthorized, `{"message":"No token, authorization denied"}`},
		{"not bearer", "", "Basic Z29vZA==", http.StatusUnauthorized, `{"message":"No token, authorization denied"}`},
		{"invalid", "bad", "", http.StatusUnauthorized, `{"message":"Token is not valid"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/me", nil)
			if tt.cookie != "" {
				req.AddCookie(&http.Cookie{Name: "token", Value: tt.cookie})
			}
			if tt.header != "" {
				req.Header.Set(echo.HeaderAuthorization, tt.header)
			}
			rec := serve(t, req)
			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantStatus == http.StatusOK {
				assert.Equal(t, tt.wantBody, rec.Body.String())
			} else {
				assert.JSONEq(t, tt.wantBody, rec.Body.String())
			}
		})
	}
}

func TestSessionAuth_StoreErrorIsNotA401(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "boom"})
	rec := serve(t, req)
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestIdentityFrom_Missing(t *testing.T) {
	c := echo.New().NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())
	_, ok := IdentityFrom(c)
	assert.False(t, ok)
	assert.Equal(t, "anon", currentUserID(c))

	SetIdentity(c, model.Identity{UserID: "9"})
	assert.Equal(t, "9", currentUserID(c))
}
