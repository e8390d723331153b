package handler_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/leadbook/internal/handler"
	"github.com/iliyamo/leadbook/internal/router"
	"github.com/iliyamo/leadbook/internal/service"
	"github.com/iliyamo/leadbook/internal/testhelpers"
)

type api struct {
	t *testing.T
	e *echo.Echo
}

func newAPI(t *testing.T) *api {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	auth, err := service.NewAuthService(testhelpers.NewUsers(), service.AuthConfig{
		Secret:     "test-secret",
		SessionTTL: 7 * 24 * time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log)
	require.NoError(t, err)
	leads := service.NewLeadService(testhelpers.NewLeads(), &testhelpers.Events{}, log)

	e := router.New(router.Deps{
		Log:           log,
		Production:    true,
		FrontendURL:   "http://localhost:3000",
		CookieName:    "token",
		Authenticator: auth,
		Auth:          handler.NewAuthHandler(auth, handler.CookieConfig{Name: "token"}),
		Leads:         handler.NewLeadHandler(leads, time.UTC),
	})
	return &api{t: t, e: e}
}

// do sends a request with an optional session cookie and JSON body.
func (a *api) do(method, target, token string, body any) *httptest.ResponseRecorder {
	a.t.Helper()
	var r io.Reader
	if body != nil {
		switch b := body.(type) {
		case string:
			r = strings.NewReader(b)
		default:
			bs, err := json.Marshal(b)
			require.NoError(a.t, err)
			r = strings.NewReader(string(bs))
		}
	}
	req := httptest.NewRequest(method, target, r)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if token != "" {
		req.AddCookie(&http.Cookie{Name: "token", Value: token})
	}
	rec := httptest.NewRecorder()
	a.e.ServeHTTP(rec, req)
	return rec
}

func sessionCookie(t *testing.T, rec *httptest.ResponseRecorder) *http.Cookie {
	t.Helper()
	for _, c := range rec.Result().Cookies() {
		if c.Name == "token" {
			return c
		}
	}
	t.Fatalf("no session cookie in response")
	return nil
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var m map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &m), rec.Body.String())
	return m
}

func (a *api) login(email string) string {
	a.t.Helper()
	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": email, "password": "secret1", "firstName": "A", "lastName": "B",
	})
	require.Equal(a.t, http.StatusCreated, rec.Code, rec.Body.String())
	return sessionCookie(a.t, rec).Value
}

func leadBody(email string) map[string]any {
	return map[string]any{
		"firstName": "Jo", "lastName": "Do", "email": email, "phone": "555",
		"company": "Acme", "city": "Metropolis", "state": "NY",
		"source": "website", "status": "new", "score": 50, "leadValue": 100,
	}
}

func TestHealth(t *testing.T) {
	a := newAPI(t)
	rec := a.do(http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"OK","message":"Server is running"}`, rec.Body.String())
}

func TestEndToEnd(t *testing.T) {
	a := newAPI(t)

	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "a@x.com", "password": "secret1", "firstName": "Ann", "lastName": "Lee",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decode(t, rec)
	assert.Equal(t, "User registered successfully", body["message"])
	user := body["user"].(map[string]any)
	assert.Equal(t, "a@x.com", user["email"])
	assert.NotContains(t, user, "password")

	ck := sessionCookie(t, rec)
	assert.True(t, ck.HttpOnly)
	assert.False(t, ck.Secure)
	assert.Equal(t, http.SameSiteLaxMode, ck.SameSite)
	assert.Equal(t, 7*24*3600, ck.MaxAge)

	rec = a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a@x.com", "password": "secret1"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Login successful", decode(t, rec)["message"])
	token := sessionCookie(t, rec).Value

	rec = a.do(http.MethodGet, "/api/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Ann", decode(t, rec)["user"].(map[string]any)["firstName"])

	rec = a.do(http.MethodPost, "/api/leads", token, leadBody("jo@x.com"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Lead created successfully", body["message"])
	lead := body["lead"].(map[string]any)
	id := lead["id"].(string)
	assert.Equal(t, id, lead["_id"])
	assert.Equal(t, "jo@x.com", lead["email"])
	assert.Equal(t, float64(50), lead["score"])

	rec = a.do(http.MethodGet, "/api/leads?status=new", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body = decode(t, rec)
	data := body["data"].([]any)
	require.Len(t, data, 1)
	assert.Equal(t, id, data[0].(map[string]any)["id"])
	assert.Equal(t, float64(1), body["page"])
	assert.Equal(t, float64(20), body["limit"])
	assert.Equal(t, float64(1), body["total"])
	assert.Equal(t, float64(1), body["totalPages"])

	rec = a.do(http.MethodGet, "/api/leads/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Acme", decode(t, rec)["lead"].(map[string]any)["company"])

	rec = a.do(http.MethodPut, "/api/leads/"+id, token, map[string]any{"status": "won", "score": 95})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	body = decode(t, rec)
	assert.Equal(t, "Lead updated successfully", body["message"])
	assert.Equal(t, "won", body["lead"].(map[string]any)["status"])

	rec = a.do(http.MethodDelete, "/api/leads/"+id, token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Lead deleted successfully"}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/leads/"+id, token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.JSONEq(t, `{"message":"Lead not found"}`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/logout", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"message":"Logged out successfully"}`, rec.Body.String())
	cleared := sessionCookie(t, rec)
	assert.Empty(t, cleared.Value)
	assert.Negative(t, cleared.MaxAge)
}

func TestAuthErrors(t *testing.T) {
	a := newAPI(t)
	a.login("a@x.com")

	rec := a.do(http.MethodPost, "/api/auth/register", "", map[string]any{
		"email": "A@x.com", "password": "secret1", "firstName": "A", "lastName": "B",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"User already exists with this email"}`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/login", "", map[string]any{"email": "a@x.com", "password": "nope123"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid credentials"}`, rec.Body.String())

	rec = a.do(http.MethodPost, "/api/auth/register", "", map[string]any{"email": "bad", "password": "1"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, "Validation failed", body["message"])
	assert.Len(t, body["errors"], 4)

	rec = a.do(http.MethodPost, "/api/auth/login", "", `{"email":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Invalid request body"}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/auth/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"No token, authorization denied"}`, rec.Body.String())

	rec = a.do(http.MethodGet, "/api/leads", "forged.token.value", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.JSONEq(t, `{"message":"Token is not valid"}`, rec.Body.String())
}

func TestLeadValidationAndDuplicates(t *testing.T) {
	a := newAPI(t)
	token := a.login("a@x.com")

	bad := leadBody("jo@x.com")
	bad["score"] = 101
	bad["leadValue"] = -1
	rec := a.do(http.MethodPost, "/api/leads", token, bad)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Validation failed","errors":[
        {"field":"score","message":"Score must be between 0 and 100"},
        {"field":"leadValue","message":"Lead value must be positive"}]}`, rec.Body.String())

	require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/leads", token, leadBody("jo@x.com")).Code)
	rec = a.do(http.MethodPost, "/api/leads", token, leadBody("jo@x.com"))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.JSONEq(t, `{"message":"Lead with this email already exists"}`, rec.Body.String())

	// same email, different owner
	other := a.login("b@x.com")
	assert.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/leads", other, leadBody("jo@x.com")).Code)
}

func TestCrossOwnerLooksLikeMissing(t *testing.T) {
	a := newAPI(t)
	alice := a.login("a@x.com")
	bob := a.login("b@x.com")

	rec := a.do(http.MethodPost, "/api/leads", alice, leadBody("jo@x.com"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode(t, rec)["lead"].(map[string]any)["id"].(string)

	missing := a.do(http.MethodGet, "/api/leads/does-not-exist", bob, nil)
	for _, rec := range []*httptest.ResponseRecorder{
		a.do(http.MethodGet, "/api/leads/"+id, bob, nil),
		a.do(http.MethodPut, "/api/leads/"+id, bob, map[string]any{"score": 1}),
		a.do(http.MethodDelete, "/api/leads/"+id, bob, nil),
	} {
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, missing.Body.String(), rec.Body.String())
	}

	// bob's list never includes alice's lead, whatever he filters on
	rec = a.do(http.MethodGet, "/api/leads?userId="+url.QueryEscape(id)+"&email=jo@x.com", bob, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decode(t, rec)["data"])
}

func TestListFiltersAndPaging(t *testing.T) {
	a := newAPI(t)
	token := a.login("a@x.com")
	for i, score := range []int{10, 40, 50, 60, 70} {
		b := leadBody(string(rune('a'+i)) + "@lead.com")
		b["score"] = score
		require.Equal(t, http.StatusCreated, a.do(http.MethodPost, "/api/leads", token, b).Code)
	}

	rec := a.do(http.MethodGet, "/api/leads?score=40&scoreOp=between&scoreMax=60", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(3), body["total"])
	for _, d := range body["data"].([]any) {
		s := d.(map[string]any)["score"].(float64)
		assert.True(t, s >= 40 && s <= 60, s)
	}

	rec = a.do(http.MethodGet, "/api/leads?limit=250&page=0", token, nil)
	body = decode(t, rec)
	assert.Equal(t, float64(100), body["limit"])
	assert.Equal(t, float64(1), body["page"])

	rec = a.do(http.MethodGet, "/api/leads?limit=2&page=3", token, nil)
	body = decode(t, rec)
	assert.Len(t, body["data"], 1)
	assert.Equal(t, float64(3), body["totalPages"])

	rec = a.do(http.MethodGet, "/api/leads?company=acm&companyOp=contains&status=new&status=won&statusOp=in", token, nil)
	assert.Equal(t, float64(5), decode(t, rec)["total"])
}
