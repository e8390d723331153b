package leadclient_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/iliyamo/leadbook/internal/handler"
	"github.com/iliyamo/leadbook/internal/router"
	"github.com/iliyamo/leadbook/internal/service"
	"github.com/iliyamo/leadbook/internal/testhelpers"
	"github.com/iliyamo/leadbook/pkg/leadclient"
)

func newServer(t *testing.T) *httptest.Server {
	t.Helper()
	log := logrus.New()
	log.SetOutput(io.Discard)

	auth, err := service.NewAuthService(testhelpers.NewUsers(), service.AuthConfig{
		Secret:     "client-secret",
		SessionTTL: time.Hour,
		BcryptCost: bcrypt.MinCost,
	}, log)
	require.NoError(t, err)
	leads := service.NewLeadService(testhelpers.NewLeads(), service.NopPublisher{}, log)

	srv := httptest.NewServer(router.New(router.Deps{
		Log:           log,
		CookieName:    "token",
		Authenticator: auth,
		Auth:          handler.NewAuthHandler(auth, handler.CookieConfig{Name: "token"}),
		Leads:         handler.NewLeadHandler(leads, time.UTC),
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newClient(t *testing.T, srv *httptest.Server) *leadclient.Client {
	t.Helper()
	c, err := leadclient.New(srv.URL)
	require.NoError(t, err)
	return c
}

func sampleLead(email string) leadclient.LeadInput {
	return leadclient.LeadInput{
		FirstName: leadclient.Ptr("Jo"),
		LastName:  leadclient.Ptr("Doe"),
		Email:     leadclient.Ptr(email),
		Phone:     leadclient.Ptr("555-0100"),
		Company:   leadclient.Ptr("Acme"),
		City:      leadclient.Ptr("Austin"),
		State:     leadclient.Ptr("TX"),
		Source:    leadclient.Ptr("website"),
		Score:     leadclient.Ptr(50),
		LeadValue: leadclient.Ptr(1200.0),
	}
}

func TestClient_SessionLifecycle(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()

	me, err := c.Me(ctx)
	require.NoError(t, err)
	assert.Nil(t, me)

	_, err = c.ListLeads(ctx, nil)
	assert.ErrorIs(t, err, leadclient.ErrUnauthenticated)

	u, err := c.Register(ctx, "Jo@Example.com", "secret1", "Jo", "Doe")
	require.NoError(t, err)
	assert.Equal(t, "jo@example.com", u.Email)

	me, err = c.Me(ctx)
	require.NoError(t, err)
	require.NotNil(t, me)
	assert.Equal(t, u.ID, me.ID)

	require.NoError(t, c.Logout(ctx))
	me, err = c.Me(ctx)
	require.NoError(t, err)
	assert.Nil(t, me)

	_, err = c.Login(ctx, "jo@example.com", "wrong-pass")
	var apiErr *leadclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusUnauthorized, apiErr.Status)
	assert.Equal(t, "Invalid credentials", apiErr.Message)

	_, err = c.Login(ctx, "jo@example.com", "secret1")
	require.NoError(t, err)
	me, err = c.Me(ctx)
	require.NoError(t, err)
	require.NotNil(t, me)
}

func TestClient_LeadCRUD(t *testing.T) {
	srv := newServer(t)
	c := newClient(t, srv)
	ctx := context.Background()
	_, err := c.Register(ctx, "owner@example.com", "secret1", "Own", "Er")
	require.NoError(t, err)

	created, err := c.CreateLead(ctx, sampleLead("lead@example.com"))
	require.NoError(t, err)
	assert.Equal(t, "new", created.Status)
	assert.Equal(t, 50, created.Score)

	_, err = c.CreateLead(ctx, sampleLead("lead@example.com"))
	var apiErr *leadclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusBadRequest, apiErr.Status)

	bad := sampleLead("other@example.com")
	bad.Score = leadclient.Ptr(101)
	_, err = c.CreateLead(ctx, bad)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, "Score must be between 0 and 100", apiErr.FieldMessage("score"))

	got, err := c.GetLead(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Email, got.Email)

	updated, err := c.UpdateLead(ctx, created.ID, leadclient.LeadInput{Status: leadclient.Ptr("won"), Score: leadclient.Ptr(95)})
	require.NoError(t, err)
	assert.Equal(t, "won", updated.Status)
	assert.Equal(t, 95, updated.Score)
	assert.Equal(t, "Acme", updated.Company)

	_, err = c.CreateLead(ctx, sampleLead("second@example.com"))
	require.NoError(t, err)

	page, err := c.ListLeads(ctx, new(leadclient.Filter).Enum("status", "won", "lost").Limit(10))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, created.ID, page.Data[0].ID)
	assert.EqualValues(t, 1, page.Total)
	assert.Equal(t, 10, page.Limit)

	page, err = c.ListLeads(ctx, new(leadclient.Filter).NumberBetween("score", 40, 60))
	require.NoError(t, err)
	require.Len(t, page.Data, 1)
	assert.Equal(t, "second@example.com", page.Data[0].Email)

	require.NoError(t, c.DeleteLead(ctx, created.ID))
	_, err = c.GetLead(ctx, created.ID)
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.Equal(t, "Lead not found", apiErr.Message)
}

func TestClient_OtherOwnersLeadsAreInvisible(t *testing.T) {
	srv := newServer(t)
	ctx := context.Background()
	alice, bob := newClient(t, srv), newClient(t, srv)
	_, err := alice.Register(ctx, "alice@example.com", "secret1", "Alice", "A")
	require.NoError(t, err)
	_, err = bob.Register(ctx, "bob@example.com", "secret1", "Bob", "B")
	require.NoError(t, err)

	l, err := alice.CreateLead(ctx, sampleLead("shared@example.com"))
	require.NoError(t, err)

	_, err = bob.GetLead(ctx, l.ID)
	var apiErr *leadclient.APIError
	require.ErrorAs(t, err, &apiErr)
	assert.Equal(t, http.StatusNotFound, apiErr.Status)
	assert.False(t, errors.Is(err, leadclient.ErrUnauthenticated))

	page, err := bob.ListLeads(ctx, nil)
	require.NoError(t, err)
	assert.Empty(t, page.Data)
	assert.Zero(t, page.TotalPages)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	c, err := leadclient.New(url, leadclient.WithTimeout(time.Second))
	require.NoError(t, err)
	_, err = c.Login(context.Background(), "a@b.c", "x")
	assert.ErrorIs(t, err, leadclient.ErrNetwork)
}

func TestNew_RejectsBadURL(t *testing.T) {
	_, err := leadclient.New("not a url")
	assert.Error(t, err)
}
