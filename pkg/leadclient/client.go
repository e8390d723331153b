// Package leadclient is a Go client for the leadbook HTTP API.  It keeps
// the session cookie in a cookie jar, so after Register or Login every
// call runs as that user until Logout.
package leadclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"
)

// Client talks to one API base URL.  It is safe for concurrent use.
type Client struct {
	base string
	http *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying http.Client.  Its Jar must be set
// for sessions to persist.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) { c.http = h }
}

// WithTimeout changes the per-request timeout (default 10s).
func WithTimeout(d time.Duration) Option {
	return func(c *Client) { c.http.Timeout = d }
}

// New returns a client for baseURL, e.g. "http://localhost:5000".
func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("leadclient: invalid base URL %q", baseURL)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	c := &Client{
		base: strings.TrimRight(baseURL, "/") + "/api",
		http: &http.Client{Jar: jar, Timeout: 10 * time.Second},
	}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

// do sends one request and decodes a 2xx body into out (when non-nil).
func (c *Client) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return err
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.base+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	res, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 4<<20))
	if err != nil {
		return fmt.Errorf("%w: %v", ErrNetwork, err)
	}
	if res.StatusCode < 200 || res.StatusCode > 299 {
		apiErr := &APIError{Status: res.StatusCode}
		var payload struct {
			Message string       `json:"message"`
			Errors  []FieldError `json:"errors"`
		}
		if json.Unmarshal(raw, &payload) == nil {
			apiErr.Message = payload.Message
			apiErr.Fields = payload.Errors
		}
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("leadclient: decode %s %s: %w", method, path, err)
	}
	return nil
}

type userEnvelope struct {
	User User `json:"user"`
}

type leadEnvelope struct {
	Lead Lead `json:"lead"`
}

// Register creates an account and starts a session for it.
func (c *Client) Register(ctx context.Context, email, password, firstName, lastName string) (*User, error) {
	var out userEnvelope
	in := map[string]string{"email": email, "password": password, "firstName": firstName, "lastName": lastName}
	if err := c.do(ctx, http.MethodPost, "/auth/register", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Login starts a session.
func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	var out userEnvelope
	in := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/auth/login", in, &out); err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Me returns the session's user.  A missing or expired session is not an
// error: it returns (nil, nil).
func (c *Client) Me(ctx context.Context) (*User, error) {
	var out userEnvelope
	err := c.do(ctx, http.MethodGet, "/auth/me", nil, &out)
	if errors.Is(err, ErrUnauthenticated) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &out.User, nil
}

// Logout clears the session cookie.  A copy of the token taken earlier
// stays valid until it expires.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/auth/logout", nil, nil)
}

func (c *Client) CreateLead(ctx context.Context, in LeadInput) (*Lead, error) {
	var out leadEnvelope
	if err := c.do(ctx, http.MethodPost, "/leads", in, &out); err != nil {
		return nil, err
	}
	return &out.Lead, nil
}

// ListLeads returns one page of the caller's leads, newest first.  A nil
// filter lists the first page.
func (c *Client) ListLeads(ctx context.Context, f *Filter) (*LeadPage, error) {
	path := "/leads"
	if q := f.Encode(); q != "" {
		path += "?" + q
	}
	var out LeadPage
	if err := c.do(ctx, http.MethodGet, path, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GetLead(ctx context.Context, id string) (*Lead, error) {
	var out leadEnvelope
	if err := c.do(ctx, http.MethodGet, "/leads/"+url.PathEscape(id), nil, &out); err != nil {
		return nil, err
	}
	return &out.Lead, nil
}

// UpdateLead changes only the non-nil fields of in.
func (c *Client) UpdateLead(ctx context.Context, id string, in LeadInput) (*Lead, error) {
	var out leadEnvelope
	if err := c.do(ctx, http.MethodPut, "/leads/"+url.PathEscape(id), in, &out); err != nil {
		return nil, err
	}
	return &out.Lead, nil
}

func (c *Client) DeleteLead(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/leads/"+url.PathEscape(id), nil, nil)
}
