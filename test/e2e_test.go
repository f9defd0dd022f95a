// Package integration exercises the full stack end to end: the HTTP
// surface, the request gate, the engine, and a credential store, the way
// a deployed client would.
package integration

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenauth/warden"
	"github.com/wardenauth/warden/internal/httpd"
	"github.com/wardenauth/warden/password"
	"github.com/wardenauth/warden/store"
)

const (
	email       = "bob@bob.com"
	pw          = "b4l0u"
	newPw       = "t4rt1fl3tt3"
	wrongPw     = "WrongPassword"
	cookieName  = "session_id"
	contentForm = "application/x-www-form-urlencoded"
)

func fastCost() password.Config {
	return password.Config{
		Memory:      8192,
		Time:        1,
		Parallelism: 1,
		SaltLength:  16,
		KeyLength:   16,
	}
}

func newServer(t *testing.T, credStore store.Store) *httptest.Server {
	t.Helper()

	cfg := warden.DefaultConfig()
	cfg.Password.Cost = fastCost()

	engine, err := warden.New().WithConfig(cfg).WithStore(credStore).Build()
	require.NoError(t, err)
	t.Cleanup(engine.Close)

	srv := httptest.NewServer(httpd.New(httpd.DefaultConfig(), engine, nil).Handler())
	t.Cleanup(srv.Close)
	return srv
}

type client struct {
	t    *testing.T
	base string
	http *http.Client
}

func newClient(t *testing.T, srv *httptest.Server) *client {
	return &client{t: t, base: srv.URL, http: srv.Client()}
}

func (c *client) do(method, path string, form url.Values, cookies ...*http.Cookie) (*http.Response, map[string]string) {
	c.t.Helper()

	var body io.Reader
	if form != nil {
		body = strings.NewReader(form.Encode())
	}
	req, err := http.NewRequest(method, c.base+path, body)
	require.NoError(c.t, err)
	if form != nil {
		req.Header.Set("Content-Type", contentForm)
	}
	for _, cookie := range cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.http.Do(req)
	require.NoError(c.t, err)
	defer func() { _ = resp.Body.Close() }()

	payload := map[string]string{}
	raw, err := io.ReadAll(resp.Body)
	require.NoError(c.t, err)
	if strings.HasPrefix(resp.Header.Get("Content-Type"), "application/json") {
		_ = json.Unmarshal(raw, &payload)
	}
	return resp, payload
}

func sessionCookie(t *testing.T, resp *http.Response) *http.Cookie {
	t.Helper()
	for _, c := range resp.Cookies() {
		if c.Name == cookieName {
			return c
		}
	}
	t.Fatal("no session cookie in response")
	return nil
}

func runScenario(t *testing.T, credStore store.Store) {
	srv := newServer(t, credStore)
	c := newClient(t, srv)

	// Register, then attempt a duplicate.
	resp, body := c.do(http.MethodPost, "/users", url.Values{"email": {email}, "password": {pw}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "user created", body["message"])
	assert.Equal(t, email, body["email"])

	resp, body = c.do(http.MethodPost, "/users", url.Values{"email": {email}, "password": {pw}})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "email already registered", body["message"])

	// Wrong password.
	resp, _ = c.do(http.MethodPost, "/sessions", url.Values{"email": {email}, "password": {wrongPw}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Profile with no credential material.
	resp, _ = c.do(http.MethodGet, "/profile", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	// Login, then profile with the cookie.
	resp, body = c.do(http.MethodPost, "/sessions", url.Values{"email": {email}, "password": {pw}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "logged in", body["message"])
	cookie := sessionCookie(t, resp)

	resp, body = c.do(http.MethodGet, "/profile", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, email, body["email"])

	// Logout, then the old cookie must be refused.
	resp, body = c.do(http.MethodDelete, "/sessions", nil, cookie)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Bienvenue", body["message"])

	resp, _ = c.do(http.MethodGet, "/profile", nil, cookie)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Password reset round trip.
	resp, body = c.do(http.MethodPost, "/reset_password", url.Values{"email": {email}})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	resetToken := body["reset_token"]
	require.NotEmpty(t, resetToken)

	resp, body = c.do(http.MethodPut, "/reset_password", url.Values{
		"email":        {email},
		"reset_token":  {resetToken},
		"new_password": {newPw},
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "Password updated", body["message"])

	// Old password refused, new one accepted.
	resp, _ = c.do(http.MethodPost, "/sessions", url.Values{"email": {email}, "password": {pw}})
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)

	resp, _ = c.do(http.MethodPost, "/sessions", url.Values{"email": {email}, "password": {newPw}})
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestScenarioMemoryStore(t *testing.T) {
	runScenario(t, store.NewMemory())
}

func TestScenarioRedisStore(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	runScenario(t, store.NewRedis(client, "warden"))
}
