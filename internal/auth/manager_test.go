package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeIDP struct {
	server       *httptest.Server
	tokenHits    atomic.Int32
	userinfoHits atomic.Int32
	tokenStatus  int
	tokenBody    string
	userinfoBody string

	mu            sync.Mutex
	gotTokenReq   map[string]string
	gotAuthHeader string
}

func newFakeIDP(t *testing.T) *fakeIDP {
	t.Helper()

	f := &fakeIDP{
		tokenStatus:  http.StatusOK,
		tokenBody:    `{"access_token":"tok-1","token_type":"bearer","expires_in":3600}`,
		userinfoBody: `{"sub":"user-7","email":"seller@example.com","name":"Seller"}`,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/oidc/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenHits.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		if err := json.NewDecoder(r.Body).Decode(&body); err == nil {
			f.mu.Lock()
			f.gotTokenReq = body
			f.mu.Unlock()
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(f.tokenStatus)
		_, _ = w.Write([]byte(f.tokenBody))
	})
	mux.HandleFunc("/oidc/userinfo", func(w http.ResponseWriter, r *http.Request) {
		f.userinfoHits.Add(1)
		f.mu.Lock()
		f.gotAuthHeader = r.Header.Get("Authorization")
		f.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(f.userinfoBody))
	})

	f.server = httptest.NewServer(mux)
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeIDP) manager(t *testing.T) *Manager {
	t.Helper()

	m, err := NewManager(context.Background(), ClientConfig{
		ClientID:     "client-1",
		ClientSecret: "secret-1",
		IssuerURL:    f.server.URL + "/oidc",
		TokenURL:     f.server.URL + "/oidc/token",
		UserInfoURL:  f.server.URL + "/oidc/userinfo",
		SessionTTL:   time.Hour,
		HTTPClient:   &http.Client{Timeout: 2 * time.Second},
	})
	require.NoError(t, err)
	return m
}

func TestAuthorizeSuccess(t *testing.T) {
	t.Parallel()

	idp := newFakeIDP(t)
	m := idp.manager(t)

	s, err := m.Authorize(context.Background(), "code-1", "http://localhost:3000/oauth")
	require.NoError(t, err)

	assert.Equal(t, "user-7", s.Subject)
	assert.Equal(t, "seller@example.com", s.Email)
	assert.Equal(t, "tok-1", s.AccessToken)
	assert.Equal(t, "Bearer", s.TokenType)
	assert.Equal(t, "Seller", s.Claims["name"])
	assert.WithinDuration(t, time.Now().Add(time.Hour), s.Expiry, 5*time.Second)

	idp.mu.Lock()
	defer idp.mu.Unlock()
	assert.Equal(t, map[string]string{
		"code":          "code-1",
		"client_id":     "client-1",
		"client_secret": "secret-1",
		"grant_type":    "authorization_code",
		"redirect_uri":  "http://localhost:3000/oauth",
	}, idp.gotTokenReq)
	assert.Equal(t, "Bearer tok-1", idp.gotAuthHeader)
}

func TestAuthorizeMissingCodeMakesNoCalls(t *testing.T) {
	t.Parallel()

	idp := newFakeIDP(t)
	m := idp.manager(t)

	_, err := m.Authorize(context.Background(), "", "http://localhost:3000/oauth")
	require.ErrorIs(t, err, ErrMissingCode)
	assert.Zero(t, idp.tokenHits.Load())
	assert.Zero(t, idp.userinfoHits.Load())
}

func TestAuthorizeTokenFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{"non 2xx", http.StatusBadRequest, `{"error":"invalid_grant"}`, http.StatusBadRequest},
		{"malformed json", http.StatusOK, `{"access_token":`, http.StatusOK},
		{"missing access token", http.StatusOK, `{"token_type":"bearer"}`, http.StatusOK},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			idp := newFakeIDP(t)
			idp.tokenStatus = tt.status
			idp.tokenBody = tt.body
			m := idp.manager(t)

			_, err := m.Authorize(context.Background(), "code-1", "http://localhost/oauth")
			require.Error(t, err)

			var exErr *ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, "token", exErr.Stage)
			assert.Equal(t, tt.wantStatus, exErr.StatusCode)
			assert.Zero(t, idp.userinfoHits.Load())
		})
	}
}

func TestAuthorizeUserinfoFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
	}{
		{"malformed json", `{"sub":`},
		{"missing subject", `{"email":"a@b.c"}`},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			idp := newFakeIDP(t)
			idp.userinfoBody = tt.body
			m := idp.manager(t)

			_, err := m.Authorize(context.Background(), "code-1", "http://localhost/oauth")

			var exErr *ExchangeError
			require.ErrorAs(t, err, &exErr)
			assert.Equal(t, "userinfo", exErr.Stage)
		})
	}
}

func TestAuthorizeTransportFailure(t *testing.T) {
	t.Parallel()

	idp := newFakeIDP(t)
	m := idp.manager(t)
	idp.server.Close()

	_, err := m.Authorize(context.Background(), "code-1", "http://localhost/oauth")

	var exErr *ExchangeError
	require.ErrorAs(t, err, &exErr)
	assert.Equal(t, "token", exErr.Stage)
	assert.Zero(t, exErr.StatusCode)
}

func TestNewManagerValidates(t *testing.T) {
	t.Parallel()

	_, err := NewManager(context.Background(), ClientConfig{ClientID: "x"})
	assert.Error(t, err)
}
