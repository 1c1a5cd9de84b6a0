package services

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTokenServer(t *testing.T, expiresIn int64, calls *atomic.Int64) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/oauth2/v3/token", r.URL.Path)
		require.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "client_credentials", body["grant_type"])
		assert.Equal(t, "test-client", body["client_id"])
		assert.Equal(t, "test-secret", body["client_secret"])

		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "tok-abc",
			"token_type":   "Bearer",
			"expires_in":   expiresIn,
		})
	}))
}

func TestAuthManager_TokenReuse(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, 3600, &calls)
	defer srv.Close()

	m := NewAuthManager(srv.URL, "test-client", "test-secret", 5*time.Second)

	tok, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)

	tok, err = m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "tok-abc", tok)

	assert.Equal(t, int64(1), calls.Load(), "fresh token should be reused, not re-fetched")
}

func TestAuthManager_RefreshesExpiredToken(t *testing.T) {
	// expires_in below the refresh margin means the token is stale on
	// arrival, so every call must re-authenticate.
	var calls atomic.Int64
	srv := newTokenServer(t, 30, &calls)
	defer srv.Close()

	m := NewAuthManager(srv.URL, "test-client", "test-secret", 5*time.Second)

	_, err := m.GetValidToken(context.Background())
	require.NoError(t, err)
	_, err = m.GetValidToken(context.Background())
	require.NoError(t, err)

	assert.Equal(t, int64(2), calls.Load())
}

func TestAuthManager_ClearTokens(t *testing.T) {
	var calls atomic.Int64
	srv := newTokenServer(t, 3600, &calls)
	defer srv.Close()

	m := NewAuthManager(srv.URL, "test-client", "test-secret", 5*time.Second)

	_, err := m.GetValidToken(context.Background())
	require.NoError(t, err)

	m.ClearTokens()

	_, err = m.GetValidToken(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int64(2), calls.Load())
}

func TestAuthManager_AuthFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		w.Write([]byte(`{"error":"invalid_client"}`))
	}))
	defer srv.Close()

	m := NewAuthManager(srv.URL, "bad-client", "bad-secret", 5*time.Second)

	_, err := m.GetValidToken(context.Background())
	require.Error(t, err)

	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
	assert.Equal(t, http.StatusUnauthorized, authErr.Status)
	assert.Contains(t, authErr.Body, "invalid_client")
}

func TestAuthManager_EmptyToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"access_token":"","expires_in":3600}`))
	}))
	defer srv.Close()

	m := NewAuthManager(srv.URL, "test-client", "test-secret", 5*time.Second)

	_, err := m.GetValidToken(context.Background())
	var authErr *AuthenticationError
	require.ErrorAs(t, err, &authErr)
}

func TestTokenCache_Expiry(t *testing.T) {
	cache := &TokenCache{}

	_, ok := cache.Get()
	assert.False(t, ok, "empty cache should miss")

	cache.Set("tok", time.Now().UTC().Add(time.Hour))
	tok, ok := cache.Get()
	assert.True(t, ok)
	assert.Equal(t, "tok", tok)

	cache.Set("tok", time.Now().UTC().Add(-time.Second))
	_, ok = cache.Get()
	assert.False(t, ok, "expired token should miss")

	cache.Set("tok", time.Now().UTC().Add(time.Hour))
	cache.Clear()
	_, ok = cache.Get()
	assert.False(t, ok)
}
