// Package services provides external service integrations like the carrier API and newsletter provider
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sophron-goods/storefront-api/utils"
)

// AuthenticationError indicates the carrier rejected an OAuth token request.
type AuthenticationError struct {
	Status int
	Body   string
}

func (e *AuthenticationError) Error() string {
	return fmt.Sprintf("carrier auth failed with status %d: %s", e.Status, e.Body)
}

// TokenCache holds one OAuth access token and its expiry. Safe for
// concurrent use.
type TokenCache struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// Get returns the cached token if it has not expired yet.
func (c *TokenCache) Get() (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.token == "" || utils.UTCNow().After(c.expiresAt) {
		return "", false
	}
	return c.token, true
}

// Set stores a token with its expiry.
func (c *TokenCache) Set(token string, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = token
	c.expiresAt = expiresAt
}

// Clear discards the cached token.
func (c *TokenCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.token = ""
	c.expiresAt = time.Time{}
}

// AuthManager obtains and caches OAuth client-credentials tokens for the
// carrier API. Tokens are refreshed one minute before their reported
// expiry. Concurrent callers may race on a refresh; the carrier accepts
// duplicate token requests so the losing request is merely wasted.
type AuthManager struct {
	BaseURL      string
	ClientID     string
	ClientSecret string
	HTTPClient   *http.Client
	Cache        *TokenCache
}

// NewAuthManager creates an auth manager for the given carrier credentials.
func NewAuthManager(baseURL, clientID, clientSecret string, timeout time.Duration) *AuthManager {
	if timeout <= 0 {
		timeout = utils.DefaultCarrierTimeout
	}
	return &AuthManager{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ClientID:     clientID,
		ClientSecret: clientSecret,
		HTTPClient:   &http.Client{Timeout: timeout},
		Cache:        &TokenCache{},
	}
}

type carrierTokenReq struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	GrantType    string `json:"grant_type"`
}

type carrierTokenResp struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
}

// GetValidToken returns a cached token when one is still fresh, otherwise
// requests a new one from the carrier.
func (m *AuthManager) GetValidToken(ctx context.Context) (string, error) {
	if token, ok := m.Cache.Get(); ok {
		return token, nil
	}
	return m.refreshToken(ctx)
}

// ClearTokens drops any cached token so the next call re-authenticates.
func (m *AuthManager) ClearTokens() {
	m.Cache.Clear()
}

func (m *AuthManager) refreshToken(ctx context.Context) (string, error) {
	body := carrierTokenReq{
		ClientID:     m.ClientID,
		ClientSecret: m.ClientSecret,
		GrantType:    "client_credentials",
	}
	b, _ := json.Marshal(body)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.BaseURL+"/oauth2/v3/token", bytes.NewReader(b))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := m.HTTPClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("carrier auth request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", &AuthenticationError{Status: resp.StatusCode, Body: string(raw)}
	}

	var out carrierTokenResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("carrier auth response: %w", err)
	}
	if out.AccessToken == "" {
		return "", &AuthenticationError{Status: resp.StatusCode, Body: "empty access_token"}
	}

	expiresAt := utils.UTCNow().
		Add(time.Duration(out.ExpiresIn) * time.Second).
		Add(-utils.CarrierTokenRefreshMargin)
	m.Cache.Set(out.AccessToken, expiresAt)
	return out.AccessToken, nil
}
