package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sophron-goods/storefront-api/utils"
)

// CarrierAPIError indicates the carrier returned a non-2xx response for an
// API call (as opposed to a transport or auth failure).
type CarrierAPIError struct {
	StatusCode int
	Endpoint   string
	Body       string
}

func (e *CarrierAPIError) Error() string {
	return fmt.Sprintf("carrier API error %d for %s: %s", e.StatusCode, e.Endpoint, e.Body)
}

// CarrierConfig carries the credentials and account identifiers for one
// carrier integration.
type CarrierConfig struct {
	ClientID               string
	ClientSecret           string
	CustomerRegistrationID string
	MailerID               string
	BaseURL                string
	Timeout                time.Duration
}

// CarrierClient is the authenticated HTTP transport for the carrier API.
// All calls go through MakeRequest, which attaches a valid OAuth token and
// normalizes failures into CarrierAPIError.
type CarrierClient struct {
	cfg        CarrierConfig
	auth       *AuthManager
	httpClient *http.Client
}

// NewCarrierClient creates a carrier client with its own auth manager.
func NewCarrierClient(cfg CarrierConfig) *CarrierClient {
	if cfg.Timeout <= 0 {
		cfg.Timeout = utils.DefaultCarrierTimeout
	}
	baseURL := strings.TrimRight(cfg.BaseURL, "/")
	return &CarrierClient{
		cfg:        CarrierConfig{ClientID: cfg.ClientID, ClientSecret: cfg.ClientSecret, CustomerRegistrationID: cfg.CustomerRegistrationID, MailerID: cfg.MailerID, BaseURL: baseURL, Timeout: cfg.Timeout},
		auth:       NewAuthManager(baseURL, cfg.ClientID, cfg.ClientSecret, cfg.Timeout),
		httpClient: &http.Client{Timeout: cfg.Timeout},
	}
}

// MakeRequest performs an authenticated call against the carrier API.
// endpoint must start with a slash. A nil body sends no payload and no
// Content-Type header, matching what the carrier expects on GET.
func (c *CarrierClient) MakeRequest(ctx context.Context, method, endpoint string, body any) (json.RawMessage, error) {
	token, err := c.auth.GetValidToken(ctx)
	if err != nil {
		return nil, err
	}

	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("carrier request body: %w", err)
		}
		reader = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+endpoint, reader)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("carrier request %s: %w", endpoint, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("carrier response %s: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &CarrierAPIError{StatusCode: resp.StatusCode, Endpoint: endpoint, Body: string(raw)}
	}
	return json.RawMessage(raw), nil
}

// CanCreateLabels reports whether the account identifiers required for
// label generation are configured.
func (c *CarrierClient) CanCreateLabels() bool {
	return c.cfg.CustomerRegistrationID != "" && c.cfg.MailerID != ""
}

// CustomerRegistrationID returns the configured CRID.
func (c *CarrierClient) CustomerRegistrationID() string { return c.cfg.CustomerRegistrationID }

// MailerID returns the configured MID.
func (c *CarrierClient) MailerID() string { return c.cfg.MailerID }

// ClearAuth drops cached tokens, forcing re-authentication on the next call.
func (c *CarrierClient) ClearAuth() {
	c.auth.ClearTokens()
}
