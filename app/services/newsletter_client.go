package services

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// ErrAlreadySubscribed is returned when the provider reports the email is
// already on the list.
var ErrAlreadySubscribed = errors.New("email already subscribed")

// NewsletterSubscription is the provider's record of a subscriber.
type NewsletterSubscription struct {
	ID     string
	Email  string
	Status string
}

// NewsletterCustomField is one provider custom field on a subscription.
type NewsletterCustomField struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewsletterService subscribes emails to the marketing list.
type NewsletterService interface {
	Subscribe(ctx context.Context, email, source string, fields []NewsletterCustomField) (*NewsletterSubscription, error)
}

// NewsletterClient talks to the Beehiiv publications API.
type NewsletterClient struct {
	BaseURL       string
	APIKey        string
	PublicationID string
	HTTPClient    *http.Client
}

// NewNewsletterClient creates a newsletter client.
func NewNewsletterClient(baseURL, apiKey, publicationID string, timeout time.Duration) *NewsletterClient {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &NewsletterClient{
		BaseURL:       strings.TrimRight(baseURL, "/"),
		APIKey:        apiKey,
		PublicationID: publicationID,
		HTTPClient:    &http.Client{Timeout: timeout},
	}
}

type newsletterSubscribeReq struct {
	Email              string                  `json:"email"`
	ReactivateExisting bool                    `json:"reactivate_existing"`
	SendWelcomeEmail   bool                    `json:"send_welcome_email"`
	UTMSource          string                  `json:"utm_source,omitempty"`
	CustomFields       []NewsletterCustomField `json:"custom_fields,omitempty"`
}

type newsletterSubscribeResp struct {
	Data struct {
		ID     string `json:"id"`
		Email  string `json:"email"`
		Status string `json:"status"`
	} `json:"data"`
}

// Subscribe adds the email to the publication. A provider 409 maps to
// ErrAlreadySubscribed so handlers can report it distinctly.
func (c *NewsletterClient) Subscribe(ctx context.Context, email, source string, fields []NewsletterCustomField) (*NewsletterSubscription, error) {
	body := newsletterSubscribeReq{
		Email:              email,
		ReactivateExisting: false,
		SendWelcomeEmail:   true,
		UTMSource:          source,
		CustomFields:       fields,
	}
	b, _ := json.Marshal(body)
	url := c.BaseURL + "/v2/publications/" + c.PublicationID + "/subscriptions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("newsletter request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return nil, ErrAlreadySubscribed
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("newsletter provider status %d: %s", resp.StatusCode, string(raw))
	}

	var out newsletterSubscribeResp
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("newsletter response: %w", err)
	}
	return &NewsletterSubscription{ID: out.Data.ID, Email: out.Data.Email, Status: out.Data.Status}, nil
}
