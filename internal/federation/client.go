// Package federation exchanges an upstream-issued session id for a verified
// identity, delegating credential checks to an external provider.
package federation

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// ErrUpstreamRejected indicates the provider refused the session id.
var ErrUpstreamRejected = errors.New("federation: upstream rejected session")

// Identity is the profile returned by a successful session exchange. The
// provider issues the session token; we only bind it locally.
type Identity struct {
	Email        string `json:"email"`
	Name         string `json:"name"`
	Picture      string `json:"picture"`
	SessionToken string `json:"session_token"`
}

// Client calls the configured session-exchange endpoint. No retries: a failed
// exchange surfaces immediately to the caller.
type Client struct {
	Endpoint   string
	HTTPClient *http.Client
}

// NewClient constructs a Client for the provided endpoint.
func NewClient(endpoint string) *Client {
	return &Client{
		Endpoint:   endpoint,
		HTTPClient: &http.Client{Timeout: 15 * time.Second},
	}
}

// ExchangeSession resolves the upstream session id to an identity. Any
// non-200 response maps to ErrUpstreamRejected.
func (c *Client) ExchangeSession(ctx context.Context, sessionID string) (Identity, error) {
	if strings.TrimSpace(c.Endpoint) == "" {
		return Identity{}, fmt.Errorf("federation endpoint not configured: %w", ErrUpstreamRejected)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.Endpoint, nil)
	if err != nil {
		return Identity{}, fmt.Errorf("build session exchange request: %w", err)
	}
	req.Header.Set("X-Session-ID", sessionID)

	client := c.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	resp, err := client.Do(req)
	if err != nil {
		return Identity{}, fmt.Errorf("session exchange: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Identity{}, fmt.Errorf("session exchange returned %d: %w", resp.StatusCode, ErrUpstreamRejected)
	}

	var identity Identity
	if err := json.NewDecoder(resp.Body).Decode(&identity); err != nil {
		return Identity{}, fmt.Errorf("decode session exchange response: %w", err)
	}

	if identity.Email == "" || identity.SessionToken == "" {
		return Identity{}, fmt.Errorf("session exchange response incomplete: %w", ErrUpstreamRejected)
	}

	return identity, nil
}
