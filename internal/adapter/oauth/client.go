// Package oauth provides the client for the remote authorization endpoint:
// refresh-token and client-credentials exchanges.
package oauth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

// DefaultScope is requested when a caller does not specify one.
const DefaultScope = "data:read account:read"

// Client calls the token endpoint.
type Client struct {
	tokenURL   string
	httpClient *http.Client
}

// NewClient creates a token endpoint client.
func NewClient(tokenURL string, timeout time.Duration) *Client {
	return &Client{
		tokenURL: tokenURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// TokenResponse is the token endpoint's reply for either grant.
type TokenResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	ExpiresIn    int    `json:"expires_in"`
	TokenType    string `json:"token_type,omitempty"`
}

// Refresh exchanges a refresh token for a new access/refresh pair.
func (c *Client) Refresh(ctx context.Context, clientID, clientSecret, refreshToken, scope string) (*TokenResponse, error) {
	if scope == "" {
		scope = DefaultScope
	}
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"scope":         {scope},
	}
	return c.exchange(ctx, clientID, clientSecret, form)
}

// ClientCredentials obtains an application-level token.
func (c *Client) ClientCredentials(ctx context.Context, clientID, clientSecret, scope string) (*TokenResponse, error) {
	if scope == "" {
		scope = DefaultScope
	}
	form := url.Values{
		"grant_type": {"client_credentials"},
		"scope":      {scope},
	}
	return c.exchange(ctx, clientID, clientSecret, form)
}

func (c *Client) exchange(ctx context.Context, clientID, clientSecret string, form url.Values) (*TokenResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("failed to build token request: %w", err)
	}
	req.SetBasicAuth(clientID, clientSecret)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read token response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("failed to decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return nil, fmt.Errorf("token endpoint returned no access_token")
	}
	return &tok, nil
}
