// Package salesforce implements the LimitsClient port against the Salesforce
// REST API.
package salesforce

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/IsuruHerath/force-monitor/internal/domain/model"
	"github.com/IsuruHerath/force-monitor/internal/domain/port/driven"
)

// Compile-time interface satisfaction check.
var _ driven.LimitsClient = (*Client)(nil)

const (
	apiVersion         = "v59.0"
	productionLoginURL = "https://login.salesforce.com"
	sandboxLoginURL    = "https://test.salesforce.com"
)

// Client implements the driven.LimitsClient port. Limits are read from the
// tenant's instance URL; token refreshes go to the login host selected by the
// organization's environment.
type Client struct {
	http         *http.Client
	clientID     string
	clientSecret string
	loginURL     string // Non-empty overrides environment-based host selection; set in tests.
}

// NewClient creates a Salesforce API client. clientID and clientSecret are
// the connected app's OAuth credentials, used only for the refresh grant.
func NewClient(clientID, clientSecret string) *Client {
	return &Client{
		http:         &http.Client{Timeout: 30 * time.Second},
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// NewClientWithHTTPClient creates a Client with a custom http.Client and a
// fixed login URL. This constructor is intended for testing, allowing
// injection of an httptest server.
func NewClientWithHTTPClient(httpClient *http.Client, loginURL, clientID, clientSecret string) *Client {
	return &Client{
		http:         httpClient,
		clientID:     clientID,
		clientSecret: clientSecret,
		loginURL:     loginURL,
	}
}

// FetchLimits retrieves the org limits payload from the tenant's instance.
// A 401/403 response maps to driven.ErrAuthExpired; anything else non-200 is
// a plain remote API error. The verbatim response body is preserved alongside
// the tolerantly parsed limits map.
func (c *Client) FetchLimits(ctx context.Context, instanceURL, accessToken string) (*model.LimitsResult, error) {
	endpoint := strings.TrimRight(instanceURL, "/") + "/services/data/" + apiVersion + "/limits"

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build limits request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch limits: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read limits response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("fetch limits: status %d: %w", resp.StatusCode, driven.ErrAuthExpired)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("fetch limits: unexpected status %d", resp.StatusCode)
	}

	return &model.LimitsResult{
		Raw:    body,
		Limits: parseLimits(body),
	}, nil
}

// parseLimits decodes the limits payload tolerantly: entries that do not have
// the {Max, Remaining} shape are dropped rather than failing the whole
// response, since the payload is a schema-less bag that varies by org edition.
func parseLimits(body []byte) map[string]model.LimitEntry {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(body, &raw); err != nil {
		return map[string]model.LimitEntry{}
	}

	limits := make(map[string]model.LimitEntry, len(raw))
	for name, value := range raw {
		var entry model.LimitEntry
		if err := json.Unmarshal(value, &entry); err != nil {
			continue
		}
		limits[name] = entry
	}
	return limits
}

// refreshResponse is the token endpoint's success body. Salesforce omits
// refresh_token unless rotation is enabled for the connected app.
type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	InstanceURL  string `json:"instance_url"`
}

// Refresh exchanges a refresh token for a new access token via the OAuth
// refresh_token grant.
func (c *Client) Refresh(ctx context.Context, refreshToken string, env model.Environment) (*driven.RefreshResult, error) {
	form := url.Values{
		"grant_type":    {"refresh_token"},
		"refresh_token": {refreshToken},
		"client_id":     {c.clientID},
	}
	if c.clientSecret != "" {
		form.Set("client_secret", c.clientSecret)
	}

	endpoint := c.loginHost(env) + "/services/oauth2/token"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build refresh request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("refresh token: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read refresh response: %w", err)
	}

	if resp.StatusCode != http.StatusOK {
		// Body is not included: it can echo credential material.
		return nil, fmt.Errorf("refresh token: unexpected status %d", resp.StatusCode)
	}

	var parsed refreshResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, fmt.Errorf("decode refresh response: %w", err)
	}
	if parsed.AccessToken == "" {
		return nil, fmt.Errorf("refresh token: response carried no access token")
	}

	return &driven.RefreshResult{
		AccessToken:  parsed.AccessToken,
		RefreshToken: parsed.RefreshToken,
		InstanceURL:  parsed.InstanceURL,
	}, nil
}

func (c *Client) loginHost(env model.Environment) string {
	if c.loginURL != "" {
		return c.loginURL
	}
	if env == model.EnvironmentSandbox {
		return sandboxLoginURL
	}
	return productionLoginURL
}
