// Package cloudways is a minimal client for the hosting provider's REST API:
// an OAuth token exchange and the application permission reset.
package cloudways

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/vulnverified/sitevault/pkg/serrors"
)

const (
	DefaultBaseURL = "https://api.cloudways.com/api/v1"

	requestTimeout = 30 * time.Second
	maxBody        = 1 * 1024 * 1024 // 1MB
)

// Client implements engine.PermissionResetter. The access token is fetched
// on first use and reused until the API rejects it.
type Client struct {
	BaseURL string
	Email   string
	APIKey  string
	HTTP    *http.Client

	mu    sync.Mutex
	token string
}

// New returns a Client for baseURL (DefaultBaseURL when empty).
func New(baseURL, email, apiKey string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Email:   email,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: requestTimeout},
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type apiError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	Message          string `json:"message"`
}

// Token returns the cached access token, exchanging the API key for one on
// the first call.
func (c *Client) Token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" {
		return c.token, nil
	}

	form := url.Values{}
	form.Set("email", c.Email)
	form.Set("api_key", c.APIKey)

	body, err := c.post(ctx, "/oauth/access_token", form, "")
	if err != nil {
		return "", fmt.Errorf("cloudways token exchange: %w", err)
	}

	var tr tokenResponse
	if err := json.Unmarshal(body, &tr); err != nil {
		return "", fmt.Errorf("cloudways token JSON parse: %w", err)
	}
	if tr.AccessToken == "" {
		return "", serrors.With(serrors.ErrUnauthorized, "cloudways returned no access token")
	}

	c.token = tr.AccessToken
	return c.token, nil
}

// ResetPermissions resets file ownership of an application to the master user.
func (c *Client) ResetPermissions(ctx context.Context, serverID, appID string) error {
	token, err := c.Token(ctx)
	if err != nil {
		return err
	}

	form := url.Values{}
	form.Set("server_id", serverID)
	form.Set("app_id", appID)
	form.Set("ownership", "master_user")

	_, err = c.post(ctx, "/app/manage/reset_permissions", form, token)
	if errors.Is(err, serrors.ErrUnauthorized) {
		// The token may have expired during a long run; exchange once more.
		c.invalidate(token)
		if token, err = c.Token(ctx); err != nil {
			return err
		}
		_, err = c.post(ctx, "/app/manage/reset_permissions", form, token)
	}
	if err != nil {
		return fmt.Errorf("cloudways reset permissions for server %s app %s: %w", serverID, appID, err)
	}
	return nil
}

// invalidate drops the cached token if it is still the one that was rejected.
func (c *Client) invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.token == token {
		c.token = ""
	}
}

func (c *Client) post(ctx context.Context, path string, form url.Values, token string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, serrors.Wrap(serrors.ErrUnavailable, err, "POST %s", path)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, serrors.With(serrors.ErrUnauthorized, "status %d: %s", resp.StatusCode, describe(body))
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return nil, fmt.Errorf("status %d: %s", resp.StatusCode, describe(body))
	}
	return body, nil
}

func describe(body []byte) string {
	var ae apiError
	if err := json.Unmarshal(body, &ae); err == nil {
		switch {
		case ae.ErrorDescription != "":
			return ae.ErrorDescription
		case ae.Message != "":
			return ae.Message
		case ae.Error != "":
			return ae.Error
		}
	}
	s := strings.TrimSpace(string(body))
	if len(s) > 200 {
		s = s[:200]
	}
	return s
}
