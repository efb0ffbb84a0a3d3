// Package client provides a Go SDK for the authcore HTTP API. It mirrors the
// server's session contract: the Client wraps the auth-token, permissions and
// me endpoints, the RoleCache keeps a per-project role map for synchronous
// gating decisions, and the Boundary gates rendering on a required role.
//
// The boundary is advisory only. The server re-checks every protected call;
// nothing in this package is an enforcement point.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// defaultTimeout bounds every request when the caller's context carries no
// deadline of its own.
const defaultTimeout = 10 * time.Second

// Session is the resolved identity returned by the me endpoint.
type Session struct {
	KeyID       string              `json:"key_id"`
	ProjectID   string              `json:"project_id"`
	Name        string              `json:"name"`
	Permissions []string            `json:"permissions"`
	Roles       map[string][]string `json:"roles"`
}

// Token is the auth-token endpoint response: the resolved actor projection
// plus a short-lived signed token. Permissions is the authoritative capability
// set for the actor.
type Token struct {
	KeyID       string    `json:"key_id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Permissions []string  `json:"permissions"`
	Token       string    `json:"token"`
	ExpiresAt   time.Time `json:"expires_at"`
}

// Permission is one catalog entry from the permissions endpoint.
type Permission struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int
	Code       string `json:"code"`
	Message    string `json:"message"`
}

// Error implements the error interface.
func (e *APIError) Error() string {
	return fmt.Sprintf("api error (status %d): %s", e.StatusCode, e.Message)
}

// Client is an HTTP client for the authcore API. The credential is sent as a
// bearer token on every request and may be either a signed auth token or an
// inline key credential.
type Client struct {
	baseURL    string
	credential string
	httpClient *http.Client
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient replaces the underlying HTTP client.
func WithHTTPClient(httpClient *http.Client) Option {
	return func(c *Client) {
		c.httpClient = httpClient
	}
}

// NewClient creates a Client for the given base URL and bearer credential.
func NewClient(baseURL, credential string, opts ...Option) *Client {
	c := &Client{
		baseURL:    baseURL,
		credential: credential,
		httpClient: &http.Client{Timeout: defaultTimeout},
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Me returns the current session: the resolved actor plus its per-project
// role map.
func (c *Client) Me(ctx context.Context) (*Session, error) {
	var session Session
	if err := c.do(ctx, http.MethodGet, "/api/v1/me/", &session); err != nil {
		return nil, err
	}
	return &session, nil
}

// AuthToken validates the client's credential and returns the actor
// projection together with a short-lived signed token.
func (c *Client) AuthToken(ctx context.Context) (*Token, error) {
	var token Token
	if err := c.do(ctx, http.MethodPost, "/auth/v1/auth-token", &token); err != nil {
		return nil, err
	}
	return &token, nil
}

// Permissions returns the capability catalog in declaration order. The
// endpoint is public; the credential is still sent but not required.
func (c *Client) Permissions(ctx context.Context) ([]Permission, error) {
	var response struct {
		Data []Permission `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/auth/v1/permissions", &response); err != nil {
		return nil, err
	}
	return response.Data, nil
}

// do performs a request against the API and decodes the response into out.
func (c *Client) do(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.credential)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode)
		}
		return apiErr
	}

	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}

	return nil
}
