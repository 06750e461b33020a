// Package source implements the HTTP client for the upstream record API.
//
// The API authenticates with form-encoded credentials against /auth and
// serves paginated resource collections under /{resource}?limit=&offset=
// inside a {"data": [...]} envelope. An empty data array signals the end
// of a resource, not an error.
package source

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"crmsync/internal/config"
)

// ErrAuthFailed is returned when the API declines the configured
// credentials (a null or absent token in the auth response).
var ErrAuthFailed = errors.New("authentication failed")

// Client talks to the upstream record API.
type Client struct {
	baseURL    string
	username   string
	password   string
	token      string
	httpClient *http.Client
}

// NewClient creates a Client from API config.
func NewClient(cfg config.APIConfig, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		username:   cfg.Username,
		password:   cfg.Password,
		httpClient: httpClient,
	}
}

// Authenticate exchanges the configured credentials for a bearer token.
// The API responds with {"token": null} for bad credentials, which maps
// to ErrAuthFailed.
func (c *Client) Authenticate(ctx context.Context) error {
	form := url.Values{}
	form.Set("username", c.username)
	form.Set("password", c.password)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/auth",
		strings.NewReader(form.Encode()))
	if err != nil {
		return fmt.Errorf("create auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read auth response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("%w: auth returned status %d", ErrAuthFailed, resp.StatusCode)
	}

	var payload struct {
		Token *string `json:"token"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return fmt.Errorf("decode auth response: %w", err)
	}
	if payload.Token == nil || *payload.Token == "" {
		return ErrAuthFailed
	}

	c.token = *payload.Token
	return nil
}

// FetchPage retrieves one page of records for the named resource.
// An empty slice means the resource is exhausted.
func (c *Client) FetchPage(ctx context.Context, resource string, limit, offset int) ([]map[string]any, error) {
	u := fmt.Sprintf("%s/%s?limit=%s&offset=%s",
		c.baseURL, resource,
		strconv.Itoa(limit), strconv.Itoa(offset))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", resource, err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s at offset %d: %w", resource, offset, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", resource, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s at offset %d: status %d", resource, offset, resp.StatusCode)
	}

	var payload struct {
		Data []map[string]any `json:"data"`
	}
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("decode %s response: %w", resource, err)
	}
	return payload.Data, nil
}
