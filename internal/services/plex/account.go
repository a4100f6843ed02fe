package plex

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
)

var (
	// ErrBadRequest is plex.tv rejecting a sign-in request as malformed. It
	// is the only sign-in failure that is retried.
	ErrBadRequest = errors.New("plex.tv rejected the request")
	// ErrUnauthorized is plex.tv rejecting the credentials.
	ErrUnauthorized = errors.New("invalid plex.tv credentials")
)

const defaultAccountURL = "https://plex.tv"

// Account is a signed-in plex.tv user.
type Account struct {
	Username  string
	AuthToken string
}

// accountClient talks to plex.tv.
type accountClient struct {
	baseURL string
	headers clientHeaders
	client  HTTPDoer
}

func newAccountClient(baseURL string, headers clientHeaders, client HTTPDoer) *accountClient {
	trimmed := strings.TrimRight(baseURL, "/")
	if trimmed == "" {
		trimmed = defaultAccountURL
	}
	return &accountClient{baseURL: trimmed, headers: headers, client: client}
}

type signInResponse struct {
	Username  string `json:"username"`
	Email     string `json:"email"`
	AuthToken string `json:"authToken"`
}

// SignIn exchanges a username and password for an account token.
func (c *accountClient) SignIn(ctx context.Context, username, password string) (*Account, error) {
	form := url.Values{}
	form.Set("login", username)
	form.Set("password", password)
	form.Set("rememberMe", "false")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v2/users/signin", strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build sign-in request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	c.headers.apply(req, "")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("plex sign-in request failed: %w", err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusBadRequest:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrBadRequest
	case resp.StatusCode == http.StatusUnauthorized:
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	case resp.StatusCode >= http.StatusBadRequest:
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("plex sign-in returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var payload signInResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	if strings.TrimSpace(payload.AuthToken) == "" {
		return nil, errors.New("plex sign-in: missing authToken in response")
	}
	name := payload.Username
	if name == "" {
		name = payload.Email
	}
	return &Account{Username: name, AuthToken: payload.AuthToken}, nil
}

// Resources lists the devices registered to the account.
func (c *accountClient) Resources(ctx context.Context, token string) ([]Resource, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/api/v2/resources?includeHttps=1&includeRelay=1", nil)
	if err != nil {
		return nil, fmt.Errorf("build plex resources request: %w", err)
	}
	req.Header.Set("Accept", "application/xml")
	c.headers.apply(req, strings.TrimSpace(token))

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch plex resources: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil, ErrUnauthorized
	}
	if resp.StatusCode >= http.StatusBadRequest {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return nil, fmt.Errorf("plex resources returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var list resourceList
	if err := xml.NewDecoder(resp.Body).Decode(&list); err != nil {
		return nil, fmt.Errorf("decode plex resources: %w", err)
	}
	return list.Resources, nil
}
