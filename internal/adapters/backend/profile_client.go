package backend

// Package backend implements the marketplace backend's user surface. The
// backend wraps some responses in an envelope ({"user": {...}}) and returns
// others bare; a JMESPath projection normalizes both shapes before decoding.

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

	jmespath "github.com/jmespath-community/go-jmespath"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	apperrors "github.com/bookloop/bookloop-ui-api/internal/errors"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// userEnvelopeExpr unwraps {"user": {...}} envelopes and passes bare user
// objects through unchanged.
const userEnvelopeExpr = "user || @"

// Config captures the backend API connection settings.
type Config struct {
	BaseURL string
	Timeout time.Duration
	Client  *http.Client // Optional, defaults to a client with Timeout
}

// ProfileClient implements ports.ProfileAPI over the backend REST API.
type ProfileClient struct {
	baseURL string
	client  *http.Client
}

var _ ports.ProfileAPI = (*ProfileClient)(nil)

// NewProfileClient builds a backend profile client.
func NewProfileClient(cfg Config) (*ProfileClient, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("backend base URL is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &ProfileClient{
		baseURL: baseURL,
		client:  hc,
	}, nil
}

// CurrentUser resolves the backend role/flags for the principal.
func (c *ProfileClient) CurrentUser(ctx context.Context, token string) (domainauth.Profile, error) {
	data, err := c.do(ctx, http.MethodGet, "/users/me", token, nil)
	if err != nil {
		return domainauth.Profile{}, err
	}
	return decodeProfile(data)
}

// UpdateProfile writes the display profile to the backend user record.
func (c *ProfileClient) UpdateProfile(ctx context.Context, token string, in ports.ProfileInput) error {
	_, err := c.do(ctx, http.MethodPut, "/users/me", token, map[string]any{
		"displayName": in.DisplayName,
		"photoURL":    in.PhotoURL,
	})
	return err
}

// EnsureUser creates the backend user record for a first-time federated
// sign-in. The backend treats an existing record as success.
func (c *ProfileClient) EnsureUser(ctx context.Context, token string, in ports.ProfileInput) error {
	_, err := c.do(ctx, http.MethodPost, "/users", token, map[string]any{
		"displayName": in.DisplayName,
		"photoURL":    in.PhotoURL,
	})
	return err
}

// AcknowledgePasswordSet tells the backend a local password was attached to
// a federated account, clearing the password-required gate.
func (c *ProfileClient) AcknowledgePasswordSet(ctx context.Context, token string) error {
	_, err := c.do(ctx, http.MethodPost, "/users/me/password-set", token, nil)
	return err
}

func (c *ProfileClient) do(ctx context.Context, method, path, token string, payload map[string]any) ([]byte, error) {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("encode %s payload: %w", path, err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("create %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, apperrors.Wrap(err, apperrors.ErrCodeInternal, "backend unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("read %s response: %w", path, err)
	}

	switch {
	case resp.StatusCode >= 200 && resp.StatusCode < 300:
		return data, nil
	case resp.StatusCode == http.StatusUnauthorized:
		return nil, apperrors.Unauthenticated("backend rejected the session token")
	case resp.StatusCode == http.StatusForbidden:
		return nil, apperrors.Forbidden("backend denied the operation")
	case resp.StatusCode == http.StatusNotFound:
		return nil, apperrors.NotFound("backend user record not found")
	case resp.StatusCode == http.StatusConflict:
		return nil, apperrors.Conflict("backend user record already exists")
	default:
		return nil, apperrors.Internalf("backend returned status %d for %s", resp.StatusCode, path)
	}
}

// decodeProfile normalizes the response envelope and decodes the user record.
func decodeProfile(data []byte) (domainauth.Profile, error) {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return domainauth.Profile{}, fmt.Errorf("decode user response: %w", err)
	}

	unwrapped, err := jmespath.Search(userEnvelopeExpr, raw)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("unwrap user envelope: %w", err)
	}

	normalized, err := json.Marshal(unwrapped)
	if err != nil {
		return domainauth.Profile{}, fmt.Errorf("normalize user record: %w", err)
	}

	var profile domainauth.Profile
	if err := json.Unmarshal(normalized, &profile); err != nil {
		return domainauth.Profile{}, fmt.Errorf("decode user record: %w", err)
	}
	return profile, nil
}
