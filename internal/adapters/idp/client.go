package idp

// Package idp implements the credential provider against the hosted identity
// service's REST API. The service speaks an identity-toolkit style protocol:
// JSON POSTs to accounts:* endpoints, errors as {"error":{"message":"CODE"}}.

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	domainauth "github.com/bookloop/bookloop-ui-api/internal/domain/auth"
	apperrors "github.com/bookloop/bookloop-ui-api/internal/errors"
	"github.com/bookloop/bookloop-ui-api/internal/ports"
)

// Config captures the identity service connection settings.
type Config struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
	Client  *http.Client // Optional, defaults to a client with Timeout
}

// Client implements ports.CredentialProvider over the identity service REST API.
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	now     func() time.Time
}

var _ ports.CredentialProvider = (*Client)(nil)

// NewClient builds an identity service client. Callers should pass a
// validated config.
func NewClient(cfg Config) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, errors.New("identity provider base URL is required")
	}
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, errors.New("identity provider API key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	hc := cfg.Client
	if hc == nil {
		hc = &http.Client{Timeout: timeout}
	}

	return &Client{
		baseURL: baseURL,
		apiKey:  cfg.APIKey,
		client:  hc,
		now:     time.Now,
	}, nil
}

// accountResponse is the common response shape of the accounts:* endpoints.
type accountResponse struct {
	LocalID     string `json:"localId"`
	Email       string `json:"email"`
	DisplayName string `json:"displayName"`
	PhotoURL    string `json:"photoUrl"`
	IDToken     string `json:"idToken"`
	ExpiresIn   string `json:"expiresIn"`
}

func (c *Client) Register(ctx context.Context, in ports.RegisterInput) (domainauth.Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "accounts:signUp", map[string]any{
		"email":             in.Email,
		"password":          in.Password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return domainauth.Identity{}, err
	}

	identity := c.toIdentity(resp)
	identity.DisplayName = in.DisplayName
	identity.PhotoURL = in.PhotoURL

	// Sign-up does not take profile fields; set them in a second call. A
	// failure here leaves the account usable, so surface it to the caller.
	if in.DisplayName != "" || in.PhotoURL != "" {
		if updErr := c.UpdateProfile(ctx, identity.Token, ports.ProfileInput{
			DisplayName: in.DisplayName,
			PhotoURL:    in.PhotoURL,
		}); updErr != nil {
			return domainauth.Identity{}, fmt.Errorf("set profile after sign-up: %w", updErr)
		}
	}
	return identity, nil
}

func (c *Client) Authenticate(ctx context.Context, email, password string) (domainauth.Identity, error) {
	var resp accountResponse
	err := c.post(ctx, "accounts:signInWithPassword", map[string]any{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	}, &resp)
	if err != nil {
		return domainauth.Identity{}, err
	}
	return c.toIdentity(resp), nil
}

func (c *Client) UpdateProfile(ctx context.Context, token string, in ports.ProfileInput) error {
	return c.post(ctx, "accounts:update", map[string]any{
		"idToken":     token,
		"displayName": in.DisplayName,
		"photoUrl":    in.PhotoURL,
	}, nil)
}

func (c *Client) UpdatePassword(ctx context.Context, token, newPassword string) error {
	return c.post(ctx, "accounts:update", map[string]any{
		"idToken":           token,
		"password":          newPassword,
		"returnSecureToken": true,
	}, nil)
}

func (c *Client) SendPasswordReset(ctx context.Context, email string) error {
	return c.post(ctx, "accounts:sendOobCode", map[string]any{
		"requestType": "PASSWORD_RESET",
		"email":       email,
	}, nil)
}

func (c *Client) RefreshToken(ctx context.Context, token string) (string, time.Time, error) {
	var resp accountResponse
	err := c.post(ctx, "accounts:refresh", map[string]any{
		"idToken": token,
	}, &resp)
	if err != nil {
		return "", time.Time{}, err
	}
	return resp.IDToken, c.expiry(resp.ExpiresIn), nil
}

func (c *Client) toIdentity(resp accountResponse) domainauth.Identity {
	return domainauth.Identity{
		IdentityID:  resp.LocalID,
		Email:       resp.Email,
		DisplayName: resp.DisplayName,
		PhotoURL:    resp.PhotoURL,
		Token:       resp.IDToken,
		ExpiresAt:   c.expiry(resp.ExpiresIn),
	}
}

// expiry converts the expiresIn seconds string into an absolute time,
// defaulting to one hour when absent or malformed.
func (c *Client) expiry(expiresIn string) time.Time {
	seconds, err := strconv.Atoi(expiresIn)
	if err != nil || seconds <= 0 {
		seconds = 3600
	}
	return c.now().Add(time.Duration(seconds) * time.Second)
}

func (c *Client) post(ctx context.Context, endpoint string, payload map[string]any, out any) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("encode %s payload: %w", endpoint, err)
	}

	url := c.baseURL + "/" + endpoint + "?key=" + c.apiKey
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("create %s request: %w", endpoint, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return apperrors.Wrap(err, apperrors.ErrCodeInternal, "identity provider unreachable")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read %s response: %w", endpoint, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return mapProviderError(data, resp.StatusCode)
	}

	if out != nil {
		if decErr := json.Unmarshal(data, out); decErr != nil {
			return fmt.Errorf("decode %s response: %w", endpoint, decErr)
		}
	}
	return nil
}

// providerErrorBody is the identity service error envelope.
type providerErrorBody struct {
	Error struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	} `json:"error"`
}

// mapProviderError translates the provider's machine-readable code into the
// application error taxonomy. Unknown codes stay provider errors so handlers
// render them verbatim rather than guessing.
func mapProviderError(body []byte, status int) error {
	var envelope providerErrorBody
	_ = json.Unmarshal(body, &envelope)

	code := envelope.Error.Message
	// Codes may carry a detail suffix, e.g. "WEAK_PASSWORD : ...".
	if idx := strings.IndexByte(code, ' '); idx > 0 {
		code = code[:idx]
	}

	switch code {
	case "EMAIL_EXISTS":
		return &apperrors.AppError{
			Code: apperrors.ErrCodeConflict, Message: "email is already registered", ProviderCode: code,
		}
	case "EMAIL_NOT_FOUND", "INVALID_PASSWORD", "INVALID_LOGIN_CREDENTIALS", "USER_DISABLED":
		return &apperrors.AppError{
			Code: apperrors.ErrCodeUnauthenticated, Message: "invalid email or password", ProviderCode: code,
		}
	case "WEAK_PASSWORD":
		return &apperrors.AppError{
			Code: apperrors.ErrCodeValidation, Message: "password is too weak", Field: "password", ProviderCode: code,
		}
	case "INVALID_EMAIL", "MISSING_EMAIL", "MISSING_PASSWORD":
		return &apperrors.AppError{
			Code: apperrors.ErrCodeValidation, Message: "invalid email or password format", ProviderCode: code,
		}
	case "INVALID_ID_TOKEN", "TOKEN_EXPIRED":
		return &apperrors.AppError{
			Code: apperrors.ErrCodeUnauthenticated, Message: "session token is no longer valid", ProviderCode: code,
		}
	case "CREDENTIAL_TOO_OLD_LOGIN_AGAIN", "REQUIRES_RECENT_LOGIN":
		return apperrors.Provider(code, "recent sign-in required for this operation")
	case "TOO_MANY_ATTEMPTS_TRY_LATER":
		return apperrors.Provider(code, "too many attempts, try again later")
	case "":
		return apperrors.Provider("", fmt.Sprintf("identity provider returned status %d", status))
	default:
		return apperrors.Provider(code, "identity provider rejected the request")
	}
}
