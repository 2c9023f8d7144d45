package authclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bsi-games/bsi/internal/dependencies/clock"
	"github.com/bsi-games/bsi/internal/model"
)

var (
	ErrInvalidCredentials = errors.New("authorization server did not accept credentials")
	ErrDuplicate          = errors.New("username or address already registered")
	ErrInvalidToken       = errors.New("token invalid, expired or revoked")
	ErrUnreachable        = errors.New("authorization server could not be reached")
	ErrUnexpected         = errors.New("authorization server returned unexpected data")
)

// Config holds authorization client configuration
type Config struct {
	BaseURL  string
	ClientID string
	Timeout  time.Duration
}

// DefaultConfig returns default authorization client configuration
func DefaultConfig() Config {
	return Config{
		BaseURL:  "http://localhost:9443",
		ClientID: "bsi",
		Timeout:  30 * time.Second,
	}
}

// Client talks to the authorization server
type Client struct {
	baseURL    string
	clientID   string
	httpClient *http.Client
	clock      clock.Clock
	logger     *slog.Logger
}

// New creates an authorization client
func New(cfg Config, clk clock.Clock, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimSuffix(cfg.BaseURL, "/"),
		clientID:   cfg.ClientID,
		httpClient: &http.Client{Timeout: cfg.Timeout},
		clock:      clk,
		logger:     logger.With(slog.String("component", "authclient")),
	}
}

// TokenResponse is the authorization server's token grant
type TokenResponse struct {
	TokenType   string `json:"token_type"`
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
}

// MessageResponse is returned by register and revoke
type MessageResponse struct {
	Message string  `json:"message"`
	Error   *string `json:"error"`
}

// Introspection describes a token as the authorization server sees it
type Introspection struct {
	Active    bool   `json:"active"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"token_type,omitempty"`
	ExpiresIn int64  `json:"expires_in,omitempty"`
}

type introspectResponse struct {
	Response Introspection `json:"response"`
}

// Register creates an account. Returns ErrDuplicate when the name or address is taken.
func (c *Client) Register(ctx context.Context, username, eaddress, password string) error {
	form := c.form("password")
	form.Set("username", username)
	form.Set("eaddress", eaddress)
	form.Set("password", password)

	status, body, err := c.post(ctx, http.MethodPost, "/auth/register", form)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return fmt.Errorf("%w: register returned HTTP %d", ErrUnexpected, status)
	}

	var msg MessageResponse
	if err := json.Unmarshal(body, &msg); err != nil {
		return fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	switch msg.Message {
	case "registered":
		c.logger.Info("registered", slog.String("username", username))
		return nil
	case "duplicate":
		return ErrDuplicate
	default:
		return fmt.Errorf("%w: register message %q", ErrUnexpected, msg.Message)
	}
}

// SignIn exchanges username and password for a credential
func (c *Client) SignIn(ctx context.Context, username, password string) (*model.Credential, error) {
	form := c.form("password")
	form.Set("username", username)
	form.Set("password", password)

	status, body, err := c.post(ctx, http.MethodPost, "/auth/token", form)
	if err != nil {
		return nil, err
	}
	// The authorization server answers bad credentials with a 500
	if status == http.StatusInternalServerError {
		return nil, ErrInvalidCredentials
	}
	if status != http.StatusOK {
		return nil, fmt.Errorf("%w: sign in returned HTTP %d", ErrUnexpected, status)
	}

	var tok TokenResponse
	if err := json.Unmarshal(body, &tok); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	if tok.TokenType == "" || tok.AccessToken == "" {
		return nil, fmt.Errorf("%w: token grant missing fields", ErrUnexpected)
	}

	cred := &model.Credential{Kind: tok.TokenType, Secret: tok.AccessToken}
	if tok.ExpiresIn > 0 {
		cred.ExpiresAt = clock.After(c.clock, time.Duration(tok.ExpiresIn)*time.Second)
	}
	c.logger.Info("signed in", slog.String("username", username))
	return cred, nil
}

// Revoke deletes the token on the authorization server
func (c *Client) Revoke(ctx context.Context, cred model.Credential) error {
	form := c.form("password")
	form.Set("token", cred.Secret)

	status, _, err := c.post(ctx, http.MethodDelete, "/auth/token/revoke", form)
	if err != nil {
		return err
	}
	if status != http.StatusOK {
		return ErrInvalidToken
	}
	return nil
}

// Introspect asks the authorization server about a token
func (c *Client) Introspect(ctx context.Context, cred model.Credential) (*Introspection, error) {
	form := c.form("password")
	form.Set("token", cred.Secret)

	status, body, err := c.post(ctx, http.MethodPost, "/auth/token/introspect", form)
	if err != nil {
		return nil, err
	}
	if status != http.StatusOK {
		return nil, ErrInvalidToken
	}

	var resp introspectResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnexpected, err)
	}
	return &resp.Response, nil
}

func (c *Client) form(grantType string) url.Values {
	form := url.Values{}
	form.Set("client_id", c.clientID)
	form.Set("grant_type", grantType)
	return form
}

func (c *Client) post(ctx context.Context, method, path string, form url.Values) (int, []byte, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, strings.NewReader(form.Encode()))
	if err != nil {
		return 0, nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Cache-Control", "no-cache")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, fmt.Errorf("%w: %v", ErrUnreachable, err)
	}
	return resp.StatusCode, body, nil
}
