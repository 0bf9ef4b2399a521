// Package authapi is an identity.Provider backed by the upstream school
// REST API (POST /auth/login, GET /auth/me, POST /auth/register).
package authapi

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
	"unicode/utf8"

	"github.com/dalemusser/schoolhub/internal/app/system/identity"
	"github.com/dalemusser/schoolhub/internal/app/system/normalize"
	"go.uber.org/zap"
)

// maxBody caps how much of a response is read.
const maxBody = 1 << 20

// ErrUnavailable wraps transport failures: the API could not be reached or
// did not answer before the deadline.
var ErrUnavailable = errors.New("auth api unavailable")

// Error is a non-2xx response that has no more specific meaning.
type Error struct {
	Status  int
	Message string
}

func (e *Error) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("auth api: status %d", e.Status)
	}
	return fmt.Sprintf("auth api: status %d: %s", e.Status, e.Message)
}

// Client talks to the upstream API.
type Client struct {
	baseURL string
	http    *http.Client
	log     *zap.Logger
}

// New creates a Client for baseURL (e.g. http://localhost:8080/api).
// A nil httpClient gets a client with a 10s timeout.
func New(baseURL string, httpClient *http.Client, logger *zap.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    httpClient,
		log:     logger,
	}
}

var _ identity.Provider = (*Client)(nil)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type loginResponse struct {
	AccessToken string `json:"accessToken"`
	Token       string `json:"token"`
}

// Login posts the credentials and returns the access token.
func (c *Client) Login(ctx context.Context, email, password string) (string, error) {
	var out loginResponse
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", loginRequest{Email: email, Password: password}, &out); err != nil {
		return "", err
	}

	token := out.AccessToken
	if token == "" {
		token = out.Token
	}
	if token == "" {
		return "", errors.New("auth api: login response has no access token")
	}
	return token, nil
}

// Me returns the user the bearer token belongs to.
func (c *Client) Me(ctx context.Context, token string) (normalize.RawUser, error) {
	var out normalize.RawUser
	if err := c.do(ctx, http.MethodGet, "/auth/me", token, nil, &out); err != nil {
		if errors.Is(err, identity.ErrInvalidCredentials) {
			return nil, identity.ErrInvalidToken
		}
		return nil, err
	}
	return out, nil
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, reg identity.Registration) (normalize.RawUser, error) {
	var out normalize.RawUser
	if err := c.do(ctx, http.MethodPost, "/auth/register", "", reg, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) do(ctx context.Context, method, path, token string, in, out any) error {
	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build %s request: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %w", ErrUnavailable, method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return fmt.Errorf("read %s response: %w", path, err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized:
		return identity.ErrInvalidCredentials
	case resp.StatusCode == http.StatusForbidden && strings.Contains(strings.ToLower(message(raw)), "disabled"):
		return identity.ErrAccountDisabled
	case resp.StatusCode == http.StatusConflict:
		return identity.ErrDuplicateEmail
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		c.log.Warn("auth api error",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status", resp.StatusCode))
		return &Error{Status: resp.StatusCode, Message: message(raw)}
	}

	if out == nil || len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s response: %w", path, err)
	}
	return nil
}

// message extracts a human readable message from an error body. Both
// {"message": ...} and {"error": ...} are accepted; anything else is
// returned as trimmed text.
func message(raw []byte) string {
	var v struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &v) == nil {
		if v.Message != "" {
			return v.Message
		}
		if v.Error != "" {
			return v.Error
		}
	}
	return truncate(strings.TrimSpace(string(raw)), maxMessageBytes)
}

// maxMessageBytes caps a non-JSON error body kept as a message.
const maxMessageBytes = 200

// truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n]
}
