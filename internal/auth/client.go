// Package auth talks to the hosted GoTrue (Supabase Auth) API. Credentials
// are never stored here; the provider issues and verifies every token.
package auth

import (
	"bytes"
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
	"unicode"

	"portfolio/internal/apperr"
)

const verifyCacheTTL = time.Minute

// User is the identity carried by a verified access token.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
	Role  string `json:"role,omitempty"`
}

// Session is a freshly issued token pair.
type Session struct {
	AccessToken  string `json:"accessToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    int    `json:"expiresIn"`
	TokenType    string `json:"tokenType"`
	User         User   `json:"user"`
}

type gotrueUser struct {
	ID           string         `json:"id"`
	Email        string         `json:"email"`
	Role         string         `json:"role"`
	UserMetadata map[string]any `json:"user_metadata"`
}

func (u gotrueUser) toUser() User {
	name, _ := u.UserMetadata["name"].(string)
	return User{ID: u.ID, Email: u.Email, Name: name, Role: u.Role}
}

type gotrueSession struct {
	AccessToken  string     `json:"access_token"`
	RefreshToken string     `json:"refresh_token"`
	ExpiresIn    int        `json:"expires_in"`
	TokenType    string     `json:"token_type"`
	User         gotrueUser `json:"user"`

	// signup without auto-confirm answers with the bare user object
	ID    string `json:"id"`
	Email string `json:"email"`
}

type cachedUser struct {
	user    User
	expires time.Time
}

// Client is a GoTrue REST client.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client

	mu    sync.Mutex
	cache map[string]cachedUser
	now   func() time.Time
}

// NewClient creates a client for the project at supabaseURL.
func NewClient(supabaseURL, anonKey string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	base := strings.TrimRight(supabaseURL, "/")
	if base != "" {
		base += "/auth/v1"
	}
	return &Client{
		baseURL:    base,
		apiKey:     anonKey,
		httpClient: httpClient,
		cache:      make(map[string]cachedUser),
		now:        time.Now,
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != "" && c.apiKey != ""
}

// ValidatePassword enforces the local password policy before a request is forwarded.
func ValidatePassword(p string) error {
	if len(p) < 8 {
		return apperr.Invalid("password", "must be at least 8 characters")
	}
	if len(p) > 72 {
		return apperr.Invalid("password", "must be at most 72 characters")
	}
	var letter, digit bool
	for _, r := range p {
		switch {
		case unicode.IsLetter(r):
			letter = true
		case unicode.IsDigit(r):
			digit = true
		}
	}
	if !letter || !digit {
		return apperr.Invalid("password", "must contain a letter and a digit")
	}
	return nil
}

func (c *Client) Register(ctx context.Context, email, password, name string) (*Session, error) {
	if err := ValidatePassword(password); err != nil {
		return nil, err
	}
	body := map[string]any{"email": email, "password": password}
	if name != "" {
		body["data"] = map[string]string{"name": name}
	}
	var out gotrueSession
	if err := c.do(ctx, http.MethodPost, "/signup", "", body, &out); err != nil {
		return nil, fmt.Errorf("register: %w", err)
	}
	return out.toSession(), nil
}

func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {
	var out gotrueSession
	body := map[string]string{"email": email, "password": password}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=password", "", body, &out); err != nil {
		return nil, fmt.Errorf("login: %w", asUnauthorized(err))
	}
	return out.toSession(), nil
}

func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Session, error) {
	if refreshToken == "" {
		return nil, apperr.Invalid("refreshToken", "is required")
	}
	var out gotrueSession
	body := map[string]string{"refresh_token": refreshToken}
	if err := c.do(ctx, http.MethodPost, "/token?grant_type=refresh_token", "", body, &out); err != nil {
		return nil, fmt.Errorf("refresh: %w", asUnauthorized(err))
	}
	return out.toSession(), nil
}

// Verify resolves an access token to its user. Results are cached briefly.
func (c *Client) Verify(ctx context.Context, token string) (*User, error) {
	if token == "" {
		return nil, apperr.ErrUnauthorized
	}
	now := c.now()

	c.mu.Lock()
	if hit, ok := c.cache[token]; ok && now.Before(hit.expires) {
		c.mu.Unlock()
		u := hit.user
		return &u, nil
	}
	c.mu.Unlock()

	var out gotrueUser
	if err := c.do(ctx, http.MethodGet, "/user", token, nil, &out); err != nil {
		return nil, fmt.Errorf("verify: %w", asUnauthorized(err))
	}
	user := out.toUser()

	c.mu.Lock()
	if len(c.cache) > 1000 {
		for k, v := range c.cache {
			if !now.Before(v.expires) {
				delete(c.cache, k)
			}
		}
	}
	c.cache[token] = cachedUser{user: user, expires: now.Add(verifyCacheTTL)}
	c.mu.Unlock()

	return &user, nil
}

// ChangePassword re-authenticates with the current password before updating it.
func (c *Client) ChangePassword(ctx context.Context, token, email, current, next string) error {
	if current == next {
		return apperr.Invalid("newPassword", "must differ from the current password")
	}
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if _, err := c.Login(ctx, email, current); err != nil {
		if errors.Is(err, apperr.ErrUnauthorized) {
			return apperr.Invalid("currentPassword", "is incorrect")
		}
		return err
	}
	if err := c.do(ctx, http.MethodPut, "/user", token, map[string]string{"password": next}, nil); err != nil {
		return fmt.Errorf("change password: %w", asUnauthorized(err))
	}
	return nil
}

// ForgotPassword asks the provider to email a recovery link.
func (c *Client) ForgotPassword(ctx context.Context, email, redirectTo string) error {
	path := "/recover"
	if redirectTo != "" {
		path += "?redirect_to=" + url.QueryEscape(redirectTo)
	}
	if err := c.do(ctx, http.MethodPost, path, "", map[string]string{"email": email}, nil); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}
	return nil
}

// ConfirmResetPassword sets a new password using the token from the recovery link.
func (c *Client) ConfirmResetPassword(ctx context.Context, recoveryToken, next string) error {
	if err := ValidatePassword(next); err != nil {
		return err
	}
	if err := c.do(ctx, http.MethodPut, "/user", recoveryToken, map[string]string{"password": next}, nil); err != nil {
		return fmt.Errorf("reset password: %w", asUnauthorized(err))
	}
	return nil
}

func (c *Client) Logout(ctx context.Context, token string) error {
	c.mu.Lock()
	delete(c.cache, token)
	c.mu.Unlock()

	if err := c.do(ctx, http.MethodPost, "/logout", token, nil, nil); err != nil {
		return fmt.Errorf("logout: %w", asUnauthorized(err))
	}
	return nil
}

func (s gotrueSession) toSession() *Session {
	user := s.User
	if user.ID == "" {
		user = gotrueUser{ID: s.ID, Email: s.Email}
	}
	return &Session{
		AccessToken:  s.AccessToken,
		RefreshToken: s.RefreshToken,
		ExpiresIn:    s.ExpiresIn,
		TokenType:    s.TokenType,
		User:         user.toUser(),
	}
}

func (c *Client) do(ctx context.Context, method, path, bearer string, in, out any) error {
	if !c.Configured() {
		return apperr.NotConfigured("auth")
	}

	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("apikey", c.apiKey)
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("auth request: %w", err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &apperr.UpstreamError{Service: "auth", Status: resp.StatusCode, Message: errorMessage(data)}
	}
	if out == nil || len(bytes.TrimSpace(data)) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// errorMessage extracts the human-readable part of a GoTrue error body.
func errorMessage(data []byte) string {
	var e struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
		Error            string `json:"error"`
	}
	if json.Unmarshal(data, &e) != nil {
		return ""
	}
	for _, s := range []string{e.ErrorDescription, e.Msg, e.Message, e.Error} {
		if s != "" {
			return s
		}
	}
	return ""
}

// asUnauthorized turns provider 4xx answers on credential endpoints into ErrUnauthorized.
func asUnauthorized(err error) error {
	var ue *apperr.UpstreamError
	if errors.As(err, &ue) && ue.Status >= 400 && ue.Status < 500 && ue.Status != http.StatusTooManyRequests {
		msg := ue.Message
		if msg == "" {
			msg = "invalid credentials"
		}
		return fmt.Errorf("%s: %w", msg, apperr.ErrUnauthorized)
	}
	return err
}
