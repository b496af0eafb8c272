package supabase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"communityhub-backend/internal/config"
)

type Client struct {
	config *config.Config
	http   *http.Client
}

// SupabaseError is an error response from the auth or PostgREST API.
type SupabaseError struct {
	StatusCode int
	Code       string
	Message    string
	Details    string
}

func (e *SupabaseError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("supabase error (status %d, code %s): %s", e.StatusCode, e.Code, e.Message)
	}
	return fmt.Sprintf("supabase error (status %d): %s", e.StatusCode, e.Message)
}

// IsNotFound reports whether the request matched no row.
func (e *SupabaseError) IsNotFound() bool {
	return e.StatusCode == http.StatusNotFound || e.Code == "PGRST116"
}

// IsValidation reports whether Postgres rejected the submitted values:
// not-null, foreign key, check, and malformed date/time input.
func (e *SupabaseError) IsValidation() bool {
	switch e.Code {
	case "23502", "23503", "23514", "22007", "22008", "22P02":
		return true
	}
	return false
}

func NewClient(cfg *config.Config) *Client {
	return &Client{
		config: cfg,
		http:   &http.Client{Timeout: cfg.Supabase.Timeout},
	}
}

// apiKey is the key sent as `apikey`; the service role key bypasses RLS for
// server-side writes when configured.
func (s *Client) apiKey() string {
	if s.config.Supabase.ServiceRoleKey != "" {
		return s.config.Supabase.ServiceRoleKey
	}
	return s.config.Supabase.AnonKey
}

func (s *Client) endpoint(path string, query url.Values) string {
	u := s.config.Supabase.URL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}
	return u
}

// do sends the request and decodes an error body into *SupabaseError.
func (s *Client) do(req *http.Request) ([]byte, error) {
	resp, err := s.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("supabase request %s %s: %w", req.Method, req.URL.Path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read supabase response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, parseError(resp.StatusCode, body)
	}
	return body, nil
}

func parseError(status int, body []byte) error {
	var errResp map[string]interface{}
	_ = json.Unmarshal(body, &errResp)

	e := &SupabaseError{StatusCode: status, Message: "unknown error"}
	for _, key := range []string{"message", "msg", "error_description", "error"} {
		if m, ok := errResp[key].(string); ok && m != "" {
			e.Message = m
			break
		}
	}
	if c, ok := errResp["code"].(string); ok {
		e.Code = c
	}
	if d, ok := errResp["details"].(string); ok {
		e.Details = d
	}
	if len(errResp) == 0 && len(body) > 0 {
		e.Message = string(body)
	}
	return e
}

type User struct {
	ID           string                 `json:"id"`
	Email        string                 `json:"email"`
	Role         string                 `json:"role"`
	UserMetadata map[string]interface{} `json:"user_metadata"`
	AppMetadata  map[string]interface{} `json:"app_metadata"`
}

type SignInRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type SignInResponse struct {
	User         User   `json:"user"`
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	ExpiresIn    int64  `json:"expires_in"`
	ExpiresAt    int64  `json:"expires_at"`
}

func (s *Client) SignIn(ctx context.Context, email, password string) (*SignInResponse, error) {
	reqBody, _ := json.Marshal(SignInRequest{
		Email:    email,
		Password: password,
	})

	q := url.Values{"grant_type": {"password"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("/auth/v1/token", q), bytes.NewReader(reqBody))
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.config.Supabase.AnonKey)
	req.Header.Set("Content-Type", "application/json")

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var result SignInResponse
	if err := json.Unmarshal(body, &result); err != nil {
		return nil, fmt.Errorf("decode sign-in response: %w", err)
	}
	return &result, nil
}

// GetUser resolves an access token to its user.
func (s *Client) GetUser(ctx context.Context, accessToken string) (*User, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.endpoint("/auth/v1/user", nil), nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("apikey", s.config.Supabase.AnonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	body, err := s.do(req)
	if err != nil {
		return nil, err
	}

	var user User
	if err := json.Unmarshal(body, &user); err != nil {
		return nil, fmt.Errorf("decode user: %w", err)
	}
	return &user, nil
}

// SignOut revokes the session behind the access token.
func (s *Client) SignOut(ctx context.Context, accessToken string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint("/auth/v1/logout", nil), nil)
	if err != nil {
		return err
	}
	req.Header.Set("apikey", s.config.Supabase.AnonKey)
	req.Header.Set("Authorization", "Bearer "+accessToken)

	_, err = s.do(req)
	return err
}
