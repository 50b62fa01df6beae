// Package identity talks to the managed identity and data collaborator with
// a service-role credential. It covers the two admin surfaces the gateway
// needs: account creation/deletion and the profiles table.
package identity

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
)

var ErrNotConfigured = errors.New("identity: collaborator url or service key not configured")

type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

type Profile struct {
	ID       string `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
	Grade    *int   `json:"grade"`
}

// Error is a collaborator rejection. The message is the collaborator's own,
// so handlers can propagate it to the caller.
type Error struct {
	StatusCode int
	Message    string
}

func (e *Error) Error() string {
	return fmt.Sprintf("identity: collaborator returned %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

func NewClient(baseURL, serviceKey string, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		serviceKey: serviceKey,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Configured() bool {
	return c.baseURL != "" && c.serviceKey != ""
}

type createUserRequest struct {
	Email        string         `json:"email"`
	Password     string         `json:"password"`
	EmailConfirm bool           `json:"email_confirm"`
	UserMetadata map[string]any `json:"user_metadata"`
}

// CreateUser provisions an account with the email pre-confirmed and the
// display name attached as metadata.
func (c *Client) CreateUser(ctx context.Context, email, password, fullName string) (User, error) {
	var user User
	err := c.do(ctx, http.MethodPost, "/auth/v1/admin/users", createUserRequest{
		Email:        email,
		Password:     password,
		EmailConfirm: true,
		UserMetadata: map[string]any{"full_name": fullName},
	}, &user)
	return user, err
}

// DeleteUser removes an account. Used as the compensating step when the
// profile insert after account creation fails.
func (c *Client) DeleteUser(ctx context.Context, userID string) error {
	return c.do(ctx, http.MethodDelete, "/auth/v1/admin/users/"+userID, nil, nil)
}

func (c *Client) InsertProfile(ctx context.Context, profile Profile) error {
	return c.do(ctx, http.MethodPost, "/rest/v1/profiles", profile, nil)
}

func (c *Client) ListProfiles(ctx context.Context, role string, limit int) ([]Profile, error) {
	path := "/rest/v1/profiles?select=id,email,full_name,role,grade&order=full_name.asc"
	if role != "" {
		path += "&role=eq." + role
	}
	if limit > 0 {
		path += "&limit=" + strconv.Itoa(limit)
	}
	var profiles []Profile
	if err := c.do(ctx, http.MethodGet, path, nil, &profiles); err != nil {
		return nil, err
	}
	return profiles, nil
}

func (c *Client) do(ctx context.Context, method, path string, payload, out any) error {
	if !c.Configured() {
		return ErrNotConfigured
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	req.Header.Set("apikey", c.serviceKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method == http.MethodPost && strings.HasPrefix(path, "/rest/") {
		req.Header.Set("Prefer", "return=minimal")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp.StatusCode, raw)
	}
	if out != nil {
		if err := json.Unmarshal(raw, out); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}
	return nil
}

// Collaborator error bodies differ between the auth and data surfaces; pick
// whichever message field is populated.
func decodeError(status int, body []byte) *Error {
	var payload struct {
		Msg              string `json:"msg"`
		Message          string `json:"message"`
		ErrorDescription string `json:"error_description"`
	}
	message := ""
	if err := json.Unmarshal(body, &payload); err == nil {
		switch {
		case payload.Msg != "":
			message = payload.Msg
		case payload.Message != "":
			message = payload.Message
		case payload.ErrorDescription != "":
			message = payload.ErrorDescription
		}
	}
	if message == "" {
		message = strings.TrimSpace(string(body))
	}
	if message == "" {
		message = http.StatusText(status)
	}
	return &Error{StatusCode: status, Message: message}
}
