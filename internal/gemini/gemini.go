// Package gemini is a thin client for the generative-language REST API.
// The gateway relays provider payloads verbatim, so the client keeps raw
// bodies and status codes instead of reshaping them.
package gemini

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

var ErrNotConfigured = errors.New("gemini: api key not configured")

type Part struct {
	Text string `json:"text,omitempty"`
}

type Content struct {
	Role  string `json:"role,omitempty"`
	Parts []Part `json:"parts"`
}

type GenerateContentRequest struct {
	Contents []Content `json:"contents"`
}

type Candidate struct {
	Content      Content `json:"content"`
	FinishReason string  `json:"finishReason,omitempty"`
}

type APIError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Status  string `json:"status"`
}

type GenerateContentResponse struct {
	Candidates []Candidate `json:"candidates"`
	Error      *APIError   `json:"error,omitempty"`
}

// Text returns candidates[0].content.parts[0].text, reporting whether that
// path was present in the response.
func (r *GenerateContentResponse) Text() (string, bool) {
	if r == nil || len(r.Candidates) == 0 || len(r.Candidates[0].Content.Parts) == 0 {
		return "", false
	}
	text := r.Candidates[0].Content.Parts[0].Text
	if text == "" {
		return "", false
	}
	return text, true
}

// RelayResult is the provider's answer as seen on the wire. Payload is set
// only when the body decoded as JSON; an empty body decodes to {}.
type RelayResult struct {
	StatusCode int
	Body       []byte
	Payload    json.RawMessage
}

type Client struct {
	apiKey     string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(apiKey, baseURL, model string, timeout time.Duration) *Client {
	return &Client{
		apiKey:  apiKey,
		baseURL: baseURL,
		model:   model,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *Client) Configured() bool {
	return c.apiKey != ""
}

func (c *Client) endpoint() string {
	return fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
}

func (c *Client) post(ctx context.Context, prompt string) (*http.Response, error) {
	body, err := json.Marshal(GenerateContentRequest{
		Contents: []Content{
			{Parts: []Part{{Text: prompt}}},
		},
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	return resp, nil
}

// Relay forwards prompt as a single-part request and returns the provider's
// status and body untouched. No retry is attempted.
func (c *Client) Relay(ctx context.Context, prompt string) (RelayResult, error) {
	if !c.Configured() {
		return RelayResult{}, ErrNotConfigured
	}

	resp, err := c.post(ctx, prompt)
	if err != nil {
		return RelayResult{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return RelayResult{}, fmt.Errorf("read response: %w", err)
	}

	result := RelayResult{StatusCode: resp.StatusCode, Body: body}
	if len(bytes.TrimSpace(body)) == 0 {
		result.Payload = json.RawMessage(`{}`)
	} else if json.Valid(body) {
		result.Payload = json.RawMessage(body)
	}
	return result, nil
}

// GenerateContent issues a typed single-prompt call for the chat assistant.
func (c *Client) GenerateContent(ctx context.Context, prompt string) (*GenerateContentResponse, error) {
	if !c.Configured() {
		return nil, ErrNotConfigured
	}

	resp, err := c.post(ctx, prompt)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("generate content failed with status %d: %s", resp.StatusCode, body)
	}

	var out GenerateContentResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("parse response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("provider error: %s", out.Error.Message)
	}
	return &out, nil
}
