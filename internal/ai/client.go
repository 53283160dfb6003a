package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"
)

const defaultMaxRetries = 3

type chatRequest struct {
	Model          string          `json:"model"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`
}

// Client wraps outbound calls to an OpenRouter-compatible completion API:
// health probe, request construction, retry loop, response validation and
// error classification. Stateless between calls except for the advisory
// connectivity flag, which never gates a call.
type Client struct {
	BaseURL    string
	APIKey     string
	Model      string
	SiteURL    string
	AppName    string
	MaxRetries int
	HTTPClient *http.Client

	sleep SleepFunc // nil means real backoff timers

	mu        sync.Mutex
	connected bool
	lastErr   *Error
}

func NewClient(baseURL, apiKey, model, siteURL, appName string, maxRetries int, timeout time.Duration) *Client {
	if baseURL == "" {
		baseURL = "https://openrouter.ai/api/v1"
	}
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		BaseURL:    baseURL,
		APIKey:     apiKey,
		Model:      model,
		SiteURL:    siteURL,
		AppName:    appName,
		MaxRetries: maxRetries,
		HTTPClient: &http.Client{Timeout: timeout},
	}
}

// CheckHealth probes the API and updates the connectivity flag. Failures are
// recorded, not returned: callers that care about liveness consult Connected.
func (c *Client) CheckHealth(ctx context.Context) bool {
	url := strings.TrimRight(c.BaseURL, "/") + "/health"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		c.setConnected(false, newError(KindAPIError, "failed to build health request", 0, err.Error()))
		return false
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		c.setConnected(false, newError(KindNetworkError, "failed to reach OpenRouter API", 0, err.Error()))
		return false
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4*1024))
		c.setConnected(false, classifyStatus(resp.StatusCode, strings.TrimSpace(string(body))))
		return false
	}

	c.setConnected(true, nil)
	return true
}

func (c *Client) Connected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.connected
}

func (c *Client) LastError() *Error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}

func (c *Client) setConnected(ok bool, lastErr *Error) {
	c.mu.Lock()
	c.connected = ok
	if lastErr != nil {
		c.lastErr = lastErr
	}
	c.mu.Unlock()
}

func validateMessages(messages []Message) *Error {
	if len(messages) == 0 {
		return newError(KindValidationError, "messages must not be empty", 0, "")
	}
	for i, m := range messages {
		switch m.Role {
		case RoleSystem, RoleUser, RoleAssistant:
		default:
			return newError(KindValidationError, fmt.Sprintf("message %d has invalid role %q", i, m.Role), 0, "")
		}
		if m.Content == "" {
			return newError(KindValidationError, fmt.Sprintf("message %d has empty content", i), 0, "")
		}
	}
	return nil
}

// SendMessage posts the conversation to /chat/completions, retrying per the
// backoff policy, and returns the validated assistant content plus usage.
// When a response format was requested the content is run through ExtractJSON
// so models that wrap structured output in prose still yield the payload.
func (c *Client) SendMessage(ctx context.Context, messages []Message, opts SendOptions) (*ChatResult, error) {
	if strings.TrimSpace(c.APIKey) == "" {
		return nil, newError(KindAPIError, "OpenRouter API key is not configured", 0, "")
	}
	if err := validateMessages(messages); err != nil {
		return nil, err
	}

	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = strings.TrimSpace(c.Model)
	}
	if model == "" {
		return nil, newError(KindValidationError, "model is required", 0, "")
	}

	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = c.MaxRetries
	}

	body, err := json.Marshal(chatRequest{
		Model:          model,
		Messages:       messages,
		ResponseFormat: opts.ResponseFormat,
	})
	if err != nil {
		return nil, newError(KindValidationError, "failed to encode request", 0, err.Error())
	}

	var result *ChatResult
	retryErr := Retry(ctx, maxRetries, c.sleep, func() error {
		res, err := c.doRequest(ctx, body)
		if err != nil {
			return err
		}
		result = res
		return nil
	})
	if retryErr != nil {
		if ge, ok := AsError(retryErr); ok {
			return nil, ge
		}
		return nil, newError(KindAPIError, "API request failed", 0, retryErr.Error())
	}

	if opts.ResponseFormat != nil {
		result.Message = ExtractJSON(result.Message)
	}
	return result, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) (*ChatResult, error) {
	url := strings.TrimRight(c.BaseURL, "/") + "/chat/completions"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, newError(KindAPIError, "failed to build request", 0, err.Error())
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.APIKey)
	if c.SiteURL != "" {
		req.Header.Set("HTTP-Referer", c.SiteURL)
	}
	if c.AppName != "" {
		req.Header.Set("X-Title", c.AppName)
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		// no response received: timeout or connection failure
		ne := newError(KindNetworkError, "no response from OpenRouter API", 0, err.Error())
		c.setConnected(false, ne)
		return nil, ne
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		ne := newError(KindNetworkError, "failed to read response body", resp.StatusCode, err.Error())
		c.setConnected(false, ne)
		return nil, ne
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, classifyStatus(resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	c.setConnected(true, nil)

	var decoded RawResponse
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return nil, newError(KindValidationError, "malformed response from OpenRouter API", resp.StatusCode, string(raw))
	}

	// an explicit error object takes precedence over shape validation
	if decoded.Error != nil && decoded.Error.Message != "" {
		return nil, newError(KindAPIError, decoded.Error.Message, resp.StatusCode, string(raw))
	}

	if verr := validateResponse(&decoded); verr != nil {
		verr.Details = string(raw)
		return nil, verr
	}

	return &ChatResult{
		Message: decoded.Choices[0].Message.Content,
		Usage:   decoded.Usage,
		Raw:     &decoded,
	}, nil
}

func validateResponse(r *RawResponse) *Error {
	if r.ID == "" || r.Model == "" || r.Object == "" || r.Created == 0 {
		return newError(KindValidationError, "incomplete response from OpenRouter API", 0, "")
	}
	if len(r.Choices) == 0 {
		return newError(KindValidationError, "response has no choices", 0, "")
	}
	// missing content is its own failure, distinct from a schema mismatch
	if r.Choices[0].Message.Content == "" {
		return newError(KindValidationError, "response content is empty", 0, "")
	}
	return nil
}
