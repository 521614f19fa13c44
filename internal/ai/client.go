package ai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"go.uber.org/zap"
)

// --- Error Definitions ---
var (
	// ErrRateLimited marks responses the caller may retry (429/503).
	ErrRateLimited = errors.New("generator rate limited or unavailable")
	// ErrEmptyResponse means the model returned no usable candidate text.
	ErrEmptyResponse = errors.New("empty response from generator")
)

const (
	defaultBaseURL    = "https://generativelanguage.googleapis.com/v1beta"
	defaultModel      = "gemini-3-flash-preview"
	defaultMaxRetries = 3
	defaultBaseDelay  = 5 * time.Second
)

// Client calls the hosted generative model over its REST generateContent
// endpoint and retries rate-limited calls with exponential backoff: the base
// delay doubles on every attempt (5s, 10s, 20s by default) until the retry
// budget runs out.
type Client struct {
	httpClient *http.Client
	logger     *zap.Logger

	baseURL    string
	model      string
	apiKey     string
	maxRetries int
	baseDelay  time.Duration
}

// Option customizes a Client.
type Option func(*Client)

// WithBaseURL overrides the API endpoint (tests point this at a local server).
func WithBaseURL(u string) Option { return func(c *Client) { c.baseURL = u } }

// WithModel overrides the model name.
func WithModel(m string) Option { return func(c *Client) { c.model = m } }

// WithRetry overrides the retry budget and base delay.
func WithRetry(retries int, baseDelay time.Duration) Option {
	return func(c *Client) {
		c.maxRetries = retries
		c.baseDelay = baseDelay
	}
}

// WithHTTPClient overrides the underlying HTTP client.
func WithHTTPClient(h *http.Client) Option { return func(c *Client) { c.httpClient = h } }

// NewClient creates a generator client. The API key is required; everything
// else has defaults.
func NewClient(apiKey string, logger *zap.Logger, opts ...Option) *Client {
	if logger == nil {
		logger = zap.NewNop()
	}
	c := &Client{
		httpClient: &http.Client{Timeout: 90 * time.Second},
		logger:     logger,
		baseURL:    defaultBaseURL,
		model:      defaultModel,
		apiKey:     apiKey,
		maxRetries: defaultMaxRetries,
		baseDelay:  defaultBaseDelay,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// --- Wire Types ---

type generateRequest struct {
	Contents          []content         `json:"contents"`
	SystemInstruction *content          `json:"systemInstruction,omitempty"`
	GenerationConfig  *generationConfig `json:"generationConfig,omitempty"`
}

type content struct {
	Parts []part `json:"parts"`
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inline_data,omitempty"`
}

type inlineData struct {
	MimeType string `json:"mime_type"`
	Data     string `json:"data"` // base64
}

type generationConfig struct {
	ResponseMimeType string `json:"responseMimeType,omitempty"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []struct {
				Text string `json:"text"`
			} `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
}

// generateJSON sends one generateContent request, retrying on rate limits,
// and returns the raw JSON text of the first candidate.
func (c *Client) generateJSON(ctx context.Context, systemInstruction string, parts []part) ([]byte, error) {
	req := generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: &generationConfig{ResponseMimeType: "application/json"},
	}
	if systemInstruction != "" {
		req.SystemInstruction = &content{Parts: []part{{Text: systemInstruction}}}
	}

	body, err := json.Marshal(req)
	if err != nil {
		return nil, fmt.Errorf("encode generator request: %w", err)
	}

	var raw []byte
	err = c.withRetry(ctx, func() error {
		raw, err = c.doRequest(ctx, body)
		return err
	})
	if err != nil {
		return nil, err
	}
	return raw, nil
}

func (c *Client) doRequest(ctx context.Context, body []byte) ([]byte, error) {
	url := fmt.Sprintf("%s/models/%s:generateContent?key=%s", c.baseURL, c.model, c.apiKey)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}

	switch {
	case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode == http.StatusServiceUnavailable:
		return nil, fmt.Errorf("%w: status %d", ErrRateLimited, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("generator returned status %d: %s", resp.StatusCode, truncate(respBody, 200))
	}

	var parsed generateResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return nil, fmt.Errorf("decode generator response: %w", err)
	}
	if len(parsed.Candidates) == 0 || len(parsed.Candidates[0].Content.Parts) == 0 ||
		parsed.Candidates[0].Content.Parts[0].Text == "" {
		return nil, ErrEmptyResponse
	}
	return []byte(parsed.Candidates[0].Content.Parts[0].Text), nil
}

// withRetry runs fn, retrying rate-limited failures with the doubling delay.
// Other failures are returned immediately.
func (c *Client) withRetry(ctx context.Context, fn func() error) error {
	delay := c.baseDelay
	var err error
	for attempt := 0; ; attempt++ {
		err = fn()
		if err == nil || !errors.Is(err, ErrRateLimited) || attempt >= c.maxRetries {
			return err
		}

		c.logger.Warn("generator rate limited, backing off",
			zap.Int("attempt", attempt+1), zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay *= 2
	}
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "..."
}
