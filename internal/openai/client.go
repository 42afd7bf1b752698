package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"regexp"
	"strings"

	"github.com/hoanghonghuy/gitmsg/internal/ai"
)

type Config struct {
	BaseURL string
	APIKey  string
	Model   string

	// HTTPClient defaults to a client without a timeout; streams end on
	// [DONE], connection close or cancellation only.
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Client streams chat completions from an OpenAI-compatible endpoint.
type Client struct {
	cfg      Config
	endpoint string
	http     *http.Client
	logger   *slog.Logger
}

func New(cfg Config) *Client {
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{}
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		cfg:      cfg,
		endpoint: ChatCompletionsURL(cfg.BaseURL),
		http:     httpClient,
		logger:   logger,
	}
}

var reVersionSuffix = regexp.MustCompile(`/v\d+$`)

// ChatCompletionsURL derives the chat completions endpoint from a provider
// base URL. A base URL already ending in a version segment (/v1, /v4, ...)
// only gets /chat/completions appended.
func ChatCompletionsURL(baseURL string) string {
	base := strings.TrimSuffix(baseURL, "/")
	if reVersionSuffix.MatchString(base) {
		return base + "/chat/completions"
	}
	return base + "/v1/chat/completions"
}

// HTTPError is returned when the endpoint answers with a non-2xx status.
type HTTPError struct {
	StatusCode int
	Status     string
	Body       string
}

func (e *HTTPError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("API request failed: %s", e.Status)
	}
	return fmt.Sprintf("API request failed: %s: %s", e.Status, e.Body)
}

type chatReq struct {
	Model    string    `json:"model"`
	Messages []message `json:"messages"`
	Stream   bool      `json:"stream"`
}

type message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

const maxErrorBody = 4 << 10

// Stream posts the prompt as a single user message and returns the fragment
// sequence. Cancelling ctx aborts the connection; the stream then reports
// ai.ErrCancelled instead of a network error.
func (c *Client) Stream(ctx context.Context, prompt string) (ai.FragmentStream, error) {
	payload, err := json.Marshal(chatReq{
		Model:    c.cfg.Model,
		Messages: []message{{Role: "user", Content: prompt}},
		Stream:   true,
	})
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "text/event-stream")
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)

	c.logger.Debug("opening completion stream", "endpoint", c.endpoint, "model", c.cfg.Model, "prompt_bytes", len(prompt))

	resp, err := c.http.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, cancelled(ctx)
		}
		return nil, fmt.Errorf("send request: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		defer resp.Body.Close()
		body, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &HTTPError{
			StatusCode: resp.StatusCode,
			Status:     resp.Status,
			Body:       strings.TrimSpace(string(body)),
		}
	}

	return newStream(ctx, resp.Body), nil
}

func cancelled(ctx context.Context) error {
	if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
		return fmt.Errorf("%w: %w", ai.ErrCancelled, cause)
	}
	return ai.ErrCancelled
}
