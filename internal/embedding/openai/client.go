// Package openai implements the embedding boundary against an
// OpenAI-compatible embeddings API.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"contract-backend/internal/embedding"
)

const defaultBaseURL = "https://api.openai.com/v1"

// Client is an OpenAI-compatible embeddings client.
type Client struct {
	baseURL    string
	apiKey     string
	model      string
	httpClient *http.Client
	maxRetries int
}

// Config configures the embeddings client.
type Config struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewClient creates a new embeddings client.
func NewClient(cfg Config) (*Client, error) {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return nil, fmt.Errorf("OPENAI_API_KEY is required")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = "text-embedding-3-small"
	}
	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     cfg.APIKey,
		model:      cfg.Model,
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: 5,
	}, nil
}

// ModelID identifies the embedding model version.
func (c *Client) ModelID() string { return c.model }

type embedRequest struct {
	Input []string `json:"input"`
	Model string   `json:"model"`
}

type embedResponse struct {
	Data []struct {
		Index     int       `json:"index"`
		Embedding []float64 `json:"embedding"`
	} `json:"data"`
	Error *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
	} `json:"error,omitempty"`
}

// Embed returns one vector per input text, retrying transient failures with
// exponential backoff and honoring Retry-After.
func (c *Client) Embed(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	payload, err := json.Marshal(embedRequest{Input: texts, Model: c.model})
	if err != nil {
		return nil, err
	}

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			select {
			case <-time.After(retryDelay(attempt - 1)):
			case <-ctx.Done():
				return nil, ctx.Err()
			}
		}

		vectors, retryable, err := c.embedOnce(ctx, payload, len(texts))
		if err == nil {
			return vectors, nil
		}
		lastErr = err
		if !retryable {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w: %v", embedding.ErrUnavailable, lastErr)
}

func (c *Client) embedOnce(ctx context.Context, payload []byte, want int) ([][]float64, bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/embeddings", bytes.NewReader(payload))
	if err != nil {
		return nil, false, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctx.Err() != nil {
			return nil, false, ctx.Err()
		}
		return nil, true, err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		if ra := resp.Header.Get("Retry-After"); ra != "" {
			if secs, err := strconv.Atoi(ra); err == nil && secs > 0 && secs <= 30 {
				select {
				case <-time.After(time.Duration(secs) * time.Second):
				case <-ctx.Done():
					return nil, false, ctx.Err()
				}
			}
		}
		return nil, true, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}
	if resp.StatusCode >= 300 {
		return nil, false, fmt.Errorf("embeddings request failed: %s", resp.Status)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, true, err
	}

	var parsed embedResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, true, fmt.Errorf("embeddings response parse: %w", err)
	}
	if parsed.Error != nil {
		return nil, false, fmt.Errorf("embeddings error: %s (%s)", parsed.Error.Message, parsed.Error.Type)
	}
	if len(parsed.Data) != want {
		return nil, true, fmt.Errorf("embeddings response has %d vectors, want %d", len(parsed.Data), want)
	}

	vectors := make([][]float64, want)
	for _, item := range parsed.Data {
		if item.Index < 0 || item.Index >= want {
			return nil, false, fmt.Errorf("embeddings response index %d out of range", item.Index)
		}
		vectors[item.Index] = item.Embedding
	}
	return vectors, false, nil
}

func retryDelay(attempt int) time.Duration {
	if attempt < 0 {
		attempt = 0
	}
	base := 200 * time.Millisecond
	// exponential backoff capped at 5s
	d := base << attempt
	if d > 5*time.Second {
		d = 5 * time.Second
	}
	return d
}

var _ embedding.Embedder = (*Client)(nil)
