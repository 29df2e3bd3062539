package llm

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

	"github.com/google/uuid"
	"github.com/smartinvoice/backend/internal/application/draft"
	"github.com/smartinvoice/backend/internal/domain/pricing"
	"github.com/smartinvoice/backend/internal/infrastructure/config"
	"go.uber.org/zap"
)

// Ensure Client implements draft.Extractor
var _ draft.Extractor = (*Client)(nil)

const (
	defaultBaseURL = "https://api.openai.com/v1"
	defaultModel   = "gpt-4o-mini"
	defaultTimeout = 30 * time.Second
	maxBodyBytes   = 1 << 20
)

// ErrNoChoices is returned when the completion carries no message
var ErrNoChoices = errors.New("no choices in completion response")

// Client extracts line items through the chat completions endpoint
type Client struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float64
	lenient     bool
	httpClient  *http.Client
	logger      *zap.Logger
}

// Option is a functional option for configuring Client
type Option func(*Client)

// WithLogger sets a custom logger
func WithLogger(logger *zap.Logger) Option {
	return func(c *Client) {
		c.logger = logger
	}
}

// WithHTTPClient replaces the HTTP client
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		c.httpClient = hc
	}
}

// NewClient creates a new Client from configuration
func NewClient(cfg *config.LLMConfig, opts ...Option) (*Client, error) {
	if cfg == nil {
		return nil, errors.New("llm configuration is required")
	}
	if cfg.APIKey == "" {
		return nil, errors.New("llm api key is required")
	}
	c := &Client{
		baseURL:     cfg.BaseURL,
		apiKey:      cfg.APIKey,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		lenient:     cfg.Lenient,
		logger:      zap.NewNop(),
	}
	if c.baseURL == "" {
		c.baseURL = defaultBaseURL
	}
	if c.model == "" {
		c.model = defaultModel
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	c.httpClient = &http.Client{Timeout: timeout}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

type completionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
}

// Extract sends the description to the model and decodes the validated reply
func (c *Client) Extract(ctx context.Context, req draft.ExtractionRequest) (pricing.Extraction, error) {
	rid := uuid.New().String()
	start := time.Now()
	log := c.logger.With(zap.String("llm_request_id", rid), zap.String("model", c.model))

	schema := BuildExtractionSchema()
	body := map[string]any{
		"model":           c.model,
		"temperature":     c.temperature,
		"response_format": map[string]any{"type": "json_object"},
		"messages": []map[string]any{
			{"role": "system", "content": buildSystemPrompt(req.ItemNames)},
			{"role": "user", "content": buildUserPrompt(req.WorkDescription)},
			{"role": "system", "content": "JSON Schema:\n" + mustJSON(schema)},
		},
	}

	raw, err := c.post(ctx, strings.TrimRight(c.baseURL, "/")+"/chat/completions", body)
	if err != nil {
		log.Error("extraction request failed", zap.Error(err), zap.Duration("elapsed", time.Since(start)))
		return pricing.Extraction{}, err
	}

	var cc completionResponse
	if err := json.Unmarshal(raw, &cc); err != nil {
		return pricing.Extraction{}, fmt.Errorf("decode completion response: %w", err)
	}
	if len(cc.Choices) == 0 {
		return pricing.Extraction{}, ErrNoChoices
	}
	content := []byte(stripCodeFence(cc.Choices[0].Message.Content))

	if err := ValidateExtraction(schema, content); err != nil {
		if !c.lenient {
			log.Error("extraction failed schema validation", zap.Error(err))
			return pricing.Extraction{}, fmt.Errorf("schema validation failed: %w", err)
		}
		cleaned, dropped, sErr := Sanitize(content)
		if sErr != nil {
			return pricing.Extraction{}, fmt.Errorf("sanitize failed: %w", sErr)
		}
		if vErr := ValidateExtraction(schema, cleaned); vErr != nil {
			log.Error("extraction failed schema validation after sanitize", zap.Error(vErr))
			return pricing.Extraction{}, fmt.Errorf("schema validation failed: %w", vErr)
		}
		log.Warn("extraction sanitized", zap.Strings("dropped", dropped))
		content = cleaned
	}

	var out pricing.Extraction
	if err := json.Unmarshal(content, &out); err != nil {
		return pricing.Extraction{}, fmt.Errorf("unmarshal extraction: %w", err)
	}

	log.Info("extraction completed",
		zap.Int("items", len(out.Items)),
		zap.Bool("client_hint", out.ClientNameHint != ""),
		zap.Duration("elapsed", time.Since(start)),
	)
	return out, nil
}

func (c *Client) post(ctx context.Context, url string, body map[string]any) ([]byte, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(b))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("completion request: %w", err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			c.logger.Warn("failed to close completion response body", zap.Error(err))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read completion response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("completion status %d: %s", resp.StatusCode, truncate(string(raw), 200))
	}
	return raw, nil
}

// stripCodeFence removes a ```json fence some models wrap replies in
func stripCodeFence(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimPrefix(s, "json")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}

func mustJSON(v any) string {
	b, _ := json.MarshalIndent(v, "", "  ")
	return string(b)
}
