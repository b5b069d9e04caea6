package gemini

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
	"time"

	"sublingo/internal/services"
)

const (
	// DefaultEndpoint is the generateContent template; {model} is substituted.
	DefaultEndpoint = "https://generativelanguage.googleapis.com/v1beta/models/{model}:generateContent"

	defaultTimeout         = 60 * time.Second
	defaultTemperature     = 0.3
	defaultTopK            = 40
	defaultTopP            = 0.95
	defaultMaxOutputTokens = 2048
	maxErrorBody           = 4 << 10
)

// Config describes one Gemini endpoint and key.
type Config struct {
	APIKey         string
	Endpoint       string
	Model          string
	TimeoutSeconds int
	Generation     GenerationConfig
}

// GenerationConfig mirrors the generationConfig request block. Zero fields
// take the defaults (0.3, 40, 0.95, 2048).
type GenerationConfig struct {
	Temperature     float64 `json:"temperature"`
	TopK            int     `json:"topK"`
	TopP            float64 `json:"topP"`
	MaxOutputTokens int     `json:"maxOutputTokens"`
}

func (g GenerationConfig) withDefaults() GenerationConfig {
	if g.Temperature <= 0 {
		g.Temperature = defaultTemperature
	}
	if g.TopK <= 0 {
		g.TopK = defaultTopK
	}
	if g.TopP <= 0 {
		g.TopP = defaultTopP
	}
	if g.MaxOutputTokens <= 0 {
		g.MaxOutputTokens = defaultMaxOutputTokens
	}
	return g
}

// Client issues generateContent calls.
type Client struct {
	endpoint   string
	apiKey     string
	model      string
	generation GenerationConfig
	httpClient *http.Client
}

// Option customizes the client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// NewClient constructs a client. The endpoint may still contain {model}.
func NewClient(cfg Config, opts ...Option) *Client {
	timeout := defaultTimeout
	if cfg.TimeoutSeconds > 0 {
		timeout = time.Duration(cfg.TimeoutSeconds) * time.Second
	}
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	model := strings.TrimSpace(cfg.Model)
	endpoint = strings.ReplaceAll(endpoint, "{model}", url.PathEscape(model))
	client := &Client{
		endpoint:   endpoint,
		apiKey:     strings.TrimSpace(cfg.APIKey),
		model:      model,
		generation: cfg.Generation.withDefaults(),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range opts {
		opt(client)
	}
	return client
}

// Model returns the configured model name.
func (c *Client) Model() string {
	return c.model
}

// Endpoint returns the resolved endpoint without the key.
func (c *Client) Endpoint() string {
	return c.endpoint
}

type part struct {
	Text string `json:"text"`
}

type content struct {
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents         []content        `json:"contents"`
	GenerationConfig GenerationConfig `json:"generationConfig"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
		FinishReason string `json:"finishReason"`
	} `json:"candidates"`
}

// upstreamError records a non-2xx status and a trimmed body.
type upstreamError struct {
	status int
	msg    string
}

func (e upstreamError) Error() string {
	if e.status == http.StatusTooManyRequests {
		return fmt.Sprintf("gemini rate limited (http %d)", e.status)
	}
	return fmt.Sprintf("gemini upstream %d: %s", e.status, e.msg)
}

// StatusCode reports the HTTP status of an upstream failure, or 0.
func StatusCode(err error) int {
	var upstream upstreamError
	if errors.As(err, &upstream) {
		return upstream.status
	}
	return 0
}

// CompleteJSON sends the system instruction and user payload and returns the
// text of the first candidate.
func (c *Client) CompleteJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	if c.apiKey == "" {
		return "", services.Wrap(services.ErrConfiguration, "gemini", "complete", "api key required", nil)
	}
	return c.generate(ctx, "complete", []part{{Text: systemPrompt}, {Text: userPrompt}})
}

// HealthCheck sends a one-word prompt and expects any text back.
func (c *Client) HealthCheck(ctx context.Context) error {
	if c.apiKey == "" {
		return services.Wrap(services.ErrConfiguration, "gemini", "health", "api key required", nil)
	}
	_, err := c.generate(ctx, "health", []part{{Text: "Reply with the single word OK."}})
	return err
}

func (c *Client) generate(ctx context.Context, op string, parts []part) (string, error) {
	body, err := json.Marshal(generateRequest{
		Contents:         []content{{Parts: parts}},
		GenerationConfig: c.generation,
	})
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "gemini", op, "encode request", err)
	}
	u, err := url.Parse(c.endpoint)
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "gemini", op, "invalid endpoint", err)
	}
	q := u.Query()
	q.Set("key", c.apiKey)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), bytes.NewReader(body))
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "gemini", op, "new request", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", services.Wrap(services.ErrTransport, "gemini", op, "request aborted", ctxErr)
		}
		return "", services.Wrap(services.ErrTransport, "gemini", op, "http error", redactKey(err, c.apiKey))
	}
	defer resp.Body.Close()

	if resp.StatusCode/100 != 2 {
		slurp, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		upstream := upstreamError{status: resp.StatusCode, msg: strings.TrimSpace(string(slurp))}
		return "", services.Wrap(services.ErrTransport, "gemini", op, "", upstream)
	}

	var decoded generateResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return "", services.Wrap(services.ErrMalformedResponse, "gemini", op, "decode response", err)
	}
	if len(decoded.Candidates) == 0 || len(decoded.Candidates[0].Content.Parts) == 0 {
		return "", services.Wrap(services.ErrMalformedResponse, "gemini", op, "no candidates", nil)
	}
	text := decoded.Candidates[0].Content.Parts[0].Text
	if strings.TrimSpace(text) == "" {
		reason := decoded.Candidates[0].FinishReason
		return "", services.Wrap(services.ErrMalformedResponse, "gemini", op, fmt.Sprintf("empty candidate text (finish_reason=%q)", reason), nil)
	}
	return text, nil
}

// redactKey strips the API key from transport errors, which embed the URL.
func redactKey(err error, key string) error {
	if key == "" || !strings.Contains(err.Error(), key) {
		return err
	}
	return errors.New(strings.ReplaceAll(err.Error(), key, "REDACTED"))
}
