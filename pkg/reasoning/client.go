// Package reasoning is a minimal client for external natural-language
// reasoning services. It supports the Anthropic Messages API, OpenAI
// compatible chat completions and Gemini generateContent.
package reasoning

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"os"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

// Supported providers.
const (
	ProviderAnthropic = "anthropic"
	ProviderOpenAI    = "openai"
	ProviderGemini    = "gemini"
)

// Completer sends one prompt and returns the text of the reply.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}

// Config configures a Completer.
type Config struct {
	// Provider is one of ProviderAnthropic, ProviderOpenAI, ProviderGemini.
	Provider string

	// Model is the provider model name. A provider default is used when empty.
	Model string

	// APIKey is the credential. When empty the provider's conventional
	// environment variable is consulted.
	APIKey string

	// BaseURL overrides the public endpoint.
	BaseURL string

	// Timeout bounds each HTTP attempt.
	// Default: 20 seconds
	Timeout time.Duration

	// MaxRetries is the number of retries on transient failures.
	// Default: 2
	MaxRetries int

	// RetryBackoff is the first backoff delay, doubled per retry.
	// Default: 1 second
	RetryBackoff time.Duration

	// MaxTokens caps the reply length where the API requires it.
	// Default: 512
	MaxTokens int
}

var providerDefaults = map[string]struct {
	baseURL, model, envKey string
}{
	ProviderAnthropic: {"https://api.anthropic.com", "claude-3-5-haiku-latest", "ANTHROPIC_API_KEY"},
	ProviderOpenAI:    {"https://api.openai.com", "gpt-4o-mini", "OPENAI_API_KEY"},
	ProviderGemini:    {"https://generativelanguage.googleapis.com", "gemini-2.5-flash", "GEMINI_API_KEY"},
}

// New builds the Completer for cfg.Provider. A missing credential is a
// ConfigError; callers treat it as "delegation disabled".
func New(cfg Config) (Completer, error) {
	defaults, ok := providerDefaults[cfg.Provider]
	if !ok {
		return nil, &ConfigError{Provider: cfg.Provider, Field: "provider", Message: "unsupported provider"}
	}
	if cfg.APIKey == "" {
		cfg.APIKey = os.Getenv(defaults.envKey)
	}
	if cfg.APIKey == "" {
		return nil, &ConfigError{
			Provider: cfg.Provider,
			Field:    "api_key",
			Message:  fmt.Sprintf("API key is required (set it in config or %s)", defaults.envKey),
		}
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaults.baseURL
	}
	if cfg.Model == "" {
		cfg.Model = defaults.model
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 20 * time.Second
	}
	if cfg.MaxRetries == 0 {
		cfg.MaxRetries = 2
	}
	if cfg.RetryBackoff == 0 {
		cfg.RetryBackoff = time.Second
	}
	if cfg.MaxTokens == 0 {
		cfg.MaxTokens = 512
	}

	base := newHTTPClient(cfg)
	slog.Default().With("component", "reasoning").Info("reasoning client initialized",
		"provider", cfg.Provider,
		"model", cfg.Model,
		"base_url", cfg.BaseURL,
	)

	switch cfg.Provider {
	case ProviderAnthropic:
		return &anthropicClient{httpClient: base}, nil
	case ProviderOpenAI:
		return &openAIClient{httpClient: base}, nil
	default:
		return &geminiClient{httpClient: base}, nil
	}
}

// httpClient carries the pooled transport and retry policy shared by
// every backend.
type httpClient struct {
	cfg    Config
	client *http.Client
	logger *slog.Logger
}

func newHTTPClient(cfg Config) *httpClient {
	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 2,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}
	return &httpClient{
		cfg: cfg,
		client: &http.Client{
			Transport: transport,
			Timeout:   cfg.Timeout,
		},
		logger: slog.Default().With("component", "reasoning", "provider", cfg.Provider),
	}
}

// doJSON posts reqBody and decodes the reply into respBody. Network errors
// and 5xx responses are retried with exponential backoff; 4xx are not.
func (c *httpClient) doJSON(ctx context.Context, url string, headers map[string]string, reqBody, respBody interface{}) (err error) {
	ctx, span := otel.Tracer(tracing.InstrumentationPrefix+"reasoning").Start(ctx, "reasoning.complete",
		trace.WithSpanKind(trace.SpanKindClient))
	tracing.SetProviderAttributes(span, c.cfg.Provider, c.cfg.Model)
	defer func() {
		tracing.SetStatus(span, err)
		span.End()
	}()

	body, err := json.Marshal(reqBody)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}

	var lastErr error
	for attempt := 0; attempt <= c.cfg.MaxRetries; attempt++ {
		if attempt > 0 {
			backoff := time.Duration(math.Pow(2, float64(attempt-1))) * c.cfg.RetryBackoff
			c.logger.Debug("retrying request", "attempt", attempt, "backoff", backoff)
			select {
			case <-ctx.Done():
				return &TimeoutError{Provider: c.cfg.Provider, Timeout: c.cfg.Timeout}
			case <-time.After(backoff):
			}
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")
		for k, v := range headers {
			req.Header.Set(k, v)
		}
		tracing.Inject(ctx, req.Header)
		span.SetAttributes(attribute.Int("steward.reasoning.attempt", attempt+1))

		resp, err := c.client.Do(req)
		if err != nil {
			if ctx.Err() != nil {
				return &TimeoutError{Provider: c.cfg.Provider, Timeout: c.cfg.Timeout}
			}
			lastErr = &ProviderError{Provider: c.cfg.Provider, Message: "request failed", Cause: err}
			c.logger.Warn("request failed, will retry", "attempt", attempt+1, "error", err)
			continue
		}

		data, readErr := io.ReadAll(resp.Body)
		resp.Body.Close()

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			if readErr != nil {
				return &ParseError{Provider: c.cfg.Provider, Cause: readErr}
			}
			if err := json.Unmarshal(data, respBody); err != nil {
				return &ParseError{Provider: c.cfg.Provider, RawResponse: string(data), Cause: err}
			}
			return nil
		case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
			return &AuthError{Provider: c.cfg.Provider, Message: string(data)}
		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return &ProviderError{Provider: c.cfg.Provider, StatusCode: resp.StatusCode, Message: string(data)}
		default:
			lastErr = &ProviderError{Provider: c.cfg.Provider, StatusCode: resp.StatusCode, Message: string(data)}
			c.logger.Warn("request returned error status, will retry", "status", resp.StatusCode, "attempt", attempt+1)
		}
	}
	return lastErr
}
