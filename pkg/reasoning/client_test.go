package reasoning

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/unneeks/stewardagent/pkg/telemetry/tracing"
)

func TestNew_MissingCredential(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "")
	_, err := New(Config{Provider: ProviderGemini})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
	if ce.Field != "api_key" {
		t.Errorf("Expected api_key field, got %q", ce.Field)
	}
}

func TestNew_UnsupportedProvider(t *testing.T) {
	_, err := New(Config{Provider: "palm", APIKey: "k"})
	var ce *ConfigError
	if !errors.As(err, &ce) {
		t.Fatalf("Expected ConfigError, got %v", err)
	}
}

func TestNew_EnvCredential(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "from-env")
	c, err := New(Config{Provider: ProviderOpenAI})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	if c.(*openAIClient).cfg.APIKey != "from-env" {
		t.Error("Expected credential from environment")
	}
}

func TestAnthropic_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.Header.Get("x-api-key") != "test-key" {
			t.Errorf("missing api key header")
		}
		if r.Header.Get("anthropic-version") != DefaultAnthropicVersion {
			t.Errorf("missing version header")
		}
		var req anthropicRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Messages) != 1 || req.Messages[0].Content != "scan this" {
			t.Errorf("unexpected messages: %+v", req.Messages)
		}
		w.Write([]byte(`{"content":[{"type":"text","text":"- CAST detected"}]}`))
	}))
	defer server.Close()

	c, err := New(Config{Provider: ProviderAnthropic, APIKey: "test-key", BaseURL: server.URL})
	if err != nil {
		t.Fatalf("New() failed: %v", err)
	}
	got, err := c.Complete(context.Background(), "scan this")
	if err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	if got != "- CAST detected" {
		t.Errorf("Complete() = %q", got)
	}
}

func TestOpenAI_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer k" {
			t.Errorf("missing bearer token")
		}
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"NO RISKS"}}]}`))
	}))
	defer server.Close()

	c, _ := New(Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: server.URL})
	got, err := c.Complete(context.Background(), "p")
	if err != nil || got != "NO RISKS" {
		t.Errorf("Complete() = %q, %v", got, err)
	}
}

func TestGemini_Complete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1beta/models/gemini-2.5-flash:generateContent" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"JOIN "},{"text":"detected"}]}}]}`))
	}))
	defer server.Close()

	c, _ := New(Config{Provider: ProviderGemini, APIKey: "k", BaseURL: server.URL})
	got, err := c.Complete(context.Background(), "p")
	if err != nil || got != "JOIN detected" {
		t.Errorf("Complete() = %q, %v", got, err)
	}
}

func TestClient_RetriesServerErrors(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		w.Write([]byte(`{"choices":[{"message":{"content":"ok"}}]}`))
	}))
	defer server.Close()

	c, _ := New(Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: server.URL, MaxRetries: 2, RetryBackoff: time.Millisecond})
	got, err := c.Complete(context.Background(), "p")
	if err != nil || got != "ok" {
		t.Fatalf("Complete() = %q, %v", got, err)
	}
	if atomic.LoadInt32(&calls) != 3 {
		t.Errorf("Expected 3 attempts, got %d", calls)
	}
}

func TestClient_AuthErrorNotRetried(t *testing.T) {
	var calls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	c, _ := New(Config{Provider: ProviderAnthropic, APIKey: "bad", BaseURL: server.URL, RetryBackoff: time.Millisecond})
	_, err := c.Complete(context.Background(), "p")
	var ae *AuthError
	if !errors.As(err, &ae) {
		t.Fatalf("Expected AuthError, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 1 {
		t.Errorf("Expected 1 attempt, got %d", calls)
	}
}

func TestClient_EmptyReply(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"content":[]}`))
	}))
	defer server.Close()

	c, _ := New(Config{Provider: ProviderAnthropic, APIKey: "k", BaseURL: server.URL})
	_, err := c.Complete(context.Background(), "p")
	var pe *ParseError
	if !errors.As(err, &pe) {
		t.Fatalf("Expected ParseError, got %v", err)
	}
}

func TestClient_PropagatesTraceContext(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	tracer := tracing.NewWithExporter(exporter)
	defer tracer.Shutdown(context.Background())

	var traceparent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		traceparent = r.Header.Get("traceparent")
		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"NO RISKS"}}]}`))
	}))
	defer server.Close()

	c, _ := New(Config{Provider: ProviderOpenAI, APIKey: "k", BaseURL: server.URL})
	ctx, parent := tracer.Tracer("test").Start(context.Background(), "scan")
	if _, err := c.Complete(ctx, "p"); err != nil {
		t.Fatalf("Complete() failed: %v", err)
	}
	parent.End()

	if traceparent == "" {
		t.Fatal("expected traceparent header on the outgoing request")
	}
	spans := exporter.GetSpans()
	if len(spans) != 2 || spans[0].Name != "reasoning.complete" {
		t.Fatalf("unexpected spans: %v", spans)
	}
	if spans[0].Parent.SpanID() != parent.SpanContext().SpanID() {
		t.Error("reasoning span should be a child of the caller's span")
	}
}
