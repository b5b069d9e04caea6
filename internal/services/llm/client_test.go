package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"sublingo/internal/services"
)

func completionServer(t *testing.T, handler func(w http.ResponseWriter, r *http.Request)) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(handler))
	t.Cleanup(server.Close)
	return server
}

func writeChoices(w http.ResponseWriter, choices ...map[string]any) {
	_ = json.NewEncoder(w).Encode(map[string]any{"choices": choices})
}

func noSleep() []Option {
	return []Option{WithRetryBackoff(0, 0), WithSleeper(func(time.Duration) {})}
}

func TestClientHealthCheck(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		writeChoices(w, map[string]any{"message": map[string]any{"content": `{"ok":true}`}})
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoices(w, map[string]any{"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"}})
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_ = json.NewEncoder(w).Encode(map[string]string{"error": "unauthorized"})
	})

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if !errors.Is(err, services.ErrTransport) {
		t.Fatalf("expected transport error, got %v", err)
	}
}

func TestCompleteJSONSendsTranslationRequest(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if req.Model != "demo-model" || len(req.Messages) != 2 {
			t.Errorf("unexpected request %+v", req)
		}
		if req.Messages[0].Role != "system" || req.Messages[1].Role != "user" {
			t.Errorf("unexpected roles %+v", req.Messages)
		}
		if req.ResponseFormat != nil {
			t.Errorf("expected no response_format for array payloads, got %v", req.ResponseFormat)
		}
		if req.Temperature != 0.3 {
			t.Errorf("temperature = %v, want 0.3", req.Temperature)
		}
		writeChoices(w, map[string]any{"message": map[string]any{"content": `["Xin chào","Tạm biệt"]`}})
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	var lines []string
	if err := DecodeLLMJSON(content, &lines); err != nil {
		t.Fatalf("decode content: %v", err)
	}
	if len(lines) != 2 || lines[0] != "Xin chào" {
		t.Fatalf("unexpected lines %v", lines)
	}
}

func TestCompleteJSONRequiresPromptsAndKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1"})
	if _, err := client.CompleteJSON(context.Background(), "", "user"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for empty system prompt, got %v", err)
	}
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error for missing key, got %v", err)
	}
}

func TestCompleteJSONToolCallArguments(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoices(w, map[string]any{
			"finish_reason": "tool_calls",
			"message": map[string]any{
				"content": "",
				"tool_calls": []any{
					map[string]any{"type": "function", "function": map[string]any{"name": "translate", "arguments": `["a","b"]`}},
				},
			},
		})
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `["a","b"]` {
		t.Fatalf("unexpected content %q", content)
	}
}

func TestCompleteJSONDeltaAndLegacyText(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta": {"delta": map[string]any{"content": `["delta"]`}},
		"text":  {"finish_reason": "stop", "text": `["text"]`},
	} {
		t.Run(name, func(t *testing.T) {
			server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
				writeChoices(w, choice)
			})
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			content, err := client.CompleteJSON(context.Background(), "system", "user")
			if err != nil {
				t.Fatalf("CompleteJSON returned error: %v", err)
			}
			if !strings.Contains(content, name) {
				t.Fatalf("unexpected content %q", content)
			}
		})
	}
}

func TestCompleteJSONEmptyContentIsMalformed(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		writeChoices(w, map[string]any{"finish_reason": "stop", "message": map[string]any{"content": ""}})
	})

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, noSleep()...)
	_, err := client.CompleteJSON(context.Background(), "system", "user")
	if !errors.Is(err, services.ErrMalformedResponse) {
		t.Fatalf("expected malformed response error, got %v", err)
	}
	if !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected empty-content error to include snippet, got %v", err)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls int
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		if calls == 1 {
			w.Header().Set("Retry-After", "1")
			w.WriteHeader(http.StatusTooManyRequests)
			_ = json.NewEncoder(w).Encode(map[string]string{"error": "rate limited"})
			return
		}
		writeChoices(w, map[string]any{"message": map[string]any{"content": `["ok"]`}})
	})

	var slept []time.Duration
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithSleeper(func(d time.Duration) { slept = append(slept, d) }),
		WithRetryBackoff(0, 10*time.Second),
		WithRetryMaxAttempts(5),
	)
	if _, err := client.CompleteJSON(context.Background(), "system", "user"); err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if calls != 2 {
		t.Fatalf("expected 2 calls, got %d", calls)
	}
	if len(slept) != 1 || slept[0] != time.Second {
		t.Fatalf("expected single sleep of 1s, got %v", slept)
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls int
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		calls++
		content := ""
		if calls >= 3 {
			content = `["late"]`
		}
		writeChoices(w, map[string]any{"finish_reason": "stop", "message": map[string]any{"content": content}})
	})

	opts := append(noSleep(), WithRetryMaxAttempts(5))
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, opts...)
	content, err := client.CompleteJSON(context.Background(), "system", "user")
	if err != nil {
		t.Fatalf("CompleteJSON returned error: %v", err)
	}
	if content != `["late"]` || calls != 3 {
		t.Fatalf("content=%q calls=%d", content, calls)
	}
}

func TestClientStopsOnCancellation(t *testing.T) {
	server := completionServer(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})

	ctx, cancel := context.WithCancel(context.Background())
	client := NewClient(
		Config{APIKey: "test", BaseURL: server.URL},
		WithRetryMaxAttempts(5),
		WithRetryBackoff(time.Millisecond, time.Millisecond),
		WithSleeper(func(time.Duration) { cancel() }),
	)
	_, err := client.CompleteJSON(ctx, "system", "user")
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected cancellation, got %v", err)
	}
	if services.IsCallFailure(err) {
		t.Fatalf("cancellation should not count as a call failure")
	}
}

func TestBackoffDelayDoublesAndCaps(t *testing.T) {
	client := NewClient(Config{}, WithRetryBackoff(time.Second, 5*time.Second))
	want := []time.Duration{time.Second, 2 * time.Second, 4 * time.Second, 5 * time.Second, 5 * time.Second}
	for i, expected := range want {
		if got := client.backoffDelay(i + 1); got != expected {
			t.Fatalf("backoffDelay(%d) = %v, want %v", i+1, got, expected)
		}
	}
}
