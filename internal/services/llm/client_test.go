package llm

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"scribe/internal/services"
)

type capturedRequest struct {
	Model          string  `json:"model"`
	Temperature    float64 `json:"temperature"`
	ResponseFormat any     `json:"response_format"`
	Messages       []struct {
		Role    string `json:"role"`
		Content any    `json:"content"`
	} `json:"messages"`
}

func writeCompletion(t *testing.T, w http.ResponseWriter, choice map[string]any) {
	t.Helper()
	w.Header().Set("Content-Type", "application/json")
	payload := map[string]any{
		"id":      "cmpl-test",
		"object":  "chat.completion",
		"model":   "demo-model",
		"choices": []any{choice},
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		t.Errorf("encode response: %v", err)
	}
}

func contentChoice(content string) map[string]any {
	return map[string]any{
		"index":         0,
		"finish_reason": "stop",
		"message":       map[string]any{"role": "assistant", "content": content},
	}
}

func TestClientHealthCheck(t *testing.T) {
	var captured capturedRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(t, w, contentChoice(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if captured.ResponseFormat == nil {
		t.Fatal("expected health check to request a json response format")
	}
}

func TestClientAcceptsFullCompletionsURL(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/v1/chat/completions" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		writeCompletion(t, w, contentChoice(`{"ok":true}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL + "/api/v1/chat/completions", Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckCodeFence(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, contentChoice("```json\n{\"ok\":true}\n```"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestClientHealthCheckFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"bad key"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	err := client.HealthCheck(context.Background())
	if err == nil {
		t.Fatal("expected error for unauthorized key")
	}
	if !strings.Contains(err.Error(), "http 401") {
		t.Fatalf("expected status in error, got %v", err)
	}
}

func TestClientSummarizeSendsPlainTextRequest(t *testing.T) {
	var captured capturedRequest
	var auth, title string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		auth = r.Header.Get("Authorization")
		title = r.Header.Get("X-Title")
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		writeCompletion(t, w, contentChoice("  The lecture covers entropy.  "))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model", Title: "Scribe"})
	summary, err := client.Summarize(context.Background(), "today we talk about entropy")
	if err != nil {
		t.Fatalf("Summarize returned error: %v", err)
	}
	if summary != "The lecture covers entropy." {
		t.Fatalf("unexpected summary %q", summary)
	}
	if auth != "Bearer test" {
		t.Fatalf("unexpected authorization header %q", auth)
	}
	if title != "Scribe" {
		t.Fatalf("unexpected title header %q", title)
	}
	if captured.Model != "demo-model" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.ResponseFormat != nil {
		t.Fatalf("expected no response_format, got %v", captured.ResponseFormat)
	}
	if captured.Temperature != summaryTemperature {
		t.Fatalf("unexpected temperature %v", captured.Temperature)
	}
	if len(captured.Messages) != 2 || captured.Messages[0].Role != "system" || captured.Messages[1].Content != "today we talk about entropy" {
		t.Fatalf("unexpected messages %+v", captured.Messages)
	}
}

func TestClientSummarizeRejectsEmptyText(t *testing.T) {
	client := NewClient(Config{APIKey: "test", BaseURL: "http://127.0.0.1:1", Model: "demo"})
	_, err := client.Summarize(context.Background(), "   ")
	if !errors.Is(err, services.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestClientSummarizeFailureIsServiceError(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":{"message":"unauthorized"}}`))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "bad", BaseURL: server.URL, Model: "demo"})
	_, err := client.Summarize(context.Background(), "some words")
	if !errors.Is(err, services.ErrService) {
		t.Fatalf("expected service error, got %v", err)
	}
	if got := calls.Load(); got != 1 {
		t.Fatalf("expected no retry on 401, got %d calls", got)
	}
}

func TestClientSummarizeRequiresAPIKey(t *testing.T) {
	client := NewClient(Config{BaseURL: "http://127.0.0.1:1", Model: "demo"})
	_, err := client.Summarize(context.Background(), "some words")
	if err == nil || !strings.Contains(err.Error(), "api key required") {
		t.Fatalf("expected api key error, got %v", err)
	}
}

func TestClientEmptyContentHasSnippet(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeCompletion(t, w, contentChoice(""))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"}, WithRetryMaxAttempts(2))
	_, err := client.Complete(context.Background(), "system", "user", 0)
	var empty *EmptyContentError
	if !errors.As(err, &empty) {
		t.Fatalf("expected empty content error, got %v", err)
	}
	if empty.FinishReason != "stop" || !strings.Contains(empty.Snippet, "cmpl-test") {
		t.Fatalf("unexpected empty content details %+v", empty)
	}
}

func TestClientRetriesOnHTTP429(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After-Ms", "1")
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusTooManyRequests)
			_, _ = w.Write([]byte(`{"error":{"message":"slow down"}}`))
			return
		}
		writeCompletion(t, w, contentChoice("ok"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"}, WithRetryMaxAttempts(3))
	got, err := client.Complete(context.Background(), "system", "user", 0)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "ok" || calls.Load() != 2 {
		t.Fatalf("expected success on second call, got %q after %d calls", got, calls.Load())
	}
}

func TestClientRetriesOnEmptyContentThenSucceeds(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			writeCompletion(t, w, contentChoice(""))
			return
		}
		writeCompletion(t, w, contentChoice("second time"))
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	got, err := client.Complete(context.Background(), "system", "user", 0)
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if got != "second time" {
		t.Fatalf("unexpected content %q", got)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	cases := map[string]string{
		"plain":  `{"ok":true}`,
		"fenced": "```json\n{\"ok\":true}\n```",
		"prose":  `Sure! Here it is: {"ok": true} Let me know.`,
	}
	for name, input := range cases {
		var reply struct {
			OK bool `json:"ok"`
		}
		if err := DecodeLLMJSON(input, &reply); err != nil || !reply.OK {
			t.Fatalf("%s: decode failed: %v (%+v)", name, err, reply)
		}
	}

	var reply map[string]any
	err := DecodeLLMJSON("no json here", &reply)
	if err == nil || !strings.Contains(err.Error(), "payload snippet") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
}
