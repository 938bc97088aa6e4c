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
)

func completionServer(t *testing.T, choice map[string]any) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"choices": []any{choice}}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode response: %v", err)
		}
	}))
	t.Cleanup(server.Close)
	return server
}

func TestClientHealthCheck(t *testing.T) {
	var got chatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer test" {
			t.Errorf("missing bearer token")
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{
			"choices": []any{map[string]any{"message": map[string]any{"content": `{"ok":true}`}}},
		})
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL, Model: "demo-model"})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
	if got.Model != "demo-model" || got.ResponseFormat["type"] != "json_object" {
		t.Fatalf("unexpected request %+v", got)
	}
}

func TestCompleteJSONCodeFence(t *testing.T) {
	server := completionServer(t, map[string]any{
		"message": map[string]any{"content": "```json\n{\"ok\":true}\n```"},
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	if err := client.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck returned error: %v", err)
	}
}

func TestCompleteTextDeltaAndLegacyShapes(t *testing.T) {
	for name, choice := range map[string]map[string]any{
		"delta":  {"delta": map[string]any{"content": "## Report"}},
		"legacy": {"text": "## Report"},
	} {
		t.Run(name, func(t *testing.T) {
			server := completionServer(t, choice)
			client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
			got, err := client.CompleteText(context.Background(), "", "write")
			if err != nil {
				t.Fatalf("CompleteText: %v", err)
			}
			if got != "## Report" {
				t.Fatalf("unexpected content %q", got)
			}
		})
	}
}

func TestCompleteEmptyContentHasSnippet(t *testing.T) {
	server := completionServer(t, map[string]any{
		"finish_reason": "stop",
		"message":       map[string]any{"content": ""},
	})
	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	if err == nil {
		t.Fatal("expected failure")
	}
	if !strings.Contains(err.Error(), "empty content") || !strings.Contains(err.Error(), "response_snippet=") {
		t.Fatalf("expected snippet in error, got %v", err)
	}
}

func TestCompleteStatusError(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		http.Error(w, `{"error":"rate limited"}`, http.StatusTooManyRequests)
	}))
	defer server.Close()

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL})
	_, err := client.CompleteJSON(context.Background(), "sys", "user")
	var statusErr *StatusError
	if !errors.As(err, &statusErr) || statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429 status error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("expected a single attempt, got %d", calls)
	}
}

func TestCompleteTimeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	client := NewClient(Config{APIKey: "test", BaseURL: server.URL}, WithHTTPClient(&http.Client{Timeout: 50 * time.Millisecond}))
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); err == nil {
		t.Fatal("expected timeout error")
	}
}

func TestNotConfigured(t *testing.T) {
	client := NewClient(Config{})
	if _, err := client.CompleteJSON(context.Background(), "sys", "user"); !errors.Is(err, ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestDecodeLLMJSON(t *testing.T) {
	var out struct {
		Title string `json:"title"`
	}
	inputs := []string{
		`{"title":"a"}`,
		"```json\n{\"title\":\"a\"}\n```",
		"Sure! Here it is: {\"title\":\"a\"} hope that helps",
	}
	for _, in := range inputs {
		out.Title = ""
		if err := DecodeLLMJSON(in, &out); err != nil {
			t.Fatalf("DecodeLLMJSON(%q): %v", in, err)
		}
		if out.Title != "a" {
			t.Fatalf("unexpected title %q for %q", out.Title, in)
		}
	}
	if err := DecodeLLMJSON("not json", &out); err == nil {
		t.Fatal("expected parse failure")
	}
}
