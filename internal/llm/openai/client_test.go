package openai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"bare-backend/internal/llm"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	client, err := NewClient("test-key", "gpt-4o-mini", "gpt-4o-mini", "v2")
	if err != nil {
		t.Fatalf("new client: %v", err)
	}
	client.apiURL = srv.URL
	return client, srv
}

func TestAnalyzeRoutineSendsProductsAndReturnsContent(t *testing.T) {
	var captured struct {
		Model          string `json:"model"`
		Temperature    *float32
		ResponseFormat *responseFormat `json:"response_format"`
		Messages       []struct {
			Role    string `json:"role"`
			Content any    `json:"content"`
		} `json:"messages"`
	}
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-key" {
			t.Errorf("unexpected auth header %q", got)
		}
		if err := json.NewDecoder(r.Body).Decode(&captured); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"routine_rating":{}}`}},
			},
		})
	})

	raw, err := client.AnalyzeRoutine(context.Background(), []string{"CeraVe Foaming Cleanser"})
	if err != nil {
		t.Fatalf("analyze routine: %v", err)
	}
	if string(raw) != `{"routine_rating":{}}` {
		t.Fatalf("unexpected content: %s", raw)
	}
	if captured.Model != "gpt-4o-mini" {
		t.Fatalf("unexpected model %q", captured.Model)
	}
	if captured.ResponseFormat == nil || captured.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", captured.ResponseFormat)
	}
	if len(captured.Messages) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(captured.Messages))
	}
	last, ok := captured.Messages[2].Content.(string)
	if !ok || !strings.Contains(last, "CeraVe Foaming Cleanser") {
		t.Fatalf("expected product list in final message, got %v", captured.Messages[2].Content)
	}
}

func TestExtractProductsInlinesImageAsDataURL(t *testing.T) {
	var body map[string]any
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Errorf("decode request: %v", err)
		}
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": `{"products":["A"],"confidence":"high"}`}},
			},
		})
	})

	raw, err := client.ExtractProducts(context.Background(), llm.Image{Data: []byte("fake-png"), MIMEType: "image/png"})
	if err != nil {
		t.Fatalf("extract products: %v", err)
	}
	if !strings.Contains(string(raw), `"confidence":"high"`) {
		t.Fatalf("unexpected content: %s", raw)
	}

	payload, _ := json.Marshal(body)
	if !strings.Contains(string(payload), "data:image/png;base64,") {
		t.Fatalf("expected data URL in request, got %s", payload)
	}
	if !strings.Contains(string(payload), `"max_tokens":500`) {
		t.Fatalf("expected max_tokens on vision request, got %s", payload)
	}
}

func TestCompleteMapsUpstreamStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":{"message":"rate limited"}}`, http.StatusTooManyRequests)
	})

	_, err := client.AnalyzeRoutine(context.Background(), []string{"x"})
	var statusErr *llm.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", statusErr.StatusCode)
	}
}

func TestCompleteEmptyContent(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"choices": []map[string]any{
				{"message": map[string]any{"role": "assistant", "content": "   "}},
			},
		})
	})

	_, err := client.AnalyzeRoutine(context.Background(), []string{"x"})
	if !errors.Is(err, llm.ErrEmptyContent) {
		t.Fatalf("expected ErrEmptyContent, got %v", err)
	}
}

func TestNewClientRequiresKeyAndModels(t *testing.T) {
	if _, err := NewClient("", "m", "m", "v2"); err == nil {
		t.Fatalf("expected error for missing api key")
	}
	if _, err := NewClient("k", "", "m", "v2"); err == nil {
		t.Fatalf("expected error for missing compat model")
	}
	if _, err := NewClient("k", "m", "", "v2"); err == nil {
		t.Fatalf("expected error for missing vision model")
	}
}
