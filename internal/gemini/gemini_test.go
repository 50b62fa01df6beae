package gemini

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) (*Client, *httptest.Server) {
	t.Helper()
	provider := httptest.NewServer(handler)
	t.Cleanup(provider.Close)
	client := NewClient("test-key", provider.URL, "gemini-2.5-flash", 5*time.Second)
	return client, provider
}

func TestRelayPassesThroughPayloadAndStatus(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("expected api key in query, got %q", r.URL.RawQuery)
		}
		var req GenerateContentRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
		}
		if len(req.Contents) != 1 || len(req.Contents[0].Parts) != 1 || req.Contents[0].Parts[0].Text != "hello" {
			t.Errorf("expected single-part prompt, got %+v", req.Contents)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"code":429,"message":"quota"}}`))
	})

	result, err := client.Relay(context.Background(), "hello")
	if err != nil {
		t.Fatalf("relay error: %v", err)
	}
	if result.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected provider status passed through, got %d", result.StatusCode)
	}
	if result.Payload == nil {
		t.Fatalf("expected decoded payload for valid JSON body")
	}
}

func TestRelayInvalidJSONLeavesPayloadUnset(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte("<html>not json</html>"))
	})

	result, err := client.Relay(context.Background(), "hello")
	if err != nil {
		t.Fatalf("relay error: %v", err)
	}
	if result.Payload != nil {
		t.Fatalf("expected nil payload for invalid JSON")
	}
	if string(result.Body) != "<html>not json</html>" {
		t.Fatalf("expected raw body preserved, got %q", result.Body)
	}
}

func TestRelayEmptyBodyDecodesToEmptyObject(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	result, err := client.Relay(context.Background(), "hello")
	if err != nil {
		t.Fatalf("relay error: %v", err)
	}
	if string(result.Payload) != "{}" {
		t.Fatalf("expected empty object payload, got %q", result.Payload)
	}
}

func TestRelayNotConfigured(t *testing.T) {
	client := NewClient("", "http://127.0.0.1:1", "gemini-2.5-flash", time.Second)
	if _, err := client.Relay(context.Background(), "hello"); err != ErrNotConfigured {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}

func TestGenerateContentText(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		json.NewEncoder(w).Encode(GenerateContentResponse{
			Candidates: []Candidate{
				{Content: Content{Role: "model", Parts: []Part{{Text: "Matilda is a classic."}}}},
			},
		})
	})

	resp, err := client.GenerateContent(context.Background(), "recommend a book")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	text, ok := resp.Text()
	if !ok || text != "Matilda is a classic." {
		t.Fatalf("expected extracted text, got %q ok=%v", text, ok)
	}
}

func TestGenerateContentMissingTextPath(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Write([]byte(`{"candidates":[{"content":{"role":"model","parts":[]}}]}`))
	})

	resp, err := client.GenerateContent(context.Background(), "recommend a book")
	if err != nil {
		t.Fatalf("generate error: %v", err)
	}
	if _, ok := resp.Text(); ok {
		t.Fatalf("expected missing text path to report absence")
	}
}

func TestGenerateContentProviderStatusError(t *testing.T) {
	client, _ := newTestClient(t, func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":{"code":400,"message":"bad prompt"}}`))
	})

	if _, err := client.GenerateContent(context.Background(), "x"); err == nil {
		t.Fatalf("expected error for provider status 400")
	}
}
