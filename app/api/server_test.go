package api

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"portfolio/app/client/llm"
	"portfolio/app/client/voice"
	"portfolio/app/config"
	"portfolio/app/service/chat"
	"portfolio/app/service/inference"
	"portfolio/app/service/prompt"
	"portfolio/app/service/quota"
	"portfolio/app/service/quote"

	"github.com/samber/do"
)

type memStore struct {
	data map[string]quota.Record
}

func (m *memStore) Load() (map[string]quota.Record, error) {
	out := map[string]quota.Record{}
	for k, v := range m.data {
		out[k] = v
	}

	return out, nil
}

func (m *memStore) Save(records map[string]quota.Record) error {
	m.data = records

	return nil
}

func newTestServer(t *testing.T, dailyLimit int, mutate func(cfg *config.Config)) *Server {
	t.Helper()

	cfg := &config.Config{}
	cfg.Server.Addr = ":0"
	cfg.OpenAI.BaseURL = "http://127.0.0.1:1"
	cfg.OpenAI.Token = "test-token"
	cfg.OpenAI.Model = "test-model"
	cfg.Voice.TokenURL = "http://127.0.0.1:1"
	cfg.Quota.DailyLimit = dailyLimit

	if mutate != nil {
		mutate(cfg)
	}

	di := do.New()
	do.ProvideValue(di, cfg)
	do.ProvideValue(di, quota.NewWithDeps(dailyLimit, &memStore{data: map[string]quota.Record{}}, time.Now))
	do.Provide(di, llm.NewClient)
	do.Provide(di, voice.NewClient)
	do.Provide(di, inference.New)
	do.Provide(di, prompt.New)
	do.Provide(di, chat.New)
	do.Provide(di, quote.New)

	server, err := New(di)
	if err != nil {
		t.Fatalf("failed to create server: %v", err)
	}

	return server
}

func doJSON(t *testing.T, s *Server, method, path, body string) (*http.Response, []byte) {
	t.Helper()

	var reader io.Reader
	if body != "" {
		reader = strings.NewReader(body)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.App().Test(req, -1)
	if err != nil {
		t.Fatalf("request failed: %v", err)
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		t.Fatalf("failed to read response body: %v", err)
	}

	return resp, data
}

func TestChatWrongMethod(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, _ := doJSON(t, s, http.MethodGet, "/api/chat", "")
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", resp.StatusCode)
	}
}

func TestChatEmptyQuery(t *testing.T) {
	s := newTestServer(t, 5, nil)

	for _, body := range []string{`{"query": ""}`, `{"query": "   "}`, `{}`} {
		resp, data := doJSON(t, s, http.MethodPost, "/api/chat", body)
		if resp.StatusCode != http.StatusBadRequest {
			t.Fatalf("expected 400 for body %s, got %d (%s)", body, resp.StatusCode, data)
		}
	}
}

func TestChatMissingCredential(t *testing.T) {
	s := newTestServer(t, 5, func(cfg *config.Config) {
		cfg.OpenAI.Token = ""
	})

	resp, data := doJSON(t, s, http.MethodPost, "/api/chat", `{"query": "hello"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", resp.StatusCode)
	}

	var parsed map[string]any
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if parsed["error"] == nil {
		t.Fatalf("expected an error field, got %s", data)
	}
}

func TestChatSync(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"choices": [{"index": 0, "message": {"role": "assistant", "content": "JP is a developer."}, "finish_reason": "stop"}],
			"usage": {"prompt_tokens": 42, "completion_tokens": 7, "total_tokens": 49}
		}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, 5, func(cfg *config.Config) {
		cfg.OpenAI.BaseURL = upstream.URL
	})

	resp, data := doJSON(t, s, http.MethodPost, "/api/chat",
		`{"query": "who is JP?", "relevantChunks": "JP is a developer since January 2023.", "userHistory": [{"title": "About"}]}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, data)
	}

	var parsed struct {
		Response string `json:"response"`
		Usage    struct {
			TotalTokens int `json:"total_tokens"`
		} `json:"usage"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if parsed.Response != "JP is a developer." {
		t.Fatalf("expected upstream text, got %q", parsed.Response)
	}
	if parsed.Usage.TotalTokens != 49 {
		t.Fatalf("expected usage passthrough, got %s", data)
	}
}

func TestChatQuotaExhausted(t *testing.T) {
	s := newTestServer(t, 0, nil)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/chat", `{"query": "hello"}`)
	if resp.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", resp.StatusCode)
	}
}

func TestChatStreamRelaysAndTerminates(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/event-stream")
		flusher := w.(http.Flusher)

		_, _ = w.Write([]byte("a"))
		flusher.Flush()
		_, _ = w.Write([]byte("b"))
		flusher.Flush()
	}))
	defer upstream.Close()

	s := newTestServer(t, 5, func(cfg *config.Config) {
		cfg.OpenAI.BaseURL = upstream.URL
	})

	resp, data := doJSON(t, s, http.MethodPost, "/api/chat/stream", `{"query": "hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if got := resp.Header.Get("Content-Type"); !strings.HasPrefix(got, "text/event-stream") {
		t.Fatalf("expected event stream content type, got %q", got)
	}
	if resp.Header.Get("Cache-Control") != "no-cache" {
		t.Fatalf("expected no-cache, got %q", resp.Header.Get("Cache-Control"))
	}

	if string(data) != "ab"+"data: [DONE]\n\n" {
		t.Fatalf("unexpected relayed byte sequence: %q", string(data))
	}
}

func TestChatStreamUpstreamRejection(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, 5, func(cfg *config.Config) {
		cfg.OpenAI.BaseURL = upstream.URL
	})

	resp, data := doJSON(t, s, http.MethodPost, "/api/chat/stream", `{"query": "hello"}`)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200 with an error frame, got %d", resp.StatusCode)
	}

	body := string(data)
	if strings.Count(body, "event: error") != 1 {
		t.Fatalf("expected exactly one error frame, got %q", body)
	}
	if strings.Contains(body, "data: [DONE]") {
		t.Fatalf("no done sentinel should follow an error frame, got %q", body)
	}
}

func TestChatStreamEmptyQuery(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/chat/stream", `{"query": ""}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestChatLimitEndpoint(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, data := doJSON(t, s, http.MethodGet, "/api/chat/limit", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}

	var parsed struct {
		Count          int    `json:"count"`
		Limit          int    `json:"limit"`
		Remaining      int    `json:"remaining"`
		ResetTime      string `json:"resetTime"`
		IsLimitReached bool   `json:"isLimitReached"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}

	if parsed.Limit != 5 || parsed.Remaining != 5 || parsed.Count != 0 || parsed.IsLimitReached {
		t.Fatalf("unexpected quota status: %s", data)
	}
	if _, err := time.Parse(time.RFC3339, parsed.ResetTime); err != nil {
		t.Fatalf("resetTime not RFC3339: %v", err)
	}
}

func TestQuoteValidation(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/quote", `{"name": "Jane", "details": "Need a site"}`)
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400 for missing email, got %d", resp.StatusCode)
	}
}

func TestQuoteNotConfigured(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, data := doJSON(t, s, http.MethodPost, "/api/quote",
		`{"name": "Jane", "email": "jane@example.com", "details": "Need a site"}`)
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 without smtp config, got %d (%s)", resp.StatusCode, data)
	}
}

func TestVoiceToken(t *testing.T) {
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"token": "temp-token-123"}`))
	}))
	defer upstream.Close()

	s := newTestServer(t, 5, func(cfg *config.Config) {
		cfg.Voice.TokenURL = upstream.URL
		cfg.Voice.APIKey = "secret"
	})

	resp, data := doJSON(t, s, http.MethodPost, "/api/voice/token", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", resp.StatusCode, data)
	}

	var parsed map[string]string
	if err := json.Unmarshal(data, &parsed); err != nil {
		t.Fatalf("invalid json response: %v", err)
	}
	if parsed["token"] != "temp-token-123" {
		t.Fatalf("expected minted token, got %s", data)
	}
}

func TestVoiceTokenMissingKey(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, _ := doJSON(t, s, http.MethodPost, "/api/voice/token", "")
	if resp.StatusCode != http.StatusInternalServerError {
		t.Fatalf("expected 500 without an api key, got %d", resp.StatusCode)
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, 5, nil)

	resp, data := doJSON(t, s, http.MethodGet, "/health", "")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if !strings.Contains(string(data), "ok") {
		t.Fatalf("unexpected health body: %s", data)
	}
}
