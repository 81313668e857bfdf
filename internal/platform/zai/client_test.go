package zai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/newomen/newme-backend/internal/platform/logger"
)

func testClient(t *testing.T, baseURL string) *client {
	t.Helper()
	log, err := logger.New("development")
	if err != nil {
		t.Fatalf("logger.New: %v", err)
	}
	return &client{
		log:        log,
		baseURL:    baseURL,
		apiKey:     "test-key",
		model:      "glm-4.6",
		fastModel:  "glm-4.5-air",
		httpClient: http.DefaultClient,
	}
}

func completionBody(content string, tokens int) string {
	resp := map[string]any{
		"choices": []map[string]any{
			{"message": map[string]any{"content": content}},
		},
		"usage": map[string]any{"total_tokens": tokens},
	}
	raw, _ := json.Marshal(resp)
	return string(raw)
}

func TestChatParsesCompletion(t *testing.T) {
	var gotReq chatCompletionRequest
	var gotAuth string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decode request: %v", err)
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(completionBody(`{"score": 80}`, 321)))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	result, err := c.Chat(context.Background(), ChatRequest{
		System:      "system prompt",
		User:        "user prompt",
		Temperature: 0.6,
		MaxTokens:   2000,
		JSONObject:  true,
	})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if result.Content != `{"score": 80}` {
		t.Fatalf("unexpected content %q", result.Content)
	}
	if result.TokensUsed != 321 {
		t.Fatalf("expected 321 tokens, got %d", result.TokensUsed)
	}
	if result.Model != "glm-4.6" {
		t.Fatalf("expected default model, got %q", result.Model)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotReq.Model != "glm-4.6" {
		t.Fatalf("request carried model %q", gotReq.Model)
	}
	if gotReq.ResponseFormat == nil || gotReq.ResponseFormat.Type != "json_object" {
		t.Fatalf("expected json_object response format, got %+v", gotReq.ResponseFormat)
	}
	if len(gotReq.Messages) != 2 || gotReq.Messages[0].Role != "system" || gotReq.Messages[1].Role != "user" {
		t.Fatalf("unexpected messages %+v", gotReq.Messages)
	}
}

func TestChatFastModelSelection(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Write([]byte(completionBody("hi", 5)))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	result, err := c.Chat(context.Background(), ChatRequest{User: "hello", Fast: true})
	if err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotModel != "glm-4.5-air" {
		t.Fatalf("expected fast model, got %q", gotModel)
	}
	if result.Model != "glm-4.5-air" {
		t.Fatalf("result model %q", result.Model)
	}
}

func TestChatExplicitModelOverridesFast(t *testing.T) {
	var gotModel string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req chatCompletionRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		gotModel = req.Model
		w.Write([]byte(completionBody("hi", 5)))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Chat(context.Background(), ChatRequest{User: "hello", Model: "glm-4-long", Fast: true}); err != nil {
		t.Fatalf("Chat: %v", err)
	}
	if gotModel != "glm-4-long" {
		t.Fatalf("expected explicit model, got %q", gotModel)
	}
}

func TestChatAPIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": "rate limited"}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	_, err := c.Chat(context.Background(), ChatRequest{User: "hello"})
	if err == nil {
		t.Fatal("expected error for non-2xx status")
	}
	if !strings.Contains(err.Error(), "429") {
		t.Fatalf("error should carry status code, got %v", err)
	}
}

func TestChatNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"choices": [], "usage": {"total_tokens": 0}}`))
	}))
	defer srv.Close()

	c := testClient(t, srv.URL)
	if _, err := c.Chat(context.Background(), ChatRequest{User: "hello"}); err == nil {
		t.Fatal("expected error for empty choices")
	}
}
