package zai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/newomen/newme-backend/internal/platform/logger"
)

// ChatRequest is a single system+user exchange against the Z.AI
// chat/completions endpoint.
type ChatRequest struct {
	System      string
	User        string
	Model       string // optional override; empty uses the client default
	Fast        bool   // use the fast model when no explicit Model is set
	Temperature float64
	MaxTokens   int
	JSONObject  bool // request response_format {"type":"json_object"}
}

type ChatResult struct {
	Content    string
	Model      string
	TokensUsed int
}

// Client is the LLM provider client used by the analysis and assessment
// pipelines. Single attempt per call; retry policy belongs to callers.
type Client interface {
	Chat(ctx context.Context, req ChatRequest) (ChatResult, error)

	// Model reports the default analysis model label.
	Model() string
}

type client struct {
	log        *logger.Logger
	baseURL    string
	apiKey     string
	model      string
	fastModel  string
	httpClient *http.Client
}

func NewClient(log *logger.Logger) (Client, error) {
	apiKey := strings.TrimSpace(os.Getenv("ZAI_API_KEY"))
	if apiKey == "" {
		return nil, fmt.Errorf("missing ZAI_API_KEY")
	}

	baseURL := strings.TrimSpace(os.Getenv("ZAI_BASE_URL"))
	if baseURL == "" {
		baseURL = "https://api.z.ai/api/coding/paas/v4"
	}
	baseURL = strings.TrimRight(baseURL, "/")

	model := strings.TrimSpace(os.Getenv("ZAI_MODEL"))
	if model == "" {
		model = "glm-4.6"
	}
	fastModel := strings.TrimSpace(os.Getenv("ZAI_FAST_MODEL"))
	if fastModel == "" {
		fastModel = "glm-4.5-air"
	}

	timeoutSec := 90
	if raw := strings.TrimSpace(os.Getenv("ZAI_TIMEOUT_SECONDS")); raw != "" {
		if n, err := strconv.Atoi(raw); err == nil && n > 0 {
			timeoutSec = n
		}
	}

	return &client{
		log:       log.With("client", "ZaiClient"),
		baseURL:   baseURL,
		apiKey:    apiKey,
		model:     model,
		fastModel: fastModel,
		httpClient: &http.Client{
			Timeout: time.Duration(timeoutSec) * time.Second,
		},
	}, nil
}

type chatCompletionRequest struct {
	Model          string        `json:"model"`
	Messages       []chatMessage `json:"messages"`
	Temperature    float64       `json:"temperature,omitempty"`
	MaxTokens      int           `json:"max_tokens,omitempty"`
	Stream         bool          `json:"stream"`
	ResponseFormat *respFormat   `json:"response_format,omitempty"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type respFormat struct {
	Type string `json:"type"`
}

type chatCompletionResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

func (c *client) Model() string { return c.model }

func (c *client) Chat(ctx context.Context, req ChatRequest) (ChatResult, error) {
	model := strings.TrimSpace(req.Model)
	if model == "" {
		if req.Fast {
			model = c.fastModel
		} else {
			model = c.model
		}
	}

	body := chatCompletionRequest{
		Model: model,
		Messages: []chatMessage{
			{Role: "system", Content: req.System},
			{Role: "user", Content: req.User},
		},
		Temperature: req.Temperature,
		MaxTokens:   req.MaxTokens,
		Stream:      false,
	}
	if req.JSONObject {
		body.ResponseFormat = &respFormat{Type: "json_object"}
	}

	raw, err := json.Marshal(body)
	if err != nil {
		return ChatResult{}, err
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat/completions", bytes.NewReader(raw))
	if err != nil {
		return ChatResult{}, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	httpReq.Header.Set("Accept-Language", "en-US,en")
	httpReq.Header.Set("Authorization", "Bearer "+c.apiKey)

	start := time.Now()
	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		return ChatResult{}, fmt.Errorf("zai request failed: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return ChatResult{}, fmt.Errorf("zai read response: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return ChatResult{}, fmt.Errorf("zai api error (%d): %s", resp.StatusCode, strings.TrimSpace(string(respBody)))
	}

	var parsed chatCompletionResponse
	if err := json.Unmarshal(respBody, &parsed); err != nil {
		return ChatResult{}, fmt.Errorf("zai decode response: %w", err)
	}
	if len(parsed.Choices) == 0 || strings.TrimSpace(parsed.Choices[0].Message.Content) == "" {
		return ChatResult{}, fmt.Errorf("zai response has no choices")
	}

	c.log.Debug("zai chat completed",
		"model", model,
		"tokens", parsed.Usage.TotalTokens,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	return ChatResult{
		Content:    parsed.Choices[0].Message.Content,
		Model:      model,
		TokensUsed: parsed.Usage.TotalTokens,
	}, nil
}
