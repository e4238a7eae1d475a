package llm

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"
)

const defaultDeepSeekURL = "https://api.deepseek.com/chat/completions"

// DeepSeekClient talks to an OpenAI-compatible chat completions endpoint.
type DeepSeekClient struct {
	apiKey    string
	model     string
	client    *http.Client
	baseURL   string
	maxTokens int
}

func NewDeepSeekClient(cfg Config) *DeepSeekClient {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = defaultDeepSeekURL
	}
	model := cfg.Model
	if model == "" {
		model = "deepseek-chat"
	}
	return &DeepSeekClient{
		apiKey:    cfg.APIKey,
		model:     model,
		client:    &http.Client{Timeout: timeout},
		baseURL:   baseURL,
		maxTokens: cfg.MaxTokens,
	}
}

func (d *DeepSeekClient) Complete(ctx context.Context, prompt string) (string, error) {
	if d == nil || d.client == nil {
		return "", errors.New("deepseek client not configured")
	}
	if d.apiKey == "" {
		return "", errors.New("deepseek api key is required")
	}

	requestBody := deepSeekRequest{
		Model: d.model,
		Messages: []deepSeekMessage{{
			Role:    "user",
			Content: prompt,
		}},
		MaxTokens:   d.maxTokens,
		Temperature: 0.2,
	}
	payload, err := json.Marshal(requestBody)
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.baseURL, bytes.NewReader(payload))
	if err != nil {
		return "", err
	}
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", d.apiKey))
	req.Header.Set("Content-Type", "application/json")

	resp, err := d.client.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		var apiErr deepSeekErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Error.Message != "" {
			return "", fmt.Errorf("deepseek api error: %s", apiErr.Error.Message)
		}
		return "", fmt.Errorf("deepseek api returned status %d", resp.StatusCode)
	}

	var apiResp deepSeekResponse
	if err := json.NewDecoder(resp.Body).Decode(&apiResp); err != nil {
		return "", err
	}
	if len(apiResp.Choices) == 0 {
		return "", errors.New("deepseek api returned empty response")
	}
	return strings.TrimSpace(apiResp.Choices[0].Message.Content), nil
}

type deepSeekMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type deepSeekRequest struct {
	Model       string            `json:"model"`
	Messages    []deepSeekMessage `json:"messages"`
	MaxTokens   int               `json:"max_tokens,omitempty"`
	Temperature float64           `json:"temperature,omitempty"`
}

type deepSeekResponse struct {
	Choices []struct {
		Message deepSeekMessage `json:"message"`
	} `json:"choices"`
}

type deepSeekErrorResponse struct {
	Error struct {
		Message string `json:"message"`
	} `json:"error"`
}
