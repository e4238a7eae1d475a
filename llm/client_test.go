package llm

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGeminiComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/models/test-model:generateContent", r.URL.Path)
		assert.Equal(t, "secret", r.Header.Get("x-goog-api-key"))

		var body geminiRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Len(t, body.Contents, 1)
		assert.Equal(t, "user", body.Contents[0].Role)
		assert.Equal(t, "feed me", body.Contents[0].Parts[0].Text)

		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"Here is "},{"text":"the menu"}]}}]}`))
	}))
	defer server.Close()

	client := NewGeminiClient(Config{APIKey: "secret", Model: "test-model", BaseURL: server.URL + "/models/"})
	text, err := client.Complete(context.Background(), "feed me")
	require.NoError(t, err)
	assert.Equal(t, "Here is the menu", text)
}

func TestGeminiAPIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error":{"message":"quota exceeded"}}`))
	}))
	defer server.Close()

	client := NewGeminiClient(Config{APIKey: "secret", BaseURL: server.URL})
	_, err := client.Complete(context.Background(), "feed me")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "quota exceeded")
}

func TestGeminiRequiresKey(t *testing.T) {
	_, err := NewGeminiClient(Config{}).Complete(context.Background(), "x")
	assert.Error(t, err)
}

func TestDeepSeekComplete(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer key", r.Header.Get("Authorization"))
		var body deepSeekRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "deepseek-chat", body.Model)
		assert.Equal(t, "feed me", body.Messages[0].Content)

		w.Write([]byte(`{"choices":[{"message":{"role":"assistant","content":"  menu  "}}]}`))
	}))
	defer server.Close()

	client := NewDeepSeekClient(Config{APIKey: "key", BaseURL: server.URL})
	text, err := client.Complete(context.Background(), "feed me")
	require.NoError(t, err)
	assert.Equal(t, "menu", text)
}

func TestDeepSeekStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	_, err := NewDeepSeekClient(Config{APIKey: "key", BaseURL: server.URL}).Complete(context.Background(), "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "502")
}

func TestNewProvider(t *testing.T) {
	c, err := New(Config{})
	require.NoError(t, err)
	assert.IsType(t, &GeminiClient{}, c)

	c, err = New(Config{Provider: "deepseek"})
	require.NoError(t, err)
	assert.IsType(t, &DeepSeekClient{}, c)

	_, err = New(Config{Provider: "openai"})
	assert.Error(t, err)
}
