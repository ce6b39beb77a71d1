package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
)

const (
	defaultLLMBaseURL = "https://api.openai.com/v1"
	defaultLLMModel   = "gpt-3.5-turbo"
)

// ChatMessage is one message of a chat completion conversation
type ChatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// CompletionRequest describes a chat completion call
type CompletionRequest struct {
	Messages    []ChatMessage
	Temperature float64
	MaxTokens   int
	// JSONOutput asks the model for a single JSON object
	JSONOutput bool
}

// ChatCompleter produces a completion for a conversation
type ChatCompleter interface {
	Complete(ctx context.Context, req CompletionRequest) (string, error)
}

// LLMOptions configures LLMClient
type LLMOptions struct {
	BaseURL string
	APIKey  string
	Model   string
	Timeout time.Duration
}

// LLMClient talks to an OpenAI-compatible chat completions endpoint
type LLMClient struct {
	client  *openai.Client
	baseURL string
	model   string
	timeout time.Duration
}

// NewLLMClient creates a new chat completion client
func NewLLMClient(opts LLMOptions) *LLMClient {
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultLLMBaseURL
	}
	model := opts.Model
	if model == "" {
		model = defaultLLMModel
	}
	httpClient := newHTTPClient(opts.Timeout)

	cfg := openai.DefaultConfig(opts.APIKey)
	cfg.BaseURL = baseURL
	cfg.HTTPClient = httpClient

	return &LLMClient{
		client:  openai.NewClientWithConfig(cfg),
		baseURL: baseURL,
		model:   model,
		timeout: httpClient.Timeout,
	}
}

// Complete implements ChatCompleter
func (c *LLMClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	messages := make([]openai.ChatCompletionMessage, 0, len(req.Messages))
	for _, m := range req.Messages {
		messages = append(messages, openai.ChatCompletionMessage{Role: m.Role, Content: m.Content})
	}

	body := openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    messages,
		Temperature: float32(req.Temperature),
		MaxTokens:   req.MaxTokens,
	}
	if req.JSONOutput {
		body.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := c.client.CreateChatCompletion(ctx, body)
	if err != nil {
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("chat completion returned no choices")
	}

	return resp.Choices[0].Message.Content, nil
}
