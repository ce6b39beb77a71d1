package services

import (
	"context"
	"fmt"
	"strings"
)

// ChatFallbackReply is returned to clients when the assistant is unavailable
const ChatFallbackReply = "I apologize, but I'm having trouble connecting right now. Please try again in a moment."

// AssistantService answers free-form travel questions
type AssistantService struct {
	llm ChatCompleter
}

// NewAssistantService creates a new assistant service. llm may be nil.
func NewAssistantService(llm ChatCompleter) *AssistantService {
	return &AssistantService{llm: llm}
}

// Chat returns the assistant's reply to message
func (s *AssistantService) Chat(ctx context.Context, message, language string) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", validationError("Message is required")
	}
	if s.llm == nil {
		return "", fmt.Errorf("assistant is not configured")
	}
	if language == "" {
		language = "en"
	}

	systemPrompt := "You are a travel assistant for trips in India. Suggest itineraries, places to visit, " +
		"budget estimates and local customs in a friendly tone. Answer in Hindi when the user writes in Hindi. " +
		"Preferred language: " + language

	reply, err := s.llm.Complete(ctx, CompletionRequest{
		Messages: []ChatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: message},
		},
		Temperature: 0.7,
		MaxTokens:   500,
	})
	if err != nil {
		return "", fmt.Errorf("failed to get assistant reply: %w", err)
	}
	return reply, nil
}
