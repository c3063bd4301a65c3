package services

import (
	"context"
	"errors"
	"strings"
	"time"

	openai "github.com/sashabaranov/go-openai"

	"study-assist/internal/models"
)

// The model is told once who it is; every action shares this system turn.
const systemPrompt = "You are a clear, student-friendly study assistant. Use concise, structured explanations."

const completionTimeout = 2 * time.Minute

// CompletionClient is the outbound boundary to the hosted completion
// provider. Implementations return the completion text or a
// *models.CompletionError; no other error type crosses this boundary.
type CompletionClient interface {
	Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error)
}

// OpenAIClient talks to an OpenAI-compatible chat completion endpoint.
type OpenAIClient struct {
	client *openai.Client
	model  string
}

// NewOpenAIClient builds a client. An empty apiKey is tolerated; every
// Complete call then fails with a missing-credential error before any
// network attempt.
func NewOpenAIClient(apiKey, model, endpoint string) *OpenAIClient {
	if apiKey == "" {
		return &OpenAIClient{model: model}
	}
	cfg := openai.DefaultConfig(apiKey)
	if endpoint != "" {
		cfg.BaseURL = endpoint
	}
	return &OpenAIClient{
		client: openai.NewClientWithConfig(cfg),
		model:  model,
	}
}

func (c *OpenAIClient) Complete(ctx context.Context, prompt string, maxTokens int, temperature float64) (string, error) {
	if c.client == nil {
		return "", &models.CompletionError{
			Kind:    models.ErrMissingCredential,
			Message: "no API key configured; set OPENAI_API_KEY and restart",
		}
	}

	req := openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
		MaxTokens:   maxTokens,
		Temperature: float32(temperature),
	}

	ctx, cancel := context.WithTimeout(ctx, completionTimeout)
	defer cancel()

	resp, err := c.client.CreateChatCompletion(ctx, req)
	if err != nil {
		return "", classifyCompletionErr(err)
	}
	if len(resp.Choices) == 0 {
		return "", &models.CompletionError{
			Kind:    models.ErrProvider,
			Message: "provider returned no choices",
		}
	}
	return strings.TrimSpace(resp.Choices[0].Message.Content), nil
}

// classifyCompletionErr folds go-openai's error types into the closed
// taxonomy: provider-reported failures keep their message, everything else
// is a transport failure.
func classifyCompletionErr(err error) *models.CompletionError {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return &models.CompletionError{Kind: models.ErrProvider, Message: apiErr.Message}
	}
	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return &models.CompletionError{Kind: models.ErrProvider, Message: reqErr.Error()}
	}
	return &models.CompletionError{Kind: models.ErrTransport, Message: err.Error()}
}
