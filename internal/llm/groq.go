package llm

import (
	"context"
	"errors"
	"math"
	"net/http"
	"strings"

	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/logging"

	openai "github.com/sashabaranov/go-openai"
)

const (
	// ProviderNameGroq identifies the Groq provider in errors and logs.
	ProviderNameGroq = "groq"

	// DefaultGroqBaseURL is Groq's OpenAI-compatible API root.
	DefaultGroqBaseURL = "https://api.groq.com/openai/v1"
)

// chatCompleter is the part of *openai.Client the Groq provider uses.
type chatCompleter interface {
	CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error)
}

// GroqClient implements Provider against Groq's OpenAI-compatible chat
// completions endpoint.
type GroqClient struct {
	client      chatCompleter
	model       string
	temperature float32
	log         logging.Logger
}

// GroqConfig configures NewGroqClient.
type GroqConfig struct {
	APIKey      string
	Model       string
	Temperature float64
	// BaseURL overrides DefaultGroqBaseURL.
	BaseURL    string
	HTTPClient *http.Client
}

// NewGroqClient creates a Groq-backed provider. A missing key is a
// ConfigurationError.
func NewGroqClient(cfg GroqConfig, logger logging.Logger) (*GroqClient, error) {
	if cfg.APIKey == "" {
		return nil, &ledgererror.ConfigurationError{Key: "GROQ_API_KEY", Reason: "not set"}
	}
	if cfg.Model == "" {
		return nil, &ledgererror.ConfigurationError{Key: "ai.model", Reason: "empty"}
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	clientCfg.BaseURL = DefaultGroqBaseURL
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = strings.TrimSuffix(cfg.BaseURL, "/")
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	// the request field is omitempty, so an exact zero would fall back to
	// the server default
	temperature := float32(cfg.Temperature)
	if temperature == 0 {
		temperature = math.SmallestNonzeroFloat32
	}

	return &GroqClient{
		client:      openai.NewClientWithConfig(clientCfg),
		model:       cfg.Model,
		temperature: temperature,
		log:         logger,
	}, nil
}

// Name returns the provider name.
func (c *GroqClient) Name() string {
	return ProviderNameGroq
}

// Complete sends one chat completion and returns the first choice's content.
func (c *GroqClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	chat := openai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
	}
	if req.System != "" {
		chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: req.System})
	}
	chat.Messages = append(chat.Messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: req.User})
	if req.JSONMode {
		chat.ResponseFormat = &openai.ChatCompletionResponseFormat{Type: openai.ChatCompletionResponseFormatTypeJSONObject}
	}

	c.log.Debug("Calling Groq",
		logging.F(logging.FieldProvider, ProviderNameGroq),
		logging.F(logging.FieldModel, c.model))

	resp, err := c.client.CreateChatCompletion(ctx, chat)
	if err != nil {
		return "", groqError(err)
	}

	if len(resp.Choices) == 0 || strings.TrimSpace(resp.Choices[0].Message.Content) == "" {
		return "", &ledgererror.EmptyResponseError{Provider: ProviderNameGroq}
	}
	return resp.Choices[0].Message.Content, nil
}

// groqError carries the upstream HTTP status into ProviderError so Retryable
// can classify it.
func groqError(err error) error {
	code := 0
	var apiErr *openai.APIError
	var reqErr *openai.RequestError
	switch {
	case errors.As(err, &apiErr):
		code = apiErr.HTTPStatusCode
	case errors.As(err, &reqErr):
		code = reqErr.HTTPStatusCode
	case errors.Is(err, context.DeadlineExceeded):
		code = http.StatusGatewayTimeout
	}
	return &ledgererror.ProviderError{Provider: ProviderNameGroq, StatusCode: code, Err: err}
}
