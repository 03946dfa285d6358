package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/logging"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ProviderNameGemini identifies the Gemini provider in errors and logs.
const ProviderNameGemini = "gemini"

// contentGenerator is the part of *genai.GenerativeModel the client uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, parts ...genai.Part) (*genai.GenerateContentResponse, error)
}

// GeminiClient implements Provider with Google's generative AI SDK.
type GeminiClient struct {
	client *genai.Client
	// modelFor returns a model configured for one request. Models carry the
	// system instruction, so they are not shared between requests.
	modelFor func(req CompletionRequest) contentGenerator
	name     string
	log      logging.Logger
}

// GeminiConfig configures NewGeminiClient.
type GeminiConfig struct {
	APIKey      string
	Model       string
	Temperature float64
}

// NewGeminiClient creates a Gemini-backed provider. A missing key is a
// ConfigurationError.
func NewGeminiClient(ctx context.Context, cfg GeminiConfig, logger logging.Logger) (*GeminiClient, error) {
	if cfg.APIKey == "" {
		return nil, &ledgererror.ConfigurationError{Key: "GEMINI_API_KEY", Reason: "not set"}
	}
	if cfg.Model == "" {
		return nil, &ledgererror.ConfigurationError{Key: "ai.model", Reason: "empty"}
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.APIKey))
	if err != nil {
		return nil, &ledgererror.ProviderError{Provider: ProviderNameGemini, Err: err}
	}

	return &GeminiClient{
		client: client,
		modelFor: func(req CompletionRequest) contentGenerator {
			model := client.GenerativeModel(cfg.Model)
			configureModel(model, cfg.Temperature, req)
			return model
		},
		name: cfg.Model,
		log:  logger,
	}, nil
}

// Name returns the provider name.
func (c *GeminiClient) Name() string {
	return ProviderNameGemini
}

// Close releases the underlying connection.
func (c *GeminiClient) Close() error {
	if c.client == nil {
		return nil
	}
	return c.client.Close()
}

// configureModel applies temperature, the system instruction and, in JSON
// mode, the application/json response type.
func configureModel(model *genai.GenerativeModel, temperature float64, req CompletionRequest) {
	model.SetTemperature(float32(temperature))
	if req.System != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(req.System)}}
	}
	if req.JSONMode {
		model.ResponseMIMEType = "application/json"
	}
}

// Complete sends the message as the user turn and returns the concatenated
// text of the first candidate.
func (c *GeminiClient) Complete(ctx context.Context, req CompletionRequest) (string, error) {
	c.log.Debug("Calling Gemini",
		logging.F(logging.FieldProvider, ProviderNameGemini),
		logging.F(logging.FieldModel, c.name))

	resp, err := c.modelFor(req).GenerateContent(ctx, genai.Text(req.User))
	if err != nil {
		return "", geminiError(err)
	}

	text := responseText(resp)
	if strings.TrimSpace(text) == "" {
		return "", &ledgererror.EmptyResponseError{Provider: ProviderNameGemini}
	}
	return text, nil
}

func responseText(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}
	cand := resp.Candidates[0]
	if cand == nil || cand.Content == nil {
		return ""
	}

	var sb strings.Builder
	for _, part := range cand.Content.Parts {
		if t, ok := part.(genai.Text); ok {
			sb.WriteString(string(t))
		}
	}
	return sb.String()
}

// geminiError maps SDK failures onto ProviderError with an HTTP-like status
// so the retry policy can treat both providers the same way.
func geminiError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return &ledgererror.ProviderError{Provider: ProviderNameGemini, StatusCode: http.StatusGatewayTimeout, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &ledgererror.ProviderError{Provider: ProviderNameGemini, Err: err}
	}

	st, ok := status.FromError(err)
	if !ok {
		return &ledgererror.ProviderError{Provider: ProviderNameGemini, Err: err}
	}

	code := 0
	switch st.Code() {
	case codes.ResourceExhausted:
		code = http.StatusTooManyRequests
	case codes.Unavailable:
		code = http.StatusServiceUnavailable
	case codes.DeadlineExceeded:
		code = http.StatusGatewayTimeout
	case codes.InvalidArgument, codes.FailedPrecondition:
		code = http.StatusBadRequest
	case codes.Unauthenticated:
		code = http.StatusUnauthorized
	case codes.PermissionDenied:
		code = http.StatusForbidden
	case codes.NotFound:
		code = http.StatusNotFound
	case codes.Internal, codes.Unknown:
		code = http.StatusBadGateway
	}
	return &ledgererror.ProviderError{Provider: ProviderNameGemini, StatusCode: code, Err: err}
}
