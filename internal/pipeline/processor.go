// Package pipeline turns one spoken message into a validated result:
// prompt, provider call, JSON extraction, then the deterministic core of
// normalization, reference validation, confidence gating and assembly.
package pipeline

import (
	"context"
	"errors"
	"strings"
	"time"

	"fjacquet/voice-ledger/internal/assembler"
	"fjacquet/voice-ledger/internal/confidence"
	"fjacquet/voice-ledger/internal/extract"
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/llm"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"
	"fjacquet/voice-ledger/internal/normalizer"
	"fjacquet/voice-ledger/internal/prompt"
	"fjacquet/voice-ledger/internal/validation"
)

// Processor runs requests through a provider and the post-processing core.
// It holds no per-request state and is safe for concurrent use.
type Processor struct {
	provider    llm.Provider
	providerErr error
	gate        *confidence.Gate
	log         logging.Logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProviderError records why no provider could be built. Process returns
// it instead of a generic ConfigurationError while the provider is nil.
func WithProviderError(err error) ProcessorOption {
	return func(p *Processor) {
		p.providerErr = err
	}
}

// NewProcessor creates a Processor. provider may be nil for callers that only
// use Postprocess; Process then fails with a ConfigurationError. A nil gate
// uses the default thresholds.
func NewProcessor(provider llm.Provider, gate *confidence.Gate, logger logging.Logger, opts ...ProcessorOption) *Processor {
	if gate == nil {
		gate = confidence.DefaultGate()
	}
	p := &Processor{
		provider: provider,
		gate:     gate,
		log:      logger,
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Process validates the request, asks the provider for candidates and
// post-processes the reply. Every failure is a ledgererror kind.
func (p *Processor) Process(ctx context.Context, req models.VoiceRequest) (models.Result, error) {
	log := p.log
	if id, ok := RequestID(ctx); ok {
		log = log.WithField(logging.FieldRequestID, id)
	}

	if strings.TrimSpace(req.Message) == "" {
		return models.Result{}, &ledgererror.InvalidRequestError{Field: "message", Reason: "message is required"}
	}
	if err := req.Catalog.Validate(); err != nil {
		return models.Result{}, &ledgererror.InvalidRequestError{Field: "catalog", Reason: err.Error()}
	}
	if p.provider == nil {
		if p.providerErr != nil {
			return models.Result{}, p.providerErr
		}
		return models.Result{}, &ledgererror.ConfigurationError{Key: "ai.provider", Reason: "no provider configured"}
	}

	system, err := prompt.System(&req.Catalog)
	if err != nil {
		return models.Result{}, err
	}

	start := time.Now()
	raw, err := p.provider.Complete(ctx, llm.CompletionRequest{
		System:   system,
		User:     req.Message,
		JSONMode: true,
	})
	if err != nil {
		log.WithError(err).Error("Provider call failed",
			logging.F(logging.FieldProvider, p.provider.Name()),
			logging.F(logging.FieldErrorKind, string(ledgererror.KindOf(err))))
		return models.Result{}, err
	}
	log.Debug("Provider replied",
		logging.F(logging.FieldProvider, p.provider.Name()),
		logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))

	return p.postprocess(log, p.provider.Name(), &req.Catalog, raw, req.Envelope)
}

// Postprocess runs the deterministic core on a raw model reply.
func (p *Processor) Postprocess(catalog *models.EntityCatalog, raw string, envelope models.Envelope) (models.Result, error) {
	return p.postprocess(p.log, "model", catalog, raw, envelope)
}

func (p *Processor) postprocess(log logging.Logger, provider string, catalog *models.EntityCatalog, raw string, envelope models.Envelope) (models.Result, error) {
	payload, err := extract.JSON(provider, raw)
	if err != nil {
		return models.Result{}, err
	}

	extraction, err := models.DecodeExtraction(payload)
	if err != nil {
		return models.Result{}, &ledgererror.MalformedOutputError{Raw: raw, Err: err}
	}

	records := normalizer.NormalizeAll(catalog, extraction.Candidates)
	for i, r := range records {
		if normalizer.NeedsDestination(r) {
			log.Warn("Transfer has no destination account",
				logging.F("index", i),
				logging.F(logging.FieldStatus, "kept"))
		}
	}

	if err := validation.ValidateReferences(catalog, records); err != nil {
		var invalid string
		var ref *ledgererror.ReferenceIntegrityError
		if errors.As(err, &ref) {
			invalid = ref.ID
		}
		log.Warn("Rejected batch with unknown entity",
			logging.F(logging.FieldInvalidID, invalid),
			logging.F(logging.FieldCount, len(records)))
		return models.Result{}, err
	}

	kept, dropped := p.gate.Filter(records)
	suggestion := p.gate.Suggestion(extraction.Suggestion)

	log.Info("Processed message",
		logging.F(logging.FieldCount, len(kept)),
		logging.F(logging.FieldDropped, dropped))

	return assembler.Assemble(kept, suggestion, envelope), nil
}
