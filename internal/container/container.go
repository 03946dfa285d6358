// Package container provides dependency injection for voice-ledger.
// It centralizes the creation and wiring of all application dependencies,
// making them explicit and testable.
package container

import (
	"context"
	"fmt"

	"fjacquet/voice-ledger/internal/batch"
	"fjacquet/voice-ledger/internal/config"
	"fjacquet/voice-ledger/internal/confidence"
	"fjacquet/voice-ledger/internal/csvio"
	"fjacquet/voice-ledger/internal/forex"
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/llm"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/pipeline"
	"fjacquet/voice-ledger/internal/store"
)

// Container holds all application dependencies. It is immutable after
// creation; dependencies are reached through getters.
type Container struct {
	logger    logging.Logger
	config    *config.Config
	store     store.CatalogLoader
	provider  llm.Provider
	processor *pipeline.Processor
	forex     *forex.Service
	codec     *csvio.Codec
	runner    *batch.Runner
}

// Option overrides a dependency, mainly for tests.
type Option func(*options)

type options struct {
	logger       logging.Logger
	provider     llm.Provider
	fetcher      forex.Fetcher
	catalogStore store.CatalogLoader
}

// WithLogger replaces the logger built from configuration.
func WithLogger(l logging.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithProvider replaces the provider built from configuration. It is used as is.
func WithProvider(p llm.Provider) Option {
	return func(o *options) { o.provider = p }
}

// WithForexFetcher replaces the HTTP rate fetcher.
func WithForexFetcher(f forex.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

// WithCatalogStore replaces the file-backed catalog store.
func WithCatalogStore(s store.CatalogLoader) Option {
	return func(o *options) { o.catalogStore = s }
}

// NewContainer creates and wires all application dependencies.
//
// A provider or exchange-rate key that is not configured does not fail
// construction: the components that need it report a ConfigurationError
// when first used, before any upstream call.
func NewContainer(ctx context.Context, cfg *config.Config, opts ...Option) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("configuration cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	logger := o.logger
	if logger == nil {
		logger = logging.NewLogrusAdapter(cfg.Log.Level, cfg.Log.Format)
	}

	catalogStore := o.catalogStore
	if catalogStore == nil {
		catalogStore = store.NewCatalogStore(cfg.Catalog.File, logger)
	}

	provider := o.provider
	var providerErr error
	if provider == nil {
		p, err := llm.NewFromConfig(ctx, cfg, logger)
		switch {
		case err == nil:
			provider = p
		case ledgererror.KindOf(err) == ledgererror.KindConfiguration:
			providerErr = err
			logger.Warn("Completion provider not configured", logging.F(logging.FieldError, err.Error()))
		default:
			return nil, fmt.Errorf("failed to create provider: %w", err)
		}
	}

	gate := confidence.NewGate(cfg.Gate.MinConfidence, cfg.Gate.SuggestionConfidence)
	processor := pipeline.NewProcessor(provider, gate, logger, pipeline.WithProviderError(providerErr))

	var rates *forex.Service
	fetcher := o.fetcher
	if fetcher == nil {
		f, err := forex.NewHTTPFetcher(cfg.Forex.Endpoint, cfg.Forex.APIKey, nil)
		if err != nil {
			logger.Debug("Exchange rates not configured", logging.F(logging.FieldError, err.Error()))
		} else {
			fetcher = f
		}
	}
	if fetcher != nil {
		rates = forex.NewService(fetcher, cfg.Forex.Base, forex.NewTTLCache(cfg.ForexTTL(), nil), logger)
	}

	codec := csvio.NewCodec(',', logger)
	runner := batch.NewRunner(processor, batch.DefaultWorkers, logger)

	logger.Info("Container initialized successfully",
		logging.F(logging.FieldProvider, cfg.AI.Provider),
		logging.F("provider_ready", provider != nil),
		logging.F("forex_ready", rates != nil))

	return &Container{
		logger:    logger,
		config:    cfg,
		store:     catalogStore,
		provider:  provider,
		processor: processor,
		forex:     rates,
		codec:     codec,
		runner:    runner,
	}, nil
}

// GetLogger returns the container's logger instance.
func (c *Container) GetLogger() logging.Logger {
	return c.logger
}

// GetConfig returns the container's configuration instance.
func (c *Container) GetConfig() *config.Config {
	return c.config
}

// GetStore returns the catalog store.
func (c *Container) GetStore() store.CatalogLoader {
	return c.store
}

// GetProvider returns the completion provider, or nil when none is configured.
func (c *Container) GetProvider() llm.Provider {
	return c.provider
}

// GetProcessor returns the request processor.
func (c *Container) GetProcessor() *pipeline.Processor {
	return c.processor
}

// GetForex returns the exchange-rate service, or nil when no key is configured.
func (c *Container) GetForex() *forex.Service {
	return c.forex
}

// GetCodec returns the CSV codec.
func (c *Container) GetCodec() *csvio.Codec {
	return c.codec
}

// GetBatchRunner returns the batch runner.
func (c *Container) GetBatchRunner() *batch.Runner {
	return c.runner
}

// Close releases the provider's connection if it holds one.
func (c *Container) Close() error {
	if err := llm.Close(c.provider); err != nil {
		return err
	}
	c.logger.Debug("Container closed")
	return nil
}
