// Package server exposes the voice processor and the exchange-rate cache over HTTP.
package server

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"fjacquet/voice-ledger/internal/forex"
	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
)

const (
	// PathVoice accepts one message plus its entity catalog.
	PathVoice = "/api/voice"
	// PathForex returns the cached exchange-rate table.
	PathForex = "/api/forex"
	// PathHealth reports liveness.
	PathHealth = "/healthz"

	defaultShutdownTimeout = 10 * time.Second
	defaultBodyLimit       = 1 << 20
)

// VoiceProcessor turns one request into a result.
type VoiceProcessor interface {
	Process(ctx context.Context, req models.VoiceRequest) (models.Result, error)
}

// RateSource provides the latest cached rate table.
type RateSource interface {
	Latest(ctx context.Context) (*forex.Rates, error)
}

// Options configures New. Rates may be nil when no exchange-rate key is set.
type Options struct {
	Processor     VoiceProcessor
	Rates         RateSource
	Logger        logging.Logger
	AllowedOrigin string
	// RatesMaxAge is advertised to caches on PathForex responses.
	RatesMaxAge time.Duration
}

// Server is the HTTP front end.
type Server struct {
	app         *fiber.App
	processor   VoiceProcessor
	rates       RateSource
	ratesMaxAge time.Duration
	log         logging.Logger
}

// New builds the fiber app and registers all routes.
func New(opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = logging.NewLogrusAdapter("info", "text")
	}
	origin := opts.AllowedOrigin
	if origin == "" {
		origin = "*"
	}

	s := &Server{
		processor:   opts.Processor,
		rates:       opts.Rates,
		ratesMaxAge: opts.RatesMaxAge,
		log:         logger,
	}

	s.app = fiber.New(fiber.Config{
		AppName:               "voice-ledger",
		DisableStartupMessage: true,
		BodyLimit:             defaultBodyLimit,
		ErrorHandler:          s.handleFiberError,
	})

	s.app.Use(withRequestID())
	s.app.Use(withLogging(logger))
	s.app.Use(cors.New(cors.Config{
		AllowOrigins: origin,
		AllowMethods: "POST, GET, OPTIONS",
		AllowHeaders: "Content-Type, " + HeaderRequestID,
	}))

	s.app.Post(PathVoice, s.handleVoice)
	s.app.Options(PathVoice, func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
	s.app.All(PathVoice, methodNotAllowed)

	s.app.Get(PathForex, s.handleForex)
	s.app.Get(PathHealth, s.handleHealth)

	return s
}

// App exposes the underlying fiber app, mainly for tests.
func (s *Server) App() *fiber.App {
	return s.app
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context, addr string) error {
	errCh := make(chan error, 1)
	go func() {
		errCh <- s.app.Listen(addr)
	}()

	s.log.Info("Server listening", logging.F("addr", addr))

	select {
	case err := <-errCh:
		return fmt.Errorf("server stopped: %w", err)
	case <-ctx.Done():
		s.log.Info("Shutting down server")
		if err := s.app.ShutdownWithTimeout(defaultShutdownTimeout); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return <-errCh
	}
}

func (s *Server) handleVoice(c *fiber.Ctx) error {
	body := c.Body()
	if len(strings.TrimSpace(string(body))) == 0 {
		return s.writeError(c, &ledgererror.InvalidRequestError{Field: "body", Reason: "empty"})
	}

	var req models.VoiceRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return s.writeError(c, &ledgererror.InvalidRequestError{Field: "body", Reason: err.Error()})
	}

	if s.processor == nil {
		return s.writeError(c, &ledgererror.ConfigurationError{Key: "processor", Reason: "not configured"})
	}

	result, err := s.processor.Process(c.UserContext(), req)
	if err != nil {
		return s.writeError(c, err)
	}
	return c.Status(fiber.StatusOK).JSON(result)
}

func (s *Server) handleForex(c *fiber.Ctx) error {
	if s.rates == nil {
		return s.writeError(c, &ledgererror.ConfigurationError{Key: "EXCHANGE_API_KEY", Reason: "not set"})
	}

	rates, err := s.rates.Latest(c.UserContext())
	if err != nil {
		return s.writeError(c, err)
	}

	if s.ratesMaxAge > 0 {
		c.Set(fiber.HeaderCacheControl, fmt.Sprintf("s-maxage=%d", int(s.ratesMaxAge.Seconds())))
	}
	return c.Status(fiber.StatusOK).JSON(rates)
}

func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "ok",
		"forex":  s.rates != nil,
	})
}

func methodNotAllowed(c *fiber.Ctx) error {
	c.Set(fiber.HeaderAllow, "POST, OPTIONS")
	return c.Status(fiber.StatusMethodNotAllowed).JSON(ErrorResponse{
		Error:   "MethodNotAllowed",
		Message: "Use POST method",
	})
}
