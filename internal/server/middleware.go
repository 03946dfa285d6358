package server

import (
	"strings"
	"time"

	"fjacquet/voice-ledger/internal/logging"
	"fjacquet/voice-ledger/internal/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// HeaderRequestID carries the request id in both directions.
const HeaderRequestID = "X-Request-Id"

const localsLogger = "logger"

// withRequestID reuses the caller's request id or generates one, and stores it
// in the user context for the pipeline's log fields.
func withRequestID() fiber.Handler {
	return func(c *fiber.Ctx) error {
		id := strings.Clone(c.Get(HeaderRequestID))
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(HeaderRequestID, id)
		c.SetUserContext(pipeline.WithRequestID(c.UserContext(), id))
		return c.Next()
	}
}

// withLogging writes one access log line per request.
func withLogging(logger logging.Logger) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if c.Path() == PathHealth {
			return c.Next()
		}

		start := time.Now()
		reqLog := logger
		if id, ok := pipeline.RequestID(c.UserContext()); ok {
			reqLog = logger.WithField(logging.FieldRequestID, id)
		}
		c.Locals(localsLogger, reqLog)

		err := c.Next()

		reqLog.Info("Request handled",
			logging.F("method", strings.Clone(c.Method())),
			logging.F("path", strings.Clone(c.Path())),
			logging.F(logging.FieldStatus, c.Response().StatusCode()),
			logging.F(logging.FieldDuration, time.Since(start).Milliseconds()))
		return err
	}
}

func (s *Server) requestLogger(c *fiber.Ctx) logging.Logger {
	if l, ok := c.Locals(localsLogger).(logging.Logger); ok {
		return l
	}
	return s.log
}
