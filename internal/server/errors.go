package server

import (
	"errors"
	"net/http"

	"fjacquet/voice-ledger/internal/ledgererror"
	"fjacquet/voice-ledger/internal/logging"

	"github.com/gofiber/fiber/v2"
)

// ErrorResponse is the body of every failed request. InvalidID and Raw are
// only set for reference and malformed-output failures respectively.
type ErrorResponse struct {
	Error     string `json:"error"`
	Message   string `json:"message"`
	InvalidID string `json:"invalidId,omitempty"`
	Raw       string `json:"raw,omitempty"`
}

// StatusFor maps an error onto the HTTP status returned to the caller.
func StatusFor(err error) int {
	switch ledgererror.KindOf(err) {
	case ledgererror.KindInvalidRequest:
		return http.StatusBadRequest
	case ledgererror.KindConfiguration:
		return http.StatusInternalServerError
	case ledgererror.KindMalformedUpstreamOutput,
		ledgererror.KindEmptyUpstreamResponse,
		ledgererror.KindReferenceIntegrity:
		return http.StatusBadGateway
	case ledgererror.KindUpstreamProvider:
		var pe *ledgererror.ProviderError
		if errors.As(err, &pe) && pe.StatusCode == http.StatusTooManyRequests {
			return http.StatusServiceUnavailable
		}
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

// NewErrorResponse builds the body for err.
func NewErrorResponse(err error) ErrorResponse {
	resp := ErrorResponse{
		Error:   string(ledgererror.KindOf(err)),
		Message: err.Error(),
	}

	var ref *ledgererror.ReferenceIntegrityError
	if errors.As(err, &ref) {
		resp.InvalidID = ref.ID
	}
	var malformed *ledgererror.MalformedOutputError
	if errors.As(err, &malformed) {
		resp.Raw = malformed.Snippet()
	}
	if ledgererror.KindOf(err) == ledgererror.KindUnknown {
		resp.Message = "internal server error"
	}
	return resp
}

func (s *Server) writeError(c *fiber.Ctx, err error) error {
	status := StatusFor(err)
	if status >= http.StatusInternalServerError {
		s.requestLogger(c).WithError(err).Error("Request failed",
			logging.F(logging.FieldErrorKind, string(ledgererror.KindOf(err))),
			logging.F(logging.FieldStatus, status))
	}
	return c.Status(status).JSON(NewErrorResponse(err))
}

// handleFiberError renders errors fiber itself raises (unknown route, body too large).
func (s *Server) handleFiberError(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(ErrorResponse{
			Error:   http.StatusText(fe.Code),
			Message: fe.Message,
		})
	}
	return s.writeError(c, err)
}
