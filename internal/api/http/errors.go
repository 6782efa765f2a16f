package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/i474232898/skyplanner/internal/sites"
	"github.com/i474232898/skyplanner/internal/sky"
	"github.com/i474232898/skyplanner/internal/store"
)

// ErrorResponse is the body of every non-2xx API response.
type ErrorResponse struct {
	Error   bool   `json:"error"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// ErrorHandler is the central Fiber error handler. Domain errors are mapped
// to status codes here so handlers can simply return them.
func ErrorHandler(logger *zap.Logger) fiber.ErrorHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return func(c *fiber.Ctx, err error) error {
		status := statusFor(err)

		if status >= fiber.StatusInternalServerError {
			logger.Error("request failed",
				zap.String("method", c.Method()),
				zap.String("path", c.Path()),
				zap.String("requestId", c.GetRespHeader(fiber.HeaderXRequestID)),
				zap.Error(err),
			)
		}

		return c.Status(status).JSON(ErrorResponse{
			Error:   true,
			Code:    codeFor(status),
			Message: err.Error(),
		})
	}
}

func statusFor(err error) int {
	var fe *fiber.Error
	switch {
	case errors.As(err, &fe):
		return fe.Code
	case sky.IsValidation(err):
		return fiber.StatusBadRequest
	case errors.Is(err, store.ErrNotFound), errors.Is(err, sites.ErrUnknownSite):
		return fiber.StatusNotFound
	default:
		return fiber.StatusInternalServerError
	}
}

func codeFor(status int) string {
	switch {
	case status == fiber.StatusBadRequest:
		return "BadRequest"
	case status == fiber.StatusNotFound:
		return "NotFound"
	case status >= fiber.StatusInternalServerError:
		return "InternalError"
	default:
		return strings.ReplaceAll(http.StatusText(status), " ", "")
	}
}
