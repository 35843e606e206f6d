package httpapi

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/coast-to-coast/internal/weather"
)

// errorBody is the JSON error envelope: {"error": "...", "status": 503}.
type errorBody struct {
	Error  string `json:"error"`
	Status int    `json:"status,omitempty"`
}

// ErrorHandler is the centralized Fiber error handler. Weather errors map to
// 400 (invalid request), 502 (upstream) or 500 (anything else).
func ErrorHandler(c *fiber.Ctx, err error) error {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return c.Status(fe.Code).JSON(errorBody{Error: fe.Message})
	}

	e := weather.AsError(err)
	body := errorBody{Error: e.Message}
	code := fiber.StatusInternalServerError

	switch {
	case errors.Is(e, weather.ErrInvalidRequest):
		code = fiber.StatusBadRequest
	case errors.Is(e, weather.ErrUpstreamUnavailable):
		code = fiber.StatusBadGateway
		body.Status = e.Status
	case errors.Is(e, weather.ErrUpstreamShapeMismatch):
		code = fiber.StatusBadGateway
	default:
		// Surface the underlying failure for debuggability.
		if e.Err != nil {
			body.Error = e.Err.Error()
		}
	}

	if body.Error == "" {
		body.Error = e.Error()
	}
	return c.Status(code).JSON(body)
}
