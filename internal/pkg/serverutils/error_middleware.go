package serverutils

import (
	"errors"

	"sponsor-advisor-be/pkg/advisor"

	"github.com/gofiber/fiber/v2"
)

// StatusFor maps an error category onto an HTTP status.
func StatusFor(err error) int {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Code
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return fiber.StatusBadRequest
	}

	te := advisor.Translate(err)
	switch {
	case errors.Is(te, advisor.ErrUnauthorized):
		return fiber.StatusUnauthorized
	case errors.Is(te, advisor.ErrInput):
		return fiber.StatusBadRequest
	case errors.Is(te, advisor.ErrNotFound):
		return fiber.StatusNotFound
	case errors.Is(te, advisor.ErrUnresolvedLocation):
		return fiber.StatusUnprocessableEntity
	case errors.Is(te, advisor.ErrRateLimited):
		return fiber.StatusTooManyRequests
	case errors.Is(te, advisor.ErrQuotaExhausted):
		return fiber.StatusPaymentRequired
	case errors.Is(te, advisor.ErrTimeout):
		return fiber.StatusGatewayTimeout
	case errors.Is(te, advisor.ErrTurnInFlight), errors.Is(te, advisor.ErrTransientIO):
		return fiber.StatusServiceUnavailable
	default:
		return fiber.StatusInternalServerError
	}
}

// messageFor never returns raw internal error text except for input problems we generated.
func messageFor(err error) string {
	var fe *fiber.Error
	if errors.As(err, &fe) {
		return fe.Message
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Error()
	}
	return advisor.UserMessage(err)
}

func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}
		status := StatusFor(err)
		return ctx.Status(status).JSON(ErrorResponse(status, messageFor(err)))
	}
}
