package serverutils

import (
	"errors"

	"takahub-be/internal/pkg/apperrors"

	"github.com/gofiber/fiber/v2"
)

// ErrorHandlerMiddleware converts typed application errors bubbling out of
// handlers into the HTTP codes the mobile client expects. Validation and auth
// failures never carry partial state, so a plain 4xx body is enough; provider
// failures map to 502 because the upstream gateway, not this service, refused.
func ErrorHandlerMiddleware() fiber.Handler {
	return func(ctx *fiber.Ctx) error {
		err := ctx.Next()
		if err == nil {
			return nil
		}

		var validationErr *apperrors.ValidationError
		var authErr *apperrors.AuthenticationError
		var notFoundErr *apperrors.NotFoundError
		var providerErr *apperrors.ProviderError
		var persistenceErr *apperrors.PersistenceError

		switch {
		case errors.As(err, &validationErr):
			return ctx.Status(fiber.StatusBadRequest).JSON(ErrorResponse(fiber.StatusBadRequest, validationErr.Reason))
		case errors.As(err, &authErr):
			return ctx.Status(fiber.StatusUnauthorized).JSON(ErrorResponse(fiber.StatusUnauthorized, authErr.Reason))
		case errors.As(err, &notFoundErr):
			return ctx.Status(fiber.StatusNotFound).JSON(ErrorResponse(fiber.StatusNotFound, notFoundErr.Error()))
		case errors.As(err, &providerErr):
			return ctx.Status(fiber.StatusBadGateway).JSON(ErrorResponse(fiber.StatusBadGateway, "payment could not be started, try again"))
		case errors.As(err, &persistenceErr):
			return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, "internal error"))
		}

		var fiberErr *fiber.Error
		if errors.As(err, &fiberErr) {
			return ctx.Status(fiberErr.Code).JSON(ErrorResponse(fiberErr.Code, fiberErr.Message))
		}

		return ctx.Status(fiber.StatusInternalServerError).JSON(ErrorResponse(fiber.StatusInternalServerError, err.Error()))
	}
}
