package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/dto"
	"github.com/jhoicas/Suministros-api/internal/domain"
)

// writeError traduce errores de dominio a HTTP. Los conflictos de concurrencia son 503 con
// Retry-After para que el cliente reintente; el resto de rechazos de negocio son 409.
func writeError(c *fiber.Ctx, err error) error {
	status, code := fiber.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrConcurrentConflict):
		c.Set(fiber.HeaderRetryAfter, "1")
		status, code = fiber.StatusServiceUnavailable, "CONCURRENT_CONFLICT"
	case errors.Is(err, domain.ErrInvalidInput):
		status, code = fiber.StatusBadRequest, "VALIDATION"
	case errors.Is(err, domain.ErrForbidden):
		status, code = fiber.StatusForbidden, "FORBIDDEN"
	case errors.Is(err, domain.ErrNotFound):
		status, code = fiber.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrNoAllocationRecord):
		status, code = fiber.StatusConflict, "NO_ALLOCATION_RECORD"
	case errors.Is(err, domain.ErrQuotaExceeded):
		status, code = fiber.StatusConflict, "QUOTA_EXCEEDED"
	case errors.Is(err, domain.ErrInsufficientStock):
		status, code = fiber.StatusConflict, "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrInsufficientCredit):
		status, code = fiber.StatusConflict, "INSUFFICIENT_CREDIT"
	case errors.Is(err, domain.ErrInvalidTransition):
		status, code = fiber.StatusConflict, "INVALID_TRANSITION"
	case errors.Is(err, domain.ErrDuplicate):
		status, code = fiber.StatusConflict, "DUPLICATE"
	case errors.Is(err, domain.ErrLedgerUnderflow),
		errors.Is(err, domain.ErrStockOverflow),
		errors.Is(err, domain.ErrCreditOverflow):
		status, code = fiber.StatusConflict, "LEDGER_INCONSISTENT"
	}
	return c.Status(status).JSON(dto.ErrorResponse{Code: code, Message: err.Error()})
}

func badBody(c *fiber.Ctx) error {
	return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_BODY", Message: "cuerpo inválido"})
}
