package domain

import (
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Errores de dominio (sin dependencias de infraestructura).
var (
	ErrNotFound     = errors.New("recurso no encontrado")
	ErrInvalidInput = errors.New("entrada inválida")
	ErrDuplicate    = errors.New("recurso duplicado")
	ErrForbidden    = errors.New("acceso denegado")

	// Taxonomía del motor de cuotas, lotes y crédito.
	ErrNoAllocationRecord = errors.New("la unidad no tiene asignación para este producto en el periodo")
	ErrQuotaExceeded      = errors.New("cuota del periodo excedida")
	ErrInsufficientStock  = errors.New("stock insuficiente")
	ErrInsufficientCredit = errors.New("crédito insuficiente")
	ErrInvalidTransition  = errors.New("transición de estado no permitida")
	ErrConcurrentConflict = errors.New("conflicto de concurrencia, reintente")

	// Errores de lógica: una reversión que no corresponde a una deducción previa.
	ErrLedgerUnderflow = errors.New("la restauración deja el consumo por debajo de cero")
	ErrStockOverflow   = errors.New("la restauración supera la cantidad inicial de los lotes")
	ErrCreditOverflow  = errors.New("la restauración supera el límite de crédito")
)

// QuotaExceededError detalla por qué Consume o CheckAllowance rechazó la cantidad.
type QuotaExceededError struct {
	UnitID    string
	ProductID string
	Cap       int
	Consumed  int
	Requested int
	Remaining int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("cuota excedida para %s/%s: asignación %d, consumido %d, solicitado %d, restante %d",
		e.UnitID, e.ProductID, e.Cap, e.Consumed, e.Requested, e.Remaining)
}

func (e *QuotaExceededError) Unwrap() error { return ErrQuotaExceeded }

// InsufficientStockError reporta el faltante explícito de una deducción FIFO.
type InsufficientStockError struct {
	ProductID string
	Requested int
	Available int
	Shortfall int
}

func (e *InsufficientStockError) Error() string {
	return fmt.Sprintf("stock insuficiente para %s: solicitado %d, disponible %d, faltante %d",
		e.ProductID, e.Requested, e.Available, e.Shortfall)
}

func (e *InsufficientStockError) Unwrap() error { return ErrInsufficientStock }

// InsufficientCreditError reporta el saldo disponible al rechazar un débito.
type InsufficientCreditError struct {
	Category  string
	Requested decimal.Decimal
	Available decimal.Decimal
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("crédito insuficiente en %s: solicitado %s, disponible %s",
		e.Category, e.Requested.StringFixed(2), e.Available.StringFixed(2))
}

func (e *InsufficientCreditError) Unwrap() error { return ErrInsufficientCredit }

// InvalidTransitionError identifica el par de estados rechazado.
type InvalidTransitionError struct {
	RequestID string
	From      string
	To        string
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("solicitud %s: transición %s -> %s no permitida", e.RequestID, e.From, e.To)
}

func (e *InvalidTransitionError) Unwrap() error { return ErrInvalidTransition }

// IsRetryable indica si el llamador puede reintentar la operación tal cual.
// Solo los conflictos de bloqueo lo son; el resto es terminal para ese intento.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrConcurrentConflict)
}
