package allocation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// Reason explica el resultado de una verificación de asignación.
type Reason string

const (
	ReasonOK                 Reason = "OK"
	ReasonNoAllocationRecord Reason = "NO_ALLOCATION_RECORD"
	ReasonQuotaExceeded      Reason = "QUOTA_EXCEEDED"
	ReasonUnitNotAssigned    Reason = "UNIT_NOT_ASSIGNED"
)

// AllowanceResult es la respuesta de CheckAllowance; Message se muestra tal cual al usuario.
type AllowanceResult struct {
	Allowed   bool   `json:"allowed"`
	Remaining int    `json:"remaining"`
	Cap       int    `json:"cap"`
	Consumed  int    `json:"consumed"`
	InFlight  int    `json:"in_flight"`
	Reason    Reason `json:"reason"`
	Message   string `json:"message,omitempty"`
}

// Ledger lleva la cuota por (unidad, producto, periodo). Cada mutación corre en una
// transacción con la fila del plan bloqueada: leer, validar y escribir ocurren bajo el mismo lock.
type Ledger struct {
	tx    ports.TxRunner
	clock ports.Clock
	log   zerolog.Logger
}

// NewLedger construye el libro de asignaciones.
func NewLedger(tx ports.TxRunner, clock ports.Clock, log zerolog.Logger) *Ledger {
	return &Ledger{tx: tx, clock: clock, log: log.With().Str("component", "allocation").Logger()}
}

// CheckAllowance evalúa consumido + en_vuelo + solicitado <= asignación del mes, sin mutar nada.
func (l *Ledger) CheckAllowance(ctx context.Context, unitID, productID string, period entity.Period, requested, inFlight int) (AllowanceResult, error) {
	if strings.TrimSpace(unitID) == "" {
		return AllowanceResult{Reason: ReasonUnitNotAssigned, Message: "Unidad no asignada."}, nil
	}
	if productID == "" || !period.Valid() || requested < 0 || inFlight < 0 {
		return AllowanceResult{}, domain.ErrInvalidInput
	}
	var result AllowanceResult
	err := l.tx.Run(ctx, func(repos repository.Repos) error {
		plan, err := repos.Allocations.Get(ctx, unitID, productID, period.Year)
		if err != nil {
			return err
		}
		result = Evaluate(plan, period, requested, inFlight)
		return nil
	})
	if err != nil {
		return AllowanceResult{}, err
	}
	return result, nil
}

// Evaluate aplica la regla de asignación sobre un plan ya leído (nil = sin plan).
func Evaluate(plan *entity.AllocationPlan, period entity.Period, requested, inFlight int) AllowanceResult {
	if plan == nil {
		return AllowanceResult{
			Reason:  ReasonNoAllocationRecord,
			Message: "Restringido: su unidad no tiene registro de asignación para este producto este año.",
		}
	}
	limit := plan.CapFor(period.Month)
	consumed := plan.ConsumedIn(period.Month)
	attempted := consumed + inFlight + requested
	res := AllowanceResult{Cap: limit, Consumed: consumed, InFlight: inFlight}
	if attempted > limit {
		res.Reason = ReasonQuotaExceeded
		res.Remaining = max(0, limit-(consumed+inFlight))
		res.Message = fmt.Sprintf("¡Límite mensual alcanzado (%s)! Asignación: %d. Consumido+Carrito: %d. Restante: %d.",
			monthName(period.Month), limit, consumed+inFlight, res.Remaining)
		return res
	}
	res.Allowed = true
	res.Reason = ReasonOK
	res.Remaining = limit - attempted
	return res
}

// Consume incrementa el consumo comprometido en su propia transacción.
func (l *Ledger) Consume(ctx context.Context, unitID, productID string, period entity.Period, qty int) error {
	return l.tx.Run(ctx, func(repos repository.Repos) error {
		return l.ConsumeInTx(ctx, repos, unitID, productID, period, qty, uuid.New().String(), "")
	})
}

// ConsumeInTx bloquea el plan, revalida la regla y registra el consumo usando los
// repositorios del llamador (misma transacción). Si la suma excede la asignación devuelve
// *domain.QuotaExceededError y no escribe nada.
func (l *Ledger) ConsumeInTx(ctx context.Context, repos repository.Repos, unitID, productID string, period entity.Period, qty int, transactionID, userID string) error {
	if qty <= 0 || !period.Valid() {
		return domain.ErrInvalidInput
	}
	plan, err := repos.Allocations.GetForUpdate(ctx, unitID, productID, period.Year)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("%s/%s %d: %w", unitID, productID, period.Year, domain.ErrNoAllocationRecord)
	}
	idx := period.Index()
	limit := plan.MonthlyCaps[idx]
	consumed := plan.Consumed[idx]
	if consumed+qty > limit {
		return &domain.QuotaExceededError{
			UnitID:    unitID,
			ProductID: productID,
			Cap:       limit,
			Consumed:  consumed,
			Requested: qty,
			Remaining: max(0, limit-consumed),
		}
	}
	plan.Consumed[idx] = consumed + qty
	plan.UpdatedAt = l.clock.Now()
	if err := repos.Allocations.UpdateConsumption(ctx, plan); err != nil {
		return err
	}
	return repos.Movements.Create(ctx, &entity.Movement{
		TransactionID: transactionID,
		Type:          entity.MovementQuotaConsume,
		UnitID:        unitID,
		ProductID:     productID,
		Period:        period,
		Quantity:      -qty,
		CreatedAt:     plan.UpdatedAt,
		CreatedBy:     userID,
	})
}

// Restore decrementa el consumo comprometido en su propia transacción.
func (l *Ledger) Restore(ctx context.Context, unitID, productID string, period entity.Period, qty int) error {
	return l.tx.Run(ctx, func(repos repository.Repos) error {
		return l.RestoreInTx(ctx, repos, unitID, productID, period, qty, uuid.New().String(), "")
	})
}

// RestoreInTx revierte un consumo. Bajar de cero es un error de lógica y se reporta
// (domain.ErrLedgerUnderflow), nunca se recorta en silencio.
func (l *Ledger) RestoreInTx(ctx context.Context, repos repository.Repos, unitID, productID string, period entity.Period, qty int, transactionID, userID string) error {
	if qty <= 0 || !period.Valid() {
		return domain.ErrInvalidInput
	}
	plan, err := repos.Allocations.GetForUpdate(ctx, unitID, productID, period.Year)
	if err != nil {
		return err
	}
	if plan == nil {
		return fmt.Errorf("%s/%s %d: %w", unitID, productID, period.Year, domain.ErrNoAllocationRecord)
	}
	idx := period.Index()
	if plan.Consumed[idx] < qty {
		l.log.Error().
			Str("unit_id", unitID).
			Str("product_id", productID).
			Stringer("period", period).
			Int("consumed", plan.Consumed[idx]).
			Int("restore", qty).
			Msg("restauración de cuota por debajo de cero")
		return fmt.Errorf("%s/%s %s: consumido %d, restaurar %d: %w",
			unitID, productID, period, plan.Consumed[idx], qty, domain.ErrLedgerUnderflow)
	}
	plan.Consumed[idx] -= qty
	plan.UpdatedAt = l.clock.Now()
	if err := repos.Allocations.UpdateConsumption(ctx, plan); err != nil {
		return err
	}
	return repos.Movements.Create(ctx, &entity.Movement{
		TransactionID: transactionID,
		Type:          entity.MovementQuotaRestore,
		UnitID:        unitID,
		ProductID:     productID,
		Period:        period,
		Quantity:      qty,
		CreatedAt:     plan.UpdatedAt,
		CreatedBy:     userID,
	})
}

func monthName(m time.Month) string {
	return m.String()[:3]
}
