package fulfillment

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Suministros-api/internal/application/allocation"
	"github.com/jhoicas/Suministros-api/internal/application/credit"
	"github.com/jhoicas/Suministros-api/internal/application/inventory"
	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// TransitionResult es el estado de la solicitud tras una transición aplicada.
type TransitionResult struct {
	RequestID string        `json:"request_id"`
	From      entity.Status `json:"from"`
	NewState  entity.Status `json:"new_state"`
}

// StateMachine aplica las transiciones del ciclo de vida y sus efectos en los libros
// (cuota, lotes, crédito) dentro de una sola transacción.
type StateMachine struct {
	tx      ports.TxRunner
	clock   ports.Clock
	ledger  *allocation.Ledger
	stock   *inventory.BatchPool
	credits *credit.Pool
	log     zerolog.Logger
}

// NewStateMachine construye la máquina de estados.
func NewStateMachine(
	tx ports.TxRunner,
	clock ports.Clock,
	ledger *allocation.Ledger,
	stock *inventory.BatchPool,
	credits *credit.Pool,
	log zerolog.Logger,
) *StateMachine {
	return &StateMachine{
		tx:      tx,
		clock:   clock,
		ledger:  ledger,
		stock:   stock,
		credits: credits,
		log:     log.With().Str("component", "fulfillment").Logger(),
	}
}

// Transition lleva la solicitud al estado target. Orden de bloqueo: solicitud, luego por
// producto ascendente plan y lotes, luego categoría de crédito. Si un efecto falla nada se
// escribe y la solicitud conserva su estado.
func (m *StateMachine) Transition(ctx context.Context, requestID string, target entity.Status, actor entity.Actor) (TransitionResult, error) {
	return m.transition(ctx, requestID, target, "", actor)
}

// Return devuelve la solicitud (RETURNED) y guarda remarks como motivo si no está vacío.
func (m *StateMachine) Return(ctx context.Context, requestID, remarks string, actor entity.Actor) (TransitionResult, error) {
	return m.transition(ctx, requestID, entity.StatusReturned, strings.TrimSpace(remarks), actor)
}

func (m *StateMachine) transition(ctx context.Context, requestID string, target entity.Status, remarks string, actor entity.Actor) (TransitionResult, error) {
	if strings.TrimSpace(requestID) == "" || target == "" {
		return TransitionResult{}, domain.ErrInvalidInput
	}
	var res TransitionResult
	err := m.tx.Run(ctx, func(repos repository.Repos) error {
		req, err := repos.Requests.GetForUpdate(ctx, requestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("solicitud %s: %w", requestID, domain.ErrNotFound)
		}
		rule, ok := fulfillment.Lookup(req.Kind, req.Status, target)
		if !ok {
			return &domain.InvalidTransitionError{RequestID: req.ID, From: string(req.Status), To: string(target)}
		}
		if rule.Privileged && !actor.Privileged {
			return domain.ErrForbidden
		}
		if !rule.Privileged && actor.UserID != req.RequestedBy && !actor.Privileged {
			return domain.ErrForbidden
		}
		// Emitir contra crédito requiere monto y referencia: solo vía IssueAgainstCredit.
		if req.Kind == entity.KindCredit && rule.Effect == fulfillment.EffectCommit {
			return &domain.InvalidTransitionError{RequestID: req.ID, From: string(req.Status), To: string(target)}
		}

		switch rule.Effect {
		case fulfillment.EffectCommit:
			if err := m.commitGoods(ctx, repos, req, actor); err != nil {
				return err
			}
		case fulfillment.EffectReverse:
			if err := m.reverse(ctx, repos, req, actor); err != nil {
				return err
			}
		}

		now := m.clock.Now()
		res = TransitionResult{RequestID: req.ID, From: req.Status, NewState: target}
		stamp(req, target, now)
		if remarks != "" {
			req.Remarks = remarks
		}
		req.Status = target
		req.UpdatedAt = now
		return repos.Requests.Update(ctx, req)
	})
	if err != nil {
		m.log.Warn().
			Err(err).
			Str("request_id", requestID).
			Str("target", string(target)).
			Str("actor", actor.UserID).
			Msg("transición rechazada")
		return TransitionResult{}, err
	}
	m.log.Info().
		Str("request_id", res.RequestID).
		Str("from", string(res.From)).
		Str("to", string(res.NewState)).
		Str("actor", actor.UserID).
		Msg("transición aplicada")
	return res, nil
}

// commitGoods consume cuota y descuenta lotes de cada línea, todo o nada.
func (m *StateMachine) commitGoods(ctx context.Context, repos repository.Repos, req *entity.FulfillmentRequest, actor entity.Actor) error {
	for _, line := range sortedLines(req.Lines) {
		if err := m.ledger.ConsumeInTx(ctx, repos, req.UnitID, line.ProductID, req.Period, line.Quantity, req.ID, actor.UserID); err != nil {
			return err
		}
		if _, err := m.stock.DeductInTx(ctx, repos, line.ProductID, line.Quantity, inventory.RejectShortfall, req.ID, actor.UserID); err != nil {
			return err
		}
	}
	return nil
}

// reverse deshace lo comprometido: para bienes repone lotes y luego cuota; para crédito
// devuelve el monto debitado.
func (m *StateMachine) reverse(ctx context.Context, repos repository.Repos, req *entity.FulfillmentRequest, actor entity.Actor) error {
	if req.Kind == entity.KindCredit {
		if !req.CreditDeducted {
			return nil
		}
		if _, err := m.credits.RestoreInTx(ctx, repos, req.CreditCategory, req.Amount, req.ID, actor.UserID); err != nil {
			return err
		}
		req.CreditDeducted = false
		return nil
	}
	for _, line := range sortedLines(req.Lines) {
		// Se toma el plan antes que los lotes aunque se reponga primero el stock.
		if _, err := repos.Allocations.GetForUpdate(ctx, req.UnitID, line.ProductID, req.Period.Year); err != nil {
			return err
		}
		if err := m.stock.RestoreInTx(ctx, repos, line.ProductID, line.Quantity, req.ID, actor.UserID); err != nil {
			return err
		}
		if err := m.ledger.RestoreInTx(ctx, repos, req.UnitID, line.ProductID, req.Period, line.Quantity, req.ID, actor.UserID); err != nil {
			return err
		}
	}
	return nil
}

func stamp(req *entity.FulfillmentRequest, target entity.Status, now time.Time) {
	t := now
	switch target {
	case entity.StatusPending:
		if req.Status == entity.StatusDraft {
			req.FinalizedAt = &t
		} else {
			req.ApprovedAt = nil
		}
	case entity.StatusApproved:
		req.ApprovedAt = &t
	case entity.StatusDelivered, entity.StatusSettled:
		req.CompletedAt = &t
	case entity.StatusReturned:
		req.ReturnedAt = &t
	}
}

// sortedLines devuelve las líneas ordenadas por producto: fija el orden global de bloqueo.
func sortedLines(lines []entity.RequestLine) []entity.RequestLine {
	out := make([]entity.RequestLine, len(lines))
	copy(out, lines)
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out
}
