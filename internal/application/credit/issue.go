package credit

import (
	"context"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// IssueInput datos para emitir una reserva contra el crédito de su categoría.
// Category vacío usa la categoría registrada en la solicitud.
type IssueInput struct {
	RequestID        string          `json:"request_id"`
	Category         string          `json:"category"`
	Amount           decimal.Decimal `json:"amount"`
	BookingReference string          `json:"booking_reference"`
	Instructions     string          `json:"instructions"`
	Actor            entity.Actor    `json:"-"`
}

// IssueResult resultado de la emisión. AlreadyIssued indica que solo se actualizaron los datos
// de la reserva porque el débito ya había ocurrido.
type IssueResult struct {
	OK            bool            `json:"ok"`
	NewBalance    decimal.Decimal `json:"new_balance"`
	AlreadyIssued bool            `json:"already_issued"`
	Status        entity.Status   `json:"status"`
}

// IssueAgainstCredit emite la reserva y debita el crédito exactamente una vez.
// Bloquea primero la solicitud y después el saldo; repetir la emisión sobre una solicitud ya
// debitada no vuelve a debitar. Monto cero emite sin tocar el saldo.
func (p *Pool) IssueAgainstCredit(ctx context.Context, in IssueInput) (IssueResult, error) {
	if strings.TrimSpace(in.RequestID) == "" || in.Amount.IsNegative() {
		return IssueResult{}, domain.ErrInvalidInput
	}
	if !in.Actor.Privileged {
		return IssueResult{}, domain.ErrForbidden
	}
	var res IssueResult
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		req, err := repos.Requests.GetForUpdate(ctx, in.RequestID)
		if err != nil {
			return err
		}
		if req == nil {
			return fmt.Errorf("solicitud %s: %w", in.RequestID, domain.ErrNotFound)
		}
		if req.Kind != entity.KindCredit {
			return fmt.Errorf("solicitud %s no es de crédito: %w", req.ID, domain.ErrInvalidInput)
		}
		now := p.clock.Now()

		if fulfillment.IsCommitted(entity.KindCredit, req.Status) {
			if ref := strings.TrimSpace(in.BookingReference); ref != "" {
				req.BookingReference = ref
			}
			if instr := strings.TrimSpace(in.Instructions); instr != "" {
				req.Instructions = instr
			}
			req.UpdatedAt = now
			if err := repos.Requests.Update(ctx, req); err != nil {
				return err
			}
			bal, err := repos.Credits.Get(ctx, req.CreditCategory)
			if err != nil {
				return err
			}
			res = IssueResult{OK: true, AlreadyIssued: true, Status: req.Status}
			if bal != nil {
				res.NewBalance = bal.CurrentBalance
			}
			return nil
		}

		if _, ok := fulfillment.Lookup(entity.KindCredit, req.Status, entity.StatusIssued); !ok {
			return &domain.InvalidTransitionError{RequestID: req.ID, From: string(req.Status), To: string(entity.StatusIssued)}
		}
		category := normalize(in.Category)
		if category == "" {
			category = normalize(req.CreditCategory)
		}
		if category == "" {
			return domain.ErrInvalidInput
		}

		if in.Amount.IsPositive() {
			balance, err := p.DecrementInTx(ctx, repos, category, in.Amount, req.ID, in.Actor.UserID)
			if err != nil {
				return err
			}
			req.CreditDeducted = true
			res.NewBalance = balance
		} else {
			bal, err := repos.Credits.Get(ctx, category)
			if err != nil {
				return err
			}
			if bal == nil {
				return fmt.Errorf("categoría de crédito %s: %w", category, domain.ErrNotFound)
			}
			res.NewBalance = bal.CurrentBalance
			p.log.Warn().Str("request_id", req.ID).Str("category", category).Msg("reserva emitida con costo cero")
		}

		req.CreditCategory = category
		req.Amount = in.Amount
		req.BookingReference = strings.TrimSpace(in.BookingReference)
		req.Instructions = strings.TrimSpace(in.Instructions)
		req.Status = entity.StatusIssued
		req.IssuedAt = &now
		req.UpdatedAt = now
		if err := repos.Requests.Update(ctx, req); err != nil {
			return err
		}
		res.OK = true
		res.Status = req.Status
		return nil
	})
	if err != nil {
		p.log.Warn().Err(err).Str("request_id", in.RequestID).Msg("emisión contra crédito rechazada")
		return IssueResult{}, err
	}
	if !res.AlreadyIssued {
		p.log.Info().
			Str("request_id", in.RequestID).
			Str("amount", in.Amount.StringFixed(2)).
			Str("balance", res.NewBalance.StringFixed(2)).
			Msg("reserva emitida contra crédito")
	}
	return res, nil
}
