package credit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// ReasonInsufficientCredit es el motivo de un débito rechazado.
const ReasonInsufficientCredit = "INSUFFICIENT_CREDIT"

// DecrementResult es el resultado de AtomicDecrement.
type DecrementResult struct {
	OK         bool            `json:"ok"`
	NewBalance decimal.Decimal `json:"new_balance"`
	Reason     string          `json:"reason,omitempty"`
}

// Pool administra los saldos compartidos por categoría. Verificar y debitar ocurren en la
// misma sección crítica (fila bloqueada): dos débitos concurrentes nunca ven el mismo saldo.
type Pool struct {
	tx    ports.TxRunner
	clock ports.Clock
	log   zerolog.Logger
}

// NewPool construye el pool de crédito.
func NewPool(tx ports.TxRunner, clock ports.Clock, log zerolog.Logger) *Pool {
	return &Pool{tx: tx, clock: clock, log: log.With().Str("component", "credit").Logger()}
}

// AtomicDecrement debita amount de la categoría en su propia transacción.
// Saldo insuficiente devuelve OK=false junto con *domain.InsufficientCreditError, sin mutar.
func (p *Pool) AtomicDecrement(ctx context.Context, category string, amount decimal.Decimal) (DecrementResult, error) {
	var balance decimal.Decimal
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		balance, err = p.DecrementInTx(ctx, repos, category, amount, uuid.New().String(), "")
		return err
	})
	if err != nil {
		var insufficient *domain.InsufficientCreditError
		if errors.As(err, &insufficient) {
			return DecrementResult{OK: false, NewBalance: insufficient.Available, Reason: ReasonInsufficientCredit}, err
		}
		return DecrementResult{}, err
	}
	return DecrementResult{OK: true, NewBalance: balance}, nil
}

// DecrementInTx bloquea el saldo, verifica saldo >= amount y debita, con los repositorios del llamador.
func (p *Pool) DecrementInTx(
	ctx context.Context,
	repos repository.Repos,
	category string,
	amount decimal.Decimal,
	transactionID, userID string,
) (decimal.Decimal, error) {
	category = normalize(category)
	if category == "" || !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidInput
	}
	bal, err := repos.Credits.GetForUpdate(ctx, category)
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, fmt.Errorf("categoría de crédito %s: %w", category, domain.ErrNotFound)
	}
	if bal.CurrentBalance.LessThan(amount) {
		return decimal.Zero, &domain.InsufficientCreditError{
			Category:  category,
			Requested: amount,
			Available: bal.CurrentBalance,
		}
	}
	bal.CurrentBalance = bal.CurrentBalance.Sub(amount)
	bal.UpdatedAt = p.clock.Now()
	if err := repos.Credits.Upsert(ctx, bal); err != nil {
		return decimal.Zero, err
	}
	if err := repos.Movements.Create(ctx, &entity.Movement{
		TransactionID: transactionID,
		Type:          entity.MovementCreditDebit,
		Category:      category,
		Amount:        amount.Neg(),
		CreatedAt:     bal.UpdatedAt,
		CreatedBy:     userID,
	}); err != nil {
		return decimal.Zero, err
	}
	return bal.CurrentBalance, nil
}

// Restore devuelve amount a la categoría en su propia transacción.
func (p *Pool) Restore(ctx context.Context, category string, amount decimal.Decimal) (decimal.Decimal, error) {
	var balance decimal.Decimal
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		balance, err = p.RestoreInTx(ctx, repos, category, amount, uuid.New().String(), "")
		return err
	})
	return balance, err
}

// RestoreInTx acredita amount. Superar el límite es domain.ErrCreditOverflow, nunca se recorta.
func (p *Pool) RestoreInTx(
	ctx context.Context,
	repos repository.Repos,
	category string,
	amount decimal.Decimal,
	transactionID, userID string,
) (decimal.Decimal, error) {
	category = normalize(category)
	if category == "" || !amount.IsPositive() {
		return decimal.Zero, domain.ErrInvalidInput
	}
	bal, err := repos.Credits.GetForUpdate(ctx, category)
	if err != nil {
		return decimal.Zero, err
	}
	if bal == nil {
		return decimal.Zero, fmt.Errorf("categoría de crédito %s: %w", category, domain.ErrNotFound)
	}
	next := bal.CurrentBalance.Add(amount)
	if next.GreaterThan(bal.Limit) {
		p.log.Error().
			Str("category", category).
			Str("balance", bal.CurrentBalance.StringFixed(2)).
			Str("restore", amount.StringFixed(2)).
			Str("limit", bal.Limit.StringFixed(2)).
			Msg("restauración de crédito supera el límite")
		return decimal.Zero, fmt.Errorf("categoría %s: saldo %s + %s > límite %s: %w",
			category, bal.CurrentBalance.StringFixed(2), amount.StringFixed(2), bal.Limit.StringFixed(2), domain.ErrCreditOverflow)
	}
	bal.CurrentBalance = next
	bal.UpdatedAt = p.clock.Now()
	if err := repos.Credits.Upsert(ctx, bal); err != nil {
		return decimal.Zero, err
	}
	if err := repos.Movements.Create(ctx, &entity.Movement{
		TransactionID: transactionID,
		Type:          entity.MovementCreditRestore,
		Category:      category,
		Amount:        amount,
		CreatedAt:     bal.UpdatedAt,
		CreatedBy:     userID,
	}); err != nil {
		return decimal.Zero, err
	}
	return bal.CurrentBalance, nil
}

// ProvisionCategory fija el límite de la categoría. El saldo se ajusta por la diferencia de
// límites; un nuevo límite menor que lo ya usado es entrada inválida.
func (p *Pool) ProvisionCategory(ctx context.Context, category string, limit decimal.Decimal) (*entity.CreditBalance, error) {
	category = normalize(category)
	if category == "" || limit.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	var out *entity.CreditBalance
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		bal, err := repos.Credits.GetForUpdate(ctx, category)
		if err != nil {
			return err
		}
		if bal == nil {
			bal = &entity.CreditBalance{Category: category, Limit: decimal.Zero, CurrentBalance: decimal.Zero}
		}
		used := bal.Limit.Sub(bal.CurrentBalance)
		if limit.LessThan(used) {
			return fmt.Errorf("categoría %s: límite %s menor que lo usado %s: %w",
				category, limit.StringFixed(2), used.StringFixed(2), domain.ErrInvalidInput)
		}
		bal.CurrentBalance = limit.Sub(used)
		bal.Limit = limit
		bal.UpdatedAt = p.clock.Now()
		out = bal
		return repos.Credits.Upsert(ctx, bal)
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Str("category", category).
		Str("limit", out.Limit.StringFixed(2)).
		Str("balance", out.CurrentBalance.StringFixed(2)).
		Msg("límite de crédito actualizado")
	return out, nil
}

// Balances lista los saldos de todas las categorías.
func (p *Pool) Balances(ctx context.Context) ([]*entity.CreditBalance, error) {
	var out []*entity.CreditBalance
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		out, err = repos.Credits.List(ctx)
		return err
	})
	return out, err
}

func normalize(category string) string {
	return strings.ToUpper(strings.TrimSpace(category))
}
