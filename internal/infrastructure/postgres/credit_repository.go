package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

var _ repository.CreditRepository = (*CreditRepo)(nil)

// CreditRepo implementación de CreditRepository sobre PostgreSQL (usable con pool o tx).
type CreditRepo struct {
	q Querier
}

// NewCreditRepository construye el adaptador. Pasar pool o tx (Querier).
func NewCreditRepository(q Querier) *CreditRepo {
	return &CreditRepo{q: q}
}

func (r *CreditRepo) get(ctx context.Context, query, category string) (*entity.CreditBalance, error) {
	var b entity.CreditBalance
	err := r.q.QueryRow(ctx, query, category).Scan(&b.Category, &b.Limit, &b.CurrentBalance, &b.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get credit balance", err)
	}
	return &b, nil
}

// Get obtiene el saldo de la categoría; nil si no existe.
func (r *CreditRepo) Get(ctx context.Context, category string) (*entity.CreditBalance, error) {
	return r.get(ctx, `SELECT category, credit_limit, current_balance, updated_at
		FROM credit_balances WHERE category = $1`, category)
}

// GetForUpdate obtiene el saldo y bloquea la fila (SELECT FOR UPDATE).
func (r *CreditRepo) GetForUpdate(ctx context.Context, category string) (*entity.CreditBalance, error) {
	return r.get(ctx, `SELECT category, credit_limit, current_balance, updated_at
		FROM credit_balances WHERE category = $1 FOR UPDATE`, category)
}

// Upsert inserta o actualiza límite y saldo. La tabla rechaza saldos fuera de [0, límite].
func (r *CreditRepo) Upsert(ctx context.Context, b *entity.CreditBalance) error {
	query := `
		INSERT INTO credit_balances (category, credit_limit, current_balance, updated_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (category)
		DO UPDATE SET credit_limit = EXCLUDED.credit_limit, current_balance = EXCLUDED.current_balance,
			updated_at = EXCLUDED.updated_at`
	if _, err := r.q.Exec(ctx, query, b.Category, b.Limit, b.CurrentBalance, b.UpdatedAt); err != nil {
		return wrap("upsert credit balance", err)
	}
	return nil
}

// List devuelve todas las categorías ordenadas.
func (r *CreditRepo) List(ctx context.Context) ([]*entity.CreditBalance, error) {
	rows, err := r.q.Query(ctx, `SELECT category, credit_limit, current_balance, updated_at
		FROM credit_balances ORDER BY category`)
	if err != nil {
		return nil, wrap("list credit balances", err)
	}
	defer rows.Close()
	list := make([]*entity.CreditBalance, 0)
	for rows.Next() {
		var b entity.CreditBalance
		if err := rows.Scan(&b.Category, &b.Limit, &b.CurrentBalance, &b.UpdatedAt); err != nil {
			return nil, fmt.Errorf("scan credit balance: %w", err)
		}
		list = append(list, &b)
	}
	return list, rows.Err()
}
