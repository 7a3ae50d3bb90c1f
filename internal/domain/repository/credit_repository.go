package repository

import (
	"context"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// CreditRepository define el puerto de persistencia de saldos de crédito.
type CreditRepository interface {
	Get(ctx context.Context, category string) (*entity.CreditBalance, error)
	// GetForUpdate bloquea el saldo de la categoría (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, category string) (*entity.CreditBalance, error)
	Upsert(ctx context.Context, balance *entity.CreditBalance) error
	List(ctx context.Context) ([]*entity.CreditBalance, error)
}
