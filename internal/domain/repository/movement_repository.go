package repository

import (
	"context"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// MovementRepository define el puerto del libro de movimientos (solo agregar).
type MovementRepository interface {
	Create(ctx context.Context, movement *entity.Movement) error
	ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Movement, error)
	ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error)
}
