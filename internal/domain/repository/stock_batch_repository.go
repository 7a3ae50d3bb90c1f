package repository

import (
	"context"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// StockBatchRepository define el puerto para los lotes de un producto.
// Los listados se devuelven en orden FIFO (received_at, seq).
type StockBatchRepository interface {
	Create(ctx context.Context, batch *entity.StockBatch) error
	ListByProduct(ctx context.Context, productID string) ([]*entity.StockBatch, error)
	// ListByProductForUpdate bloquea el conjunto de lotes del producto (SELECT FOR UPDATE).
	ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.StockBatch, error)
	UpdateRemaining(ctx context.Context, batch *entity.StockBatch) error
	ListProductIDs(ctx context.Context) ([]string, error)
}
