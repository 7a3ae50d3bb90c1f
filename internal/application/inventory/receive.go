package inventory

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// ReceiveInput entrada para registrar la recepción de un lote.
// ReceivedAt vacío usa la hora actual; el lote nace con remanente = inicial.
type ReceiveInput struct {
	ProductID    string          `json:"product_id"`
	BatchNumber  string          `json:"batch_number"`
	SupplierName string          `json:"supplier_name"`
	Quantity     int             `json:"quantity"`
	CostPerItem  decimal.Decimal `json:"cost_per_item"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
	UserID       string          `json:"-"`
}

// Receive registra un lote nuevo y su movimiento STOCK_IN en una transacción.
func (p *BatchPool) Receive(ctx context.Context, in ReceiveInput) (*entity.StockBatch, error) {
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.ProductID == "" || in.Quantity <= 0 || in.CostPerItem.LessThan(decimal.Zero) {
		return nil, domain.ErrInvalidInput
	}
	now := p.clock.Now()
	receivedAt := now
	if in.ReceivedAt != nil {
		receivedAt = *in.ReceivedAt
	}
	batch := &entity.StockBatch{
		ID:                uuid.New().String(),
		ProductID:         in.ProductID,
		BatchNumber:       strings.TrimSpace(in.BatchNumber),
		SupplierName:      strings.TrimSpace(in.SupplierName),
		QuantityInitial:   in.Quantity,
		QuantityRemaining: in.Quantity,
		CostPerItem:       in.CostPerItem,
		ReceivedAt:        receivedAt,
		CreatedAt:         now,
		UpdatedAt:         now,
	}
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		// Bloquea el conjunto de lotes para no intercalar con una salida en curso.
		if _, err := repos.Batches.ListByProductForUpdate(ctx, in.ProductID); err != nil {
			return err
		}
		if err := repos.Batches.Create(ctx, batch); err != nil {
			return err
		}
		return repos.Movements.Create(ctx, &entity.Movement{
			TransactionID: batch.ID,
			Type:          entity.MovementStockIn,
			ProductID:     in.ProductID,
			BatchID:       batch.ID,
			Quantity:      in.Quantity,
			Amount:        in.CostPerItem.Mul(decimal.NewFromInt(int64(in.Quantity))),
			CreatedAt:     now,
			CreatedBy:     in.UserID,
		})
	})
	if err != nil {
		return nil, err
	}
	p.log.Info().
		Str("product_id", batch.ProductID).
		Str("batch_id", batch.ID).
		Int("quantity", batch.QuantityInitial).
		Msg("lote recibido")
	return batch, nil
}
