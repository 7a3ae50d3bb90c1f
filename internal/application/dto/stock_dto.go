package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// ReceiveBatchRequest body para POST /api/stock/batches.
type ReceiveBatchRequest struct {
	ProductID    string          `json:"product_id"`
	BatchNumber  string          `json:"batch_number"`
	SupplierName string          `json:"supplier_name"`
	Quantity     int             `json:"quantity"`
	CostPerItem  decimal.Decimal `json:"cost_per_item"`
	ReceivedAt   *time.Time      `json:"received_at,omitempty"`
}

// StockBatchDTO lote en respuestas.
type StockBatchDTO struct {
	ID                string          `json:"id"`
	ProductID         string          `json:"product_id"`
	BatchNumber       string          `json:"batch_number"`
	SupplierName      string          `json:"supplier_name,omitempty"`
	QuantityInitial   int             `json:"quantity_initial"`
	QuantityRemaining int             `json:"quantity_remaining"`
	CostPerItem       decimal.Decimal `json:"cost_per_item"`
	ReceivedAt        time.Time       `json:"received_at"`
}

// FromBatch convierte la entidad.
func FromBatch(b *entity.StockBatch) StockBatchDTO {
	return StockBatchDTO{
		ID:                b.ID,
		ProductID:         b.ProductID,
		BatchNumber:       b.BatchNumber,
		SupplierName:      b.SupplierName,
		QuantityInitial:   b.QuantityInitial,
		QuantityRemaining: b.QuantityRemaining,
		CostPerItem:       b.CostPerItem,
		ReceivedAt:        b.ReceivedAt,
	}
}

// InventoryLevelDTO resumen de stock de un producto.
type InventoryLevelDTO struct {
	ProductID      string          `json:"product_id"`
	TotalInitial   int             `json:"total_initial"`
	TotalRemaining int             `json:"total_remaining"`
	TotalDeducted  int             `json:"total_deducted"`
	AverageCost    decimal.Decimal `json:"average_cost"`
	StockValue     decimal.Decimal `json:"stock_value"`
}

// ProductStockResponse respuesta de GET /api/stock/:product_id.
type ProductStockResponse struct {
	Level   InventoryLevelDTO `json:"level"`
	Batches []StockBatchDTO   `json:"batches"`
}

// NewProductStockResponse arma la respuesta con los lotes en orden FIFO.
func NewProductStockResponse(level entity.InventoryLevel, batches []*entity.StockBatch) ProductStockResponse {
	out := ProductStockResponse{
		Level: InventoryLevelDTO{
			ProductID:      level.ProductID,
			TotalInitial:   level.TotalInitial,
			TotalRemaining: level.TotalRemaining,
			TotalDeducted:  level.TotalDeducted,
			AverageCost:    level.AverageCost,
			StockValue:     level.StockValue,
		},
		Batches: make([]StockBatchDTO, 0, len(batches)),
	}
	for _, b := range batches {
		out.Batches = append(out.Batches, FromBatch(b))
	}
	return out
}
