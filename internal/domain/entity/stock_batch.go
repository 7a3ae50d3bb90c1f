package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// StockBatch es una recepción física de un producto. El orden (ReceivedAt, Seq) es el orden
// FIFO de agotamiento y no cambia tras la creación.
// Invariante: 0 <= QuantityRemaining <= QuantityInitial.
type StockBatch struct {
	ID                string
	ProductID         string
	BatchNumber       string
	SupplierName      string
	QuantityInitial   int
	QuantityRemaining int
	CostPerItem       decimal.Decimal
	ReceivedAt        time.Time
	Seq               int64 // desempate estable asignado al persistir
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Headroom es cuánto se puede devolver al lote sin superar la cantidad inicial.
func (b *StockBatch) Headroom() int { return b.QuantityInitial - b.QuantityRemaining }

// Before indica si b se agota antes que other en orden FIFO.
func (b *StockBatch) Before(other *StockBatch) bool {
	if !b.ReceivedAt.Equal(other.ReceivedAt) {
		return b.ReceivedAt.Before(other.ReceivedAt)
	}
	return b.Seq < other.Seq
}
