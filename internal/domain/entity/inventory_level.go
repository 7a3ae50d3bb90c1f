package entity

import "github.com/shopspring/decimal"

// InventoryLevel resume el stock de un producto derivado de sus lotes.
// Se calcula, no se persiste: los lotes son la única fuente de verdad.
type InventoryLevel struct {
	ProductID      string
	Batches        int
	TotalInitial   int
	TotalRemaining int
	TotalDeducted  int             // TotalInitial - TotalRemaining
	AverageCost    decimal.Decimal // promedio ponderado sobre lo remanente
	StockValue     decimal.Decimal
}
