package inventory

import (
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// WeightedAverageCost calcula el costo promedio ponderado del stock remanente (servicio de dominio).
// Costo = Σ(remanente_i * costo_i) / Σ(remanente_i)
func WeightedAverageCost(batches []*entity.StockBatch) decimal.Decimal {
	units := 0
	value := decimal.Zero
	for _, b := range batches {
		if b.QuantityRemaining <= 0 {
			continue
		}
		units += b.QuantityRemaining
		value = value.Add(b.CostPerItem.Mul(decimal.NewFromInt(int64(b.QuantityRemaining))))
	}
	if units == 0 {
		return decimal.Zero
	}
	return value.Div(decimal.NewFromInt(int64(units)))
}

// Level arma el resumen agregado de un producto a partir de sus lotes.
func Level(productID string, batches []*entity.StockBatch) entity.InventoryLevel {
	lvl := entity.InventoryLevel{ProductID: productID, Batches: len(batches), StockValue: decimal.Zero}
	for _, b := range batches {
		lvl.TotalInitial += b.QuantityInitial
		lvl.TotalRemaining += b.QuantityRemaining
		lvl.StockValue = lvl.StockValue.Add(b.CostPerItem.Mul(decimal.NewFromInt(int64(b.QuantityRemaining))))
	}
	lvl.TotalDeducted = lvl.TotalInitial - lvl.TotalRemaining
	lvl.AverageCost = WeightedAverageCost(batches)
	return lvl
}
