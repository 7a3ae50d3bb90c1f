package inventory

import (
	"context"
	"sort"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain/inventory"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// ReplenishmentSuggestion es un producto en o bajo el umbral de stock bajo,
// con la cantidad sugerida para volver al stock ideal.
type ReplenishmentSuggestion struct {
	ProductID          string          `json:"product_id"`
	CurrentStock       int             `json:"current_stock"`
	Threshold          int             `json:"threshold"`
	IdealStock         int             `json:"ideal_stock"`
	SuggestedOrderQty  int             `json:"suggested_order_qty"`
	AverageCost        decimal.Decimal `json:"average_cost"`
	EstimatedOrderCost decimal.Decimal `json:"estimated_order_cost"`
	Priority           int             `json:"priority"`
}

// LowStock devuelve los productos con remanente <= umbral, del más agotado al menos agotado.
func (p *BatchPool) LowStock(ctx context.Context) ([]ReplenishmentSuggestion, error) {
	out := []ReplenishmentSuggestion{}
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		ids, err := repos.Batches.ListProductIDs(ctx)
		if err != nil {
			return err
		}
		for _, id := range ids {
			batches, err := repos.Batches.ListByProduct(ctx, id)
			if err != nil {
				return err
			}
			lvl := inventory.Level(id, batches)
			if lvl.TotalRemaining > p.lowStockThreshold {
				continue
			}
			// Stock ideal: 1.5 veces el umbral.
			ideal := decimal.NewFromInt(int64(p.lowStockThreshold)).Mul(decimal.NewFromFloat(1.5)).Ceil().IntPart()
			suggested := max(0, int(ideal)-lvl.TotalRemaining)
			// Sin remanente no hay costo promedio: usar el del último lote recibido.
			unitCost := lvl.AverageCost
			if unitCost.IsZero() && len(batches) > 0 {
				unitCost = batches[len(batches)-1].CostPerItem
			}
			out = append(out, ReplenishmentSuggestion{
				ProductID:          id,
				CurrentStock:       lvl.TotalRemaining,
				Threshold:          p.lowStockThreshold,
				IdealStock:         int(ideal),
				SuggestedOrderQty:  suggested,
				AverageCost:        unitCost,
				EstimatedOrderCost: unitCost.Mul(decimal.NewFromInt(int64(suggested))),
			})
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Ordenar: menor stock primero, luego ID para un orden estable.
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CurrentStock != out[j].CurrentStock {
			return out[i].CurrentStock < out[j].CurrentStock
		}
		return out[i].ProductID < out[j].ProductID
	})
	for i := range out {
		out[i].Priority = i + 1
	}
	return out, nil
}
