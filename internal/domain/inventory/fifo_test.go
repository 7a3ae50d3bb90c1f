package inventory_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/inventory"
)

var t0 = time.Date(2026, time.January, 10, 8, 0, 0, 0, time.UTC)

func batch(id string, initial, remaining int, age time.Duration, seq int64) *entity.StockBatch {
	return &entity.StockBatch{
		ID:                id,
		ProductID:         "papel",
		QuantityInitial:   initial,
		QuantityRemaining: remaining,
		CostPerItem:       decimal.NewFromInt(100),
		ReceivedAt:        t0.Add(age),
		Seq:               seq,
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// PlanDeduction
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanDeduction_AgotaPrimeroElMasAntiguo(t *testing.T) {
	// Entregados fuera de orden: el plan debe respetar ReceivedAt, no el orden del slice.
	batches := []*entity.StockBatch{
		batch("b2", 10, 10, time.Hour, 2),
		batch("b1", 3, 3, 0, 1),
	}

	draws, deducted, shortfall := inventory.PlanDeduction(batches, 5)

	assert.Equal(t, 5, deducted)
	assert.Equal(t, 0, shortfall)
	assert.Equal(t, []inventory.Draw{{BatchID: "b1", Quantity: 3}, {BatchID: "b2", Quantity: 2}}, draws)

	inventory.Apply(batches, draws, -1)
	assert.Equal(t, 8, batches[0].QuantityRemaining)
	assert.Equal(t, 0, batches[1].QuantityRemaining)
}

func TestPlanDeduction_FaltanteExplicito(t *testing.T) {
	batches := []*entity.StockBatch{
		batch("b1", 3, 3, 0, 1),
		batch("b2", 10, 10, time.Hour, 2),
	}

	_, deducted, shortfall := inventory.PlanDeduction(batches, 50)

	assert.Equal(t, 13, deducted)
	assert.Equal(t, 37, shortfall)
	assert.Equal(t, 3, batches[0].QuantityRemaining, "planificar no muta los lotes")
}

func TestPlanDeduction_DesempatePorSecuencia(t *testing.T) {
	batches := []*entity.StockBatch{
		batch("tarde", 5, 5, 0, 9),
		batch("temprano", 5, 5, 0, 4),
	}

	draws, _, _ := inventory.PlanDeduction(batches, 1)

	require.Len(t, draws, 1)
	assert.Equal(t, "temprano", draws[0].BatchID)
}

func TestPlanDeduction_SaltaLotesVacios(t *testing.T) {
	batches := []*entity.StockBatch{
		batch("vacio", 4, 0, 0, 1),
		batch("lleno", 4, 4, time.Hour, 2),
	}

	draws, deducted, _ := inventory.PlanDeduction(batches, 2)

	assert.Equal(t, 2, deducted)
	assert.Equal(t, []inventory.Draw{{BatchID: "lleno", Quantity: 2}}, draws)
}

// ──────────────────────────────────────────────────────────────────────────────
// PlanRestore
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanRestore_EmpiezaPorElMasReciente(t *testing.T) {
	batches := []*entity.StockBatch{
		batch("b1", 3, 0, 0, 1),
		batch("b2", 10, 8, time.Hour, 2),
	}

	draws, overflow := inventory.PlanRestore(batches, 5)

	assert.Equal(t, 0, overflow)
	assert.Equal(t, []inventory.Draw{{BatchID: "b2", Quantity: 2}, {BatchID: "b1", Quantity: 3}}, draws)

	inventory.Apply(batches, draws, +1)
	assert.Equal(t, 3, batches[0].QuantityRemaining)
	assert.Equal(t, 10, batches[1].QuantityRemaining)
}

func TestPlanRestore_Desborde(t *testing.T) {
	batches := []*entity.StockBatch{batch("b1", 3, 1, 0, 1)}

	_, overflow := inventory.PlanRestore(batches, 5)

	assert.Equal(t, 3, overflow)
}

// ──────────────────────────────────────────────────────────────────────────────
// Propiedades
// ──────────────────────────────────────────────────────────────────────────────

func TestPlanDeduction_Propiedades(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		n := rapid.IntRange(0, 8).Draw(t, "n")
		batches := make([]*entity.StockBatch, 0, n)
		total := 0
		for i := 0; i < n; i++ {
			initial := rapid.IntRange(1, 50).Draw(t, "initial")
			remaining := rapid.IntRange(0, initial).Draw(t, "remaining")
			total += remaining
			batches = append(batches, batch(string(rune('a'+i)), initial, remaining, time.Duration(i)*time.Minute, int64(i)))
		}
		qty := rapid.IntRange(1, 300).Draw(t, "qty")

		draws, deducted, shortfall := inventory.PlanDeduction(batches, qty)

		if deducted+shortfall != qty {
			t.Fatalf("deducido %d + faltante %d != %d", deducted, shortfall, qty)
		}
		if deducted != min(qty, total) {
			t.Fatalf("deducido %d, esperado %d", deducted, min(qty, total))
		}
		inventory.Apply(batches, draws, -1)
		for _, b := range batches {
			if b.QuantityRemaining < 0 || b.QuantityRemaining > b.QuantityInitial {
				t.Fatalf("lote %s fuera de rango: %d/%d", b.ID, b.QuantityRemaining, b.QuantityInitial)
			}
		}
		if inventory.Available(batches) != total-deducted {
			t.Fatalf("disponible %d, esperado %d", inventory.Available(batches), total-deducted)
		}

		// Devolver lo deducido deja el agregado como estaba.
		back, overflow := inventory.PlanRestore(batches, deducted)
		if overflow != 0 {
			t.Fatalf("desborde inesperado %d", overflow)
		}
		inventory.Apply(batches, back, +1)
		if inventory.Available(batches) != total {
			t.Fatalf("tras restaurar %d, esperado %d", inventory.Available(batches), total)
		}
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Costo promedio y nivel
// ──────────────────────────────────────────────────────────────────────────────

func TestLevel_CostoPromedioPonderado(t *testing.T) {
	b1 := batch("b1", 10, 2, 0, 1)
	b1.CostPerItem = decimal.NewFromInt(100)
	b2 := batch("b2", 10, 6, time.Hour, 2)
	b2.CostPerItem = decimal.NewFromInt(200)

	lvl := inventory.Level("papel", []*entity.StockBatch{b1, b2})

	assert.Equal(t, 20, lvl.TotalInitial)
	assert.Equal(t, 8, lvl.TotalRemaining)
	assert.Equal(t, 12, lvl.TotalDeducted)
	assert.True(t, decimal.NewFromInt(1400).Equal(lvl.StockValue), "valor = 2*100 + 6*200")
	assert.True(t, decimal.NewFromInt(175).Equal(lvl.AverageCost), "promedio = 1400 / 8")
}

func TestWeightedAverageCost_SinRemanenteEsCero(t *testing.T) {
	assert.True(t, inventory.WeightedAverageCost([]*entity.StockBatch{batch("b", 5, 0, 0, 1)}).IsZero())
}
