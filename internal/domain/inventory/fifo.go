package inventory

import (
	"sort"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// Draw es la cantidad tomada (o devuelta) de un lote concreto.
type Draw struct {
	BatchID  string
	Quantity int
}

// SortFIFO ordena los lotes del más antiguo al más reciente (ReceivedAt, Seq).
func SortFIFO(batches []*entity.StockBatch) {
	sort.SliceStable(batches, func(i, j int) bool {
		return batches[i].Before(batches[j])
	})
}

// Available suma la cantidad remanente de los lotes.
func Available(batches []*entity.StockBatch) int {
	total := 0
	for _, b := range batches {
		total += b.QuantityRemaining
	}
	return total
}

// PlanDeduction calcula la salida FIFO sin mutar los lotes.
// Para cada lote toma min(remanente, pendiente) hasta cubrir qty o agotar los lotes;
// lo no cubierto se devuelve como faltante explícito.
func PlanDeduction(batches []*entity.StockBatch, qty int) (draws []Draw, deducted, shortfall int) {
	ordered := make([]*entity.StockBatch, len(batches))
	copy(ordered, batches)
	SortFIFO(ordered)

	outstanding := qty
	for _, b := range ordered {
		if outstanding <= 0 {
			break
		}
		if b.QuantityRemaining <= 0 {
			continue
		}
		take := min(b.QuantityRemaining, outstanding)
		draws = append(draws, Draw{BatchID: b.ID, Quantity: take})
		outstanding -= take
		deducted += take
	}
	return draws, deducted, outstanding
}

// PlanRestore calcula la reposición empezando por el lote recibido más recientemente y
// continuando hacia atrás mientras haya espacio (remanente < inicial). No reproduce la traza
// FIFO original: conserva el agregado y el tope por lote, pero pierde la procedencia exacta.
// overflow > 0 significa que se intentó devolver más de lo que alguna vez salió.
func PlanRestore(batches []*entity.StockBatch, qty int) (draws []Draw, overflow int) {
	ordered := make([]*entity.StockBatch, len(batches))
	copy(ordered, batches)
	SortFIFO(ordered)

	outstanding := qty
	for i := len(ordered) - 1; i >= 0 && outstanding > 0; i-- {
		b := ordered[i]
		room := b.Headroom()
		if room <= 0 {
			continue
		}
		put := min(room, outstanding)
		draws = append(draws, Draw{BatchID: b.ID, Quantity: put})
		outstanding -= put
	}
	return draws, outstanding
}

// Apply aplica draws a los lotes con signo (−1 salida, +1 reposición) y devuelve los lotes tocados.
func Apply(batches []*entity.StockBatch, draws []Draw, sign int) []*entity.StockBatch {
	byID := make(map[string]*entity.StockBatch, len(batches))
	for _, b := range batches {
		byID[b.ID] = b
	}
	touched := make([]*entity.StockBatch, 0, len(draws))
	for _, d := range draws {
		b, ok := byID[d.BatchID]
		if !ok {
			continue
		}
		b.QuantityRemaining += sign * d.Quantity
		touched = append(touched, b)
	}
	return touched
}
