package entity

import (
	"time"
)

// AllocationPlan es el plan anual de abastecimiento (APP) de una unidad para un producto.
// MonthlyCaps es la asignación de cada mes; Consumed es el único contador de consumo
// comprometido, llevado por mes. Invariante: 0 <= Consumed[m] <= MonthlyCaps[m].
type AllocationPlan struct {
	ID          string
	UnitID      string
	ProductID   string
	Year        int
	MonthlyCaps [12]int
	Consumed    [12]int
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// CapFor devuelve la asignación del mes indicado.
func (p *AllocationPlan) CapFor(m time.Month) int { return p.MonthlyCaps[int(m)-1] }

// ConsumedIn devuelve el consumo comprometido del mes indicado.
func (p *AllocationPlan) ConsumedIn(m time.Month) int { return p.Consumed[int(m)-1] }

// Remaining es lo que queda por consumir en el mes (nunca negativo si se respeta la invariante).
func (p *AllocationPlan) Remaining(m time.Month) int {
	return p.CapFor(m) - p.ConsumedIn(m)
}

// TotalCap suma las doce asignaciones mensuales.
func (p *AllocationPlan) TotalCap() int {
	total := 0
	for _, c := range p.MonthlyCaps {
		total += c
	}
	return total
}

// TotalConsumed suma el consumo comprometido del año.
func (p *AllocationPlan) TotalConsumed() int {
	total := 0
	for _, c := range p.Consumed {
		total += c
	}
	return total
}
