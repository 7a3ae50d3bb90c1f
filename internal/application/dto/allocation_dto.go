package dto

import (
	"time"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// ProvisionPlanRequest body para PUT /api/allocations.
type ProvisionPlanRequest struct {
	UnitID      string  `json:"unit_id"`
	ProductID   string  `json:"product_id"`
	Year        int     `json:"year"`
	MonthlyCaps [12]int `json:"monthly_caps"`
}

// AllocationPlanDTO plan anual en respuestas.
type AllocationPlanDTO struct {
	ID          string    `json:"id"`
	UnitID      string    `json:"unit_id"`
	ProductID   string    `json:"product_id"`
	Year        int       `json:"year"`
	MonthlyCaps [12]int   `json:"monthly_caps"`
	Consumed    [12]int   `json:"consumed"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// FromPlan convierte la entidad.
func FromPlan(p *entity.AllocationPlan) AllocationPlanDTO {
	return AllocationPlanDTO{
		ID:          p.ID,
		UnitID:      p.UnitID,
		ProductID:   p.ProductID,
		Year:        p.Year,
		MonthlyCaps: p.MonthlyCaps,
		Consumed:    p.Consumed,
		UpdatedAt:   p.UpdatedAt,
	}
}
