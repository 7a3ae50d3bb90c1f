package allocation

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// PlanInput son las doce asignaciones mensuales de una unidad para un producto.
type PlanInput struct {
	UnitID      string  `json:"unit_id"`
	ProductID   string  `json:"product_id"`
	Year        int     `json:"year"`
	MonthlyCaps [12]int `json:"monthly_caps"`
}

// PlanSummary es la fila del resumen de cuota de una unidad para el mes vigente.
type PlanSummary struct {
	ProductID      string `json:"product_id"`
	Period         string `json:"period"`
	Cap            int    `json:"cap"`
	Consumed       int    `json:"consumed"`
	Remaining      int    `json:"remaining"`
	AnnualCap      int    `json:"annual_cap"`
	AnnualConsumed int    `json:"annual_consumed"`
}

// ProvisionPlan crea o actualiza el plan anual. El consumo ya registrado se conserva y
// ninguna asignación mensual puede quedar por debajo de lo consumido en ese mes.
func (l *Ledger) ProvisionPlan(ctx context.Context, in PlanInput) (*entity.AllocationPlan, error) {
	in.UnitID = strings.TrimSpace(in.UnitID)
	in.ProductID = strings.TrimSpace(in.ProductID)
	if in.UnitID == "" || in.ProductID == "" || in.Year <= 0 {
		return nil, domain.ErrInvalidInput
	}
	for _, c := range in.MonthlyCaps {
		if c < 0 {
			return nil, domain.ErrInvalidInput
		}
	}
	var out *entity.AllocationPlan
	err := l.tx.Run(ctx, func(repos repository.Repos) error {
		plan, err := repos.Allocations.GetForUpdate(ctx, in.UnitID, in.ProductID, in.Year)
		if err != nil {
			return err
		}
		now := l.clock.Now()
		if plan == nil {
			plan = &entity.AllocationPlan{
				ID:        uuid.New().String(),
				UnitID:    in.UnitID,
				ProductID: in.ProductID,
				Year:      in.Year,
				CreatedAt: now,
			}
		}
		for i, c := range in.MonthlyCaps {
			if c < plan.Consumed[i] {
				return fmt.Errorf("mes %d: asignación %d menor que lo consumido %d: %w",
					i+1, c, plan.Consumed[i], domain.ErrInvalidInput)
			}
		}
		plan.MonthlyCaps = in.MonthlyCaps
		plan.UpdatedAt = now
		if err := repos.Allocations.Upsert(ctx, plan); err != nil {
			return err
		}
		out = plan
		return nil
	})
	if err != nil {
		return nil, err
	}
	l.log.Info().
		Str("unit_id", in.UnitID).
		Str("product_id", in.ProductID).
		Int("year", in.Year).
		Int("annual_cap", out.TotalCap()).
		Msg("plan de asignación actualizado")
	return out, nil
}

// Summary devuelve la cuota del mes vigente de cada producto planificado para la unidad.
func (l *Ledger) Summary(ctx context.Context, unitID string) ([]PlanSummary, error) {
	if strings.TrimSpace(unitID) == "" {
		return nil, domain.ErrInvalidInput
	}
	period := entity.PeriodOf(l.clock.Now())
	var plans []*entity.AllocationPlan
	err := l.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		plans, err = repos.Allocations.ListByUnit(ctx, unitID, period.Year)
		return err
	})
	if err != nil {
		return nil, err
	}
	sort.Slice(plans, func(i, j int) bool { return plans[i].ProductID < plans[j].ProductID })
	out := make([]PlanSummary, 0, len(plans))
	for _, p := range plans {
		out = append(out, PlanSummary{
			ProductID:      p.ProductID,
			Period:         period.String(),
			Cap:            p.CapFor(period.Month),
			Consumed:       p.ConsumedIn(period.Month),
			Remaining:      max(0, p.Remaining(period.Month)),
			AnnualCap:      p.TotalCap(),
			AnnualConsumed: p.TotalConsumed(),
		})
	}
	return out, nil
}
