package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

var _ repository.AllocationRepository = (*AllocationRepo)(nil)

// AllocationRepo implementación de AllocationRepository sobre PostgreSQL (usable con pool o tx).
type AllocationRepo struct {
	q Querier
}

// NewAllocationRepository construye el adaptador. Pasar pool o tx (Querier).
func NewAllocationRepository(q Querier) *AllocationRepo {
	return &AllocationRepo{q: q}
}

const allocationColumns = `id, unit_id, product_id, year, monthly_caps, consumed, created_at, updated_at`

func scanPlan(row pgx.Row) (*entity.AllocationPlan, error) {
	var p entity.AllocationPlan
	var caps, consumed []int
	if err := row.Scan(&p.ID, &p.UnitID, &p.ProductID, &p.Year, &caps, &consumed, &p.CreatedAt, &p.UpdatedAt); err != nil {
		return nil, err
	}
	if len(caps) != 12 || len(consumed) != 12 {
		return nil, fmt.Errorf("plan %s: se esperaban 12 meses, hay %d/%d", p.ID, len(caps), len(consumed))
	}
	copy(p.MonthlyCaps[:], caps)
	copy(p.Consumed[:], consumed)
	return &p, nil
}

// Get obtiene el plan de (unidad, producto, año); nil si no existe.
func (r *AllocationRepo) Get(ctx context.Context, unitID, productID string, year int) (*entity.AllocationPlan, error) {
	query := `SELECT ` + allocationColumns + `
		FROM allocation_plans WHERE unit_id = $1 AND product_id = $2 AND year = $3`
	p, err := scanPlan(r.q.QueryRow(ctx, query, unitID, productID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get allocation plan", err)
	}
	return p, nil
}

// GetForUpdate obtiene el plan y bloquea la fila (SELECT FOR UPDATE).
func (r *AllocationRepo) GetForUpdate(ctx context.Context, unitID, productID string, year int) (*entity.AllocationPlan, error) {
	query := `SELECT ` + allocationColumns + `
		FROM allocation_plans WHERE unit_id = $1 AND product_id = $2 AND year = $3
		FOR UPDATE`
	p, err := scanPlan(r.q.QueryRow(ctx, query, unitID, productID, year))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get allocation plan for update", err)
	}
	return p, nil
}

// Upsert crea el plan o reemplaza sus asignaciones mensuales. No toca el consumo existente.
func (r *AllocationRepo) Upsert(ctx context.Context, plan *entity.AllocationPlan) error {
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	query := `
		INSERT INTO allocation_plans (id, unit_id, product_id, year, monthly_caps, consumed, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (unit_id, product_id, year)
		DO UPDATE SET monthly_caps = EXCLUDED.monthly_caps, updated_at = EXCLUDED.updated_at`
	_, err := r.q.Exec(ctx, query,
		plan.ID, plan.UnitID, plan.ProductID, plan.Year,
		plan.MonthlyCaps[:], plan.Consumed[:], plan.CreatedAt, plan.UpdatedAt,
	)
	if err != nil {
		return wrap("upsert allocation plan", err)
	}
	return nil
}

// UpdateConsumption persiste el arreglo de consumo del plan.
func (r *AllocationRepo) UpdateConsumption(ctx context.Context, plan *entity.AllocationPlan) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE allocation_plans SET consumed = $4, updated_at = $5
		WHERE unit_id = $1 AND product_id = $2 AND year = $3`,
		plan.UnitID, plan.ProductID, plan.Year, plan.Consumed[:], plan.UpdatedAt,
	)
	if err != nil {
		return wrap("update allocation consumption", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListByUnit lista los planes de la unidad para el año.
func (r *AllocationRepo) ListByUnit(ctx context.Context, unitID string, year int) ([]*entity.AllocationPlan, error) {
	query := `SELECT ` + allocationColumns + `
		FROM allocation_plans WHERE unit_id = $1 AND year = $2 ORDER BY product_id`
	rows, err := r.q.Query(ctx, query, unitID, year)
	if err != nil {
		return nil, wrap("list allocation plans", err)
	}
	defer rows.Close()
	list := make([]*entity.AllocationPlan, 0)
	for rows.Next() {
		p, err := scanPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("scan allocation plan: %w", err)
		}
		list = append(list, p)
	}
	return list, rows.Err()
}
