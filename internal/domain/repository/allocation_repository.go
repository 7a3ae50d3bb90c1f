package repository

import (
	"context"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// AllocationRepository define el puerto de persistencia de los planes de asignación.
// Get y GetForUpdate devuelven (nil, nil) si no existe plan para la clave.
type AllocationRepository interface {
	Get(ctx context.Context, unitID, productID string, year int) (*entity.AllocationPlan, error)
	// GetForUpdate bloquea la fila del plan hasta el fin de la transacción (SELECT FOR UPDATE).
	GetForUpdate(ctx context.Context, unitID, productID string, year int) (*entity.AllocationPlan, error)
	Upsert(ctx context.Context, plan *entity.AllocationPlan) error
	UpdateConsumption(ctx context.Context, plan *entity.AllocationPlan) error
	ListByUnit(ctx context.Context, unitID string, year int) ([]*entity.AllocationPlan, error)
}
