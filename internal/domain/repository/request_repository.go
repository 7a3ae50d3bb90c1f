package repository

import (
	"context"
	"time"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// RequestFilter filtros del listado de solicitudes (panel de transacciones).
type RequestFilter struct {
	Status entity.Status
	Kind   entity.Kind
	UnitID string
	From   *time.Time
	To     *time.Time
	Limit  int
	Offset int
}

// RequestRepository define el puerto de persistencia de solicitudes y sus líneas.
type RequestRepository interface {
	Create(ctx context.Context, req *entity.FulfillmentRequest) error
	GetByID(ctx context.Context, id string) (*entity.FulfillmentRequest, error)
	// GetForUpdate bloquea la solicitud; serializa transiciones concurrentes sobre ella.
	GetForUpdate(ctx context.Context, id string) (*entity.FulfillmentRequest, error)
	Update(ctx context.Context, req *entity.FulfillmentRequest) error
	List(ctx context.Context, filter RequestFilter) ([]*entity.FulfillmentRequest, error)
	// Count cuenta las solicitudes que cumplen filter, ignorando Limit y Offset.
	Count(ctx context.Context, filter RequestFilter) (int, error)
	CountByStatus(ctx context.Context) (map[entity.Status]int, error)
	// PendingQuantities suma por producto las líneas de los pedidos DRAFT y PENDING de la unidad
	// en el periodo: cantidades pedidas que todavía no consumen cuota.
	PendingQuantities(ctx context.Context, unitID string, period entity.Period) (map[string]int, error)
}
