package fulfillment

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// DraftInput datos para crear un pedido de bienes en borrador.
type DraftInput struct {
	UnitID       string
	RequestedBy  string
	EmployeeName string
	Lines        []entity.RequestLine
	Remarks      string
}

// BookingInput datos para crear una reserva contra crédito en borrador.
type BookingInput struct {
	UnitID         string
	RequestedBy    string
	EmployeeName   string
	CreditCategory string
	EstimatedCost  decimal.Decimal
	Instructions   string
	Remarks        string
}

// CreateDraft crea un pedido en DRAFT. Las líneas repetidas del mismo producto se fusionan
// y el periodo de cuota queda fijado con la fecha de creación.
func (m *StateMachine) CreateDraft(ctx context.Context, in DraftInput) (*entity.FulfillmentRequest, error) {
	if strings.TrimSpace(in.UnitID) == "" || strings.TrimSpace(in.RequestedBy) == "" {
		return nil, domain.ErrInvalidInput
	}
	lines, err := mergeLines(in.Lines)
	if err != nil {
		return nil, err
	}
	now := m.clock.Now()
	req := &entity.FulfillmentRequest{
		ID:           uuid.New().String(),
		Kind:         entity.KindGoods,
		UnitID:       strings.TrimSpace(in.UnitID),
		RequestedBy:  in.RequestedBy,
		EmployeeName: strings.TrimSpace(in.EmployeeName),
		Period:       entity.PeriodOf(now),
		Lines:        lines,
		Status:       entity.StatusDraft,
		Remarks:      strings.TrimSpace(in.Remarks),
		Amount:       decimal.Zero,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := m.tx.Run(ctx, func(repos repository.Repos) error {
		return repos.Requests.Create(ctx, req)
	}); err != nil {
		return nil, err
	}
	m.log.Info().
		Str("request_id", req.ID).
		Str("unit_id", req.UnitID).
		Int("lines", len(req.Lines)).
		Msg("pedido creado en borrador")
	return req, nil
}

// CreateBooking crea una reserva contra crédito en DRAFT. El monto definitivo se fija al emitir.
func (m *StateMachine) CreateBooking(ctx context.Context, in BookingInput) (*entity.FulfillmentRequest, error) {
	category := strings.ToUpper(strings.TrimSpace(in.CreditCategory))
	if strings.TrimSpace(in.UnitID) == "" || strings.TrimSpace(in.RequestedBy) == "" || category == "" {
		return nil, domain.ErrInvalidInput
	}
	if in.EstimatedCost.IsNegative() {
		return nil, domain.ErrInvalidInput
	}
	now := m.clock.Now()
	req := &entity.FulfillmentRequest{
		ID:             uuid.New().String(),
		Kind:           entity.KindCredit,
		UnitID:         strings.TrimSpace(in.UnitID),
		RequestedBy:    in.RequestedBy,
		EmployeeName:   strings.TrimSpace(in.EmployeeName),
		Period:         entity.PeriodOf(now),
		Status:         entity.StatusDraft,
		Remarks:        strings.TrimSpace(in.Remarks),
		CreditCategory: category,
		Amount:         in.EstimatedCost,
		Instructions:   strings.TrimSpace(in.Instructions),
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	err := m.tx.Run(ctx, func(repos repository.Repos) error {
		bal, err := repos.Credits.Get(ctx, category)
		if err != nil {
			return err
		}
		if bal == nil {
			return fmt.Errorf("categoría de crédito %s: %w", category, domain.ErrNotFound)
		}
		return repos.Requests.Create(ctx, req)
	})
	if err != nil {
		return nil, err
	}
	m.log.Info().
		Str("request_id", req.ID).
		Str("unit_id", req.UnitID).
		Str("category", category).
		Msg("reserva creada en borrador")
	return req, nil
}

// Get devuelve la solicitud. Un actor no privilegiado solo ve las de su unidad.
func (m *StateMachine) Get(ctx context.Context, id string, actor entity.Actor) (*entity.FulfillmentRequest, error) {
	var req *entity.FulfillmentRequest
	err := m.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		req, err = repos.Requests.GetByID(ctx, id)
		return err
	})
	if err != nil {
		return nil, err
	}
	if req == nil {
		return nil, domain.ErrNotFound
	}
	if !actor.Privileged && req.UnitID != actor.UnitID {
		return nil, domain.ErrForbidden
	}
	return req, nil
}

// List lista una página de solicitudes y el total de las que cumplen el filtro. Para actores
// no privilegiados se fuerza su unidad.
func (m *StateMachine) List(ctx context.Context, filter repository.RequestFilter, actor entity.Actor) ([]*entity.FulfillmentRequest, int, error) {
	if !actor.Privileged {
		filter.UnitID = actor.UnitID
	}
	if filter.Limit <= 0 || filter.Limit > 100 {
		filter.Limit = 20
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	var out []*entity.FulfillmentRequest
	var total int
	err := m.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		if out, err = repos.Requests.List(ctx, filter); err != nil {
			return err
		}
		total, err = repos.Requests.Count(ctx, filter)
		return err
	})
	if err != nil {
		return nil, 0, err
	}
	return out, total, nil
}

// PendingQuantities devuelve, por producto, lo pedido por la unidad en el periodo que aún
// está en DRAFT o PENDING.
func (m *StateMachine) PendingQuantities(ctx context.Context, unitID string, period entity.Period) (map[string]int, error) {
	var out map[string]int
	err := m.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		out, err = repos.Requests.PendingQuantities(ctx, unitID, period)
		return err
	})
	return out, err
}

// Counts devuelve cuántas solicitudes hay en cada estado (panel de transacciones).
func (m *StateMachine) Counts(ctx context.Context) (map[entity.Status]int, error) {
	var out map[entity.Status]int
	err := m.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		out, err = repos.Requests.CountByStatus(ctx)
		return err
	})
	return out, err
}

func mergeLines(lines []entity.RequestLine) ([]entity.RequestLine, error) {
	if len(lines) == 0 {
		return nil, domain.ErrInvalidInput
	}
	index := make(map[string]int, len(lines))
	out := make([]entity.RequestLine, 0, len(lines))
	for _, l := range lines {
		l.ProductID = strings.TrimSpace(l.ProductID)
		if l.ProductID == "" || l.Quantity <= 0 || l.UnitPrice.IsNegative() {
			return nil, domain.ErrInvalidInput
		}
		if i, ok := index[l.ProductID]; ok {
			out[i].Quantity += l.Quantity
			continue
		}
		index[l.ProductID] = len(out)
		out = append(out, l)
	}
	return out, nil
}
