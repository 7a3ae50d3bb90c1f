package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// RequestLineDTO línea de un pedido en respuestas.
type RequestLineDTO struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	UnitPrice decimal.Decimal `json:"unit_price"`
}

// FulfillmentRequestDTO representación JSON de una solicitud.
type FulfillmentRequestDTO struct {
	ID               string           `json:"id"`
	Kind             string           `json:"kind"`
	UnitID           string           `json:"unit_id"`
	RequestedBy      string           `json:"requested_by"`
	EmployeeName     string           `json:"employee_name,omitempty"`
	Period           string           `json:"period"`
	Status           string           `json:"status"`
	Lines            []RequestLineDTO `json:"lines"`
	TotalQuantity    int              `json:"total_quantity"`
	Remarks          string           `json:"remarks,omitempty"`
	CreditCategory   string           `json:"credit_category,omitempty"`
	Amount           decimal.Decimal  `json:"amount"`
	CreditDeducted   bool             `json:"credit_deducted"`
	BookingReference string           `json:"booking_reference,omitempty"`
	Instructions     string           `json:"instructions,omitempty"`
	CreatedAt        time.Time        `json:"created_at"`
	FinalizedAt      *time.Time       `json:"finalized_at,omitempty"`
	ApprovedAt       *time.Time       `json:"approved_at,omitempty"`
	IssuedAt         *time.Time       `json:"issued_at,omitempty"`
	CompletedAt      *time.Time       `json:"completed_at,omitempty"`
	ReturnedAt       *time.Time       `json:"returned_at,omitempty"`
}

// FromRequest convierte la entidad a su representación JSON.
func FromRequest(r *entity.FulfillmentRequest) FulfillmentRequestDTO {
	lines := make([]RequestLineDTO, 0, len(r.Lines))
	for _, l := range r.Lines {
		lines = append(lines, RequestLineDTO{ProductID: l.ProductID, Quantity: l.Quantity, UnitPrice: l.UnitPrice})
	}
	return FulfillmentRequestDTO{
		ID:               r.ID,
		Kind:             string(r.Kind),
		UnitID:           r.UnitID,
		RequestedBy:      r.RequestedBy,
		EmployeeName:     r.EmployeeName,
		Period:           r.Period.String(),
		Status:           string(r.Status),
		Lines:            lines,
		TotalQuantity:    r.TotalQuantity(),
		Remarks:          r.Remarks,
		CreditCategory:   r.CreditCategory,
		Amount:           r.Amount,
		CreditDeducted:   r.CreditDeducted,
		BookingReference: r.BookingReference,
		Instructions:     r.Instructions,
		CreatedAt:        r.CreatedAt,
		FinalizedAt:      r.FinalizedAt,
		ApprovedAt:       r.ApprovedAt,
		IssuedAt:         r.IssuedAt,
		CompletedAt:      r.CompletedAt,
		ReturnedAt:       r.ReturnedAt,
	}
}

// FromRequests convierte un listado.
func FromRequests(list []*entity.FulfillmentRequest) []FulfillmentRequestDTO {
	out := make([]FulfillmentRequestDTO, 0, len(list))
	for _, r := range list {
		out = append(out, FromRequest(r))
	}
	return out
}

// RequestListQuery filtros de GET /api/requests. From/To aceptan RFC3339 o AAAA-MM-DD.
type RequestListQuery struct {
	Status string `query:"status"`
	Kind   string `query:"kind"`
	UnitID string `query:"unit_id"`
	From   string `query:"from"`
	To     string `query:"to"`
	Limit  int    `query:"limit"`
	Offset int    `query:"offset"`
}

// TransitionRequest body para POST /api/requests/:id/transition.
type TransitionRequest struct {
	Target  string `json:"target"`
	Remarks string `json:"remarks"` // motivo; solo se guarda al devolver (RETURNED)
}

// BookingRequest body para POST /api/bookings.
type BookingRequest struct {
	EmployeeName   string          `json:"employee_name"`
	CreditCategory string          `json:"credit_category"`
	EstimatedCost  decimal.Decimal `json:"estimated_cost"`
	Instructions   string          `json:"instructions"`
	Remarks        string          `json:"remarks"`
}
