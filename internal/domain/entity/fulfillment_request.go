package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Status es el estado del ciclo de vida de una solicitud.
type Status string

// Estados de una solicitud (pedido de suministros o reserva contra crédito).
const (
	StatusDraft     Status = "DRAFT"
	StatusPending   Status = "PENDING"
	StatusApproved  Status = "APPROVED"
	StatusDelivered Status = "DELIVERED"
	StatusIssued    Status = "ISSUED"
	StatusSettled   Status = "SETTLED"
	StatusReturned  Status = "RETURNED"
)

// Kind distingue solicitudes de bienes físicos de las que consumen crédito monetario.
type Kind string

const (
	KindGoods  Kind = "GOODS"
	KindCredit Kind = "CREDIT"
)

// RequestLine es una línea (producto, cantidad) de un pedido. Referencia por ID, sin embeber.
type RequestLine struct {
	ProductID string
	Quantity  int
	UnitPrice decimal.Decimal
}

// FulfillmentRequest es un intento de consumo: un pedido de bienes o una reserva de crédito.
// Invariante central: la deducción física/monetaria ocurrió si y solo si Status es comprometido.
type FulfillmentRequest struct {
	ID           string
	Kind         Kind
	UnitID       string
	RequestedBy  string
	EmployeeName string
	Period       Period // periodo de cuota contra el que se compromete, fijado al crear
	Lines        []RequestLine
	Status       Status
	Remarks      string

	// Solo para Kind == KindCredit.
	CreditCategory   string
	Amount           decimal.Decimal
	CreditDeducted   bool
	BookingReference string
	Instructions     string

	CreatedAt   time.Time
	FinalizedAt *time.Time
	ApprovedAt  *time.Time
	IssuedAt    *time.Time
	CompletedAt *time.Time
	ReturnedAt  *time.Time
	UpdatedAt   time.Time
}

// TotalAmount suma cantidad * precio de las líneas (monto referencial del pedido).
func (r *FulfillmentRequest) TotalAmount() decimal.Decimal {
	total := decimal.Zero
	for _, l := range r.Lines {
		total = total.Add(l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity))))
	}
	return total
}

// TotalQuantity suma las cantidades de todas las líneas.
func (r *FulfillmentRequest) TotalQuantity() int {
	total := 0
	for _, l := range r.Lines {
		total += l.Quantity
	}
	return total
}
