package dto

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// IssueRequest body para POST /api/credit/issue.
type IssueRequest struct {
	RequestID        string          `json:"request_id"`
	Category         string          `json:"category,omitempty"`
	Amount           decimal.Decimal `json:"amount"`
	BookingReference string          `json:"booking_reference"`
	Instructions     string          `json:"instructions"`
}

// CreditLimitRequest body para PUT /api/credit/:category.
type CreditLimitRequest struct {
	Limit decimal.Decimal `json:"limit"`
}

// CreditBalanceDTO saldo de una categoría.
type CreditBalanceDTO struct {
	Category       string          `json:"category"`
	Limit          decimal.Decimal `json:"limit"`
	CurrentBalance decimal.Decimal `json:"current_balance"`
	Used           decimal.Decimal `json:"used"`
	UpdatedAt      time.Time       `json:"updated_at"`
}

// FromCreditBalance convierte la entidad.
func FromCreditBalance(b *entity.CreditBalance) CreditBalanceDTO {
	return CreditBalanceDTO{
		Category:       b.Category,
		Limit:          b.Limit,
		CurrentBalance: b.CurrentBalance,
		Used:           b.Limit.Sub(b.CurrentBalance),
		UpdatedAt:      b.UpdatedAt,
	}
}
