package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Categorías de crédito conocidas (aerolíneas con cuenta corporativa).
const (
	CreditCategoryPAL = "PAL" // Philippine Airlines
	CreditCategoryCEB = "CEB" // Cebu Pacific
)

// CreditBalance es el saldo compartido de una categoría de crédito.
// Invariante: 0 <= CurrentBalance <= Limit.
type CreditBalance struct {
	Category       string
	Limit          decimal.Decimal
	CurrentBalance decimal.Decimal
	UpdatedAt      time.Time
}
