package entity

import (
	"time"

	"github.com/shopspring/decimal"
)

// Tipos de movimiento del libro de auditoría.
const (
	MovementQuotaConsume  = "QUOTA_CONSUME"
	MovementQuotaRestore  = "QUOTA_RESTORE"
	MovementStockIn       = "STOCK_IN"     // recepción de lote
	MovementStockOut      = "STOCK_OUT"    // salida FIFO, una fila por lote tocado
	MovementStockReturn   = "STOCK_RETURN" // reposición aproximada (lote más reciente con espacio)
	MovementCreditDebit   = "CREDIT_DEBIT"
	MovementCreditRestore = "CREDIT_RESTORE"
)

// Movement registra una mutación de cuota, lote o crédito. Solo se agrega, nunca se edita.
type Movement struct {
	ID            string
	TransactionID string // ID de la solicitud o de la operación suelta
	Type          string
	UnitID        string
	ProductID     string
	BatchID       string
	Category      string
	Period        Period
	Quantity      int             // positivo entrada/restauración, negativo salida/consumo
	Amount        decimal.Decimal // solo crédito
	CreatedAt     time.Time
	CreatedBy     string
}
