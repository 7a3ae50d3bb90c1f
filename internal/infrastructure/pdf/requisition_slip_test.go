package pdf_test

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/infrastructure/pdf"
)

func TestGenerateSlip_PedidoDeBienes(t *testing.T) {
	approved := time.Date(2026, time.March, 4, 10, 0, 0, 0, time.UTC)
	req := &entity.FulfillmentRequest{
		ID:           "req-1",
		Kind:         entity.KindGoods,
		UnitID:       "unit-a",
		RequestedBy:  "user-1",
		EmployeeName: "Ana Pérez",
		Period:       entity.Period{Year: 2026, Month: time.March},
		Status:       entity.StatusApproved,
		Remarks:      "Entregar en bodega norte",
		Lines: []entity.RequestLine{
			{ProductID: "papel-a4", Quantity: 3, UnitPrice: decimal.NewFromInt(25000)},
			{ProductID: "toner", Quantity: 1, UnitPrice: decimal.NewFromInt(180000)},
		},
		CreatedAt:  approved.Add(-time.Hour),
		ApprovedAt: &approved,
	}

	out, err := pdf.NewSlipGenerator("Suministros Central").GenerateSlip(context.Background(), req)
	require.NoError(t, err)
	require.NotEmpty(t, out)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateSlip_ReservaDeCredito(t *testing.T) {
	req := &entity.FulfillmentRequest{
		ID:               "req-2",
		Kind:             entity.KindCredit,
		UnitID:           "unit-a",
		RequestedBy:      "user-1",
		Status:           entity.StatusIssued,
		CreditCategory:   "TRAVEL",
		Amount:           decimal.NewFromInt(350000),
		BookingReference: "PNR-XYZ",
		CreatedAt:        time.Date(2026, time.March, 1, 8, 0, 0, 0, time.UTC),
	}

	out, err := pdf.NewSlipGenerator("").GenerateSlip(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, "%PDF", string(out[:4]))
}

func TestGenerateSlip_SolicitudNula(t *testing.T) {
	_, err := pdf.NewSlipGenerator("x").GenerateSlip(context.Background(), nil)
	assert.Error(t, err)
}
