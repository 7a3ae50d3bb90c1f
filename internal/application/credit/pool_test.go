package credit_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suministros-api/internal/application/credit"
	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
	"github.com/jhoicas/Suministros-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var now = time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)

var admin = entity.NewActor("admin-1", "central", entity.RoleAdmin)

func newPool(t *testing.T) (*credit.Pool, *memory.TxRunner) {
	t.Helper()
	tx := memory.NewTxRunner(memory.NewStore(2 * time.Second))
	return credit.NewPool(tx, ports.FixedClock{T: now}, zerolog.Nop()), tx
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

// seedBooking guarda una reserva de crédito directamente en el estado indicado.
func seedBooking(t *testing.T, tx *memory.TxRunner, id string, status entity.Status, category string) {
	t.Helper()
	err := tx.Run(context.Background(), func(repos repository.Repos) error {
		return repos.Requests.Create(context.Background(), &entity.FulfillmentRequest{
			ID:             id,
			Kind:           entity.KindCredit,
			UnitID:         "u1",
			RequestedBy:    "staff-1",
			Period:         entity.PeriodOf(now),
			Status:         status,
			CreditCategory: category,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
	})
	require.NoError(t, err)
}

// ──────────────────────────────────────────────────────────────────────────────
// AtomicDecrement / Restore
// ──────────────────────────────────────────────────────────────────────────────

func TestAtomicDecrement_ConcurrenteSoloUnoPasa(t *testing.T) {
	ctx := context.Background()
	p, _ := newPool(t)
	_, err := p.ProvisionCategory(ctx, "viajes", dec("100"))
	require.NoError(t, err)

	results := make([]credit.DecrementResult, 2)
	errs := make([]error, 2)
	var wg sync.WaitGroup
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = p.AtomicDecrement(ctx, "viajes", dec("100"))
		}(i)
	}
	wg.Wait()

	oks, rejected := 0, 0
	for i := range results {
		if results[i].OK {
			oks++
			require.NoError(t, errs[i])
			assert.True(t, results[i].NewBalance.IsZero())
			continue
		}
		rejected++
		var ie *domain.InsufficientCreditError
		require.True(t, errors.As(errs[i], &ie), "error inesperado: %v", errs[i])
		assert.Equal(t, credit.ReasonInsufficientCredit, results[i].Reason)
		assert.True(t, results[i].NewBalance.IsZero())
	}
	assert.Equal(t, 1, oks)
	assert.Equal(t, 1, rejected)
}

func TestAtomicDecrement_CategoriaInexistente(t *testing.T) {
	p, _ := newPool(t)
	_, err := p.AtomicDecrement(context.Background(), "nada", dec("1"))
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestAtomicDecrement_MontoNoPositivo(t *testing.T) {
	p, _ := newPool(t)
	_, err := p.AtomicDecrement(context.Background(), "viajes", decimal.Zero)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestRestore_NoSuperaElLimite(t *testing.T) {
	ctx := context.Background()
	p, _ := newPool(t)
	_, err := p.ProvisionCategory(ctx, "viajes", dec("100"))
	require.NoError(t, err)
	_, err = p.AtomicDecrement(ctx, "viajes", dec("30"))
	require.NoError(t, err)

	_, err = p.Restore(ctx, "viajes", dec("31"))
	assert.ErrorIs(t, err, domain.ErrCreditOverflow)

	bal, err := p.Restore(ctx, "viajes", dec("30"))
	require.NoError(t, err)
	assert.True(t, bal.Equal(dec("100")))
}

// ──────────────────────────────────────────────────────────────────────────────
// ProvisionCategory
// ──────────────────────────────────────────────────────────────────────────────

func TestProvisionCategory_AjustaSaldoPorDiferencia(t *testing.T) {
	ctx := context.Background()
	p, _ := newPool(t)
	_, err := p.ProvisionCategory(ctx, " viajes ", dec("100"))
	require.NoError(t, err)
	_, err = p.AtomicDecrement(ctx, "VIAJES", dec("40"))
	require.NoError(t, err)

	bal, err := p.ProvisionCategory(ctx, "viajes", dec("150"))
	require.NoError(t, err)
	assert.Equal(t, "VIAJES", bal.Category)
	assert.True(t, bal.CurrentBalance.Equal(dec("110")))

	_, err = p.ProvisionCategory(ctx, "viajes", dec("39"))
	assert.ErrorIs(t, err, domain.ErrInvalidInput, "el límite no puede bajar de lo usado")

	list, err := p.Balances(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.True(t, list[0].Limit.Equal(dec("150")))
}

// ──────────────────────────────────────────────────────────────────────────────
// IssueAgainstCredit
// ──────────────────────────────────────────────────────────────────────────────

func TestIssueAgainstCredit_Idempotente(t *testing.T) {
	ctx := context.Background()
	p, tx := newPool(t)
	_, err := p.ProvisionCategory(ctx, "viajes", dec("1000"))
	require.NoError(t, err)
	seedBooking(t, tx, "b1", entity.StatusApproved, "VIAJES")

	first, err := p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "b1", Amount: dec("300"), BookingReference: "ABC123", Actor: admin})
	require.NoError(t, err)
	assert.False(t, first.AlreadyIssued)
	assert.Equal(t, entity.StatusIssued, first.Status)
	assert.True(t, first.NewBalance.Equal(dec("700")))

	second, err := p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "b1", Amount: dec("300"), Instructions: "ventanilla", Actor: admin})
	require.NoError(t, err)
	assert.True(t, second.AlreadyIssued)
	assert.True(t, second.NewBalance.Equal(dec("700")), "no se debita dos veces")

	var movements []*entity.Movement
	require.NoError(t, tx.Run(ctx, func(repos repository.Repos) error {
		movements, err = repos.Movements.ListByTransaction(ctx, "b1")
		return err
	}))
	require.Len(t, movements, 1)
	assert.Equal(t, entity.MovementCreditDebit, movements[0].Type)
}

func TestIssueAgainstCredit_SaldoInsuficienteNoCambiaEstado(t *testing.T) {
	ctx := context.Background()
	p, tx := newPool(t)
	_, err := p.ProvisionCategory(ctx, "viajes", dec("100"))
	require.NoError(t, err)
	seedBooking(t, tx, "b1", entity.StatusApproved, "VIAJES")

	_, err = p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "b1", Amount: dec("100.01"), Actor: admin})
	assert.ErrorIs(t, err, domain.ErrInsufficientCredit)

	var req *entity.FulfillmentRequest
	require.NoError(t, tx.Run(ctx, func(repos repository.Repos) error {
		req, err = repos.Requests.GetByID(ctx, "b1")
		return err
	}))
	assert.Equal(t, entity.StatusApproved, req.Status)
	assert.False(t, req.CreditDeducted)
}

func TestIssueAgainstCredit_MontoCeroNoDebita(t *testing.T) {
	ctx := context.Background()
	p, tx := newPool(t)
	_, err := p.ProvisionCategory(ctx, "viajes", dec("100"))
	require.NoError(t, err)
	seedBooking(t, tx, "b1", entity.StatusApproved, "VIAJES")

	res, err := p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "b1", Amount: decimal.Zero, Actor: admin})

	require.NoError(t, err)
	assert.Equal(t, entity.StatusIssued, res.Status)
	assert.True(t, res.NewBalance.Equal(dec("100")))
}

func TestIssueAgainstCredit_Autorizacion(t *testing.T) {
	ctx := context.Background()
	p, tx := newPool(t)
	_, err := p.ProvisionCategory(ctx, "viajes", dec("100"))
	require.NoError(t, err)
	seedBooking(t, tx, "b1", entity.StatusPending, "VIAJES")

	staff := entity.NewActor("staff-1", "u1", entity.RoleStaff)
	_, err = p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "b1", Amount: dec("10"), Actor: staff})
	assert.ErrorIs(t, err, domain.ErrForbidden)

	_, err = p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "b1", Amount: dec("10"), Actor: admin})
	assert.ErrorIs(t, err, domain.ErrInvalidTransition, "solo se emite desde APPROVED")

	_, err = p.IssueAgainstCredit(ctx, credit.IssueInput{RequestID: "nada", Amount: dec("10"), Actor: admin})
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
