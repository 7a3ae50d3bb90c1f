package reservation_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suministros-api/internal/application/allocation"
	"github.com/jhoicas/Suministros-api/internal/application/credit"
	"github.com/jhoicas/Suministros-api/internal/application/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/application/inventory"
	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/application/reservation"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/infrastructure/memory"
)

// ──────────────────────────────────────────────────────────────────────────────
// Helpers de test
// ──────────────────────────────────────────────────────────────────────────────

var (
	now   = time.Date(2026, time.March, 15, 9, 0, 0, 0, time.UTC)
	march = entity.PeriodOf(now)
	staff = entity.NewActor("staff-1", "u1", entity.RoleStaff)
	peer  = entity.NewActor("staff-2", "u1", entity.RoleStaff)
	admin = entity.NewActor("admin-1", "central", entity.RoleAdmin)
)

func newGate(t *testing.T, caps map[string]int) (*reservation.Gate, *allocation.Ledger, *fulfillment.StateMachine) {
	t.Helper()
	tx := memory.NewTxRunner(memory.NewStore(2 * time.Second))
	clock := ports.FixedClock{T: now}
	log := zerolog.Nop()
	ledger := allocation.NewLedger(tx, clock, log)
	stock := inventory.NewBatchPool(tx, clock, log, 5)
	machine := fulfillment.NewStateMachine(tx, clock, ledger, stock, credit.NewPool(tx, clock, log), log)
	for product, monthly := range caps {
		var c [12]int
		for i := range c {
			c[i] = monthly
		}
		_, err := ledger.ProvisionPlan(context.Background(), allocation.PlanInput{
			UnitID: staff.UnitID, ProductID: product, Year: 2026, MonthlyCaps: c,
		})
		require.NoError(t, err)
	}
	return reservation.NewGate(ledger, machine, memory.NewCartStore(), clock, log), ledger, machine
}

// pendingRequest crea un pedido de actor por qty unidades y lo deja en PENDING.
func pendingRequest(t *testing.T, m *fulfillment.StateMachine, actor entity.Actor, product string, qty int) *entity.FulfillmentRequest {
	t.Helper()
	ctx := context.Background()
	req, err := m.CreateDraft(ctx, fulfillment.DraftInput{
		UnitID:      actor.UnitID,
		RequestedBy: actor.UserID,
		Lines:       []entity.RequestLine{{ProductID: product, Quantity: qty}},
	})
	require.NoError(t, err)
	_, err = m.Transition(ctx, req.ID, entity.StatusPending, actor)
	require.NoError(t, err)
	return req
}

func cartQty(t *testing.T, g *reservation.Gate, product string) int {
	t.Helper()
	items, err := g.Cart(context.Background(), staff)
	require.NoError(t, err)
	for _, it := range items {
		if it.ProductID == product {
			return it.Quantity
		}
	}
	return 0
}

// ──────────────────────────────────────────────────────────────────────────────
// AddToCart / UpdateCart
// ──────────────────────────────────────────────────────────────────────────────

func TestAddToCart_CuentaLoQueYaEstaEnElCarrito(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newGate(t, map[string]int{"papel": 10})

	first, err := g.AddToCart(ctx, staff, "papel", 6)
	require.NoError(t, err)
	assert.True(t, first.Allowed)
	assert.Equal(t, 6, first.CartQuantity)

	second, err := g.AddToCart(ctx, staff, "papel", 6)
	require.NoError(t, err)
	assert.False(t, second.Allowed)
	assert.Equal(t, allocation.ReasonQuotaExceeded, second.Reason)
	assert.Equal(t, 4, second.Remaining)
	assert.Equal(t, 6, second.CartQuantity)

	third, err := g.AddToCart(ctx, staff, "papel", 4)
	require.NoError(t, err)
	assert.True(t, third.Allowed)
	assert.Equal(t, 10, cartQty(t, g, "papel"))
}

func TestAddToCart_SinPlan(t *testing.T) {
	g, _, _ := newGate(t, nil)

	res, err := g.AddToCart(context.Background(), staff, "papel", 1)

	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, allocation.ReasonNoAllocationRecord, res.Reason)
	assert.Equal(t, 0, cartQty(t, g, "papel"))
}

func TestAddToCart_CantidadInvalida(t *testing.T) {
	g, _, _ := newGate(t, map[string]int{"papel": 10})
	_, err := g.AddToCart(context.Background(), staff, "papel", 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestAddToCart_ConcurrenteNoSuperaLaAsignacion(t *testing.T) {
	g, _, _ := newGate(t, map[string]int{"papel": 10})

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _ = g.AddToCart(context.Background(), staff, "papel", 2)
		}()
	}
	wg.Wait()

	assert.Equal(t, 10, cartQty(t, g, "papel"))
}

func TestAddToCart_CuentaPedidosPendientesDeLaUnidad(t *testing.T) {
	ctx := context.Background()
	g, _, machine := newGate(t, map[string]int{"papel": 10})
	pendingRequest(t, machine, peer, "papel", 10)

	res, err := g.AddToCart(ctx, staff, "papel", 1)

	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, allocation.ReasonQuotaExceeded, res.Reason)
	assert.Equal(t, 0, res.Remaining)
	assert.Equal(t, 10, res.InFlight)
	assert.Equal(t, 0, cartQty(t, g, "papel"))
}

func TestAddToCart_PedidoDevueltoLiberaLaCuota(t *testing.T) {
	ctx := context.Background()
	g, _, machine := newGate(t, map[string]int{"papel": 10})
	req := pendingRequest(t, machine, peer, "papel", 7)

	blocked, err := g.AddToCart(ctx, staff, "papel", 4)
	require.NoError(t, err)
	assert.False(t, blocked.Allowed)
	assert.Equal(t, 3, blocked.Remaining)

	_, err = machine.Return(ctx, req.ID, "", admin)
	require.NoError(t, err)

	res, err := g.AddToCart(ctx, staff, "papel", 10)
	require.NoError(t, err)
	assert.True(t, res.Allowed)
	assert.Equal(t, 10, cartQty(t, g, "papel"))
}

func TestAddToCart_PedidosDeOtraUnidadNoCuentan(t *testing.T) {
	g, _, machine := newGate(t, map[string]int{"papel": 10})
	pendingRequest(t, machine, entity.NewActor("staff-9", "u2", entity.RoleStaff), "papel", 10)

	res, err := g.AddToCart(context.Background(), staff, "papel", 10)

	require.NoError(t, err)
	assert.True(t, res.Allowed)
}

func TestCheck_SumaPedidosPendientesAlCarritoInformado(t *testing.T) {
	g, _, machine := newGate(t, map[string]int{"papel": 10})
	pendingRequest(t, machine, peer, "papel", 4)

	res, err := g.Check(context.Background(), staff.UnitID, "papel", 3, 4)

	require.NoError(t, err)
	assert.False(t, res.Allowed)
	assert.Equal(t, 8, res.InFlight)
	assert.Equal(t, 2, res.Remaining)
}

func TestUpdateCart_ValidaLaCantidadNueva(t *testing.T) {
	ctx := context.Background()
	g, ledger, _ := newGate(t, map[string]int{"papel": 10})
	require.NoError(t, ledger.Consume(ctx, staff.UnitID, "papel", march, 2))
	_, err := g.AddToCart(ctx, staff, "papel", 5)
	require.NoError(t, err)

	over, err := g.UpdateCart(ctx, staff, "papel", 9)
	require.NoError(t, err)
	assert.False(t, over.Allowed)
	assert.Equal(t, 5, over.CartQuantity, "el carrito no cambia")

	ok, err := g.UpdateCart(ctx, staff, "papel", 8)
	require.NoError(t, err)
	assert.True(t, ok.Allowed)
	assert.Equal(t, 8, cartQty(t, g, "papel"))

	_, err = g.UpdateCart(ctx, staff, "papel", 0)
	require.NoError(t, err)
	assert.Equal(t, 0, cartQty(t, g, "papel"))
}

// ──────────────────────────────────────────────────────────────────────────────
// Checkout
// ──────────────────────────────────────────────────────────────────────────────

func TestCheckout_CarritoVacioEsInvalido(t *testing.T) {
	g, _, _ := newGate(t, map[string]int{"papel": 10})
	_, err := g.Checkout(context.Background(), staff, "", "")
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestCheckout_RechazaLineasQueYaNoCaben(t *testing.T) {
	ctx := context.Background()
	g, ledger, _ := newGate(t, map[string]int{"papel": 10, "toner": 2})
	_, err := g.AddToCart(ctx, staff, "papel", 3)
	require.NoError(t, err)
	_, err = g.AddToCart(ctx, staff, "toner", 2)
	require.NoError(t, err)
	// Otro pedido de la unidad se aprobó mientras tanto.
	require.NoError(t, ledger.Consume(ctx, staff.UnitID, "toner", march, 1))

	res, err := g.Checkout(ctx, staff, "Ana", "urgente")

	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Equal(t, entity.StatusDraft, res.Request.Status)
	assert.Equal(t, "Ana", res.Request.EmployeeName)
	require.Len(t, res.Request.Lines, 1)
	assert.Equal(t, "papel", res.Request.Lines[0].ProductID)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, "toner", res.Rejected[0].ProductID)
	assert.Equal(t, 1, res.Rejected[0].Result.Remaining)

	items, err := g.Cart(ctx, staff)
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestUpdateCart_CuentaPedidosPendientes(t *testing.T) {
	ctx := context.Background()
	g, _, machine := newGate(t, map[string]int{"papel": 10})
	pendingRequest(t, machine, peer, "papel", 4)

	over, err := g.UpdateCart(ctx, staff, "papel", 7)
	require.NoError(t, err)
	assert.False(t, over.Allowed)
	assert.Equal(t, 6, over.Remaining)

	ok, err := g.UpdateCart(ctx, staff, "papel", 6)
	require.NoError(t, err)
	assert.True(t, ok.Allowed)
	assert.Equal(t, 6, cartQty(t, g, "papel"))
}

func TestCheckout_SegundoCarritoDeLaUnidadSeRechaza(t *testing.T) {
	ctx := context.Background()
	g, _, _ := newGate(t, map[string]int{"papel": 10})
	first, err := g.AddToCart(ctx, staff, "papel", 10)
	require.NoError(t, err)
	require.True(t, first.Allowed)
	second, err := g.AddToCart(ctx, peer, "papel", 10)
	require.NoError(t, err)
	require.True(t, second.Allowed, "los carritos son por usuario")

	res, err := g.Checkout(ctx, staff, "", "")
	require.NoError(t, err)
	require.NotNil(t, res.Request)
	assert.Empty(t, res.Rejected)

	again, err := g.AddToCart(ctx, staff, "papel", 10)
	require.NoError(t, err)
	assert.False(t, again.Allowed, "el borrador ya ocupa la cuota")
	assert.Equal(t, 0, again.Remaining)

	res, err = g.Checkout(ctx, peer, "", "")
	require.NoError(t, err)
	assert.Nil(t, res.Request)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 0, res.Rejected[0].Result.Remaining)
}

func TestCheckout_TodoRechazadoConservaElCarrito(t *testing.T) {
	ctx := context.Background()
	g, ledger, _ := newGate(t, map[string]int{"toner": 2})
	_, err := g.AddToCart(ctx, staff, "toner", 2)
	require.NoError(t, err)
	require.NoError(t, ledger.Consume(ctx, staff.UnitID, "toner", march, 2))

	res, err := g.Checkout(ctx, staff, "", "")

	require.NoError(t, err)
	assert.Nil(t, res.Request)
	require.Len(t, res.Rejected, 1)
	assert.Equal(t, 2, cartQty(t, g, "toner"))
}
