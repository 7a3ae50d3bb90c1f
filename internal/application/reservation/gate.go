package reservation

import (
	"context"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"github.com/jhoicas/Suministros-api/internal/application/allocation"
	"github.com/jhoicas/Suministros-api/internal/application/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// CartKey identifica el carrito de un usuario dentro de su unidad.
type CartKey struct {
	UnitID string
	UserID string
}

// CartStore guarda cantidades en vuelo por producto. Reserve es atómico: suma delta solo si
// la cantidad resultante no supera limit.
type CartStore interface {
	Reserve(ctx context.Context, key CartKey, productID string, delta, limit int) (newQty int, ok bool, err error)
	Set(ctx context.Context, key CartKey, productID string, qty int) error
	Remove(ctx context.Context, key CartKey, productID string) error
	Items(ctx context.Context, key CartKey) (map[string]int, error)
	Clear(ctx context.Context, key CartKey) error
}

// CartItem es una línea del carrito.
type CartItem struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// AddResult resultado de agregar al carrito.
type AddResult struct {
	allocation.AllowanceResult
	CartQuantity int `json:"cart_quantity"`
}

// RejectedLine es una línea del carrito descartada al confirmar.
type RejectedLine struct {
	ProductID string                     `json:"product_id"`
	Quantity  int                        `json:"quantity"`
	Result    allocation.AllowanceResult `json:"result"`
}

// CheckoutResult contiene el borrador creado y las líneas rechazadas con su motivo.
type CheckoutResult struct {
	Request  *entity.FulfillmentRequest `json:"request"`
	Rejected []RejectedLine             `json:"rejected"`
}

// Gate es la verificación de entrada: decide si una cantidad cabe en la cuota del mes
// contando lo que ya está en vuelo (el carrito y los pedidos DRAFT o PENDING de la unidad),
// sin tocar lo comprometido.
type Gate struct {
	ledger  *allocation.Ledger
	machine *fulfillment.StateMachine
	carts   CartStore
	clock   ports.Clock
	log     zerolog.Logger
}

// NewGate construye la compuerta de reservas.
func NewGate(ledger *allocation.Ledger, machine *fulfillment.StateMachine, carts CartStore, clock ports.Clock, log zerolog.Logger) *Gate {
	return &Gate{
		ledger:  ledger,
		machine: machine,
		carts:   carts,
		clock:   clock,
		log:     log.With().Str("component", "reservation").Logger(),
	}
}

// Check evalúa la cuota del periodo vigente para qty. inFlight es lo que el llamador ya tiene
// en su carrito; se le suman los pedidos de la unidad aún no aprobados.
func (g *Gate) Check(ctx context.Context, unitID, productID string, qty, inFlight int) (allocation.AllowanceResult, error) {
	if qty <= 0 {
		return allocation.AllowanceResult{}, domain.ErrInvalidInput
	}
	res, _, err := g.evaluate(ctx, unitID, productID, qty, inFlight)
	return res, err
}

// evaluate devuelve el resultado y la cantidad pedida por la unidad en DRAFT o PENDING.
func (g *Gate) evaluate(ctx context.Context, unitID, productID string, qty, cartQty int) (allocation.AllowanceResult, int, error) {
	period := entity.PeriodOf(g.clock.Now())
	pending, err := g.machine.PendingQuantities(ctx, unitID, period)
	if err != nil {
		return allocation.AllowanceResult{}, 0, err
	}
	p := pending[productID]
	res, err := g.ledger.CheckAllowance(ctx, unitID, productID, period, qty, cartQty+p)
	if err != nil {
		return allocation.AllowanceResult{}, 0, err
	}
	return res, p, nil
}

// AddToCart suma qty al carrito si consumido + pedidos pendientes + carrito + qty cabe en la
// asignación del mes.
func (g *Gate) AddToCart(ctx context.Context, actor entity.Actor, productID string, qty int) (AddResult, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" || qty <= 0 {
		return AddResult{}, domain.ErrInvalidInput
	}
	key := CartKey{UnitID: actor.UnitID, UserID: actor.UserID}
	items, err := g.carts.Items(ctx, key)
	if err != nil {
		return AddResult{}, err
	}
	inCart := items[productID]
	res, pending, err := g.evaluate(ctx, actor.UnitID, productID, qty, inCart)
	if err != nil {
		return AddResult{}, err
	}
	if !res.Allowed {
		g.logRejected(actor, productID, qty, res)
		return AddResult{AllowanceResult: res, CartQuantity: inCart}, nil
	}
	// Otra pestaña pudo sumar entre la lectura y la escritura: la reserva revalida el tope.
	newQty, ok, err := g.carts.Reserve(ctx, key, productID, qty, res.Cap-res.Consumed-pending)
	if err != nil {
		return AddResult{}, err
	}
	if !ok {
		res, _, err = g.evaluate(ctx, actor.UnitID, productID, qty, newQty)
		if err != nil {
			return AddResult{}, err
		}
		res.Allowed = false
		res.Reason = allocation.ReasonQuotaExceeded
		g.logRejected(actor, productID, qty, res)
	}
	return AddResult{AllowanceResult: res, CartQuantity: newQty}, nil
}

// UpdateCart fija la cantidad de un producto. La cantidad nueva reemplaza la del carrito y se
// valida junto a los pedidos pendientes de la unidad; qty <= 0 lo elimina.
func (g *Gate) UpdateCart(ctx context.Context, actor entity.Actor, productID string, qty int) (AddResult, error) {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return AddResult{}, domain.ErrInvalidInput
	}
	key := CartKey{UnitID: actor.UnitID, UserID: actor.UserID}
	if qty <= 0 {
		if err := g.carts.Remove(ctx, key, productID); err != nil {
			return AddResult{}, err
		}
		return AddResult{AllowanceResult: allocation.AllowanceResult{Allowed: true, Reason: allocation.ReasonOK}}, nil
	}
	res, _, err := g.evaluate(ctx, actor.UnitID, productID, qty, 0)
	if err != nil {
		return AddResult{}, err
	}
	if !res.Allowed {
		g.logRejected(actor, productID, qty, res)
		items, err := g.carts.Items(ctx, key)
		if err != nil {
			return AddResult{}, err
		}
		return AddResult{AllowanceResult: res, CartQuantity: items[productID]}, nil
	}
	if err := g.carts.Set(ctx, key, productID, qty); err != nil {
		return AddResult{}, err
	}
	return AddResult{AllowanceResult: res, CartQuantity: qty}, nil
}

// RemoveFromCart quita el producto del carrito.
func (g *Gate) RemoveFromCart(ctx context.Context, actor entity.Actor, productID string) error {
	return g.carts.Remove(ctx, CartKey{UnitID: actor.UnitID, UserID: actor.UserID}, productID)
}

// Cart devuelve las líneas del carrito ordenadas por producto.
func (g *Gate) Cart(ctx context.Context, actor entity.Actor) ([]CartItem, error) {
	items, err := g.carts.Items(ctx, CartKey{UnitID: actor.UnitID, UserID: actor.UserID})
	if err != nil {
		return nil, err
	}
	out := make([]CartItem, 0, len(items))
	for id, q := range items {
		out = append(out, CartItem{ProductID: id, Quantity: q})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// Checkout revalida cada línea del carrito contra la cuota y los pedidos pendientes de la
// unidad, y crea el borrador con las que caben.
// Las demás se devuelven como rechazadas. Si ninguna cabe no se crea borrador y el carrito queda intacto.
func (g *Gate) Checkout(ctx context.Context, actor entity.Actor, employeeName, remarks string) (CheckoutResult, error) {
	key := CartKey{UnitID: actor.UnitID, UserID: actor.UserID}
	items, err := g.Cart(ctx, actor)
	if err != nil {
		return CheckoutResult{}, err
	}
	if len(items) == 0 {
		return CheckoutResult{}, domain.ErrInvalidInput
	}
	result := CheckoutResult{Rejected: []RejectedLine{}}
	lines := make([]entity.RequestLine, 0, len(items))
	for _, it := range items {
		res, _, err := g.evaluate(ctx, actor.UnitID, it.ProductID, it.Quantity, 0)
		if err != nil {
			return CheckoutResult{}, err
		}
		if !res.Allowed {
			g.logRejected(actor, it.ProductID, it.Quantity, res)
			result.Rejected = append(result.Rejected, RejectedLine{ProductID: it.ProductID, Quantity: it.Quantity, Result: res})
			continue
		}
		lines = append(lines, entity.RequestLine{ProductID: it.ProductID, Quantity: it.Quantity})
	}
	if len(lines) == 0 {
		return result, nil
	}
	req, err := g.machine.CreateDraft(ctx, fulfillment.DraftInput{
		UnitID:       actor.UnitID,
		RequestedBy:  actor.UserID,
		EmployeeName: employeeName,
		Lines:        lines,
		Remarks:      remarks,
	})
	if err != nil {
		return CheckoutResult{}, err
	}
	result.Request = req
	if err := g.carts.Clear(ctx, key); err != nil {
		g.log.Error().Err(err).Str("user_id", actor.UserID).Msg("no se pudo vaciar el carrito")
	}
	return result, nil
}

func (g *Gate) logRejected(actor entity.Actor, productID string, qty int, res allocation.AllowanceResult) {
	g.log.Warn().
		Str("unit_id", actor.UnitID).
		Str("user_id", actor.UserID).
		Str("product_id", productID).
		Int("requested", qty).
		Int("remaining", res.Remaining).
		Str("reason", string(res.Reason)).
		Msg("cuota rechazada en la compuerta")
}
