package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/dto"
	"github.com/jhoicas/Suministros-api/internal/application/reservation"
)

// CartHandler expone la verificación de cuota y el carrito del usuario (protegido).
type CartHandler struct {
	gate *reservation.Gate
}

// NewCartHandler construye el handler.
func NewCartHandler(gate *reservation.Gate) *CartHandler {
	return &CartHandler{gate: gate}
}

// Check godoc
// @Summary      Verificar cuota disponible
// @Description  Evalúa si la cantidad cabe en la asignación del mes vigente de la unidad del token.
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckAllowanceRequest  true  "product_id, quantity, in_flight"
// @Success      200   {object}  allocation.AllowanceResult
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/cart/check [post]
func (h *CartHandler) Check(c *fiber.Ctx) error {
	var in dto.CheckAllowanceRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.gate.Check(c.Context(), GetUnitID(c), in.ProductID, in.Quantity, in.InFlight)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Get godoc
// @Summary      Ver carrito
// @Tags         cart
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  reservation.CartItem
// @Router       /api/cart [get]
func (h *CartHandler) Get(c *fiber.Ctx) error {
	items, err := h.gate.Cart(c.Context(), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"items": items, "total": len(items)})
}

// Add godoc
// @Summary      Agregar al carrito
// @Description  Reserva la cantidad en el carrito si cabe en la cuota. Rechazo → 409 con el motivo.
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CartItemRequest  true  "product_id, quantity"
// @Success      201   {object}  reservation.AddResult
// @Failure      409   {object}  reservation.AddResult
// @Router       /api/cart/items [post]
func (h *CartHandler) Add(c *fiber.Ctx) error {
	var in dto.CartItemRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.gate.AddToCart(c.Context(), GetActor(c), in.ProductID, in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	if !res.Allowed {
		return c.Status(fiber.StatusConflict).JSON(res)
	}
	return c.Status(fiber.StatusCreated).JSON(res)
}

// Update godoc
// @Summary      Cambiar cantidad en el carrito
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        product_id  path  string                   true  "Producto"
// @Param        body        body  dto.CartQuantityRequest  true  "quantity (0 quita la línea)"
// @Success      200   {object}  reservation.AddResult
// @Failure      409   {object}  reservation.AddResult
// @Router       /api/cart/items/{product_id} [put]
func (h *CartHandler) Update(c *fiber.Ctx) error {
	var in dto.CartQuantityRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.gate.UpdateCart(c.Context(), GetActor(c), c.Params("product_id"), in.Quantity)
	if err != nil {
		return writeError(c, err)
	}
	if !res.Allowed {
		return c.Status(fiber.StatusConflict).JSON(res)
	}
	return c.JSON(res)
}

// Remove godoc
// @Summary      Quitar del carrito
// @Tags         cart
// @Security     Bearer
// @Param        product_id  path  string  true  "Producto"
// @Success      204
// @Router       /api/cart/items/{product_id} [delete]
func (h *CartHandler) Remove(c *fiber.Ctx) error {
	if err := h.gate.RemoveFromCart(c.Context(), GetActor(c), c.Params("product_id")); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// Checkout godoc
// @Summary      Confirmar carrito
// @Description  Crea el pedido en DRAFT con las líneas que aún caben en la cuota y vacía el carrito.
// @Description  Si ninguna línea cabe, responde 409 con los rechazos y el carrito queda intacto.
// @Tags         cart
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.CheckoutRequest  false  "employee_name, remarks"
// @Success      201   {object}  map[string]interface{}
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      409   {object}  map[string]interface{}
// @Router       /api/cart/checkout [post]
func (h *CartHandler) Checkout(c *fiber.Ctx) error {
	var in dto.CheckoutRequest
	if len(c.Body()) > 0 {
		if err := c.BodyParser(&in); err != nil {
			return badBody(c)
		}
	}
	res, err := h.gate.Checkout(c.Context(), GetActor(c), in.EmployeeName, in.Remarks)
	if err != nil {
		return writeError(c, err)
	}
	if res.Request == nil {
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{"request": nil, "rejected": res.Rejected})
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{
		"request":  dto.FromRequest(res.Request),
		"rejected": res.Rejected,
	})
}
