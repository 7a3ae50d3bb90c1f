package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/dto"
	"github.com/jhoicas/Suministros-api/internal/application/inventory"
)

// StockHandler maneja la recepción de lotes y las consultas de stock.
type StockHandler struct {
	pool *inventory.BatchPool
}

// NewStockHandler construye el handler.
func NewStockHandler(pool *inventory.BatchPool) *StockHandler {
	return &StockHandler{pool: pool}
}

// Receive godoc
// @Summary      Recibir lote
// @Tags         stock
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ReceiveBatchRequest  true  "product_id, batch_number, quantity, cost_per_item"
// @Success      201   {object}  dto.StockBatchDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/stock/batches [post]
func (h *StockHandler) Receive(c *fiber.Ctx) error {
	var in dto.ReceiveBatchRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.pool.Receive(c.Context(), inventory.ReceiveInput{
		ProductID:    in.ProductID,
		BatchNumber:  in.BatchNumber,
		SupplierName: in.SupplierName,
		Quantity:     in.Quantity,
		CostPerItem:  in.CostPerItem,
		ReceivedAt:   in.ReceivedAt,
		UserID:       GetUserID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromBatch(b))
}

// GetProduct godoc
// @Summary      Stock de un producto
// @Description  Resumen (remanente, costo promedio, valor) y lotes en orden FIFO.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Param        product_id  path  string  true  "Producto"
// @Success      200  {object}  dto.ProductStockResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/stock/{product_id} [get]
func (h *StockHandler) GetProduct(c *fiber.Ctx) error {
	productID := c.Params("product_id")
	level, err := h.pool.Levels(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	batches, err := h.pool.Batches(c.Context(), productID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.NewProductStockResponse(level, batches))
}

// LowStock godoc
// @Summary      Lista de reposición
// @Description  Productos con remanente en o bajo el umbral, con la cantidad sugerida de pedido.
// @Tags         stock
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]interface{}
// @Router       /api/stock/low [get]
func (h *StockHandler) LowStock(c *fiber.Ctx) error {
	list, err := h.pool.LowStock(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"total":          len(list),
		"replenishments": list,
	})
}
