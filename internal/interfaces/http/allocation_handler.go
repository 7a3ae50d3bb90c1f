package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/allocation"
	"github.com/jhoicas/Suministros-api/internal/application/dto"
)

// AllocationHandler maneja los planes anuales de asignación por unidad.
type AllocationHandler struct {
	ledger *allocation.Ledger
}

// NewAllocationHandler construye el handler.
func NewAllocationHandler(ledger *allocation.Ledger) *AllocationHandler {
	return &AllocationHandler{ledger: ledger}
}

// Provision godoc
// @Summary      Crear o actualizar plan de asignación
// @Description  Ningún mes puede quedar con asignación menor a lo ya consumido.
// @Tags         allocations
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.ProvisionPlanRequest  true  "unit_id, product_id, year, monthly_caps[12]"
// @Success      200   {object}  dto.AllocationPlanDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/allocations [put]
func (h *AllocationHandler) Provision(c *fiber.Ctx) error {
	var in dto.ProvisionPlanRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	plan, err := h.ledger.ProvisionPlan(c.Context(), allocation.PlanInput{
		UnitID:      in.UnitID,
		ProductID:   in.ProductID,
		Year:        in.Year,
		MonthlyCaps: in.MonthlyCaps,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromPlan(plan))
}

// Summary godoc
// @Summary      Resumen de cuota del mes
// @Description  Asignación, consumo y restante del mes vigente por producto. Admin puede pasar unit_id.
// @Tags         allocations
// @Security     Bearer
// @Produce      json
// @Param        unit_id  query  string  false  "Unidad (solo admin)"
// @Success      200  {array}  allocation.PlanSummary
// @Router       /api/allocations/summary [get]
func (h *AllocationHandler) Summary(c *fiber.Ctx) error {
	actor := GetActor(c)
	unitID := actor.UnitID
	if q := c.Query("unit_id"); q != "" && actor.Privileged {
		unitID = q
	}
	list, err := h.ledger.Summary(c.Context(), unitID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(list)
}
