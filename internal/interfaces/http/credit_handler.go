package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/credit"
	"github.com/jhoicas/Suministros-api/internal/application/dto"
)

// CreditHandler maneja la emisión contra crédito y los saldos por categoría.
type CreditHandler struct {
	pool *credit.Pool
}

// NewCreditHandler construye el handler.
func NewCreditHandler(pool *credit.Pool) *CreditHandler {
	return &CreditHandler{pool: pool}
}

// Issue godoc
// @Summary      Emitir reserva contra crédito
// @Description  Debita el saldo de la categoría exactamente una vez. Repetir sobre una reserva ya
//
//	emitida solo actualiza referencia e instrucciones (already_issued=true).
//
// @Tags         credit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.IssueRequest  true  "request_id, amount, booking_reference"
// @Success      200   {object}  credit.IssueResult
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/credit/issue [post]
func (h *CreditHandler) Issue(c *fiber.Ctx) error {
	var in dto.IssueRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	res, err := h.pool.IssueAgainstCredit(c.Context(), credit.IssueInput{
		RequestID:        in.RequestID,
		Category:         in.Category,
		Amount:           in.Amount,
		BookingReference: in.BookingReference,
		Instructions:     in.Instructions,
		Actor:            GetActor(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Balances godoc
// @Summary      Saldos de crédito por categoría
// @Tags         credit
// @Security     Bearer
// @Produce      json
// @Success      200  {array}  dto.CreditBalanceDTO
// @Router       /api/credit/balances [get]
func (h *CreditHandler) Balances(c *fiber.Ctx) error {
	list, err := h.pool.Balances(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make([]dto.CreditBalanceDTO, 0, len(list))
	for _, b := range list {
		out = append(out, dto.FromCreditBalance(b))
	}
	return c.JSON(out)
}

// Provision godoc
// @Summary      Definir límite de una categoría de crédito
// @Tags         credit
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        category  path  string                  true  "Categoría (p.ej. PAL, CEB)"
// @Param        body      body  dto.CreditLimitRequest  true  "limit"
// @Success      200   {object}  dto.CreditBalanceDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Router       /api/credit/{category} [put]
func (h *CreditHandler) Provision(c *fiber.Ctx) error {
	var in dto.CreditLimitRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	b, err := h.pool.ProvisionCategory(c.Context(), c.Params("category"), in.Limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromCreditBalance(b))
}
