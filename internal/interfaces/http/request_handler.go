package http

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/dto"
	"github.com/jhoicas/Suministros-api/internal/application/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// slipGenerator es el contrato mínimo para imprimir la boleta de requisición.
// Lo implementa *pdf.SlipGenerator.
type slipGenerator interface {
	GenerateSlip(ctx context.Context, req *entity.FulfillmentRequest) ([]byte, error)
}

// RequestHandler maneja el ciclo de vida de las solicitudes (protegido).
type RequestHandler struct {
	machine *fulfillment.StateMachine
	slips   slipGenerator
}

// NewRequestHandler construye el handler. slips puede ser nil (sin impresión).
func NewRequestHandler(machine *fulfillment.StateMachine, slips slipGenerator) *RequestHandler {
	return &RequestHandler{machine: machine, slips: slips}
}

// List godoc
// @Summary      Listar solicitudes
// @Description  Los usuarios no admin solo ven las solicitudes de su unidad.
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        status  query  string  false  "DRAFT|PENDING|APPROVED|DELIVERED|ISSUED|SETTLED|RETURNED"
// @Param        kind    query  string  false  "GOODS|CREDIT"
// @Param        unit_id query  string  false  "Unidad (solo admin)"
// @Param        from    query  string  false  "Desde (RFC3339 o AAAA-MM-DD)"
// @Param        to      query  string  false  "Hasta (RFC3339 o AAAA-MM-DD)"
// @Param        limit   query  int     false  "Máximo 100"
// @Param        offset  query  int     false  "Desplazamiento"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/requests [get]
func (h *RequestHandler) List(c *fiber.Ctx) error {
	var q dto.RequestListQuery
	if err := c.QueryParser(&q); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{Code: "INVALID_QUERY", Message: "parámetros inválidos"})
	}
	page := dto.PageRequest{Limit: q.Limit, Offset: q.Offset}
	page.DefaultPage()
	filter := repository.RequestFilter{
		Status: entity.Status(strings.ToUpper(strings.TrimSpace(q.Status))),
		Kind:   entity.Kind(strings.ToUpper(strings.TrimSpace(q.Kind))),
		UnitID: strings.TrimSpace(q.UnitID),
		Limit:  page.Limit,
		Offset: page.Offset,
	}
	var err error
	if filter.From, err = parseDateParam(q.From); err != nil {
		return writeError(c, err)
	}
	if filter.To, err = parseDateParam(q.To); err != nil {
		return writeError(c, err)
	}
	list, total, err := h.machine.List(c.Context(), filter, GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"items": dto.FromRequests(list),
		"page":  dto.PageResponse{Limit: page.Limit, Offset: page.Offset, Total: total},
	})
}

// Counts godoc
// @Summary      Conteo de solicitudes por estado
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Success      200  {object}  map[string]int
// @Router       /api/requests/counts [get]
func (h *RequestHandler) Counts(c *fiber.Ctx) error {
	counts, err := h.machine.Counts(c.Context())
	if err != nil {
		return writeError(c, err)
	}
	out := make(map[string]int, len(counts))
	for st, n := range counts {
		out[string(st)] = n
	}
	return c.JSON(out)
}

// GetByID godoc
// @Summary      Obtener solicitud
// @Tags         requests
// @Security     Bearer
// @Produce      json
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {object}  dto.FulfillmentRequestDTO
// @Failure      403  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id} [get]
func (h *RequestHandler) GetByID(c *fiber.Ctx) error {
	req, err := h.machine.Get(c.Context(), c.Params("id"), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(dto.FromRequest(req))
}

// Transition godoc
// @Summary      Cambiar estado de una solicitud
// @Description  Aprobar compromete cuota y stock de todas las líneas o de ninguna. Devolver revierte lo comprometido.
// @Tags         requests
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        id    path  string                 true  "ID de la solicitud"
// @Param        body  body  dto.TransitionRequest  true  "target, remarks"
// @Success      200   {object}  fulfillment.TransitionResult
// @Failure      403   {object}  dto.ErrorResponse
// @Failure      409   {object}  dto.ErrorResponse
// @Failure      503   {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/transition [post]
func (h *RequestHandler) Transition(c *fiber.Ctx) error {
	var in dto.TransitionRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	target := entity.Status(strings.ToUpper(strings.TrimSpace(in.Target)))
	if target == "" {
		return writeError(c, domain.ErrInvalidInput)
	}
	var res fulfillment.TransitionResult
	var err error
	if target == entity.StatusReturned {
		res, err = h.machine.Return(c.Context(), c.Params("id"), in.Remarks, GetActor(c))
	} else {
		res, err = h.machine.Transition(c.Context(), c.Params("id"), target, GetActor(c))
	}
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(res)
}

// Slip godoc
// @Summary      Boleta de requisición en PDF
// @Tags         requests
// @Security     Bearer
// @Produce      application/pdf
// @Param        id   path  string  true  "ID de la solicitud"
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/requests/{id}/slip.pdf [get]
func (h *RequestHandler) Slip(c *fiber.Ctx) error {
	if h.slips == nil {
		return c.Status(fiber.StatusNotImplemented).JSON(dto.ErrorResponse{Code: "NOT_AVAILABLE", Message: "impresión no configurada"})
	}
	req, err := h.machine.Get(c.Context(), c.Params("id"), GetActor(c))
	if err != nil {
		return writeError(c, err)
	}
	pdfBytes, err := h.slips.GenerateSlip(c.Context(), req)
	if err != nil {
		return writeError(c, err)
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`inline; filename="requisicion-%s.pdf"`, req.ID))
	return c.Send(pdfBytes)
}

// CreateBooking godoc
// @Summary      Crear reserva contra crédito
// @Tags         bookings
// @Security     Bearer
// @Accept       json
// @Produce      json
// @Param        body  body  dto.BookingRequest  true  "credit_category, estimated_cost, instructions"
// @Success      201   {object}  dto.FulfillmentRequestDTO
// @Failure      400   {object}  dto.ErrorResponse
// @Failure      404   {object}  dto.ErrorResponse
// @Router       /api/bookings [post]
func (h *RequestHandler) CreateBooking(c *fiber.Ctx) error {
	var in dto.BookingRequest
	if err := c.BodyParser(&in); err != nil {
		return badBody(c)
	}
	actor := GetActor(c)
	req, err := h.machine.CreateBooking(c.Context(), fulfillment.BookingInput{
		UnitID:         actor.UnitID,
		RequestedBy:    actor.UserID,
		EmployeeName:   in.EmployeeName,
		CreditCategory: in.CreditCategory,
		EstimatedCost:  in.EstimatedCost,
		Instructions:   in.Instructions,
		Remarks:        in.Remarks,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(dto.FromRequest(req))
}

// parseDateParam acepta RFC3339 o AAAA-MM-DD; vacío devuelve nil.
func parseDateParam(s string) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return &t, nil
		}
	}
	return nil, fmt.Errorf("fecha %q: %w", s, domain.ErrInvalidInput)
}
