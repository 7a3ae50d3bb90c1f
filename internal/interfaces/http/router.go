package http

import (
	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Suministros-api/internal/application/allocation"
	"github.com/jhoicas/Suministros-api/internal/application/credit"
	"github.com/jhoicas/Suministros-api/internal/application/fulfillment"
	"github.com/jhoicas/Suministros-api/internal/application/inventory"
	"github.com/jhoicas/Suministros-api/internal/application/reservation"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
)

// RouterDeps dependencias para el router.
type RouterDeps struct {
	Gate      *reservation.Gate
	Machine   *fulfillment.StateMachine
	Ledger    *allocation.Ledger
	Stock     *inventory.BatchPool
	Credits   *credit.Pool
	Slips     slipGenerator
	JWTSecret string
}

// Router registra las rutas de la API. Todas requieren Bearer Token.
func Router(app *fiber.App, deps RouterDeps) {
	api := app.Group("/api", AuthMiddleware(deps.JWTSecret))
	adminOnly := RequireRole(entity.RoleAdmin)

	// Carrito y verificación de cuota
	cart := api.Group("/cart")
	cartHandler := NewCartHandler(deps.Gate)
	cart.Post("/check", cartHandler.Check)
	cart.Get("/", cartHandler.Get)
	cart.Post("/items", cartHandler.Add)
	cart.Put("/items/:product_id", cartHandler.Update)
	cart.Delete("/items/:product_id", cartHandler.Remove)
	cart.Post("/checkout", cartHandler.Checkout)

	// Solicitudes (pedidos y reservas)
	requests := api.Group("/requests")
	requestHandler := NewRequestHandler(deps.Machine, deps.Slips)
	requests.Get("/", requestHandler.List)
	requests.Get("/counts", adminOnly, requestHandler.Counts)
	requests.Get("/:id", requestHandler.GetByID)
	requests.Get("/:id/slip.pdf", requestHandler.Slip)
	requests.Post("/:id/transition", requestHandler.Transition)
	api.Post("/bookings", requestHandler.CreateBooking)

	// Crédito
	creditGroup := api.Group("/credit")
	creditHandler := NewCreditHandler(deps.Credits)
	creditGroup.Post("/issue", adminOnly, creditHandler.Issue)
	creditGroup.Get("/balances", creditHandler.Balances)
	creditGroup.Put("/:category", adminOnly, creditHandler.Provision)

	// Stock por lotes
	stock := api.Group("/stock")
	stockHandler := NewStockHandler(deps.Stock)
	stock.Post("/batches", adminOnly, stockHandler.Receive)
	stock.Get("/low", stockHandler.LowStock)
	stock.Get("/:product_id", stockHandler.GetProduct)

	// Planes de asignación
	allocations := api.Group("/allocations")
	allocationHandler := NewAllocationHandler(deps.Ledger)
	allocations.Put("/", adminOnly, allocationHandler.Provision)
	allocations.Get("/summary", allocationHandler.Summary)
}
