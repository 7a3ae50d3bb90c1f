package dto

// CheckAllowanceRequest body para POST /api/cart/check.
type CheckAllowanceRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
	InFlight  int    `json:"in_flight"` // unidades ya en el carrito que cuentan contra la cuota
}

// CartItemRequest body para POST /api/cart/items.
type CartItemRequest struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// CartQuantityRequest body para PUT /api/cart/items/:product_id. Cantidad 0 quita la línea.
type CartQuantityRequest struct {
	Quantity int `json:"quantity"`
}

// CheckoutRequest body para POST /api/cart/checkout.
type CheckoutRequest struct {
	EmployeeName string `json:"employee_name"`
	Remarks      string `json:"remarks"`
}
