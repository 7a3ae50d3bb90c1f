package repository

// Repos agrupa los repositorios atados a una misma transacción.
type Repos struct {
	Allocations AllocationRepository
	Batches     StockBatchRepository
	Requests    RequestRepository
	Credits     CreditRepository
	Movements   MovementRepository
}
