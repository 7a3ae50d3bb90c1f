// Package memory implementa la persistencia del motor en memoria de proceso, con las mismas
// garantías transaccionales que Postgres: bloqueos por fila con espera acotada y escrituras
// que solo se publican al confirmar.
package memory

import (
	"context"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

type planKey struct {
	unitID    string
	productID string
	year      int
}

// Store contiene el estado confirmado.
type Store struct {
	mu        sync.RWMutex
	plans     map[planKey]*entity.AllocationPlan
	batches   map[string]*entity.StockBatch
	requests  map[string]*entity.FulfillmentRequest
	credits   map[string]*entity.CreditBalance
	movements []*entity.Movement

	seq         atomic.Int64
	locks       *lockManager
	lockTimeout time.Duration
}

// NewStore crea un almacén vacío. lockTimeout acota la espera de cada bloqueo.
func NewStore(lockTimeout time.Duration) *Store {
	if lockTimeout <= 0 {
		lockTimeout = 3 * time.Second
	}
	return &Store{
		plans:       make(map[planKey]*entity.AllocationPlan),
		batches:     make(map[string]*entity.StockBatch),
		requests:    make(map[string]*entity.FulfillmentRequest),
		credits:     make(map[string]*entity.CreditBalance),
		locks:       newLockManager(),
		lockTimeout: lockTimeout,
	}
}

// TxRunner implementa ports.TxRunner sobre un Store.
type TxRunner struct {
	store *Store
}

// NewTxRunner construye el ejecutor de transacciones en memoria.
func NewTxRunner(store *Store) *TxRunner {
	return &TxRunner{store: store}
}

// Run ejecuta fn con repositorios atados a una transacción nueva. Si fn devuelve error las
// escrituras se descartan; si no, se publican juntas. Los bloqueos se liberan al final.
func (r *TxRunner) Run(ctx context.Context, fn func(repos repository.Repos) error) error {
	t := newTx(r.store)
	defer t.releaseAll()

	if err := fn(t.repos()); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	t.commit()
	return nil
}

// tx acumula escrituras y bloqueos de una transacción.
type tx struct {
	store *Store
	held  map[string]struct{}
	order []string

	plans     map[planKey]*entity.AllocationPlan
	batches   map[string]*entity.StockBatch
	requests  map[string]*entity.FulfillmentRequest
	credits   map[string]*entity.CreditBalance
	movements []*entity.Movement
}

func newTx(store *Store) *tx {
	return &tx{
		store:    store,
		held:     make(map[string]struct{}),
		plans:    make(map[planKey]*entity.AllocationPlan),
		batches:  make(map[string]*entity.StockBatch),
		requests: make(map[string]*entity.FulfillmentRequest),
		credits:  make(map[string]*entity.CreditBalance),
	}
}

func (t *tx) repos() repository.Repos {
	return repository.Repos{
		Allocations: &AllocationRepository{tx: t},
		Batches:     &StockBatchRepository{tx: t},
		Requests:    &RequestRepository{tx: t},
		Credits:     &CreditRepository{tx: t},
		Movements:   &MovementRepository{tx: t},
	}
}

// lock toma el candado de key si la transacción aún no lo tiene (reentrante).
func (t *tx) lock(ctx context.Context, key string) error {
	if _, ok := t.held[key]; ok {
		return nil
	}
	if err := t.store.locks.acquire(ctx, key, t.store.lockTimeout); err != nil {
		return err
	}
	t.held[key] = struct{}{}
	t.order = append(t.order, key)
	return nil
}

func (t *tx) releaseAll() {
	for i := len(t.order) - 1; i >= 0; i-- {
		t.store.locks.release(t.order[i])
	}
	t.held = nil
	t.order = nil
}

func (t *tx) commit() {
	s := t.store
	s.mu.Lock()
	defer s.mu.Unlock()
	for k, p := range t.plans {
		s.plans[k] = p
	}
	for id, b := range t.batches {
		s.batches[id] = b
	}
	for id, r := range t.requests {
		s.requests[id] = r
	}
	for c, b := range t.credits {
		s.credits[c] = b
	}
	s.movements = append(s.movements, t.movements...)
}

func planLockKey(k planKey) string {
	return "plan:" + k.unitID + "|" + k.productID + "|" + strconv.Itoa(k.year)
}

func batchesLockKey(productID string) string { return "batches:" + productID }
func requestLockKey(id string) string        { return "request:" + id }
func creditLockKey(category string) string   { return "credit:" + category }

func clonePlan(p *entity.AllocationPlan) *entity.AllocationPlan {
	if p == nil {
		return nil
	}
	c := *p
	return &c
}

func cloneBatch(b *entity.StockBatch) *entity.StockBatch {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}

func cloneRequest(r *entity.FulfillmentRequest) *entity.FulfillmentRequest {
	if r == nil {
		return nil
	}
	c := *r
	c.Lines = append([]entity.RequestLine(nil), r.Lines...)
	return &c
}

func cloneCredit(b *entity.CreditBalance) *entity.CreditBalance {
	if b == nil {
		return nil
	}
	c := *b
	return &c
}
