package memory

import (
	"context"
	"fmt"
	"sort"

	"github.com/google/uuid"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/inventory"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

var (
	_ repository.AllocationRepository = (*AllocationRepository)(nil)
	_ repository.StockBatchRepository = (*StockBatchRepository)(nil)
	_ repository.RequestRepository    = (*RequestRepository)(nil)
	_ repository.CreditRepository     = (*CreditRepository)(nil)
	_ repository.MovementRepository   = (*MovementRepository)(nil)
)

// ── Planes de asignación ─────────────────────────────────────────────────────

// AllocationRepository implementa repository.AllocationRepository en memoria.
type AllocationRepository struct {
	tx *tx
}

func (r *AllocationRepository) Get(_ context.Context, unitID, productID string, year int) (*entity.AllocationPlan, error) {
	k := planKey{unitID, productID, year}
	if p, ok := r.tx.plans[k]; ok {
		return clonePlan(p), nil
	}
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return clonePlan(s.plans[k]), nil
}

func (r *AllocationRepository) GetForUpdate(ctx context.Context, unitID, productID string, year int) (*entity.AllocationPlan, error) {
	if err := r.tx.lock(ctx, planLockKey(planKey{unitID, productID, year})); err != nil {
		return nil, err
	}
	return r.Get(ctx, unitID, productID, year)
}

func (r *AllocationRepository) Upsert(ctx context.Context, plan *entity.AllocationPlan) error {
	k := planKey{plan.UnitID, plan.ProductID, plan.Year}
	if err := r.tx.lock(ctx, planLockKey(k)); err != nil {
		return err
	}
	if plan.ID == "" {
		plan.ID = uuid.New().String()
	}
	r.tx.plans[k] = clonePlan(plan)
	return nil
}

func (r *AllocationRepository) UpdateConsumption(ctx context.Context, plan *entity.AllocationPlan) error {
	existing, err := r.GetForUpdate(ctx, plan.UnitID, plan.ProductID, plan.Year)
	if err != nil {
		return err
	}
	if existing == nil {
		return domain.ErrNotFound
	}
	existing.Consumed = plan.Consumed
	existing.UpdatedAt = plan.UpdatedAt
	r.tx.plans[planKey{plan.UnitID, plan.ProductID, plan.Year}] = existing
	return nil
}

func (r *AllocationRepository) ListByUnit(_ context.Context, unitID string, year int) ([]*entity.AllocationPlan, error) {
	merged := make(map[planKey]*entity.AllocationPlan)
	s := r.tx.store
	s.mu.RLock()
	for k, p := range s.plans {
		if k.unitID == unitID && k.year == year {
			merged[k] = p
		}
	}
	s.mu.RUnlock()
	for k, p := range r.tx.plans {
		if k.unitID == unitID && k.year == year {
			merged[k] = p
		}
	}
	out := make([]*entity.AllocationPlan, 0, len(merged))
	for _, p := range merged {
		out = append(out, clonePlan(p))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ProductID < out[j].ProductID })
	return out, nil
}

// ── Lotes ────────────────────────────────────────────────────────────────────

// StockBatchRepository implementa repository.StockBatchRepository en memoria.
type StockBatchRepository struct {
	tx *tx
}

func (r *StockBatchRepository) Create(ctx context.Context, batch *entity.StockBatch) error {
	if err := r.tx.lock(ctx, batchesLockKey(batch.ProductID)); err != nil {
		return err
	}
	if batch.ID == "" {
		batch.ID = uuid.New().String()
	}
	batch.Seq = r.tx.store.seq.Add(1)
	r.tx.batches[batch.ID] = cloneBatch(batch)
	return nil
}

func (r *StockBatchRepository) ListByProduct(_ context.Context, productID string) ([]*entity.StockBatch, error) {
	merged := make(map[string]*entity.StockBatch)
	s := r.tx.store
	s.mu.RLock()
	for id, b := range s.batches {
		if b.ProductID == productID {
			merged[id] = b
		}
	}
	s.mu.RUnlock()
	for id, b := range r.tx.batches {
		if b.ProductID == productID {
			merged[id] = b
		}
	}
	out := make([]*entity.StockBatch, 0, len(merged))
	for _, b := range merged {
		out = append(out, cloneBatch(b))
	}
	inventory.SortFIFO(out)
	return out, nil
}

func (r *StockBatchRepository) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.StockBatch, error) {
	if err := r.tx.lock(ctx, batchesLockKey(productID)); err != nil {
		return nil, err
	}
	return r.ListByProduct(ctx, productID)
}

func (r *StockBatchRepository) UpdateRemaining(ctx context.Context, batch *entity.StockBatch) error {
	if err := r.tx.lock(ctx, batchesLockKey(batch.ProductID)); err != nil {
		return err
	}
	current, ok := r.tx.batches[batch.ID]
	if !ok {
		s := r.tx.store
		s.mu.RLock()
		current, ok = s.batches[batch.ID]
		s.mu.RUnlock()
	}
	if !ok {
		return domain.ErrNotFound
	}
	if batch.QuantityRemaining < 0 || batch.QuantityRemaining > current.QuantityInitial {
		return fmt.Errorf("lote %s: remanente %d fuera de [0, %d]: %w",
			batch.ID, batch.QuantityRemaining, current.QuantityInitial, domain.ErrInvalidInput)
	}
	next := cloneBatch(current)
	next.QuantityRemaining = batch.QuantityRemaining
	next.UpdatedAt = batch.UpdatedAt
	r.tx.batches[batch.ID] = next
	return nil
}

func (r *StockBatchRepository) ListProductIDs(_ context.Context) ([]string, error) {
	seen := make(map[string]struct{})
	s := r.tx.store
	s.mu.RLock()
	for _, b := range s.batches {
		seen[b.ProductID] = struct{}{}
	}
	s.mu.RUnlock()
	for _, b := range r.tx.batches {
		seen[b.ProductID] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out, nil
}

// ── Solicitudes ──────────────────────────────────────────────────────────────

// RequestRepository implementa repository.RequestRepository en memoria.
type RequestRepository struct {
	tx *tx
}

func (r *RequestRepository) Create(ctx context.Context, req *entity.FulfillmentRequest) error {
	if err := r.tx.lock(ctx, requestLockKey(req.ID)); err != nil {
		return err
	}
	if existing, _ := r.GetByID(ctx, req.ID); existing != nil {
		return domain.ErrDuplicate
	}
	r.tx.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *RequestRepository) GetByID(_ context.Context, id string) (*entity.FulfillmentRequest, error) {
	if req, ok := r.tx.requests[id]; ok {
		return cloneRequest(req), nil
	}
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneRequest(s.requests[id]), nil
}

func (r *RequestRepository) GetForUpdate(ctx context.Context, id string) (*entity.FulfillmentRequest, error) {
	if err := r.tx.lock(ctx, requestLockKey(id)); err != nil {
		return nil, err
	}
	return r.GetByID(ctx, id)
}

func (r *RequestRepository) Update(ctx context.Context, req *entity.FulfillmentRequest) error {
	if err := r.tx.lock(ctx, requestLockKey(req.ID)); err != nil {
		return err
	}
	if existing, _ := r.GetByID(ctx, req.ID); existing == nil {
		return domain.ErrNotFound
	}
	r.tx.requests[req.ID] = cloneRequest(req)
	return nil
}

func (r *RequestRepository) all() []*entity.FulfillmentRequest {
	merged := make(map[string]*entity.FulfillmentRequest)
	s := r.tx.store
	s.mu.RLock()
	for id, req := range s.requests {
		merged[id] = req
	}
	s.mu.RUnlock()
	for id, req := range r.tx.requests {
		merged[id] = req
	}
	out := make([]*entity.FulfillmentRequest, 0, len(merged))
	for _, req := range merged {
		out = append(out, req)
	}
	return out
}

func matchesFilter(req *entity.FulfillmentRequest, f repository.RequestFilter) bool {
	switch {
	case f.Status != "" && req.Status != f.Status:
		return false
	case f.Kind != "" && req.Kind != f.Kind:
		return false
	case f.UnitID != "" && req.UnitID != f.UnitID:
		return false
	case f.From != nil && req.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && req.CreatedAt.After(*f.To):
		return false
	}
	return true
}

func (r *RequestRepository) List(_ context.Context, f repository.RequestFilter) ([]*entity.FulfillmentRequest, error) {
	matched := make([]*entity.FulfillmentRequest, 0)
	for _, req := range r.all() {
		if matchesFilter(req, f) {
			matched = append(matched, req)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID < matched[j].ID
	})
	f.Offset = max(0, f.Offset)
	if f.Offset >= len(matched) {
		return []*entity.FulfillmentRequest{}, nil
	}
	matched = matched[f.Offset:]
	if f.Limit > 0 && f.Limit < len(matched) {
		matched = matched[:f.Limit]
	}
	out := make([]*entity.FulfillmentRequest, 0, len(matched))
	for _, req := range matched {
		out = append(out, cloneRequest(req))
	}
	return out, nil
}

func (r *RequestRepository) CountByStatus(_ context.Context) (map[entity.Status]int, error) {
	out := make(map[entity.Status]int)
	for _, req := range r.all() {
		out[req.Status]++
	}
	return out, nil
}

func (r *RequestRepository) Count(_ context.Context, f repository.RequestFilter) (int, error) {
	n := 0
	for _, req := range r.all() {
		if matchesFilter(req, f) {
			n++
		}
	}
	return n, nil
}

func (r *RequestRepository) PendingQuantities(_ context.Context, unitID string, period entity.Period) (map[string]int, error) {
	out := make(map[string]int)
	for _, req := range r.all() {
		if req.Kind != entity.KindGoods || req.UnitID != unitID || req.Period != period {
			continue
		}
		if req.Status != entity.StatusDraft && req.Status != entity.StatusPending {
			continue
		}
		for _, l := range req.Lines {
			out[l.ProductID] += l.Quantity
		}
	}
	return out, nil
}

// ── Crédito ──────────────────────────────────────────────────────────────────

// CreditRepository implementa repository.CreditRepository en memoria.
type CreditRepository struct {
	tx *tx
}

func (r *CreditRepository) Get(_ context.Context, category string) (*entity.CreditBalance, error) {
	if b, ok := r.tx.credits[category]; ok {
		return cloneCredit(b), nil
	}
	s := r.tx.store
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneCredit(s.credits[category]), nil
}

func (r *CreditRepository) GetForUpdate(ctx context.Context, category string) (*entity.CreditBalance, error) {
	if err := r.tx.lock(ctx, creditLockKey(category)); err != nil {
		return nil, err
	}
	return r.Get(ctx, category)
}

func (r *CreditRepository) Upsert(ctx context.Context, balance *entity.CreditBalance) error {
	if err := r.tx.lock(ctx, creditLockKey(balance.Category)); err != nil {
		return err
	}
	if balance.CurrentBalance.IsNegative() || balance.CurrentBalance.GreaterThan(balance.Limit) {
		return fmt.Errorf("categoría %s: saldo fuera de [0, límite]: %w", balance.Category, domain.ErrInvalidInput)
	}
	r.tx.credits[balance.Category] = cloneCredit(balance)
	return nil
}

func (r *CreditRepository) List(_ context.Context) ([]*entity.CreditBalance, error) {
	merged := make(map[string]*entity.CreditBalance)
	s := r.tx.store
	s.mu.RLock()
	for c, b := range s.credits {
		merged[c] = b
	}
	s.mu.RUnlock()
	for c, b := range r.tx.credits {
		merged[c] = b
	}
	out := make([]*entity.CreditBalance, 0, len(merged))
	for _, b := range merged {
		out = append(out, cloneCredit(b))
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Category < out[j].Category })
	return out, nil
}

// ── Movimientos ──────────────────────────────────────────────────────────────

// MovementRepository implementa repository.MovementRepository en memoria (solo agregar).
type MovementRepository struct {
	tx *tx
}

func (r *MovementRepository) Create(_ context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	c := *m
	r.tx.movements = append(r.tx.movements, &c)
	return nil
}

func (r *MovementRepository) snapshot() []*entity.Movement {
	s := r.tx.store
	s.mu.RLock()
	out := append([]*entity.Movement(nil), s.movements...)
	s.mu.RUnlock()
	return append(out, r.tx.movements...)
}

func (r *MovementRepository) ListByTransaction(_ context.Context, transactionID string) ([]*entity.Movement, error) {
	out := make([]*entity.Movement, 0)
	for _, m := range r.snapshot() {
		if m.TransactionID == transactionID {
			c := *m
			out = append(out, &c)
		}
	}
	return out, nil
}

func (r *MovementRepository) ListByProduct(_ context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	offset = max(0, offset)
	matched := make([]*entity.Movement, 0)
	all := r.snapshot()
	for i := len(all) - 1; i >= 0; i-- {
		if all[i].ProductID == productID {
			matched = append(matched, all[i])
		}
	}
	if offset >= len(matched) {
		return []*entity.Movement{}, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	out := make([]*entity.Movement, 0, len(matched))
	for _, m := range matched {
		c := *m
		out = append(out, &c)
	}
	return out, nil
}
