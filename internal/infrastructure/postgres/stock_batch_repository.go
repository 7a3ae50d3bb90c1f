package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

var _ repository.StockBatchRepository = (*StockBatchRepo)(nil)

// StockBatchRepo implementación de StockBatchRepository sobre PostgreSQL (usable con pool o tx).
type StockBatchRepo struct {
	q Querier
}

// NewStockBatchRepository construye el adaptador de lotes. Pasar pool o tx (Querier).
func NewStockBatchRepository(q Querier) *StockBatchRepo {
	return &StockBatchRepo{q: q}
}

const batchColumns = `id, product_id, batch_number, supplier_name, quantity_initial, quantity_remaining,
	cost_per_item, received_at, seq, created_at, updated_at`

func scanBatch(row pgx.Row) (*entity.StockBatch, error) {
	var b entity.StockBatch
	err := row.Scan(&b.ID, &b.ProductID, &b.BatchNumber, &b.SupplierName, &b.QuantityInitial, &b.QuantityRemaining,
		&b.CostPerItem, &b.ReceivedAt, &b.Seq, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// Create inserta el lote; seq lo asigna la secuencia de la tabla.
func (r *StockBatchRepo) Create(ctx context.Context, batch *entity.StockBatch) error {
	query := `
		INSERT INTO stock_batches (id, product_id, batch_number, supplier_name, quantity_initial, quantity_remaining,
			cost_per_item, received_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING seq`
	err := r.q.QueryRow(ctx, query,
		batch.ID, batch.ProductID, batch.BatchNumber, batch.SupplierName, batch.QuantityInitial, batch.QuantityRemaining,
		batch.CostPerItem, batch.ReceivedAt, batch.CreatedAt, batch.UpdatedAt,
	).Scan(&batch.Seq)
	if err != nil {
		return wrap("create stock batch", err)
	}
	return nil
}

func (r *StockBatchRepo) list(ctx context.Context, query, productID string) ([]*entity.StockBatch, error) {
	rows, err := r.q.Query(ctx, query, productID)
	if err != nil {
		return nil, wrap("list stock batches", err)
	}
	defer rows.Close()
	list := make([]*entity.StockBatch, 0)
	for rows.Next() {
		b, err := scanBatch(rows)
		if err != nil {
			return nil, fmt.Errorf("scan stock batch: %w", err)
		}
		list = append(list, b)
	}
	return list, rows.Err()
}

// ListByProduct lista los lotes del producto en orden FIFO.
func (r *StockBatchRepo) ListByProduct(ctx context.Context, productID string) ([]*entity.StockBatch, error) {
	return r.list(ctx, `SELECT `+batchColumns+`
		FROM stock_batches WHERE product_id = $1 ORDER BY received_at, seq`, productID)
}

// ListByProductForUpdate toma el candado del conjunto de lotes del producto y bloquea sus filas.
// El advisory lock cubre también lotes que otra transacción esté insertando.
func (r *StockBatchRepo) ListByProductForUpdate(ctx context.Context, productID string) ([]*entity.StockBatch, error) {
	if _, err := r.q.Exec(ctx, `SELECT pg_advisory_xact_lock(hashtext('stock_batches:' || $1))`, productID); err != nil {
		return nil, wrap("lock stock batches", err)
	}
	return r.list(ctx, `SELECT `+batchColumns+`
		FROM stock_batches WHERE product_id = $1 ORDER BY received_at, seq
		FOR UPDATE`, productID)
}

// UpdateRemaining persiste la cantidad remanente del lote.
func (r *StockBatchRepo) UpdateRemaining(ctx context.Context, batch *entity.StockBatch) error {
	cmd, err := r.q.Exec(ctx,
		`UPDATE stock_batches SET quantity_remaining = $2, updated_at = $3 WHERE id = $1`,
		batch.ID, batch.QuantityRemaining, batch.UpdatedAt,
	)
	if err != nil {
		return wrap("update stock batch", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// ListProductIDs devuelve los productos que tienen al menos un lote.
func (r *StockBatchRepo) ListProductIDs(ctx context.Context) ([]string, error) {
	rows, err := r.q.Query(ctx, `SELECT DISTINCT product_id FROM stock_batches ORDER BY product_id`)
	if err != nil {
		return nil, wrap("list stock products", err)
	}
	defer rows.Close()
	ids := make([]string, 0)
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scan product id: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}
