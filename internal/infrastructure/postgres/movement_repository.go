package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

var _ repository.MovementRepository = (*MovementRepo)(nil)

// MovementRepo implementación sobre PostgreSQL (usable con pool o tx).
type MovementRepo struct {
	q Querier
}

// NewMovementRepository construye el adaptador. Pasar pool o tx (Querier).
func NewMovementRepository(q Querier) *MovementRepo {
	return &MovementRepo{q: q}
}

const movementColumns = `id, transaction_id, type, unit_id, product_id, batch_id, category,
	period_year, period_month, quantity, amount, created_at, created_by`

// Create persiste un movimiento del libro.
func (r *MovementRepo) Create(ctx context.Context, m *entity.Movement) error {
	if m.ID == "" {
		m.ID = uuid.New().String()
	}
	query := `
		INSERT INTO ledger_movements (` + movementColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`
	_, err := r.q.Exec(ctx, query,
		m.ID, m.TransactionID, m.Type, nullIfEmpty(m.UnitID), nullIfEmpty(m.ProductID), nullIfEmpty(m.BatchID), nullIfEmpty(m.Category),
		m.Period.Year, int(m.Period.Month), m.Quantity, m.Amount, m.CreatedAt, nullIfEmpty(m.CreatedBy),
	)
	if err != nil {
		return wrap("create ledger movement", err)
	}
	return nil
}

func (r *MovementRepo) query(ctx context.Context, query string, args ...any) ([]*entity.Movement, error) {
	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list ledger movements", err)
	}
	defer rows.Close()
	list := make([]*entity.Movement, 0)
	for rows.Next() {
		var m entity.Movement
		var unitID, productID, batchID, category, createdBy *string
		var month int
		if err := rows.Scan(&m.ID, &m.TransactionID, &m.Type, &unitID, &productID, &batchID, &category,
			&m.Period.Year, &month, &m.Quantity, &m.Amount, &m.CreatedAt, &createdBy); err != nil {
			return nil, fmt.Errorf("scan ledger movement: %w", err)
		}
		m.Period.Month = time.Month(month)
		m.UnitID = deref(unitID)
		m.ProductID = deref(productID)
		m.BatchID = deref(batchID)
		m.Category = deref(category)
		m.CreatedBy = deref(createdBy)
		list = append(list, &m)
	}
	return list, rows.Err()
}

// ListByTransaction devuelve los movimientos de una solicitud en orden de registro.
func (r *MovementRepo) ListByTransaction(ctx context.Context, transactionID string) ([]*entity.Movement, error) {
	return r.query(ctx, `SELECT `+movementColumns+`
		FROM ledger_movements WHERE transaction_id = $1 ORDER BY created_at, id`, transactionID)
}

// ListByProduct devuelve el kardex del producto, más reciente primero.
func (r *MovementRepo) ListByProduct(ctx context.Context, productID string, limit, offset int) ([]*entity.Movement, error) {
	return r.query(ctx, `SELECT `+movementColumns+`
		FROM ledger_movements WHERE product_id = $1 ORDER BY created_at DESC, id LIMIT $2 OFFSET $3`,
		productID, limit, offset)
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
