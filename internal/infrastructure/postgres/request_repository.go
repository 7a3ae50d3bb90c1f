package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

var _ repository.RequestRepository = (*RequestRepo)(nil)

// RequestRepo implementación de RequestRepository (cabecera + líneas) usable con pool o tx.
type RequestRepo struct {
	q Querier
}

// NewRequestRepository construye el adaptador. Pasar pool o tx (Querier).
func NewRequestRepository(q Querier) *RequestRepo {
	return &RequestRepo{q: q}
}

const requestColumns = `id, kind, unit_id, requested_by, employee_name, period_year, period_month, status, remarks,
	credit_category, amount, credit_deducted, booking_reference, instructions,
	created_at, finalized_at, approved_at, issued_at, completed_at, returned_at, updated_at`

func scanRequest(row pgx.Row) (*entity.FulfillmentRequest, error) {
	var req entity.FulfillmentRequest
	var month int
	var employee, remarks, category, booking, instructions *string
	err := row.Scan(
		&req.ID, &req.Kind, &req.UnitID, &req.RequestedBy, &employee, &req.Period.Year, &month, &req.Status, &remarks,
		&category, &req.Amount, &req.CreditDeducted, &booking, &instructions,
		&req.CreatedAt, &req.FinalizedAt, &req.ApprovedAt, &req.IssuedAt, &req.CompletedAt, &req.ReturnedAt, &req.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	req.Period.Month = time.Month(month)
	req.EmployeeName = deref(employee)
	req.Remarks = deref(remarks)
	req.CreditCategory = deref(category)
	req.BookingReference = deref(booking)
	req.Instructions = deref(instructions)
	return &req, nil
}

// Create persiste la cabecera y sus líneas.
func (r *RequestRepo) Create(ctx context.Context, req *entity.FulfillmentRequest) error {
	query := `
		INSERT INTO fulfillment_requests (` + requestColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20, $21)`
	_, err := r.q.Exec(ctx, query,
		req.ID, req.Kind, req.UnitID, req.RequestedBy, nullIfEmpty(req.EmployeeName), req.Period.Year, int(req.Period.Month),
		req.Status, nullIfEmpty(req.Remarks),
		nullIfEmpty(req.CreditCategory), req.Amount, req.CreditDeducted, nullIfEmpty(req.BookingReference), nullIfEmpty(req.Instructions),
		req.CreatedAt, req.FinalizedAt, req.ApprovedAt, req.IssuedAt, req.CompletedAt, req.ReturnedAt, req.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("request %s already exists: %w", req.ID, domain.ErrDuplicate)
		}
		return wrap("insert request", err)
	}
	for _, l := range req.Lines {
		_, err := r.q.Exec(ctx,
			`INSERT INTO request_lines (request_id, product_id, quantity, unit_price) VALUES ($1, $2, $3, $4)`,
			req.ID, l.ProductID, l.Quantity, l.UnitPrice,
		)
		if err != nil {
			return wrap("insert request line", err)
		}
	}
	return nil
}

func (r *RequestRepo) get(ctx context.Context, query, id string) (*entity.FulfillmentRequest, error) {
	req, err := scanRequest(r.q.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, wrap("get request", err)
	}
	lines, err := r.lines(ctx, req.ID)
	if err != nil {
		return nil, err
	}
	req.Lines = lines
	return req, nil
}

func (r *RequestRepo) lines(ctx context.Context, requestID string) ([]entity.RequestLine, error) {
	rows, err := r.q.Query(ctx,
		`SELECT product_id, quantity, unit_price FROM request_lines WHERE request_id = $1 ORDER BY product_id`,
		requestID,
	)
	if err != nil {
		return nil, wrap("list request lines", err)
	}
	defer rows.Close()
	var lines []entity.RequestLine
	for rows.Next() {
		var l entity.RequestLine
		if err := rows.Scan(&l.ProductID, &l.Quantity, &l.UnitPrice); err != nil {
			return nil, fmt.Errorf("scan request line: %w", err)
		}
		lines = append(lines, l)
	}
	return lines, rows.Err()
}

// GetByID obtiene la solicitud con sus líneas; nil si no existe.
func (r *RequestRepo) GetByID(ctx context.Context, id string) (*entity.FulfillmentRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM fulfillment_requests WHERE id = $1`, id)
}

// GetForUpdate obtiene la solicitud y bloquea su fila (SELECT FOR UPDATE).
func (r *RequestRepo) GetForUpdate(ctx context.Context, id string) (*entity.FulfillmentRequest, error) {
	return r.get(ctx, `SELECT `+requestColumns+` FROM fulfillment_requests WHERE id = $1 FOR UPDATE`, id)
}

// Update actualiza estado, datos de crédito y marcas de tiempo. Las líneas no cambian tras crearse.
func (r *RequestRepo) Update(ctx context.Context, req *entity.FulfillmentRequest) error {
	query := `
		UPDATE fulfillment_requests
		SET status            = $2,
		    remarks           = $3,
		    credit_category   = $4,
		    amount            = $5,
		    credit_deducted   = $6,
		    booking_reference = $7,
		    instructions      = $8,
		    finalized_at      = $9,
		    approved_at       = $10,
		    issued_at         = $11,
		    completed_at      = $12,
		    returned_at       = $13,
		    updated_at        = $14
		WHERE id = $1`
	cmd, err := r.q.Exec(ctx, query,
		req.ID, req.Status, nullIfEmpty(req.Remarks),
		nullIfEmpty(req.CreditCategory), req.Amount, req.CreditDeducted, nullIfEmpty(req.BookingReference), nullIfEmpty(req.Instructions),
		req.FinalizedAt, req.ApprovedAt, req.IssuedAt, req.CompletedAt, req.ReturnedAt, req.UpdatedAt,
	)
	if err != nil {
		return wrap("update request", err)
	}
	if cmd.RowsAffected() == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// filterWhere arma la cláusula WHERE del filtro y sus argumentos posicionales.
func filterWhere(f repository.RequestFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.Kind != "" {
		add("kind = $%d", f.Kind)
	}
	if f.UnitID != "" {
		add("unit_id = $%d", f.UnitID)
	}
	if f.From != nil {
		add("created_at >= $%d", *f.From)
	}
	if f.To != nil {
		add("created_at <= $%d", *f.To)
	}
	if len(conds) == 0 {
		return "", args
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

// List lista solicitudes filtradas, más recientes primero.
func (r *RequestRepo) List(ctx context.Context, f repository.RequestFilter) ([]*entity.FulfillmentRequest, error) {
	where, args := filterWhere(f)
	query := `SELECT ` + requestColumns + ` FROM fulfillment_requests` + where
	args = append(args, f.Limit, f.Offset)
	query += fmt.Sprintf(" ORDER BY created_at DESC, id LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.q.Query(ctx, query, args...)
	if err != nil {
		return nil, wrap("list requests", err)
	}
	list := make([]*entity.FulfillmentRequest, 0)
	for rows.Next() {
		req, err := scanRequest(rows)
		if err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan request: %w", err)
		}
		list = append(list, req)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, wrap("list requests", err)
	}
	// Las líneas se leen después de cerrar el cursor: una tx no admite dos consultas abiertas.
	for _, req := range list {
		if req.Lines, err = r.lines(ctx, req.ID); err != nil {
			return nil, err
		}
	}
	return list, nil
}

// CountByStatus cuenta solicitudes por estado.
func (r *RequestRepo) CountByStatus(ctx context.Context) (map[entity.Status]int, error) {
	rows, err := r.q.Query(ctx, `SELECT status, COUNT(*) FROM fulfillment_requests GROUP BY status`)
	if err != nil {
		return nil, wrap("count requests", err)
	}
	defer rows.Close()
	out := make(map[entity.Status]int)
	for rows.Next() {
		var s entity.Status
		var n int
		if err := rows.Scan(&s, &n); err != nil {
			return nil, fmt.Errorf("scan request count: %w", err)
		}
		out[s] = n
	}
	return out, rows.Err()
}

// Count cuenta las solicitudes del filtro sin paginar.
func (r *RequestRepo) Count(ctx context.Context, f repository.RequestFilter) (int, error) {
	where, args := filterWhere(f)
	var n int
	if err := r.q.QueryRow(ctx, `SELECT COUNT(*) FROM fulfillment_requests`+where, args...).Scan(&n); err != nil {
		return 0, wrap("count requests", err)
	}
	return n, nil
}

// PendingQuantities suma las líneas de los pedidos DRAFT y PENDING de la unidad en el periodo.
func (r *RequestRepo) PendingQuantities(ctx context.Context, unitID string, period entity.Period) (map[string]int, error) {
	query := `
		SELECT l.product_id, SUM(l.quantity)
		FROM request_lines l
		JOIN fulfillment_requests r ON r.id = l.request_id
		WHERE r.unit_id = $1
		  AND r.kind = $2
		  AND r.status IN ($3, $4)
		  AND r.period_year = $5
		  AND r.period_month = $6
		GROUP BY l.product_id`
	rows, err := r.q.Query(ctx, query,
		unitID, entity.KindGoods, entity.StatusDraft, entity.StatusPending, period.Year, int(period.Month),
	)
	if err != nil {
		return nil, wrap("sum pending quantities", err)
	}
	defer rows.Close()
	out := make(map[string]int)
	for rows.Next() {
		var product string
		var qty int64
		if err := rows.Scan(&product, &qty); err != nil {
			return nil, fmt.Errorf("scan pending quantity: %w", err)
		}
		out[product] = int(qty)
	}
	return out, rows.Err()
}
