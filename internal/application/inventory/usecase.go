package inventory

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/jhoicas/Suministros-api/internal/application/ports"
	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/inventory"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// ShortfallPolicy decide qué hacer cuando los lotes no cubren la cantidad pedida.
type ShortfallPolicy int

const (
	// RejectShortfall no toca ningún lote y devuelve *domain.InsufficientStockError.
	RejectShortfall ShortfallPolicy = iota
	// AllowBackorder descuenta lo que haya y reporta el faltante; nunca deja lotes negativos.
	AllowBackorder
)

// DeductResult es el resultado de una salida FIFO.
type DeductResult struct {
	Requested int              `json:"requested"`
	Deducted  int              `json:"deducted"`
	Shortfall int              `json:"shortfall"`
	Draws     []inventory.Draw `json:"draws"`
}

// BatchPool administra los lotes físicos de cada producto: salidas FIFO, reposiciones
// y recepciones, siempre con el conjunto de lotes del producto bloqueado (SELECT FOR UPDATE).
type BatchPool struct {
	tx                ports.TxRunner
	clock             ports.Clock
	log               zerolog.Logger
	lowStockThreshold int
}

// NewBatchPool construye el pool. lowStockThreshold es el umbral de "stock bajo" (inclusive).
func NewBatchPool(tx ports.TxRunner, clock ports.Clock, log zerolog.Logger, lowStockThreshold int) *BatchPool {
	return &BatchPool{
		tx:                tx,
		clock:             clock,
		log:               log.With().Str("component", "stock").Logger(),
		lowStockThreshold: lowStockThreshold,
	}
}

// Deduct descuenta qty del producto en orden FIFO en su propia transacción.
func (p *BatchPool) Deduct(ctx context.Context, productID string, qty int, policy ShortfallPolicy) (DeductResult, error) {
	var res DeductResult
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		res, err = p.DeductInTx(ctx, repos, productID, qty, policy, uuid.New().String(), "")
		return err
	})
	if err != nil {
		return DeductResult{}, err
	}
	return res, nil
}

// DeductInTx bloquea los lotes del producto y aplica la salida FIFO usando los repositorios
// del llamador. Con RejectShortfall y faltante > 0 no escribe nada.
func (p *BatchPool) DeductInTx(
	ctx context.Context,
	repos repository.Repos,
	productID string,
	qty int,
	policy ShortfallPolicy,
	transactionID, userID string,
) (DeductResult, error) {
	if strings.TrimSpace(productID) == "" || qty <= 0 {
		return DeductResult{}, domain.ErrInvalidInput
	}
	batches, err := repos.Batches.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return DeductResult{}, err
	}
	draws, deducted, shortfall := inventory.PlanDeduction(batches, qty)
	res := DeductResult{Requested: qty, Deducted: deducted, Shortfall: shortfall, Draws: draws}
	if shortfall > 0 && policy == RejectShortfall {
		return res, &domain.InsufficientStockError{
			ProductID: productID,
			Requested: qty,
			Available: deducted,
			Shortfall: shortfall,
		}
	}
	now := p.clock.Now()
	for _, b := range inventory.Apply(batches, draws, -1) {
		b.UpdatedAt = now
		if err := repos.Batches.UpdateRemaining(ctx, b); err != nil {
			return DeductResult{}, err
		}
	}
	for _, d := range draws {
		if err := repos.Movements.Create(ctx, &entity.Movement{
			TransactionID: transactionID,
			Type:          entity.MovementStockOut,
			ProductID:     productID,
			BatchID:       d.BatchID,
			Quantity:      -d.Quantity,
			CreatedAt:     now,
			CreatedBy:     userID,
		}); err != nil {
			return DeductResult{}, err
		}
	}
	if shortfall > 0 {
		p.log.Warn().
			Str("product_id", productID).
			Int("requested", qty).
			Int("shortfall", shortfall).
			Msg("salida con faltante pendiente")
	}
	return res, nil
}

// Restore devuelve qty unidades al producto en su propia transacción.
func (p *BatchPool) Restore(ctx context.Context, productID string, qty int) error {
	return p.tx.Run(ctx, func(repos repository.Repos) error {
		return p.RestoreInTx(ctx, repos, productID, qty, uuid.New().String(), "")
	})
}

// RestoreInTx repone desde el lote más reciente hacia atrás, solo donde remanente < inicial.
// Devolver más de lo que alguna vez salió es domain.ErrStockOverflow y no escribe nada.
func (p *BatchPool) RestoreInTx(ctx context.Context, repos repository.Repos, productID string, qty int, transactionID, userID string) error {
	if strings.TrimSpace(productID) == "" || qty <= 0 {
		return domain.ErrInvalidInput
	}
	batches, err := repos.Batches.ListByProductForUpdate(ctx, productID)
	if err != nil {
		return err
	}
	draws, overflow := inventory.PlanRestore(batches, qty)
	if overflow > 0 {
		p.log.Error().
			Str("product_id", productID).
			Int("restore", qty).
			Int("overflow", overflow).
			Msg("reposición supera lo deducido")
		return fmt.Errorf("producto %s: reponer %d excede en %d: %w", productID, qty, overflow, domain.ErrStockOverflow)
	}
	now := p.clock.Now()
	for _, b := range inventory.Apply(batches, draws, 1) {
		b.UpdatedAt = now
		if err := repos.Batches.UpdateRemaining(ctx, b); err != nil {
			return err
		}
	}
	for _, d := range draws {
		if err := repos.Movements.Create(ctx, &entity.Movement{
			TransactionID: transactionID,
			Type:          entity.MovementStockReturn,
			ProductID:     productID,
			BatchID:       d.BatchID,
			Quantity:      d.Quantity,
			CreatedAt:     now,
			CreatedBy:     userID,
		}); err != nil {
			return err
		}
	}
	return nil
}

// Batches lista los lotes del producto en orden FIFO.
func (p *BatchPool) Batches(ctx context.Context, productID string) ([]*entity.StockBatch, error) {
	if strings.TrimSpace(productID) == "" {
		return nil, domain.ErrInvalidInput
	}
	var out []*entity.StockBatch
	err := p.tx.Run(ctx, func(repos repository.Repos) error {
		var err error
		out, err = repos.Batches.ListByProduct(ctx, productID)
		return err
	})
	return out, err
}

// Levels resume lo recibido, lo remanente y lo deducido del producto.
func (p *BatchPool) Levels(ctx context.Context, productID string) (entity.InventoryLevel, error) {
	batches, err := p.Batches(ctx, productID)
	if err != nil {
		return entity.InventoryLevel{}, err
	}
	if len(batches) == 0 {
		return entity.InventoryLevel{}, domain.ErrNotFound
	}
	return inventory.Level(productID, batches), nil
}
