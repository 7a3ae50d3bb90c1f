package ports

import (
	"context"

	"github.com/jhoicas/Suministros-api/internal/domain/repository"
)

// TxRunner ejecuta una función dentro de una transacción, pasando repositorios atados a esa tx.
// Si fn devuelve error se hace Rollback: ninguna escritura parcial queda visible.
// Los bloqueos tomados con GetForUpdate se liberan al terminar la transacción; una espera
// que supera el tiempo límite devuelve domain.ErrConcurrentConflict.
type TxRunner interface {
	Run(ctx context.Context, fn func(repos repository.Repos) error) error
}
