package memory_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jhoicas/Suministros-api/internal/domain"
	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/repository"
	"github.com/jhoicas/Suministros-api/internal/infrastructure/memory"
)

func plan(unit, product string) *entity.AllocationPlan {
	p := &entity.AllocationPlan{UnitID: unit, ProductID: product, Year: 2026}
	for i := range p.MonthlyCaps {
		p.MonthlyCaps[i] = 10
	}
	return p
}

// ──────────────────────────────────────────────────────────────────────────────
// Commit / rollback
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_RollbackDescartaEscrituras(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(time.Second))
	boom := errors.New("boom")

	err := runner.Run(ctx, func(repos repository.Repos) error {
		require.NoError(t, repos.Allocations.Upsert(ctx, plan("u1", "p1")))
		return boom
	})
	require.ErrorIs(t, err, boom)

	err = runner.Run(ctx, func(repos repository.Repos) error {
		p, err := repos.Allocations.Get(ctx, "u1", "p1", 2026)
		assert.Nil(t, p, "la escritura de una transacción fallida no se publica")
		return err
	})
	require.NoError(t, err)
}

func TestTxRunner_CommitPublicaYLeeSusPropiasEscrituras(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(time.Second))

	err := runner.Run(ctx, func(repos repository.Repos) error {
		require.NoError(t, repos.Allocations.Upsert(ctx, plan("u1", "p1")))
		p, err := repos.Allocations.GetForUpdate(ctx, "u1", "p1", 2026)
		require.NoError(t, err)
		require.NotNil(t, p, "la transacción ve sus escrituras pendientes")
		p.Consumed[2] = 4
		return repos.Allocations.UpdateConsumption(ctx, p)
	})
	require.NoError(t, err)

	_ = runner.Run(ctx, func(repos repository.Repos) error {
		p, err := repos.Allocations.Get(ctx, "u1", "p1", 2026)
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, 4, p.Consumed[2])
		assert.NotEmpty(t, p.ID)
		return nil
	})
}

func TestRepositorios_LecturasDevuelvenCopias(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(time.Second))
	require.NoError(t, runner.Run(ctx, func(repos repository.Repos) error {
		return repos.Allocations.Upsert(ctx, plan("u1", "p1"))
	}))

	_ = runner.Run(ctx, func(repos repository.Repos) error {
		p, _ := repos.Allocations.Get(ctx, "u1", "p1", 2026)
		p.Consumed[0] = 99
		return nil
	})
	_ = runner.Run(ctx, func(repos repository.Repos) error {
		p, _ := repos.Allocations.Get(ctx, "u1", "p1", 2026)
		assert.Equal(t, 0, p.Consumed[0], "mutar una lectura no altera el estado confirmado")
		return nil
	})
}

// ──────────────────────────────────────────────────────────────────────────────
// Bloqueos
// ──────────────────────────────────────────────────────────────────────────────

func TestTxRunner_EsperaAcotadaDevuelveConflictoReintentable(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(50 * time.Millisecond))
	require.NoError(t, runner.Run(ctx, func(repos repository.Repos) error {
		return repos.Allocations.Upsert(ctx, plan("u1", "p1"))
	}))

	locked := make(chan struct{})
	done := make(chan struct{})
	go func() {
		_ = runner.Run(ctx, func(repos repository.Repos) error {
			_, err := repos.Allocations.GetForUpdate(ctx, "u1", "p1", 2026)
			close(locked)
			<-done
			return err
		})
	}()
	<-locked

	err := runner.Run(ctx, func(repos repository.Repos) error {
		_, err := repos.Allocations.GetForUpdate(ctx, "u1", "p1", 2026)
		return err
	})
	close(done)

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrentConflict)
	assert.True(t, domain.IsRetryable(err))
}

// holdPlanLock toma el bloqueo del plan u1/p1 en otra transacción hasta que se cierre release.
func holdPlanLock(t *testing.T, runner *memory.TxRunner) (release chan struct{}) {
	t.Helper()
	ctx := context.Background()
	require.NoError(t, runner.Run(ctx, func(repos repository.Repos) error {
		return repos.Allocations.Upsert(ctx, plan("u1", "p1"))
	}))
	locked := make(chan struct{})
	release = make(chan struct{})
	go func() {
		_ = runner.Run(ctx, func(repos repository.Repos) error {
			_, err := repos.Allocations.GetForUpdate(ctx, "u1", "p1", 2026)
			close(locked)
			<-release
			return err
		})
	}()
	<-locked
	return release
}

func TestTxRunner_PlazoDelContextoEsConflictoReintentable(t *testing.T) {
	runner := memory.NewTxRunner(memory.NewStore(5 * time.Second))
	release := holdPlanLock(t, runner)
	defer close(release)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	err := runner.Run(ctx, func(repos repository.Repos) error {
		_, err := repos.Allocations.GetForUpdate(ctx, "u1", "p1", 2026)
		return err
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrConcurrentConflict)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.True(t, domain.IsRetryable(err))
}

func TestTxRunner_CancelacionNoEsReintentable(t *testing.T) {
	runner := memory.NewTxRunner(memory.NewStore(5 * time.Second))
	release := holdPlanLock(t, runner)
	defer close(release)

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)
	err := runner.Run(ctx, func(repos repository.Repos) error {
		_, err := repos.Allocations.GetForUpdate(ctx, "u1", "p1", 2026)
		return err
	})

	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, domain.IsRetryable(err))
}

func TestTxRunner_BloqueoReentrante(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(50 * time.Millisecond))

	err := runner.Run(ctx, func(repos repository.Repos) error {
		if _, err := repos.Credits.GetForUpdate(ctx, "PAL"); err != nil {
			return err
		}
		_, err := repos.Credits.GetForUpdate(ctx, "PAL")
		return err
	})
	assert.NoError(t, err)
}

func TestTxRunner_LiberaBloqueosAlTerminar(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(50 * time.Millisecond))

	for i := 0; i < 3; i++ {
		err := runner.Run(ctx, func(repos repository.Repos) error {
			_, err := repos.Requests.GetForUpdate(ctx, "r1")
			return err
		})
		require.NoError(t, err, "intento %d", i)
	}
}

// ──────────────────────────────────────────────────────────────────────────────
// Invariantes en la frontera de persistencia
// ──────────────────────────────────────────────────────────────────────────────

func TestCreditRepository_RechazaSaldoFueraDeRango(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(time.Second))

	err := runner.Run(ctx, func(repos repository.Repos) error {
		return repos.Credits.Upsert(ctx, &entity.CreditBalance{
			Category:       "PAL",
			Limit:          decimal.NewFromInt(100),
			CurrentBalance: decimal.NewFromInt(150),
		})
	})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestStockBatchRepository_OrdenFIFOYRemanenteAcotado(t *testing.T) {
	ctx := context.Background()
	runner := memory.NewTxRunner(memory.NewStore(time.Second))
	now := time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, runner.Run(ctx, func(repos repository.Repos) error {
		for _, b := range []*entity.StockBatch{
			{ID: "nuevo", ProductID: "p1", QuantityInitial: 5, QuantityRemaining: 5, ReceivedAt: now.Add(time.Hour)},
			{ID: "viejo", ProductID: "p1", QuantityInitial: 5, QuantityRemaining: 5, ReceivedAt: now},
		} {
			if err := repos.Batches.Create(ctx, b); err != nil {
				return err
			}
		}
		return nil
	}))

	_ = runner.Run(ctx, func(repos repository.Repos) error {
		list, err := repos.Batches.ListByProductForUpdate(ctx, "p1")
		require.NoError(t, err)
		require.Len(t, list, 2)
		assert.Equal(t, "viejo", list[0].ID)

		list[0].QuantityRemaining = 6
		assert.Error(t, repos.Batches.UpdateRemaining(ctx, list[0]), "remanente > inicial")
		return nil
	})
}
