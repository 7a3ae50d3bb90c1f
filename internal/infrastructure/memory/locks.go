package memory

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/jhoicas/Suministros-api/internal/domain"
)

// lockManager entrega un candado exclusivo por clave. Cada candado es un canal de capacidad
// uno: tomarlo es enviar, liberarlo es recibir.
type lockManager struct {
	mu    sync.Mutex
	locks map[string]chan struct{}
}

func newLockManager() *lockManager {
	return &lockManager{locks: make(map[string]chan struct{})}
}

func (m *lockManager) slot(key string) chan struct{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	ch, ok := m.locks[key]
	if !ok {
		ch = make(chan struct{}, 1)
		m.locks[key] = ch
	}
	return ch
}

// acquire espera el candado como máximo timeout. Si vence el timeout o el plazo de ctx devuelve
// domain.ErrConcurrentConflict; una cancelación de ctx se devuelve tal cual.
func (m *lockManager) acquire(ctx context.Context, key string, timeout time.Duration) error {
	ch := m.slot(key)
	select {
	case ch <- struct{}{}:
		return nil
	default:
	}
	timer := time.NewTimer(timeout)
	defer timer.Stop()
	select {
	case ch <- struct{}{}:
		return nil
	case <-ctx.Done():
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return fmt.Errorf("bloqueo %s: %w: %w", key, ctx.Err(), domain.ErrConcurrentConflict)
		}
		return ctx.Err()
	case <-timer.C:
		return fmt.Errorf("bloqueo %s: espera superó %s: %w", key, timeout, domain.ErrConcurrentConflict)
	}
}

func (m *lockManager) release(key string) {
	<-m.slot(key)
}
