package ports

import "time"

// Clock es la fuente de tiempo para determinar el periodo vigente.
type Clock interface {
	Now() time.Time
}

// SystemClock usa el reloj del sistema.
type SystemClock struct{}

// Now devuelve la hora actual.
func (SystemClock) Now() time.Time { return time.Now() }

// FixedClock devuelve siempre el mismo instante (pruebas y reprocesos).
type FixedClock struct{ T time.Time }

// Now devuelve el instante fijo.
func (c FixedClock) Now() time.Time { return c.T }
