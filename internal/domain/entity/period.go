package entity

import (
	"fmt"
	"time"
)

// Period es la ventana de renovación de cuota: un mes calendario dentro del año del plan.
type Period struct {
	Year  int
	Month time.Month
}

// PeriodOf devuelve el periodo al que pertenece t.
func PeriodOf(t time.Time) Period {
	return Period{Year: t.Year(), Month: t.Month()}
}

// Valid indica si el periodo tiene año y mes utilizables.
func (p Period) Valid() bool {
	return p.Year > 0 && p.Month >= time.January && p.Month <= time.December
}

// Index devuelve la posición 0..11 del mes dentro de los arreglos del plan.
func (p Period) Index() int { return int(p.Month) - 1 }

func (p Period) String() string {
	return fmt.Sprintf("%04d-%02d", p.Year, int(p.Month))
}
