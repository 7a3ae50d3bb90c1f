package fulfillment

import "github.com/jhoicas/Suministros-api/internal/domain/entity"

// Effect es el efecto en los libros que acompaña a una transición.
type Effect int

const (
	EffectNone    Effect = iota
	EffectCommit         // consumir cuota y deducir lotes (bienes) o debitar crédito
	EffectReverse        // restaurar lotes y cuota (bienes) o crédito
)

// Rule describe una transición permitida.
type Rule struct {
	Effect     Effect
	Privileged bool // requiere actor aprobador
	Terminal   bool // el estado destino no admite más transiciones
}

type edge struct {
	from, to entity.Status
}

var goodsTable = map[edge]Rule{
	{entity.StatusDraft, entity.StatusPending}:      {Effect: EffectNone},
	{entity.StatusPending, entity.StatusApproved}:   {Effect: EffectCommit, Privileged: true},
	{entity.StatusApproved, entity.StatusPending}:   {Effect: EffectReverse, Privileged: true},
	{entity.StatusApproved, entity.StatusDelivered}: {Effect: EffectNone, Privileged: true},
	{entity.StatusPending, entity.StatusReturned}:   {Effect: EffectNone, Privileged: true, Terminal: true},
	{entity.StatusApproved, entity.StatusReturned}:  {Effect: EffectReverse, Privileged: true, Terminal: true},
	{entity.StatusDelivered, entity.StatusReturned}: {Effect: EffectReverse, Privileged: true, Terminal: true},
}

// Approved -> Issued solo ocurre vía emisión contra crédito, que aporta el monto.
var creditTable = map[edge]Rule{
	{entity.StatusDraft, entity.StatusPending}:     {Effect: EffectNone},
	{entity.StatusPending, entity.StatusApproved}:  {Effect: EffectNone, Privileged: true},
	{entity.StatusApproved, entity.StatusIssued}:   {Effect: EffectCommit, Privileged: true},
	{entity.StatusIssued, entity.StatusSettled}:    {Effect: EffectNone, Privileged: true},
	{entity.StatusPending, entity.StatusReturned}:  {Effect: EffectNone, Privileged: true, Terminal: true},
	{entity.StatusApproved, entity.StatusReturned}: {Effect: EffectNone, Privileged: true, Terminal: true},
	{entity.StatusIssued, entity.StatusReturned}:   {Effect: EffectReverse, Privileged: true, Terminal: true},
	{entity.StatusSettled, entity.StatusReturned}:  {Effect: EffectReverse, Privileged: true, Terminal: true},
}

func table(kind entity.Kind) map[edge]Rule {
	if kind == entity.KindCredit {
		return creditTable
	}
	return goodsTable
}

// Lookup devuelve la regla de la transición from -> to para el tipo de solicitud.
// ok=false significa transición inválida.
func Lookup(kind entity.Kind, from, to entity.Status) (Rule, bool) {
	r, ok := table(kind)[edge{from, to}]
	return r, ok
}

// IsCommitted indica si en ese estado la deducción física/monetaria ya ocurrió.
func IsCommitted(kind entity.Kind, s entity.Status) bool {
	if kind == entity.KindCredit {
		return s == entity.StatusIssued || s == entity.StatusSettled
	}
	return s == entity.StatusApproved || s == entity.StatusDelivered
}

// IsTerminal indica si no hay transiciones de salida desde s.
func IsTerminal(s entity.Status) bool {
	return s == entity.StatusReturned
}
