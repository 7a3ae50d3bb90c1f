package fulfillment_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/jhoicas/Suministros-api/internal/domain/entity"
	"github.com/jhoicas/Suministros-api/internal/domain/fulfillment"
)

func TestLookup_Bienes(t *testing.T) {
	cases := []struct {
		from, to   entity.Status
		ok         bool
		effect     fulfillment.Effect
		privileged bool
	}{
		{entity.StatusDraft, entity.StatusPending, true, fulfillment.EffectNone, false},
		{entity.StatusPending, entity.StatusApproved, true, fulfillment.EffectCommit, true},
		{entity.StatusApproved, entity.StatusPending, true, fulfillment.EffectReverse, true},
		{entity.StatusApproved, entity.StatusDelivered, true, fulfillment.EffectNone, true},
		{entity.StatusApproved, entity.StatusReturned, true, fulfillment.EffectReverse, true},
		{entity.StatusDelivered, entity.StatusReturned, true, fulfillment.EffectReverse, true},
		{entity.StatusPending, entity.StatusReturned, true, fulfillment.EffectNone, true},
		// No permitidas
		{entity.StatusDelivered, entity.StatusPending, false, 0, false},
		{entity.StatusDraft, entity.StatusApproved, false, 0, false},
		{entity.StatusApproved, entity.StatusApproved, false, 0, false},
		{entity.StatusReturned, entity.StatusPending, false, 0, false},
		{entity.StatusApproved, entity.StatusIssued, false, 0, false},
	}
	for _, tc := range cases {
		rule, ok := fulfillment.Lookup(entity.KindGoods, tc.from, tc.to)
		assert.Equal(t, tc.ok, ok, "%s -> %s", tc.from, tc.to)
		if ok {
			assert.Equal(t, tc.effect, rule.Effect, "%s -> %s", tc.from, tc.to)
			assert.Equal(t, tc.privileged, rule.Privileged, "%s -> %s", tc.from, tc.to)
		}
	}
}

func TestLookup_Credito(t *testing.T) {
	rule, ok := fulfillment.Lookup(entity.KindCredit, entity.StatusApproved, entity.StatusIssued)
	assert.True(t, ok)
	assert.Equal(t, fulfillment.EffectCommit, rule.Effect)

	rule, ok = fulfillment.Lookup(entity.KindCredit, entity.StatusPending, entity.StatusApproved)
	assert.True(t, ok)
	assert.Equal(t, fulfillment.EffectNone, rule.Effect, "aprobar una reserva no toca el saldo")

	rule, ok = fulfillment.Lookup(entity.KindCredit, entity.StatusSettled, entity.StatusReturned)
	assert.True(t, ok)
	assert.Equal(t, fulfillment.EffectReverse, rule.Effect)
	assert.True(t, rule.Terminal)

	_, ok = fulfillment.Lookup(entity.KindCredit, entity.StatusApproved, entity.StatusDelivered)
	assert.False(t, ok)
}

// Cada regla que compromete lleva a un estado comprometido y cada reversa sale de uno.
func TestTablas_EfectoCoherenteConEstadoComprometido(t *testing.T) {
	statuses := []entity.Status{
		entity.StatusDraft, entity.StatusPending, entity.StatusApproved, entity.StatusDelivered,
		entity.StatusIssued, entity.StatusSettled, entity.StatusReturned,
	}
	for _, kind := range []entity.Kind{entity.KindGoods, entity.KindCredit} {
		for _, from := range statuses {
			for _, to := range statuses {
				rule, ok := fulfillment.Lookup(kind, from, to)
				if !ok {
					continue
				}
				before := fulfillment.IsCommitted(kind, from)
				after := fulfillment.IsCommitted(kind, to)
				switch rule.Effect {
				case fulfillment.EffectCommit:
					assert.True(t, !before && after, "%s %s -> %s", kind, from, to)
				case fulfillment.EffectReverse:
					assert.True(t, before && !after, "%s %s -> %s", kind, from, to)
				default:
					assert.Equal(t, before, after, "%s %s -> %s", kind, from, to)
				}
				assert.False(t, fulfillment.IsTerminal(from), "%s: no hay salidas desde un estado terminal", from)
			}
		}
	}
}
