package effect_test

import (
	"testing"
	"testing/quick"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/effect"
)

func TestHaltingAbsorbsCombine(t *testing.T) {
	det := effect.NewDeterministic(true)

	got, err := effect.Combine(effect.Halting, det)
	require.NoError(t, err)
	assert.True(t, got.IsHalting())

	got, err = effect.Combine(det, effect.Halting)
	require.NoError(t, err)
	assert.True(t, got.IsHalting())
}

func TestTruthProjection_TotalOnCoreVariants(t *testing.T) {
	cases := []struct {
		name string
		eff  effect.PropagatingEffect
		want bool
	}{
		{"det-true", effect.NewDeterministic(true), true},
		{"det-false", effect.NewDeterministic(false), false},
		{"prob-high", effect.MustProbabilistic(0.7), true},
		{"prob-boundary", effect.MustProbabilistic(0.5), true},
		{"prob-low", effect.MustProbabilistic(0.49), false},
		{"halting", effect.Halting, false},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			got, err := effect.TruthProjection(c.eff)
			require.NoError(t, err)
			assert.Equal(t, c.want, got)
		})
	}
}

func TestTruthProjection_PartialOnOtherVariants(t *testing.T) {
	_, err := effect.TruthProjection(effect.NewNumerical(3.14))
	assert.ErrorIs(t, err, effect.ErrNotTruthProjectable)

	_, err = effect.TruthProjection(effect.NewContextualLink("ctx", "node"))
	assert.ErrorIs(t, err, effect.ErrNotTruthProjectable)
}

// Property: Combine of two probabilistic effects always stays in [0,1].
func TestProperty_CombineProbabilisticStaysInRange(t *testing.T) {
	f := func(p, q uint8) bool {
		pf := float64(p) / 255.0
		qf := float64(q) / 255.0

		a := effect.MustProbabilistic(pf)
		b := effect.MustProbabilistic(qf)

		combined, err := effect.Combine(a, b)
		if err != nil {
			return false
		}
		v, ok := combined.Probability()
		return ok && v >= 0 && v <= 1
	}

	if err := quick.Check(f, &quick.Config{MaxCount: 500}); err != nil {
		t.Error(err)
	}
}
