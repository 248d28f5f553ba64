package causaloid_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/causalctx"
	"causality/internal/causaloid"
	"causality/internal/cerr"
	"causality/internal/effect"
	"causality/internal/graph"
)

func boolFn(id string) causaloid.CausalFn {
	return func(e effect.Evidence, _ effect.Evidence, _ *causalctx.Context) (effect.PropagatingEffect, error) {
		if v, ok := e.Bool(); ok {
			return effect.NewDeterministic(v), nil
		}
		return effect.NewDeterministic(false), nil
	}
}

func constFn(result effect.PropagatingEffect) causaloid.CausalFn {
	return func(effect.Evidence, effect.Evidence, *causalctx.Context) (effect.PropagatingEffect, error) {
		return result, nil
	}
}

func TestSingleton_CallsFunctionWithStaticConfig(t *testing.T) {
	cfg := effect.NewNumerical(42)
	var seenCfg effect.Evidence
	c := causaloid.NewSingleton("A", "records config", func(_ effect.Evidence, staticConfig effect.Evidence, _ *causalctx.Context) (effect.PropagatingEffect, error) {
		seenCfg = staticConfig
		return effect.NewDeterministic(true), nil
	}, cfg)

	_, err := c.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	assert.True(t, seenCfg.Equal(cfg))
}

func TestSingleton_PanicIsCaughtByEvaluator(t *testing.T) {
	c := causaloid.NewSingleton("A", "panics", func(effect.Evidence, effect.Evidence, *causalctx.Context) (effect.PropagatingEffect, error) {
		panic("boom")
	}, effect.NewNone())

	g := graph.New()
	require.NoError(t, g.AddNode(c))
	_, _, err := g.ReasonFrom("A", effect.NewNone(), nil, graph.ReasonOptions{})
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindEvaluationFailed))
}

func TestSingleton_BareEvaluatePanicIsCaught(t *testing.T) {
	c := causaloid.NewSingleton("A", "panics", func(effect.Evidence, effect.Evidence, *causalctx.Context) (effect.PropagatingEffect, error) {
		panic("boom")
	}, effect.NewNone())

	_, err := c.Evaluate(effect.NewNone(), nil)
	require.Error(t, err)
}

func TestCollection_MemberPanicIsCaught(t *testing.T) {
	a := causaloid.NewSingleton("A", "panics", func(effect.Evidence, effect.Evidence, *causalctx.Context) (effect.PropagatingEffect, error) {
		panic("boom")
	}, effect.NewNone())
	b := causaloid.NewSingleton("B", "true", constFn(effect.NewDeterministic(true)), effect.NewNone())

	coll, err := causaloid.NewCollection("AND", "", []graph.Node{a, b}, causaloid.NewPolicyAll())
	require.NoError(t, err)

	_, err = coll.Evaluate(effect.NewNone(), nil)
	require.Error(t, err)
}

func TestCollection_AllRequiresEveryMemberTruthy(t *testing.T) {
	a := causaloid.NewSingleton("A", "true", constFn(effect.NewDeterministic(true)), effect.NewNone())
	b := causaloid.NewSingleton("B", "true", constFn(effect.NewDeterministic(true)), effect.NewNone())
	c := causaloid.NewSingleton("C", "false", constFn(effect.NewDeterministic(false)), effect.NewNone())

	allTrue, err := causaloid.NewCollection("AND-true", "", []graph.Node{a, b}, causaloid.NewPolicyAll())
	require.NoError(t, err)
	out, err := allTrue.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	v, ok := out.Bool()
	require.True(t, ok)
	assert.True(t, v)

	allFalse, err := causaloid.NewCollection("AND-false", "", []graph.Node{a, b, c}, causaloid.NewPolicyAll())
	require.NoError(t, err)
	out, err = allFalse.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	v, ok = out.Bool()
	require.True(t, ok)
	assert.False(t, v)
}

func TestCollection_AllProbabilisticReturnsProduct(t *testing.T) {
	a := causaloid.NewSingleton("A", "", constFn(effect.MustProbabilistic(0.5)), effect.NewNone())
	b := causaloid.NewSingleton("B", "", constFn(effect.MustProbabilistic(0.4)), effect.NewNone())

	all, err := causaloid.NewCollection("AND", "", []graph.Node{a, b}, causaloid.NewPolicyAll())
	require.NoError(t, err)
	out, err := all.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	p, ok := out.Probability()
	require.True(t, ok)
	assert.InDelta(t, 0.2, p, 1e-9)
}

func TestCollection_AnyNoisyOR(t *testing.T) {
	a := causaloid.NewSingleton("A", "", constFn(effect.MustProbabilistic(0.5)), effect.NewNone())
	b := causaloid.NewSingleton("B", "", constFn(effect.MustProbabilistic(0.4)), effect.NewNone())

	any, err := causaloid.NewCollection("OR", "", []graph.Node{a, b}, causaloid.NewPolicyAny())
	require.NoError(t, err)
	out, err := any.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	p, ok := out.Probability()
	require.True(t, ok)
	// 1 - (1-0.5)*(1-0.4) = 1 - 0.3 = 0.7
	assert.InDelta(t, 0.7, p, 1e-9)
}

func TestCollection_SomeKDeterministicThreshold(t *testing.T) {
	members := []graph.Node{
		causaloid.NewSingleton("A", "", constFn(effect.NewDeterministic(true)), effect.NewNone()),
		causaloid.NewSingleton("B", "", constFn(effect.NewDeterministic(true)), effect.NewNone()),
		causaloid.NewSingleton("C", "", constFn(effect.NewDeterministic(false)), effect.NewNone()),
	}
	some2, err := causaloid.NewCollection("SOME2", "", members, causaloid.NewPolicySome(2))
	require.NoError(t, err)
	out, err := some2.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	v, ok := out.Bool()
	require.True(t, ok)
	assert.True(t, v, "2 of 3 members truthy meets Some(2)")

	some3, err := causaloid.NewCollection("SOME3", "", members, causaloid.NewPolicySome(3))
	require.NoError(t, err)
	out, err = some3.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	v, ok = out.Bool()
	require.True(t, ok)
	assert.False(t, v, "only 2 of 3 members truthy, Some(3) requires all")
}

func TestCollection_SomeKProbabilisticThresholdAgreesWithBoolean(t *testing.T) {
	members := []graph.Node{
		causaloid.NewSingleton("A", "", constFn(effect.MustProbabilistic(0.9)), effect.NewNone()),
		causaloid.NewSingleton("B", "", constFn(effect.MustProbabilistic(0.9)), effect.NewNone()),
		causaloid.NewSingleton("C", "", constFn(effect.NewDeterministic(false)), effect.NewNone()),
	}
	some2, err := causaloid.NewCollection("SOME2", "", members, causaloid.NewPolicySome(2))
	require.NoError(t, err)
	out, err := some2.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	p, ok := out.Probability()
	require.True(t, ok)
	active, err := effect.TruthProjection(out)
	require.NoError(t, err)
	// expected count 1.8 clears threshold 1.5, so truth projection must agree
	assert.True(t, active)
	assert.GreaterOrEqual(t, p, 0.5)
}

func TestCollection_InvalidSomePolicyRejected(t *testing.T) {
	a := causaloid.NewSingleton("A", "", constFn(effect.NewDeterministic(true)), effect.NewNone())
	_, err := causaloid.NewCollection("bad", "", []graph.Node{a}, causaloid.NewPolicySome(0))
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindInvalidPolicy))

	_, err = causaloid.NewCollection("bad2", "", []graph.Node{a}, causaloid.NewPolicySome(2))
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindInvalidPolicy))
}

func TestCollection_HaltingShortCircuitsBeforeLaterMembers(t *testing.T) {
	var laterCalls int
	a := causaloid.NewSingleton("A", "", constFn(effect.Halting), effect.NewNone())
	b := causaloid.NewSingleton("B", "", func(effect.Evidence, effect.Evidence, *causalctx.Context) (effect.PropagatingEffect, error) {
		laterCalls++
		return effect.NewDeterministic(true), nil
	}, effect.NewNone())

	coll, err := causaloid.NewCollection("HALT", "", []graph.Node{a, b}, causaloid.NewPolicyAll())
	require.NoError(t, err)
	out, err := coll.Evaluate(effect.NewNone(), nil)
	require.NoError(t, err)
	assert.True(t, out.IsHalting())
	assert.Equal(t, 0, laterCalls)
}

func TestGraphCausaloid_DelegatesToWrappedGraph(t *testing.T) {
	g := graph.New()
	inner := causaloid.NewSingleton("inner", "", boolFn("inner"), effect.NewNone())
	require.NoError(t, g.AddNode(inner))
	require.NoError(t, g.SetRoot("inner"))

	wrapper, err := causaloid.NewGraph("W", "wraps inner graph", g)
	require.NoError(t, err)

	out, err := wrapper.Evaluate(effect.NewDeterministic(true), nil)
	require.NoError(t, err)
	v, ok := out.Bool()
	require.True(t, ok)
	assert.True(t, v)
}

func TestGraphCausaloid_RequiresDesignatedRoot(t *testing.T) {
	g := graph.New()
	_, err := causaloid.NewGraph("W", "", g)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindNoRoot))
}

func TestSubGraphCausaloid_RestrictsToSelection(t *testing.T) {
	g := graph.New()
	a := causaloid.NewSingleton("A", "", boolFn("A"), effect.NewNone())
	b := causaloid.NewSingleton("B", "", constFn(effect.NewDeterministic(true)), effect.NewNone())
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge("A", "B", nil))

	sub, err := causaloid.NewSubGraph("SG", "", g, "A", []string{"A"})
	require.NoError(t, err)

	out, err := sub.Evaluate(effect.NewDeterministic(true), nil)
	require.NoError(t, err)
	v, ok := out.Bool()
	require.True(t, ok)
	assert.True(t, v)
}

func TestSubGraphCausaloid_RootMustBeInSelection(t *testing.T) {
	g := graph.New()
	a := causaloid.NewSingleton("A", "", boolFn("A"), effect.NewNone())
	require.NoError(t, g.AddNode(a))
	_, err := causaloid.NewSubGraph("SG", "", g, "A", []string{"other"})
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindUnknownNode))
}
