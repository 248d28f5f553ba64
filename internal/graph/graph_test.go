package graph_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/causalctx"
	"causality/internal/causalctx/vectorindex"
	"causality/internal/cerr"
	"causality/internal/effect"
	"causality/internal/graph"
)

// funcNode is a minimal graph.Node used only to exercise the graph
// package's traversal algorithms in isolation from causaloid.
type funcNode struct {
	id    string
	desc  string
	calls *int
	fn    func(effect.Evidence) (effect.PropagatingEffect, error)
}

func (n funcNode) ID() string { return n.id }
func (n funcNode) Describe() string { return n.desc }
func (n funcNode) Evaluate(incoming effect.Evidence, ctx *causalctx.Context) (effect.PropagatingEffect, error) {
	if n.calls != nil {
		*n.calls++
	}
	return n.fn(incoming)
}

func thresholdNode(id string, calls *int) funcNode {
	return funcNode{
		id:   id,
		desc: fmt.Sprintf("%s: true when numerical evidence >= 0.5", id),
		calls: calls,
		fn: func(e effect.Evidence) (effect.PropagatingEffect, error) {
			if v, ok := e.Numerical(); ok {
				return effect.NewDeterministic(v >= 0.5), nil
			}
			if v, ok := e.Probability(); ok {
				return effect.NewDeterministic(v >= 0.5), nil
			}
			return effect.NewDeterministic(false), nil
		},
	}
}

func relayNode(id string) funcNode {
	return funcNode{
		id:   id,
		desc: fmt.Sprintf("%s: relays numerical evidence unchanged", id),
		fn: func(e effect.Evidence) (effect.PropagatingEffect, error) {
			if v, ok := e.Numerical(); ok {
				return effect.NewNumerical(v), nil
			}
			return effect.NewNumerical(0), nil
		},
	}
}

// Scenario 1: synergistic AND — a relay root fans evidence out to A and B,
// which fan into a Collection-style AND node C.
func TestScenario1_SynergisticAND(t *testing.T) {
	g := graph.New()
	root := relayNode("Root")
	a := thresholdNode("A", nil)
	b := thresholdNode("B", nil)
	c := funcNode{
		id:   "C",
		desc: "C: AND of predecessors",
		fn: func(e effect.Evidence) (effect.PropagatingEffect, error) {
			bv, _ := e.Bool()
			return effect.NewDeterministic(bv), nil
		},
	}
	require.NoError(t, g.AddNode(root))
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddNode(c))
	require.NoError(t, g.AddEdge("Root", "A", nil))
	require.NoError(t, g.AddEdge("Root", "B", nil))
	require.NoError(t, g.AddEdge("A", "C", nil))
	require.NoError(t, g.AddEdge("B", "C", nil))
	require.NoError(t, g.SetRoot("Root"))

	result, _, err := g.ReasonFrom("Root", effect.NewNumerical(0.6), nil, graph.ReasonOptions{SinkID: "C"})
	require.NoError(t, err)
	v, ok := result.Bool()
	require.True(t, ok)
	assert.True(t, v)
}

// Scenario 3: halting short-circuit.
func TestScenario3_HaltingShortCircuit(t *testing.T) {
	g := graph.New()
	var bCalls, cCalls int

	a := funcNode{id: "A", desc: "A: always halts",
		fn: func(effect.Evidence) (effect.PropagatingEffect, error) { return effect.Halting, nil }}
	b := funcNode{id: "B", desc: "B", calls: &bCalls,
		fn: func(effect.Evidence) (effect.PropagatingEffect, error) { return effect.NewDeterministic(true), nil }}
	c := funcNode{id: "C", desc: "C", calls: &cCalls,
		fn: func(effect.Evidence) (effect.PropagatingEffect, error) { return effect.NewDeterministic(true), nil }}

	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddNode(c))
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.AddEdge("B", "C", nil))
	require.NoError(t, g.SetRoot("A"))

	result, trace, err := g.ReasonFrom("A", effect.NewDeterministic(true), nil, graph.ReasonOptions{})
	require.NoError(t, err)
	assert.True(t, result.IsHalting())
	assert.Len(t, trace, 3)
	assert.Equal(t, 0, bCalls, "B's function must not be invoked once halted")
	assert.Equal(t, 0, cCalls, "C's function must not be invoked once halted")
}

func TestReasonFrom_CycleDetected(t *testing.T) {
	g := graph.New()
	a := thresholdNode("A", nil)
	b := thresholdNode("B", nil)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.AddEdge("B", "A", nil))

	_, _, err := g.ReasonFrom("A", effect.NewNumerical(1), nil, graph.ReasonOptions{})
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindCycleDetected))
}

func TestReasonFrom_EmptyGraphNoRoot(t *testing.T) {
	g := graph.New()
	_, _, err := g.ReasonFrom("A", effect.NewNumerical(1), nil, graph.ReasonOptions{})
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindNoRoot))
}

func TestReasonFrom_SingleNodeEqualsItsEvaluation(t *testing.T) {
	g := graph.New()
	a := thresholdNode("A", nil)
	require.NoError(t, g.AddNode(a))

	result, _, err := g.ReasonFrom("A", effect.NewNumerical(0.9), nil, graph.ReasonOptions{})
	require.NoError(t, err)
	v, _ := result.Bool()
	assert.True(t, v)
}

func TestReasonFrom_MultipleSinksReturnsMap(t *testing.T) {
	g := graph.New()
	a := thresholdNode("A", nil)
	b := thresholdNode("B", nil)
	c := thresholdNode("C", nil)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddNode(c))
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.AddEdge("A", "C", nil))
	require.NoError(t, g.SetRoot("A"))

	result, _, err := g.ReasonFrom("A", effect.NewNumerical(0.9), nil, graph.ReasonOptions{})
	require.NoError(t, err)
	m, ok := result.MapValue()
	require.True(t, ok)
	assert.Len(t, m, 2)
}

func TestShortestPath_FallsBackToBFSHops(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, g.AddNode(thresholdNode(id, nil)))
	}
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.AddEdge("B", "D", nil))
	require.NoError(t, g.AddEdge("A", "C", nil))
	require.NoError(t, g.AddEdge("C", "D", nil))

	path, ok, err := g.ShortestPath("A", "D")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, graph.Path{"A", "B", "D"}, path, "lexicographic tie-break prefers B over C")
}

func TestShortestPath_UsesWeightsWhenPresent(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, g.AddNode(thresholdNode(id, nil)))
	}
	w1, w10 := 1.0, 10.0
	require.NoError(t, g.AddEdge("A", "B", &w10))
	require.NoError(t, g.AddEdge("B", "D", &w1))
	require.NoError(t, g.AddEdge("A", "C", &w1))
	require.NoError(t, g.AddEdge("C", "D", &w1))

	path, ok, err := g.ShortestPath("A", "D")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, graph.Path{"A", "C", "D"}, path)
}

func TestExplainFromTo_RequiresPriorEvaluation(t *testing.T) {
	g := graph.New()
	require.NoError(t, g.AddNode(thresholdNode("A", nil)))
	_, err := g.ExplainFromTo("A", "A", nil)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindNotYetEvaluated))
}

func TestExplainFromTo_BuildsTreeOverMultiplePaths(t *testing.T) {
	g := graph.New()
	for _, id := range []string{"A", "B", "C", "D"} {
		require.NoError(t, g.AddNode(thresholdNode(id, nil)))
	}
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.AddEdge("A", "C", nil))
	require.NoError(t, g.AddEdge("B", "D", nil))
	require.NoError(t, g.AddEdge("C", "D", nil))
	require.NoError(t, g.SetRoot("A"))

	_, trace, err := g.ReasonFrom("A", effect.NewNumerical(0.9), nil, graph.ReasonOptions{SinkID: "D"})
	require.NoError(t, err)

	tree, err := g.ExplainFromTo("A", "D", trace)
	require.NoError(t, err)
	require.Equal(t, "A", tree.Root.NodeID)
	require.Len(t, tree.Root.Children, 2)
}

// Scenario 6: ContextualLink resolution — A returns a link into a Context
// Datoid rather than a structural effect, and the linked payload becomes B's
// incoming evidence (spec §4.C.1.b, §4.D).
func TestScenario6_ContextualLinkResolvesToLinkedContextoidPayload(t *testing.T) {
	g := graph.New()

	var bEvidence effect.Evidence
	a := funcNode{
		id:   "A",
		desc: "A: returns a link into the context",
		fn: func(effect.Evidence) (effect.PropagatingEffect, error) {
			return effect.NewContextualLink("ctx-1", "node_7"), nil
		},
	}
	b := funcNode{
		id:   "B",
		desc: "B: records the evidence it receives",
		fn: func(e effect.Evidence) (effect.PropagatingEffect, error) {
			bEvidence = e
			return effect.NewDeterministic(true), nil
		},
	}
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.SetRoot("A"))

	cctx, err := causalctx.NewBuilder("ctx-1", "root").
		AddNode(causalctx.NewDatoid("node_7", effect.NewNumerical(3.14))).
		AddEdge("root", "node_7", causalctx.EdgeContainment).
		Build()
	require.NoError(t, err)

	_, _, err = g.ReasonFrom("A", effect.NewNone(), cctx, graph.ReasonOptions{SinkID: "B"})
	require.NoError(t, err)

	v, ok := bEvidence.Numerical()
	require.True(t, ok)
	assert.InDelta(t, 3.14, v, 1e-9)
}

// A ContextualLink naming a Contextoid id the Context doesn't have falls
// back to a vector-index nearest-neighbor lookup when one is configured and
// the evaluating node has a registered embedding query (spec §4.D).
func TestScenario6_ContextualLinkFallsBackToNearestEmbedding(t *testing.T) {
	g := graph.New()

	var bEvidence effect.Evidence
	a := funcNode{
		id:   "A",
		desc: "A: links to a contextoid the context doesn't have by that id",
		fn: func(effect.Evidence) (effect.PropagatingEffect, error) {
			return effect.NewContextualLink("ctx-1", "missing_node"), nil
		},
	}
	b := funcNode{
		id:   "B",
		desc: "B: records the evidence it receives",
		fn: func(e effect.Evidence) (effect.PropagatingEffect, error) {
			bEvidence = e
			return effect.NewDeterministic(true), nil
		},
	}
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.SetRoot("A"))

	cctx, err := causalctx.NewBuilder("ctx-1", "root").
		AddNode(causalctx.NewDatoid("node_7", effect.NewNumerical(2.5))).
		AddEdge("root", "node_7", causalctx.EdgeContainment).
		Build()
	require.NoError(t, err)

	idx, err := vectorindex.New()
	require.NoError(t, err)
	require.NoError(t, idx.Add(context.Background(), "node_7", []float32{1, 0, 0}))

	opts := graph.ReasonOptions{
		SinkID:           "B",
		VectorIndex:      idx,
		EmbeddingQueries: map[string][]float32{"B": {1, 0, 0}},
	}
	_, _, err = g.ReasonFrom("A", effect.NewNone(), cctx, opts)
	require.NoError(t, err)

	v, ok := bEvidence.Numerical()
	require.True(t, ok)
	assert.InDelta(t, 2.5, v, 1e-9)
}

func TestReasonSubgraph_AllNodesMatchesFullGraph(t *testing.T) {
	g := graph.New()
	a := thresholdNode("A", nil)
	b := thresholdNode("B", nil)
	require.NoError(t, g.AddNode(a))
	require.NoError(t, g.AddNode(b))
	require.NoError(t, g.AddEdge("A", "B", nil))
	require.NoError(t, g.SetRoot("A"))

	full, _, err := g.ReasonFrom("A", effect.NewNumerical(0.9), nil, graph.ReasonOptions{SinkID: "B"})
	require.NoError(t, err)

	sub, _, err := g.ReasonSubgraph("A", []string{"A", "B"}, effect.NewNumerical(0.9), nil, graph.ReasonOptions{SinkID: "B"})
	require.NoError(t, err)

	assert.True(t, full.Equal(sub))
}
