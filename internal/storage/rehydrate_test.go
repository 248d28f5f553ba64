package storage_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/causalctx"
	"causality/internal/causaloid"
	"causality/internal/effect"
	"causality/internal/graph"
	"causality/internal/storage"
)

// TestGraphDefinitionRoundTrip builds a live graph, stores its structural
// definition, retrieves it, rehydrates a new live graph by re-registering
// CausalFns by node id, and checks ReasonFrom agrees with the original.
func TestGraphDefinitionRoundTrip(t *testing.T) {
	fnA := func(effect.Evidence, effect.Evidence, *causalctx.Context) (effect.PropagatingEffect, error) {
		return effect.NewNumerical(0.9), nil
	}
	fnB := func(e effect.Evidence, _ effect.Evidence, _ *causalctx.Context) (effect.PropagatingEffect, error) {
		v, _ := e.Numerical()
		return effect.NewDeterministic(v >= 0.5), nil
	}

	original := graph.New()
	a := causaloid.NewSingleton("A", "root", fnA, effect.NewNone())
	b := causaloid.NewSingleton("B", "leaf", fnB, effect.NewNone())
	require.NoError(t, original.AddNode(a))
	require.NoError(t, original.AddNode(b))
	require.NoError(t, original.AddEdge("A", "B", nil))
	require.NoError(t, original.SetRoot("A"))

	wantResult, _, err := original.ReasonFrom("A", effect.NewNone(), nil, graph.ReasonOptions{SinkID: "B"})
	require.NoError(t, err)

	def, err := storage.DefinitionFromGraph("g1", original)
	require.NoError(t, err)

	s := storage.NewMemoryStorage()
	require.NoError(t, s.StoreGraphDefinition(def))

	stored, err := s.GetGraphDefinition("g1")
	require.NoError(t, err)

	rehydrated, err := storage.RehydrateGraph(stored, map[string]causaloid.CausalFn{
		"A": fnA,
		"B": fnB,
	}, nil)
	require.NoError(t, err)

	gotResult, _, err := rehydrated.ReasonFrom("A", effect.NewNone(), nil, graph.ReasonOptions{SinkID: "B"})
	require.NoError(t, err)
	assert.True(t, gotResult.Equal(wantResult))
}

// TestContextDefinitionRoundTrip builds a live Context, stores its
// structural definition, retrieves it, rehydrates a new live Context by
// re-supplying payloads by id, and checks the rehydrated Context returns the
// re-supplied payload for the linked Contextoid id.
func TestContextDefinitionRoundTrip(t *testing.T) {
	original, err := causalctx.NewBuilder("ctx-1", "root").
		AddNode(causalctx.NewDatoid("node_7", effect.NewNumerical(3.14))).
		AddEdge("root", "node_7", causalctx.EdgeContainment).
		Build()
	require.NoError(t, err)

	def := storage.DefinitionFromContext("ctx-1", original)

	s := storage.NewMemoryStorage()
	require.NoError(t, s.StoreContextDefinition(def))

	stored, err := s.GetContextDefinition("ctx-1")
	require.NoError(t, err)

	rehydrated, err := storage.RehydrateContext(stored, map[string]effect.Evidence{
		"node_7": effect.NewNumerical(3.14),
	})
	require.NoError(t, err)

	contextoid, err := rehydrated.Get("node_7")
	require.NoError(t, err)
	v, ok := contextoid.Payload.Numerical()
	require.True(t, ok)
	assert.InDelta(t, 3.14, v, 1e-9)
}
