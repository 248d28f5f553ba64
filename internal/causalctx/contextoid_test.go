package causalctx_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"causality/internal/causalctx"
	"causality/internal/cerr"
	"causality/internal/effect"
)

func buildLinearContext(t *testing.T) *causalctx.Context {
	t.Helper()
	b := causalctx.NewBuilder("ctx-1", "root")
	b.AddNode(causalctx.NewTempoid("t0", 0)).
		AddNode(causalctx.NewTempoid("t1", 1)).
		AddEdge("root", "t0", causalctx.EdgeContainment).
		AddEdge("t0", "t1", causalctx.EdgeTemporalSuccession)

	ctx, err := b.Build()
	require.NoError(t, err)
	return ctx
}

func TestBuild_RootReachesAllNodes(t *testing.T) {
	ctx := buildLinearContext(t)
	assert.Equal(t, 3, ctx.NodeCount())
}

func TestBuild_UnreachableNodeFails(t *testing.T) {
	b := causalctx.NewBuilder("ctx-2", "root")
	b.AddNode(causalctx.NewDatoid("orphan", effect.NewNumerical(1)))
	// orphan is never linked from root.
	_, err := b.Build()
	require.Error(t, err)
}

func TestNeighbors_UnknownFamily(t *testing.T) {
	ctx := buildLinearContext(t)
	_, err := ctx.Neighbors("t0", causalctx.EdgeSpatialAdjacency)
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindUnknownEdgeFamily))
}

func TestNeighbors_InsertionOrderWithinFamily(t *testing.T) {
	b := causalctx.NewBuilder("ctx-3", "root")
	b.AddNode(causalctx.NewDatoid("a", effect.NewNumerical(1)))
	b.AddNode(causalctx.NewDatoid("b", effect.NewNumerical(2)))
	b.AddNode(causalctx.NewDatoid("c", effect.NewNumerical(3)))
	b.AddEdge("root", "a", causalctx.EdgeContainment)
	b.AddEdge("root", "b", causalctx.EdgeContainment)
	b.AddEdge("root", "c", causalctx.EdgeContainment)

	ctx, err := b.Build()
	require.NoError(t, err)

	neighbors, err := ctx.Neighbors("root", causalctx.EdgeContainment)
	require.NoError(t, err)
	require.Len(t, neighbors, 3)
	assert.Equal(t, "a", neighbors[0].ID)
	assert.Equal(t, "b", neighbors[1].ID)
	assert.Equal(t, "c", neighbors[2].ID)
}

func TestGet_UnknownContextoid(t *testing.T) {
	ctx := buildLinearContext(t)
	_, err := ctx.Get("nope")
	require.Error(t, err)
	assert.True(t, cerr.Is(err, cerr.KindUnknownContextoid))
}
