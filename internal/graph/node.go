// Package graph implements the CausalGraph contract and its default-
// implemented reasoning extensions (spec §4.C): BFS reasoning, explanation
// extraction, shortest-path, and sub-graph restriction over a directed graph
// of Causaloids.
//
// The package reasons over a minimal Node interface and does not import
// the causaloid package itself — the
// Causaloid's Graph/SubGraph variants wrap a *CausalGraph, and a CausalGraph
// holds Nodes, so the dependency is cut here the way the teacher's arena +
// stable-index design note prescribes: an interface in the lower layer
// instead of a concrete type, sidestepping the ownership cycle.
package graph

import (
	"causality/internal/causalctx"
	"causality/internal/effect"
)

// Node is the minimal contract a graph vertex must satisfy to participate
// in reasoning. A causaloid.Causaloid implements this.
type Node interface {
	// ID returns the node's stable identifier.
	ID() string
	// Evaluate runs the node's causal function against incoming evidence and
	// an optional context, per spec §4.B.
	Evaluate(incoming effect.Evidence, ctx *causalctx.Context) (effect.PropagatingEffect, error)
	// Describe returns a short, static description used in explanation
	// traces (spec §4.C.2); it must not depend on runtime state.
	Describe() string
}
