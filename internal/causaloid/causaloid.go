// Package causaloid implements the Causaloid closed polymorphic family (spec
// §4.B): Singleton, Collection, Graph and SubGraph, dispatched by variant
// discrimination rather than dynamic lookup, following the same
// function-pointer-over-closure discipline the teacher's orchestration steps
// use in internal/orchestration/workflow.go (a Step is a named func value,
// never a captured-state object).
//
// A Causaloid implements graph.Node, so it can itself be a vertex of a
// CausalGraph (component C); the Graph/SubGraph variants close the loop by
// wrapping a *graph.CausalGraph back into a single Causaloid.
package causaloid

import (
	"fmt"

	"causality/internal/causalctx"
	"causality/internal/cerr"
	"causality/internal/effect"
	"causality/internal/graph"
)

// Kind discriminates the Causaloid sum type.
type Kind int

const (
	KindSingleton Kind = iota
	KindCollection
	KindGraph
	KindSubGraph
)

func (k Kind) String() string {
	switch k {
	case KindSingleton:
		return "Singleton"
	case KindCollection:
		return "Collection"
	case KindGraph:
		return "Graph"
	case KindSubGraph:
		return "SubGraph"
	default:
		return "Unknown"
	}
}

// CausalFn is a pure causal function pointer: its only inputs are the three
// explicit arguments (spec §4.B invariant), never captured state.
type CausalFn func(runtimeEvidence effect.Evidence, staticConfig effect.Evidence, ctx *causalctx.Context) (effect.PropagatingEffect, error)

// Causaloid is the closed, statically-dispatched family of reasoning units.
// The zero value is not usable; build one with NewSingleton, NewCollection,
// NewGraph or NewSubGraph.
type Causaloid struct {
	kind        Kind
	id          string
	description string

	// Singleton
	fn           CausalFn
	staticConfig effect.Evidence

	// Collection
	members []graph.Node
	policy  AggregatePolicy

	// Graph / SubGraph
	wrapped       *graph.CausalGraph
	subgraphRoot  string
	subgraphNodes []string
}

// ID returns the Causaloid's stable identifier, satisfying graph.Node.
func (c *Causaloid) ID() string { return c.id }

// Describe returns the static description recorded in explanation traces.
func (c *Causaloid) Describe() string { return c.description }

// Kind reports which of the four variants c is.
func (c *Causaloid) Kind() Kind { return c.kind }

// Evaluate dispatches on c's variant, per spec §4.B. A Singleton's fn is
// called under recover so a panic is never silent regardless of call path
// (spec §4.B, §6): through graph.ReasonFrom, through a Collection member,
// or bare.
func (c *Causaloid) Evaluate(incoming effect.Evidence, ctx *causalctx.Context) (effect.PropagatingEffect, error) {
	switch c.kind {
	case KindSingleton:
		return c.evaluateSingleton(incoming, ctx)
	case KindCollection:
		return evaluateCollection(c.members, c.policy, incoming, ctx)
	case KindGraph:
		result, _, err := c.wrapped.ReasonFrom(c.wrapped.RootID(), incoming, ctx, graph.ReasonOptions{})
		return result, err
	case KindSubGraph:
		result, _, err := c.wrapped.ReasonSubgraph(c.subgraphRoot, c.subgraphNodes, incoming, ctx, graph.ReasonOptions{})
		return result, err
	default:
		return effect.PropagatingEffect{}, cerr.Newf(cerr.KindShape, "causaloid %q has unknown kind", c.id)
	}
}

// evaluateSingleton calls c.fn, converting any panic into an error rather
// than letting it escape (spec §4.B: "panic is never silent").
func (c *Causaloid) evaluateSingleton(incoming effect.Evidence, ctx *causalctx.Context) (result effect.PropagatingEffect, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in causaloid %q function: %v", c.id, r)
		}
	}()
	return c.fn(incoming, c.staticConfig, ctx)
}

// NewSingleton builds a Singleton Causaloid around a pure causal function.
func NewSingleton(id, description string, fn CausalFn, staticConfig effect.Evidence) *Causaloid {
	return &Causaloid{
		kind:         KindSingleton,
		id:           id,
		description:  description,
		fn:           fn,
		staticConfig: staticConfig,
	}
}

// NewGraph wraps g as a single Causaloid, delegating evaluation to
// g.ReasonFrom from its designated root (spec §4.B: "a Graph Causaloid must
// have at least one designated root").
func NewGraph(id, description string, g *graph.CausalGraph) (*Causaloid, error) {
	if g.RootID() == "" {
		return nil, cerr.Newf(cerr.KindNoRoot, "graph causaloid %q: wrapped graph has no designated root", id)
	}
	return &Causaloid{kind: KindGraph, id: id, description: description, wrapped: g}, nil
}

// NewSubGraph wraps g, restricting evaluation to the reachable subset
// selection from root.
func NewSubGraph(id, description string, g *graph.CausalGraph, root string, selection []string) (*Causaloid, error) {
	if root == "" {
		return nil, cerr.Newf(cerr.KindNoRoot, "subgraph causaloid %q: no root given", id)
	}
	found := false
	for _, s := range selection {
		if s == root {
			found = true
			break
		}
	}
	if !found {
		return nil, cerr.Newf(cerr.KindUnknownNode, "subgraph causaloid %q: root %q not in selection", id, root)
	}
	return &Causaloid{
		kind:          KindSubGraph,
		id:            id,
		description:   description,
		wrapped:       g,
		subgraphRoot:  root,
		subgraphNodes: selection,
	}, nil
}
