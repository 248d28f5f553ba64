// Package intervention implements Layer-2 counterfactual overlays (spec
// §4.F): do(node=v) without mutating the graph or its causal functions. The
// forced effect is recorded as an overlay and consulted read-only by
// graph.ReasonFrom/ReasonSubgraph through graph.ReasonOptions.Overlay, never
// by the graph package importing this one — the same intervention
// discipline as the teacher's Pearl-do-calculus graph surgery in
// internal/reasoning/causal.go (performGraphSurgery/SimulateIntervention),
// reworked here so that "surgery" never touches the actual CausalGraph: the
// teacher clones the graph structure and deletes edges; we instead carry a
// side-table of forced effects past an otherwise-unmodified graph, since the
// causal engine's graphs are construct-then-freeze (spec §3) and must never
// be copied or mutated mid-reasoning.
package intervention

import (
	"causality/internal/causalctx"
	"causality/internal/effect"
	"causality/internal/graph"
)

// Overlay accumulates forced node effects for one counterfactual run. The
// zero value is ready to use.
type Overlay struct {
	forced map[string]effect.PropagatingEffect
}

// New starts an empty Overlay.
func New() *Overlay {
	return &Overlay{forced: make(map[string]effect.PropagatingEffect)}
}

// Intervene records do(nodeID = forced), per spec §4.F. Returns the Overlay
// for chaining multiple interventions into one counterfactual scenario.
func (o *Overlay) Intervene(nodeID string, forced effect.PropagatingEffect) *Overlay {
	if o.forced == nil {
		o.forced = make(map[string]effect.PropagatingEffect)
	}
	o.forced[nodeID] = forced
	return o
}

// asMap returns the raw overlay map consumed by graph.ReasonOptions.
func (o *Overlay) asMap() map[string]effect.PropagatingEffect {
	if o == nil {
		return nil
	}
	return o.forced
}

// Scenario holds a factual run and its counterfactual counterpart, both
// separately inspectable (spec §4.F: "the factual and counterfactual effects
// must remain separately inspectable").
type Scenario struct {
	Factual         effect.PropagatingEffect
	FactualTrace    graph.Trace
	Counterfactual  effect.PropagatingEffect
	CFTrace         graph.Trace
}

// Run evaluates g twice from root against the same runtime_evidence and
// context — once factually, once with overlay applied — and returns both
// results. The graph itself is read-only throughout (spec §8 invariant:
// "interventions never mutate the graph").
func Run(g *graph.CausalGraph, root string, runtimeEvidence effect.Evidence, ctx *causalctx.Context, overlay *Overlay, sinkID string) (*Scenario, error) {
	factual, factualTrace, err := g.ReasonFrom(root, runtimeEvidence, ctx, graph.ReasonOptions{SinkID: sinkID})
	if err != nil {
		return nil, err
	}

	cf, cfTrace, err := g.ReasonFrom(root, runtimeEvidence, ctx, graph.ReasonOptions{SinkID: sinkID, Overlay: overlay.asMap()})
	if err != nil {
		return nil, err
	}

	return &Scenario{
		Factual:        factual,
		FactualTrace:   factualTrace,
		Counterfactual: cf,
		CFTrace:        cfTrace,
	}, nil
}

// RunSubgraph is the Run counterpart for a restricted selection (spec
// §4.C.4 composed with §4.F).
func RunSubgraph(g *graph.CausalGraph, root string, selection []string, runtimeEvidence effect.Evidence, ctx *causalctx.Context, overlay *Overlay, sinkID string) (*Scenario, error) {
	factual, factualTrace, err := g.ReasonSubgraph(root, selection, runtimeEvidence, ctx, graph.ReasonOptions{SinkID: sinkID})
	if err != nil {
		return nil, err
	}

	cf, cfTrace, err := g.ReasonSubgraph(root, selection, runtimeEvidence, ctx, graph.ReasonOptions{SinkID: sinkID, Overlay: overlay.asMap()})
	if err != nil {
		return nil, err
	}

	return &Scenario{
		Factual:        factual,
		FactualTrace:   factualTrace,
		Counterfactual: cf,
		CFTrace:        cfTrace,
	}, nil
}

// AncestorsUnchanged reports whether every node upstream of nodeID (per both
// traces) produced an identical effect in the factual and counterfactual
// runs — the invariant spec §8 requires of a well-formed intervention.
func AncestorsUnchanged(s *Scenario, g *graph.CausalGraph, nodeID string) (bool, error) {
	ancestors, err := ancestorsOf(g, nodeID)
	if err != nil {
		return false, err
	}
	factualByNode := indexTrace(s.FactualTrace)
	cfByNode := indexTrace(s.CFTrace)
	for a := range ancestors {
		fe, fok := factualByNode[a]
		ce, cok := cfByNode[a]
		if !fok || !cok {
			continue
		}
		if !fe.Equal(ce) {
			return false, nil
		}
	}
	return true, nil
}

func indexTrace(t graph.Trace) map[string]effect.PropagatingEffect {
	out := make(map[string]effect.PropagatingEffect, len(t))
	for _, e := range t {
		out[e.NodeID] = e.Effect
	}
	return out
}

func ancestorsOf(g *graph.CausalGraph, nodeID string) (map[string]bool, error) {
	ancestors := make(map[string]bool)
	queue := []string{nodeID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		preds, err := g.ReverseNeighbors(cur)
		if err != nil {
			return nil, err
		}
		for _, p := range preds {
			if !ancestors[p] {
				ancestors[p] = true
				queue = append(queue, p)
			}
		}
	}
	return ancestors, nil
}
