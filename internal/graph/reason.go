package graph

import (
	"context"
	"fmt"
	"sort"
	"time"

	"causality/internal/causalctx"
	"causality/internal/causalctx/vectorindex"
	"causality/internal/cerr"
	"causality/internal/effect"
	"causality/internal/metrics"
)

// TraceEntry records one node's evaluation during a reasoning pass, per
// spec §4.C.1.c.
type TraceEntry struct {
	NodeID string
	Effect effect.PropagatingEffect
	Reason string
}

// Trace is the ordered record of a reasoning pass, in visitation order.
type Trace []TraceEntry

// ReasonOptions configures a single reason_from / reason_subgraph call.
type ReasonOptions struct {
	// SinkID, if set, selects which node's effect is returned when the
	// graph has multiple sinks. If empty and multiple sinks exist, the
	// result is a Map(sink_id -> effect).
	SinkID string
	// Overlay forces the listed nodes' effects rather than evaluating their
	// function, implementing Layer-2 intervention (spec §4.F). It is
	// supplied by the intervention package and consulted read-only here;
	// the graph itself is never mutated.
	Overlay map[string]effect.PropagatingEffect
	// Metrics, if set, receives one RecordReasoningCall per invocation of
	// ReasonFrom/ReasonSubgraph that passes the empty-graph, root and cycle
	// checks: the call's wall-clock duration and whether it ended in a
	// Halting effect. Calls rejected by those checks are not recorded.
	Metrics *metrics.Collector
	// VectorIndex, if set, backs a fallback ContextualLink resolution: when
	// the linked Contextoid id isn't found by exact lookup, and
	// EmbeddingQueries holds a query vector for the evaluating node, the
	// nearest indexed Contextoid is used instead (spec §4.D's "nearest
	// Contextoid" resolution strategy).
	VectorIndex *vectorindex.Index
	// EmbeddingQueries maps a node id to the embedding vector used to query
	// VectorIndex when that node's incoming ContextualLink fails to resolve
	// by exact id.
	EmbeddingQueries map[string][]float32
}

// ReasonFrom evaluates the graph starting at root against runtime_evidence,
// per spec §4.C.1. It returns the resulting effect, a trace of every
// visited node, and an error. Per spec §7, a partial trace is always
// returned alongside an error rather than discarded.
func (cg *CausalGraph) ReasonFrom(root string, runtimeEvidence effect.Evidence, ctx *causalctx.Context, opts ReasonOptions) (effect.PropagatingEffect, Trace, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	if len(cg.nodes) == 0 {
		return effect.PropagatingEffect{}, nil, cerr.New(cerr.KindNoRoot, "graph has no nodes")
	}
	if root == "" {
		root = cg.rootID
	}
	if _, ok := cg.nodes[root]; !ok {
		return effect.PropagatingEffect{}, nil, cerr.Newf(cerr.KindUnknownNode, "root %q not found", root)
	}
	if err := cg.assertAcyclic(); err != nil {
		return effect.PropagatingEffect{}, nil, err
	}

	reachable, err := cg.reachableFrom(root)
	if err != nil {
		return effect.PropagatingEffect{}, nil, err
	}
	return cg.reasonOverSelection(root, reachable, runtimeEvidence, ctx, opts)
}

// ReasonSubgraph is identical to ReasonFrom but restricts visitation to
// selection and the internal edges among its members; edges leaving the
// selection are pruned (spec §4.C.4).
func (cg *CausalGraph) ReasonSubgraph(root string, selection []string, runtimeEvidence effect.Evidence, ctx *causalctx.Context, opts ReasonOptions) (effect.PropagatingEffect, Trace, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	if len(cg.nodes) == 0 {
		return effect.PropagatingEffect{}, nil, cerr.New(cerr.KindNoRoot, "graph has no nodes")
	}
	if root == "" {
		root = cg.rootID
	}
	sel := make(map[string]bool, len(selection))
	for _, id := range selection {
		if _, ok := cg.nodes[id]; !ok {
			return effect.PropagatingEffect{}, nil, cerr.Newf(cerr.KindUnknownNode, "selection node %q not found", id)
		}
		sel[id] = true
	}
	if !sel[root] {
		return effect.PropagatingEffect{}, nil, cerr.Newf(cerr.KindUnknownNode, "root %q not in selection", root)
	}
	if err := cg.assertAcyclic(); err != nil {
		return effect.PropagatingEffect{}, nil, err
	}
	return cg.reasonOverSelection(root, sel, runtimeEvidence, ctx, opts)
}

func (cg *CausalGraph) reachableFrom(root string) (map[string]bool, error) {
	reachable := map[string]bool{root: true}
	queue := []string{root}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		succs, err := cg.neighborsLocked(cur)
		if err != nil {
			return nil, err
		}
		for _, s := range succs {
			if !reachable[s] {
				reachable[s] = true
				queue = append(queue, s)
			}
		}
	}
	return reachable, nil
}

// reasonOverSelection runs the shared BFS-wavefront evaluation algorithm
// (spec §4.C.1) restricted to the node ids in selection.
func (cg *CausalGraph) reasonOverSelection(root string, selection map[string]bool, runtimeEvidence effect.Evidence, ctx *causalctx.Context, opts ReasonOptions) (result effect.PropagatingEffect, trace Trace, err error) {
	if opts.Metrics != nil {
		start := time.Now()
		defer func() {
			opts.Metrics.RecordReasoningCall(root, time.Since(start), err == nil && result.IsHalting())
		}()
	}

	order, err := cg.topologicalWavefront(selection)
	if err != nil {
		return effect.PropagatingEffect{}, nil, err
	}

	effects := make(map[string]effect.PropagatingEffect, len(order))
	trace = make(Trace, 0, len(order))

	for _, n := range order {
		node := cg.nodes[n]

		var incomingEffect effect.PropagatingEffect
		var incomingEvidence effect.Evidence

		if n == root {
			incomingEvidence = runtimeEvidence
		} else {
			preds, perr := cg.reverseNeighborsLocked(n)
			if perr != nil {
				return effect.PropagatingEffect{}, trace, perr
			}
			composed, halted, cerr2 := cg.composePredecessors(n, preds, selection, effects)
			if cerr2 != nil {
				return effect.PropagatingEffect{}, trace, cerr2
			}
			if halted {
				effects[n] = effect.Halting
				trace = append(trace, TraceEntry{NodeID: n, Effect: effect.Halting, Reason: node.Describe()})
				continue
			}
			incomingEffect = composed
			ev, linkErr := cg.resolveIncomingEvidence(n, incomingEffect, ctx, opts)
			if linkErr != nil {
				return effect.PropagatingEffect{}, trace, linkErr
			}
			incomingEvidence = ev
		}

		forced, forcedOK := opts.Overlay[n]
		var result effect.PropagatingEffect
		if forcedOK {
			result = forced
		} else {
			result, err = evaluateNode(node, incomingEvidence, ctx)
			if err != nil {
				return effect.PropagatingEffect{}, trace, cerr.WrapNode(cerr.KindEvaluationFailed, n, "causaloid function failed", err)
			}
		}

		effects[n] = result
		trace = append(trace, TraceEntry{NodeID: n, Effect: result, Reason: node.Describe()})
	}

	result, err = cg.resolveResult(selection, effects, opts.SinkID)
	if err != nil {
		return effect.PropagatingEffect{}, trace, err
	}
	return result, trace, nil
}

// evaluateNode calls node.Evaluate, converting any panic into an error
// rather than letting it escape (spec §4.B, §9: "panics ... caught and
// converted").
func evaluateNode(node Node, incoming effect.Evidence, ctx *causalctx.Context) (result effect.PropagatingEffect, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic in causaloid function: %v", r)
		}
	}()
	return node.Evaluate(incoming, ctx)
}

// composePredecessors collects and combines the effects of n's predecessors
// that lie within selection, per spec §4.C.1.a-b. It reports halted=true if
// any predecessor contributed Halting.
func (cg *CausalGraph) composePredecessors(n string, preds []string, selection map[string]bool, effects map[string]effect.PropagatingEffect) (effect.PropagatingEffect, bool, error) {
	var composed effect.PropagatingEffect
	first := true
	for _, p := range preds {
		if !selection[p] {
			continue
		}
		pe, ok := effects[p]
		if !ok {
			continue
		}
		if pe.IsHalting() {
			return effect.PropagatingEffect{}, true, nil
		}
		if first {
			composed = pe
			first = false
			continue
		}
		var err error
		composed, err = effect.Combine(composed, pe)
		if err != nil {
			return effect.PropagatingEffect{}, false, cerr.Wrap(cerr.KindNotTruthProjectable, fmt.Sprintf("composing predecessor effects for %s", n), err)
		}
	}
	if first {
		// No predecessor effect was recorded (a degenerate multi-root
		// selection); treat as vacuously true so downstream Collections see
		// a neutral Deterministic(true).
		composed = effect.NewDeterministic(true)
	}
	return composed, false, nil
}

// resolveIncomingEvidence turns a composed PropagatingEffect into the
// Evidence value passed to the next node's function. A ContextualLink
// triggers a one-step Context lookup (spec §4.C.1.b, §4.D); all other
// variants convert structurally. If the exact lookup misses and opts
// supplies a VectorIndex plus an embedding query for nodeID, the nearest
// indexed Contextoid is used instead of failing outright.
func (cg *CausalGraph) resolveIncomingEvidence(nodeID string, e effect.PropagatingEffect, ctx *causalctx.Context, opts ReasonOptions) (effect.Evidence, error) {
	if link, ok := e.Link(); ok {
		if ctx == nil {
			return effect.Evidence{}, cerr.Newf(cerr.KindUnknownContextoid, "contextual link to %s/%s but no context supplied", link.ContextID, link.NodeID)
		}
		contextoid, err := ctx.Get(link.NodeID)
		if err != nil {
			fallback, fallbackErr := cg.resolveByNearestEmbedding(nodeID, ctx, opts)
			if fallbackErr != nil {
				return effect.Evidence{}, err
			}
			return fallback, nil
		}
		return contextoid.Payload, nil
	}
	return effectToEvidence(e)
}

// resolveByNearestEmbedding queries opts.VectorIndex for the Contextoid
// nearest to nodeID's registered embedding query, returning the first hit's
// payload. It errors if no index, no query, or no results are available, so
// the caller can fall back to the original exact-lookup error.
func (cg *CausalGraph) resolveByNearestEmbedding(nodeID string, ctx *causalctx.Context, opts ReasonOptions) (effect.Evidence, error) {
	if opts.VectorIndex == nil {
		return effect.Evidence{}, cerr.New(cerr.KindUnknownContextoid, "no vector index configured")
	}
	query, ok := opts.EmbeddingQueries[nodeID]
	if !ok {
		return effect.Evidence{}, cerr.Newf(cerr.KindUnknownContextoid, "no embedding query registered for node %q", nodeID)
	}
	ids, err := opts.VectorIndex.Nearest(context.Background(), query, 1)
	if err != nil {
		return effect.Evidence{}, fmt.Errorf("nearest-contextoid fallback for node %q: %w", nodeID, err)
	}
	if len(ids) == 0 {
		return effect.Evidence{}, cerr.Newf(cerr.KindUnknownContextoid, "vector index returned no candidates for node %q", nodeID)
	}
	contextoid, err := ctx.Get(ids[0])
	if err != nil {
		return effect.Evidence{}, err
	}
	return contextoid.Payload, nil
}

func effectToEvidence(e effect.PropagatingEffect) (effect.Evidence, error) {
	switch e.Kind() {
	case effect.EffectDeterministic:
		b, _ := e.Bool()
		return effect.NewDeterministic(b), nil
	case effect.EffectProbabilistic:
		p, _ := e.Probability()
		return effect.NewProbability(p)
	case effect.EffectNumerical:
		v, _ := e.Numerical()
		return effect.NewNumerical(v), nil
	case effect.EffectMap:
		m, _ := e.MapValue()
		out := make(map[string]effect.Evidence, len(m))
		for k, v := range m {
			ev, err := effectToEvidence(v)
			if err != nil {
				return effect.Evidence{}, err
			}
			out[k] = ev
		}
		return effect.NewMap(out), nil
	default:
		return effect.Evidence{}, cerr.Newf(cerr.KindShape, "effect variant %s has no evidence conversion", e.Kind())
	}
}

// resolveResult selects the final effect per spec §4.C.1.4: the unique
// terminal node (no outgoing edges within selection), a caller-provided
// sink id, or a Map over all sinks if several exist and none was named.
func (cg *CausalGraph) resolveResult(selection map[string]bool, effects map[string]effect.PropagatingEffect, sinkID string) (effect.PropagatingEffect, error) {
	if sinkID != "" {
		e, ok := effects[sinkID]
		if !ok {
			return effect.PropagatingEffect{}, cerr.Newf(cerr.KindUnknownNode, "sink %q was not evaluated", sinkID)
		}
		return e, nil
	}

	sinks := make([]string, 0)
	for id := range selection {
		succs, err := cg.neighborsLocked(id)
		if err != nil {
			return effect.PropagatingEffect{}, err
		}
		hasInternalSucc := false
		for _, s := range succs {
			if selection[s] {
				hasInternalSucc = true
				break
			}
		}
		if !hasInternalSucc {
			sinks = append(sinks, id)
		}
	}
	sort.Strings(sinks)

	if len(sinks) == 1 {
		return effects[sinks[0]], nil
	}
	out := make(map[string]effect.PropagatingEffect, len(sinks))
	for _, s := range sinks {
		out[s] = effects[s]
	}
	return effect.NewMap(out), nil
}

// topologicalWavefront orders selection's nodes in BFS topological
// wavefront order, ties broken by stable node id (spec §4.C.1.2).
func (cg *CausalGraph) topologicalWavefront(selection map[string]bool) ([]string, error) {
	indegree := make(map[string]int, len(selection))
	for id := range selection {
		preds, err := cg.reverseNeighborsLocked(id)
		if err != nil {
			return nil, err
		}
		count := 0
		for _, p := range preds {
			if selection[p] {
				count++
			}
		}
		indegree[id] = count
	}

	var order []string
	remaining := len(selection)
	for remaining > 0 {
		wave := make([]string, 0)
		for id, d := range indegree {
			if d == 0 {
				wave = append(wave, id)
			}
		}
		if len(wave) == 0 {
			return nil, cerr.New(cerr.KindCycleDetected, "no zero-indegree node found within selection")
		}
		sort.Strings(wave)
		for _, id := range wave {
			delete(indegree, id)
			order = append(order, id)
			succs, err := cg.neighborsLocked(id)
			if err != nil {
				return nil, err
			}
			for _, s := range succs {
				if _, ok := indegree[s]; ok {
					indegree[s]--
				}
			}
		}
		remaining -= len(wave)
	}
	return order, nil
}
