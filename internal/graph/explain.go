package graph

import (
	"causality/internal/cerr"
	"causality/internal/effect"
)

// ExplanationNode is one node of an ExplanationTree: its last recorded
// effect and the static description of its function (spec §4.C.2).
type ExplanationNode struct {
	NodeID      string
	Effect      effect.PropagatingEffect
	Description string
	Children    []*ExplanationNode
}

// ExplanationTree is the result of explain_from_to: a tree (not a single
// path) when multiple paths from a to b exist.
type ExplanationTree struct {
	Root *ExplanationNode
}

// ExplainFromTo performs a DFS from a to b, recording at each node its last
// recorded effect (looked up from trace) and its function's static
// description. trace must come from a prior ReasonFrom/ReasonSubgraph call
// over this graph; an empty trace yields NotYetEvaluated (spec §4.C.2).
func (cg *CausalGraph) ExplainFromTo(a, b string, trace Trace) (*ExplanationTree, error) {
	if len(trace) == 0 {
		return nil, cerr.New(cerr.KindNotYetEvaluated, "reason_from has not been run")
	}

	cg.mu.RLock()
	defer cg.mu.RUnlock()

	if _, ok := cg.nodes[a]; !ok {
		return nil, cerr.Newf(cerr.KindUnknownNode, "node %q not found", a)
	}
	if _, ok := cg.nodes[b]; !ok {
		return nil, cerr.Newf(cerr.KindUnknownNode, "node %q not found", b)
	}

	effectByNode := make(map[string]effect.PropagatingEffect, len(trace))
	for _, entry := range trace {
		effectByNode[entry.NodeID] = entry.Effect
	}

	canReachB := make(map[string]bool)
	var computeReach func(id string, visiting map[string]bool) bool
	computeReach = func(id string, visiting map[string]bool) bool {
		if id == b {
			return true
		}
		if v, ok := canReachB[id]; ok {
			return v
		}
		if visiting[id] {
			return false
		}
		visiting[id] = true
		succs, err := cg.neighborsLocked(id)
		if err != nil {
			canReachB[id] = false
			return false
		}
		for _, s := range succs {
			if computeReach(s, visiting) {
				canReachB[id] = true
				return true
			}
		}
		canReachB[id] = false
		return false
	}
	if !computeReach(a, map[string]bool{}) {
		return &ExplanationTree{Root: cg.explainNode(a, effectByNode, nil)}, nil
	}

	root := cg.buildExplanationSubtree(a, b, effectByNode, canReachB, map[string]bool{})
	return &ExplanationTree{Root: root}, nil
}

func (cg *CausalGraph) explainNode(id string, effectByNode map[string]effect.PropagatingEffect, children []*ExplanationNode) *ExplanationNode {
	return &ExplanationNode{
		NodeID:      id,
		Effect:      effectByNode[id],
		Description: cg.nodes[id].Describe(),
		Children:    children,
	}
}

func (cg *CausalGraph) buildExplanationSubtree(id, b string, effectByNode map[string]effect.PropagatingEffect, canReachB map[string]bool, visiting map[string]bool) *ExplanationNode {
	if id == b {
		return cg.explainNode(id, effectByNode, nil)
	}
	visiting[id] = true
	defer delete(visiting, id)

	succs, _ := cg.neighborsLocked(id)
	children := make([]*ExplanationNode, 0)
	for _, s := range succs {
		if visiting[s] {
			continue
		}
		if s == b || canReachB[s] {
			children = append(children, cg.buildExplanationSubtree(s, b, effectByNode, canReachB, visiting))
		}
	}
	return cg.explainNode(id, effectByNode, children)
}
