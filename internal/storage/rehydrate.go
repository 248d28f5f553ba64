package storage

import (
	"time"

	"causality/internal/causalctx"
	"causality/internal/causaloid"
	"causality/internal/cerr"
	"causality/internal/effect"
	"causality/internal/graph"
)

// DefinitionFromGraph captures g's structural shape (node ids, descriptions,
// kinds, weighted edges, root) as a GraphDefinition suitable for
// GraphRepository.StoreGraphDefinition. It does not, and cannot, capture a
// node's CausalFn: that function pointer has no serializable representation
// and must be re-supplied by id to RehydrateGraph.
func DefinitionFromGraph(id string, g *graph.CausalGraph) (*GraphDefinition, error) {
	ids := g.NodeIDs()
	nodes := make([]NodeDefinition, 0, len(ids))
	for _, nid := range ids {
		n, err := g.GetNode(nid)
		if err != nil {
			return nil, err
		}
		kind := "Node"
		if c, ok := n.(*causaloid.Causaloid); ok {
			kind = c.Kind().String()
		}
		nodes = append(nodes, NodeDefinition{ID: nid, Description: n.Describe(), Kind: kind})
	}

	edges, err := g.Edges()
	if err != nil {
		return nil, err
	}
	edgeDefs := make([]EdgeDefinition, 0, len(edges))
	for _, e := range edges {
		weight := 0.0
		if e.Weight != nil {
			weight = *e.Weight
		}
		edgeDefs = append(edgeDefs, EdgeDefinition{From: e.From, To: e.To, Weight: weight})
	}

	now := time.Now()
	return &GraphDefinition{
		ID:        id,
		RootID:    g.RootID(),
		Nodes:     nodes,
		Edges:     edgeDefs,
		CreatedAt: now,
		UpdatedAt: now,
	}, nil
}

// RehydrateGraph reconstructs a live *graph.CausalGraph from a stored
// GraphDefinition, re-registering each Singleton node's CausalFn from fns
// (keyed by node id) and static config from configs (keyed by node id,
// defaulting to effect.NewNone() when absent). Only nodes whose recorded
// kind is Singleton can be rehydrated this way; Graph/SubGraph/Collection
// Causaloids wrap other live structures that a flat node/edge definition
// cannot describe, and are rejected.
func RehydrateGraph(def *GraphDefinition, fns map[string]causaloid.CausalFn, configs map[string]effect.Evidence) (*graph.CausalGraph, error) {
	g := graph.New()
	for _, nd := range def.Nodes {
		if nd.Kind != "" && nd.Kind != causaloid.KindSingleton.String() {
			return nil, cerr.Newf(cerr.KindShape, "node %q has kind %q, only Singleton nodes can be rehydrated from a flat definition", nd.ID, nd.Kind)
		}
		fn, ok := fns[nd.ID]
		if !ok {
			return nil, cerr.Newf(cerr.KindUnknownNode, "no CausalFn supplied for node %q", nd.ID)
		}
		cfg, ok := configs[nd.ID]
		if !ok {
			cfg = effect.NewNone()
		}
		if err := g.AddNode(causaloid.NewSingleton(nd.ID, nd.Description, fn, cfg)); err != nil {
			return nil, err
		}
	}
	for _, ed := range def.Edges {
		weight := ed.Weight
		if err := g.AddEdge(ed.From, ed.To, &weight); err != nil {
			return nil, err
		}
	}
	if def.RootID != "" {
		if err := g.SetRoot(def.RootID); err != nil {
			return nil, err
		}
	}
	return g, nil
}

// DefinitionFromContext captures ctx's structural shape (contextoid ids,
// kinds, named-family edges, root) as a ContextDefinition. Contextoid
// payloads are not captured — a Datoid/Tempoid/Spatoid/SpaceTempoid's
// effect.Evidence payload has no serialized representation here and must be
// re-supplied by id to RehydrateContext.
func DefinitionFromContext(id string, ctx *causalctx.Context) *ContextDefinition {
	ids := ctx.NodeIDs()
	contextoids := make([]ContextoidDefinition, 0, len(ids))
	for _, cid := range ids {
		c, err := ctx.Get(cid)
		if err != nil {
			continue
		}
		contextoids = append(contextoids, ContextoidDefinition{ID: cid, Kind: c.Kind.String()})
	}

	edges := ctx.Edges()
	edgeDefs := make([]ContextEdgeDefinition, 0, len(edges))
	for _, e := range edges {
		edgeDefs = append(edgeDefs, ContextEdgeDefinition{From: e.From, To: e.To, Family: string(e.Family)})
	}

	now := time.Now()
	return &ContextDefinition{
		ID:         id,
		RootID:     ctx.Root().ID,
		Contextoid: contextoids,
		Edges:      edgeDefs,
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// RehydrateContext reconstructs a live *causalctx.Context from a stored
// ContextDefinition, re-supplying each non-root Contextoid's payload from
// payloads (keyed by contextoid id); a missing entry defaults to
// effect.NewNone(). Every rehydrated non-root Contextoid is reconstructed as
// a Datoid regardless of its recorded Kind, since Tempoid/Spatoid/
// SpaceTempoid are just Datoids with a conventional payload shape (spec
// §4.D) and the distinction carries no behavior outside that payload, which
// the caller already supplies.
func RehydrateContext(def *ContextDefinition, payloads map[string]effect.Evidence) (*causalctx.Context, error) {
	b := causalctx.NewBuilder(def.ID, def.RootID)
	for _, cd := range def.Contextoid {
		if cd.ID == def.RootID {
			continue
		}
		payload, ok := payloads[cd.ID]
		if !ok {
			payload = effect.NewNone()
		}
		b.AddNode(causalctx.NewDatoid(cd.ID, payload))
	}
	for _, ed := range def.Edges {
		b.AddEdge(ed.From, ed.To, causalctx.EdgeFamily(ed.Family))
	}
	return b.Build()
}
