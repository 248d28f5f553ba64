package graph

import (
	"fmt"
	"sync"

	dgraph "github.com/dominikbraun/graph"
	"golang.org/x/exp/slices"

	"causality/internal/cerr"
)

// edgeKey identifies a directed edge by its pair of node ids.
type edgeKey struct {
	from, to string
}

// CausalGraph is a directed graph (V, E) where each v ∈ V is a Node and
// each edge carries an optional weight for shortest-path (spec §3). It uses
// an arena + stable-index layout: nodes live in a dense map keyed by stable
// string id, and dominikbraun/graph tracks topology by the same id, the
// same split the teacher uses in internal/modes/graph.go (its own
// ThoughtVertex/ThoughtEdge maps alongside a dominikbraun/graph instance
// for traversal, because the library's own edge weight type didn't fit the
// teacher's float-weighted model either).
type CausalGraph struct {
	mu sync.RWMutex

	g       dgraph.Graph[string, string]
	nodes   map[string]Node
	weights map[edgeKey]float64

	rootID string
}

func hashString(s string) string { return s }

// New creates an empty, directed CausalGraph.
func New() *CausalGraph {
	return &CausalGraph{
		g:       dgraph.New(hashString, dgraph.Directed()),
		nodes:   make(map[string]Node),
		weights: make(map[edgeKey]float64),
	}
}

// AddNode inserts a node. The first node added becomes the default root
// unless SetRoot is called explicitly.
func (cg *CausalGraph) AddNode(n Node) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if err := cg.g.AddVertex(n.ID()); err != nil {
		return fmt.Errorf("add node %s: %w", n.ID(), err)
	}
	cg.nodes[n.ID()] = n
	if cg.rootID == "" {
		cg.rootID = n.ID()
	}
	return nil
}

// SetRoot designates the root node used by ReasonFrom when no explicit root
// is supplied. Per spec §3, at most one root is designated per sub-graph
// evaluation call.
func (cg *CausalGraph) SetRoot(id string) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, ok := cg.nodes[id]; !ok {
		return cerr.Newf(cerr.KindUnknownNode, "node %q not found", id)
	}
	cg.rootID = id
	return nil
}

// RootID returns the designated root node id, or "" if the graph is empty.
func (cg *CausalGraph) RootID() string {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return cg.rootID
}

// AddEdge inserts a directed edge. weight is optional; pass nil for an
// unweighted edge (shortest_path then falls back to BFS hop count, spec
// §4.C.3).
func (cg *CausalGraph) AddEdge(from, to string, weight *float64) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if _, ok := cg.nodes[from]; !ok {
		return cerr.Newf(cerr.KindUnknownNode, "node %q not found", from)
	}
	if _, ok := cg.nodes[to]; !ok {
		return cerr.Newf(cerr.KindUnknownNode, "node %q not found", to)
	}
	if err := cg.g.AddEdge(from, to); err != nil {
		return fmt.Errorf("add edge %s->%s: %w", from, to, err)
	}
	if weight != nil {
		cg.weights[edgeKey{from, to}] = *weight
	}
	return nil
}

// RemoveEdge deletes a directed edge.
func (cg *CausalGraph) RemoveEdge(from, to string) error {
	cg.mu.Lock()
	defer cg.mu.Unlock()

	if err := cg.g.RemoveEdge(from, to); err != nil {
		return fmt.Errorf("remove edge %s->%s: %w", from, to, err)
	}
	delete(cg.weights, edgeKey{from, to})
	return nil
}

// GetNode retrieves a node by id.
func (cg *CausalGraph) GetNode(id string) (Node, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	n, ok := cg.nodes[id]
	if !ok {
		return nil, cerr.Newf(cerr.KindUnknownNode, "node %q not found", id)
	}
	return n, nil
}

// Neighbors returns the stable-id-sorted successor ids of id.
func (cg *CausalGraph) Neighbors(id string) ([]string, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return cg.neighborsLocked(id)
}

func (cg *CausalGraph) neighborsLocked(id string) ([]string, error) {
	if _, ok := cg.nodes[id]; !ok {
		return nil, cerr.Newf(cerr.KindUnknownNode, "node %q not found", id)
	}
	adjacency, err := cg.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}
	out := make([]string, 0, len(adjacency[id]))
	for to := range adjacency[id] {
		out = append(out, to)
	}
	slices.Sort(out)
	return out, nil
}

// ReverseNeighbors returns the stable-id-sorted predecessor ids of id.
func (cg *CausalGraph) ReverseNeighbors(id string) ([]string, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return cg.reverseNeighborsLocked(id)
}

func (cg *CausalGraph) reverseNeighborsLocked(id string) ([]string, error) {
	if _, ok := cg.nodes[id]; !ok {
		return nil, cerr.Newf(cerr.KindUnknownNode, "node %q not found", id)
	}
	predecessors, err := cg.g.PredecessorMap()
	if err != nil {
		return nil, fmt.Errorf("predecessor map: %w", err)
	}
	out := make([]string, 0, len(predecessors[id]))
	for from := range predecessors[id] {
		out = append(out, from)
	}
	slices.Sort(out)
	return out, nil
}

// NodeCount returns the number of nodes in the graph.
func (cg *CausalGraph) NodeCount() int {
	cg.mu.RLock()
	defer cg.mu.RUnlock()
	return len(cg.nodes)
}

// NodeIDs returns every node id in the graph, stable-sorted.
func (cg *CausalGraph) NodeIDs() []string {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	out := make([]string, 0, len(cg.nodes))
	for id := range cg.nodes {
		out = append(out, id)
	}
	slices.Sort(out)
	return out
}

// Edge is one directed edge as reported by Edges, carrying its optional
// weight for structural export (e.g. to storage.GraphDefinition).
type Edge struct {
	From, To string
	Weight   *float64
}

// Edges returns every directed edge in the graph, stable-sorted by
// (from, to).
func (cg *CausalGraph) Edges() ([]Edge, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	adjacency, err := cg.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}
	out := make([]Edge, 0)
	froms := make([]string, 0, len(adjacency))
	for from := range adjacency {
		froms = append(froms, from)
	}
	slices.Sort(froms)
	for _, from := range froms {
		tos := make([]string, 0, len(adjacency[from]))
		for to := range adjacency[from] {
			tos = append(tos, to)
		}
		slices.Sort(tos)
		for _, to := range tos {
			e := Edge{From: from, To: to}
			if w, ok := cg.weight(from, to); ok {
				wCopy := w
				e.Weight = &wCopy
			}
			out = append(out, e)
		}
	}
	return out, nil
}

// weight returns the configured weight for from->to, and whether one was
// set.
func (cg *CausalGraph) weight(from, to string) (float64, bool) {
	w, ok := cg.weights[edgeKey{from, to}]
	return w, ok
}

// assertAcyclic returns CycleDetected if the graph contains a cycle, per
// spec §4.C.1's hard acyclicity requirement for reason_from.
func (cg *CausalGraph) assertAcyclic() error {
	if _, err := dgraph.TopologicalSort(cg.g); err != nil {
		return cerr.Wrap(cerr.KindCycleDetected, "graph must be acyclic for reason_from", err)
	}
	return nil
}

// sinks returns the stable-id-sorted ids of nodes with no outgoing edges.
func (cg *CausalGraph) sinks() ([]string, error) {
	adjacency, err := cg.g.AdjacencyMap()
	if err != nil {
		return nil, fmt.Errorf("adjacency map: %w", err)
	}
	out := make([]string, 0)
	for id, succs := range adjacency {
		if len(succs) == 0 {
			out = append(out, id)
		}
	}
	slices.Sort(out)
	return out, nil
}
