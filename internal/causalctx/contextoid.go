// Package causalctx implements the Context hypergraph (spec §4.D): a graded
// collection of typed Contextoids related by multiple edge families, queried
// by the causal layer as read-only scenery. It follows the teacher's
// knowledge-graph schema (internal/knowledge/schema.go) for typed
// node/relationship modeling, adapted from a Neo4j-entity graph onto an
// in-process, construct-then-freeze hypergraph.
package causalctx

import (
	"fmt"
	"sort"

	"causality/internal/cerr"
	"causality/internal/effect"
)

// ContextoidKind discriminates the Contextoid sum type (spec §3 Context
// hypergraph).
type ContextoidKind int

const (
	KindDatoid ContextoidKind = iota
	KindTempoid
	KindSpatoid
	KindSpaceTempoid
	KindRoot
)

func (k ContextoidKind) String() string {
	switch k {
	case KindDatoid:
		return "Datoid"
	case KindTempoid:
		return "Tempoid"
	case KindSpatoid:
		return "Spatoid"
	case KindSpaceTempoid:
		return "SpaceTempoid"
	case KindRoot:
		return "Root"
	default:
		return "Unknown"
	}
}

// EdgeFamily names a relation family between Contextoids (e.g. temporal
// succession, spatial adjacency, containment). Multiple families may relate
// the same pair of nodes.
type EdgeFamily string

const (
	EdgeTemporalSuccession EdgeFamily = "temporal_succession"
	EdgeSpatialAdjacency   EdgeFamily = "spatial_adjacency"
	EdgeContainment        EdgeFamily = "containment"
)

// Contextoid is one node of the Context hypergraph.
type Contextoid struct {
	ID      string
	Kind    ContextoidKind
	Payload effect.Evidence // meaningful for Datoid/Tempoid/Spatoid/SpaceTempoid; ignored for Root
}

// NewDatoid builds a data-carrying Contextoid.
func NewDatoid(id string, payload effect.Evidence) Contextoid {
	return Contextoid{ID: id, Kind: KindDatoid, Payload: payload}
}

// NewTempoid builds a time-coordinate Contextoid. t is stored as a Numerical
// evidence payload (e.g. a Unix timestamp or logical clock value).
func NewTempoid(id string, t float64) Contextoid {
	return Contextoid{ID: id, Kind: KindTempoid, Payload: effect.NewNumerical(t)}
}

// NewSpatoid builds a spatial-coordinate Contextoid.
func NewSpatoid(id string, coords []float64) Contextoid {
	list := make([]effect.Evidence, len(coords))
	for i, c := range coords {
		list[i] = effect.NewNumerical(c)
	}
	return Contextoid{ID: id, Kind: KindSpatoid, Payload: effect.NewList(list)}
}

// NewSpaceTempoid builds a joint space-time Contextoid.
func NewSpaceTempoid(id string, t float64, coords []float64) Contextoid {
	list := make([]effect.Evidence, 0, len(coords)+1)
	list = append(list, effect.NewNumerical(t))
	for _, c := range coords {
		list = append(list, effect.NewNumerical(c))
	}
	return Contextoid{ID: id, Kind: KindSpaceTempoid, Payload: effect.NewList(list)}
}

func newRoot(id string) Contextoid {
	return Contextoid{ID: id, Kind: KindRoot}
}

// edgeEntry is one directed relation within a single edge family.
type edgeEntry struct {
	to     string
	family EdgeFamily
}

// Context is the read-only hypergraph consulted by Causaloid functions. It
// is construct-then-freeze (spec §3 Lifecycle): build via NewBuilder, then
// treat the result as immutable for the life of a reasoning pass. Any
// mutation must go through a Builder and produce a new *Context value with
// a new ID.
type Context struct {
	id       string
	rootID   string
	nodes    map[string]Contextoid
	outEdges map[string][]edgeEntry // insertion order preserved within a family
}

// ID returns the logical context id.
func (c *Context) ID() string { return c.id }

// Root returns the Context's single root Contextoid.
func (c *Context) Root() Contextoid {
	return c.nodes[c.rootID]
}

// Get retrieves a Contextoid by id.
func (c *Context) Get(id string) (Contextoid, error) {
	n, ok := c.nodes[id]
	if !ok {
		return Contextoid{}, cerr.Newf(cerr.KindUnknownContextoid, "contextoid %q not found", id)
	}
	return n, nil
}

// Neighbors returns, in insertion order, the Contextoids reachable from id
// via the given edge family.
func (c *Context) Neighbors(id string, family EdgeFamily) ([]Contextoid, error) {
	if _, ok := c.nodes[id]; !ok {
		return nil, cerr.Newf(cerr.KindUnknownContextoid, "contextoid %q not found", id)
	}
	entries, ok := c.outEdges[id]
	if !ok {
		return nil, nil
	}
	out := make([]Contextoid, 0, len(entries))
	seenFamily := false
	for _, e := range entries {
		if e.family != family {
			continue
		}
		seenFamily = true
		out = append(out, c.nodes[e.to])
	}
	if !seenFamily && !familyKnown(c, family) {
		return nil, cerr.Newf(cerr.KindUnknownEdgeFamily, "edge family %q not found", family)
	}
	return out, nil
}

func familyKnown(c *Context, family EdgeFamily) bool {
	for _, entries := range c.outEdges {
		for _, e := range entries {
			if e.family == family {
				return true
			}
		}
	}
	return false
}

// HasEdge reports whether a directed edge a->b exists in the given family.
func (c *Context) HasEdge(a, b string, family EdgeFamily) bool {
	for _, e := range c.outEdges[a] {
		if e.family == family && e.to == b {
			return true
		}
	}
	return false
}

// NodeCount returns the number of Contextoids, including the root.
func (c *Context) NodeCount() int { return len(c.nodes) }

// NodeIDs returns every Contextoid id, including the root, stable-sorted.
func (c *Context) NodeIDs() []string {
	out := make([]string, 0, len(c.nodes))
	for id := range c.nodes {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// ContextEdge is one directed, named-family relation as reported by Edges.
type ContextEdge struct {
	From, To string
	Family   EdgeFamily
}

// Edges returns every directed edge across every family, stable-sorted by
// (from, family, to).
func (c *Context) Edges() []ContextEdge {
	froms := make([]string, 0, len(c.outEdges))
	for from := range c.outEdges {
		froms = append(froms, from)
	}
	sort.Strings(froms)

	out := make([]ContextEdge, 0)
	for _, from := range froms {
		entries := append([]edgeEntry(nil), c.outEdges[from]...)
		sort.Slice(entries, func(i, j int) bool {
			if entries[i].family != entries[j].family {
				return entries[i].family < entries[j].family
			}
			return entries[i].to < entries[j].to
		})
		for _, e := range entries {
			out = append(out, ContextEdge{From: from, To: e.to, Family: e.family})
		}
	}
	return out
}

// Builder assembles a Context. The zero value is not usable; create one
// with NewBuilder.
type Builder struct {
	id       string
	rootID   string
	nodes    map[string]Contextoid
	outEdges map[string][]edgeEntry
}

// NewBuilder starts a Context build with the given logical id. A Root
// Contextoid with id rootID is created implicitly.
func NewBuilder(id, rootID string) *Builder {
	b := &Builder{
		id:       id,
		rootID:   rootID,
		nodes:    make(map[string]Contextoid),
		outEdges: make(map[string][]edgeEntry),
	}
	b.nodes[rootID] = newRoot(rootID)
	return b
}

// AddNode inserts a non-root Contextoid.
func (b *Builder) AddNode(n Contextoid) *Builder {
	b.nodes[n.ID] = n
	return b
}

// AddEdge relates two Contextoids within an edge family, directed from->to.
func (b *Builder) AddEdge(from, to string, family EdgeFamily) *Builder {
	b.outEdges[from] = append(b.outEdges[from], edgeEntry{to: to, family: family})
	return b
}

// Build validates and freezes the Context. Per spec §3: every non-root
// Contextoid must be reachable from the root by at least one edge family.
func (b *Builder) Build() (*Context, error) {
	ctx := &Context{
		id:       b.id,
		rootID:   b.rootID,
		nodes:    b.nodes,
		outEdges: b.outEdges,
	}
	if _, ok := ctx.nodes[ctx.rootID]; !ok {
		return nil, cerr.Newf(cerr.KindUnknownContextoid, "root %q was never added", ctx.rootID)
	}

	reachable := map[string]bool{ctx.rootID: true}
	queue := []string{ctx.rootID}
	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		for _, e := range ctx.outEdges[cur] {
			if !reachable[e.to] {
				reachable[e.to] = true
				queue = append(queue, e.to)
			}
		}
	}
	for id := range ctx.nodes {
		if !reachable[id] {
			return nil, fmt.Errorf("contextoid %q unreachable from root %q: %w", id, ctx.rootID,
				cerr.New(cerr.KindUnknownContextoid, "unreachable contextoid"))
		}
	}
	return ctx, nil
}
