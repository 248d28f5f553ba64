package graph

import (
	"container/heap"

	"causality/internal/cerr"
)

// Path is an ordered sequence of node ids from source to destination,
// inclusive.
type Path []string

func lessPath(a, b Path) bool {
	for i := 0; i < len(a) && i < len(b); i++ {
		if a[i] != b[i] {
			return a[i] < b[i]
		}
	}
	return len(a) < len(b)
}

// ShortestPath computes the shortest path from a to b, per spec §4.C.3:
// Dijkstra over edge weights when any are present, falling back to BFS hop
// count when weights are absent. Ties are broken by lexicographic
// path-node-id order. Returns ok=false if no path exists.
func (cg *CausalGraph) ShortestPath(a, b string) (Path, bool, error) {
	cg.mu.RLock()
	defer cg.mu.RUnlock()

	if _, ok := cg.nodes[a]; !ok {
		return nil, false, cerr.Newf(cerr.KindUnknownNode, "node %q not found", a)
	}
	if _, ok := cg.nodes[b]; !ok {
		return nil, false, cerr.Newf(cerr.KindUnknownNode, "node %q not found", b)
	}
	if len(cg.weights) > 0 {
		return cg.dijkstra(a, b)
	}
	return cg.bfsHopPath(a, b)
}

type pqItem struct {
	id   string
	dist float64
	path Path
}

type priorityQueue []*pqItem

func (pq priorityQueue) Len() int { return len(pq) }
func (pq priorityQueue) Less(i, j int) bool {
	if pq[i].dist != pq[j].dist {
		return pq[i].dist < pq[j].dist
	}
	return lessPath(pq[i].path, pq[j].path)
}
func (pq priorityQueue) Swap(i, j int)      { pq[i], pq[j] = pq[j], pq[i] }
func (pq *priorityQueue) Push(x interface{}) { *pq = append(*pq, x.(*pqItem)) }
func (pq *priorityQueue) Pop() interface{} {
	old := *pq
	n := len(old)
	item := old[n-1]
	*pq = old[:n-1]
	return item
}

func (cg *CausalGraph) dijkstra(a, b string) (Path, bool, error) {
	best := map[string]float64{a: 0}
	bestPath := map[string]Path{a: {a}}

	pq := &priorityQueue{{id: a, dist: 0, path: Path{a}}}
	heap.Init(pq)

	for pq.Len() > 0 {
		cur := heap.Pop(pq).(*pqItem)
		if d, ok := best[cur.id]; ok && cur.dist > d {
			continue
		}
		if cur.id == b {
			return cur.path, true, nil
		}
		succs, err := cg.neighborsLocked(cur.id)
		if err != nil {
			return nil, false, err
		}
		for _, s := range succs {
			w, ok := cg.weight(cur.id, s)
			if !ok {
				w = 1
			}
			nd := cur.dist + w
			np := append(append(Path{}, cur.path...), s)
			if existing, ok := best[s]; !ok || nd < existing || (nd == existing && lessPath(np, bestPath[s])) {
				best[s] = nd
				bestPath[s] = np
				heap.Push(pq, &pqItem{id: s, dist: nd, path: np})
			}
		}
	}
	return nil, false, nil
}

func (cg *CausalGraph) bfsHopPath(a, b string) (Path, bool, error) {
	type queued struct {
		id   string
		path Path
	}
	visited := map[string]bool{a: true}
	queue := []queued{{id: a, path: Path{a}}}

	for len(queue) > 0 {
		cur := queue[0]
		queue = queue[1:]
		if cur.id == b {
			return cur.path, true, nil
		}
		succs, err := cg.neighborsLocked(cur.id)
		if err != nil {
			return nil, false, err
		}
		for _, s := range succs {
			if visited[s] {
				continue
			}
			visited[s] = true
			queue = append(queue, queued{id: s, path: append(append(Path{}, cur.path...), s)})
		}
	}
	return nil, false, nil
}
