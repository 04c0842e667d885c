package geo

import (
	"container/heap"
	"math"

	"github.com/cydtdzhvp9-hash/ibumaku-pwa/pkg/core"
)

// RouteGraph is a weighted undirected graph over stations and spots, the
// shortest-path building block for future routing refinement. Adjacent
// stations are chained with their rail distance (PrevRouteM/NextRouteM when
// present, straight-line otherwise); each spot is attached to its nearest
// stations by straight-line distance.

type graphEdge struct {
	to     int
	weight float64
}

// RouteGraph holds node positions and adjacency. Node IDs are the original
// spot/station IDs.
type RouteGraph struct {
	ids   []string
	pos   []core.LatLng
	index map[string]int
	adj   [][]graphEdge
}

// spotAttachments is how many nearest stations each spot connects to.
const spotAttachments = 2

// BuildRouteGraph constructs the graph from line stations and playable spots.
func BuildRouteGraph(stations []core.Station, spots []core.Spot) *RouteGraph {
	g := &RouteGraph{index: make(map[string]int, len(stations)+len(spots))}

	line := NewLine(stations)
	for _, s := range line.Stations() {
		g.addNode(s.ID, s.Location())
	}

	// chain adjacent stations
	ordered := line.Stations()
	for i := 1; i < len(ordered); i++ {
		prev, cur := ordered[i-1], ordered[i]
		w := cur.PrevRouteM
		if w <= 0 {
			w = prev.NextRouteM
		}
		if w <= 0 {
			w = DistanceMeters(prev.Location(), cur.Location())
		}
		g.addEdge(g.index[prev.ID], g.index[cur.ID], w)
	}

	// attach each spot to its nearest stations
	for _, sp := range spots {
		n := g.addNode(sp.ID, sp.Location())
		type near struct {
			idx int
			d   float64
		}
		nearest := make([]near, 0, len(ordered))
		for _, st := range ordered {
			nearest = append(nearest, near{g.index[st.ID], DistanceMeters(sp.Location(), st.Location())})
		}
		for i := 0; i < len(nearest); i++ {
			for j := i + 1; j < len(nearest); j++ {
				if nearest[j].d < nearest[i].d {
					nearest[i], nearest[j] = nearest[j], nearest[i]
				}
			}
		}
		limit := spotAttachments
		if len(nearest) < limit {
			limit = len(nearest)
		}
		for _, nb := range nearest[:limit] {
			g.addEdge(n, nb.idx, nb.d)
		}
	}

	return g
}

func (g *RouteGraph) addNode(id string, pos core.LatLng) int {
	if i, ok := g.index[id]; ok {
		return i
	}
	i := len(g.ids)
	g.ids = append(g.ids, id)
	g.pos = append(g.pos, pos)
	g.adj = append(g.adj, nil)
	g.index[id] = i
	return i
}

func (g *RouteGraph) addEdge(a, b int, w float64) {
	g.adj[a] = append(g.adj[a], graphEdge{to: b, weight: w})
	g.adj[b] = append(g.adj[b], graphEdge{to: a, weight: w})
}

// NodeCount returns the number of graph nodes.
func (g *RouteGraph) NodeCount() int {
	return len(g.ids)
}

// ShortestPath returns the node-ID path and total distance between two IDs
// using Dijkstra. ok is false when either ID is unknown or unreachable.
func (g *RouteGraph) ShortestPath(fromID, toID string) (path []string, distM float64, ok bool) {
	from, okFrom := g.index[fromID]
	to, okTo := g.index[toID]
	if !okFrom || !okTo {
		return nil, 0, false
	}

	dist := make([]float64, len(g.ids))
	prev := make([]int, len(g.ids))
	for i := range dist {
		dist[i] = math.Inf(1)
		prev[i] = -1
	}
	dist[from] = 0

	pq := &nodeQueue{{node: from, dist: 0}}
	heap.Init(pq)
	for pq.Len() > 0 {
		cur := heap.Pop(pq).(nodeDist)
		if cur.dist > dist[cur.node] {
			continue
		}
		if cur.node == to {
			break
		}
		for _, e := range g.adj[cur.node] {
			if d := cur.dist + e.weight; d < dist[e.to] {
				dist[e.to] = d
				prev[e.to] = cur.node
				heap.Push(pq, nodeDist{node: e.to, dist: d})
			}
		}
	}

	if math.IsInf(dist[to], 1) {
		return nil, 0, false
	}
	for at := to; at != -1; at = prev[at] {
		path = append([]string{g.ids[at]}, path...)
	}
	return path, dist[to], true
}

type nodeDist struct {
	node int
	dist float64
}

type nodeQueue []nodeDist

func (q nodeQueue) Len() int            { return len(q) }
func (q nodeQueue) Less(i, j int) bool  { return q[i].dist < q[j].dist }
func (q nodeQueue) Swap(i, j int)       { q[i], q[j] = q[j], q[i] }
func (q *nodeQueue) Push(x any)         { *q = append(*q, x.(nodeDist)) }
func (q *nodeQueue) Pop() any           { old := *q; n := len(old); x := old[n-1]; *q = old[:n-1]; return x }
