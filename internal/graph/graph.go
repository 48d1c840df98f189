package graph

import (
	"sort"
	"sync"
)

// Node is a document in the relationship graph.
type Node struct {
	DocID  string `json:"doc_id"`
	Title  string `json:"title"`
	Type   string `json:"type"`
	Status string `json:"status"`
}

// Edge is a directed, typed relation between two documents.
type Edge struct {
	Source      string  `json:"source"`
	Target      string  `json:"target"`
	Relation    string  `json:"relation"`
	Weight      float64 `json:"weight"`
	Description string  `json:"description,omitempty"`
}

type edgeKey struct {
	source   string
	target   string
	relation string
}

// KnowledgeGraph holds the document relationship graph in memory. It is
// hydrated from persistent links at startup and kept in sync as links are
// created and removed. Safe for concurrent use.
type KnowledgeGraph struct {
	mu       sync.RWMutex
	nodes    map[string]Node
	edges    map[edgeKey]Edge
	outgoing map[string]map[edgeKey]struct{}
	incoming map[string]map[edgeKey]struct{}
}

func NewKnowledgeGraph() *KnowledgeGraph {
	return &KnowledgeGraph{
		nodes:    make(map[string]Node),
		edges:    make(map[edgeKey]Edge),
		outgoing: make(map[string]map[edgeKey]struct{}),
		incoming: make(map[string]map[edgeKey]struct{}),
	}
}

// AddNode inserts or updates a node.
func (g *KnowledgeGraph) AddNode(n Node) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.nodes[n.DocID] = n
}

// RemoveNode drops a node and every edge touching it.
func (g *KnowledgeGraph) RemoveNode(docID string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key := range g.outgoing[docID] {
		g.removeEdgeLocked(key)
	}
	for key := range g.incoming[docID] {
		g.removeEdgeLocked(key)
	}
	delete(g.nodes, docID)
	delete(g.outgoing, docID)
	delete(g.incoming, docID)
}

// AddEdge inserts or updates an edge. Both endpoints must already be nodes;
// missing endpoints get placeholder nodes so a link never dangles.
func (g *KnowledgeGraph) AddEdge(e Edge) {
	g.mu.Lock()
	defer g.mu.Unlock()

	if _, ok := g.nodes[e.Source]; !ok {
		g.nodes[e.Source] = Node{DocID: e.Source}
	}
	if _, ok := g.nodes[e.Target]; !ok {
		g.nodes[e.Target] = Node{DocID: e.Target}
	}

	key := edgeKey{source: e.Source, target: e.Target, relation: e.Relation}
	g.edges[key] = e
	if g.outgoing[e.Source] == nil {
		g.outgoing[e.Source] = make(map[edgeKey]struct{})
	}
	if g.incoming[e.Target] == nil {
		g.incoming[e.Target] = make(map[edgeKey]struct{})
	}
	g.outgoing[e.Source][key] = struct{}{}
	g.incoming[e.Target][key] = struct{}{}
}

// RemoveEdge drops all edges between source and target. When relation is
// non-empty only that relation is removed.
func (g *KnowledgeGraph) RemoveEdge(source, target, relation string) {
	g.mu.Lock()
	defer g.mu.Unlock()

	for key := range g.outgoing[source] {
		if key.target != target {
			continue
		}
		if relation != "" && key.relation != relation {
			continue
		}
		g.removeEdgeLocked(key)
	}
}

func (g *KnowledgeGraph) removeEdgeLocked(key edgeKey) {
	delete(g.edges, key)
	if out := g.outgoing[key.source]; out != nil {
		delete(out, key)
	}
	if in := g.incoming[key.target]; in != nil {
		delete(in, key)
	}
}

// HasNode reports whether docID is known to the graph.
func (g *KnowledgeGraph) HasNode(docID string) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	_, ok := g.nodes[docID]
	return ok
}

// NodeCount returns the number of nodes.
func (g *KnowledgeGraph) NodeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.nodes)
}

// EdgeCount returns the number of edges.
func (g *KnowledgeGraph) EdgeCount() int {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return len(g.edges)
}

// Successors returns the edges leaving docID, optionally filtered by
// relation, sorted by weight descending then target for stable output.
func (g *KnowledgeGraph) Successors(docID, relation string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for key := range g.outgoing[docID] {
		if relation != "" && key.relation != relation {
			continue
		}
		edges = append(edges, g.edges[key])
	}
	sortEdges(edges)
	return edges
}

// Predecessors returns the edges entering docID, optionally filtered by
// relation, sorted by weight descending then source for stable output.
func (g *KnowledgeGraph) Predecessors(docID, relation string) []Edge {
	g.mu.RLock()
	defer g.mu.RUnlock()

	var edges []Edge
	for key := range g.incoming[docID] {
		if relation != "" && key.relation != relation {
			continue
		}
		edges = append(edges, g.edges[key])
	}
	sortEdges(edges)
	return edges
}

// View is a serializable snapshot of a graph region.
type View struct {
	Nodes     []Node `json:"nodes"`
	Edges     []Edge `json:"edges"`
	Truncated bool   `json:"truncated"`
}

// Subgraph returns the neighborhood of docID reachable within depth hops,
// following edges in both directions. Depth 0 yields just the node itself.
// Returns ok=false when docID is not in the graph.
func (g *KnowledgeGraph) Subgraph(docID string, depth int) (View, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()

	if _, ok := g.nodes[docID]; !ok {
		return View{}, false
	}

	visited := map[string]struct{}{docID: {}}
	frontier := []string{docID}
	edgeSet := make(map[edgeKey]struct{})

	for hop := 0; hop < depth && len(frontier) > 0; hop++ {
		var next []string
		for _, id := range frontier {
			for key := range g.outgoing[id] {
				edgeSet[key] = struct{}{}
				if _, seen := visited[key.target]; !seen {
					visited[key.target] = struct{}{}
					next = append(next, key.target)
				}
			}
			for key := range g.incoming[id] {
				edgeSet[key] = struct{}{}
				if _, seen := visited[key.source]; !seen {
					visited[key.source] = struct{}{}
					next = append(next, key.source)
				}
			}
		}
		frontier = next
	}

	view := View{Nodes: make([]Node, 0, len(visited)), Edges: make([]Edge, 0, len(edgeSet))}
	for id := range visited {
		view.Nodes = append(view.Nodes, g.nodes[id])
	}
	for key := range edgeSet {
		view.Edges = append(view.Edges, g.edges[key])
	}
	sortNodes(view.Nodes)
	sortEdges(view.Edges)
	return view, true
}

// FullGraph returns the whole graph capped at maxNodes. Node selection is
// deterministic (sorted by doc ID); edges with an excluded endpoint are
// dropped and Truncated is set.
func (g *KnowledgeGraph) FullGraph(maxNodes int) View {
	g.mu.RLock()
	defer g.mu.RUnlock()

	ids := make([]string, 0, len(g.nodes))
	for id := range g.nodes {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	truncated := false
	if maxNodes > 0 && len(ids) > maxNodes {
		ids = ids[:maxNodes]
		truncated = true
	}

	included := make(map[string]struct{}, len(ids))
	view := View{Nodes: make([]Node, 0, len(ids)), Truncated: truncated}
	for _, id := range ids {
		included[id] = struct{}{}
		view.Nodes = append(view.Nodes, g.nodes[id])
	}
	for key, e := range g.edges {
		if _, ok := included[key.source]; !ok {
			continue
		}
		if _, ok := included[key.target]; !ok {
			continue
		}
		view.Edges = append(view.Edges, e)
	}
	sortEdges(view.Edges)
	return view
}

func sortNodes(nodes []Node) {
	sort.Slice(nodes, func(i, j int) bool { return nodes[i].DocID < nodes[j].DocID })
}

func sortEdges(edges []Edge) {
	sort.Slice(edges, func(i, j int) bool {
		if edges[i].Weight != edges[j].Weight {
			return edges[i].Weight > edges[j].Weight
		}
		if edges[i].Source != edges[j].Source {
			return edges[i].Source < edges[j].Source
		}
		if edges[i].Target != edges[j].Target {
			return edges[i].Target < edges[j].Target
		}
		return edges[i].Relation < edges[j].Relation
	})
}
