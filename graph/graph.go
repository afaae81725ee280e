package graph

import "github.com/zero-day-ai/huntgraph/finding"

// Graph is the node and edge set handed to a renderer.
type Graph struct {
	Nodes []Node `json:"nodes"`
	Edges []Edge `json:"edges"`
}

// Stats summarizes a graph for logs and metrics.
type Stats struct {
	Hosts     int `json:"hosts"`
	Users     int `json:"users"`
	Processes int `json:"processes"`
	Findings  int `json:"findings"`
	Edges     int `json:"edges"`

	// PrimaryEdges counts finding to host edges; the rest link users and
	// processes to findings.
	PrimaryEdges int `json:"primary_edges"`
}

// Nodes returns the total number of nodes counted in s.
func (s Stats) Nodes() int {
	return s.Hosts + s.Users + s.Processes + s.Findings
}

// Node returns the node with the given ID.
func (g *Graph) Node(id string) (*Node, bool) {
	for i := range g.Nodes {
		if g.Nodes[i].ID == id {
			return &g.Nodes[i], true
		}
	}
	return nil, false
}

// FindingForNode returns the finding behind a finding node. Renderers call
// it when a node is activated; other node kinds report false.
func (g *Graph) FindingForNode(id string) (*finding.Finding, bool) {
	n, ok := g.Node(id)
	if !ok || n.Kind != KindFinding || n.Finding == nil {
		return nil, false
	}
	return n.Finding, true
}

// NodesOfKind returns the nodes of one kind, in graph order.
func (g *Graph) NodesOfKind(kind Kind) []Node {
	var out []Node
	for _, n := range g.Nodes {
		if n.Kind == kind {
			out = append(out, n)
		}
	}
	return out
}

// EdgesOf returns the edges with the given relation, in graph order.
func (g *Graph) EdgesOf(rel Relation) []Edge {
	var out []Edge
	for _, e := range g.Edges {
		if e.Relation == rel {
			out = append(out, e)
		}
	}
	return out
}

// Stats counts nodes per kind and edges.
func (g *Graph) Stats() Stats {
	s := Stats{Edges: len(g.Edges)}
	for i := range g.Edges {
		if g.Edges[i].IsPrimary() {
			s.PrimaryEdges++
		}
	}
	for _, n := range g.Nodes {
		switch n.Kind {
		case KindHost:
			s.Hosts++
		case KindUser:
			s.Users++
		case KindProcess:
			s.Processes++
		case KindFinding:
			s.Findings++
		}
	}
	return s
}
