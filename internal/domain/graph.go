package domain

import "fmt"

// Graph is the derived view handed to the visualization front-end
type Graph struct {
	Nodes []Node `json:"nodes"`
	Links []Link `json:"links"`
}

// Node represents a live mesh node in the visualization
type Node struct {
	ID      int      `json:"id"`
	Index   int      `json:"index"`
	Live    int      `json:"reachable"` // liveness bit of the daemon status, always 1 for kept nodes
	Name    string   `json:"name"`
	Group   int      `json:"group"`
	Version int      `json:"version"`
	Subnets []string `json:"nets"`
	Degree  int      `json:"edges"`
}

// Link represents a meta-connection between two nodes
type Link struct {
	SourceName string  `json:"sname"`
	TargetName string  `json:"tname"`
	Source     int     `json:"source"`
	Target     int     `json:"target"`
	Weight     uint64  `json:"weight"`
	Reachable  int     `json:"reachable"` // 1 when both endpoints resolved to live nodes
	Strength   float64 `json:"frac"`
	PairKey    string  `json:"_hash"`
}

// NewGraph creates an empty graph whose slices encode as [] rather than null
func NewGraph() *Graph {
	return &Graph{
		Nodes: make([]Node, 0),
		Links: make([]Link, 0),
	}
}

// BuildGraph converts the raw dumps of one poll into a Graph.
// Nodes are built first because links resolve names against their indices.
func BuildGraph(nodes []RawNode, subnets []RawSubnet, edges []RawEdge) *Graph {
	graph := NewGraph()
	graph.Nodes = BuildNodes(nodes, subnets)
	graph.Links = BuildLinks(edges, graph.Nodes)
	return graph
}

// NodeByName returns the node with the given name, or nil
func (g *Graph) NodeByName(name string) *Node {
	for i := range g.Nodes {
		if g.Nodes[i].Name == name {
			return &g.Nodes[i]
		}
	}
	return nil
}

// Summary returns a short human-readable description for logs
func (g *Graph) Summary() string {
	unresolved := 0
	for _, link := range g.Links {
		if link.Reachable == 0 {
			unresolved++
		}
	}
	return fmt.Sprintf("%d nodes, %d links (%d unresolved)", len(g.Nodes), len(g.Links), unresolved)
}
