package domain

import (
	"fmt"
	"strconv"
)

// DefaultWeight is used when an edge weight cannot be parsed; it is treated as the weakest link.
const DefaultWeight = 1000

// BuildLinks turns raw edges into links against the already built node set.
//
// An edge between two live nodes is kept only in the direction whose source index
// is not greater than its target index, so edges reported from both endpoints
// collapse to one link. Edges touching an unknown node are always kept with
// Reachable set to 0.
//
// BuildLinks also fills in the Degree of every node in nodes.
func BuildLinks(edges []RawEdge, nodes []Node) []Link {
	index := indexByName(nodes)

	links := make([]Link, 0, len(edges))
	for _, edge := range edges {
		if link, ok := newLink(edge, index); ok {
			links = append(links, link)
		}
	}

	applyStrength(links)
	applyDegree(links, nodes)

	return links
}

func newLink(edge RawEdge, index map[string]int) (Link, bool) {
	weight, err := strconv.ParseUint(edge.Weight, 10, 64)
	if err != nil {
		weight = DefaultWeight
	}

	// absent names resolve to 0
	source := index[edge.From]
	target := index[edge.To]

	reachable := 0
	if source != 0 && target != 0 {
		if source > target {
			return Link{}, false
		}
		reachable = 1
	}

	return Link{
		SourceName: edge.From,
		TargetName: edge.To,
		Source:     source,
		Target:     target,
		Weight:     weight,
		Reachable:  reachable,
		PairKey:    fmt.Sprintf("%d-%d", source, target),
	}, true
}

// MaxWeight returns the heaviest weight among links, never less than 1
func MaxWeight(links []Link) uint64 {
	var max uint64 = 1
	for _, link := range links {
		if link.Weight > max {
			max = link.Weight
		}
	}
	return max
}

func applyStrength(links []Link) {
	max := float64(MaxWeight(links))
	for i := range links {
		frac := 1 - ((float64(links[i].Weight)*100)/max)/100
		if frac < 0 {
			frac = 0
		} else if frac > 1 {
			frac = 1
		}
		links[i].Strength = frac
	}
}

func applyDegree(links []Link, nodes []Node) {
	outgoing := make(map[string]int)
	for _, link := range links {
		outgoing[link.SourceName]++
	}
	for i := range nodes {
		nodes[i].Degree = outgoing[nodes[i].Name]
	}
}
