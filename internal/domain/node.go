package domain

import "strconv"

// StatusLiveBit is the bit of a tinc node status that marks the node as currently reachable
// from the local daemon.
const StatusLiveBit = 0x10

// IsLive decodes a hex status bitfield and reports whether the live bit is set.
// A status that is not valid hex counts as not live.
func IsLive(status string) bool {
	bits, err := strconv.ParseUint(status, 16, 64)
	if err != nil {
		return false
	}
	return bits&StatusLiveBit != 0
}

// BuildNodes keeps the live nodes in dump order and numbers them 1..N.
// Subnets are attached in the order the daemon announced them.
func BuildNodes(raw []RawNode, subnets []RawSubnet) []Node {
	nets := make(map[string][]string)
	for _, subnet := range subnets {
		nets[subnet.Owner] = append(nets[subnet.Owner], subnet.Address)
	}

	nodes := make([]Node, 0, len(raw))
	for _, rn := range raw {
		if !IsLive(rn.Status) {
			continue
		}

		index := len(nodes) + 1
		addrs := nets[rn.Name]
		if addrs == nil {
			addrs = []string{}
		}

		nodes = append(nodes, Node{
			ID:      index,
			Index:   index,
			Live:    1,
			Name:    rn.Name,
			Subnets: addrs,
		})
	}

	return nodes
}

// indexByName maps node names to their graph index
func indexByName(nodes []Node) map[string]int {
	index := make(map[string]int, len(nodes))
	for _, node := range nodes {
		index[node.Name] = node.Index
	}
	return index
}
