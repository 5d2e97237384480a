package domain

// RawNode is one line of a node dump
type RawNode struct {
	Name   string
	Status string // hex bitfield
}

// RawEdge is one line of an edge dump
type RawEdge struct {
	From   string
	To     string
	Weight string // decimal, not guaranteed to parse
}

// RawSubnet is one line of a subnet dump
type RawSubnet struct {
	Owner   string
	Address string
}
