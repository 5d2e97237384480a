// Package domain defines the topology types for the tincgraph mesh visualizer.
//
// This package contains the raw records dumped by the tinc control socket and the
// graph derived from them for the web front-end.
//
// # Raw Records
//
// RawNode, RawEdge and RawSubnet mirror one line of a node, edge or subnet dump.
// Numeric fields stay as text; interpreting them is a graph-level decision.
//
// # Graph
//
// Graph holds the nodes and links of one poll. BuildGraph derives it from the raw
// records: only live nodes are kept and numbered 1..N in dump order, edges reported
// from both endpoints are collapsed to one link, and every link carries a strength
// fraction relative to the heaviest link of the poll.
//
// # Design Principles
//
// - Graphs are rebuilt from scratch on every poll and never mutated afterwards
// - No I/O, no package-level state
// - JSON field names match what the visualization front-end reads
package domain
