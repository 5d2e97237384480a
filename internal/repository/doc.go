// Package repository defines the persistence interfaces for tincgraph.
//
// Only poll outcomes are persisted: when a poll ran, how long it took, whether
// it succeeded, the failure kind and the size of the resulting graph. Graphs
// themselves live in the snapshot file and are never stored here.
//
// The sqlite subpackage implements PollJournal on modernc.org/sqlite and
// migrates its schema on open.
package repository
