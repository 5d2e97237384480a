// Package adapter runs topology sources on a schedule.
//
// An Adapter produces a complete domain.Graph per Sync. The Registry owns
// the polling loops: each enabled polling adapter syncs once at start and
// then on its interval, and TriggerSync runs an extra sync on demand (the
// HTTP API and the identity-file watcher use it). Syncs of one adapter are
// serialized. Every result, success or failure, is handed to the registry's
// PublishFunc.
//
// TincAdapter is the only source today. It wraps control.Poller and builds
// the graph with domain.BuildGraph.
package adapter
