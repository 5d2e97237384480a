// Package service turns poll results into published state.
//
// SnapshotService is the single consumer of adapter sync results. For every
// poll it writes the status file and a journal row and emits an event; for
// successful polls it also replaces the graph snapshot the web front-end
// loads. Files are replaced by rename so a reader never observes a partial
// write.
//
// Failed polls never clear the last good graph. Under the "exit" failure
// policy a missing daemon identity is reported as ErrFatalPoll so the
// caller can stop the process.
//
// EventBus fans events out to subscribers such as the SSE hub. Slow
// subscribers miss events rather than block publishers.
package service
