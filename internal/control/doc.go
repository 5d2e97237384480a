// Package control talks to a running tinc daemon over its control socket.
//
// A poll reads the daemon's pid file for the control port and cookie, connects to
// the loopback address, authenticates, and requests three dumps: nodes, edges and
// subnets. Each dump is a list of text lines closed by a terminator line; every data
// line is decoded into a domain raw record. Lines that do not decode are skipped.
//
// # Retry Policy
//
// Poller retries a whole attempt (connect, handshake, three dumps) with a fixed delay
// until all three dumps succeed in the same attempt or the wall-clock budget runs out.
// A missing pid file and a refused connection end the poll immediately.
//
// # Failures
//
// Every failure surfaced by this package is an *Error carrying a Kind. Callers pick
// their policy with KindOf or errors.Is against the Err* sentinels.
package control
