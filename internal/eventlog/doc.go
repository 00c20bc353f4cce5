// Package eventlog implements the resilient structured-event logging
// subsystem: a capability interface over a local-only logger and a remote
// logger that buffers redacted entries per category and ships them in
// bounded batches to an indexing backend.
//
// The remote variant degrades rather than fails: delivery errors are
// retried with exponential backoff, exhausted batches are discarded with a
// local loss report (and optionally journaled), and no error originating
// inside the subsystem ever reaches the calling application.
package eventlog
