// Package deadletter persists batches the bulk sender discarded after
// exhausting its retry budget. The journal is a local post-mortem aid:
// writes are best-effort and never feed back into remote delivery.
package deadletter
