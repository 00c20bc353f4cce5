// Package logging assembles the local log sink used across logship.
//
// It owns the configurable line/JSON slog handlers, centralizes level and
// output plumbing, and defines the standardized field keys that the event
// logging subsystem stamps onto its records. The package also provides a
// no-op logger for tests and wiring code that cannot fail.
//
// Prefer these constructors over hand-rolled slog setup so every component
// emits lines with the same shape regardless of where they end up.
package logging
