// Package main hosts the logship CLI entrypoint and command graph.
//
// The Cobra-based command tree exposes connectivity probes against the
// configured indexing backend, a sample-event emitter that exercises the
// full selection and delivery path, and configuration scaffolding. It
// centralizes configuration resolution and local sink setup so subcommands
// can focus on presentation.
//
// Keep this package lean: add new functionality to the internal packages
// first, then surface it through dedicated commands or flags here.
package main
