// Package borg provides a concurrent unit-initialization orchestrator.
//
// It offers:
// - unit declarations with dependency lists and construction-time validation
// - deterministic topological wave grouping with cycle detection
// - exactly-once execution with write-once, concurrently-readable result caching
// - result lookups for units still initializing and for the host afterwards
// - an observable lifecycle state machine and per-unit diagnostics
package borg
