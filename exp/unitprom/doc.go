// Package unitprom exposes borg initialization metrics through Prometheus.
//
// Observer is the core type and records, per finished unit:
// 1. a counter of initializations by outcome (success or error)
// 2. a histogram of initialization durations
// 3. a gauge with the lifecycle state of the orchestrator
//
// Wire it with borg.WithUnitObserver and borg.WithStateObserver.
//
// This package is EXPERIMENTAL and its API may change before v1.
package unitprom
