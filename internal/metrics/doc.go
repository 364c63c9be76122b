// Package metrics holds the engine's in-process atomic counters.
package metrics
