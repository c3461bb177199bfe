/*
Package observability turns engine lifecycle hooks into operational signals.

Metrics exports Prometheus counters and histograms for events, decisions and game
outcomes. Aggregate merges several hook sets so metrics, debug logging and live
streams can observe the same engine.
*/
package observability
