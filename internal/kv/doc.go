// Package kv implements the byte-oriented key-value store behind every record.
//
// Three backends satisfy domain.KVStore: Memory (tests and throwaway runs),
// Pebble (the default, on-disk) and Redis (shared deployments). Namespaces are
// key prefixes; Iterate strips them again. Instrument wraps any backend with
// Prometheus operation metrics.
package kv
