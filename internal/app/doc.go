// Package app provides the application layer.
//
// Wires the record store, the mutator and the handlers together, fans inbound
// platform events out to them and runs the startup housekeeping.
// Depends on domain interfaces, not on the Discord adapter.
package app
