// Package domain defines the core domain types and interfaces.
//
// Inbound platform events, the outbound command surface (Platform, Prompter),
// store namespaces and key builders live here. No implementation code, just
// contracts shared by the handler packages and the adapters.
package domain
