// Package record encodes the typed records stored in each namespace and
// serializes every read-modify-write cycle through Mutator.
//
// Absent keys decode to an empty record. Bytes that fail to decode, or that
// carry a newer "v" than CurrentVersion, decode to a malformed error.
package record
