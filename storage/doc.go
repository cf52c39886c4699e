// Package storage defines the vector store abstraction the pipeline writes
// to and search reads from: namespaced records keyed by string ID, each
// carrying a float vector and a string metadata map, with filtered queries
// over the metadata.
//
// The badger subpackage provides the embedded BadgerDB implementation.
// Records are serialized with the MUS binary format.
package storage
