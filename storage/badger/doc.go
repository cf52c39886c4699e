// Package badger implements the storage.VectorStore interface on an
// embedded BadgerDB database. Namespaces become key prefixes; queries scan
// the namespace, apply the metadata filter, and rank by cosine similarity.
package badger
