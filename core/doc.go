// Package core defines the domain model shared across the module: documents,
// chunks, processing results, the pipeline error taxonomy, and validation.
//
// The vector store is the system of record for documents and chunks; core
// provides the mapping between domain structs and the string metadata maps
// those records carry.
package core
