package storage

// Record is the unit stored in a vector store: a string-keyed float vector
// with a flexible string metadata map. Upserting a record with an existing
// ID overwrites the prior content and metadata.
type Record struct {
	ID       string
	Vector   []float32
	Metadata map[string]string
}

// Match is one query result: the matched record and its similarity score.
// Metadata-only queries (nil query vector) return a zero score.
type Match struct {
	Record *Record
	Score  float32
}

// Logical collections separating document metadata records from chunk records.
const (
	NamespaceDocuments = "documents"
	NamespaceChunks    = "chunks"
)

// MaxWriteBatch caps the number of records per upsert or delete call to
// respect backend payload limits. Callers slice larger write sets.
const MaxWriteBatch = 100

// PlaceholderVector returns a fixed, non-zero dummy vector of the given
// dimension, used for metadata-only records in indexes that require a
// vector on every entry.
func PlaceholderVector(dim int) []float32 {
	v := make([]float32, dim)
	for i := range v {
		v[i] = 1e-4
	}
	return v
}
