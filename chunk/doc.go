// Package chunk splits raw document text into overlapping, size-bounded,
// informative segments ready for embedding.
//
// Three strategies are supported: fixed (size-bounded, paragraph-preserving),
// semantic (markdown-heading sections, headings kept as chunk prefixes), and
// hybrid (semantic with a fixed fallback when no headings are found).
package chunk
