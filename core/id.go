package core

import (
	"encoding/hex"
	"fmt"

	"github.com/go-crypt/x/blake2b"
	"github.com/google/uuid"
)

// NewDocumentID generates a globally unique document identifier.
func NewDocumentID() string {
	return uuid.New().String()
}

// ChunkID derives the identifier for a chunk from its owning document ID
// and ordinal index. The derivation is deterministic so that reprocessing
// a document upserts over the previous attempt's chunks.
func ChunkID(documentID string, index int) string {
	return fmt.Sprintf("%s#%05d", documentID, index)
}

// ContentDigest returns a short BLAKE2b digest of the given text, used to
// fingerprint document content across processing attempts.
func ContentDigest(text string) string {
	h, _ := blake2b.New(16, nil)
	h.Write([]byte(text))
	return hex.EncodeToString(h.Sum(nil))
}
