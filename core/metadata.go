package core

import (
	"strconv"
	"time"
)

// Metadata field names used on stored records. The vector store only holds
// string metadata, so documents and chunks are flattened through these keys.
const (
	MetaRecordType     = "record_type"
	MetaDocumentID     = "document_id"
	MetaOwnerID        = "owner_id"
	MetaName           = "name"
	MetaDescription    = "description"
	MetaFileType       = "file_type"
	MetaSize           = "size"
	MetaStoragePath    = "storage_path"
	MetaStatus         = "status"
	MetaProgress       = "progress"
	MetaErrorMessage   = "error_message"
	MetaChunkCount     = "chunk_count"
	MetaEmbeddingModel = "embedding_model"
	MetaContentDigest  = "content_digest"
	MetaCreatedAt      = "created_at"
	MetaUpdatedAt      = "updated_at"
	MetaChunkIndex     = "chunk_index"
	MetaContent        = "content"
	MetaDocumentName   = "document_name"
)

// Record type discriminators stored under MetaRecordType.
const (
	RecordTypeDocument = "document"
	RecordTypeChunk    = "chunk"
)

// ToMetadata flattens the document into a string metadata map for storage.
func (d *Document) ToMetadata() map[string]string {
	md := map[string]string{
		MetaRecordType:     RecordTypeDocument,
		MetaDocumentID:     d.ID,
		MetaOwnerID:        d.OwnerID,
		MetaName:           d.Name,
		MetaDescription:    d.Description,
		MetaFileType:       d.FileType,
		MetaSize:           strconv.FormatInt(d.Size, 10),
		MetaStoragePath:    d.StoragePath,
		MetaStatus:         string(d.Status),
		MetaProgress:       strconv.Itoa(d.Progress),
		MetaChunkCount:     strconv.Itoa(d.ChunkCount),
		MetaEmbeddingModel: d.EmbeddingModel,
		MetaContentDigest:  d.ContentDigest,
	}
	if d.ErrorMessage != "" {
		md[MetaErrorMessage] = d.ErrorMessage
	}
	if !d.CreatedAt.IsZero() {
		md[MetaCreatedAt] = d.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	if !d.UpdatedAt.IsZero() {
		md[MetaUpdatedAt] = d.UpdatedAt.UTC().Format(time.RFC3339Nano)
	}
	return md
}

// DocumentFromMetadata rebuilds a Document from a stored metadata map.
// Unparseable numeric fields are left at their zero values.
func DocumentFromMetadata(md map[string]string) *Document {
	doc := &Document{
		ID:             md[MetaDocumentID],
		OwnerID:        md[MetaOwnerID],
		Name:           md[MetaName],
		Description:    md[MetaDescription],
		FileType:       md[MetaFileType],
		StoragePath:    md[MetaStoragePath],
		Status:         DocumentStatus(md[MetaStatus]),
		ErrorMessage:   md[MetaErrorMessage],
		EmbeddingModel: md[MetaEmbeddingModel],
		ContentDigest:  md[MetaContentDigest],
	}
	doc.Size, _ = strconv.ParseInt(md[MetaSize], 10, 64)
	doc.Progress, _ = strconv.Atoi(md[MetaProgress])
	doc.ChunkCount, _ = strconv.Atoi(md[MetaChunkCount])
	if v := md[MetaCreatedAt]; v != "" {
		doc.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	if v := md[MetaUpdatedAt]; v != "" {
		doc.UpdatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return doc
}

// ToMetadata flattens the chunk into a string metadata map for storage.
// The chunk text itself travels in the metadata so retrieval does not need
// a second lookup.
func (c *Chunk) ToMetadata() map[string]string {
	md := map[string]string{
		MetaRecordType:   RecordTypeChunk,
		MetaDocumentID:   c.DocumentID,
		MetaChunkIndex:   strconv.Itoa(c.Index),
		MetaContent:      c.Content,
		MetaDocumentName: c.DocumentName,
		MetaFileType:     c.FileType,
		MetaOwnerID:      c.OwnerID,
	}
	if !c.CreatedAt.IsZero() {
		md[MetaCreatedAt] = c.CreatedAt.UTC().Format(time.RFC3339Nano)
	}
	return md
}

// ChunkFromMetadata rebuilds a Chunk from a stored record's id, vector and
// metadata map.
func ChunkFromMetadata(id string, vector []float32, md map[string]string) *Chunk {
	ch := &Chunk{
		ID:           id,
		DocumentID:   md[MetaDocumentID],
		Content:      md[MetaContent],
		Vector:       vector,
		DocumentName: md[MetaDocumentName],
		FileType:     md[MetaFileType],
		OwnerID:      md[MetaOwnerID],
	}
	ch.Index, _ = strconv.Atoi(md[MetaChunkIndex])
	if v := md[MetaCreatedAt]; v != "" {
		ch.CreatedAt, _ = time.Parse(time.RFC3339Nano, v)
	}
	return ch
}
