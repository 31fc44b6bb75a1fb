package schema

const (
	// MetadataKeySource is the key recording where a chunk came from: the
	// scraped URL, the uploaded file name, or "text-input".
	MetadataKeySource = "source"
	// MetadataKeyDateAdded is the key for the RFC 3339 ingestion timestamp.
	MetadataKeyDateAdded = "date_added"
	// MetadataKeyTag is the key for the optional grouping tag supplied at
	// ingestion time. Tag-scoped search and delete operate on this field.
	MetadataKeyTag = "tag"
	// MetadataKeyFrom is the key for the chunk's start offset (in runes)
	// within the source document.
	MetadataKeyFrom = "from"
	// MetadataKeyTo is the key for the chunk's end offset (exclusive).
	MetadataKeyTo = "to"

	// MetadataKeyScore carries the similarity score assigned by the vector
	// store. Internal bookkeeping; stripped before results leave the
	// retrieval pipeline.
	MetadataKeyScore = "score"
	// MetadataKeyEmbeddingModel tags a chunk with the model that embedded
	// it. Internal bookkeeping; stripped like the score.
	MetadataKeyEmbeddingModel = "embedding_model"
)

// Document is the central data structure of the retrieval pipeline: a piece
// of text with its vector representation and metadata. Source documents,
// chunks and retrieved passages all travel as Documents.
type Document struct {
	// ID uniquely identifies this document chunk within the collection.
	ID string

	// Text is the string content of the chunk.
	Text string

	// Embedding is the vector representation of Text. Nil until the chunk
	// has passed through the embedding model.
	Embedding []float32

	// Metadata holds arbitrary data about the document, keyed by the
	// MetadataKey constants above.
	Metadata map[string]interface{}
}

// InternalMetadataKeys lists the bookkeeping fields that must not leak out
// of the retrieval pipeline.
var InternalMetadataKeys = []string{MetadataKeyScore, MetadataKeyEmbeddingModel}
