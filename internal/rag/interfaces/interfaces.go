package interfaces

import (
	"context"

	"bostr/internal/rag/schema"
)

// Loader is the interface for turning a source (URL, file buffer, raw text)
// into a list of Document objects.
type Loader interface {
	Load(ctx context.Context, source string) ([]*schema.Document, error)
}

// Splitter is the interface for splitting Documents into smaller chunks.
type Splitter interface {
	Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error)
}

// VectorStore is the interface for persisting and querying document vectors.
type VectorStore interface {
	// Add persists the documents and returns the generated chunk IDs.
	Add(ctx context.Context, docs []*schema.Document) ([]string, error)
	// Query returns the topK nearest documents, nearest first.
	Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error)
	// SearchByTag returns up to limit documents carrying the given tag.
	// This is a metadata scan, not a vector search.
	SearchByTag(ctx context.Context, tag string, limit int) ([]*schema.Document, error)
	// DeleteByIDs removes the documents with the given chunk IDs.
	DeleteByIDs(ctx context.Context, ids []string) error
	// DeleteByTag removes every document carrying the given tag.
	DeleteByTag(ctx context.Context, tag string) error
	// DeleteAll clears the whole collection.
	DeleteAll(ctx context.Context) error
}

// EmbeddingModel is the interface for a text embedding model.
type EmbeddingModel interface {
	Embed(ctx context.Context, text string) ([]float32, error)
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)
}

// LLM is the interface for a model that generates a text completion for a
// fully assembled prompt.
type LLM interface {
	Generate(ctx context.Context, prompt string) (string, error)
}
