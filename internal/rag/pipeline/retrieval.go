package pipeline

import (
	"context"
	"fmt"

	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
)

// RetrievalPipeline embeds a question and fetches the most similar chunks
// from the vector store.
type RetrievalPipeline struct {
	embedder interfaces.EmbeddingModel
	store    interfaces.VectorStore
}

func NewRetrievalPipeline(embedder interfaces.EmbeddingModel, store interfaces.VectorStore) *RetrievalPipeline {
	return &RetrievalPipeline{embedder: embedder, store: store}
}

// Retrieve returns up to topK chunks relevant to the question, nearest
// first, with internal bookkeeping metadata stripped.
func (p *RetrievalPipeline) Retrieve(ctx context.Context, question string, topK int) ([]*schema.Document, error) {
	embedding, err := p.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("failed to embed question: %w", err)
	}

	docs, err := p.store.Query(ctx, embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("retrieval query failed: %w", err)
	}

	for _, doc := range docs {
		for _, key := range schema.InternalMetadataKeys {
			delete(doc.Metadata, key)
		}
	}
	return docs, nil
}
