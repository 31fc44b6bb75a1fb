package pipeline

import (
	"context"
	"fmt"
	"time"

	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
	"bostr/pkg/logger"
)

// IndexingPipeline turns source documents into embedded chunks inside the
// vector store: split, embed, stamp metadata, persist.
type IndexingPipeline struct {
	splitter interfaces.Splitter
	embedder interfaces.EmbeddingModel
	store    interfaces.VectorStore
	log      *logger.Logger
}

func NewIndexingPipeline(splitter interfaces.Splitter, embedder interfaces.EmbeddingModel, store interfaces.VectorStore, log *logger.Logger) *IndexingPipeline {
	return &IndexingPipeline{
		splitter: splitter,
		embedder: embedder,
		store:    store,
		log:      log,
	}
}

// Index splits the documents, embeds the chunks in one batch, stamps tag and
// ingestion timestamp, and persists everything. It returns the number of
// chunks written.
func (p *IndexingPipeline) Index(ctx context.Context, docs []*schema.Document, tag string) (int, error) {
	chunks, err := p.splitter.Split(ctx, docs)
	if err != nil {
		return 0, fmt.Errorf("failed to split documents: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	embeddings, err := p.embedder.EmbedBatch(ctx, texts)
	if err != nil {
		return 0, fmt.Errorf("failed to embed %d chunks: %w", len(chunks), err)
	}
	if len(embeddings) != len(chunks) {
		return 0, fmt.Errorf("embedding count mismatch: got %d for %d chunks", len(embeddings), len(chunks))
	}

	now := time.Now().UTC().Format(time.RFC3339)
	for i, chunk := range chunks {
		chunk.Embedding = embeddings[i]
		if chunk.Metadata == nil {
			chunk.Metadata = make(map[string]interface{})
		}
		chunk.Metadata[schema.MetadataKeyDateAdded] = now
		if tag != "" {
			chunk.Metadata[schema.MetadataKeyTag] = tag
		}
	}

	ids, err := p.store.Add(ctx, chunks)
	if err != nil {
		return 0, fmt.Errorf("failed to store chunks: %w", err)
	}

	p.log.WithPayload(map[string]interface{}{
		"chunks": len(ids),
		"tag":    tag,
	}).Info("indexed documents into vector store")
	return len(ids), nil
}
