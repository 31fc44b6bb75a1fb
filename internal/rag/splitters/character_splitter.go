package splitters

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
)

// CharacterSplitter splits documents into fixed-size windows of runes with a
// configurable overlap between consecutive chunks.
type CharacterSplitter struct {
	ChunkSize    int
	ChunkOverlap int
}

// NewCharacterSplitter creates a CharacterSplitter. The overlap must be
// smaller than the chunk size, otherwise the window could not advance.
func NewCharacterSplitter(chunkSize, chunkOverlap int) (*CharacterSplitter, error) {
	if chunkSize <= 0 {
		return nil, fmt.Errorf("chunk size must be positive, got %d", chunkSize)
	}
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, fmt.Errorf("chunk overlap must be in [0, %d), got %d", chunkSize, chunkOverlap)
	}
	return &CharacterSplitter{
		ChunkSize:    chunkSize,
		ChunkOverlap: chunkOverlap,
	}, nil
}

// Split slices each document into overlapping windows. Every chunk carries
// its parent's metadata plus "from"/"to" rune offsets, so concatenating the
// non-overlapping portions of consecutive chunks reconstructs the source
// text. A document shorter than the chunk size yields exactly one chunk; an
// empty document yields none.
func (s *CharacterSplitter) Split(ctx context.Context, docs []*schema.Document) ([]*schema.Document, error) {
	var chunks []*schema.Document

	for _, doc := range docs {
		runes := []rune(doc.Text)
		if len(runes) == 0 {
			continue
		}

		step := s.ChunkSize - s.ChunkOverlap
		for start := 0; start < len(runes); start += step {
			end := start + s.ChunkSize
			if end > len(runes) {
				end = len(runes)
			}

			chunk := &schema.Document{
				ID:       uuid.New().String(),
				Text:     string(runes[start:end]),
				Metadata: copyMetadata(doc.Metadata),
			}
			chunk.Metadata[schema.MetadataKeyFrom] = start
			chunk.Metadata[schema.MetadataKeyTo] = end

			chunks = append(chunks, chunk)

			if end == len(runes) {
				break
			}
		}
	}

	return chunks, nil
}

// copyMetadata deep-copies the top level of a metadata map so chunks do not
// share state with their parent document.
func copyMetadata(md map[string]interface{}) map[string]interface{} {
	newMd := make(map[string]interface{}, len(md))
	for k, v := range md {
		newMd[k] = v
	}
	return newMd
}

var _ interfaces.Splitter = (*CharacterSplitter)(nil)
