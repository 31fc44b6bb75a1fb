package splitters

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bostr/internal/rag/schema"
)

func splitText(t *testing.T, text string, size, overlap int) []*schema.Document {
	t.Helper()
	s, err := NewCharacterSplitter(size, overlap)
	require.NoError(t, err)
	chunks, err := s.Split(context.Background(), []*schema.Document{{
		ID:       "doc-1",
		Text:     text,
		Metadata: map[string]interface{}{schema.MetadataKeySource: "test"},
	}})
	require.NoError(t, err)
	return chunks
}

func TestNewCharacterSplitterRejectsBadParams(t *testing.T) {
	_, err := NewCharacterSplitter(0, 0)
	assert.Error(t, err)

	_, err = NewCharacterSplitter(100, 100)
	assert.Error(t, err)

	_, err = NewCharacterSplitter(100, -1)
	assert.Error(t, err)
}

func TestSplitEmptyTextYieldsNoChunks(t *testing.T) {
	chunks := splitText(t, "", 500, 200)
	assert.Empty(t, chunks)
}

func TestSplitShortTextYieldsSingleChunk(t *testing.T) {
	chunks := splitText(t, "kort text", 500, 200)
	require.Len(t, chunks, 1)
	assert.Equal(t, "kort text", chunks[0].Text)
	assert.Equal(t, 0, chunks[0].Metadata[schema.MetadataKeyFrom])
	assert.Equal(t, 9, chunks[0].Metadata[schema.MetadataKeyTo])
}

func TestSplitChunkLengthAndOverlap(t *testing.T) {
	text := strings.Repeat("abcdefghij", 130) // 1300 runes
	size, overlap := 500, 200
	chunks := splitText(t, text, size, overlap)

	require.Greater(t, len(chunks), 1)
	for _, c := range chunks {
		assert.LessOrEqual(t, len([]rune(c.Text)), size)
	}

	// Consecutive chunks share exactly the configured overlap.
	for i := 1; i < len(chunks); i++ {
		prev := []rune(chunks[i-1].Text)
		cur := []rune(chunks[i].Text)
		if len(cur) >= overlap {
			assert.Equal(t, string(prev[len(prev)-overlap:]), string(cur[:overlap]))
		}
	}
}

func TestSplitReconstructsOriginalText(t *testing.T) {
	for _, text := range []string{
		"a",
		strings.Repeat("x", 499),
		strings.Repeat("x", 500),
		strings.Repeat("x", 501),
		strings.Repeat("fribeloppet för 2025 är 150000 kronor. ", 60),
		strings.Repeat("åäö", 400), // multi-byte runes
	} {
		size, overlap := 500, 200
		chunks := splitText(t, text, size, overlap)

		var sb strings.Builder
		for i, c := range chunks {
			runes := []rune(c.Text)
			if i == 0 {
				sb.WriteString(c.Text)
				continue
			}
			// Skip the overlapping prefix of every later chunk.
			skip := overlap
			if skip > len(runes) {
				skip = len(runes)
			}
			sb.WriteString(string(runes[skip:]))
		}
		assert.Equal(t, text, sb.String())
	}
}

func TestSplitChunksDoNotShareMetadata(t *testing.T) {
	chunks := splitText(t, strings.Repeat("y", 1200), 500, 200)
	require.Greater(t, len(chunks), 1)

	chunks[0].Metadata["mutated"] = true
	_, ok := chunks[1].Metadata["mutated"]
	assert.False(t, ok)

	for _, c := range chunks {
		assert.NotEmpty(t, c.ID)
		assert.Equal(t, "test", c.Metadata[schema.MetadataKeySource])
	}
}
