package pipeline

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bostr/internal/rag/schema"
	"bostr/internal/rag/splitters"
	"bostr/pkg/logger"
)

type fakeEmbedder struct {
	calls int
}

func (f *fakeEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	f.calls++
	return []float32{float32(len(text)), 1, 0}, nil
}

func (f *fakeEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	out := make([][]float32, len(texts))
	for i, t := range texts {
		v, _ := f.Embed(ctx, t)
		out[i] = v
	}
	return out, nil
}

type fakeStore struct {
	added   []*schema.Document
	results []*schema.Document
	gotTopK int
}

func (f *fakeStore) Add(ctx context.Context, docs []*schema.Document) ([]string, error) {
	f.added = append(f.added, docs...)
	ids := make([]string, len(docs))
	for i := range docs {
		ids[i] = fmt.Sprintf("id-%d", i)
	}
	return ids, nil
}

func (f *fakeStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	f.gotTopK = topK
	if topK < len(f.results) {
		return f.results[:topK], nil
	}
	return f.results, nil
}

func (f *fakeStore) SearchByTag(ctx context.Context, tag string, limit int) ([]*schema.Document, error) {
	return nil, nil
}

func (f *fakeStore) DeleteByIDs(ctx context.Context, ids []string) error { return nil }
func (f *fakeStore) DeleteByTag(ctx context.Context, tag string) error   { return nil }
func (f *fakeStore) DeleteAll(ctx context.Context) error                 { return nil }

func newTestLogger() *logger.Logger {
	return logger.New("pipeline-test", "", "")
}

func TestIndexStampsMetadataAndEmbeddings(t *testing.T) {
	splitter, err := splitters.NewCharacterSplitter(500, 200)
	require.NoError(t, err)
	store := &fakeStore{}
	p := NewIndexingPipeline(splitter, &fakeEmbedder{}, store, newTestLogger())

	docs := []*schema.Document{{
		Text:     strings.Repeat("a", 120),
		Metadata: map[string]interface{}{schema.MetadataKeySource: "text-input"},
	}}
	count, err := p.Index(context.Background(), docs, "csn")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
	require.Len(t, store.added, 1)

	chunk := store.added[0]
	assert.NotNil(t, chunk.Embedding)
	assert.Equal(t, "csn", chunk.Metadata[schema.MetadataKeyTag])
	assert.Equal(t, "text-input", chunk.Metadata[schema.MetadataKeySource])
	assert.NotEmpty(t, chunk.Metadata[schema.MetadataKeyDateAdded])
}

func TestIndexEmptyInputStoresNothing(t *testing.T) {
	splitter, err := splitters.NewCharacterSplitter(500, 200)
	require.NoError(t, err)
	store := &fakeStore{}
	p := NewIndexingPipeline(splitter, &fakeEmbedder{}, store, newTestLogger())

	count, err := p.Index(context.Background(), []*schema.Document{{Text: ""}}, "")
	require.NoError(t, err)
	assert.Equal(t, 0, count)
	assert.Empty(t, store.added)
}

func TestRetrieveStripsInternalMetadata(t *testing.T) {
	store := &fakeStore{results: []*schema.Document{
		{
			ID:   "a",
			Text: "fribelopp 2025",
			Metadata: map[string]interface{}{
				schema.MetadataKeySource: "https://example.se/csn",
				schema.MetadataKeyScore:  float32(0.12),
			},
		},
	}}
	p := NewRetrievalPipeline(&fakeEmbedder{}, store)

	docs, err := p.Retrieve(context.Background(), "vad är fribeloppet?", 6)
	require.NoError(t, err)
	require.Len(t, docs, 1)
	assert.Equal(t, 6, store.gotTopK)
	assert.Contains(t, docs[0].Metadata, schema.MetadataKeySource)
	assert.NotContains(t, docs[0].Metadata, schema.MetadataKeyScore)
}

func TestRetrieveHonorsTopK(t *testing.T) {
	var results []*schema.Document
	for i := 0; i < 10; i++ {
		results = append(results, &schema.Document{ID: fmt.Sprintf("d%d", i), Text: "x"})
	}
	store := &fakeStore{results: results}
	p := NewRetrievalPipeline(&fakeEmbedder{}, store)

	docs, err := p.Retrieve(context.Background(), "förklara reglerna", 20)
	require.NoError(t, err)
	assert.Len(t, docs, 10)
	assert.Equal(t, 20, store.gotTopK)
}

func TestBuildPromptContainsNameIncomeAndContext(t *testing.T) {
	income := 25000.0
	prompt := BuildPrompt("Fribeloppet 2025 är 150000 kronor.", "Vad är fribeloppet?", "Anna", &income)

	assert.Contains(t, prompt, "Anna")
	assert.Contains(t, prompt, "25000")
	assert.Contains(t, prompt, "Fribeloppet 2025 är 150000 kronor.")
	assert.Contains(t, prompt, "Vad är fribeloppet?")
}

func TestBuildPromptDefaults(t *testing.T) {
	prompt := BuildPrompt("ctx", "fråga", "", nil)
	assert.Contains(t, prompt, DefaultUserName)
	assert.Contains(t, prompt, "okänd")
}

func TestBuildContextSkipsEmptyChunks(t *testing.T) {
	ctx := BuildContext([]*schema.Document{
		{Text: "first"},
		{Text: "   "},
		{Text: "second"},
	})
	assert.Equal(t, "first\n\nsecond", ctx)
}
