package loaders

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bostr/internal/rag/schema"
)

func TestJSONLoaderFlattensNestedValues(t *testing.T) {
	data := []byte(`{
		"titel": "Fribelopp",
		"belopp": {"2024": 140000, "2025": 150000},
		"taggar": ["csn", "student"],
		"tom": null
	}`)

	docs, err := NewJSONLoader().LoadBytes(context.Background(), "fribelopp.json", data)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Text
	assert.Contains(t, text, "titel: Fribelopp")
	assert.Contains(t, text, "belopp.2025: 150000")
	assert.Contains(t, text, "taggar.0: csn")
	assert.NotContains(t, text, "tom")
	assert.Equal(t, "fribelopp.json", docs[0].Metadata[schema.MetadataKeySource])
}

func TestJSONLoaderKeepsLargeNumbersVerbatim(t *testing.T) {
	data := []byte(`{"budget": 15000000, "ränta": 1.23, "år": 2025}`)

	docs, err := NewJSONLoader().LoadBytes(context.Background(), "budget.json", data)
	require.NoError(t, err)
	require.Len(t, docs, 1)

	text := docs[0].Text
	assert.Contains(t, text, "budget: 15000000")
	assert.Contains(t, text, "ränta: 1.23")
	assert.Contains(t, text, "år: 2025")
	assert.NotContains(t, text, "e+")
}

func TestJSONLoaderIsDeterministic(t *testing.T) {
	data := []byte(`{"b": 2, "a": 1, "c": {"y": 2, "x": 1}}`)
	loader := NewJSONLoader()

	first, err := loader.LoadBytes(context.Background(), "x.json", data)
	require.NoError(t, err)
	second, err := loader.LoadBytes(context.Background(), "x.json", data)
	require.NoError(t, err)

	assert.Equal(t, first[0].Text, second[0].Text)
	assert.True(t, strings.Index(first[0].Text, "a: 1") < strings.Index(first[0].Text, "b: 2"))
}

func TestJSONLoaderRejectsInvalidInput(t *testing.T) {
	_, err := NewJSONLoader().LoadBytes(context.Background(), "broken.json", []byte("{not json"))
	assert.Error(t, err)

	_, err = NewJSONLoader().LoadBytes(context.Background(), "empty.json", []byte(`{}`))
	assert.Error(t, err)
}
