package loaders

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"bostr/internal/rag/schema"
)

// JSONLoader flattens uploaded JSON documents into plain text so they can be
// chunked and embedded like any other source.
type JSONLoader struct{}

// NewJSONLoader creates a new JSONLoader.
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// LoadBytes parses a JSON value (object or array) and returns one Document
// whose text lists every scalar leaf as "path: value" lines.
func (l *JSONLoader) LoadBytes(ctx context.Context, name string, data []byte) ([]*schema.Document, error) {
	// UseNumber keeps numeric leaves verbatim. Plain Unmarshal decodes to
	// float64, which renders large amounts in scientific notation.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var value interface{}
	if err := dec.Decode(&value); err != nil {
		return nil, fmt.Errorf("failed to parse JSON %q: %w", name, err)
	}

	var lines []string
	flattenJSON("", value, &lines)

	text := strings.TrimSpace(strings.Join(lines, "\n"))
	if text == "" {
		return nil, fmt.Errorf("no text could be extracted from JSON %q", name)
	}

	doc := &schema.Document{
		ID:   uuid.New().String(),
		Text: text,
		Metadata: map[string]interface{}{
			schema.MetadataKeySource: name,
		},
	}
	return []*schema.Document{doc}, nil
}

// flattenJSON walks a decoded JSON value depth-first and appends one line
// per scalar leaf. Object keys are visited in sorted order so the output is
// deterministic.
func flattenJSON(path string, value interface{}, out *[]string) {
	switch v := value.(type) {
	case map[string]interface{}:
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		for _, k := range keys {
			flattenJSON(joinPath(path, k), v[k], out)
		}
	case []interface{}:
		for i, item := range v {
			flattenJSON(joinPath(path, fmt.Sprintf("%d", i)), item, out)
		}
	case nil:
		// Nulls carry no searchable content.
	case string:
		if strings.TrimSpace(v) != "" {
			*out = append(*out, fmt.Sprintf("%s: %s", path, v))
		}
	default:
		*out = append(*out, fmt.Sprintf("%s: %v", path, v))
	}
}

func joinPath(path, key string) string {
	if path == "" {
		return key
	}
	return path + "." + key
}
