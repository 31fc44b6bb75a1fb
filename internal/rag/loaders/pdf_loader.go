package loaders

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ledongthuc/pdf"

	"bostr/internal/rag/schema"
)

// PdfLoader extracts plain text from PDF documents held in memory, as they
// arrive from the upload endpoint.
type PdfLoader struct{}

// NewPdfLoader creates a new PdfLoader.
func NewPdfLoader() *PdfLoader {
	return &PdfLoader{}
}

// LoadBytes parses a PDF from its raw bytes and returns one Document with
// the concatenated text of all pages. name is recorded as the source.
func (l *PdfLoader) LoadBytes(ctx context.Context, name string, data []byte) ([]*schema.Document, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("failed to read PDF %q: %w", name, err)
	}

	var sb strings.Builder
	for i := 1; i <= reader.NumPage(); i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}

		text, err := page.GetPlainText(nil)
		if err != nil {
			// A single malformed page should not sink the whole upload.
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}

	text := strings.TrimSpace(sb.String())
	if text == "" {
		return nil, fmt.Errorf("no text could be extracted from PDF %q", name)
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
