package vectorstore

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"bostr/internal/database/milvus"
	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
)

// Column names of the document collection. These must match the schema
// section of the configuration file.
const (
	fieldID        = "id"
	fieldChunk     = "chunk"
	fieldSource    = "source"
	fieldTag       = "tag"
	fieldDateAdded = "date_added"
	fieldFrom      = "from"
	fieldTo        = "to"
	fieldEmbedding = "embedding"
)

var outputFields = []string{fieldID, fieldChunk, fieldSource, fieldTag, fieldDateAdded, fieldFrom, fieldTo}

// ErrStoreUnavailable is returned when the vector store cannot be reached.
// Handlers map it to 503 rather than 500.
var ErrStoreUnavailable = errors.New("vector store unavailable")

// storeErr marks a failed Milvus call as a store availability problem while
// keeping the underlying error text.
func storeErr(err error, message string) error {
	return fmt.Errorf("%s: %w: %v", message, ErrStoreUnavailable, err)
}

// MilvusStore implements the VectorStore interface on top of a Milvus
// collection.
type MilvusStore struct {
	db       *milvus.MilvusClient
	collName string
	dim      int
}

var _ interfaces.VectorStore = (*MilvusStore)(nil)

// NewMilvusStore wraps the shared Milvus client. The collection must have
// been created via EnsureCollection before the store is used.
func NewMilvusStore(db *milvus.MilvusClient) (*MilvusStore, error) {
	if db == nil || db.Client == nil {
		return nil, ErrStoreUnavailable
	}
	dim := 0
	for _, f := range db.Config.Schema.Fields {
		if f.Name == fieldEmbedding {
			dim = f.Dim
		}
	}
	if dim == 0 {
		return nil, fmt.Errorf("schema config has no %q vector field", fieldEmbedding)
	}
	return &MilvusStore{
		db:       db,
		collName: db.Config.Schema.CollectionName,
		dim:      dim,
	}, nil
}

// buildInsertColumns turns documents into the Milvus insert columns,
// generating a UUID for documents without an ID. Every document must already
// carry an embedding of the collection's dimensionality.
func buildInsertColumns(docs []*schema.Document, dim int) ([]string, []entity.Column, error) {
	ids := make([]string, 0, len(docs))
	chunks := make([]string, 0, len(docs))
	sources := make([]string, 0, len(docs))
	tags := make([]string, 0, len(docs))
	dates := make([]string, 0, len(docs))
	froms := make([]int64, 0, len(docs))
	tos := make([]int64, 0, len(docs))
	vectors := make([][]float32, 0, len(docs))

	for i, doc := range docs {
		if len(doc.Embedding) != dim {
			return nil, nil, fmt.Errorf("document %d has embedding of dim %d, want %d", i, len(doc.Embedding), dim)
		}
		id := doc.ID
		if id == "" {
			id = uuid.NewString()
		}
		ids = append(ids, id)
		chunks = append(chunks, doc.Text)
		sources = append(sources, metadataString(doc, schema.MetadataKeySource))
		tags = append(tags, metadataString(doc, schema.MetadataKeyTag))
		dates = append(dates, metadataString(doc, schema.MetadataKeyDateAdded))
		froms = append(froms, metadataInt(doc, schema.MetadataKeyFrom))
		tos = append(tos, metadataInt(doc, schema.MetadataKeyTo))
		vectors = append(vectors, doc.Embedding)
	}

	cols := []entity.Column{
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldChunk, chunks),
		entity.NewColumnVarChar(fieldSource, sources),
		entity.NewColumnVarChar(fieldTag, tags),
		entity.NewColumnVarChar(fieldDateAdded, dates),
		entity.NewColumnInt64(fieldFrom, froms),
		entity.NewColumnInt64(fieldTo, tos),
		entity.NewColumnFloatVector(fieldEmbedding, dim, vectors),
	}
	return ids, cols, nil
}

// Add persists the documents and returns their chunk IDs.
func (s *MilvusStore) Add(ctx context.Context, docs []*schema.Document) ([]string, error) {
	if len(docs) == 0 {
		return nil, nil
	}

	ids, cols, err := buildInsertColumns(docs, s.dim)
	if err != nil {
		return nil, err
	}

	if _, err := s.db.Client.Insert(ctx, s.collName, "", cols...); err != nil {
		return nil, storeErr(err, fmt.Sprintf("failed to insert %d documents", len(docs)))
	}
	if err := s.db.Flush(ctx); err != nil {
		return nil, storeErr(err, "failed to flush inserted documents")
	}
	return ids, nil
}

// Query runs a vector similarity search and returns the topK nearest chunks,
// nearest first. Each result carries its similarity score in the metadata.
func (s *MilvusStore) Query(ctx context.Context, embedding []float32, topK int) ([]*schema.Document, error) {
	if len(embedding) != s.dim {
		return nil, fmt.Errorf("query embedding has dim %d, want %d", len(embedding), s.dim)
	}
	if topK <= 0 {
		return nil, fmt.Errorf("topK must be positive, got %d", topK)
	}

	sp, err := entity.NewIndexIvfFlatSearchParam(10)
	if err != nil {
		return nil, fmt.Errorf("failed to build search params: %w", err)
	}

	results, err := s.db.Client.Search(
		ctx,
		s.collName,
		[]string{},
		"",
		outputFields,
		[]entity.Vector{entity.FloatVector(embedding)},
		fieldEmbedding,
		entity.L2,
		topK,
		sp,
	)
	if err != nil {
		return nil, storeErr(err, "vector search failed")
	}

	var docs []*schema.Document
	for _, res := range results {
		for i := 0; i < res.ResultCount; i++ {
			doc := documentFromColumns(res.Fields, i)
			if i < len(res.Scores) {
				doc.Metadata[schema.MetadataKeyScore] = res.Scores[i]
			}
			docs = append(docs, doc)
		}
	}
	return docs, nil
}

// SearchByTag returns up to limit chunks carrying the given tag. This is a
// scalar query on the tag field, no vector involved.
func (s *MilvusStore) SearchByTag(ctx context.Context, tag string, limit int) ([]*schema.Document, error) {
	if limit <= 0 {
		limit = 100
	}
	expr := fmt.Sprintf("%s == \"%s\"", fieldTag, escapeExpr(tag))
	rs, err := s.db.Client.Query(
		ctx,
		s.collName,
		[]string{},
		expr,
		outputFields,
		client.WithLimit(int64(limit)),
	)
	if err != nil {
		return nil, storeErr(err, "tag query failed")
	}

	count := 0
	if idCol := varCharColumn(rs, fieldID); idCol != nil {
		count = idCol.Len()
	}
	docs := make([]*schema.Document, 0, count)
	for i := 0; i < count; i++ {
		docs = append(docs, documentFromColumns(rs, i))
	}
	return docs, nil
}

// DeleteByIDs removes the chunks with the given IDs.
func (s *MilvusStore) DeleteByIDs(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	quoted := make([]string, 0, len(ids))
	for _, id := range ids {
		quoted = append(quoted, fmt.Sprintf("\"%s\"", escapeExpr(id)))
	}
	expr := fmt.Sprintf("%s in [%s]", fieldID, strings.Join(quoted, ", "))
	if err := s.db.Client.Delete(ctx, s.collName, "", expr); err != nil {
		return storeErr(err, fmt.Sprintf("failed to delete %d chunks", len(ids)))
	}
	return nil
}

// DeleteByTag removes every chunk carrying the given tag.
func (s *MilvusStore) DeleteByTag(ctx context.Context, tag string) error {
	expr := fmt.Sprintf("%s == \"%s\"", fieldTag, escapeExpr(tag))
	if err := s.db.Client.Delete(ctx, s.collName, "", expr); err != nil {
		return storeErr(err, fmt.Sprintf("failed to delete chunks with tag %q", tag))
	}
	return nil
}

// DeleteAll drops the collection and recreates it empty, so the schema and
// index survive a bulk clear.
func (s *MilvusStore) DeleteAll(ctx context.Context) error {
	if err := s.db.DropCollection(ctx); err != nil {
		return storeErr(err, "failed to drop collection")
	}
	if err := s.db.EnsureCollection(ctx); err != nil {
		return storeErr(err, "failed to recreate collection after clear")
	}
	return nil
}

// Count reports how many chunks the collection holds.
func (s *MilvusStore) Count(ctx context.Context) (int64, error) {
	return s.db.EntityCount(ctx)
}

// documentFromColumns rebuilds one row of a search or query result as a
// Document, offsets included.
func documentFromColumns(cols []entity.Column, i int) *schema.Document {
	return &schema.Document{
		ID:   columnValue(varCharColumn(cols, fieldID), i),
		Text: columnValue(varCharColumn(cols, fieldChunk), i),
		Metadata: map[string]interface{}{
			schema.MetadataKeySource:    columnValue(varCharColumn(cols, fieldSource), i),
			schema.MetadataKeyTag:       columnValue(varCharColumn(cols, fieldTag), i),
			schema.MetadataKeyDateAdded: columnValue(varCharColumn(cols, fieldDateAdded), i),
			schema.MetadataKeyFrom:      int(int64ColumnValue(cols, fieldFrom, i)),
			schema.MetadataKeyTo:        int(int64ColumnValue(cols, fieldTo, i)),
		},
	}
}

func metadataString(doc *schema.Document, key string) string {
	if doc.Metadata == nil {
		return ""
	}
	if v, ok := doc.Metadata[key].(string); ok {
		return v
	}
	return ""
}

// metadataInt accepts the integer flavors a metadata value can arrive in.
func metadataInt(doc *schema.Document, key string) int64 {
	if doc.Metadata == nil {
		return 0
	}
	switch v := doc.Metadata[key].(type) {
	case int:
		return int64(v)
	case int64:
		return v
	case float64:
		return int64(v)
	}
	return 0
}

func varCharColumn(cols []entity.Column, name string) *entity.ColumnVarChar {
	for _, col := range cols {
		if col.Name() == name {
			if vc, ok := col.(*entity.ColumnVarChar); ok {
				return vc
			}
		}
	}
	return nil
}

func columnValue(col *entity.ColumnVarChar, i int) string {
	if col == nil || i >= len(col.Data()) {
		return ""
	}
	return col.Data()[i]
}

func int64ColumnValue(cols []entity.Column, name string, i int) int64 {
	for _, col := range cols {
		if col.Name() != name {
			continue
		}
		if ic, ok := col.(*entity.ColumnInt64); ok && i < len(ic.Data()) {
			return ic.Data()[i]
		}
	}
	return 0
}

// escapeExpr guards the boolean expression strings sent to Milvus against
// quote injection from user supplied tags and IDs.
func escapeExpr(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
