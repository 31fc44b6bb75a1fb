package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"bostr/internal/models"
	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
	"bostr/pkg/logger"
)

var (
	// ErrEmptyContent is returned when an ingestion request carries no
	// usable content for its declared type.
	ErrEmptyContent = errors.New("no content to ingest")
	// ErrUnsupportedType is returned for unknown source types.
	ErrUnsupportedType = errors.New("unsupported source type")
)

// sourceTextInput marks chunks ingested from raw text rather than a URL or
// file.
const sourceTextInput = "text-input"

// Ledger records scraping attempts and answers dedup lookups.
type Ledger interface {
	HasBeenScraped(ctx context.Context, rawURL string) bool
	Record(ctx context.Context, rawURL string, success bool, contentLength int)
}

// Indexer writes documents into the vector store.
type Indexer interface {
	Index(ctx context.Context, docs []*schema.Document, tag string) (int, error)
}

// ByteLoader parses an uploaded file buffer into documents.
type ByteLoader interface {
	LoadBytes(ctx context.Context, name string, data []byte) ([]*schema.Document, error)
}

// WebLoaderFactory builds a crawler with the given page budget.
type WebLoaderFactory func(maxPages int) interfaces.Loader

// Archiver stores a copy of an uploaded file. Nil disables archiving.
type Archiver interface {
	Archive(ctx context.Context, name string, data []byte, contentType string) error
}

// EventPublisher emits ingestion audit events. Nil disables publishing.
type EventPublisher interface {
	Publish(ctx context.Context, event models.IngestEvent)
}

// IngestService routes ingestion requests to the right loader and feeds the
// result through the indexing pipeline.
type IngestService struct {
	ledger        Ledger
	indexer       Indexer
	newWebLoader  WebLoaderFactory
	pdfLoader     ByteLoader
	jsonLoader    ByteLoader
	archiver      Archiver
	publisher     EventPublisher
	maxCrawlPages int
	log           *logger.Logger
}

func NewIngestService(ledger Ledger, indexer Indexer, newWebLoader WebLoaderFactory, pdfLoader, jsonLoader ByteLoader, archiver Archiver, publisher EventPublisher, maxCrawlPages int, log *logger.Logger) *IngestService {
	return &IngestService{
		ledger:        ledger,
		indexer:       indexer,
		newWebLoader:  newWebLoader,
		pdfLoader:     pdfLoader,
		jsonLoader:    jsonLoader,
		archiver:      archiver,
		publisher:     publisher,
		maxCrawlPages: maxCrawlPages,
		log:           log,
	}
}

// LoadDocuments ingests one source. For file uploads, fileName and fileData
// carry the multipart payload; they are ignored for URL and text sources.
func (s *IngestService) LoadDocuments(ctx context.Context, req models.LoadDocumentsRequest, fileName string, fileData []byte) (models.LoadDocumentsResponse, error) {
	switch req.Type {
	case models.SourceURL:
		return s.loadURL(ctx, req)
	case models.SourcePDF:
		return s.loadFile(ctx, req, s.pdfLoader, fileName, fileData)
	case models.SourceJSON:
		return s.loadFile(ctx, req, s.jsonLoader, fileName, fileData)
	case models.SourceText:
		return s.loadText(ctx, req)
	default:
		return models.LoadDocumentsResponse{}, fmt.Errorf("%w: %q", ErrUnsupportedType, req.Type)
	}
}

func (s *IngestService) loadURL(ctx context.Context, req models.LoadDocumentsRequest) (models.LoadDocumentsResponse, error) {
	if strings.TrimSpace(req.URL) == "" {
		return models.LoadDocumentsResponse{}, fmt.Errorf("%w: url is required", ErrEmptyContent)
	}

	if s.ledger.HasBeenScraped(ctx, req.URL) {
		s.log.WithPayload(map[string]interface{}{"url": req.URL}).Info("skipping already processed URL")
		return models.LoadDocumentsResponse{
			Message:          "URL has already been processed",
			Source:           req.URL,
			Tag:              req.Tag,
			AlreadyProcessed: true,
		}, nil
	}

	maxPages := req.MaxPages
	if maxPages <= 0 {
		maxPages = s.maxCrawlPages
	}

	docs, err := s.newWebLoader(maxPages).Load(ctx, req.URL)
	if err != nil {
		s.ledger.Record(ctx, req.URL, false, 0)
		s.publish(ctx, req, req.URL, 0, 0, err)
		return models.LoadDocumentsResponse{}, fmt.Errorf("failed to load URL: %w", err)
	}

	if len(docs) == 0 {
		err := fmt.Errorf("%w: no text extracted from %s", ErrEmptyContent, req.URL)
		s.ledger.Record(ctx, req.URL, false, 0)
		s.publish(ctx, req, req.URL, 0, 0, err)
		return models.LoadDocumentsResponse{}, err
	}

	contentLength := 0
	for _, doc := range docs {
		contentLength += len(doc.Text)
	}

	chunks, err := s.indexer.Index(ctx, docs, req.Tag)
	if err != nil {
		s.ledger.Record(ctx, req.URL, false, contentLength)
		s.publish(ctx, req, req.URL, 0, contentLength, err)
		return models.LoadDocumentsResponse{}, err
	}

	s.ledger.Record(ctx, req.URL, true, contentLength)
	s.publish(ctx, req, req.URL, chunks, contentLength, nil)
	return models.LoadDocumentsResponse{
		Message: fmt.Sprintf("Loaded %d pages from URL", len(docs)),
		Source:  req.URL,
		Tag:     req.Tag,
		Chunks:  chunks,
	}, nil
}

func (s *IngestService) loadFile(ctx context.Context, req models.LoadDocumentsRequest, loader ByteLoader, fileName string, fileData []byte) (models.LoadDocumentsResponse, error) {
	if len(fileData) == 0 {
		return models.LoadDocumentsResponse{}, fmt.Errorf("%w: file is required", ErrEmptyContent)
	}

	docs, err := loader.LoadBytes(ctx, fileName, fileData)
	if err != nil {
		s.publish(ctx, req, fileName, 0, len(fileData), err)
		return models.LoadDocumentsResponse{}, err
	}

	chunks, err := s.indexer.Index(ctx, docs, req.Tag)
	if err != nil {
		s.publish(ctx, req, fileName, 0, len(fileData), err)
		return models.LoadDocumentsResponse{}, err
	}

	s.archive(ctx, req.Type, fileName, fileData)
	s.publish(ctx, req, fileName, chunks, len(fileData), nil)
	return models.LoadDocumentsResponse{
		Message: "File processed",
		Source:  fileName,
		Tag:     req.Tag,
		Chunks:  chunks,
	}, nil
}

func (s *IngestService) loadText(ctx context.Context, req models.LoadDocumentsRequest) (models.LoadDocumentsResponse, error) {
	if strings.TrimSpace(req.Content) == "" {
		return models.LoadDocumentsResponse{}, fmt.Errorf("%w: content is required", ErrEmptyContent)
	}

	docs := []*schema.Document{{
		Text: req.Content,
		Metadata: map[string]interface{}{
			schema.MetadataKeySource: sourceTextInput,
		},
	}}

	chunks, err := s.indexer.Index(ctx, docs, req.Tag)
	if err != nil {
		s.publish(ctx, req, sourceTextInput, 0, len(req.Content), err)
		return models.LoadDocumentsResponse{}, err
	}

	s.publish(ctx, req, sourceTextInput, chunks, len(req.Content), nil)
	return models.LoadDocumentsResponse{
		Message: "Text processed",
		Source:  sourceTextInput,
		Tag:     req.Tag,
		Chunks:  chunks,
	}, nil
}

// archive stores a copy of the upload. Best effort, a storage failure never
// fails an ingestion that already indexed.
func (s *IngestService) archive(ctx context.Context, sourceType models.SourceType, fileName string, data []byte) {
	if s.archiver == nil {
		return
	}
	contentType := "application/octet-stream"
	switch sourceType {
	case models.SourcePDF:
		contentType = "application/pdf"
	case models.SourceJSON:
		contentType = "application/json"
	}
	if err := s.archiver.Archive(ctx, fileName, data, contentType); err != nil {
		s.log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "archive_failed",
		}).Warn("failed to archive uploaded file")
	}
}

func (s *IngestService) publish(ctx context.Context, req models.LoadDocumentsRequest, source string, chunks, contentLength int, ingestErr error) {
	if s.publisher == nil {
		return
	}
	event := models.IngestEvent{
		Source:        source,
		SourceType:    string(req.Type),
		Tag:           req.Tag,
		Chunks:        chunks,
		ContentLength: contentLength,
		Success:       ingestErr == nil,
	}
	if ingestErr != nil {
		event.Error = ingestErr.Error()
	}
	s.publisher.Publish(ctx, event)
}
