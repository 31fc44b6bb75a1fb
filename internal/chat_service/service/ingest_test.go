package service

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"bostr/internal/models"
	"bostr/internal/rag/interfaces"
	"bostr/internal/rag/schema"
	"bostr/pkg/logger"
)

type fakeLedger struct {
	scraped  map[string]bool
	recorded []models.ScrapedURLRecord
}

func (f *fakeLedger) HasBeenScraped(ctx context.Context, rawURL string) bool {
	return f.scraped[rawURL]
}

func (f *fakeLedger) Record(ctx context.Context, rawURL string, success bool, contentLength int) {
	f.recorded = append(f.recorded, models.ScrapedURLRecord{
		URL:           rawURL,
		Success:       success,
		ContentLength: contentLength,
	})
}

type fakeIndexer struct {
	gotDocs []*schema.Document
	gotTag  string
	chunks  int
	err     error
}

func (f *fakeIndexer) Index(ctx context.Context, docs []*schema.Document, tag string) (int, error) {
	f.gotDocs = docs
	f.gotTag = tag
	if f.err != nil {
		return 0, f.err
	}
	return f.chunks, nil
}

type fakeWebLoader struct {
	gotMaxPages int
	docs        []*schema.Document
	err         error
}

func (f *fakeWebLoader) Load(ctx context.Context, source string) ([]*schema.Document, error) {
	return f.docs, f.err
}

type fakeByteLoader struct {
	gotName string
	docs    []*schema.Document
	err     error
}

func (f *fakeByteLoader) LoadBytes(ctx context.Context, name string, data []byte) ([]*schema.Document, error) {
	f.gotName = name
	return f.docs, f.err
}

type fakePublisher struct {
	events []models.IngestEvent
}

func (f *fakePublisher) Publish(ctx context.Context, event models.IngestEvent) {
	f.events = append(f.events, event)
}

func newIngestService(ledger *fakeLedger, indexer *fakeIndexer, web *fakeWebLoader, file *fakeByteLoader, pub *fakePublisher) *IngestService {
	if ledger == nil {
		ledger = &fakeLedger{scraped: map[string]bool{}}
	}
	if indexer == nil {
		indexer = &fakeIndexer{chunks: 3}
	}
	if web == nil {
		web = &fakeWebLoader{docs: []*schema.Document{{Text: "sida"}}}
	}
	if file == nil {
		file = &fakeByteLoader{docs: []*schema.Document{{Text: "fil"}}}
	}
	factory := func(maxPages int) interfaces.Loader {
		web.gotMaxPages = maxPages
		return web
	}
	var publisher EventPublisher
	if pub != nil {
		publisher = pub
	}
	return NewIngestService(ledger, indexer, factory, file, file, nil, publisher, 5, logger.New("ingest-test", "", ""))
}

func TestLoadDocumentsSkipsAlreadyScrapedURL(t *testing.T) {
	ledger := &fakeLedger{scraped: map[string]bool{"https://example.se/csn": true}}
	indexer := &fakeIndexer{chunks: 3}
	svc := newIngestService(ledger, indexer, nil, nil, nil)

	resp, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourceURL,
		URL:  "https://example.se/csn",
	}, "", nil)
	require.NoError(t, err)
	assert.True(t, resp.AlreadyProcessed)
	assert.Zero(t, resp.Chunks)
	assert.Nil(t, indexer.gotDocs, "already processed URL must not be re-indexed")
	assert.Empty(t, ledger.recorded, "skip must not append a new ledger entry")
}

func TestLoadDocumentsIngestsNewURL(t *testing.T) {
	ledger := &fakeLedger{scraped: map[string]bool{}}
	indexer := &fakeIndexer{chunks: 4}
	web := &fakeWebLoader{docs: []*schema.Document{{Text: "fribelopp 2025 is 150000 kronor"}}}
	svc := newIngestService(ledger, indexer, web, nil, nil)

	resp, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourceURL,
		URL:  "https://example.se/csn",
		Tag:  "csn",
	}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 4, resp.Chunks)
	assert.Equal(t, "csn", indexer.gotTag)
	require.Len(t, ledger.recorded, 1)
	assert.True(t, ledger.recorded[0].Success)
	assert.Positive(t, ledger.recorded[0].ContentLength)
}

func TestLoadDocumentsRecordsFailedScrape(t *testing.T) {
	ledger := &fakeLedger{scraped: map[string]bool{}}
	web := &fakeWebLoader{err: errors.New("connection refused")}
	svc := newIngestService(ledger, nil, web, nil, nil)

	_, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourceURL,
		URL:  "https://example.se/nere",
	}, "", nil)
	require.Error(t, err)
	require.Len(t, ledger.recorded, 1)
	assert.False(t, ledger.recorded[0].Success)
}

func TestLoadDocumentsRecordsEmptyExtractionAsFailure(t *testing.T) {
	ledger := &fakeLedger{scraped: map[string]bool{}}
	web := &fakeWebLoader{docs: nil}
	svc := newIngestService(ledger, nil, web, nil, nil)

	_, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourceURL,
		URL:  "https://example.se/tom",
	}, "", nil)
	require.ErrorIs(t, err, ErrEmptyContent)
	require.Len(t, ledger.recorded, 1)
	assert.False(t, ledger.recorded[0].Success)
}

func TestLoadDocumentsURLUsesCrawlBudget(t *testing.T) {
	web := &fakeWebLoader{docs: []*schema.Document{{Text: "sida"}}}
	svc := newIngestService(nil, nil, web, nil, nil)

	_, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourceURL,
		URL:  "https://example.se",
	}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 5, web.gotMaxPages, "default budget comes from configuration")

	_, err = svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type:     models.SourceURL,
		URL:      "https://example.se",
		MaxPages: 2,
	}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, 2, web.gotMaxPages)
}

func TestLoadDocumentsPDFUpload(t *testing.T) {
	file := &fakeByteLoader{docs: []*schema.Document{{Text: "pdf-text"}}}
	indexer := &fakeIndexer{chunks: 2}
	svc := newIngestService(nil, indexer, nil, file, nil)

	resp, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourcePDF,
		Tag:  "regler",
	}, "regler.pdf", []byte("%PDF-1.7 ..."))
	require.NoError(t, err)
	assert.Equal(t, 2, resp.Chunks)
	assert.Equal(t, "regler.pdf", resp.Source)
	assert.Equal(t, "regler.pdf", file.gotName)
}

func TestLoadDocumentsRejectsEmptyUpload(t *testing.T) {
	svc := newIngestService(nil, nil, nil, nil, nil)
	_, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type: models.SourcePDF,
	}, "tom.pdf", nil)
	assert.ErrorIs(t, err, ErrEmptyContent)
}

func TestLoadDocumentsTextInput(t *testing.T) {
	indexer := &fakeIndexer{chunks: 1}
	svc := newIngestService(nil, indexer, nil, nil, nil)

	resp, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type:    models.SourceText,
		Content: "Fribeloppet 2025 är 150000 kronor.",
	}, "", nil)
	require.NoError(t, err)
	assert.Equal(t, "text-input", resp.Source)
	require.Len(t, indexer.gotDocs, 1)
	assert.Equal(t, "text-input", indexer.gotDocs[0].Metadata[schema.MetadataKeySource])
}

func TestLoadDocumentsRejectsUnknownType(t *testing.T) {
	svc := newIngestService(nil, nil, nil, nil, nil)
	_, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{Type: "xml"}, "", nil)
	assert.ErrorIs(t, err, ErrUnsupportedType)
}

func TestLoadDocumentsPublishesIngestEvents(t *testing.T) {
	pub := &fakePublisher{}
	indexer := &fakeIndexer{chunks: 3}
	svc := newIngestService(nil, indexer, nil, nil, pub)

	_, err := svc.LoadDocuments(context.Background(), models.LoadDocumentsRequest{
		Type:    models.SourceText,
		Content: "info",
		Tag:     "csn",
	}, "", nil)
	require.NoError(t, err)
	require.Len(t, pub.events, 1)
	assert.True(t, pub.events[0].Success)
	assert.Equal(t, 3, pub.events[0].Chunks)
	assert.Equal(t, "csn", pub.events[0].Tag)
}
