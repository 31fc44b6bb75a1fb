package store

import (
	"context"
	"strings"
	"time"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"

	"bostr/internal/models"
	"bostr/pkg/logger"
)

const scrapedURLCollection = "scraped_urls"

// URLLedger is the append-only record of scraping attempts. Only successful
// attempts count as "already scraped"; failures stay in the ledger for
// diagnostics but never block a retry.
type URLLedger struct {
	coll *mongo.Collection
	log  *logger.Logger
}

func NewURLLedger(db *mongo.Database, log *logger.Logger) *URLLedger {
	return &URLLedger{
		coll: db.Collection(scrapedURLCollection),
		log:  log,
	}
}

// NormalizeURL strips everything from the first '#', so URLs differing only
// in their fragment dedupe to the same ledger entry.
func NormalizeURL(rawURL string) string {
	if i := strings.Index(rawURL, "#"); i >= 0 {
		return rawURL[:i]
	}
	return rawURL
}

// HasBeenScraped reports whether the URL has a successful ledger entry. A
// lookup failure is logged and treated as not scraped, so ledger outages
// degrade to re-scraping instead of blocking ingestion.
func (l *URLLedger) HasBeenScraped(ctx context.Context, rawURL string) bool {
	filter := bson.M{"url": NormalizeURL(rawURL), "success": true}
	err := l.coll.FindOne(ctx, filter).Err()
	if err == mongo.ErrNoDocuments {
		return false
	}
	if err != nil {
		l.log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "url_ledger_lookup_failed",
		}).Warn("treating URL as not scraped after ledger lookup failure")
		return false
	}
	return true
}

// Record appends a scraping attempt to the ledger. Write failures are logged
// and swallowed; the ledger must never fail an ingestion that already
// succeeded.
func (l *URLLedger) Record(ctx context.Context, rawURL string, success bool, contentLength int) {
	record := models.ScrapedURLRecord{
		URL:           NormalizeURL(rawURL),
		Timestamp:     time.Now().UTC(),
		Success:       success,
		ContentLength: contentLength,
	}
	if _, err := l.coll.InsertOne(ctx, record); err != nil {
		l.log.WithError(models.ErrorInfo{
			Message: err.Error(),
			Type:    "url_ledger_write_failed",
		}).Warn("failed to record scraping attempt")
	}
}
