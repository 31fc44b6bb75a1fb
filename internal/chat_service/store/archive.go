package store

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/minio/minio-go/v7"
)

// UploadArchive keeps a copy of every ingested file in object storage, so an
// ingestion can be replayed after a collection rebuild.
type UploadArchive struct {
	client *minio.Client
	bucket string
}

func NewUploadArchive(client *minio.Client, bucket string) *UploadArchive {
	return &UploadArchive{client: client, bucket: bucket}
}

// Archive stores the file under a timestamped object name, so re-uploads of
// the same file name never overwrite each other.
func (a *UploadArchive) Archive(ctx context.Context, name string, data []byte, contentType string) error {
	objectName := fmt.Sprintf("%s/%s", time.Now().UTC().Format("2006-01-02"), name)
	_, err := a.client.PutObject(ctx, a.bucket, objectName, bytes.NewReader(data), int64(len(data)), minio.PutObjectOptions{
		ContentType: contentType,
	})
	if err != nil {
		return fmt.Errorf("failed to archive %q: %w", name, err)
	}
	return nil
}
