package ingest

import (
	"context"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

// BlobStore is the object storage contract used by the pipeline.
type BlobStore interface {
	Put(ctx context.Context, key string, data []byte) error
	Get(ctx context.Context, key string) ([]byte, error)
	List(ctx context.Context) ([]string, error)
}

// Extractor pulls plain text from raw document bytes.
type Extractor interface {
	Extract(content []byte) (string, error)
}

// Index stores vectors with their payloads.
type Index interface {
	Upsert(ctx context.Context, res domain.Resume) error
}
