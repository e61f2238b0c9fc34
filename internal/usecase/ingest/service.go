// Package ingest orchestrates the resume ingestion pipeline:
// received -> stored_blob -> extracted -> embedded -> indexed.
package ingest

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvdex/internal/domain"
	"github.com/kailas-cloud/cvdex/internal/metrics"
)

// Limits bounds archive expansion. Uploaded archives are untrusted.
type Limits struct {
	MaxArchiveEntries int
	MaxEntryBytes     int64
	MaxTotalBytes     int64
}

// Service runs the ingestion pipeline. Every transition is a single
// external call; no transition is retried. A failure is terminal for
// that document and earlier stages are not rolled back, so a stored
// blob may have no index entry until the same content is re-uploaded.
type Service struct {
	blobs   BlobStore
	extract Extractor
	embed   domain.Embedder
	index   Index
	limits  Limits
	logger  *zap.Logger
}

// New creates the ingestion service.
func New(blobs BlobStore, extract Extractor, embed domain.Embedder, index Index,
	limits Limits, logger *zap.Logger) *Service {
	return &Service{
		blobs:   blobs,
		extract: extract,
		embed:   embed,
		index:   index,
		limits:  limits,
		logger:  logger,
	}
}

// IngestFile runs the full pipeline for one uploaded PDF.
// Documents with no extractable text are rejected, never indexed with
// an empty vector.
func (s *Service) IngestFile(ctx context.Context, filename string, data []byte) (domain.Resume, error) {
	res, err := s.ingest(ctx, filename, data)
	if err != nil {
		metrics.IngestDocumentsTotal.WithLabelValues("file", "error").Inc()
		return domain.Resume{}, err
	}
	metrics.IngestDocumentsTotal.WithLabelValues("file", "indexed").Inc()
	return res, nil
}

func (s *Service) ingest(ctx context.Context, filename string, data []byte) (domain.Resume, error) {
	if filename == "" {
		return domain.Resume{}, fmt.Errorf("%w: empty filename", domain.ErrMissingInput)
	}
	if len(data) == 0 {
		return domain.Resume{}, fmt.Errorf("%w: empty file", domain.ErrMissingInput)
	}

	if err := s.stage("store_blob", func() error {
		return s.blobs.Put(ctx, filename, data)
	}); err != nil {
		return domain.Resume{}, fmt.Errorf("store blob: %w", err)
	}

	var text string
	if err := s.stage("extract", func() error {
		var err error
		text, err = s.extract.Extract(data)
		return err
	}); err != nil {
		return domain.Resume{}, fmt.Errorf("extract %s: %w", filename, err)
	}
	if text == "" {
		return domain.Resume{}, fmt.Errorf("%w: %s", domain.ErrEmptyDocument, filename)
	}

	var vector []float32
	if err := s.stage("embed", func() error {
		result, err := s.embed.Embed(ctx, text)
		vector = result.Embedding
		return err
	}); err != nil {
		return domain.Resume{}, fmt.Errorf("embed %s: %w", filename, err)
	}

	res := domain.Resume{
		ID:       domain.ResumeID(data),
		Filename: filename,
		Text:     text,
		Vector:   vector,
	}

	if err := s.stage("index", func() error {
		return s.index.Upsert(ctx, res)
	}); err != nil {
		return domain.Resume{}, fmt.Errorf("index %s: %w", filename, err)
	}

	s.logger.Info("resume indexed",
		zap.String("id", res.ID),
		zap.String("filename", filename),
		zap.Int("text_chars", len(text)),
	)
	return res, nil
}

// GetText fetches a stored PDF by filename and extracts its text.
func (s *Service) GetText(ctx context.Context, filename string) (string, error) {
	if filename == "" {
		return "", fmt.Errorf("%w: empty filename", domain.ErrMissingInput)
	}
	data, err := s.blobs.Get(ctx, filename)
	if err != nil {
		return "", fmt.Errorf("get blob: %w", err)
	}
	text, err := s.extract.Extract(data)
	if err != nil {
		return "", fmt.Errorf("extract %s: %w", filename, err)
	}
	return text, nil
}

// ListFiles returns the filenames of all stored PDFs.
func (s *Service) ListFiles(ctx context.Context) ([]string, error) {
	keys, err := s.blobs.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list blobs: %w", err)
	}
	return keys, nil
}

func (s *Service) stage(name string, fn func() error) error {
	start := time.Now()
	err := fn()
	metrics.IngestStageDuration.WithLabelValues(name).Observe(time.Since(start).Seconds())
	return err
}
