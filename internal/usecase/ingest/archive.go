package ingest

import (
	"archive/zip"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvdex/internal/domain"
	"github.com/kailas-cloud/cvdex/internal/metrics"
)

// EntryError reports why one archive entry was not indexed.
type EntryError struct {
	Name   string `json:"name"`
	Reason string `json:"reason"`
}

// BatchResult summarizes a ZIP batch ingestion.
type BatchResult struct {
	Indexed int
	Skipped []EntryError
}

// IngestArchive expands a ZIP upload and ingests every PDF entry
// independently. Policy: a failing entry is recorded and skipped, the
// rest of the batch continues. Non-PDF entries and directories are
// ignored without being reported. Limits on entry count and declared
// sizes are enforced before any entry is processed.
func (s *Service) IngestArchive(ctx context.Context, data []byte) (BatchResult, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return BatchResult{}, fmt.Errorf("%w: %w", domain.ErrInvalidArchive, err)
	}

	if len(zr.File) > s.limits.MaxArchiveEntries {
		return BatchResult{}, fmt.Errorf("%w: %d entries, limit %d",
			domain.ErrArchiveTooLarge, len(zr.File), s.limits.MaxArchiveEntries)
	}
	var declared int64
	for _, f := range zr.File {
		declared += int64(f.UncompressedSize64)
	}
	if declared > s.limits.MaxTotalBytes {
		return BatchResult{}, fmt.Errorf("%w: %d bytes declared, limit %d",
			domain.ErrArchiveTooLarge, declared, s.limits.MaxTotalBytes)
	}

	var result BatchResult
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		// Archive paths are untrusted; only the base name becomes the
		// stored filename.
		name := path.Base(f.Name)
		if !strings.EqualFold(path.Ext(name), ".pdf") {
			continue
		}

		if err := ctx.Err(); err != nil {
			return result, fmt.Errorf("archive ingestion aborted: %w", err)
		}

		content, err := s.readEntry(f)
		if err != nil {
			result.Skipped = append(result.Skipped, EntryError{Name: name, Reason: reason(err)})
			metrics.IngestDocumentsTotal.WithLabelValues("archive", "skipped").Inc()
			s.logger.Warn("archive entry skipped", zap.String("entry", name), zap.Error(err))
			continue
		}

		if _, err := s.ingest(ctx, name, content); err != nil {
			result.Skipped = append(result.Skipped, EntryError{Name: name, Reason: reason(err)})
			metrics.IngestDocumentsTotal.WithLabelValues("archive", "skipped").Inc()
			s.logger.Warn("archive entry failed", zap.String("entry", name), zap.Error(err))
			continue
		}

		result.Indexed++
		metrics.IngestDocumentsTotal.WithLabelValues("archive", "indexed").Inc()
	}

	return result, nil
}

// readEntry decompresses one entry, bounded by MaxEntryBytes. Declared
// sizes in the header are not trusted; the limit applies to the actual
// decompressed stream.
func (s *Service) readEntry(f *zip.File) ([]byte, error) {
	if int64(f.UncompressedSize64) > s.limits.MaxEntryBytes {
		return nil, fmt.Errorf("%w: entry declares %d bytes, limit %d",
			domain.ErrArchiveTooLarge, f.UncompressedSize64, s.limits.MaxEntryBytes)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("%w: open entry: %w", domain.ErrInvalidArchive, err)
	}
	defer rc.Close()

	content, err := io.ReadAll(io.LimitReader(rc, s.limits.MaxEntryBytes+1))
	if err != nil {
		return nil, fmt.Errorf("%w: read entry: %w", domain.ErrInvalidArchive, err)
	}
	if int64(len(content)) > s.limits.MaxEntryBytes {
		return nil, fmt.Errorf("%w: entry exceeds %d bytes", domain.ErrArchiveTooLarge, s.limits.MaxEntryBytes)
	}
	return content, nil
}

// reason maps a pipeline error to a stable per-entry code.
func reason(err error) string {
	switch {
	case errors.Is(err, domain.ErrEmptyDocument):
		return "empty_document"
	case errors.Is(err, domain.ErrExtractionFailed):
		return "extraction_failed"
	case errors.Is(err, domain.ErrArchiveTooLarge):
		return "entry_too_large"
	case errors.Is(err, domain.ErrInvalidArchive):
		return "unreadable_entry"
	case errors.Is(err, domain.ErrEmbeddingProvider):
		return "embedding_failed"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "index_failed"
	case errors.Is(err, domain.ErrStorageUnavailable):
		return "storage_failed"
	default:
		return "internal_error"
	}
}
