package domain

import "errors"

var (
	// ErrMissingInput signals an absent file, field, or JSON key.
	ErrMissingInput = errors.New("missing input")
	// ErrNotFound signals a missing stored object.
	ErrNotFound = errors.New("not found")
	// ErrExtractionFailed signals an unparseable document container.
	ErrExtractionFailed = errors.New("extraction failed")
	// ErrEmptyDocument signals a document with no extractable text.
	ErrEmptyDocument = errors.New("no extractable text")
	// ErrInvalidArchive signals an unreadable ZIP archive.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrArchiveTooLarge signals an archive exceeding configured expansion limits.
	ErrArchiveTooLarge = errors.New("archive too large")
	// ErrVectorDimMismatch signals an embedding that does not match the pipeline dimension.
	ErrVectorDimMismatch = errors.New("vector dimension mismatch")
	// ErrSchemaMismatch signals an existing collection with incompatible parameters.
	ErrSchemaMismatch = errors.New("collection schema mismatch")
	// ErrEmbeddingProvider signals an embedding provider failure.
	ErrEmbeddingProvider = errors.New("embedding provider error")
	// ErrCompletionProvider signals a chat completion provider failure.
	ErrCompletionProvider = errors.New("completion provider error")
	// ErrIndexUnavailable signals a vector index failure.
	ErrIndexUnavailable = errors.New("vector index unavailable")
	// ErrStorageUnavailable signals an object store failure.
	ErrStorageUnavailable = errors.New("object storage unavailable")
)
