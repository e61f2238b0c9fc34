package chi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvdex/internal/domain"
	"github.com/kailas-cloud/cvdex/internal/logger"
)

// errorBody is the stable wire shape for failures. Raw dependency
// error text never crosses this boundary; it goes to the log only.
type errorBody struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type errorResponse struct {
	Error errorBody `json:"error"`
}

// sentinelMapping maps a domain sentinel to its HTTP status and opaque code.
type sentinelMapping struct {
	sentinel error
	status   int
	code     string
	message  string
}

var sentinelMappings = []sentinelMapping{
	{domain.ErrMissingInput, http.StatusBadRequest, "missing_input", "required input is missing"},
	{domain.ErrEmptyDocument, http.StatusBadRequest, "empty_document", "no text could be extracted from the document"},
	{domain.ErrExtractionFailed, http.StatusBadRequest, "extraction_failed", "the document could not be parsed"},
	{domain.ErrInvalidArchive, http.StatusBadRequest, "invalid_archive", "the archive could not be read"},
	{domain.ErrArchiveTooLarge, http.StatusBadRequest, "archive_too_large", "the archive exceeds the configured limits"},
	{domain.ErrNotFound, http.StatusNotFound, "not_found", "no such document"},
	{domain.ErrEmbeddingProvider, http.StatusBadGateway, "embedding_provider_error", "the embedding provider failed"},
	{domain.ErrCompletionProvider, http.StatusBadGateway, "completion_provider_error", "the completion provider failed"},
	{domain.ErrIndexUnavailable, http.StatusBadGateway, "index_unavailable", "the vector index failed"},
	{domain.ErrStorageUnavailable, http.StatusBadGateway, "storage_unavailable", "the object store failed"},
	{domain.ErrVectorDimMismatch, http.StatusInternalServerError, "internal_error", "internal error"},
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, message string) {
	writeJSON(w, status, errorResponse{Error: errorBody{Code: code, Message: message}})
}

// handleDomainError maps a use case error to the wire contract and
// logs the full cause with the request-scoped logger.
func (s *Server) handleDomainError(w http.ResponseWriter, r *http.Request, err error) {
	log := logger.FromContext(r.Context())

	for _, m := range sentinelMappings {
		if errors.Is(err, m.sentinel) {
			if m.status >= 500 {
				log.Error("request failed", zap.Error(err))
			} else {
				log.Warn("request rejected", zap.Error(err))
			}
			writeError(w, m.status, m.code, m.message)
			return
		}
	}

	log.Error("request failed", zap.Error(err))
	writeError(w, http.StatusInternalServerError, "internal_error", "internal error")
}
