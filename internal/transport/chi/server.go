// Package chi exposes the cvdex HTTP API.
package chi

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	healthuc "github.com/kailas-cloud/cvdex/internal/usecase/health"
	ingestuc "github.com/kailas-cloud/cvdex/internal/usecase/ingest"
	queryuc "github.com/kailas-cloud/cvdex/internal/usecase/query"
)

// Server holds the request handlers and their dependencies.
type Server struct {
	ingest         *ingestuc.Service
	query          *queryuc.Service
	health         *healthuc.Service
	maxUploadBytes int64
	logger         *zap.Logger
}

// NewServer creates the HTTP API server.
func NewServer(
	ingest *ingestuc.Service,
	query *queryuc.Service,
	health *healthuc.Service,
	maxUploadBytes int64,
	logger *zap.Logger,
) *Server {
	return &Server{
		ingest:         ingest,
		query:          query,
		health:         health,
		maxUploadBytes: maxUploadBytes,
		logger:         logger,
	}
}

// Routes registers all endpoints on the given router. Middleware is
// attached by the composition root.
func (s *Server) Routes(r chi.Router) {
	r.Get("/", s.handleRoot)
	r.Get("/api/hello", s.handleHello)
	r.Get("/healthz", s.handleHealthz)
	r.Get("/files", s.handleListFiles)
	r.Method(http.MethodGet, "/metrics", promhttp.Handler())

	r.Post("/upload", s.handleUpload)
	r.Post("/upload-folder", s.handleUploadFolder)
	r.Post("/get_pdf_text", s.handleGetPDFText)
	r.Post("/vectorize", s.handleVectorize)
	r.Post("/search", s.handleSearch)
	r.Post("/chat", s.handleChat)
}
