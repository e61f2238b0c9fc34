package chi

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/kailas-cloud/cvdex/internal/usecase/ingest"
	"github.com/kailas-cloud/cvdex/internal/version"
)

// handleRoot handles GET /.
func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"service": "cvdex",
		"version": version.Version,
	})
}

// handleHello handles GET /api/hello.
func (s *Server) handleHello(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Hello from cvdex"})
}

// handleHealthz handles GET /healthz.
func (s *Server) handleHealthz(w http.ResponseWriter, r *http.Request) {
	statuses, healthy := s.health.Check(r.Context())
	status := http.StatusOK
	if !healthy {
		status = http.StatusServiceUnavailable
	}
	writeJSON(w, status, map[string]any{"checks": statuses})
}

// handleListFiles handles GET /files.
func (s *Server) handleListFiles(w http.ResponseWriter, r *http.Request) {
	files, err := s.ingest.ListFiles(r.Context())
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}
	if files == nil {
		files = []string{}
	}
	writeJSON(w, http.StatusOK, map[string]any{"files": files})
}

// readUpload pulls the multipart "file" field, bounded by the upload limit.
func (s *Server) readUpload(w http.ResponseWriter, r *http.Request) (string, []byte, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, s.maxUploadBytes)

	file, header, err := r.FormFile("file")
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_input", "multipart field \"file\" is required")
		return "", nil, false
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		writeError(w, http.StatusBadRequest, "missing_input", "upload could not be read")
		return "", nil, false
	}
	return header.Filename, data, true
}

// handleUpload handles POST /upload: the full ingestion pipeline for one PDF.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	filename, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	res, err := s.ingest.IngestFile(r.Context(), filename, data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message":  "Resume stored successfully",
		"id":       res.ID,
		"filename": res.Filename,
	})
}

// handleUploadFolder handles POST /upload-folder: ZIP batch ingestion.
func (s *Server) handleUploadFolder(w http.ResponseWriter, r *http.Request) {
	_, data, ok := s.readUpload(w, r)
	if !ok {
		return
	}

	result, err := s.ingest.IngestArchive(r.Context(), data)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	skipped := result.Skipped
	if skipped == nil {
		skipped = []ingest.EntryError{}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"message": fmt.Sprintf("%d fichiers ont été traités et indexés", result.Indexed),
		"indexed": result.Indexed,
		"skipped": skipped,
	})
}

// handleGetPDFText handles POST /get_pdf_text.
func (s *Server) handleGetPDFText(w http.ResponseWriter, r *http.Request) {
	var req struct {
		FileName string `json:"file_name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.FileName == "" {
		writeError(w, http.StatusBadRequest, "missing_input", "JSON field \"file_name\" is required")
		return
	}

	text, err := s.ingest.GetText(r.Context(), req.FileName)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"text": text})
}

// handleVectorize handles POST /vectorize.
func (s *Server) handleVectorize(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Text == "" {
		writeError(w, http.StatusBadRequest, "missing_input", "JSON field \"text\" is required")
		return
	}

	vector, err := s.query.Vectorize(r.Context(), req.Text)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"vector": vector})
}

type searchResultItem struct {
	Filename string  `json:"filename"`
	Text     string  `json:"text"`
	Score    float64 `json:"score"`
}

// handleSearch handles POST /search.
func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_input", "JSON field \"query\" is required")
		return
	}

	hits, err := s.query.Search(r.Context(), req.Query, req.TopK)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	results := make([]searchResultItem, len(hits))
	for i, h := range hits {
		results[i] = searchResultItem{Filename: h.Filename, Text: h.Text, Score: h.Score}
	}
	writeJSON(w, http.StatusOK, map[string]any{"results": results})
}

// handleChat handles POST /chat.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Query string `json:"query"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Query == "" {
		writeError(w, http.StatusBadRequest, "missing_input", "JSON field \"query\" is required")
		return
	}

	answer, err := s.query.Chat(r.Context(), req.Query)
	if err != nil {
		s.handleDomainError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"response": answer})
}
