// Package extract pulls plain text out of uploaded PDF files.
package extract

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

// Extractor extracts plain text from PDF documents.
type Extractor struct{}

// New returns a new Extractor.
func New() *Extractor {
	return &Extractor{}
}

// Extract returns the trimmed concatenation of all page texts, pages
// joined by a newline. Pages that yield no text (image-only scans) or
// fail per-page decoding contribute an empty string instead of failing
// the document. Returns domain.ErrExtractionFailed only when the input
// is not a parseable PDF container.
func (e *Extractor) Extract(content []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs instead of
	// returning an error. Uploads are untrusted, so convert those
	// panics into ErrExtractionFailed.
	defer func() {
		if r := recover(); r != nil {
			text = ""
			err = fmt.Errorf("%w: %v", domain.ErrExtractionFailed, r)
		}
	}()

	r, err := pdf.NewReader(bytes.NewReader(content), int64(len(content)))
	if err != nil {
		return "", fmt.Errorf("%w: open pdf: %w", domain.ErrExtractionFailed, err)
	}

	var buf bytes.Buffer
	numPages := r.NumPage()
	for i := 1; i <= numPages; i++ {
		page := r.Page(i)
		if page.V.IsNull() {
			continue
		}
		pageText, err := page.GetPlainText(nil)
		if err != nil {
			// Image-only or malformed page: treat as empty rather
			// than aborting the document.
			continue
		}
		buf.WriteString(pageText)
		if i < numPages {
			buf.WriteByte('\n')
		}
	}

	return strings.TrimSpace(buf.String()), nil
}
