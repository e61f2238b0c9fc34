// Package query serves semantic search and retrieval-augmented chat
// over indexed resumes.
package query

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

// Options holds retrieval defaults.
type Options struct {
	DefaultTopK int
	MaxTopK     int
	ChatTopK    int
}

// Service embeds free-text queries and retrieves matching resumes.
type Service struct {
	embed    domain.Embedder
	search   Searcher
	complete Completer
	opts     Options
	logger   *zap.Logger
}

// New creates the query service.
func New(embed domain.Embedder, search Searcher, complete Completer,
	opts Options, logger *zap.Logger) *Service {
	return &Service{
		embed:    embed,
		search:   search,
		complete: complete,
		opts:     opts,
		logger:   logger,
	}
}

// Search embeds the query and returns up to topK resumes ranked by
// descending similarity. topK <= 0 falls back to the configured
// default; values above the maximum are clamped.
func (s *Service) Search(ctx context.Context, queryText string, topK int) ([]domain.Hit, error) {
	if strings.TrimSpace(queryText) == "" {
		return nil, fmt.Errorf("%w: empty query", domain.ErrMissingInput)
	}
	if topK <= 0 {
		topK = s.opts.DefaultTopK
	}
	if topK > s.opts.MaxTopK {
		topK = s.opts.MaxTopK
	}

	result, err := s.embed.Embed(ctx, queryText)
	if err != nil {
		return nil, fmt.Errorf("vectorize query: %w", err)
	}

	hits, err := s.search.Search(ctx, result.Embedding, topK)
	if err != nil {
		return nil, fmt.Errorf("search index: %w", err)
	}
	return hits, nil
}

// Vectorize returns the raw embedding for a text.
func (s *Service) Vectorize(ctx context.Context, text string) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", domain.ErrMissingInput)
	}
	result, err := s.embed.Embed(ctx, text)
	if err != nil {
		return nil, fmt.Errorf("vectorize text: %w", err)
	}
	return result.Embedding, nil
}

// Chat retrieves the closest resumes, folds them into a context block,
// and forwards the retrieval-augmented prompt to the completion
// endpoint. The completion output is returned verbatim; there is no
// streaming, history, or per-document citation.
func (s *Service) Chat(ctx context.Context, queryText string) (string, error) {
	hits, err := s.Search(ctx, queryText, s.opts.ChatTopK)
	if err != nil {
		return "", err
	}

	prompt := buildPrompt(hits, queryText)

	answer, err := s.complete.Complete(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("complete: %w", err)
	}

	s.logger.Info("chat answered",
		zap.Int("context_documents", len(hits)),
		zap.Int("answer_chars", len(answer)),
	)
	return answer, nil
}

// buildPrompt concatenates retrieved texts with blank-line separators
// into a context block ahead of the question.
func buildPrompt(hits []domain.Hit, question string) string {
	texts := make([]string, 0, len(hits))
	for _, h := range hits {
		texts = append(texts, h.Text)
	}
	context := strings.Join(texts, "\n\n")
	return fmt.Sprintf("Context:\n%s\n\nQuestion: %s\nAnswer:", context, question)
}
