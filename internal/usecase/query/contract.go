package query

import (
	"context"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

// Searcher runs nearest-neighbor search over the resume collection.
type Searcher interface {
	Search(ctx context.Context, vector []float32, topK int) ([]domain.Hit, error)
}

// Completer turns a prompt into a text completion.
type Completer interface {
	Complete(ctx context.Context, prompt string) (string, error)
}
