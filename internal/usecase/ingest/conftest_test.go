package ingest

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

// --- Mocks ---

type mockBlobStore struct {
	objects map[string][]byte
	putErr  error
	getErr  error
	listErr error
}

func newMockBlobStore() *mockBlobStore {
	return &mockBlobStore{objects: map[string][]byte{}}
}

func (m *mockBlobStore) Put(_ context.Context, key string, data []byte) error {
	if m.putErr != nil {
		return m.putErr
	}
	m.objects[key] = data
	return nil
}

func (m *mockBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[key]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return data, nil
}

func (m *mockBlobStore) List(_ context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	keys := make([]string, 0, len(m.objects))
	for k := range m.objects {
		keys = append(keys, k)
	}
	return keys, nil
}

// mockExtractor returns the content as text, or fails for content
// containing the configured marker.
type mockExtractor struct {
	failMarker  string
	emptyMarker string
}

func (m *mockExtractor) Extract(content []byte) (string, error) {
	s := string(content)
	if m.failMarker != "" && strings.Contains(s, m.failMarker) {
		return "", domain.ErrExtractionFailed
	}
	if m.emptyMarker != "" && strings.Contains(s, m.emptyMarker) {
		return "", nil
	}
	return "text of " + s, nil
}

type mockEmbedder struct {
	vector []float32
	err    error
	calls  int
}

func (m *mockEmbedder) Embed(_ context.Context, _ string) (domain.EmbeddingResult, error) {
	m.calls++
	if m.err != nil {
		return domain.EmbeddingResult{}, m.err
	}
	return domain.EmbeddingResult{Embedding: m.vector, TotalTokens: 5}, nil
}

type mockIndex struct {
	upserted []domain.Resume
	err      error
}

func (m *mockIndex) Upsert(_ context.Context, res domain.Resume) error {
	if m.err != nil {
		return m.err
	}
	m.upserted = append(m.upserted, res)
	return nil
}

func testLimits() Limits {
	return Limits{
		MaxArchiveEntries: 10,
		MaxEntryBytes:     1 << 20,
		MaxTotalBytes:     10 << 20,
	}
}

func newTestService(blobs *mockBlobStore, ext *mockExtractor, emb *mockEmbedder, idx *mockIndex) *Service {
	return New(blobs, ext, emb, idx, testLimits(), zap.NewNop())
}
