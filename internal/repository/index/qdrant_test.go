package index

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/kailas-cloud/cvdex/internal/domain"
)

func newTestClient(url string, dim int) *Client {
	return New(Config{
		URL:        url,
		Collection: "resumes",
		Dimensions: dim,
	})
}

func TestEnsureCollection_createsWhenAbsent(t *testing.T) {
	var created bool
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Path == "/collections/resumes":
			w.WriteHeader(http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/resumes":
			var body map[string]any
			if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
				t.Errorf("decode create body: %v", err)
			}
			vectors, _ := body["vectors"].(map[string]any)
			if size, _ := vectors["size"].(float64); size != 3 {
				t.Errorf("create size = %v, want 3", vectors["size"])
			}
			if vectors["distance"] != "Cosine" {
				t.Errorf("create distance = %v, want Cosine", vectors["distance"])
			}
			created = true
			w.WriteHeader(http.StatusOK)
		default:
			t.Errorf("unexpected request %s %s", r.Method, r.URL.Path)
		}
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	if err := c.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
	if !created {
		t.Error("collection was not created")
	}
}

func TestEnsureCollection_acceptsMatchingSchema(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			t.Error("existing collection must not be recreated")
		}
		_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":3,"distance":"Cosine"}}}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	if err := c.EnsureCollection(context.Background()); err != nil {
		t.Fatalf("EnsureCollection: %v", err)
	}
}

func TestEnsureCollection_rejectsDimensionMismatch(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"result":{"config":{"params":{"vectors":{"size":768,"distance":"Cosine"}}}}}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 384)
	err := c.EnsureCollection(context.Background())
	if !errors.Is(err, domain.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestUpsert_rejectsWrongDimension(t *testing.T) {
	c := newTestClient("http://unreachable.invalid", 3)

	err := c.Upsert(context.Background(), domain.Resume{
		ID:     "id-1",
		Vector: []float32{0.1, 0.2},
	})
	if !errors.Is(err, domain.ErrVectorDimMismatch) {
		t.Fatalf("expected ErrVectorDimMismatch, got %v", err)
	}
}

func TestUpsert_sendsPointWithPayload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/resumes/points" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if r.URL.Query().Get("wait") != "true" {
			t.Error("upsert must wait for consistency")
		}
		var body struct {
			Points []struct {
				ID      string         `json:"id"`
				Vector  []float32      `json:"vector"`
				Payload map[string]any `json:"payload"`
			} `json:"points"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode upsert body: %v", err)
		}
		if len(body.Points) != 1 {
			t.Fatalf("got %d points, want 1", len(body.Points))
		}
		p := body.Points[0]
		if p.ID != "id-1" {
			t.Errorf("id = %q", p.ID)
		}
		if p.Payload["file_name"] != "cv.pdf" || p.Payload["text"] != "some text" {
			t.Errorf("payload = %v", p.Payload)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	err := c.Upsert(context.Background(), domain.Resume{
		ID:       "id-1",
		Filename: "cv.pdf",
		Text:     "some text",
		Vector:   []float32{0.1, 0.2, 0.3},
	})
	if err != nil {
		t.Fatalf("Upsert: %v", err)
	}
}

func TestSearch_mapsRankedHits(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/resumes/points/search" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode search body: %v", err)
		}
		if limit, _ := body["limit"].(float64); limit != 2 {
			t.Errorf("limit = %v, want 2", body["limit"])
		}
		_, _ = w.Write([]byte(`{"result":[
			{"id":"a","score":0.92,"payload":{"file_name":"alice.pdf","text":"alice"}},
			{"id":"b","score":0.81,"payload":{"file_name":"bob.pdf","text":"bob"}}
		]}`))
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	hits, err := c.Search(context.Background(), []float32{1, 0, 0}, 2)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(hits) != 2 {
		t.Fatalf("got %d hits, want 2", len(hits))
	}
	if hits[0].Filename != "alice.pdf" || hits[0].Score != 0.92 {
		t.Errorf("first hit = %+v", hits[0])
	}
	if hits[0].Score < hits[1].Score {
		t.Error("hits not sorted by descending score")
	}
}

func TestSearch_indexDown(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL, 3)
	_, err := c.Search(context.Background(), []float32{1, 0, 0}, 5)
	if !errors.Is(err, domain.ErrIndexUnavailable) {
		t.Fatalf("expected ErrIndexUnavailable, got %v", err)
	}
}
