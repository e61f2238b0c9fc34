package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{
		HTTP:      HTTPConfig{Port: 8080},
		Blob:      BlobConfig{Endpoint: "localhost:9000"},
		Index:     IndexConfig{URL: "http://localhost:6333"},
		Embedding: EmbeddingConfig{Model: "all-MiniLM-L6-v2"},
		Chat:      ChatConfig{Model: "mistral"},
	}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.HTTP.ReadTimeoutSec != 30 {
		t.Errorf("expected ReadTimeoutSec=30, got %d", cfg.HTTP.ReadTimeoutSec)
	}
	if cfg.Blob.Bucket != "resumes" {
		t.Errorf("expected bucket=resumes, got %q", cfg.Blob.Bucket)
	}
	if cfg.Blob.Prefix != "pdfs/" {
		t.Errorf("expected prefix=pdfs/, got %q", cfg.Blob.Prefix)
	}
	if cfg.Index.Collection != "resumes" {
		t.Errorf("expected collection=resumes, got %q", cfg.Index.Collection)
	}
	if cfg.Embedding.Dimensions != 384 {
		t.Errorf("expected dimensions=384, got %d", cfg.Embedding.Dimensions)
	}
	if cfg.Chat.TopK != 3 {
		t.Errorf("expected chat top_k=3, got %d", cfg.Chat.TopK)
	}
	if cfg.Search.TopK != 5 || cfg.Search.MaxTopK != 50 {
		t.Errorf("expected search top_k=5 max=50, got %d/%d", cfg.Search.TopK, cfg.Search.MaxTopK)
	}
	if cfg.Ingest.MaxArchiveEntries != 200 {
		t.Errorf("expected max_archive_entries=200, got %d", cfg.Ingest.MaxArchiveEntries)
	}
	if cfg.Ingest.MaxUploadBytes != 50<<20 {
		t.Errorf("expected max_upload_bytes=50MiB, got %d", cfg.Ingest.MaxUploadBytes)
	}
}

func TestValidate_Valid(t *testing.T) {
	cfg := validConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidate_InvalidPort(t *testing.T) {
	cfg := validConfig()
	cfg.HTTP.Port = 0

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for invalid port")
	}
}

func TestValidate_MissingBlobEndpoint(t *testing.T) {
	cfg := validConfig()
	cfg.Blob.Endpoint = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing blob endpoint")
	}
}

func TestValidate_MissingIndexURL(t *testing.T) {
	cfg := validConfig()
	cfg.Index.URL = ""

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing index url")
	}
}

func TestValidate_MissingModels(t *testing.T) {
	cfg := validConfig()
	cfg.Embedding.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing embedding model")
	}

	cfg = validConfig()
	cfg.Chat.Model = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for missing chat model")
	}
}

func TestValidate_ChatTopKExceedsMax(t *testing.T) {
	cfg := validConfig()
	cfg.Chat.TopK = 100
	cfg.Search.MaxTopK = 50

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for chat.top_k above search.max_top_k")
	}
}

func TestExpandEnvVars(t *testing.T) {
	t.Setenv("CVDEX_TEST_SECRET", "s3cret")

	in := []byte("api_key: ${CVDEX_TEST_SECRET}\nurl: ${CVDEX_TEST_UNSET:-http://localhost:6333}\n")
	out := string(expandEnvVars(in))

	want := "api_key: s3cret\nurl: http://localhost:6333\n"
	if out != want {
		t.Errorf("expanded config:\ngot:  %q\nwant: %q", out, want)
	}
}

func TestExpandEnvVars_SetVarBeatsDefault(t *testing.T) {
	t.Setenv("CVDEX_TEST_URL", "http://qdrant:6333")

	out := string(expandEnvVars([]byte("url: ${CVDEX_TEST_URL:-http://localhost:6333}")))
	if out != "url: http://qdrant:6333" {
		t.Errorf("expanded = %q", out)
	}
}

func TestGetEnv(t *testing.T) {
	t.Setenv("ENV", "")
	if env := GetEnv(); env != "local" {
		t.Errorf("default env = %q, want local", env)
	}

	os.Setenv("ENV", "prod")
	defer os.Unsetenv("ENV")
	if env := GetEnv(); env != "prod" {
		t.Errorf("env = %q, want prod", env)
	}
}
