package config

import "testing"

func TestLoadIncludesRetrievalDefaults(t *testing.T) {
	t.Setenv("RAG_TOP_K", "")
	t.Setenv("RAG_OVERFETCH_FACTOR", "")
	t.Setenv("RAG_DENSE_WEIGHT", "")
	t.Setenv("RAG_SPARSE_WEIGHT", "")
	t.Setenv("RAG_RERANK_ENABLED", "")

	cfg := Load()
	if cfg.RAGTopK != 5 {
		t.Fatalf("expected default top k 5, got %d", cfg.RAGTopK)
	}
	if cfg.RAGOverfetchFactor != 3 {
		t.Fatalf("expected default overfetch factor 3, got %d", cfg.RAGOverfetchFactor)
	}
	if cfg.RAGDenseWeight != 0.3 {
		t.Fatalf("expected default dense weight 0.3, got %v", cfg.RAGDenseWeight)
	}
	if cfg.RAGSparseWeight != 0.7 {
		t.Fatalf("expected default sparse weight 0.7, got %v", cfg.RAGSparseWeight)
	}
	if !cfg.RAGRerankEnabled {
		t.Fatalf("expected reranking enabled by default")
	}
}

func TestLoadParsesRetrievalOverrides(t *testing.T) {
	t.Setenv("RAG_TOP_K", "8")
	t.Setenv("RAG_DENSE_WEIGHT", "0.5")
	t.Setenv("RAG_SPARSE_WEIGHT", "0.5")
	t.Setenv("RAG_RERANK_ENABLED", "false")
	t.Setenv("GRADER_MAX_ATTEMPTS", "3")

	cfg := Load()
	if cfg.RAGTopK != 8 {
		t.Fatalf("expected top k 8, got %d", cfg.RAGTopK)
	}
	if cfg.RAGDenseWeight != 0.5 || cfg.RAGSparseWeight != 0.5 {
		t.Fatalf("expected weight overrides, got %v/%v", cfg.RAGDenseWeight, cfg.RAGSparseWeight)
	}
	if cfg.RAGRerankEnabled {
		t.Fatalf("expected reranking disabled")
	}
	if cfg.GraderMaxAttempts != 3 {
		t.Fatalf("expected grader attempt cap 3, got %d", cfg.GraderMaxAttempts)
	}
}

func TestLoadFallsBackOnMalformedValues(t *testing.T) {
	t.Setenv("RAG_DENSE_WEIGHT", "not-a-number")
	t.Setenv("RAG_RERANK_ENABLED", "maybe")
	t.Setenv("API_RATE_LIMIT_RPS", "fast")

	cfg := Load()
	if cfg.RAGDenseWeight != 0.3 {
		t.Fatalf("expected fallback dense weight 0.3, got %v", cfg.RAGDenseWeight)
	}
	if !cfg.RAGRerankEnabled {
		t.Fatalf("expected fallback rerank enabled")
	}
	if cfg.APIRateLimitRPS != 20 {
		t.Fatalf("expected fallback rate limit 20, got %d", cfg.APIRateLimitRPS)
	}
}
