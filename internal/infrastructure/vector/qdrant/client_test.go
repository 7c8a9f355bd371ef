package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/bovicare/bovicare/internal/core/domain"
)

func TestIndexChunksUpsertsNamedVectors(t *testing.T) {
	var ensured, upserted map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodPut && r.URL.Path == "/collections/diseases":
			if err := json.NewDecoder(r.Body).Decode(&ensured); err != nil {
				t.Fatalf("decode ensure body: %v", err)
			}
		case r.Method == http.MethodPut && r.URL.Path == "/collections/diseases/points":
			if err := json.NewDecoder(r.Body).Decode(&upserted); err != nil {
				t.Fatalf("decode upsert body: %v", err)
			}
		default:
			t.Fatalf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer server.Close()

	client := New(server.URL, "diseases")
	doc := &domain.Document{ID: "doc-1", Filename: "ibr.pdf", DiseaseName: "IBR", DiseaseType: "viral"}
	chunks := []domain.Chunk{{Text: "chunk", SectionType: "page", PageNumber: "4", Index: 2}}
	err := client.IndexChunks(context.Background(), doc, chunks, [][]float32{{0.1, 0.2}})
	if err != nil {
		t.Fatalf("IndexChunks() error = %v", err)
	}

	vectors, _ := ensured["vectors"].(map[string]any)
	if _, ok := vectors[denseVectorName]; !ok {
		t.Fatalf("collection missing named dense vector: %v", ensured)
	}
	if _, ok := ensured["sparse_vectors"]; !ok {
		t.Fatalf("collection missing sparse vector config: %v", ensured)
	}

	points, _ := upserted["points"].([]any)
	if len(points) != 1 {
		t.Fatalf("expected 1 point, got %d", len(points))
	}
	point, _ := points[0].(map[string]any)
	vector, _ := point["vector"].(map[string]any)
	if _, ok := vector[denseVectorName]; !ok {
		t.Fatalf("point missing dense vector: %v", point)
	}
	if _, ok := vector[sparseVectorName]; !ok {
		t.Fatalf("point missing sparse vector: %v", point)
	}
	payload, _ := point["payload"].(map[string]any)
	if payload["disease_name"] != "IBR" || payload["doc_id"] != "doc-1" {
		t.Fatalf("unexpected payload: %v", payload)
	}
	if payload["section_type"] != "page" || payload["page_number"] != "4" {
		t.Fatalf("chunk provenance missing from payload: %v", payload)
	}
	if payload["chunk_index"] != float64(2) {
		t.Fatalf("expected chunk index 2, got %v", payload["chunk_index"])
	}
}

func TestSearchDenseParsesCandidates(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/diseases/points/search" {
			t.Fatalf("unexpected path: %s", r.URL.Path)
		}
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode search body: %v", err)
		}
		vector, _ := body["vector"].(map[string]any)
		if vector["name"] != denseVectorName {
			t.Fatalf("expected dense named vector, got %v", vector["name"])
		}
		_, _ = w.Write([]byte(`{"result":[{"id":"p1","score":0.87,"payload":{"text":"IBR overview","disease_name":"IBR","disease_type":"viral","section_type":"page","page_number":"4","chunk_index":2,"doc_id":"doc-1"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "diseases")
	candidates, err := client.SearchDense(context.Background(), []float32{0.1}, 5)
	if err != nil {
		t.Fatalf("SearchDense() error = %v", err)
	}
	if len(candidates) != 1 {
		t.Fatalf("expected 1 candidate, got %d", len(candidates))
	}
	cand := candidates[0]
	if cand.ID != "p1" || cand.DiseaseName != "IBR" || cand.ChunkIndex != 2 {
		t.Fatalf("unexpected candidate: %+v", cand)
	}
	if cand.SectionType != "page" || cand.PageNumber != "4" {
		t.Fatalf("chunk provenance not mapped back: %+v", cand)
	}
	if cand.FusionScore != 0.87 {
		t.Fatalf("expected raw score 0.87, got %f", cand.FusionScore)
	}
	if cand.Extra["doc_id"] != "doc-1" {
		t.Fatalf("doc_id not carried in extra payload: %v", cand.Extra)
	}
}

func TestSearchSparseEncodesQuery(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode search body: %v", err)
		}
		vector, _ := body["vector"].(map[string]any)
		if vector["name"] != sparseVectorName {
			t.Fatalf("expected sparse named vector, got %v", vector["name"])
		}
		inner, _ := vector["vector"].(map[string]any)
		indices, _ := inner["indices"].([]any)
		if len(indices) == 0 {
			t.Fatalf("expected encoded query terms")
		}
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "diseases")
	if _, err := client.SearchSparse(context.Background(), "mastitis treatment", 5); err != nil {
		t.Fatalf("SearchSparse() error = %v", err)
	}
}

func TestSearchSparseSkipsUnencodableQuery(t *testing.T) {
	client := New("http://unused", "diseases")
	candidates, err := client.SearchSparse(context.Background(), "!!!", 5)
	if err != nil {
		t.Fatalf("SearchSparse() error = %v", err)
	}
	if candidates != nil {
		t.Fatalf("expected nil result without network traffic, got %v", candidates)
	}
}

func TestEnsureCollectionToleratesConflict(t *testing.T) {
	calls := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut && r.URL.Path == "/collections/diseases" {
			calls++
			http.Error(w, "already exists", http.StatusConflict)
			return
		}
		_, _ = w.Write([]byte(`{"result":{}}`))
	}))
	defer server.Close()

	client := New(server.URL, "diseases")
	doc := &domain.Document{ID: "doc-1"}
	for i := 0; i < 2; i++ {
		if err := client.IndexChunks(context.Background(), doc, []domain.Chunk{{Text: "chunk"}}, [][]float32{{0.1}}); err != nil {
			t.Fatalf("IndexChunks() round %d error = %v", i, err)
		}
	}
	if calls != 1 {
		t.Fatalf("expected ensure to run once, got %d calls", calls)
	}
}
