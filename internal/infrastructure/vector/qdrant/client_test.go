package qdrant

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

func TestReplaceEvidenceRecreatesCollectionAndUpserts(t *testing.T) {
	var dropCalls, createCalls, upsertCalls int32
	var capturedUpsert map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodDelete && r.URL.Path == "/collections/knowledge":
			atomic.AddInt32(&dropCalls, 1)
			http.Error(w, "collection not found", http.StatusNotFound)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/knowledge":
			atomic.AddInt32(&createCalls, 1)
			w.WriteHeader(http.StatusCreated)
		case r.Method == http.MethodPut && r.URL.Path == "/collections/knowledge/points":
			atomic.AddInt32(&upsertCalls, 1)
			_ = json.NewDecoder(r.Body).Decode(&capturedUpsert)
			_, _ = w.Write([]byte(`{"status":"ok"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	client := New(server.URL, "knowledge", nil)
	items := []domain.EvidenceItem{
		{Content: "Library opens at 8am.", Metadata: map[string]string{domain.MetaSection: "facilities"}},
		{Content: "Hostel curfew is 11pm.", Metadata: map[string]string{domain.MetaSection: "hostel"}},
	}
	vectors := [][]float32{{0.1, 0.2}, {0.3, 0.4}}

	if err := client.ReplaceEvidence(context.Background(), items, vectors); err != nil {
		t.Fatalf("ReplaceEvidence() error = %v", err)
	}
	if dropCalls != 1 || createCalls != 1 || upsertCalls != 1 {
		t.Fatalf("expected drop=1 create=1 upsert=1, got %d/%d/%d", dropCalls, createCalls, upsertCalls)
	}

	points, _ := capturedUpsert["points"].([]any)
	if len(points) != 2 {
		t.Fatalf("expected 2 points, got %d", len(points))
	}
	first, _ := points[0].(map[string]any)
	vector, _ := first["vector"].(map[string]any)
	if _, ok := vector[denseVectorName]; !ok {
		t.Fatalf("point missing dense vector: %v", vector)
	}
	if _, ok := vector[sparseVectorName]; !ok {
		t.Fatalf("point missing sparse vector: %v", vector)
	}
	payload, _ := first["payload"].(map[string]any)
	if payload["text"] != "Library opens at 8am." || payload[domain.MetaSection] != "facilities" {
		t.Fatalf("unexpected payload: %v", payload)
	}
}

func TestReplaceEvidenceRejectsMisalignedVectors(t *testing.T) {
	client := New("http://unused", "knowledge", nil)
	err := client.ReplaceEvidence(context.Background(), []domain.EvidenceItem{{Content: "a"}}, nil)
	if err == nil || !strings.Contains(err.Error(), "mismatch") {
		t.Fatalf("expected mismatch error, got %v", err)
	}
}

func TestSearchSendsSectionFilter(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/collections/knowledge/points/search" {
			http.NotFound(w, r)
			return
		}
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		_, _ = w.Write([]byte(`{"result":[{"score":0.88,"payload":{"text":"Admissions close in June.","section":"admissions"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "knowledge", nil)
	filter := &domain.SectionFilter{Sections: []string{"admissions", "academics"}}
	items, err := client.Search(context.Background(), []float32{0.1, 0.2}, 5, filter)
	if err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if len(items) != 1 {
		t.Fatalf("expected 1 item, got %d", len(items))
	}
	if items[0].Content != "Admissions close in June." || items[0].Score != 0.88 {
		t.Fatalf("unexpected item: %+v", items[0])
	}
	if items[0].Metadata[domain.MetaSection] != "admissions" {
		t.Fatalf("expected section metadata, got %v", items[0].Metadata)
	}

	filterBody, _ := capturedBody["filter"].(map[string]any)
	must, _ := filterBody["must"].([]any)
	if len(must) != 1 {
		t.Fatalf("expected one must clause, got %v", filterBody)
	}
	clause, _ := must[0].(map[string]any)
	if clause["key"] != "section" {
		t.Fatalf("expected section filter key, got %v", clause)
	}
}

func TestSearchOmitsFilterWhenNil(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		_, _ = w.Write([]byte(`{"result":[]}`))
	}))
	defer server.Close()

	client := New(server.URL, "knowledge", nil)
	if _, err := client.Search(context.Background(), []float32{0.1}, 3, nil); err != nil {
		t.Fatalf("Search() error = %v", err)
	}
	if _, ok := capturedBody["filter"]; ok {
		t.Fatalf("expected no filter in request, got %v", capturedBody["filter"])
	}
}

func TestSearchLexicalUsesNamedSparseVector(t *testing.T) {
	var capturedBody map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&capturedBody)
		_, _ = w.Write([]byte(`{"result":[{"score":1.7,"payload":{"text":"CS 201 data structures","course_code":"CS 201"}}]}`))
	}))
	defer server.Close()

	client := New(server.URL, "courses", nil)
	items, err := client.SearchLexical(context.Background(), "data structures", 4)
	if err != nil {
		t.Fatalf("SearchLexical() error = %v", err)
	}
	if len(items) != 1 || items[0].Metadata[domain.MetaCourseCode] != "CS 201" {
		t.Fatalf("unexpected items: %+v", items)
	}

	vector, _ := capturedBody["vector"].(map[string]any)
	if vector["name"] != sparseVectorName {
		t.Fatalf("expected named sparse vector, got %v", vector)
	}
}

func TestSearchLexicalSkipsCallForNoiseQuery(t *testing.T) {
	called := false
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		called = true
	}))
	defer server.Close()

	client := New(server.URL, "courses", nil)
	items, err := client.SearchLexical(context.Background(), "---!!!", 4)
	if err != nil || items != nil {
		t.Fatalf("expected nil, nil for noise query, got %v, %v", items, err)
	}
	if called {
		t.Fatal("no HTTP call expected for noise query")
	}
}

func TestSearchWrapsServerFailureAsTemporary(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := New(server.URL, "knowledge", nil)
	_, err := client.Search(context.Background(), []float32{0.1}, 3, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !domain.IsKind(err, domain.ErrTemporary) {
		t.Fatalf("expected temporary error, got %v", err)
	}
	if !strings.Contains(err.Error(), "overloaded") {
		t.Fatalf("expected response body in error, got %v", err)
	}
}
