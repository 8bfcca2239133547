package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

func testCatalog() *CourseCatalog {
	return NewCourseCatalog([]domain.CourseRecord{
		{Code: "CSE 101", Name: "Data Structures and Algorithms", Instructor: "Anita Rao"},
		{Code: "CSE301", Name: "Machine Learning", Instructor: "Vikram Mehta"},
		{Code: "BIO501", Name: "Genomics", Instructor: "Anita Rao"},
		{Code: "BIO512", Name: "Proteomics", Instructor: "Sunil Kumar"},
	})
}

func newResolveFixture() (*fakeEmbedder, *fakeDense, *fakeSparse, *fakeScorer, *CourseResolveUseCase) {
	embedder := &fakeEmbedder{}
	dense := &fakeDense{}
	sparse := &fakeSparse{}
	scorer := &fakeScorer{byContent: map[string]float64{}}
	uc := NewCourseResolveUseCase(testCatalog(), embedder, dense, sparse, scorer, RetrievalConfig{})
	return embedder, dense, sparse, scorer, uc
}

func TestResolveExactCode(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, tier, err := uc.RetrieveCourses(context.Background(), "what are the prerequisites for CSE101?", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tier != TierCode {
		t.Errorf("tier = %q, want %q", tier, TierCode)
	}
	if len(got) != 1 || got[0].CodeNormalized != "CSE101" {
		t.Errorf("unexpected matches: %+v", got)
	}
}

func TestResolveCodeNormalizesSpacingAndCase(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	for _, query := range []string{"cse 101", "CSE101", " Cse101 ", "tell me about cse  101"} {
		got, tier, err := uc.RetrieveCourses(context.Background(), query, 5)
		if err != nil {
			t.Fatalf("resolve %q: %v", query, err)
		}
		if tier != TierCode || len(got) != 1 || got[0].CodeNormalized != "CSE101" {
			t.Errorf("query %q: tier=%q matches=%+v", query, tier, got)
		}
	}
}

func TestResolveWildcardCodeExpandsHundredBlock(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, tier, err := uc.RetrieveCourses(context.Background(), "BIO5XX", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tier != TierCode {
		t.Fatalf("tier = %q, want %q", tier, TierCode)
	}
	if len(got) != 2 || got[0].CodeNormalized != "BIO501" || got[1].CodeNormalized != "BIO512" {
		t.Errorf("wildcard expansion = %+v, want BIO501 and BIO512", got)
	}
}

func TestResolveCodeDedupsRepeatedMentions(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, _, err := uc.RetrieveCourses(context.Background(), "is CSE101 harder than cse 101?", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected one deduped match, got %d", len(got))
	}
}

func TestResolveTruncatesToTopK(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, _, err := uc.RetrieveCourses(context.Background(), "BIO5XX", 1)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 1 {
		t.Errorf("expected topK truncation to 1, got %d", len(got))
	}
}

func TestResolveFuzzyNameSubstring(t *testing.T) {
	_, dense, sparse, _, uc := newResolveFixture()

	got, tier, err := uc.RetrieveCourses(context.Background(), "data structures", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tier != TierFuzzyName {
		t.Errorf("tier = %q, want %q", tier, TierFuzzyName)
	}
	if len(got) != 1 || got[0].CodeNormalized != "CSE101" {
		t.Errorf("unexpected matches: %+v", got)
	}
	if dense.calls != 0 || sparse.calls != 0 {
		t.Error("fuzzy hit should short-circuit before the semantic tier")
	}
}

func TestResolveFuzzyNameToleratesTypos(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, tier, err := uc.RetrieveCourses(context.Background(), "machine lerning", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tier != TierFuzzyName || len(got) != 1 || got[0].CodeNormalized != "CSE301" {
		t.Errorf("tier=%q matches=%+v, want fuzzy hit on CSE301", tier, got)
	}
}

func TestResolveInstructorStripsFillerPhrases(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, tier, err := uc.RetrieveCourses(context.Background(), "courses taught by Prof. Anita Rao", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tier != TierInstructor {
		t.Fatalf("tier = %q, want %q", tier, TierInstructor)
	}
	if len(got) != 2 {
		t.Fatalf("expected both of the instructor's courses, got %+v", got)
	}
	for _, course := range got {
		if course.Instructor != "Anita Rao" {
			t.Errorf("unexpected course %q by %q", course.Code, course.Instructor)
		}
	}
}

func TestResolveSemanticTierMapsHitsToRecords(t *testing.T) {
	_, dense, sparse, scorer, uc := newResolveFixture()
	dense.items = []domain.EvidenceItem{
		evidence("ml course text", map[string]string{domain.MetaCourseCode: "CSE 301"}),
		evidence("retired course", map[string]string{domain.MetaCourseCode: "ZZZ999"}),
	}
	sparse.items = []domain.EvidenceItem{
		evidence("genomics course text", map[string]string{domain.MetaCourseCode: "BIO501"}),
	}
	scorer.byContent = map[string]float64{
		"ml course text": 0.9, "genomics course text": 0.4, "retired course": 0.8,
	}

	got, tier, err := uc.RetrieveCourses(context.Background(), "courses about deep neural networks", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if tier != TierSemantic {
		t.Fatalf("tier = %q, want %q", tier, TierSemantic)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 mapped records, got %+v", got)
	}
	if got[0].CodeNormalized != "CSE301" || got[1].CodeNormalized != "BIO501" {
		t.Errorf("mapped order = [%s %s], want reranked order with unknown codes skipped",
			got[0].CodeNormalized, got[1].CodeNormalized)
	}
}

func TestResolveSemanticTierErrorCarriesTierLabel(t *testing.T) {
	embedder, _, _, _, uc := newResolveFixture()
	embedder.err = errors.New("ollama down")

	_, tier, err := uc.RetrieveCourses(context.Background(), "courses about deep neural networks", 5)
	if err == nil {
		t.Fatal("expected semantic tier failure to propagate")
	}
	if tier != TierSemantic {
		t.Errorf("tier = %q, want %q", tier, TierSemantic)
	}
}

func TestResolveExhaustedWaterfallReturnsEmpty(t *testing.T) {
	_, _, _, _, uc := newResolveFixture()

	got, tier, err := uc.RetrieveCourses(context.Background(), "zzz xyzzy", 5)
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if len(got) != 0 {
		t.Errorf("expected no matches, got %+v", got)
	}
	if tier != TierSemantic {
		t.Errorf("tier = %q, want %q after full walk", tier, TierSemantic)
	}
}
