package ports

import (
	"context"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// Embedder builds vectors for indexed text and query text.
type Embedder interface {
	Embed(ctx context.Context, texts []string) ([][]float32, error)
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// PairScorer scores (query, passage) pairs jointly with a cross-encoder.
// One call scores the whole batch; the returned slice is index-aligned
// with texts.
type PairScorer interface {
	ScorePairs(ctx context.Context, query string, texts []string) ([]float64, error)
}

// DenseSearcher performs vector similarity search, optionally scoped by a
// section filter. A nil filter searches the whole collection.
type DenseSearcher interface {
	Search(ctx context.Context, queryVector []float32, limit int, filter *domain.SectionFilter) ([]domain.EvidenceItem, error)
}

// SparseSearcher performs keyword-overlap ranking over the collection.
type SparseSearcher interface {
	SearchLexical(ctx context.Context, query string, limit int) ([]domain.EvidenceItem, error)
}

// VectorIndexer replaces the indexed representation of a corpus.
type VectorIndexer interface {
	ReplaceEvidence(ctx context.Context, items []domain.EvidenceItem, vectors [][]float32) error
}

// AnswerGenerator creates user-facing text and structured classifier output.
type AnswerGenerator interface {
	GenerateAnswer(ctx context.Context, question string, evidence []domain.EvidenceItem) (string, error)
	GenerateFromPrompt(ctx context.Context, prompt string) (string, error)
	GenerateJSONFromPrompt(ctx context.Context, prompt string) (string, error)
}

// CourseRepository persists the structured course corpus.
type CourseRepository interface {
	ListCourses(ctx context.Context) ([]domain.CourseRecord, error)
	ReplaceCourses(ctx context.Context, courses []domain.CourseRecord) error
}

// SitemapRepository persists the knowledge-base sitemap built at ingestion.
type SitemapRepository interface {
	LoadSitemap(ctx context.Context) (*domain.Sitemap, error)
	SaveSitemap(ctx context.Context, sitemap *domain.Sitemap) error
}

// ReingestQueue publishes and consumes corpus reingestion events.
type ReingestQueue interface {
	PublishReingest(ctx context.Context, corpus string) error
	SubscribeReingest(ctx context.Context, handler func(context.Context, string) error) error
}

// CourseSource loads structured course records from an external source
// (JSON directory, XLSX catalog). Malformed entries are skipped by the
// loader, not surfaced as fatal errors.
type CourseSource interface {
	LoadCourses(ctx context.Context) ([]domain.CourseRecord, error)
}

// KnowledgeSource loads free-text knowledge pages for chunking.
type KnowledgeSource interface {
	LoadPages(ctx context.Context) ([]domain.KnowledgePage, error)
}

// SectionChunker splits a page into section-tagged evidence chunks.
type SectionChunker interface {
	Split(page domain.KnowledgePage) []domain.EvidenceItem
}
