package ports

import (
	"context"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// QueryRouter classifies a query and derives the retrieval scope.
// Route always returns a usable decision; classifier failures degrade to
// deterministic pre-filter heuristics.
type QueryRouter interface {
	Route(ctx context.Context, query string) domain.RouteDecision
}

// GeneralRetriever is the hybrid fusion pipeline over the knowledge corpus.
type GeneralRetriever interface {
	RetrieveGeneral(ctx context.Context, query string, route *domain.RouteDecision) ([]domain.EvidenceItem, error)
}

// CourseResolver resolves structured course queries through the waterfall
// tiers. The returned label names the tier that satisfied the query.
type CourseResolver interface {
	RetrieveCourses(ctx context.Context, query string, topK int) ([]domain.CourseRecord, string, error)
}

// ChatService runs the full route-retrieve-generate pipeline for one question.
type ChatService interface {
	Answer(ctx context.Context, question string) (*domain.Answer, error)
}

// CorpusIngestor rebuilds one corpus wholesale and swaps the serving indexes.
type CorpusIngestor interface {
	IngestCourses(ctx context.Context) error
	IngestKnowledge(ctx context.Context) error
}
