package usecase

import (
	"context"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

type fakeEmbedder struct {
	vectors [][]float32
	err     error

	embedCalls      int
	embedQueryCalls int
	lastTexts       []string
}

func (f *fakeEmbedder) Embed(_ context.Context, texts []string) ([][]float32, error) {
	f.embedCalls++
	f.lastTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	if f.vectors != nil {
		return f.vectors, nil
	}
	out := make([][]float32, len(texts))
	for i := range out {
		out[i] = []float32{float32(i), 1}
	}
	return out, nil
}

func (f *fakeEmbedder) EmbedQuery(context.Context, string) ([]float32, error) {
	f.embedQueryCalls++
	if f.err != nil {
		return nil, f.err
	}
	return []float32{0.1, 0.2}, nil
}

type fakeDense struct {
	items       []domain.EvidenceItem
	scopedItems []domain.EvidenceItem
	err         error
	scopedErr   error

	calls   int
	filters []*domain.SectionFilter
}

func (f *fakeDense) Search(
	_ context.Context,
	_ []float32,
	_ int,
	filter *domain.SectionFilter,
) ([]domain.EvidenceItem, error) {
	f.calls++
	f.filters = append(f.filters, filter)
	if filter != nil {
		if f.scopedErr != nil {
			return nil, f.scopedErr
		}
		return f.scopedItems, nil
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

type fakeSparse struct {
	items []domain.EvidenceItem
	err   error

	calls     int
	lastQuery string
}

func (f *fakeSparse) SearchLexical(_ context.Context, query string, _ int) ([]domain.EvidenceItem, error) {
	f.calls++
	f.lastQuery = query
	if f.err != nil {
		return nil, f.err
	}
	return f.items, nil
}

// fakeScorer scores passages by a content lookup table so tests control the
// reranked order without caring about candidate positions.
type fakeScorer struct {
	byContent map[string]float64
	err       error

	calls     int
	lastTexts []string
}

func (f *fakeScorer) ScorePairs(_ context.Context, _ string, texts []string) ([]float64, error) {
	f.calls++
	f.lastTexts = texts
	if f.err != nil {
		return nil, f.err
	}
	out := make([]float64, len(texts))
	for i, text := range texts {
		out[i] = f.byContent[text]
	}
	return out, nil
}

type fakeGenerator struct {
	answer  string
	jsonOut string
	err     error
	jsonErr error

	answerCalls   int
	promptCalls   int
	jsonCalls     int
	lastEvidence  []domain.EvidenceItem
	lastPrompt    string
	lastQuestion  string
	lastJSONInput string
}

func (f *fakeGenerator) GenerateAnswer(_ context.Context, question string, evidence []domain.EvidenceItem) (string, error) {
	f.answerCalls++
	f.lastQuestion = question
	f.lastEvidence = evidence
	return f.answer, f.err
}

func (f *fakeGenerator) GenerateFromPrompt(_ context.Context, prompt string) (string, error) {
	f.promptCalls++
	f.lastPrompt = prompt
	return f.answer, f.err
}

func (f *fakeGenerator) GenerateJSONFromPrompt(_ context.Context, prompt string) (string, error) {
	f.jsonCalls++
	f.lastJSONInput = prompt
	if f.jsonErr != nil {
		return "", f.jsonErr
	}
	return f.jsonOut, nil
}

type fakeCourseSource struct {
	courses []domain.CourseRecord
	err     error
}

func (f *fakeCourseSource) LoadCourses(context.Context) ([]domain.CourseRecord, error) {
	return f.courses, f.err
}

type fakeKnowledgeSource struct {
	pages []domain.KnowledgePage
	err   error
}

func (f *fakeKnowledgeSource) LoadPages(context.Context) ([]domain.KnowledgePage, error) {
	return f.pages, f.err
}

// fakeChunker emits one chunk per page, carrying the page title as the
// section tag.
type fakeChunker struct{}

func (fakeChunker) Split(page domain.KnowledgePage) []domain.EvidenceItem {
	if page.Markdown == "" {
		return nil
	}
	return []domain.EvidenceItem{{
		Content:  page.Markdown,
		Metadata: map[string]string{domain.MetaSection: page.Title},
	}}
}

type fakeIndexer struct {
	err error

	calls       int
	lastItems   []domain.EvidenceItem
	lastVectors [][]float32
}

func (f *fakeIndexer) ReplaceEvidence(_ context.Context, items []domain.EvidenceItem, vectors [][]float32) error {
	f.calls++
	f.lastItems = items
	f.lastVectors = vectors
	return f.err
}

type fakeCourseRepo struct {
	err error

	replaced []domain.CourseRecord
}

func (f *fakeCourseRepo) ListCourses(context.Context) ([]domain.CourseRecord, error) {
	return f.replaced, nil
}

func (f *fakeCourseRepo) ReplaceCourses(_ context.Context, courses []domain.CourseRecord) error {
	if f.err != nil {
		return f.err
	}
	f.replaced = courses
	return nil
}

type fakeSitemapRepo struct {
	err error

	saved *domain.Sitemap
}

func (f *fakeSitemapRepo) LoadSitemap(context.Context) (*domain.Sitemap, error) {
	return f.saved, nil
}

func (f *fakeSitemapRepo) SaveSitemap(_ context.Context, sitemap *domain.Sitemap) error {
	if f.err != nil {
		return f.err
	}
	f.saved = sitemap
	return nil
}

type fakeQueryRouter struct {
	decision domain.RouteDecision
}

func (f *fakeQueryRouter) Route(context.Context, string) domain.RouteDecision {
	return f.decision
}

type fakeRetriever struct {
	items []domain.EvidenceItem
	err   error

	lastRoute *domain.RouteDecision
}

func (f *fakeRetriever) RetrieveGeneral(
	_ context.Context,
	_ string,
	route *domain.RouteDecision,
) ([]domain.EvidenceItem, error) {
	f.lastRoute = route
	return f.items, f.err
}

type fakeCourseResolver struct {
	courses []domain.CourseRecord
	tier    string
	err     error
}

func (f *fakeCourseResolver) RetrieveCourses(context.Context, string, int) ([]domain.CourseRecord, string, error) {
	return f.courses, f.tier, f.err
}

func evidence(content string, meta map[string]string) domain.EvidenceItem {
	return domain.EvidenceItem{Content: content, Metadata: meta}
}
