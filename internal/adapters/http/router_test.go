package httpadapter

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/campusmind/campus-assistant/internal/config"
	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/usecase"
)

type fakeChat struct {
	answer *domain.Answer
	err    error
}

func (f *fakeChat) Answer(context.Context, string) (*domain.Answer, error) {
	return f.answer, f.err
}

type fakeResolver struct {
	courses []domain.CourseRecord
	tier    string
	err     error
}

func (f *fakeResolver) RetrieveCourses(context.Context, string, int) ([]domain.CourseRecord, string, error) {
	return f.courses, f.tier, f.err
}

type fakeRouter struct {
	decision domain.RouteDecision
}

func (f *fakeRouter) Route(context.Context, string) domain.RouteDecision {
	return f.decision
}

type fakeQueue struct {
	published []string
	err       error
}

func (f *fakeQueue) PublishReingest(_ context.Context, corpus string) error {
	if f.err != nil {
		return f.err
	}
	f.published = append(f.published, corpus)
	return nil
}

func (f *fakeQueue) SubscribeReingest(context.Context, func(context.Context, string) error) error {
	return nil
}

func newTestRouter(chat *fakeChat, resolver *fakeResolver, queue *fakeQueue) *Router {
	catalog := usecase.NewCourseCatalog([]domain.CourseRecord{
		{Code: "CS 201", CodeNormalized: "CS201", Name: "Data Structures"},
	})
	return NewRouter(chat, resolver, &fakeRouter{
		decision: domain.RouteDecision{Intent: domain.IntentGeneral},
	}, queue, catalog, config.Config{}, nil)
}

func TestChatReturnsAnswer(t *testing.T) {
	chat := &fakeChat{answer: &domain.Answer{
		Text:   "CS 201 covers data structures.",
		Intent: domain.IntentCourse,
		Tier:   "tier1_code",
	}}
	handler := newTestRouter(chat, &fakeResolver{}, &fakeQueue{}).Handler()

	body := bytes.NewBufferString(`{"question":"what is CS 201?"}`)
	req := httptest.NewRequest(http.MethodPost, "/v1/chat", body)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var got domain.Answer
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Text != chat.answer.Text || got.Tier != "tier1_code" {
		t.Fatalf("unexpected answer: %+v", got)
	}
	if res.Header().Get("X-Request-Id") == "" {
		t.Fatal("expected request id header")
	}
}

func TestChatRejectsEmptyQuestion(t *testing.T) {
	handler := newTestRouter(&fakeChat{}, &fakeResolver{}, &fakeQueue{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{"question":"  "}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", res.Code)
	}
}

func TestChatMapsTemporaryErrorTo503(t *testing.T) {
	chat := &fakeChat{err: domain.WrapError(domain.ErrTemporary, "generate", errors.New("ollama down"))}
	handler := newTestRouter(chat, &fakeResolver{}, &fakeQueue{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/chat", bytes.NewBufferString(`{"question":"hi"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503, got %d", res.Code)
	}
}

func TestLookupCoursesReturnsTier(t *testing.T) {
	resolver := &fakeResolver{
		courses: []domain.CourseRecord{{Code: "CS 201", Name: "Data Structures"}},
		tier:    "tier2_fuzzy",
	}
	handler := newTestRouter(&fakeChat{}, resolver, &fakeQueue{}).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/courses/lookup", bytes.NewBufferString(`{"query":"data structures"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var got struct {
		Courses []domain.CourseRecord `json:"courses"`
		Tier    string                `json:"tier"`
	}
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got.Tier != "tier2_fuzzy" || len(got.Courses) != 1 {
		t.Fatalf("unexpected response: %+v", got)
	}
}

func TestListCoursesByDepartmentAndKeyword(t *testing.T) {
	handler := newTestRouter(&fakeChat{}, &fakeResolver{}, &fakeQueue{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/courses?dept=cs", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", res.Code, res.Body.String())
	}
	var got struct {
		Courses []domain.CourseRecord `json:"courses"`
	}
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(got.Courses) != 1 || got.Courses[0].CodeNormalized != "CS201" {
		t.Fatalf("unexpected department listing: %+v", got.Courses)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/courses?keyword=structures", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/v1/courses", nil)
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 without parameters, got %d", res.Code)
	}
}

func TestRouteEndpointReturnsDecision(t *testing.T) {
	handler := newTestRouter(&fakeChat{}, &fakeResolver{}, &fakeQueue{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/v1/route?q=library+hours", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)

	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var decision domain.RouteDecision
	if err := json.NewDecoder(res.Body).Decode(&decision); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if decision.Intent != domain.IntentGeneral {
		t.Fatalf("unexpected decision: %+v", decision)
	}
}

func TestReingestValidatesCorpusAndPublishes(t *testing.T) {
	queue := &fakeQueue{}
	handler := newTestRouter(&fakeChat{}, &fakeResolver{}, queue).Handler()

	req := httptest.NewRequest(http.MethodPost, "/v1/reingest", bytes.NewBufferString(`{"corpus":"courses"}`))
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusAccepted {
		t.Fatalf("expected 202, got %d", res.Code)
	}
	if len(queue.published) != 1 || queue.published[0] != "courses" {
		t.Fatalf("expected courses publish, got %v", queue.published)
	}

	req = httptest.NewRequest(http.MethodPost, "/v1/reingest", bytes.NewBufferString(`{"corpus":"everything"}`))
	res = httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown corpus, got %d", res.Code)
	}
}

func TestHealthzReportsCatalogSize(t *testing.T) {
	handler := newTestRouter(&fakeChat{}, &fakeResolver{}, &fakeQueue{}).Handler()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	res := httptest.NewRecorder()
	handler.ServeHTTP(res, req)
	if res.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Code)
	}
	var got map[string]any
	if err := json.NewDecoder(res.Body).Decode(&got); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if got["status"] != "ok" || got["courses"] != float64(1) {
		t.Fatalf("unexpected health payload: %v", got)
	}
}
