package usecase

import (
	"context"
	"errors"
	"testing"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

func TestAnswerGreetingSkipsRetrieval(t *testing.T) {
	gen := &fakeGenerator{answer: "Hello! How can I help?"}
	retriever := &fakeRetriever{}
	resolver := &fakeCourseResolver{}
	uc := NewChatUseCase(&fakeQueryRouter{decision: domain.RouteDecision{
		Intent:        domain.IntentGreeting,
		SkipRetrieval: true,
	}}, retriever, resolver, gen, 5)

	answer, err := uc.Answer(context.Background(), "hi")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Text != gen.answer || answer.Intent != domain.IntentGreeting {
		t.Errorf("answer = %+v", answer)
	}
	if gen.promptCalls != 1 || gen.answerCalls != 0 {
		t.Errorf("greeting should use the small-talk prompt: prompt=%d answer=%d", gen.promptCalls, gen.answerCalls)
	}
	if retriever.lastRoute != nil {
		t.Error("retrieval must be skipped for greetings")
	}
}

func TestAnswerCourseIntentUsesResolver(t *testing.T) {
	gen := &fakeGenerator{answer: "CSE101 is taught by Anita Rao."}
	resolver := &fakeCourseResolver{
		courses: []domain.CourseRecord{{
			Code: "CSE101", CodeNormalized: "CSE101", Name: "Data Structures", Text: "CSE101 Data Structures",
		}},
		tier: TierCode,
	}
	uc := NewChatUseCase(&fakeQueryRouter{decision: domain.RouteDecision{
		Intent: domain.IntentCourse,
	}}, &fakeRetriever{}, resolver, gen, 5)

	answer, err := uc.Answer(context.Background(), "who teaches CSE101?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer.Tier != TierCode {
		t.Errorf("tier = %q, want %q", answer.Tier, TierCode)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Metadata[domain.MetaCourseCodeNormalized] != "CSE101" {
		t.Errorf("sources = %+v", answer.Sources)
	}
	if len(gen.lastEvidence) != 1 {
		t.Errorf("generator evidence = %+v", gen.lastEvidence)
	}
}

func TestAnswerGeneralIntentUsesRetriever(t *testing.T) {
	gen := &fakeGenerator{answer: "The hostel mess serves breakfast from 7:30."}
	retriever := &fakeRetriever{items: []domain.EvidenceItem{evidence("mess timings", nil)}}
	route := domain.RouteDecision{
		Intent: domain.IntentGeneral,
		Filter: &domain.SectionFilter{Sections: []string{"Hostel"}},
	}
	uc := NewChatUseCase(&fakeQueryRouter{decision: route}, retriever, &fakeCourseResolver{}, gen, 5)

	answer, err := uc.Answer(context.Background(), "when does the mess open?")
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if len(answer.Sources) != 1 || answer.Sources[0].Content != "mess timings" {
		t.Errorf("sources = %+v", answer.Sources)
	}
	if retriever.lastRoute == nil || retriever.lastRoute.Filter == nil {
		t.Error("route decision should reach the retriever intact")
	}
}

func TestAnswerEmptyEvidenceStillGenerates(t *testing.T) {
	gen := &fakeGenerator{answer: "I could not find that information."}
	uc := NewChatUseCase(&fakeQueryRouter{decision: domain.RouteDecision{
		Intent: domain.IntentGeneral,
	}}, &fakeRetriever{}, &fakeCourseResolver{}, gen, 5)

	answer, err := uc.Answer(context.Background(), "something obscure")
	if err != nil {
		t.Fatalf("empty evidence is a valid outcome: %v", err)
	}
	if gen.answerCalls != 1 {
		t.Error("generator must still run to state the information is missing")
	}
	if len(answer.Sources) != 0 {
		t.Errorf("sources = %+v", answer.Sources)
	}
}

func TestAnswerPropagatesPipelineFailures(t *testing.T) {
	retriever := &fakeRetriever{err: errors.New("qdrant down")}
	uc := NewChatUseCase(&fakeQueryRouter{decision: domain.RouteDecision{
		Intent: domain.IntentGeneral,
	}}, retriever, &fakeCourseResolver{}, &fakeGenerator{}, 5)

	if _, err := uc.Answer(context.Background(), "q"); err == nil {
		t.Fatal("expected retrieval failure to propagate")
	}

	resolver := &fakeCourseResolver{err: errors.New("catalog broken")}
	uc = NewChatUseCase(&fakeQueryRouter{decision: domain.RouteDecision{
		Intent: domain.IntentCourse,
	}}, &fakeRetriever{}, resolver, &fakeGenerator{}, 5)

	if _, err := uc.Answer(context.Background(), "q"); err == nil {
		t.Fatal("expected resolver failure to propagate")
	}
}
