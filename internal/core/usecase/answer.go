package usecase

import (
	"context"
	"fmt"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// ChatUseCase runs one question through route → retrieve → generate.
type ChatUseCase struct {
	router    ports.QueryRouter
	retriever ports.GeneralRetriever
	courses   ports.CourseResolver
	generator ports.AnswerGenerator
	topK      int
}

func NewChatUseCase(
	router ports.QueryRouter,
	retriever ports.GeneralRetriever,
	courses ports.CourseResolver,
	generator ports.AnswerGenerator,
	topK int,
) *ChatUseCase {
	if topK <= 0 {
		topK = 5
	}
	return &ChatUseCase{
		router:    router,
		retriever: retriever,
		courses:   courses,
		generator: generator,
		topK:      topK,
	}
}

// Answer resolves the route and serves the matching retrieval path. An
// empty evidence set is a valid outcome handed to the generator, which
// states that the information is missing; only pipeline failures return an
// error.
func (uc *ChatUseCase) Answer(ctx context.Context, question string) (*domain.Answer, error) {
	route := uc.router.Route(ctx, question)

	if route.SkipRetrieval {
		text, err := uc.generator.GenerateFromPrompt(ctx, buildSmallTalkPrompt(question))
		if err != nil {
			return nil, fmt.Errorf("generate reply: %w", err)
		}
		return &domain.Answer{Text: text, Intent: route.Intent}, nil
	}

	if route.Intent == domain.IntentCourse {
		courses, tier, err := uc.courses.RetrieveCourses(ctx, question, uc.topK)
		if err != nil {
			return nil, fmt.Errorf("resolve courses: %w", err)
		}
		evidence := make([]domain.EvidenceItem, 0, len(courses))
		for _, course := range courses {
			evidence = append(evidence, course.Evidence())
		}
		text, err := uc.generator.GenerateAnswer(ctx, question, evidence)
		if err != nil {
			return nil, fmt.Errorf("generate answer: %w", err)
		}
		return &domain.Answer{Text: text, Sources: evidence, Intent: route.Intent, Tier: tier}, nil
	}

	evidence, err := uc.retriever.RetrieveGeneral(ctx, question, &route)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}
	text, err := uc.generator.GenerateAnswer(ctx, question, evidence)
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	return &domain.Answer{Text: text, Sources: evidence, Intent: route.Intent}, nil
}

func buildSmallTalkPrompt(question string) string {
	return "You are a friendly assistant for a university help desk. " +
		"Reply briefly and politely to this message, and offer to help with " +
		"questions about courses, admissions or campus life.\n\nMessage: " + question
}
