package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// Greeting and courtesy phrases answered without any retrieval or
// classifier call. Anchored so "hi" matches but "hilbert spaces" does not.
var greetingPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)^(hi|hello|hey|hola|namaste|good\s*(morning|afternoon|evening|night))[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(thanks|thank\s*you|thx|ty)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(bye|goodbye|see\s*you|cya)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(ok|okay|sure|yes|no|yep|nope|alright)[\s!.,?]*$`),
	regexp.MustCompile(`(?i)^(how\s*are\s*you|what'?s\s*up|wassup)[\s!.,?]*$`),
}

// Keywords flagging a likely course query before the classifier runs.
var courseKeywords = []string{
	"syllabus", "syllabi", "prerequisite", "prerequisites", "prereq",
	"credits", "credit hours", "course outline", "course description",
	"lecture plan", "weekly plan", "course outcome", "textbook", "reference book",
	"taught by", "instructor", "professor", "faculty teaching",
	"elective", "core course", "open elective",
	"course code", "courses about", "courses on", "courses related to",
}

// RouterUseCase classifies queries in two stages: cheap deterministic
// pre-filters, then a sitemap-prompted JSON classification with a
// staged parse cascade. Route never returns an error.
type RouterUseCase struct {
	generator ports.AnswerGenerator
	sitemap   *SitemapHolder
}

func NewRouterUseCase(generator ports.AnswerGenerator, sitemap *SitemapHolder) *RouterUseCase {
	return &RouterUseCase{generator: generator, sitemap: sitemap}
}

func (uc *RouterUseCase) Route(ctx context.Context, query string) domain.RouteDecision {
	if isGreeting(query) {
		return domain.RouteDecision{
			Intent:        domain.IntentGreeting,
			SkipRetrieval: true,
			Reasoning:     "greeting fast path",
		}
	}

	likelyCourse := isLikelyCourseQuery(query)

	raw, err := uc.generator.GenerateJSONFromPrompt(ctx, buildRouterPrompt(formatSitemap(uc.sitemap.Snapshot()), query))
	if err != nil {
		slog.Warn("router_classifier_unavailable", "error", err)
		return prefilterFallback(likelyCourse, err)
	}

	parsed := parseClassifierOutput(raw)
	intent := normalizeIntent(parsed.intent())

	// The pre-filter wins ties: a flagged course query never routes as
	// general just because the classifier defaulted.
	if likelyCourse && intent == domain.IntentGeneral {
		slog.Info("router_prefilter_override", "intent", domain.IntentCourse)
		intent = domain.IntentCourse
	}

	decision := domain.RouteDecision{
		Intent:        intent,
		Sections:      parsed.RelevantSections,
		Keywords:      parsed.Keywords,
		SkipRetrieval: intent == domain.IntentGreeting || intent == domain.IntentOffTopic,
		Reasoning:     parsed.Reasoning,
	}
	if intent == domain.IntentGeneral && len(parsed.RelevantSections) > 0 {
		decision.Filter = &domain.SectionFilter{Sections: parsed.RelevantSections}
	}
	return decision
}

func prefilterFallback(likelyCourse bool, err error) domain.RouteDecision {
	intent := domain.IntentGeneral
	if likelyCourse {
		intent = domain.IntentCourse
	}
	return domain.RouteDecision{
		Intent:    intent,
		Reasoning: fmt.Sprintf("classifier unavailable, pre-filter fallback: %v", err),
	}
}

func isGreeting(query string) bool {
	trimmed := strings.TrimSpace(query)
	for _, pattern := range greetingPatterns {
		if pattern.MatchString(trimmed) {
			return true
		}
	}
	return false
}

func isLikelyCourseQuery(query string) bool {
	if courseCodePattern.MatchString(query) {
		return true
	}
	lower := strings.ToLower(query)
	for _, keyword := range courseKeywords {
		if strings.Contains(lower, keyword) {
			return true
		}
	}
	return false
}

func normalizeIntent(raw string) domain.Intent {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "course":
		return domain.IntentCourse
	case "greeting":
		return domain.IntentGreeting
	case "off_topic":
		return domain.IntentOffTopic
	case "rag":
		// Legacy label from earlier classifier revisions.
		return domain.IntentGeneral
	default:
		return domain.IntentGeneral
	}
}

func buildRouterPrompt(sitemapText, query string) string {
	return fmt.Sprintf(`You are a query classifier for a university knowledge base.

Classify the query into one of:
- "course": questions about specific courses (syllabus, prerequisites, credits, course codes, instructors, textbooks, electives)
- "general": questions about the university (admissions, fees, campus, rules, placements, clubs)
- "greeting": casual greetings or courtesy phrases
- "off_topic": completely unrelated to the university

%s

Return ONLY a JSON object with keys:
"intent" (one of course|general|greeting|off_topic),
"relevant_sections" (section names from the sitemap, general intent only),
"keywords" (key terms from the query),
"reasoning" (one sentence).

Query: %s`, sitemapText, query)
}
