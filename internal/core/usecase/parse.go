package usecase

import (
	"encoding/json"
	"regexp"
	"strings"
)

// classifierOutput is the structured shape expected from the classification
// service. QueryType is a legacy alias for Intent kept for older model
// outputs.
type classifierOutput struct {
	Intent           string   `json:"intent"`
	QueryType        string   `json:"query_type"`
	RelevantSections []string `json:"relevant_sections"`
	Keywords         []string `json:"keywords"`
	Reasoning        string   `json:"reasoning"`
}

func (o classifierOutput) intent() string {
	if o.Intent != "" {
		return o.Intent
	}
	return o.QueryType
}

var innermostObject = regexp.MustCompile(`\{[^{}]*\}`)

// parseClassifierOutput decodes the classifier's raw text in stages:
// direct decode, then an innermost brace-delimited block, then the
// outermost block, then a keyword heuristic. Each stage is pure; the
// cascade never fails.
func parseClassifierOutput(raw string) classifierOutput {
	raw = strings.TrimSpace(raw)

	if out, ok := decodeClassifier(raw); ok {
		return out
	}
	if block := innermostObject.FindString(raw); block != "" {
		if out, ok := decodeClassifier(block); ok {
			return out
		}
	}
	if block := outermostObject(raw); block != "" {
		if out, ok := decodeClassifier(block); ok {
			return out
		}
	}
	return heuristicClassifier(raw)
}

func decodeClassifier(s string) (classifierOutput, bool) {
	var out classifierOutput
	if err := json.Unmarshal([]byte(s), &out); err != nil {
		return classifierOutput{}, false
	}
	if out.intent() == "" && len(out.RelevantSections) == 0 && len(out.Keywords) == 0 {
		return classifierOutput{}, false
	}
	return out, true
}

// outermostObject returns the first-{ to last-} span, which tolerates
// nested objects the innermost pattern cannot capture.
func outermostObject(s string) string {
	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return ""
	}
	return s[start : end+1]
}

// heuristicClassifier infers an intent from literal substrings when every
// structured parse failed. Deterministic last resort; defaults to general.
func heuristicClassifier(raw string) classifierOutput {
	out := classifierOutput{
		Intent:    "general",
		Reasoning: "fallback parsing",
	}

	lower := strings.ToLower(raw)
	switch {
	case strings.Contains(lower, "greeting") || strings.Contains(lower, "hello") ||
		strings.Contains(lower, "hi ") || strings.Contains(lower, "thanks"):
		out.Intent = "greeting"
	case strings.Contains(lower, "off_topic") || strings.Contains(lower, "unrelated"):
		out.Intent = "off_topic"
	case strings.Contains(lower, "course") &&
		(strings.Contains(lower, "syllabus") || strings.Contains(lower, "prerequisite") || strings.Contains(lower, "credit")):
		out.Intent = "course"
	}
	return out
}
