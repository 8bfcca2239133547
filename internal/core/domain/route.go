package domain

// Intent classifies what a query is asking for and which retrieval path
// should serve it.
type Intent string

const (
	IntentCourse   Intent = "course"
	IntentGeneral  Intent = "general"
	IntentGreeting Intent = "greeting"
	IntentOffTopic Intent = "off_topic"
)

// RouteDecision is produced fresh per query and never persisted.
type RouteDecision struct {
	Intent        Intent         `json:"intent"`
	Sections      []string       `json:"sections,omitempty"`
	Keywords      []string       `json:"keywords,omitempty"`
	SkipRetrieval bool           `json:"skip_retrieval"`
	Reasoning     string         `json:"reasoning,omitempty"`
	Filter        *SectionFilter `json:"-"`
}

// Answer is the user-facing result of one pipeline execution. An empty
// Sources slice means "nothing found", which is a valid outcome distinct
// from a pipeline failure.
type Answer struct {
	Text    string         `json:"text"`
	Sources []EvidenceItem `json:"sources,omitempty"`
	Intent  Intent         `json:"intent"`
	Tier    string         `json:"tier,omitempty"`
}
