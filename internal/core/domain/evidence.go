package domain

// Metadata keys attached to evidence items by the retrieval sources.
const (
	MetaSection              = "section"
	MetaSubsection           = "subsection"
	MetaCourseCode           = "course_code"
	MetaCourseCodeNormalized = "course_code_normalized"
	MetaSourceFile           = "source_file"
)

// EvidenceItem is a single retrieved passage or flattened course rendering.
// Content is immutable once created; fusion accumulates Score and Sources,
// reranking overwrites Score with the cross-encoder scalar.
type EvidenceItem struct {
	Content  string            `json:"content"`
	Metadata map[string]string `json:"metadata,omitempty"`
	Score    float64           `json:"score"`
	Sources  []string          `json:"sources,omitempty"`
}

const contentKeyPrefixLen = 100

// DedupKey identifies the same logical item across retrieval sources.
// Structured records key on the normalized course code, free-text passages
// on the exact content.
func (e EvidenceItem) DedupKey() string {
	if code := e.Metadata[MetaCourseCodeNormalized]; code != "" {
		return code
	}
	return e.Content
}

// PrefixKey is the dedup key used over the course collection, where
// renderings may diverge slightly between sources: normalized code when
// present, else a bounded content prefix.
func (e EvidenceItem) PrefixKey() string {
	if code := e.Metadata[MetaCourseCodeNormalized]; code != "" {
		return code
	}
	runes := []rune(e.Content)
	if len(runes) > contentKeyPrefixLen {
		return string(runes[:contentKeyPrefixLen])
	}
	return e.Content
}

// SectionFilter scopes dense search to one or more top-level sections.
// One section is an equality predicate, several form a disjunction.
type SectionFilter struct {
	Sections []string
}
