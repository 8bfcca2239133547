package domain

import (
	"strings"
	"unicode"
)

// CourseRecord is one entry of the structured course corpus. Text is the
// flattened searchable rendering built at ingestion; the resolver never
// mutates a record after the index snapshot is built.
type CourseRecord struct {
	Code           string   `json:"code"`
	CodeNormalized string   `json:"code_normalized"`
	Name           string   `json:"name"`
	Credits        string   `json:"credits,omitempty"`
	OfferedTo      string   `json:"offered_to,omitempty"`
	Instructor     string   `json:"instructor,omitempty"`
	Description    string   `json:"description,omitempty"`
	Prerequisites  string   `json:"prerequisites,omitempty"`
	Topics         []string `json:"topics,omitempty"`
	SourceFile     string   `json:"source_file,omitempty"`
	Text           string   `json:"text,omitempty"`
}

// NormalizeCourseCode strips all whitespace and uppercases, so that
// "cse 101", "CSE101" and " Cse101 " map to the same index key.
// Idempotent by construction.
func NormalizeCourseCode(code string) string {
	if code == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(code))
	for _, r := range code {
		if unicode.IsSpace(r) {
			continue
		}
		b.WriteRune(unicode.ToUpper(r))
	}
	return b.String()
}

// Evidence renders a course record as a retrieval evidence item.
func (c CourseRecord) Evidence() EvidenceItem {
	return EvidenceItem{
		Content: c.Text,
		Metadata: map[string]string{
			MetaCourseCode:           c.Code,
			MetaCourseCodeNormalized: c.CodeNormalized,
			MetaSourceFile:           c.SourceFile,
		},
	}
}
