// Package chunking splits markdown knowledge pages on header boundaries.
// Each chunk keeps its header trail both as metadata (for section-scoped
// search) and as a context line prepended to the embedded text, so a
// chunk stays meaningful after it is cut away from its surroundings.
package chunking

import (
	"regexp"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

var (
	emphasisMarkers = regexp.MustCompile(`\*+`)
	leadingHashes   = regexp.MustCompile(`^#+\s*`)
)

type HeaderSplitter struct{}

func NewHeaderSplitter() *HeaderSplitter {
	return &HeaderSplitter{}
}

type headerTrail struct {
	h1, h2, h3 string
}

func (t headerTrail) contextLine() string {
	parts := make([]string, 0, 3)
	for _, h := range []string{t.h1, t.h2, t.h3} {
		if h != "" {
			parts = append(parts, h)
		}
	}
	return strings.Join(parts, " > ")
}

func (s *HeaderSplitter) Split(page domain.KnowledgePage) []domain.EvidenceItem {
	lines := strings.Split(page.Markdown, "\n")

	var out []domain.EvidenceItem
	var trail headerTrail
	var body []string

	flush := func() {
		content := strings.TrimSpace(strings.Join(body, "\n"))
		body = body[:0]
		if content == "" {
			return
		}
		metadata := map[string]string{}
		if trail.h1 != "" {
			metadata[domain.MetaSection] = trail.h1
		}
		if trail.h2 != "" {
			metadata[domain.MetaSubsection] = trail.h2
		}
		if page.SourceFile != "" {
			metadata[domain.MetaSourceFile] = page.SourceFile
		}
		out = append(out, domain.EvidenceItem{
			Content:  "Context: " + trail.contextLine() + "\nContent: " + content,
			Metadata: metadata,
		})
	}

	for _, line := range lines {
		switch {
		case strings.HasPrefix(line, "### "):
			flush()
			trail.h3 = CleanHeader(line)
		case strings.HasPrefix(line, "## "):
			flush()
			trail.h2 = CleanHeader(line)
			trail.h3 = ""
		case strings.HasPrefix(line, "# "):
			flush()
			trail = headerTrail{h1: CleanHeader(line)}
		default:
			body = append(body, line)
		}
	}
	flush()

	return out
}

// CleanHeader strips markdown emphasis and hash markers from a header,
// so "## **Section 2: Facilities**" becomes "Section 2: Facilities".
func CleanHeader(header string) string {
	header = emphasisMarkers.ReplaceAllString(header, "")
	header = leadingHashes.ReplaceAllString(header, "")
	return strings.TrimSpace(header)
}
