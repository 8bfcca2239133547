package ollama

import (
	"fmt"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

func buildAnswerPrompt(question string, evidence []domain.EvidenceItem) string {
	var contextBuilder strings.Builder
	for idx, item := range evidence {
		contextBuilder.WriteString(fmt.Sprintf("[%d]%s score=%.3f\n%s\n\n",
			idx+1,
			formatEvidenceTags(item),
			item.Score,
			item.Content,
		))
	}

	return fmt.Sprintf(`You are a helpful assistant for university students.
Answer the question only from the context below.
If the context is insufficient, say so directly instead of guessing.
Mention course codes exactly as they appear in the context.

Question:
%s

Context:
%s
`, question, contextBuilder.String())
}

func formatEvidenceTags(item domain.EvidenceItem) string {
	var tags []string
	if code := item.Metadata[domain.MetaCourseCode]; code != "" {
		tags = append(tags, "course="+code)
	}
	if section := item.Metadata[domain.MetaSection]; section != "" {
		tags = append(tags, "section="+section)
	}
	if file := item.Metadata[domain.MetaSourceFile]; file != "" {
		tags = append(tags, "file="+file)
	}
	if len(tags) == 0 {
		return ""
	}
	return " " + strings.Join(tags, " ")
}
