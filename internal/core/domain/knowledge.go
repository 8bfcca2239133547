package domain

// KnowledgePage is one free-text source document (markdown, extracted HTML
// or PDF text) before chunking.
type KnowledgePage struct {
	Title      string
	Markdown   string
	SourceFile string
}
