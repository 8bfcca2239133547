package knowledgedir

import (
	"bytes"

	"github.com/ledongthuc/pdf"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// loadPDF extracts plain text only. PDF pages carry no header structure
// we can trust, so the whole document lands in one section named after
// the file and the splitter keeps it as a single chunk per page break.
func loadPDF(path string) (domain.KnowledgePage, error) {
	f, reader, err := pdf.Open(path)
	if err != nil {
		return domain.KnowledgePage{}, err
	}
	defer f.Close()

	plain, err := reader.GetPlainText()
	if err != nil {
		return domain.KnowledgePage{}, err
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(plain); err != nil {
		return domain.KnowledgePage{}, err
	}

	title := titleFromFilename(path)
	return domain.KnowledgePage{
		Title:    title,
		Markdown: "# " + title + "\n" + buf.String(),
	}, nil
}
