// Package knowledgedir loads knowledge-base pages from a directory.
// Markdown files pass through untouched; HTML and PDF files are
// converted to markdown-shaped text so the header splitter can chunk
// every page the same way.
package knowledgedir

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

type Source struct {
	dir string
}

func New(dir string) *Source {
	return &Source{dir: dir}
}

func (s *Source) LoadPages(ctx context.Context) ([]domain.KnowledgePage, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("read knowledge dir %s: %w", s.dir, err)
	}

	var out []domain.KnowledgePage
	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		path := filepath.Join(s.dir, name)

		var page domain.KnowledgePage
		var loadErr error
		switch strings.ToLower(filepath.Ext(name)) {
		case ".md", ".markdown":
			page, loadErr = loadMarkdown(path)
		case ".html", ".htm":
			page, loadErr = loadHTML(path)
		case ".pdf":
			page, loadErr = loadPDF(path)
		default:
			continue
		}
		if loadErr != nil {
			slog.Warn("knowledge_page_unreadable", "file", name, "error", loadErr)
			continue
		}
		if strings.TrimSpace(page.Markdown) == "" {
			slog.Warn("knowledge_page_empty", "file", name)
			continue
		}
		page.SourceFile = name
		out = append(out, page)
	}

	slog.Info("knowledge_pages_loaded", "dir", s.dir, "count", len(out))
	return out, nil
}

func loadMarkdown(path string) (domain.KnowledgePage, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return domain.KnowledgePage{}, err
	}
	return domain.KnowledgePage{
		Title:    titleFromFilename(path),
		Markdown: string(raw),
	}, nil
}

func titleFromFilename(path string) string {
	base := filepath.Base(path)
	base = strings.TrimSuffix(base, filepath.Ext(base))
	base = strings.ReplaceAll(base, "_", " ")
	base = strings.ReplaceAll(base, "-", " ")
	return strings.TrimSpace(base)
}
