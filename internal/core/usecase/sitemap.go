package usecase

import (
	"fmt"
	"sort"
	"strings"
	"sync/atomic"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// SitemapHolder serves the routing sitemap as an atomic snapshot, swapped
// wholesale on reingestion like the course catalog.
type SitemapHolder struct {
	ptr atomic.Pointer[domain.Sitemap]
}

func NewSitemapHolder(sitemap *domain.Sitemap) *SitemapHolder {
	h := &SitemapHolder{}
	h.Swap(sitemap)
	return h
}

func (h *SitemapHolder) Swap(sitemap *domain.Sitemap) {
	if sitemap == nil {
		sitemap = &domain.Sitemap{}
	}
	h.ptr.Store(sitemap)
}

func (h *SitemapHolder) Snapshot() *domain.Sitemap {
	if s := h.ptr.Load(); s != nil {
		return s
	}
	return &domain.Sitemap{}
}

const (
	sitemapSubsectionPreview = 5
	sitemapEntityPreview     = 10
)

// formatSitemap renders the sitemap for the classification prompt: section
// names with a short subsection preview, then the entity keyword lists.
func formatSitemap(sitemap *domain.Sitemap) string {
	if sitemap == nil || len(sitemap.Sections) == 0 {
		return "No sitemap available."
	}

	var b strings.Builder
	b.WriteString("## Knowledge Base Sitemap (top-level sections):\n")
	for _, section := range sitemap.Sections {
		fmt.Fprintf(&b, "- %s\n", section.Name)
		if len(section.Subsections) > 0 {
			preview := section.Subsections
			if len(preview) > sitemapSubsectionPreview {
				preview = preview[:sitemapSubsectionPreview]
			}
			fmt.Fprintf(&b, "  - Subsections: %s", strings.Join(preview, ", "))
			if len(section.Subsections) > sitemapSubsectionPreview {
				fmt.Fprintf(&b, ", ... (%d total)", len(section.Subsections))
			}
			b.WriteString("\n")
		}
	}

	if len(sitemap.Entities) > 0 {
		b.WriteString("\n## Key Entities:\n")
		for _, kind := range sortedEntityKinds(sitemap.Entities) {
			entities := sitemap.Entities[kind]
			if len(entities) == 0 {
				continue
			}
			preview := entities
			if len(preview) > sitemapEntityPreview {
				preview = preview[:sitemapEntityPreview]
			}
			fmt.Fprintf(&b, "- %s: %s", kind, strings.Join(preview, ", "))
			if len(entities) > sitemapEntityPreview {
				fmt.Fprintf(&b, ", ... (%d total)", len(entities))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}

func sortedEntityKinds(entities map[string][]string) []string {
	kinds := make([]string, 0, len(entities))
	for kind := range entities {
		kinds = append(kinds, kind)
	}
	sort.Strings(kinds)
	return kinds
}
