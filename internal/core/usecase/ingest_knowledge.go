package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// Entity keyword groups scanned out of chunk content for the routing
// sitemap.
var sitemapEntityKeywords = map[string][]string{
	"departments": {"CSE", "ECE", "CB", "HCD", "SSH", "Math", "Department"},
	"programs":    {"B.Tech", "M.Tech", "Ph.D", "PhD", "MBA", "BBA"},
	"facilities":  {"Library", "Hostel", "Mess", "Lab", "Centre", "Center", "Gym", "Sports"},
}

// IngestKnowledgeUseCase rebuilds the free-text knowledge corpus: chunk
// pages by markdown headers, reindex the vector collection, regenerate the
// routing sitemap and swap both serving snapshots.
type IngestKnowledgeUseCase struct {
	source      ports.KnowledgeSource
	chunker     ports.SectionChunker
	embedder    ports.Embedder
	indexer     ports.VectorIndexer
	sitemapRepo ports.SitemapRepository
	sitemap     *SitemapHolder
}

func NewIngestKnowledgeUseCase(
	source ports.KnowledgeSource,
	chunker ports.SectionChunker,
	embedder ports.Embedder,
	indexer ports.VectorIndexer,
	sitemapRepo ports.SitemapRepository,
	sitemap *SitemapHolder,
) *IngestKnowledgeUseCase {
	return &IngestKnowledgeUseCase{
		source:      source,
		chunker:     chunker,
		embedder:    embedder,
		indexer:     indexer,
		sitemapRepo: sitemapRepo,
		sitemap:     sitemap,
	}
}

func (uc *IngestKnowledgeUseCase) IngestKnowledge(ctx context.Context) error {
	pages, err := uc.source.LoadPages(ctx)
	if err != nil {
		return fmt.Errorf("load pages: %w", err)
	}

	var chunks []domain.EvidenceItem
	for _, page := range pages {
		chunks = append(chunks, uc.chunker.Split(page)...)
	}
	if len(chunks) == 0 {
		return fmt.Errorf("chunk pages: no chunks produced")
	}

	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Content
	}
	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed chunks: %w", err)
	}
	if len(vectors) != len(chunks) {
		return fmt.Errorf("embed chunks: got %d vectors for %d chunks", len(vectors), len(chunks))
	}
	if err := uc.indexer.ReplaceEvidence(ctx, chunks, vectors); err != nil {
		return fmt.Errorf("index chunks: %w", err)
	}

	sitemap := buildSitemap(chunks)
	if err := uc.sitemapRepo.SaveSitemap(ctx, sitemap); err != nil {
		return fmt.Errorf("save sitemap: %w", err)
	}
	uc.sitemap.Swap(sitemap)

	slog.Info("knowledge_ingested", "pages", len(pages), "chunks", len(chunks), "sections", len(sitemap.Sections))
	return nil
}

// buildSitemap derives the routing sitemap from section-tagged chunks:
// unique top-level sections with their observed subsections, plus entity
// keywords spotted in chunk content.
func buildSitemap(chunks []domain.EvidenceItem) *domain.Sitemap {
	sections := make(map[string]map[string]struct{})
	entities := make(map[string]map[string]struct{}, len(sitemapEntityKeywords))
	for kind := range sitemapEntityKeywords {
		entities[kind] = make(map[string]struct{})
	}

	for _, chunk := range chunks {
		section := chunk.Metadata[domain.MetaSection]
		if section != "" {
			if _, ok := sections[section]; !ok {
				sections[section] = make(map[string]struct{})
			}
			if sub := chunk.Metadata[domain.MetaSubsection]; sub != "" {
				sections[section][sub] = struct{}{}
			}
		}
		for kind, keywords := range sitemapEntityKeywords {
			for _, keyword := range keywords {
				if strings.Contains(chunk.Content, keyword) {
					entities[kind][keyword] = struct{}{}
				}
			}
		}
	}

	out := &domain.Sitemap{Entities: make(map[string][]string, len(entities))}
	for name, subs := range sections {
		out.Sections = append(out.Sections, domain.SitemapSection{
			Name:        name,
			Subsections: sortedSet(subs),
		})
	}
	sort.Slice(out.Sections, func(i, j int) bool {
		return out.Sections[i].Name < out.Sections[j].Name
	})
	for kind, set := range entities {
		if len(set) > 0 {
			out.Entities[kind] = sortedSet(set)
		}
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	if len(set) == 0 {
		return nil
	}
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}
