package domain

// SitemapSection is one top-level section of the knowledge base with its
// observed subsection headers.
type SitemapSection struct {
	Name        string   `json:"name"`
	Subsections []string `json:"subsections,omitempty"`
}

// Sitemap summarizes the knowledge base structure for the intent router's
// classification prompt. Rebuilt wholesale on each ingestion run.
type Sitemap struct {
	Sections []SitemapSection    `json:"sections"`
	Entities map[string][]string `json:"entities,omitempty"`
}

// SectionNames lists all top-level section names, in sitemap order.
func (s *Sitemap) SectionNames() []string {
	if s == nil {
		return nil
	}
	names := make([]string, 0, len(s.Sections))
	for _, section := range s.Sections {
		names = append(names, section.Name)
	}
	return names
}
