package usecase

import (
	"context"
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// Tier labels exposed to callers for observability.
const (
	TierCode       = "tier1_code"
	TierFuzzyName  = "tier2_fuzzy"
	TierInstructor = "tier3_instructor"
	TierSemantic   = "tier4_semantic"
)

var (
	// Department code plus a three-digit number with an optional trailing
	// letter, e.g. CSE101, cse 101, ECE314A. X stands in for a wildcarded
	// digit, as in BIO5XX.
	courseCodePattern = regexp.MustCompile(`\b([A-Za-z]{2,4})\s*([0-9xX]{3}[A-Za-z]?)\b`)

	// Wildcard digits in a code query, e.g. BIO5XX for the whole 500 block.
	wildcardDigit = regexp.MustCompile(`[xX]`)

	instructorFiller = regexp.MustCompile(`\b(courses?\s*(by|taught by|from|of)|prof\.?|dr\.?|professor)\b`)
)

// CourseResolveUseCase resolves structured course queries through four
// ordered tiers, each terminal on success. The tier table makes ordering
// and short-circuit behavior explicit.
type CourseResolveUseCase struct {
	catalog  *CourseCatalog
	embedder ports.Embedder
	dense    ports.DenseSearcher
	sparse   ports.SparseSearcher
	scorer   ports.PairScorer
	cfg      RetrievalConfig

	tiers []resolveTier
}

type resolveTier struct {
	label string
	run   func(ctx context.Context, idx *courseIndex, query string, topK int) ([]domain.CourseRecord, error)
}

func NewCourseResolveUseCase(
	catalog *CourseCatalog,
	embedder ports.Embedder,
	dense ports.DenseSearcher,
	sparse ports.SparseSearcher,
	scorer ports.PairScorer,
	cfg RetrievalConfig,
) *CourseResolveUseCase {
	uc := &CourseResolveUseCase{
		catalog:  catalog,
		embedder: embedder,
		dense:    dense,
		sparse:   sparse,
		scorer:   scorer,
		cfg:      cfg.normalize(),
	}
	uc.tiers = []resolveTier{
		{label: TierCode, run: uc.tierCodeMatch},
		{label: TierFuzzyName, run: uc.tierFuzzyName},
		{label: TierInstructor, run: uc.tierInstructor},
		{label: TierSemantic, run: uc.tierSemantic},
	}
	return uc
}

// RetrieveCourses walks the tier table in order and returns the first
// non-empty result with the label of the tier that produced it. Tier
// errors propagate only when no earlier tier matched; an exhausted
// waterfall with no error returns an empty slice, a valid "nothing found".
func (uc *CourseResolveUseCase) RetrieveCourses(
	ctx context.Context,
	query string,
	topK int,
) ([]domain.CourseRecord, string, error) {
	if topK <= 0 {
		topK = uc.cfg.RerankWidth
	}
	idx := uc.catalog.snapshot()

	for _, tier := range uc.tiers {
		matches, err := tier.run(ctx, idx, query, topK)
		if err != nil {
			return nil, tier.label, fmt.Errorf("%s: %w", tier.label, err)
		}
		if len(matches) > 0 {
			if len(matches) > topK {
				matches = matches[:topK]
			}
			return matches, tier.label, nil
		}
	}
	return nil, TierSemantic, nil
}

// Tier 1: extract code candidates, exact lookup, wildcard hundred-block
// expansion, whole-query-as-code probe.
func (uc *CourseResolveUseCase) tierCodeMatch(
	_ context.Context,
	idx *courseIndex,
	query string,
	_ int,
) ([]domain.CourseRecord, error) {
	var found []domain.CourseRecord
	seen := make(map[string]struct{})

	add := func(course domain.CourseRecord) {
		if _, ok := seen[course.CodeNormalized]; ok {
			return
		}
		seen[course.CodeNormalized] = struct{}{}
		found = append(found, course)
	}

	for _, m := range courseCodePattern.FindAllStringSubmatch(query, -1) {
		dept, num := m[1], m[2]
		code := domain.NormalizeCourseCode(dept + num)

		if course, ok := idx.byCode[code]; ok {
			add(course)
			continue
		}

		if wildcardDigit.MatchString(num) {
			// Prefix match so a trailing section letter still falls in the
			// wildcarded hundred block.
			pattern, err := regexp.Compile("^" + wildcardDigit.ReplaceAllString(regexp.QuoteMeta(code), `\d`))
			if err != nil {
				continue
			}
			for _, stored := range idx.codes {
				if pattern.MatchString(stored) {
					add(idx.byCode[stored])
				}
			}
		}
	}

	// Bare-code queries carry no surrounding text for the pattern to anchor
	// on; normalizing the whole query covers them.
	if course, ok := idx.byCode[domain.NormalizeCourseCode(strings.TrimSpace(query))]; ok {
		add(course)
	}

	return found, nil
}

// Tier 2: fuzzy match on display names, blending sequence similarity, a
// substring boost and word overlap; keep the max of the three.
func (uc *CourseResolveUseCase) tierFuzzyName(
	_ context.Context,
	idx *courseIndex,
	query string,
	_ int,
) ([]domain.CourseRecord, error) {
	queryLower := strings.ToLower(query)
	threshold := uc.cfg.FuzzyNameThreshold

	type scoredName struct {
		ratio float64
		name  string
	}
	var hits []scoredName

	for _, name := range idx.names {
		ratio := sequenceRatio(queryLower, name)
		if strings.Contains(name, queryLower) || strings.Contains(queryLower, name) {
			if ratio < 0.8 {
				ratio = 0.8
			}
		}
		if overlap := wordOverlapRatio(queryLower, name); overlap > ratio {
			ratio = overlap
		}
		if ratio >= threshold {
			hits = append(hits, scoredName{ratio: ratio, name: name})
		}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		if hits[i].ratio != hits[j].ratio {
			return hits[i].ratio > hits[j].ratio
		}
		return hits[i].name < hits[j].name
	})

	var out []domain.CourseRecord
	seen := make(map[string]struct{})
	for _, hit := range hits {
		for _, course := range idx.byName[hit.name] {
			if _, ok := seen[course.CodeNormalized]; ok {
				continue
			}
			seen[course.CodeNormalized] = struct{}{}
			out = append(out, course)
		}
	}
	return out, nil
}

// Tier 3: strip filler phrases and match the remainder against the
// instructor index by substring either way or sequence similarity.
func (uc *CourseResolveUseCase) tierInstructor(
	_ context.Context,
	idx *courseIndex,
	query string,
	_ int,
) ([]domain.CourseRecord, error) {
	clean := strings.TrimSpace(instructorFiller.ReplaceAllString(strings.ToLower(query), ""))
	if clean == "" {
		return nil, nil
	}
	threshold := uc.cfg.InstructorThreshold

	var matched []domain.CourseRecord
	for _, instructor := range idx.instructors {
		if strings.Contains(instructor, clean) || strings.Contains(clean, instructor) {
			matched = append(matched, idx.byInstructor[instructor]...)
			continue
		}
		if sequenceRatio(clean, instructor) >= threshold {
			matched = append(matched, idx.byInstructor[instructor]...)
		}
	}

	var out []domain.CourseRecord
	seen := make(map[string]struct{})
	for _, course := range matched {
		if _, ok := seen[course.CodeNormalized]; ok {
			continue
		}
		seen[course.CodeNormalized] = struct{}{}
		out = append(out, course)
	}
	return out, nil
}

// Tier 4: dense + sparse over the course collection, RRF fusion keyed by
// normalized code (content prefix fallback), cross-encoder rerank, then map
// hits back to full records skipping unknown codes.
func (uc *CourseResolveUseCase) tierSemantic(
	ctx context.Context,
	idx *courseIndex,
	query string,
	topK int,
) ([]domain.CourseRecord, error) {
	width := topK * 2

	queryVector, err := uc.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embed query: %w", err)
	}
	denseHit, err := uc.dense.Search(ctx, queryVector, width, nil)
	if err != nil {
		return nil, fmt.Errorf("dense search: %w", err)
	}
	sparseHit, err := uc.sparse.SearchLexical(ctx, query, width)
	if err != nil {
		return nil, fmt.Errorf("sparse search: %w", err)
	}

	fused := fuseRRF([]rankedSource{
		{label: sourceDense, weight: 1.0, items: denseHit},
		{label: sourceSparse, weight: 1.0, items: sparseHit},
	}, uc.cfg.RRFK, domain.EvidenceItem.PrefixKey)

	candidates := trimCandidates(fused, width)
	if len(candidates) == 0 {
		return nil, nil
	}

	reranked, err := rerankEvidence(ctx, uc.scorer, query, candidates, topK)
	if err != nil {
		return nil, err
	}

	var out []domain.CourseRecord
	seen := make(map[string]struct{})
	for _, item := range reranked {
		code := domain.NormalizeCourseCode(item.Metadata[domain.MetaCourseCode])
		if code == "" {
			continue
		}
		course, ok := idx.byCode[code]
		if !ok {
			continue
		}
		if _, dup := seen[code]; dup {
			continue
		}
		seen[code] = struct{}{}
		out = append(out, course)
	}
	return out, nil
}
