package usecase

import (
	"sort"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

// DefaultRRFK flattens the reciprocal-rank contribution curve so a single
// top hit in one source cannot dominate the fused ranking.
const DefaultRRFK = 60

type rankedSource struct {
	label  string
	weight float64
	items  []domain.EvidenceItem
}

type fusedCandidate struct {
	item  domain.EvidenceItem
	score float64
	order int
}

// keyFunc picks the dedup key for a fusion pass. The general corpus keys on
// exact content; the course corpus keys on normalized code with a content
// prefix fallback.
type keyFunc func(domain.EvidenceItem) string

// fuseRRF merges ranked lists with weighted reciprocal-rank fusion. An item
// at 0-based rank r in a source of weight w contributes w/(K+r+1); scores
// for the same key accumulate across sources. Output is sorted by score
// descending, ties broken by first-seen order. Empty sources contribute
// nothing.
func fuseRRF(sources []rankedSource, rrfK int, key keyFunc) []domain.EvidenceItem {
	if rrfK <= 0 {
		rrfK = DefaultRRFK
	}
	if key == nil {
		key = domain.EvidenceItem.DedupKey
	}

	acc := make(map[string]*fusedCandidate)
	next := 0
	for _, src := range sources {
		for rank, item := range src.items {
			k := key(item)
			candidate, ok := acc[k]
			if !ok {
				candidate = &fusedCandidate{item: item, order: next}
				next++
				acc[k] = candidate
			}
			candidate.score += src.weight / float64(rrfK+rank+1)
			candidate.item.Sources = appendSourceTag(candidate.item.Sources, src.label)
		}
	}

	out := make([]*fusedCandidate, 0, len(acc))
	for _, c := range acc {
		out = append(out, c)
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].score != out[j].score {
			return out[i].score > out[j].score
		}
		return out[i].order < out[j].order
	})

	fused := make([]domain.EvidenceItem, 0, len(out))
	for _, c := range out {
		item := c.item
		item.Score = c.score
		fused = append(fused, item)
	}
	return fused
}

func appendSourceTag(tags []string, label string) []string {
	if label == "" {
		return tags
	}
	for _, tag := range tags {
		if tag == label {
			return tags
		}
	}
	return append(tags, label)
}

func trimCandidates(items []domain.EvidenceItem, limit int) []domain.EvidenceItem {
	if limit <= 0 || len(items) <= limit {
		return items
	}
	return items[:limit]
}
