package usecase

import (
	"context"
	"fmt"
	"sort"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// rerankEvidence scores all candidates against the query in one batched
// cross-encoder call, sorts by the returned scalar and truncates to limit.
// Scorer failures propagate; the caller decides whether to fall back to the
// fused order.
func rerankEvidence(
	ctx context.Context,
	scorer ports.PairScorer,
	query string,
	candidates []domain.EvidenceItem,
	limit int,
) ([]domain.EvidenceItem, error) {
	if len(candidates) == 0 {
		return candidates, nil
	}

	texts := make([]string, len(candidates))
	for i, c := range candidates {
		texts[i] = c.Content
	}

	scores, err := scorer.ScorePairs(ctx, query, texts)
	if err != nil {
		return nil, fmt.Errorf("score pairs: %w", err)
	}
	if len(scores) != len(candidates) {
		return nil, fmt.Errorf("score pairs: got %d scores for %d candidates", len(scores), len(candidates))
	}

	reranked := make([]domain.EvidenceItem, len(candidates))
	copy(reranked, candidates)
	for i := range reranked {
		reranked[i].Score = scores[i]
	}

	sort.SliceStable(reranked, func(i, j int) bool {
		return reranked[i].Score > reranked[j].Score
	})

	return trimCandidates(reranked, limit), nil
}
