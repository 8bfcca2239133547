package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// RetrievalConfig carries the pipeline tunables. Zero values fall back to
// the defaults the thresholds were calibrated with.
type RetrievalConfig struct {
	RetrievalWidth      int
	RerankWidth         int
	RRFK                int
	ScopedWeight        float64
	FuzzyNameThreshold  float64
	InstructorThreshold float64
}

func (c RetrievalConfig) normalize() RetrievalConfig {
	out := c
	if out.RetrievalWidth <= 0 {
		out.RetrievalWidth = 10
	}
	if out.RerankWidth <= 0 {
		out.RerankWidth = 5
	}
	if out.RRFK <= 0 {
		out.RRFK = DefaultRRFK
	}
	if out.ScopedWeight <= 0 {
		out.ScopedWeight = 1.2
	}
	if out.FuzzyNameThreshold <= 0 {
		out.FuzzyNameThreshold = 0.6
	}
	if out.InstructorThreshold <= 0 {
		out.InstructorThreshold = 0.5
	}
	return out
}

// RetrieveUseCase is the hybrid fusion pipeline over the knowledge corpus:
// sparse keyword search, unfiltered dense search and (when the router
// supplied a scope) section-filtered dense search, fused with weighted RRF
// and reranked by the cross-encoder.
type RetrieveUseCase struct {
	embedder ports.Embedder
	dense    ports.DenseSearcher
	sparse   ports.SparseSearcher
	scorer   ports.PairScorer
	cfg      RetrievalConfig
}

func NewRetrieveUseCase(
	embedder ports.Embedder,
	dense ports.DenseSearcher,
	sparse ports.SparseSearcher,
	scorer ports.PairScorer,
	cfg RetrievalConfig,
) *RetrieveUseCase {
	return &RetrieveUseCase{
		embedder: embedder,
		dense:    dense,
		sparse:   sparse,
		scorer:   scorer,
		cfg:      cfg.normalize(),
	}
}

const (
	sourceSparse      = "sparse"
	sourceDense       = "dense"
	sourceDenseScoped = "dense_scoped"
)

// RetrieveGeneral runs the three retrieval legs concurrently, fuses and
// reranks. An empty scoped leg degrades to two-source fusion; a failed leg
// is logged and skipped as long as at least one leg returned. If the
// reranker is unavailable the fused order is returned instead, logged
// explicitly.
func (uc *RetrieveUseCase) RetrieveGeneral(
	ctx context.Context,
	query string,
	route *domain.RouteDecision,
) ([]domain.EvidenceItem, error) {
	width := uc.cfg.RetrievalWidth

	sparseQuery := query
	var filter *domain.SectionFilter
	if route != nil {
		sparseQuery = withKeywordHints(query, route.Keywords)
		filter = route.Filter
	}

	var (
		wg        sync.WaitGroup
		sparseHit []domain.EvidenceItem
		denseHit  []domain.EvidenceItem
		scopedHit []domain.EvidenceItem
		sparseErr error
		denseErr  error
		scopedErr error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		sparseHit, sparseErr = uc.sparse.SearchLexical(ctx, sparseQuery, width)
	}()

	queryVector, embedErr := uc.embedder.EmbedQuery(ctx, query)
	if embedErr != nil {
		denseErr = fmt.Errorf("embed query: %w", embedErr)
		scopedErr = denseErr
	} else {
		wg.Add(1)
		go func() {
			defer wg.Done()
			denseHit, denseErr = uc.dense.Search(ctx, queryVector, width, nil)
		}()
		if filter != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				scopedHit, scopedErr = uc.dense.Search(ctx, queryVector, width, filter)
			}()
		}
	}
	wg.Wait()

	sources := make([]rankedSource, 0, 3)
	if sparseErr != nil {
		slog.Warn("retrieval_leg_failed", "source", sourceSparse, "error", sparseErr)
	} else {
		sources = append(sources, rankedSource{label: sourceSparse, weight: 1.0, items: sparseHit})
	}
	if denseErr != nil {
		slog.Warn("retrieval_leg_failed", "source", sourceDense, "error", denseErr)
	} else {
		sources = append(sources, rankedSource{label: sourceDense, weight: 1.0, items: denseHit})
	}
	if filter != nil {
		if scopedErr != nil {
			slog.Warn("retrieval_leg_failed", "source", sourceDenseScoped, "error", scopedErr)
		} else if len(scopedHit) > 0 {
			sources = append(sources, rankedSource{label: sourceDenseScoped, weight: uc.cfg.ScopedWeight, items: scopedHit})
		}
	}

	if len(sources) == 0 {
		if sparseErr != nil {
			return nil, fmt.Errorf("all retrieval sources failed: %w", sparseErr)
		}
		return nil, fmt.Errorf("all retrieval sources failed: %w", denseErr)
	}

	fused := fuseRRF(sources, uc.cfg.RRFK, domain.EvidenceItem.DedupKey)
	candidates := trimCandidates(fused, 2*width)
	if len(candidates) == 0 {
		return nil, nil
	}

	reranked, err := rerankEvidence(ctx, uc.scorer, query, candidates, uc.cfg.RerankWidth)
	if err != nil {
		slog.Warn("rerank_fallback_fused_order", "error", err, "candidates", len(candidates))
		return trimCandidates(candidates, uc.cfg.RerankWidth), nil
	}
	return reranked, nil
}

func withKeywordHints(query string, hints []string) string {
	if len(hints) == 0 {
		return query
	}
	var b strings.Builder
	b.WriteString(query)
	for _, hint := range hints {
		hint = strings.TrimSpace(hint)
		if hint == "" {
			continue
		}
		b.WriteString(" ")
		b.WriteString(hint)
	}
	return b.String()
}
