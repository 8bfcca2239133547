package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

// RetrievalMetrics tracks the routing and retrieval core: which intents the
// router resolves, which waterfall tier satisfies course queries, and how
// often reranking degrades to fused order.
type RetrievalMetrics struct {
	routerIntents      *prometheus.CounterVec
	routerFallbacks    prometheus.Counter
	waterfallTierHits  *prometheus.CounterVec
	rerankFallbacks    prometheus.Counter
	fusedCandidates    prometheus.Histogram
	evidenceReturned   prometheus.Histogram
	emptyResultQueries prometheus.Counter
}

func newRetrievalMetrics(registry *prometheus.Registry, service string) *RetrievalMetrics {
	constLabels := prometheus.Labels{"service": service}

	routerIntents := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "campus",
			Subsystem:   "router",
			Name:        "intents_total",
			Help:        "Route decisions by resolved intent.",
			ConstLabels: constLabels,
		},
		[]string{"intent"},
	)
	routerFallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "campus",
			Subsystem:   "router",
			Name:        "classifier_fallbacks_total",
			Help:        "Routes served by pre-filter heuristics after classifier failure.",
			ConstLabels: constLabels,
		},
	)
	waterfallTierHits := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace:   "campus",
			Subsystem:   "resolver",
			Name:        "tier_hits_total",
			Help:        "Course queries satisfied per waterfall tier.",
			ConstLabels: constLabels,
		},
		[]string{"tier"},
	)
	rerankFallbacks := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "campus",
			Subsystem:   "retrieval",
			Name:        "rerank_fallbacks_total",
			Help:        "Retrievals that fell back to fused order after a scorer failure.",
			ConstLabels: constLabels,
		},
	)
	fusedCandidates := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "campus",
			Subsystem:   "retrieval",
			Name:        "fused_candidates",
			Help:        "Candidate count entering the reranker.",
			Buckets:     []float64{0, 1, 2, 5, 10, 20, 40, 80},
			ConstLabels: constLabels,
		},
	)
	evidenceReturned := prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace:   "campus",
			Subsystem:   "retrieval",
			Name:        "evidence_returned",
			Help:        "Evidence items returned per query.",
			Buckets:     []float64{0, 1, 2, 3, 5, 8, 13},
			ConstLabels: constLabels,
		},
	)
	emptyResultQueries := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace:   "campus",
			Subsystem:   "retrieval",
			Name:        "empty_results_total",
			Help:        "Queries that completed with no matching evidence.",
			ConstLabels: constLabels,
		},
	)

	registry.MustRegister(
		routerIntents, routerFallbacks, waterfallTierHits,
		rerankFallbacks, fusedCandidates, evidenceReturned, emptyResultQueries,
	)

	return &RetrievalMetrics{
		routerIntents:      routerIntents,
		routerFallbacks:    routerFallbacks,
		waterfallTierHits:  waterfallTierHits,
		rerankFallbacks:    rerankFallbacks,
		fusedCandidates:    fusedCandidates,
		evidenceReturned:   evidenceReturned,
		emptyResultQueries: emptyResultQueries,
	}
}

func (m *RetrievalMetrics) ObserveIntent(intent string) {
	m.routerIntents.WithLabelValues(intent).Inc()
}

func (m *RetrievalMetrics) ObserveRouterFallback() {
	m.routerFallbacks.Inc()
}

func (m *RetrievalMetrics) ObserveTierHit(tier string) {
	m.waterfallTierHits.WithLabelValues(tier).Inc()
}

func (m *RetrievalMetrics) ObserveRerankFallback() {
	m.rerankFallbacks.Inc()
}

func (m *RetrievalMetrics) ObserveFusedCandidates(n int) {
	m.fusedCandidates.Observe(float64(n))
}

func (m *RetrievalMetrics) ObserveEvidence(n int) {
	m.evidenceReturned.Observe(float64(n))
	if n == 0 {
		m.emptyResultQueries.Inc()
	}
}
