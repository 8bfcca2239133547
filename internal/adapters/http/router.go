package httpadapter

import (
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/campusmind/campus-assistant/internal/config"
	"github.com/campusmind/campus-assistant/internal/core/ports"
	"github.com/campusmind/campus-assistant/internal/core/usecase"
	"github.com/campusmind/campus-assistant/internal/observability/metrics"
)

const (
	defaultMaxInFlight     = 64
	defaultMaxInFlightWait = 2 * time.Second
)

type Router struct {
	chat    ports.ChatService
	courses ports.CourseResolver
	router  ports.QueryRouter
	queue   ports.ReingestQueue
	catalog *usecase.CourseCatalog

	cfg     config.Config
	metrics *metrics.HTTPServerMetrics
}

func NewRouter(
	chat ports.ChatService,
	courses ports.CourseResolver,
	queryRouter ports.QueryRouter,
	queue ports.ReingestQueue,
	catalog *usecase.CourseCatalog,
	cfg config.Config,
	m *metrics.HTTPServerMetrics,
) *Router {
	return &Router{
		chat:    chat,
		courses: courses,
		router:  queryRouter,
		queue:   queue,
		catalog: catalog,
		cfg:     cfg,
		metrics: m,
	}
}

func (rt *Router) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", rt.healthz)
	mux.HandleFunc("/v1/chat", rt.chatHandler)
	mux.HandleFunc("/v1/courses", rt.listCourses)
	mux.HandleFunc("/v1/courses/lookup", rt.lookupCourses)
	mux.HandleFunc("/v1/route", rt.routeQuery)
	mux.HandleFunc("/v1/reingest", rt.reingest)
	if rt.metrics != nil {
		mux.Handle("/metrics", rt.metrics.Handler())
	}

	var handler http.Handler = mux
	handler = backpressureMiddleware(handler, defaultMaxInFlight, defaultMaxInFlightWait)
	handler = rateLimitMiddleware(handler, rt.cfg.RateLimitRPS, rt.cfg.RateLimitBurst)
	handler = metricsMiddleware(handler, rt.metrics, "api")
	handler = accessLogMiddleware(handler)
	handler = requestIDMiddleware(handler)
	return handler
}

func (rt *Router) healthz(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"courses": rt.catalog.Size(),
	})
}

func (rt *Router) chatHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Question string `json:"question"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Question) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "question is required"})
		return
	}

	answer, err := rt.chat.Answer(r.Context(), req.Question)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}

	if rt.metrics != nil && rt.metrics.Retrieval != nil {
		rt.metrics.Retrieval.ObserveIntent(string(answer.Intent))
		if answer.Tier != "" {
			rt.metrics.Retrieval.ObserveTierHit(answer.Tier)
		}
		rt.metrics.Retrieval.ObserveEvidence(len(answer.Sources))
	}

	writeJSON(w, http.StatusOK, answer)
}

func (rt *Router) lookupCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Query string `json:"query"`
		TopK  int    `json:"top_k"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	if strings.TrimSpace(req.Query) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query is required"})
		return
	}
	if req.TopK <= 0 {
		req.TopK = 5
	}

	courses, tier, err := rt.courses.RetrieveCourses(r.Context(), req.Query, req.TopK)
	if err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	if rt.metrics != nil && rt.metrics.Retrieval != nil && tier != "" {
		rt.metrics.Retrieval.ObserveTierHit(tier)
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"courses": courses,
		"tier":    tier,
	})
}

// listCourses queries the serving catalog snapshot directly: ?dept= lists a
// department prefix, ?keyword= searches names and descriptions.
func (rt *Router) listCourses(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	dept := strings.TrimSpace(r.URL.Query().Get("dept"))
	keyword := strings.TrimSpace(r.URL.Query().Get("keyword"))
	switch {
	case dept != "":
		writeJSON(w, http.StatusOK, map[string]any{"courses": rt.catalog.CoursesByDepartment(dept)})
	case keyword != "":
		writeJSON(w, http.StatusOK, map[string]any{"courses": rt.catalog.SearchKeyword(keyword)})
	default:
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "dept or keyword parameter is required"})
	}
}

func (rt *Router) routeQuery(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "query parameter q is required"})
		return
	}

	decision := rt.router.Route(r.Context(), query)
	writeJSON(w, http.StatusOK, decision)
}

func (rt *Router) reingest(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "method not allowed"})
		return
	}

	var req struct {
		Corpus string `json:"corpus"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid json"})
		return
	}
	corpus := strings.ToLower(strings.TrimSpace(req.Corpus))
	if corpus != "courses" && corpus != "knowledge" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "corpus must be \"courses\" or \"knowledge\""})
		return
	}

	if err := rt.queue.PublishReingest(r.Context(), corpus); err != nil {
		writeJSON(w, mapErrorToHTTPStatus(err), map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusAccepted, map[string]string{"status": "queued", "corpus": corpus})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
