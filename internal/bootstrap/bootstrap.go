package bootstrap

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusmind/campus-assistant/internal/config"
	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
	"github.com/campusmind/campus-assistant/internal/core/usecase"
	"github.com/campusmind/campus-assistant/internal/infrastructure/chunking"
	"github.com/campusmind/campus-assistant/internal/infrastructure/extractor/coursefiles"
	"github.com/campusmind/campus-assistant/internal/infrastructure/extractor/knowledgedir"
	"github.com/campusmind/campus-assistant/internal/infrastructure/extractor/xlsxcatalog"
	"github.com/campusmind/campus-assistant/internal/infrastructure/llm/ollama"
	"github.com/campusmind/campus-assistant/internal/infrastructure/queue/nats"
	"github.com/campusmind/campus-assistant/internal/infrastructure/repository/postgres"
	"github.com/campusmind/campus-assistant/internal/infrastructure/resilience"
	"github.com/campusmind/campus-assistant/internal/infrastructure/scoring/crossenc"
	"github.com/campusmind/campus-assistant/internal/infrastructure/vector/qdrant"
)

type App struct {
	Config config.Config

	Queue   ports.ReingestQueue
	Catalog *usecase.CourseCatalog
	Sitemap *usecase.SitemapHolder

	RouterUC   ports.QueryRouter
	RetrieveUC ports.GeneralRetriever
	CourseUC   ports.CourseResolver
	ChatUC     ports.ChatService

	IngestCoursesUC   *usecase.IngestCoursesUseCase
	IngestKnowledgeUC *usecase.IngestKnowledgeUseCase

	closeFn func()
}

func New(ctx context.Context, cfg config.Config) (*App, error) {
	db, err := postgres.OpenDB(cfg.PostgresDSN)
	if err != nil {
		return nil, fmt.Errorf("open postgres: %w", err)
	}
	courseRepo := postgres.NewCourseRepository(db)
	if err := courseRepo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("ensure schema: %w", err)
	}
	sitemapRepo := postgres.NewSitemapRepository(db)

	exec := resilience.NewExecutor(resilience.DefaultPolicy())

	queue, err := nats.NewWithOptions(cfg.NATSURL, cfg.NATSSubject, nats.Options{
		ResilienceExecutor: exec,
	})
	if err != nil {
		return nil, fmt.Errorf("init message queue: %w", err)
	}

	ollamaClient := ollama.New(cfg.OllamaURL, cfg.OllamaGenModel, cfg.OllamaEmbedModel, exec)
	embedder := ollama.NewEmbedder(ollamaClient)
	generator := ollama.NewGenerator(ollamaClient)
	scorer := crossenc.New(cfg.RerankerURL, cfg.RerankerModel, exec)

	knowledgeVectors := qdrant.New(cfg.QdrantURL, cfg.QdrantKnowledgeCollName, exec)
	courseVectors := qdrant.New(cfg.QdrantURL, cfg.QdrantCourseCollName, exec)

	catalog := usecase.NewCourseCatalog(loadCatalog(ctx, courseRepo))
	sitemap := usecase.NewSitemapHolder(loadSitemap(ctx, sitemapRepo))

	retrievalCfg := usecase.RetrievalConfig{
		RetrievalWidth:      cfg.RetrievalWidth,
		RerankWidth:         cfg.RerankWidth,
		RRFK:                cfg.RRFK,
		ScopedWeight:        cfg.ScopedSearchWeight,
		FuzzyNameThreshold:  cfg.FuzzyNameThreshold,
		InstructorThreshold: cfg.InstructorThreshold,
	}

	routerUC := usecase.NewRouterUseCase(generator, sitemap)
	retrieveUC := usecase.NewRetrieveUseCase(embedder, knowledgeVectors, knowledgeVectors, scorer, retrievalCfg)
	courseUC := usecase.NewCourseResolveUseCase(catalog, embedder, courseVectors, courseVectors, scorer, retrievalCfg)
	chatUC := usecase.NewChatUseCase(routerUC, retrieveUC, courseUC, generator, cfg.RerankWidth)

	courseSource := buildCourseSource(cfg)
	knowledgeSource := knowledgedir.New(cfg.KnowledgeDir)
	chunker := chunking.NewHeaderSplitter()

	ingestCoursesUC := usecase.NewIngestCoursesUseCase(courseSource, courseRepo, embedder, courseVectors, catalog)
	ingestKnowledgeUC := usecase.NewIngestKnowledgeUseCase(knowledgeSource, chunker, embedder, knowledgeVectors, sitemapRepo, sitemap)

	return &App{
		Config: cfg,

		Queue:   queue,
		Catalog: catalog,
		Sitemap: sitemap,

		RouterUC:   routerUC,
		RetrieveUC: retrieveUC,
		CourseUC:   courseUC,
		ChatUC:     chatUC,

		IngestCoursesUC:   ingestCoursesUC,
		IngestKnowledgeUC: ingestKnowledgeUC,

		closeFn: func() {
			queue.Close()
			_ = db.Close()
		},
	}, nil
}

func (a *App) Close() {
	if a.closeFn != nil {
		a.closeFn()
	}
}

// buildCourseSource prefers the scraped JSON directory and merges in the
// registrar's XLSX catalog for codes the scraper missed.
func buildCourseSource(cfg config.Config) ports.CourseSource {
	var sources []ports.CourseSource
	if cfg.CourseJSONDir != "" {
		sources = append(sources, coursefiles.New(cfg.CourseJSONDir))
	}
	if cfg.CourseCatalogXLS != "" {
		sources = append(sources, xlsxcatalog.New(cfg.CourseCatalogXLS, ""))
	}
	return mergedCourseSource(sources)
}

type mergedCourseSource []ports.CourseSource

func (m mergedCourseSource) LoadCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	if len(m) == 0 {
		return nil, fmt.Errorf("no course source configured")
	}

	seen := make(map[string]bool)
	var out []domain.CourseRecord
	for i, source := range m {
		courses, err := source.LoadCourses(ctx)
		if err != nil {
			// The first source is authoritative; later ones supplement.
			if i == 0 {
				return nil, err
			}
			slog.Warn("supplementary_course_source_failed", "error", err)
			continue
		}
		for _, course := range courses {
			key := domain.NormalizeCourseCode(course.Code)
			if key != "" && seen[key] {
				continue
			}
			if key != "" {
				seen[key] = true
			}
			out = append(out, course)
		}
	}
	return out, nil
}

func loadCatalog(ctx context.Context, repo ports.CourseRepository) []domain.CourseRecord {
	courses, err := repo.ListCourses(ctx)
	if err != nil {
		slog.Warn("catalog_load_failed", "error", err)
		return nil
	}
	slog.Info("catalog_restored", "count", len(courses))
	return courses
}

func loadSitemap(ctx context.Context, repo ports.SitemapRepository) *domain.Sitemap {
	sitemap, err := repo.LoadSitemap(ctx)
	if err != nil {
		if !domain.IsKind(err, domain.ErrNotFound) {
			slog.Warn("sitemap_load_failed", "error", err)
		}
		return nil
	}
	return sitemap
}
