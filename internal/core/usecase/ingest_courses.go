package usecase

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/campusmind/campus-assistant/internal/core/domain"
	"github.com/campusmind/campus-assistant/internal/core/ports"
)

// IngestCoursesUseCase rebuilds the course corpus wholesale: load sources,
// drop records with unparseable codes, persist, reindex the vector
// collection and swap the serving catalog snapshot.
type IngestCoursesUseCase struct {
	source   ports.CourseSource
	repo     ports.CourseRepository
	embedder ports.Embedder
	indexer  ports.VectorIndexer
	catalog  *CourseCatalog
}

func NewIngestCoursesUseCase(
	source ports.CourseSource,
	repo ports.CourseRepository,
	embedder ports.Embedder,
	indexer ports.VectorIndexer,
	catalog *CourseCatalog,
) *IngestCoursesUseCase {
	return &IngestCoursesUseCase{
		source:   source,
		repo:     repo,
		embedder: embedder,
		indexer:  indexer,
		catalog:  catalog,
	}
}

func (uc *IngestCoursesUseCase) IngestCourses(ctx context.Context) error {
	loaded, err := uc.source.LoadCourses(ctx)
	if err != nil {
		return fmt.Errorf("load courses: %w", err)
	}

	courses := make([]domain.CourseRecord, 0, len(loaded))
	for _, course := range loaded {
		code := domain.NormalizeCourseCode(course.Code)
		if code == "" {
			slog.Warn("course_skipped_malformed_code", "source_file", course.SourceFile, "name", course.Name)
			continue
		}
		course.CodeNormalized = code
		courses = append(courses, course)
	}
	if len(courses) == 0 {
		return fmt.Errorf("load courses: no valid records")
	}

	if err := uc.repo.ReplaceCourses(ctx, courses); err != nil {
		return fmt.Errorf("replace courses: %w", err)
	}

	items := make([]domain.EvidenceItem, 0, len(courses))
	texts := make([]string, 0, len(courses))
	for _, course := range courses {
		items = append(items, course.Evidence())
		texts = append(texts, course.Text)
	}

	vectors, err := uc.embedder.Embed(ctx, texts)
	if err != nil {
		return fmt.Errorf("embed courses: %w", err)
	}
	if len(vectors) != len(items) {
		return fmt.Errorf("embed courses: got %d vectors for %d records", len(vectors), len(items))
	}
	if err := uc.indexer.ReplaceEvidence(ctx, items, vectors); err != nil {
		return fmt.Errorf("index courses: %w", err)
	}

	uc.catalog.Swap(courses)
	slog.Info("courses_ingested", "count", len(courses), "skipped", len(loaded)-len(courses))
	return nil
}
