package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

type CourseRepository struct {
	db *sql.DB
}

func NewCourseRepository(db *sql.DB) *CourseRepository {
	return &CourseRepository{db: db}
}

func OpenDB(dsn string) (*sql.DB, error) {
	db, err := sql.Open("pgx", dsn)
	if err != nil {
		return nil, fmt.Errorf("sql open: %w", err)
	}
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(10)
	db.SetConnMaxLifetime(30 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("db ping: %w", err)
	}
	return db, nil
}

func (r *CourseRepository) EnsureSchema(ctx context.Context) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin schema tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	// Serialize bootstrap DDL across api/worker startups.
	if _, err := tx.ExecContext(ctx, `SELECT pg_advisory_xact_lock($1)`, int64(2026040201)); err != nil {
		return fmt.Errorf("acquire schema lock: %w", err)
	}

	const query = `
CREATE TABLE IF NOT EXISTS courses (
	code_normalized TEXT PRIMARY KEY,
	code TEXT NOT NULL,
	name TEXT NOT NULL,
	credits TEXT,
	offered_to TEXT,
	instructor TEXT,
	description TEXT,
	prerequisites TEXT,
	topics JSONB NOT NULL DEFAULT '[]'::jsonb,
	source_file TEXT,
	full_text TEXT NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_courses_name ON courses(name);

CREATE TABLE IF NOT EXISTS sitemaps (
	corpus TEXT PRIMARY KEY,
	payload JSONB NOT NULL,
	updated_at TIMESTAMPTZ NOT NULL
);
`
	if _, err := tx.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("execute schema ddl: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit schema tx: %w", err)
	}
	return nil
}

// ReplaceCourses swaps the whole catalog in one transaction so readers
// never observe a half-loaded state.
func (r *CourseRepository) ReplaceCourses(ctx context.Context, courses []domain.CourseRecord) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx, `DELETE FROM courses`); err != nil {
		return fmt.Errorf("clear courses: %w", err)
	}

	now := time.Now().UTC()
	for _, course := range courses {
		topicsJSON, err := json.Marshal(course.Topics)
		if err != nil {
			return fmt.Errorf("marshal topics for %s: %w", course.Code, err)
		}
		_, err = tx.ExecContext(ctx, `
INSERT INTO courses (
	code_normalized, code, name, credits, offered_to, instructor, description, prerequisites, topics, source_file, full_text, updated_at
) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
ON CONFLICT (code_normalized) DO UPDATE SET
	code = EXCLUDED.code,
	name = EXCLUDED.name,
	credits = EXCLUDED.credits,
	offered_to = EXCLUDED.offered_to,
	instructor = EXCLUDED.instructor,
	description = EXCLUDED.description,
	prerequisites = EXCLUDED.prerequisites,
	topics = EXCLUDED.topics,
	source_file = EXCLUDED.source_file,
	full_text = EXCLUDED.full_text,
	updated_at = EXCLUDED.updated_at
`,
			course.CodeNormalized, course.Code, course.Name, course.Credits, course.OfferedTo,
			course.Instructor, course.Description, course.Prerequisites, topicsJSON,
			course.SourceFile, course.Text, now,
		)
		if err != nil {
			return fmt.Errorf("insert course %s: %w", course.Code, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit replace tx: %w", err)
	}
	return nil
}

func (r *CourseRepository) ListCourses(ctx context.Context) ([]domain.CourseRecord, error) {
	rows, err := r.db.QueryContext(ctx, `
SELECT code_normalized, code, name, credits, offered_to, instructor, description, prerequisites, topics, source_file, full_text
FROM courses
ORDER BY code_normalized
`)
	if err != nil {
		return nil, fmt.Errorf("query courses: %w", err)
	}
	defer rows.Close()

	var out []domain.CourseRecord
	for rows.Next() {
		var course domain.CourseRecord
		var topicsRaw []byte
		err := rows.Scan(
			&course.CodeNormalized, &course.Code, &course.Name, &course.Credits, &course.OfferedTo,
			&course.Instructor, &course.Description, &course.Prerequisites, &topicsRaw,
			&course.SourceFile, &course.Text,
		)
		if err != nil {
			return nil, fmt.Errorf("scan course: %w", err)
		}
		if len(topicsRaw) > 0 {
			if err := json.Unmarshal(topicsRaw, &course.Topics); err != nil {
				return nil, fmt.Errorf("unmarshal topics for %s: %w", course.Code, err)
			}
		}
		out = append(out, course)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate courses: %w", err)
	}
	return out, nil
}
