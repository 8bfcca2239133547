package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/campusmind/campus-assistant/internal/core/domain"
)

const knowledgeCorpus = "knowledge"

type SitemapRepository struct {
	db *sql.DB
}

func NewSitemapRepository(db *sql.DB) *SitemapRepository {
	return &SitemapRepository{db: db}
}

func (r *SitemapRepository) SaveSitemap(ctx context.Context, sitemap *domain.Sitemap) error {
	if sitemap == nil {
		return domain.WrapError(domain.ErrInvalidInput, "save sitemap", errors.New("nil sitemap"))
	}
	payload, err := json.Marshal(sitemap)
	if err != nil {
		return fmt.Errorf("marshal sitemap: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
INSERT INTO sitemaps (corpus, payload, updated_at)
VALUES ($1, $2, $3)
ON CONFLICT (corpus) DO UPDATE SET payload = EXCLUDED.payload, updated_at = EXCLUDED.updated_at
`, knowledgeCorpus, payload, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("upsert sitemap: %w", err)
	}
	return nil
}

func (r *SitemapRepository) LoadSitemap(ctx context.Context) (*domain.Sitemap, error) {
	row := r.db.QueryRowContext(ctx, `SELECT payload FROM sitemaps WHERE corpus = $1`, knowledgeCorpus)

	var payload []byte
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.WrapError(domain.ErrNotFound, "load sitemap", err)
		}
		return nil, fmt.Errorf("scan sitemap: %w", err)
	}

	var sitemap domain.Sitemap
	if err := json.Unmarshal(payload, &sitemap); err != nil {
		return nil, fmt.Errorf("unmarshal sitemap: %w", err)
	}
	return &sitemap, nil
}
