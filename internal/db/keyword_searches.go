package db

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sellerdesk/internal/models"
)

const keywordSearchColumns = `id, owner, marketplace, asins, seeds, category, keyword_count, result, created_at`

// CreateKeywordSearch records a keyword research run.
func (d *DB) CreateKeywordSearch(ctx context.Context, s *models.KeywordSearch) error {
	if s.ASINs == nil {
		s.ASINs = []string{}
	}
	if s.Seeds == nil {
		s.Seeds = []string{}
	}
	return d.Pool.QueryRow(ctx, `
		INSERT INTO keyword_searches (owner, marketplace, asins, seeds, category, keyword_count, result)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`, s.Owner, s.Marketplace, s.ASINs, s.Seeds, s.Category, s.KeywordCount, []byte(s.Result),
	).Scan(&s.ID, &s.CreatedAt)
}

// ListKeywordSearches returns an owner's most recent runs without their
// result payloads.
func (d *DB) ListKeywordSearches(ctx context.Context, owner string, limit int) ([]models.KeywordSearch, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT id, owner, marketplace, asins, seeds, category, keyword_count, created_at
		FROM keyword_searches
		WHERE owner = $1
		ORDER BY created_at DESC
		LIMIT $2
	`, owner, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	searches := []models.KeywordSearch{}
	for rows.Next() {
		var s models.KeywordSearch
		if err := rows.Scan(&s.ID, &s.Owner, &s.Marketplace, &s.ASINs, &s.Seeds, &s.Category, &s.KeywordCount, &s.CreatedAt); err != nil {
			return nil, err
		}
		searches = append(searches, s)
	}
	return searches, rows.Err()
}

// GetKeywordSearch returns one run, including its result, owned by owner.
func (d *DB) GetKeywordSearch(ctx context.Context, owner string, id uuid.UUID) (*models.KeywordSearch, error) {
	var s models.KeywordSearch
	var result []byte
	err := d.Pool.QueryRow(ctx, `SELECT `+keywordSearchColumns+` FROM keyword_searches WHERE id = $1 AND owner = $2`, id, owner).
		Scan(&s.ID, &s.Owner, &s.Marketplace, &s.ASINs, &s.Seeds, &s.Category, &s.KeywordCount, &result, &s.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSearchNotFound
	}
	if err != nil {
		return nil, err
	}
	s.Result = result
	return &s, nil
}
