package db

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"sellerdesk/internal/models"
)

// draftColumns is the standard column list for draft queries.
const draftColumns = `id, owner, product_name, category, marketplace, template_id, title, bullets,
	description, backend_terms, keywords, issues, status, created_at, updated_at, finalized_at`

func scanDraft(row pgx.Row) (*models.ListingDraft, error) {
	var d models.ListingDraft
	err := row.Scan(
		&d.ID,
		&d.Owner,
		&d.ProductName,
		&d.Category,
		&d.Marketplace,
		&d.TemplateID,
		&d.Title,
		&d.Bullets,
		&d.Description,
		&d.BackendTerms,
		&d.Keywords,
		&d.Issues,
		&d.Status,
		&d.CreatedAt,
		&d.UpdatedAt,
		&d.FinalizedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrDraftNotFound
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func scanDrafts(rows pgx.Rows) ([]models.ListingDraft, error) {
	defer rows.Close()

	drafts := []models.ListingDraft{}
	for rows.Next() {
		d, err := scanDraft(rows)
		if err != nil {
			return nil, err
		}
		drafts = append(drafts, *d)
	}
	return drafts, rows.Err()
}

func jsonList[T any](v []T) []T {
	if v == nil {
		return []T{}
	}
	return v
}

// CreateDraft inserts a new draft.
func (d *DB) CreateDraft(ctx context.Context, draft *models.ListingDraft) error {
	if draft.Status == "" {
		draft.Status = models.DraftStatusDraft
	}
	return d.Pool.QueryRow(ctx, `
		INSERT INTO listing_drafts (owner, product_name, category, marketplace, template_id, title,
			bullets, description, backend_terms, keywords, issues, status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
		RETURNING id, created_at, updated_at
	`,
		draft.Owner,
		draft.ProductName,
		draft.Category,
		draft.Marketplace,
		draft.TemplateID,
		draft.Title,
		jsonList(draft.Bullets),
		draft.Description,
		draft.BackendTerms,
		jsonList(draft.Keywords),
		jsonList(draft.Issues),
		draft.Status,
	).Scan(&draft.ID, &draft.CreatedAt, &draft.UpdatedAt)
}

// GetDraft returns a draft owned by owner.
func (d *DB) GetDraft(ctx context.Context, owner string, id uuid.UUID) (*models.ListingDraft, error) {
	return scanDraft(d.Pool.QueryRow(ctx, `SELECT `+draftColumns+` FROM listing_drafts WHERE id = $1 AND owner = $2`, id, owner))
}

// ListDrafts returns an owner's drafts, most recently updated first.
// An empty status matches every status.
func (d *DB) ListDrafts(ctx context.Context, owner, status string, limit int) ([]models.ListingDraft, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	rows, err := d.Pool.Query(ctx, `
		SELECT `+draftColumns+`
		FROM listing_drafts
		WHERE owner = $1 AND ($2 = '' OR status = $2)
		ORDER BY updated_at DESC
		LIMIT $3
	`, owner, status, limit)
	if err != nil {
		return nil, err
	}
	return scanDrafts(rows)
}

// UpdateDraft saves a non-final draft's content and issues.
func (d *DB) UpdateDraft(ctx context.Context, draft *models.ListingDraft) error {
	err := d.Pool.QueryRow(ctx, `
		UPDATE listing_drafts
		SET product_name = $3, category = $4, marketplace = $5, template_id = $6, title = $7,
			bullets = $8, description = $9, backend_terms = $10, keywords = $11, issues = $12,
			updated_at = NOW()
		WHERE id = $1 AND owner = $2 AND status = 'draft'
		RETURNING updated_at
	`,
		draft.ID,
		draft.Owner,
		draft.ProductName,
		draft.Category,
		draft.Marketplace,
		draft.TemplateID,
		draft.Title,
		jsonList(draft.Bullets),
		draft.Description,
		draft.BackendTerms,
		jsonList(draft.Keywords),
		jsonList(draft.Issues),
	).Scan(&draft.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d.missingOrFinal(ctx, draft.Owner, draft.ID)
	}
	return err
}

// FinalizeDraft stores the final content and marks the draft final.
func (d *DB) FinalizeDraft(ctx context.Context, draft *models.ListingDraft) error {
	err := d.Pool.QueryRow(ctx, `
		UPDATE listing_drafts
		SET title = $3, bullets = $4, description = $5, backend_terms = $6, issues = $7,
			status = 'final', finalized_at = NOW(), updated_at = NOW()
		WHERE id = $1 AND owner = $2 AND status = 'draft'
		RETURNING status, updated_at, finalized_at
	`,
		draft.ID,
		draft.Owner,
		draft.Title,
		jsonList(draft.Bullets),
		draft.Description,
		draft.BackendTerms,
		jsonList(draft.Issues),
	).Scan(&draft.Status, &draft.UpdatedAt, &draft.FinalizedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return d.missingOrFinal(ctx, draft.Owner, draft.ID)
	}
	return err
}

func (d *DB) missingOrFinal(ctx context.Context, owner string, id uuid.UUID) error {
	var status string
	err := d.Pool.QueryRow(ctx, `SELECT status FROM listing_drafts WHERE id = $1 AND owner = $2`, id, owner).Scan(&status)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrDraftNotFound
	}
	if err != nil {
		return err
	}
	return ErrDraftFinalized
}

// CountDraftsByStatus returns the number of drafts per status.
func (d *DB) CountDraftsByStatus(ctx context.Context) (map[string]int64, error) {
	rows, err := d.Pool.Query(ctx, `SELECT status, COUNT(*) FROM listing_drafts GROUP BY status`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	counts := map[string]int64{}
	for rows.Next() {
		var status string
		var n int64
		if err := rows.Scan(&status, &n); err != nil {
			return nil, err
		}
		counts[status] = n
	}
	return counts, rows.Err()
}

// DeleteStaleDrafts removes non-final drafts not updated since before.
func (d *DB) DeleteStaleDrafts(ctx context.Context, before time.Time) (int64, error) {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM listing_drafts WHERE status = 'draft' AND updated_at < $1`, before)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}
