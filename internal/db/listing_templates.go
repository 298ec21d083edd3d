package db

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5/pgconn"

	"sellerdesk/internal/listing"
)

// ListTemplates returns every custom template.
func (d *DB) ListTemplates(ctx context.Context) ([]listing.Template, error) {
	rows, err := d.Pool.Query(ctx, `
		SELECT id, name, description, title_format, bullet_format, description_format, keyword_density,
			title_min, title_max, bullet_min, bullet_max, description_min, description_max
		FROM listing_templates
		ORDER BY id
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	templates := []listing.Template{}
	for rows.Next() {
		var t listing.Template
		if err := rows.Scan(
			&t.ID,
			&t.Name,
			&t.Description,
			&t.TitleFormat,
			&t.BulletFormat,
			&t.DescriptionFormat,
			&t.KeywordDensity,
			&t.TitleMin,
			&t.TitleMax,
			&t.BulletMin,
			&t.BulletMax,
			&t.DescriptionMin,
			&t.DescriptionMax,
		); err != nil {
			return nil, err
		}
		templates = append(templates, t)
	}
	return templates, rows.Err()
}

// CreateTemplate stores a custom template.
func (d *DB) CreateTemplate(ctx context.Context, t listing.Template, createdBy string) error {
	density := t.KeywordDensity
	if density == "" {
		density = listing.DensityMedium
	}
	_, err := d.Pool.Exec(ctx, `
		INSERT INTO listing_templates (id, name, description, title_format, bullet_format, description_format,
			keyword_density, title_min, title_max, bullet_min, bullet_max, description_min, description_max, created_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`,
		t.ID,
		t.Name,
		t.Description,
		t.TitleFormat,
		t.BulletFormat,
		t.DescriptionFormat,
		density,
		t.TitleMin,
		t.TitleMax,
		t.BulletMin,
		t.BulletMax,
		t.DescriptionMin,
		t.DescriptionMax,
		createdBy,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateTemplate
		}
		return err
	}
	return nil
}

// DeleteTemplate removes a custom template.
func (d *DB) DeleteTemplate(ctx context.Context, id string) error {
	tag, err := d.Pool.Exec(ctx, `DELETE FROM listing_templates WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrTemplateNotFound
	}
	return nil
}
