package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
)

func (r *contentRepository) ListSection(ctx context.Context, section string) ([]*model.SiteContent, error) {
	query := r.db.Rebind(`
		SELECT id, section, key, title, content, price, sort_order
		FROM site_content
		WHERE section = ?
		ORDER BY sort_order ASC
	`)
	var rows []*model.SiteContent
	if err := r.db.SelectContext(ctx, &rows, query, section); err != nil {
		return nil, fmt.Errorf("failed to list %s content: %w", section, err)
	}
	return rows, nil
}

func (r *contentRepository) Upsert(ctx context.Context, content *model.SiteContent) error {
	query := r.db.Rebind(`
		INSERT INTO site_content (section, key, title, content, price, sort_order)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT (section, key) DO UPDATE SET
			title = excluded.title,
			content = excluded.content,
			price = excluded.price,
			sort_order = excluded.sort_order
	`)
	_, err := r.db.ExecContext(ctx, query,
		content.Section,
		content.Key,
		content.Title,
		content.Content,
		content.Price,
		content.SortOrder,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert site content: %w", err)
	}
	return nil
}

func (r *contentRepository) UpdateByID(ctx context.Context, id int64, title, content, price string) error {
	query := r.db.Rebind("UPDATE site_content SET title = ?, content = ?, price = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, title, content, price, id)
	if err != nil {
		return fmt.Errorf("failed to update site content: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *contentRepository) ListServiceAreas(ctx context.Context) ([]*model.ServiceArea, error) {
	query := `
		SELECT id, name, sort_order
		FROM service_areas
		ORDER BY sort_order ASC, name ASC
	`
	var areas []*model.ServiceArea
	if err := r.db.SelectContext(ctx, &areas, query); err != nil {
		return nil, fmt.Errorf("failed to list service areas: %w", err)
	}
	return areas, nil
}

func (r *contentRepository) CreateServiceArea(ctx context.Context, area *model.ServiceArea) error {
	query := r.db.Rebind("INSERT INTO service_areas (name, sort_order) VALUES (?, ?) RETURNING id")
	if err := r.db.QueryRowContext(ctx, query, area.Name, area.SortOrder).Scan(&area.ID); err != nil {
		return fmt.Errorf("failed to create service area: %w", err)
	}
	return nil
}

func (r *contentRepository) UpdateServiceArea(ctx context.Context, area *model.ServiceArea) error {
	query := r.db.Rebind("UPDATE service_areas SET name = ?, sort_order = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, area.Name, area.SortOrder, area.ID)
	if err != nil {
		return fmt.Errorf("failed to update service area: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *contentRepository) DeleteServiceArea(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM service_areas WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete service area: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *contentRepository) ListHomepageSections(ctx context.Context) ([]*model.HomepageSection, error) {
	query := `
		SELECT id, section_key, title, enabled, sort_order
		FROM homepage_sections
		ORDER BY sort_order ASC
	`
	var sections []*model.HomepageSection
	if err := r.db.SelectContext(ctx, &sections, query); err != nil {
		return nil, fmt.Errorf("failed to list homepage sections: %w", err)
	}
	return sections, nil
}

func (r *contentRepository) GetHomepageSection(ctx context.Context, id int64) (*model.HomepageSection, error) {
	query := r.db.Rebind(`
		SELECT id, section_key, title, enabled, sort_order
		FROM homepage_sections
		WHERE id = ?
	`)
	var section model.HomepageSection
	if err := r.db.GetContext(ctx, &section, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get homepage section: %w", err)
	}
	return &section, nil
}

func (r *contentRepository) UpdateHomepageSection(ctx context.Context, section *model.HomepageSection) error {
	query := r.db.Rebind("UPDATE homepage_sections SET title = ?, enabled = ?, sort_order = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, section.Title, section.Enabled, section.SortOrder, section.ID)
	if err != nil {
		return fmt.Errorf("failed to update homepage section: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return nil
}
