package sqlstore

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
)

func (r *enquiryRepository) Create(ctx context.Context, enquiry *model.Enquiry) (int64, error) {
	enquiry.Status = model.EnquiryStatusNew
	enquiry.CreatedAt = time.Now().UTC()

	query := r.db.Rebind(`
		INSERT INTO enquiries (name, email, dog, message, status, ip, sid, visit_summary, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, '', ?)
		RETURNING id
	`)
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		enquiry.Name,
		enquiry.Email,
		enquiry.Dog,
		enquiry.Message,
		enquiry.Status,
		enquiry.IP,
		enquiry.SID,
		enquiry.CreatedAt,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create enquiry: %w", err)
	}
	enquiry.ID = id
	return id, nil
}

func (r *enquiryRepository) Get(ctx context.Context, id int64) (*model.Enquiry, error) {
	query := r.db.Rebind(`
		SELECT id, name, email, dog, message, status, ip, sid, visit_summary, created_at
		FROM enquiries
		WHERE id = ?
	`)
	var enquiry model.Enquiry
	if err := r.db.GetContext(ctx, &enquiry, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get enquiry: %w", err)
	}
	return &enquiry, nil
}

func (r *enquiryRepository) List(ctx context.Context) ([]*model.Enquiry, error) {
	query := `
		SELECT id, name, email, dog, message, status, ip, sid, visit_summary, created_at
		FROM enquiries
		ORDER BY created_at DESC
	`
	var enquiries []*model.Enquiry
	if err := r.db.SelectContext(ctx, &enquiries, query); err != nil {
		return nil, fmt.Errorf("failed to list enquiries: %w", err)
	}
	return enquiries, nil
}

func (r *enquiryRepository) Delete(ctx context.Context, id int64) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM enquiries WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete enquiry: %w", err)
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

func (r *enquiryRepository) UpdateStatus(ctx context.Context, id int64, status model.EnquiryStatus) error {
	query := r.db.Rebind("UPDATE enquiries SET status = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return fmt.Errorf("failed to update enquiry status: %w", err)
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

func (r *enquiryRepository) SetVisitSummary(ctx context.Context, id int64, summary string) error {
	query := r.db.Rebind("UPDATE enquiries SET visit_summary = ? WHERE id = ?")
	if _, err := r.db.ExecContext(ctx, query, summary, id); err != nil {
		return fmt.Errorf("failed to set visit summary: %w", err)
	}
	return nil
}

func (r *enquiryRepository) CountNew(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM enquiries WHERE status = 'new'"); err != nil {
		return 0, fmt.Errorf("failed to count new enquiries: %w", err)
	}
	return count, nil
}
