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

func (r *ipRepository) RecordVisit(ctx context.Context, ip, userAgent string) error {
	now := time.Now().UTC()
	query := r.db.Rebind(`
		INSERT INTO ip_tracking (ip_address, visit_count, is_blocked, first_visit, last_visit, user_agent)
		VALUES (?, 1, FALSE, ?, ?, ?)
		ON CONFLICT (ip_address) DO UPDATE SET
			visit_count = ip_tracking.visit_count + 1,
			last_visit = excluded.last_visit,
			user_agent = excluded.user_agent
	`)
	if _, err := r.db.ExecContext(ctx, query, ip, now, now, userAgent); err != nil {
		return fmt.Errorf("failed to record ip visit: %w", err)
	}
	return nil
}

func (r *ipRepository) IsBlocked(ctx context.Context, ip string) (bool, error) {
	query := r.db.Rebind("SELECT is_blocked FROM ip_tracking WHERE ip_address = ?")
	var blocked bool
	if err := r.db.GetContext(ctx, &blocked, query, ip); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return false, nil
		}
		return false, fmt.Errorf("failed to check ip block: %w", err)
	}
	return blocked, nil
}

func (r *ipRepository) List(ctx context.Context) ([]*model.IPRecord, error) {
	query := `
		SELECT id, ip_address, visit_count, is_blocked, country, city,
		       first_visit, last_visit, user_agent
		FROM ip_tracking
		ORDER BY last_visit DESC, visit_count DESC
	`
	var records []*model.IPRecord
	if err := r.db.SelectContext(ctx, &records, query); err != nil {
		return nil, fmt.Errorf("failed to list ip records: %w", err)
	}
	return records, nil
}

func (r *ipRepository) SetBlocked(ctx context.Context, ip string, blocked bool) error {
	query := r.db.Rebind("UPDATE ip_tracking SET is_blocked = ? WHERE ip_address = ?")
	result, err := r.db.ExecContext(ctx, query, blocked, ip)
	if err != nil {
		return fmt.Errorf("failed to update ip block: %w", err)
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

func (r *ipRepository) Delete(ctx context.Context, ip string) error {
	result, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM ip_tracking WHERE ip_address = ?"), ip)
	if err != nil {
		return fmt.Errorf("failed to delete ip record: %w", err)
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
