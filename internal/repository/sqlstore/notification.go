package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/happypaws/happypaws/internal/model"
)

func (r *notificationRepository) Create(ctx context.Context, n *model.AdminNotification) error {
	query := r.db.Rebind(`
		INSERT INTO admin_notifications (type, chat_id, message_id, payload, seen, created_at)
		VALUES (?, ?, ?, ?, FALSE, ?)
		RETURNING id
	`)
	if err := r.db.QueryRowContext(ctx, query,
		n.Type,
		n.ChatID,
		n.MessageID,
		n.Payload,
		n.CreatedAt,
	).Scan(&n.ID); err != nil {
		return fmt.Errorf("failed to create notification: %w", err)
	}
	return nil
}

func (r *notificationRepository) NextUnseen(ctx context.Context, limit int) ([]*model.AdminNotification, error) {
	query := r.db.Rebind(`
		SELECT id, type, chat_id, message_id, payload, seen, created_at
		FROM admin_notifications
		WHERE seen = FALSE
		ORDER BY id ASC
		LIMIT ?
	`)
	var notifications []*model.AdminNotification
	if err := r.db.SelectContext(ctx, &notifications, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list unseen notifications: %w", err)
	}
	return notifications, nil
}

func (r *notificationRepository) MarkSeen(ctx context.Context, ids []int64) error {
	if len(ids) == 0 {
		return nil
	}
	query, args, err := sqlx.In("UPDATE admin_notifications SET seen = TRUE WHERE id IN (?)", ids)
	if err != nil {
		return fmt.Errorf("failed to build mark seen query: %w", err)
	}
	if _, err := r.db.ExecContext(ctx, r.db.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to mark notifications seen: %w", err)
	}
	return nil
}
