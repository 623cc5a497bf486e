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

func (r *chatRepository) Create(ctx context.Context, chat *model.Chat) (int64, error) {
	now := time.Now().UTC()
	chat.Status = model.ChatStatusOpen
	chat.CreatedAt = now
	chat.LastActivity = now

	query := r.db.Rebind(`
		INSERT INTO chats (sid, name, status, ip, created_at, last_activity)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING id
	`)
	var id int64
	err := r.db.QueryRowContext(ctx, query,
		chat.SID,
		chat.Name,
		chat.Status,
		chat.IP,
		chat.CreatedAt,
		chat.LastActivity,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to create chat: %w", err)
	}
	chat.ID = id
	return id, nil
}

func (r *chatRepository) Get(ctx context.Context, id int64) (*model.Chat, error) {
	query := r.db.Rebind(`
		SELECT id, sid, name, status, ip, created_at, last_activity
		FROM chats
		WHERE id = ?
	`)
	var chat model.Chat
	if err := r.db.GetContext(ctx, &chat, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}
	return &chat, nil
}

func (r *chatRepository) LatestOpenBySID(ctx context.Context, sid string) (*model.Chat, error) {
	query := r.db.Rebind(`
		SELECT id, sid, name, status, ip, created_at, last_activity
		FROM chats
		WHERE sid = ? AND status = 'open'
		ORDER BY id DESC
		LIMIT 1
	`)
	var chat model.Chat
	if err := r.db.GetContext(ctx, &chat, query, sid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to look up chat by sid: %w", err)
	}
	return &chat, nil
}

func (r *chatRepository) List(ctx context.Context) ([]*model.Chat, error) {
	// Open chats first, most recently active at the top.
	query := `
		SELECT id, sid, name, status, ip, created_at, last_activity
		FROM chats
		ORDER BY CASE status WHEN 'open' THEN 0 ELSE 1 END, last_activity DESC
	`
	var chats []*model.Chat
	if err := r.db.SelectContext(ctx, &chats, query); err != nil {
		return nil, fmt.Errorf("failed to list chats: %w", err)
	}
	return chats, nil
}

func (r *chatRepository) ListByIP(ctx context.Context, ip string, excludeID int64) ([]*model.Chat, error) {
	query := r.db.Rebind(`
		SELECT id, sid, name, status, ip, created_at, last_activity
		FROM chats
		WHERE ip = ? AND id != ?
		ORDER BY created_at DESC
	`)
	var chats []*model.Chat
	if err := r.db.SelectContext(ctx, &chats, query, ip, excludeID); err != nil {
		return nil, fmt.Errorf("failed to list chats by ip: %w", err)
	}
	return chats, nil
}

func (r *chatRepository) UpdateStatus(ctx context.Context, id int64, status model.ChatStatus) error {
	query := r.db.Rebind("UPDATE chats SET status = ?, last_activity = ? WHERE id = ?")
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("failed to update chat status: %w", err)
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

func (r *chatRepository) CloseAll(ctx context.Context) error {
	query := r.db.Rebind("UPDATE chats SET status = 'closed', last_activity = ? WHERE status != 'closed'")
	if _, err := r.db.ExecContext(ctx, query, time.Now().UTC()); err != nil {
		return fmt.Errorf("failed to close all chats: %w", err)
	}
	return nil
}

func (r *chatRepository) Delete(ctx context.Context, id int64) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM chat_messages WHERE chat_id = ?"), id); err != nil {
		return fmt.Errorf("failed to delete chat messages: %w", err)
	}
	result, err := tx.ExecContext(ctx, tx.Rebind("DELETE FROM chats WHERE id = ?"), id)
	if err != nil {
		return fmt.Errorf("failed to delete chat: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rows == 0 {
		return repository.ErrNotFound
	}
	return tx.Commit()
}

// AddMessage inserts the message and bumps the chat's last_activity in the
// same transaction so a transcript row never appears without the activity
// stamp that un-stales the chat.
func (r *chatRepository) AddMessage(ctx context.Context, msg *model.ChatMessage) (int64, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if msg.CreatedAt.IsZero() {
		msg.CreatedAt = time.Now().UTC()
	}
	var id int64
	err = tx.QueryRowContext(ctx, tx.Rebind(`
		INSERT INTO chat_messages (chat_id, sender, message, created_at)
		VALUES (?, ?, ?, ?)
		RETURNING id
	`), msg.ChatID, msg.Sender, msg.Message, msg.CreatedAt).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("failed to insert chat message: %w", err)
	}

	if _, err := tx.ExecContext(ctx, tx.Rebind("UPDATE chats SET last_activity = ? WHERE id = ?"), msg.CreatedAt, msg.ChatID); err != nil {
		return 0, fmt.Errorf("failed to update chat activity: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit chat message: %w", err)
	}
	msg.ID = id
	return id, nil
}

func (r *chatRepository) Messages(ctx context.Context, chatID int64) ([]*model.ChatMessage, error) {
	return r.MessagesAfter(ctx, chatID, 0)
}

func (r *chatRepository) MessagesAfter(ctx context.Context, chatID, afterID int64) ([]*model.ChatMessage, error) {
	query := r.db.Rebind(`
		SELECT id, chat_id, sender, message, created_at
		FROM chat_messages
		WHERE chat_id = ? AND id > ?
		ORDER BY id ASC
	`)
	var messages []*model.ChatMessage
	if err := r.db.SelectContext(ctx, &messages, query, chatID, afterID); err != nil {
		return nil, fmt.Errorf("failed to poll chat messages: %w", err)
	}
	return messages, nil
}

func (r *chatRepository) CountOpen(ctx context.Context) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, "SELECT COUNT(*) FROM chats WHERE status = 'open'"); err != nil {
		return 0, fmt.Errorf("failed to count open chats: %w", err)
	}
	return count, nil
}
