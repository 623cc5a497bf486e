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

func (r *eventRepository) Create(ctx context.Context, event *model.Event) error {
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	query := r.db.Rebind(`
		INSERT INTO events (sid, path, referrer, event, user_agent, ip, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	_, err := r.db.ExecContext(ctx, query,
		event.SID,
		event.Path,
		event.Referrer,
		event.Event,
		event.UserAgent,
		event.IP,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record event: %w", err)
	}
	return nil
}

func (r *eventRepository) LastForSID(ctx context.Context, sid string) (*model.Event, error) {
	query := r.db.Rebind(`
		SELECT id, sid, path, referrer, event, user_agent, ip, created_at
		FROM events
		WHERE sid = ? AND path NOT LIKE '/admin%'
		ORDER BY id DESC
		LIMIT 1
	`)
	var event model.Event
	if err := r.db.GetContext(ctx, &event, query, sid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get last event: %w", err)
	}
	return &event, nil
}

func (r *eventRepository) ListBySID(ctx context.Context, sid string, limit int) ([]*model.Event, error) {
	query := r.db.Rebind(`
		SELECT id, sid, path, referrer, event, user_agent, ip, created_at
		FROM events
		WHERE sid = ? AND path NOT LIKE '/admin%'
		ORDER BY id ASC
		LIMIT ?
	`)
	var events []*model.Event
	if err := r.db.SelectContext(ctx, &events, query, sid, limit); err != nil {
		return nil, fmt.Errorf("failed to list events: %w", err)
	}
	return events, nil
}

func (r *eventRepository) ListVisitors(ctx context.Context) ([]*model.Visitor, error) {
	query := `
		SELECT e.sid AS sid,
		       MIN(e.created_at) AS first_seen,
		       MAX(e.created_at) AS last_seen,
		       COUNT(*) AS page_count,
		       MAX(e.ip) AS ip,
		       COALESCE(MAX(vi.summary), '') AS summary
		FROM events e
		LEFT JOIN visitor_insights vi ON vi.sid = e.sid
		WHERE e.sid != '' AND e.path NOT LIKE '/admin%'
		GROUP BY e.sid
		ORDER BY last_seen DESC
	`
	var visitors []*model.Visitor
	if err := r.db.SelectContext(ctx, &visitors, query); err != nil {
		return nil, fmt.Errorf("failed to list visitors: %w", err)
	}
	return visitors, nil
}

func (r *eventRepository) Stats(ctx context.Context) (*model.VisitorStats, error) {
	var total, returning, views int
	if err := r.db.GetContext(ctx, &total,
		"SELECT COUNT(DISTINCT sid) FROM events WHERE sid != '' AND path NOT LIKE '/admin%'"); err != nil {
		return nil, fmt.Errorf("failed to count visitors: %w", err)
	}
	if err := r.db.GetContext(ctx, &returning,
		"SELECT COUNT(DISTINCT sid) FROM events WHERE event LIKE '%(return)'"); err != nil {
		return nil, fmt.Errorf("failed to count returning visitors: %w", err)
	}
	if err := r.db.GetContext(ctx, &views,
		"SELECT COUNT(*) FROM events WHERE sid != '' AND path NOT LIKE '/admin%'"); err != nil {
		return nil, fmt.Errorf("failed to count views: %w", err)
	}

	stats := &model.VisitorStats{
		TotalVisitors:     total,
		ReturningVisitors: returning,
	}
	if total > 0 {
		stats.AvgPagesPerVisitor = float64(views) / float64(total)
	}
	return stats, nil
}

func (r *eventRepository) CountActiveSince(ctx context.Context, since time.Time) (int, error) {
	query := r.db.Rebind("SELECT COUNT(DISTINCT sid) FROM events WHERE created_at > ?")
	var count int
	if err := r.db.GetContext(ctx, &count, query, since); err != nil {
		return 0, fmt.Errorf("failed to count active visitors: %w", err)
	}
	return count, nil
}

func (r *eventRepository) DeleteBySID(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM events WHERE sid = ?"), sid); err != nil {
		return fmt.Errorf("failed to delete visitor events: %w", err)
	}
	return nil
}

func (r *insightRepository) Get(ctx context.Context, sid string) (string, error) {
	query := r.db.Rebind("SELECT summary FROM visitor_insights WHERE sid = ?")
	var summary string
	if err := r.db.GetContext(ctx, &summary, query, sid); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", fmt.Errorf("failed to get visitor insight: %w", err)
	}
	return summary, nil
}

func (r *insightRepository) Set(ctx context.Context, sid, summary string) error {
	query := r.db.Rebind(`
		INSERT INTO visitor_insights (sid, summary) VALUES (?, ?)
		ON CONFLICT (sid) DO UPDATE SET summary = excluded.summary
	`)
	if _, err := r.db.ExecContext(ctx, query, sid, summary); err != nil {
		return fmt.Errorf("failed to set visitor insight: %w", err)
	}
	return nil
}

func (r *insightRepository) Delete(ctx context.Context, sid string) error {
	if _, err := r.db.ExecContext(ctx, r.db.Rebind("DELETE FROM visitor_insights WHERE sid = ?"), sid); err != nil {
		return fmt.Errorf("failed to delete visitor insight: %w", err)
	}
	return nil
}
