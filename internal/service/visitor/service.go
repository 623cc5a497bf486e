package visitor

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

// Service records page-view events and serves the admin analytics views.
type Service struct {
	events          repository.EventRepository
	insights        repository.InsightRepository
	ips             repository.IPRepository
	returnThreshold time.Duration
}

func NewService(events repository.EventRepository, insights repository.InsightRepository, ips repository.IPRepository, returnThresholdMinutes int) *Service {
	if returnThresholdMinutes <= 0 {
		returnThresholdMinutes = 30
	}
	return &Service{
		events:          events,
		insights:        insights,
		ips:             ips,
		returnThreshold: time.Duration(returnThresholdMinutes) * time.Minute,
	}
}

// TrackResult tells the tracking snippet its session id and whether this
// hit counts as a returning visit.
type TrackResult struct {
	SID       string `json:"sid"`
	Returning bool   `json:"returning"`
}

// Track records one event. A gap longer than the return threshold since
// the session's last event marks the visit as returning. Admin pages are
// dropped, not stored.
func (s *Service) Track(ctx context.Context, req *model.TrackRequest, ip, userAgent string) (*TrackResult, error) {
	sid := strings.TrimSpace(req.SID)
	if sid == "" {
		sid = uuid.New().String()
	}
	path := strings.TrimSpace(req.Path)
	if strings.HasPrefix(path, "/admin") {
		return &TrackResult{SID: sid}, nil
	}

	returning := false
	last, err := s.events.LastForSID(ctx, sid)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, apperrors.Internal("failed to check last visit", err)
	}
	if last != nil && time.Since(last.CreatedAt) > s.returnThreshold {
		returning = true
	}

	eventName := strings.TrimSpace(req.Event)
	if eventName == "" {
		eventName = "pageview"
	}
	if returning {
		eventName = eventName + " (return)"
	}

	event := &model.Event{
		SID:       sid,
		Path:      path,
		Referrer:  strings.TrimSpace(req.Referrer),
		Event:     eventName,
		UserAgent: userAgent,
		IP:        ip,
		CreatedAt: time.Now().UTC(),
	}
	if err := s.events.Create(ctx, event); err != nil {
		return nil, apperrors.Internal("failed to record event", err)
	}

	if ip != "" {
		if err := s.ips.RecordVisit(ctx, ip, userAgent); err != nil {
			log.Warn().Err(err).Str("ip", ip).Msg("failed to record ip visit")
		}
	}

	return &TrackResult{SID: sid, Returning: returning}, nil
}

// Visitors lists aggregated sessions for the admin analytics page.
func (s *Service) Visitors(ctx context.Context) ([]*model.Visitor, error) {
	visitors, err := s.events.ListVisitors(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list visitors", err)
	}
	return visitors, nil
}

func (s *Service) Stats(ctx context.Context) (*model.VisitorStats, error) {
	stats, err := s.events.Stats(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to compute visitor stats", err)
	}
	return stats, nil
}

// SessionEvents returns one session's trail, most recent first.
func (s *Service) SessionEvents(ctx context.Context, sid string, limit int) ([]*model.Event, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}
	events, err := s.events.ListBySID(ctx, sid, limit)
	if err != nil {
		return nil, apperrors.Internal("failed to load session events", err)
	}
	return events, nil
}

// SaveInsight stores an admin-written or AI-generated note against a
// session.
func (s *Service) SaveInsight(ctx context.Context, sid, summary string) error {
	if strings.TrimSpace(sid) == "" {
		return apperrors.BadRequest("sid is required", nil)
	}
	if err := s.insights.Set(ctx, sid, strings.TrimSpace(summary)); err != nil {
		return apperrors.Internal("failed to save insight", err)
	}
	return nil
}

func (s *Service) Insight(ctx context.Context, sid string) (string, error) {
	summary, err := s.insights.Get(ctx, sid)
	if err != nil {
		return "", apperrors.Internal("failed to load insight", err)
	}
	return summary, nil
}

// DeleteSession removes a session's events and any cached insight.
func (s *Service) DeleteSession(ctx context.Context, sid string) error {
	if err := s.events.DeleteBySID(ctx, sid); err != nil {
		return apperrors.Internal("failed to delete session events", err)
	}
	if err := s.insights.Delete(ctx, sid); err != nil {
		log.Warn().Err(err).Str("sid", sid).Msg("failed to delete session insight")
	}
	return nil
}

// ListIPs returns the per-address visit records for the admin IP panel.
func (s *Service) ListIPs(ctx context.Context) ([]*model.IPRecord, error) {
	records, err := s.ips.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list ip records", err)
	}
	return records, nil
}

func (s *Service) SetIPBlocked(ctx context.Context, ip string, blocked bool) error {
	if strings.TrimSpace(ip) == "" {
		return apperrors.BadRequest("ip is required", nil)
	}
	if err := s.ips.SetBlocked(ctx, ip, blocked); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("ip record not found", err)
		}
		return apperrors.Internal("failed to update ip block", err)
	}
	log.Info().Str("ip", ip).Bool("blocked", blocked).Msg("ip block flag updated")
	return nil
}

func (s *Service) DeleteIP(ctx context.Context, ip string) error {
	if err := s.ips.Delete(ctx, ip); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return apperrors.NotFound("ip record not found", err)
		}
		return apperrors.Internal("failed to delete ip record", err)
	}
	return nil
}
