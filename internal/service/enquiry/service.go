package enquiry

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	"github.com/happypaws/happypaws/internal/service/autopilot"
	"github.com/happypaws/happypaws/internal/service/settings"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

// activityLimit caps how many tracked events feed an enquiry's activity
// view and visit summary.
const activityLimit = 50

// Summarizer is the slice of the AI service used for visit summaries.
type Summarizer interface {
	GenerateOnce(ctx context.Context, cfg settings.ProviderConfig, prompt string) (provider, reply string, err error)
}

type Service struct {
	repo      repository.EnquiryRepository
	eventRepo repository.EventRepository
	settings  *settings.Service
	ai        Summarizer
}

func NewService(repo repository.EnquiryRepository, eventRepo repository.EventRepository, settingsSvc *settings.Service, ai Summarizer) *Service {
	return &Service{repo: repo, eventRepo: eventRepo, settings: settingsSvc, ai: ai}
}

func (s *Service) Create(ctx context.Context, req *model.CreateEnquiryRequest, ip string) (*model.Enquiry, error) {
	enquiry := &model.Enquiry{
		Name:      strings.TrimSpace(req.Name),
		Email:     strings.TrimSpace(req.Email),
		Dog:       strings.TrimSpace(req.Dog),
		Message:   strings.TrimSpace(req.Message),
		Status:    model.EnquiryStatusNew,
		IP:        ip,
		SID:       strings.TrimSpace(req.SID),
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.repo.Create(ctx, enquiry)
	if err != nil {
		return nil, apperrors.Internal("failed to create enquiry", err)
	}
	enquiry.ID = id
	log.Info().Int64("enquiry_id", id).Str("name", enquiry.Name).Msg("enquiry received")
	return enquiry, nil
}

func (s *Service) List(ctx context.Context) ([]*model.Enquiry, error) {
	enquiries, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list enquiries", err)
	}
	return enquiries, nil
}

func (s *Service) Delete(ctx context.Context, id int64) error {
	err := s.repo.Delete(ctx, id)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("enquiry not found", err)
	default:
		return apperrors.Internal("failed to delete enquiry", err)
	}
}

func (s *Service) UpdateStatus(ctx context.Context, id int64, status model.EnquiryStatus) error {
	switch status {
	case model.EnquiryStatusNew, model.EnquiryStatusContacted, model.EnquiryStatusClosed:
	default:
		return apperrors.BadRequest(fmt.Sprintf("invalid enquiry status %q", status), nil)
	}
	err := s.repo.UpdateStatus(ctx, id, status)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("enquiry not found", err)
	default:
		return apperrors.Internal("failed to update enquiry status", err)
	}
}

// ExportCSV renders all enquiries as a spreadsheet for download.
func (s *Service) ExportCSV(ctx context.Context) ([]byte, error) {
	enquiries, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to export enquiries", err)
	}

	var buf bytes.Buffer
	w := csv.NewWriter(&buf)
	header := []string{"ID", "Name", "Email", "Dog", "Message", "Status", "Received"}
	if err := w.Write(header); err != nil {
		return nil, apperrors.Internal("failed to write csv", err)
	}
	for _, e := range enquiries {
		row := []string{
			strconv.FormatInt(e.ID, 10),
			e.Name,
			e.Email,
			e.Dog,
			e.Message,
			string(e.Status),
			e.CreatedAt.UTC().Format(time.RFC3339),
		}
		if err := w.Write(row); err != nil {
			return nil, apperrors.Internal("failed to write csv", err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		return nil, apperrors.Internal("failed to write csv", err)
	}
	return buf.Bytes(), nil
}

// Activity returns the tracked events for the enquirer's session, most
// recent first.
func (s *Service) Activity(ctx context.Context, id int64) ([]*model.Event, error) {
	enquiry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("enquiry not found", err)
		}
		return nil, apperrors.Internal("failed to load enquiry", err)
	}
	if enquiry.SID == "" {
		return []*model.Event{}, nil
	}
	events, err := s.eventRepo.ListBySID(ctx, enquiry.SID, activityLimit)
	if err != nil {
		return nil, apperrors.Internal("failed to load enquiry activity", err)
	}
	return events, nil
}

// Analyze produces a one-paragraph summary of what the enquirer looked at
// before writing in, preferring the AI and falling back to a counting
// heuristic. The result is stored on the enquiry.
func (s *Service) Analyze(ctx context.Context, id int64) (string, error) {
	enquiry, err := s.repo.Get(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", apperrors.NotFound("enquiry not found", err)
		}
		return "", apperrors.Internal("failed to load enquiry", err)
	}
	if enquiry.SID == "" {
		return "No browsing activity recorded for this enquiry.", nil
	}
	events, err := s.eventRepo.ListBySID(ctx, enquiry.SID, activityLimit)
	if err != nil {
		return "", apperrors.Internal("failed to load enquiry activity", err)
	}
	if len(events) == 0 {
		return "No browsing activity recorded for this enquiry.", nil
	}

	summary := s.aiSummary(ctx, enquiry, events)
	if summary == "" {
		summary = heuristicSummary(events)
	}
	if err := s.repo.SetVisitSummary(ctx, id, summary); err != nil {
		log.Warn().Err(err).Int64("enquiry_id", id).Msg("failed to store visit summary")
	}
	return summary, nil
}

func (s *Service) aiSummary(ctx context.Context, enquiry *model.Enquiry, events []*model.Event) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "Summarise in two sentences what this website visitor looked at before enquiring. Visitor %s wrote: %q. Pages visited (most recent first):\n", enquiry.Name, enquiry.Message)
	for _, e := range events {
		fmt.Fprintf(&sb, "- %s (%s)\n", e.Path, e.Event)
	}

	cfg := s.settings.ProviderConfig(ctx)
	_, reply, err := s.ai.GenerateOnce(ctx, cfg, sb.String())
	if err != nil {
		log.Warn().Err(err).Msg("ai visit summary failed, using heuristic")
		return ""
	}
	return strings.TrimSpace(reply)
}

// heuristicSummary is the no-AI fallback: page counts and the most viewed
// paths in plain text.
func heuristicSummary(events []*model.Event) string {
	counts := make(map[string]int)
	for _, e := range events {
		counts[e.Path]++
	}
	type pathCount struct {
		path  string
		count int
	}
	ranked := make([]pathCount, 0, len(counts))
	for path, count := range counts {
		ranked = append(ranked, pathCount{path, count})
	}
	sort.Slice(ranked, func(i, j int) bool { return ranked[i].count > ranked[j].count })
	top := ranked
	if len(top) > 3 {
		top = top[:3]
	}
	parts := make([]string, 0, len(top))
	for _, pc := range top {
		parts = append(parts, fmt.Sprintf("%s (%d)", pc.path, pc.count))
	}
	return fmt.Sprintf("Visitor viewed %d pages across %d paths. Most viewed: %s.",
		len(events), len(counts), strings.Join(parts, ", "))
}

// autopilot.Service satisfies Summarizer.
var _ Summarizer = (*autopilot.Service)(nil)
