package content

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

// Sections the public site renders. Anything else 404s.
var knownSections = map[string]bool{
	"services": true,
	"contact":  true,
	"about":    true,
	"homepage": true,
}

const (
	cacheTTL     = time.Minute
	cacheCleanup = 5 * time.Minute
)

// Service serves the editable site copy with a short cache in front of
// the store; public pages hit these reads on every render.
type Service struct {
	repo  repository.ContentRepository
	cache *cache.Cache
}

func NewService(repo repository.ContentRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) Section(ctx context.Context, section string) ([]*model.SiteContent, error) {
	section = strings.ToLower(strings.TrimSpace(section))
	if !knownSections[section] {
		return nil, apperrors.NotFound(fmt.Sprintf("unknown content section %q", section), nil)
	}
	cacheKey := "section:" + section
	if v, ok := s.cache.Get(cacheKey); ok {
		return v.([]*model.SiteContent), nil
	}
	rows, err := s.repo.ListSection(ctx, section)
	if err != nil {
		return nil, apperrors.Internal("failed to load site content", err)
	}
	s.cache.Set(cacheKey, rows, cache.DefaultExpiration)
	return rows, nil
}

func (s *Service) UpdateItem(ctx context.Context, id int64, req *model.UpdateContentRequest) error {
	err := s.repo.UpdateByID(ctx, id, strings.TrimSpace(req.Title), req.Content, strings.TrimSpace(req.Price))
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("content item not found", err)
	default:
		return apperrors.Internal("failed to update content", err)
	}
	s.cache.Flush()
	log.Info().Int64("content_id", id).Msg("site content updated")
	return nil
}

func (s *Service) UpsertItem(ctx context.Context, item *model.SiteContent) error {
	item.Section = strings.ToLower(strings.TrimSpace(item.Section))
	if !knownSections[item.Section] {
		return apperrors.BadRequest(fmt.Sprintf("unknown content section %q", item.Section), nil)
	}
	if strings.TrimSpace(item.Key) == "" {
		return apperrors.BadRequest("content key is required", nil)
	}
	if err := s.repo.Upsert(ctx, item); err != nil {
		return apperrors.Internal("failed to save content", err)
	}
	s.cache.Flush()
	return nil
}

func (s *Service) ServiceAreas(ctx context.Context) ([]*model.ServiceArea, error) {
	if v, ok := s.cache.Get("areas"); ok {
		return v.([]*model.ServiceArea), nil
	}
	areas, err := s.repo.ListServiceAreas(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to load service areas", err)
	}
	s.cache.Set("areas", areas, cache.DefaultExpiration)
	return areas, nil
}

func (s *Service) CreateServiceArea(ctx context.Context, area *model.ServiceArea) error {
	area.Name = strings.TrimSpace(area.Name)
	if area.Name == "" {
		return apperrors.BadRequest("area name is required", nil)
	}
	if err := s.repo.CreateServiceArea(ctx, area); err != nil {
		return apperrors.Internal("failed to create service area", err)
	}
	s.cache.Delete("areas")
	return nil
}

func (s *Service) UpdateServiceArea(ctx context.Context, area *model.ServiceArea) error {
	area.Name = strings.TrimSpace(area.Name)
	if area.Name == "" {
		return apperrors.BadRequest("area name is required", nil)
	}
	err := s.repo.UpdateServiceArea(ctx, area)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("service area not found", err)
	default:
		return apperrors.Internal("failed to update service area", err)
	}
	s.cache.Delete("areas")
	return nil
}

func (s *Service) DeleteServiceArea(ctx context.Context, id int64) error {
	err := s.repo.DeleteServiceArea(ctx, id)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("service area not found", err)
	default:
		return apperrors.Internal("failed to delete service area", err)
	}
	s.cache.Delete("areas")
	return nil
}

// HomepageSections returns every section row for the admin toggle view.
func (s *Service) HomepageSections(ctx context.Context) ([]*model.HomepageSection, error) {
	sections, err := s.repo.ListHomepageSections(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to load homepage sections", err)
	}
	return sections, nil
}

// EnabledHomepageSections is the public view: disabled sections are
// filtered out.
func (s *Service) EnabledHomepageSections(ctx context.Context) ([]*model.HomepageSection, error) {
	if v, ok := s.cache.Get("homepage"); ok {
		return v.([]*model.HomepageSection), nil
	}
	sections, err := s.repo.ListHomepageSections(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to load homepage sections", err)
	}
	enabled := make([]*model.HomepageSection, 0, len(sections))
	for _, sec := range sections {
		if sec.Enabled {
			enabled = append(enabled, sec)
		}
	}
	s.cache.Set("homepage", enabled, cache.DefaultExpiration)
	return enabled, nil
}

func (s *Service) UpdateHomepageSection(ctx context.Context, section *model.HomepageSection) error {
	existing, err := s.repo.GetHomepageSection(ctx, section.ID)
	switch {
	case err == nil:
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("homepage section not found", err)
	default:
		return apperrors.Internal("failed to load homepage section", err)
	}
	if strings.TrimSpace(section.Title) == "" {
		section.Title = existing.Title
	}
	section.SectionKey = existing.SectionKey
	if err := s.repo.UpdateHomepageSection(ctx, section); err != nil {
		return apperrors.Internal("failed to update homepage section", err)
	}
	s.cache.Delete("homepage")
	return nil
}
