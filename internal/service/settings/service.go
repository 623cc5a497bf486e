package settings

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

const (
	cacheTTL     = 30 * time.Second
	cacheCleanup = 5 * time.Minute
)

// Service reads and writes site settings with a short read-through cache
// for the per-request flags. Provider credentials skip the cache
// entirely so key and provider changes take effect immediately.
type Service struct {
	repo  repository.SettingRepository
	cache *cache.Cache
}

func NewService(repo repository.SettingRepository) *Service {
	return &Service{
		repo:  repo,
		cache: cache.New(cacheTTL, cacheCleanup),
	}
}

func (s *Service) Get(ctx context.Context, key string) (string, error) {
	if v, ok := s.cache.Get(key); ok {
		return v.(string), nil
	}
	value, err := s.repo.Get(ctx, key)
	if err != nil {
		return "", apperrors.Internal("failed to read setting", err)
	}
	s.cache.Set(key, value, cache.DefaultExpiration)
	return value, nil
}

func (s *Service) Set(ctx context.Context, key, value string) error {
	if strings.TrimSpace(key) == "" {
		return apperrors.BadRequest("setting key is required", nil)
	}
	if err := s.repo.Set(ctx, key, value); err != nil {
		return apperrors.Internal("failed to save setting", err)
	}
	s.cache.Delete(key)
	log.Info().Str("key", key).Msg("setting updated")
	return nil
}

func (s *Service) getBool(ctx context.Context, key string) bool {
	value, err := s.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("setting read failed, treating as false")
		return false
	}
	switch strings.ToLower(strings.TrimSpace(value)) {
	case "true", "1", "on", "yes":
		return true
	}
	return false
}

// MaintenanceMode reports whether the public site should answer 503.
func (s *Service) MaintenanceMode(ctx context.Context) bool {
	return s.getBool(ctx, model.SettingMaintenanceMode)
}

// AutopilotEnabled reports whether the AI responds to visitor messages.
func (s *Service) AutopilotEnabled(ctx context.Context) bool {
	return s.getBool(ctx, model.SettingChatAutopilot)
}

// ProviderConfig is the per-request credential snapshot handed to the
// autopilot. Values come from settings first, environment second.
type ProviderConfig struct {
	Preferred         string
	OpenAIKey         string
	DeepSeekKey       string
	GeminiKey         string
	OpenAIModel       string
	DeepSeekModel     string
	OpenAITemperature float64
}

// getWithEnvFallback reads straight from the repository, skipping the
// cache. Credentials are never served stale: a key saved in the admin
// panel is live on the next autopilot call.
func (s *Service) getWithEnvFallback(ctx context.Context, key string) string {
	v, err := s.repo.Get(ctx, key)
	if err != nil {
		log.Warn().Err(err).Str("key", key).Msg("setting read failed, falling back to environment")
	}
	if trimmed := strings.TrimSpace(v); err == nil && trimmed != "" {
		return trimmed
	}
	return strings.TrimSpace(envLookup(key))
}

// ProviderConfig assembles fresh provider credentials. Called once per
// autopilot invocation rather than at startup.
func (s *Service) ProviderConfig(ctx context.Context) ProviderConfig {
	cfg := ProviderConfig{
		Preferred:         strings.ToLower(s.getWithEnvFallback(ctx, model.SettingAutopilotProvider)),
		OpenAIKey:         s.getWithEnvFallback(ctx, model.SettingOpenAIKey),
		DeepSeekKey:       s.getWithEnvFallback(ctx, model.SettingDeepSeekKey),
		GeminiKey:         s.getWithEnvFallback(ctx, model.SettingGeminiKey),
		OpenAIModel:       s.getWithEnvFallback(ctx, model.SettingOpenAIModel),
		DeepSeekModel:     s.getWithEnvFallback(ctx, model.SettingDeepSeekModel),
		OpenAITemperature: 0.7,
	}
	if raw := s.getWithEnvFallback(ctx, model.SettingOpenAITemperature); raw != "" {
		if temp, err := strconv.ParseFloat(raw, 64); err == nil && temp >= 0 && temp <= 2 {
			cfg.OpenAITemperature = temp
		}
	}
	return cfg
}

// BusinessDescription is the admin-editable text injected into the
// autopilot's system prompt.
func (s *Service) BusinessDescription(ctx context.Context) string {
	value, err := s.Get(ctx, model.SettingBusinessDescription)
	if err != nil {
		return ""
	}
	return strings.TrimSpace(value)
}
