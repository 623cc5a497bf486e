package autopilot

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/service/settings"
)

// Canned replies used when no provider can answer. The visitor always
// gets one of these rather than silence.
const (
	FallbackGreeting       = "Thanks for your message! I'm Andy's assistant. Could you please share your dog's breed, age, and your preferred walk times?"
	FallbackTechnicalIssue = "Sorry, there was a technical issue. I'm Andy's assistant. Could you share your dog's breed, age, and preferred walk times?"
)

// diagnosticLimit truncates per-provider failure notes before they are
// stored as system messages.
const diagnosticLimit = 160

// Service runs the provider fallback chain. It is stateless: credentials
// are passed in fresh on every call.
type Service struct{}

func NewService() *Service {
	return &Service{}
}

// providers builds the ordered chain for one request: the admin's
// preferred provider first, then the fixed openai, deepseek, gemini order.
// Providers without a key are skipped entirely.
func (s *Service) providers(cfg settings.ProviderConfig) []TextGenerationProvider {
	build := map[string]func() TextGenerationProvider{
		"openai": func() TextGenerationProvider {
			return NewOpenAIProvider(cfg.OpenAIKey, cfg.OpenAIModel, cfg.OpenAITemperature)
		},
		"deepseek": func() TextGenerationProvider {
			return NewDeepSeekProvider(cfg.DeepSeekKey, cfg.DeepSeekModel, cfg.OpenAITemperature)
		},
		"gemini": func() TextGenerationProvider {
			return NewGeminiProvider(cfg.GeminiKey)
		},
	}
	keys := map[string]string{
		"openai":   cfg.OpenAIKey,
		"deepseek": cfg.DeepSeekKey,
		"gemini":   cfg.GeminiKey,
	}

	order := []string{"openai", "deepseek", "gemini"}
	if pref := strings.TrimSpace(cfg.Preferred); pref != "" {
		ordered := []string{pref}
		for _, name := range order {
			if name != pref {
				ordered = append(ordered, name)
			}
		}
		order = ordered
	}

	var chain []TextGenerationProvider
	for _, name := range order {
		ctor, known := build[name]
		if !known || strings.TrimSpace(keys[name]) == "" {
			continue
		}
		chain = append(chain, ctor())
	}
	return chain
}

// Respond tries each configured provider in order and returns the first
// non-empty reply. The notes record, per provider, why it was passed
// over; an empty reply with notes means every provider failed.
func (s *Service) Respond(ctx context.Context, cfg settings.ProviderConfig, system string, history []Message) (string, []string) {
	chain := s.providers(cfg)
	if len(chain) == 0 {
		return "", []string{"no AI provider configured"}
	}

	var notes []string
	for _, provider := range chain {
		reply, err := provider.Generate(ctx, system, history)
		if err != nil {
			log.Warn().Err(err).Str("provider", provider.Name()).Msg("autopilot provider failed")
			notes = append(notes, truncateNote(fmt.Sprintf("%s: %v", provider.Name(), err)))
			if ctx.Err() != nil {
				break
			}
			continue
		}
		log.Info().Str("provider", provider.Name()).Msg("autopilot reply generated")
		return reply, notes
	}
	return "", notes
}

// GenerateOnce sends a single prompt through the chain, for the admin
// "test AI" button. Returns the winning provider's name with the reply.
func (s *Service) GenerateOnce(ctx context.Context, cfg settings.ProviderConfig, prompt string) (provider, reply string, err error) {
	chain := s.providers(cfg)
	if len(chain) == 0 {
		return "", "", fmt.Errorf("no AI provider configured")
	}
	var lastErr error
	for _, p := range chain {
		reply, genErr := p.Generate(ctx, SystemPrompt(""), []Message{{Role: RoleUser, Content: prompt}})
		if genErr == nil {
			return p.Name(), reply, nil
		}
		lastErr = fmt.Errorf("%s: %w", p.Name(), genErr)
	}
	return "", "", lastErr
}

func truncateNote(note string) string {
	if len(note) > diagnosticLimit {
		return note[:diagnosticLimit]
	}
	return note
}
