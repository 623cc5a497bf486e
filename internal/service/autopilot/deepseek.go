package autopilot

import (
	"context"
	"fmt"
	"net/http"
	"strings"
)

const deepSeekDefaultModel = "deepseek-chat"

// deepSeekEndpoints are tried in order; the API has answered on both paths
// at different times.
var deepSeekEndpoints = []string{
	"https://api.deepseek.com/chat/completions",
	"https://api.deepseek.com/v1/chat/completions",
}

// deepSeekProvider calls the DeepSeek API, which speaks the OpenAI chat
// completions dialect. Every endpoint/model combination is tried before
// giving up.
type deepSeekProvider struct {
	apiKey      string
	models      []string
	temperature float64
	endpoints   []string
	client      *http.Client
}

func NewDeepSeekProvider(apiKey, model string, temperature float64) TextGenerationProvider {
	models := []string{deepSeekDefaultModel}
	if m := strings.TrimSpace(model); m != "" && m != deepSeekDefaultModel {
		models = []string{m, deepSeekDefaultModel}
	}
	return &deepSeekProvider{
		apiKey:      apiKey,
		models:      models,
		temperature: temperature,
		endpoints:   deepSeekEndpoints,
		client:      newHTTPClient(),
	}
}

func (p *deepSeekProvider) Name() string { return "deepseek" }

func (p *deepSeekProvider) Generate(ctx context.Context, system string, history []Message) (string, error) {
	messages := append([]Message{{Role: RoleSystem, Content: system}}, history...)

	var lastErr error
	for _, endpoint := range p.endpoints {
		for _, model := range p.models {
			content, err := completeChat(ctx, p.client, endpoint, p.apiKey, &chatCompletionRequest{
				Model:       model,
				Messages:    messages,
				Temperature: p.temperature,
				MaxTokens:   400,
			})
			if err == nil {
				return content, nil
			}
			lastErr = fmt.Errorf("%s (%s): %w", endpoint, model, err)
			if ctx.Err() != nil {
				return "", lastErr
			}
		}
	}
	return "", lastErr
}
