package autopilot

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/service/settings"
)

func jsonDecode(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}

func chainNames(chain []TextGenerationProvider) []string {
	names := make([]string, 0, len(chain))
	for _, p := range chain {
		names = append(names, p.Name())
	}
	return names
}

func TestProviderChainDefaultOrder(t *testing.T) {
	svc := NewService()
	chain := svc.providers(settings.ProviderConfig{
		OpenAIKey:   "sk-1",
		DeepSeekKey: "ds-1",
		GeminiKey:   "g-1",
	})
	assert.Equal(t, []string{"openai", "deepseek", "gemini"}, chainNames(chain))
}

func TestProviderChainPreferredFirst(t *testing.T) {
	svc := NewService()
	chain := svc.providers(settings.ProviderConfig{
		Preferred:   "gemini",
		OpenAIKey:   "sk-1",
		DeepSeekKey: "ds-1",
		GeminiKey:   "g-1",
	})
	assert.Equal(t, []string{"gemini", "openai", "deepseek"}, chainNames(chain))
}

func TestProviderChainSkipsMissingKeys(t *testing.T) {
	svc := NewService()

	chain := svc.providers(settings.ProviderConfig{DeepSeekKey: "ds-1"})
	assert.Equal(t, []string{"deepseek"}, chainNames(chain))

	// A preferred provider without a key is skipped, not errored.
	chain = svc.providers(settings.ProviderConfig{Preferred: "openai", GeminiKey: "g-1"})
	assert.Equal(t, []string{"gemini"}, chainNames(chain))
}

func TestRespondWithNoProvidersConfigured(t *testing.T) {
	svc := NewService()
	reply, notes := svc.Respond(context.Background(), settings.ProviderConfig{}, SystemPrompt(""), nil)
	assert.Empty(t, reply)
	require.Len(t, notes, 1)
	assert.Contains(t, notes[0], "no AI provider configured")
}

func TestOpenAIProviderParsesCompletion(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"  Hello from the walker!  "}}]}`))
	}))
	defer server.Close()

	p := &openAIProvider{
		apiKey:   "sk-test",
		model:    "gpt-4o-mini",
		endpoint: server.URL,
		client:   server.Client(),
	}
	reply, err := p.Generate(context.Background(), SystemPrompt(""), []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "Hello from the walker!", reply)
}

func TestOpenAIProviderRejectsBadResponses(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
	}{
		"http error":    {http.StatusInternalServerError, `boom`},
		"api error":     {http.StatusOK, `{"error":{"message":"quota exceeded"}}`},
		"no choices":    {http.StatusOK, `{"choices":[]}`},
		"empty content": {http.StatusOK, `{"choices":[{"message":{"content":"  "}}]}`},
		"not json":      {http.StatusOK, `<html>gateway</html>`},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			}))
			defer server.Close()

			p := &openAIProvider{apiKey: "sk", model: "m", endpoint: server.URL, client: server.Client()}
			_, err := p.Generate(context.Background(), "sys", nil)
			assert.Error(t, err)
		})
	}
}

func TestDeepSeekProviderFallsThroughEndpointsAndModels(t *testing.T) {
	var calls []string
	failing := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "bad")
		w.WriteHeader(http.StatusNotFound)
	}))
	defer failing.Close()
	working := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls = append(calls, "good")
		_, _ = w.Write([]byte(`{"choices":[{"message":{"content":"woof"}}]}`))
	}))
	defer working.Close()

	p := &deepSeekProvider{
		apiKey:    "ds-test",
		models:    []string{"deepseek-reasoner", "deepseek-chat"},
		endpoints: []string{failing.URL, working.URL},
		client:    http.DefaultClient,
	}
	reply, err := p.Generate(context.Background(), "sys", []Message{{Role: RoleUser, Content: "hi"}})
	require.NoError(t, err)
	assert.Equal(t, "woof", reply)
	// Both models failed on the first endpoint before the second answered.
	assert.Equal(t, []string{"bad", "bad", "good"}, calls)
}

func TestGeminiProviderMapsRolesAndParts(t *testing.T) {
	var captured geminiRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "g-test", r.Header.Get("x-goog-api-key"))
		require.NoError(t, jsonDecode(r, &captured))
		_, _ = w.Write([]byte(`{"candidates":[{"content":{"parts":[{"text":"part one "},{"text":"part two"}]}}]}`))
	}))
	defer server.Close()

	p := &geminiProvider{apiKey: "g-test", model: "gemini-1.5-flash", endpoint: server.URL, client: server.Client()}
	reply, err := p.Generate(context.Background(), "be nice", []Message{
		{Role: RoleUser, Content: "hi"},
		{Role: RoleAssistant, Content: "hello"},
		{Role: RoleUser, Content: "when?"},
	})
	require.NoError(t, err)
	assert.Equal(t, "part one part two", reply)

	require.NotNil(t, captured.SystemInstruction)
	require.Len(t, captured.Contents, 3)
	assert.Equal(t, "user", captured.Contents[0].Role)
	assert.Equal(t, "model", captured.Contents[1].Role)
	assert.Equal(t, "user", captured.Contents[2].Role)
}

func TestBuildHistoryMapsSendersAndSkipsSystem(t *testing.T) {
	msgs := []*model.ChatMessage{
		{Sender: model.SenderUser, Message: "hi"},
		{Sender: model.SenderSystem, Message: "[AI is responding...]"},
		{Sender: model.SenderAdmin, Message: "hello!"},
		{Sender: model.SenderUser, Message: "prices?"},
	}
	history := BuildHistory(msgs)
	require.Len(t, history, 3)
	assert.Equal(t, RoleUser, history[0].Role)
	assert.Equal(t, RoleAssistant, history[1].Role)
	assert.Equal(t, "prices?", history[2].Content)
}

func TestBuildHistoryKeepsMostRecentTurns(t *testing.T) {
	var msgs []*model.ChatMessage
	for i := 0; i < 30; i++ {
		msgs = append(msgs, &model.ChatMessage{
			Sender:  model.SenderUser,
			Message: strings.Repeat("x", i+1),
		})
	}
	history := BuildHistory(msgs)
	require.Len(t, history, maxHistoryTurns)
	// The oldest turns fall off the front.
	assert.Len(t, history[0].Content, 30-maxHistoryTurns+1)
	assert.Len(t, history[len(history)-1].Content, 30)
}

func TestSystemPromptIncludesBusinessDescription(t *testing.T) {
	assert.NotContains(t, SystemPrompt(""), "Business details")
	prompt := SystemPrompt("Walks in Didsbury, £15/hour")
	assert.Contains(t, prompt, "Business details")
	assert.Contains(t, prompt, "£15/hour")
}

func TestTruncateNote(t *testing.T) {
	short := "openai: boom"
	assert.Equal(t, short, truncateNote(short))
	long := strings.Repeat("z", diagnosticLimit+50)
	assert.Len(t, truncateNote(long), diagnosticLimit)
}
