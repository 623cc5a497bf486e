package autopilot

import (
	"context"
	"net/http"
	"time"
)

// Message is one turn of provider-neutral conversation context.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Chat roles shared by the OpenAI-compatible providers.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// TextGenerationProvider generates a reply from a system prompt and
// conversation history. Implementations are constructed per request from
// the current credential snapshot and hold no long-lived state.
type TextGenerationProvider interface {
	Name() string
	Generate(ctx context.Context, system string, history []Message) (string, error)
}

// requestTimeout bounds each upstream HTTP call. A provider that hangs
// past this is treated as failed and the chain moves on.
const requestTimeout = 15 * time.Second

func newHTTPClient() *http.Client {
	return &http.Client{Timeout: requestTimeout}
}
