package model

import "time"

type ChatStatus string

const (
	ChatStatusOpen   ChatStatus = "open"
	ChatStatusClosed ChatStatus = "closed"
)

// StaleAfter is the inactivity threshold past which an open chat is shown
// as "ended". Display-only; the persisted status is untouched and the chat
// still accepts messages.
const StaleAfter = 60 * time.Minute

type Chat struct {
	ID           int64      `db:"id" json:"id"`
	SID          string     `db:"sid" json:"sid"`
	Name         string     `db:"name" json:"name"`
	Status       ChatStatus `db:"status" json:"status"`
	CreatedAt    time.Time  `db:"created_at" json:"created_at"`
	LastActivity time.Time  `db:"last_activity" json:"last_activity"`
	IP           string     `db:"ip" json:"-"`
}

// Stale reports whether the chat should display as ended.
func (c *Chat) Stale(now time.Time) bool {
	return c.Status == ChatStatusOpen && now.Sub(c.LastActivity) > StaleAfter
}

// DisplayStatus is what the admin UI renders.
func (c *Chat) DisplayStatus(now time.Time) string {
	if c.Stale(now) {
		return "ended"
	}
	return string(c.Status)
}

type MessageSender string

const (
	SenderUser   MessageSender = "user"
	SenderAdmin  MessageSender = "admin"
	SenderSystem MessageSender = "system"
)

// MaxMessageLength is the stored body limit; longer bodies are truncated,
// never rejected.
const MaxMessageLength = 2000

type ChatMessage struct {
	ID        int64         `db:"id" json:"id"`
	ChatID    int64         `db:"chat_id" json:"chat_id"`
	Sender    MessageSender `db:"sender" json:"sender"`
	Message   string        `db:"message" json:"message"`
	CreatedAt time.Time     `db:"created_at" json:"created_at"`
}

type StartChatRequest struct {
	SID string `json:"sid"`
}

type SendMessageRequest struct {
	ChatID  int64  `json:"chat_id" binding:"required"`
	Message string `json:"message" binding:"required"`
	Sender  string `json:"sender"`
}

// ChatSummary is the admin list row with the derived display state.
type ChatSummary struct {
	Chat
	DisplayStatus string  `json:"display_status"`
	Stale         bool    `json:"stale"`
	AgeMinutes    float64 `json:"age_minutes"`
}

// ChatTranscript is a prior conversation surfaced for returning visitors.
type ChatTranscript struct {
	Chat
	Messages []*ChatMessage `json:"messages"`
}
