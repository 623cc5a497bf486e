package chat

import (
	"context"
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	"github.com/happypaws/happypaws/internal/service/autopilot"
	"github.com/happypaws/happypaws/internal/service/notification"
	"github.com/happypaws/happypaws/internal/service/settings"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

// typingIndicator is the system row inserted before the autopilot call so
// polling clients can show activity while the provider responds.
const typingIndicator = "[AI is responding...]"

// excerptLimit bounds the message preview stored in admin notifications.
const excerptLimit = 180

// Autopilot is the slice of the AI service the chat flow needs.
type Autopilot interface {
	Respond(ctx context.Context, cfg settings.ProviderConfig, system string, history []autopilot.Message) (string, []string)
}

type Service struct {
	repo     repository.ChatRepository
	settings *settings.Service
	pilot    Autopilot
	notifier *notification.Service
}

func NewService(repo repository.ChatRepository, settingsSvc *settings.Service, pilot Autopilot, notifier *notification.Service) *Service {
	return &Service{
		repo:     repo,
		settings: settingsSvc,
		pilot:    pilot,
		notifier: notifier,
	}
}

// StartChat returns the visitor's current conversation. A visitor with an
// open chat for their session id gets that chat back with its transcript;
// otherwise a new chat is created and staff are notified.
func (s *Service) StartChat(ctx context.Context, sid, ip string) (*model.ChatTranscript, error) {
	sid = strings.TrimSpace(sid)
	if sid != "" {
		existing, err := s.repo.LatestOpenBySID(ctx, sid)
		if err != nil && !errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.Internal("failed to look up chat", err)
		}
		if existing != nil {
			msgs, err := s.repo.Messages(ctx, existing.ID)
			if err != nil {
				return nil, apperrors.Internal("failed to load chat messages", err)
			}
			return &model.ChatTranscript{Chat: *existing, Messages: msgs}, nil
		}
	}
	if sid == "" {
		sid = uuid.New().String()
	}

	chat := &model.Chat{
		SID:          sid,
		Status:       model.ChatStatusOpen,
		CreatedAt:    time.Now().UTC(),
		LastActivity: time.Now().UTC(),
		IP:           ip,
	}
	id, err := s.repo.Create(ctx, chat)
	if err != nil {
		return nil, apperrors.Internal("failed to start chat", err)
	}
	chat.ID = id

	s.notifier.Notify(ctx, model.NotificationNewChat, id, nil, model.NotificationPayload{
		SID: sid,
	})
	log.Info().Int64("chat_id", id).Str("sid", sid).Msg("chat started")

	return &model.ChatTranscript{Chat: *chat, Messages: []*model.ChatMessage{}}, nil
}

// SendMessage stores the message and, for visitor messages, either invokes
// the autopilot or notifies staff. The visitor's message is durable once
// this returns, whatever the AI does afterwards.
func (s *Service) SendMessage(ctx context.Context, req *model.SendMessageRequest, isAdmin bool) (*model.ChatMessage, error) {
	chat, err := s.repo.Get(ctx, req.ChatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("chat not found", err)
		}
		return nil, apperrors.Internal("failed to load chat", err)
	}

	sender := model.SenderUser
	if req.Sender == string(model.SenderAdmin) {
		if !isAdmin {
			return nil, apperrors.Forbidden("admin sender requires admin authentication", nil)
		}
		sender = model.SenderAdmin
	}

	body := strings.TrimSpace(req.Message)
	if body == "" {
		return nil, apperrors.BadRequest("message is required", nil)
	}
	body = truncate(body, model.MaxMessageLength)

	msg := &model.ChatMessage{
		ChatID:    chat.ID,
		Sender:    sender,
		Message:   body,
		CreatedAt: time.Now().UTC(),
	}
	id, err := s.repo.AddMessage(ctx, msg)
	if err != nil {
		return nil, apperrors.Internal("failed to store message", err)
	}
	msg.ID = id

	if sender == model.SenderUser {
		if s.settings.AutopilotEnabled(ctx) {
			s.respondWithAutopilot(ctx, chat)
		} else {
			s.notifier.Notify(ctx, model.NotificationNewUserMessage, chat.ID, &msg.ID, model.NotificationPayload{
				Excerpt: excerpt(body),
				SID:     chat.SID,
				Name:    chat.Name,
			})
		}
	}

	return msg, nil
}

// respondWithAutopilot runs the provider chain and appends the reply. The
// visitor always receives an admin message, even when every provider
// fails or the chain panics.
func (s *Service) respondWithAutopilot(ctx context.Context, chat *model.Chat) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Int64("chat_id", chat.ID).Msg("autopilot panicked")
			s.appendSystem(ctx, chat.ID, "autopilot crashed, sent fallback reply")
			s.appendAdmin(ctx, chat.ID, autopilot.FallbackTechnicalIssue)
		}
	}()

	s.appendSystem(ctx, chat.ID, typingIndicator)

	msgs, err := s.repo.Messages(ctx, chat.ID)
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chat.ID).Msg("failed to load history for autopilot")
		s.appendAdmin(ctx, chat.ID, autopilot.FallbackTechnicalIssue)
		return
	}

	cfg := s.settings.ProviderConfig(ctx)
	system := autopilot.SystemPrompt(s.settings.BusinessDescription(ctx))
	reply, notes := s.pilot.Respond(ctx, cfg, system, autopilot.BuildHistory(msgs))

	for _, note := range notes {
		s.appendSystem(ctx, chat.ID, note)
	}
	if reply == "" {
		reply = autopilot.FallbackGreeting
	}
	s.appendAdmin(ctx, chat.ID, reply)
}

func (s *Service) appendAdmin(ctx context.Context, chatID int64, body string) {
	body = truncate(body, model.MaxMessageLength)
	_, err := s.repo.AddMessage(ctx, &model.ChatMessage{
		ChatID:    chatID,
		Sender:    model.SenderAdmin,
		Message:   body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to store autopilot reply")
	}
}

func (s *Service) appendSystem(ctx context.Context, chatID int64, body string) {
	_, err := s.repo.AddMessage(ctx, &model.ChatMessage{
		ChatID:    chatID,
		Sender:    model.SenderSystem,
		Message:   body,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		log.Error().Err(err).Int64("chat_id", chatID).Msg("failed to store system message")
	}
}

// PollMessages returns messages with id greater than afterID, oldest
// first, plus the chat's display state. Message ids are the cursor:
// clients pass the highest id they have seen.
func (s *Service) PollMessages(ctx context.Context, chatID, afterID int64) ([]*model.ChatMessage, string, error) {
	chat, err := s.repo.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", apperrors.NotFound("chat not found", err)
		}
		return nil, "", apperrors.Internal("failed to load chat", err)
	}
	msgs, err := s.repo.MessagesAfter(ctx, chatID, afterID)
	if err != nil {
		return nil, "", apperrors.Internal("failed to poll messages", err)
	}
	return msgs, chat.DisplayStatus(time.Now().UTC()), nil
}

// ListChats returns every chat for the admin view, open chats first, with
// the derived display state.
func (s *Service) ListChats(ctx context.Context) ([]*model.ChatSummary, error) {
	chats, err := s.repo.List(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to list chats", err)
	}
	now := time.Now().UTC()
	summaries := make([]*model.ChatSummary, 0, len(chats))
	for _, c := range chats {
		summaries = append(summaries, &model.ChatSummary{
			Chat:          *c,
			DisplayStatus: c.DisplayStatus(now),
			Stale:         c.Stale(now),
			AgeMinutes:    now.Sub(c.CreatedAt).Minutes(),
		})
	}
	return summaries, nil
}

// Transcript returns a chat with its full message history.
func (s *Service) Transcript(ctx context.Context, chatID int64) (*model.ChatTranscript, error) {
	chat, err := s.repo.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("chat not found", err)
		}
		return nil, apperrors.Internal("failed to load chat", err)
	}
	msgs, err := s.repo.Messages(ctx, chatID)
	if err != nil {
		return nil, apperrors.Internal("failed to load chat messages", err)
	}
	return &model.ChatTranscript{Chat: *chat, Messages: msgs}, nil
}

// RelatedByIP returns other chats from the same address, for context when
// reviewing a conversation.
func (s *Service) RelatedByIP(ctx context.Context, chatID int64) ([]*model.Chat, error) {
	chat, err := s.repo.Get(ctx, chatID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, apperrors.NotFound("chat not found", err)
		}
		return nil, apperrors.Internal("failed to load chat", err)
	}
	if chat.IP == "" {
		return []*model.Chat{}, nil
	}
	related, err := s.repo.ListByIP(ctx, chat.IP, chat.ID)
	if err != nil {
		return nil, apperrors.Internal("failed to list related chats", err)
	}
	return related, nil
}

func (s *Service) CloseChat(ctx context.Context, chatID int64) error {
	err := s.repo.UpdateStatus(ctx, chatID, model.ChatStatusClosed)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("chat not found", err)
	default:
		return apperrors.Internal("failed to close chat", err)
	}
}

func (s *Service) CloseAllChats(ctx context.Context) error {
	if err := s.repo.CloseAll(ctx); err != nil {
		return apperrors.Internal("failed to close chats", err)
	}
	return nil
}

func (s *Service) DeleteChat(ctx context.Context, chatID int64) error {
	err := s.repo.Delete(ctx, chatID)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, repository.ErrNotFound):
		return apperrors.NotFound("chat not found", err)
	default:
		return apperrors.Internal("failed to delete chat", err)
	}
}

func excerpt(body string) string {
	return truncate(body, excerptLimit)
}

// truncate caps s at limit characters. Message limits count characters,
// not bytes, so multibyte text is never cut mid-rune.
func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}
