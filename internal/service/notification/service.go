package notification

import (
	"context"
	"encoding/json"
	"time"

	"github.com/rs/zerolog/log"
	"gopkg.in/gomail.v2"

	"github.com/happypaws/happypaws/internal/config"
	"github.com/happypaws/happypaws/internal/model"
	"github.com/happypaws/happypaws/internal/repository"
	apperrors "github.com/happypaws/happypaws/pkg/errors"
)

// unseenLimit caps how many notifications one dashboard poll drains.
const unseenLimit = 20

// activeVisitorWindow is how far back an event still counts towards the
// dashboard's 24h visitor counter.
const activeVisitorWindow = 24 * time.Hour

// Service records admin notifications, serves the dashboard counters and
// optionally mirrors alerts to email.
type Service struct {
	repo        repository.NotificationRepository
	chatRepo    repository.ChatRepository
	enquiryRepo repository.EnquiryRepository
	slotRepo    repository.SlotRepository
	eventRepo   repository.EventRepository
	smtp        config.SMTPConfig
	sendMail    func(m *gomail.Message) error
}

func NewService(
	repo repository.NotificationRepository,
	chatRepo repository.ChatRepository,
	enquiryRepo repository.EnquiryRepository,
	slotRepo repository.SlotRepository,
	eventRepo repository.EventRepository,
	smtp config.SMTPConfig,
) *Service {
	s := &Service{
		repo:        repo,
		chatRepo:    chatRepo,
		enquiryRepo: enquiryRepo,
		slotRepo:    slotRepo,
		eventRepo:   eventRepo,
		smtp:        smtp,
	}
	s.sendMail = func(m *gomail.Message) error {
		d := gomail.NewDialer(smtp.Host, smtp.Port, smtp.Username, smtp.Password)
		return d.DialAndSend(m)
	}
	return s
}

// Notify records an admin notification. Failures are logged, not
// propagated: a broken notification must never fail the visitor's send.
func (s *Service) Notify(ctx context.Context, typ model.NotificationType, chatID int64, messageID *int64, payload model.NotificationPayload) {
	raw, err := json.Marshal(payload)
	if err != nil {
		log.Error().Err(err).Msg("failed to encode notification payload")
		return
	}
	n := &model.AdminNotification{
		Type:      typ,
		ChatID:    chatID,
		MessageID: messageID,
		Payload:   string(raw),
		CreatedAt: time.Now().UTC(),
	}
	if err := s.repo.Create(ctx, n); err != nil {
		log.Error().Err(err).Str("type", string(typ)).Msg("failed to record admin notification")
		return
	}
	s.emailAlert(typ, payload)
}

// emailAlert mirrors the notification to staff email when SMTP is
// configured. Fire-and-forget; SMTP latency must not block the request.
func (s *Service) emailAlert(typ model.NotificationType, payload model.NotificationPayload) {
	if s.smtp.Host == "" || s.smtp.AlertTo == "" {
		return
	}
	m := gomail.NewMessage()
	m.SetHeader("From", s.smtp.From)
	m.SetHeader("To", s.smtp.AlertTo)
	switch typ {
	case model.NotificationNewChat:
		m.SetHeader("Subject", "Happy Paws: new chat started")
	default:
		m.SetHeader("Subject", "Happy Paws: new visitor message")
	}
	body := payload.Excerpt
	if payload.Name != "" {
		body = payload.Name + ": " + body
	}
	m.SetBody("text/plain", body)

	go func() {
		if err := s.sendMail(m); err != nil {
			log.Warn().Err(err).Msg("failed to send alert email")
		}
	}()
}

// NextUnseen returns up to 20 unseen notifications, oldest first, and
// marks them seen so the next poll starts after them.
func (s *Service) NextUnseen(ctx context.Context) ([]*model.AdminNotification, error) {
	notifications, err := s.repo.NextUnseen(ctx, unseenLimit)
	if err != nil {
		return nil, apperrors.Internal("failed to fetch notifications", err)
	}
	if len(notifications) == 0 {
		return []*model.AdminNotification{}, nil
	}
	ids := make([]int64, 0, len(notifications))
	for _, n := range notifications {
		ids = append(ids, n.ID)
	}
	if err := s.repo.MarkSeen(ctx, ids); err != nil {
		return nil, apperrors.Internal("failed to mark notifications seen", err)
	}
	return notifications, nil
}

// DashboardStats assembles the admin landing page counters.
func (s *Service) DashboardStats(ctx context.Context) (*model.DashboardStats, error) {
	openChats, err := s.chatRepo.CountOpen(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to count open chats", err)
	}
	newEnquiries, err := s.enquiryRepo.CountNew(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to count new enquiries", err)
	}
	pendingBookings, err := s.slotRepo.CountPendingBookings(ctx)
	if err != nil {
		return nil, apperrors.Internal("failed to count pending bookings", err)
	}
	activeVisitors, err := s.eventRepo.CountActiveSince(ctx, time.Now().UTC().Add(-activeVisitorWindow))
	if err != nil {
		return nil, apperrors.Internal("failed to count active visitors", err)
	}
	return &model.DashboardStats{
		OpenChats:       openChats,
		NewEnquiries:    newEnquiries,
		PendingBookings: pendingBookings,
		ActiveVisitors:  activeVisitors,
	}, nil
}
