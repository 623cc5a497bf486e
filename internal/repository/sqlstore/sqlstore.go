package sqlstore

import (
	"github.com/jmoiron/sqlx"

	"github.com/happypaws/happypaws/internal/repository"
)

type slotRepository struct {
	db *sqlx.DB
}

type chatRepository struct {
	db *sqlx.DB
}

type settingRepository struct {
	db *sqlx.DB
}

type enquiryRepository struct {
	db *sqlx.DB
}

type eventRepository struct {
	db *sqlx.DB
}

type insightRepository struct {
	db *sqlx.DB
}

type ipRepository struct {
	db *sqlx.DB
}

type contentRepository struct {
	db *sqlx.DB
}

type notificationRepository struct {
	db *sqlx.DB
}

func NewSlotRepository(db *sqlx.DB) repository.SlotRepository {
	return &slotRepository{db: db}
}

func NewChatRepository(db *sqlx.DB) repository.ChatRepository {
	return &chatRepository{db: db}
}

func NewSettingRepository(db *sqlx.DB) repository.SettingRepository {
	return &settingRepository{db: db}
}

func NewEnquiryRepository(db *sqlx.DB) repository.EnquiryRepository {
	return &enquiryRepository{db: db}
}

func NewEventRepository(db *sqlx.DB) repository.EventRepository {
	return &eventRepository{db: db}
}

func NewInsightRepository(db *sqlx.DB) repository.InsightRepository {
	return &insightRepository{db: db}
}

func NewIPRepository(db *sqlx.DB) repository.IPRepository {
	return &ipRepository{db: db}
}

func NewContentRepository(db *sqlx.DB) repository.ContentRepository {
	return &contentRepository{db: db}
}

func NewNotificationRepository(db *sqlx.DB) repository.NotificationRepository {
	return &notificationRepository{db: db}
}
