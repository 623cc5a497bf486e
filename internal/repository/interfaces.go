package repository

import (
	"context"
	"errors"
	"time"

	"github.com/happypaws/happypaws/internal/model"
)

// Sentinel errors surfaced as structured refusals, not failures.
var (
	// ErrSlotUnavailable means the slot is absent, marked unavailable, or
	// already at capacity. No rows were written.
	ErrSlotUnavailable = errors.New("slot unavailable")
	// ErrSlotHasBookings means deletion was refused because at least one
	// booking references the slot.
	ErrSlotHasBookings = errors.New("slot has bookings")
	ErrNotFound        = errors.New("not found")
)

// All repository interfaces in one file
type (
	// SlotRepository handles booking slots and the bookings made against
	// them. CreateBooking is the one operation whose atomicity is
	// load-bearing: the capacity check and increment run in a single
	// transaction.
	SlotRepository interface {
		Create(ctx context.Context, slot *model.BookingSlot) (int64, error)
		Get(ctx context.Context, id int64) (*model.BookingSlot, error)
		List(ctx context.Context) ([]*model.BookingSlot, error)
		ListByDate(ctx context.Context, date string) ([]*model.BookingSlot, error)
		// Delete refuses with ErrSlotHasBookings when any booking
		// references the slot, regardless of booking status.
		Delete(ctx context.Context, id int64) error
		// CreateBooking re-checks availability, inserts the booking and
		// increments booked_count in one transaction, flipping
		// is_available when capacity is reached. Returns
		// ErrSlotUnavailable with no writes on a full/absent slot.
		CreateBooking(ctx context.Context, booking *model.Booking) (int64, error)
		ListBookings(ctx context.Context) ([]*model.BookingDetail, error)
		UpdateBookingStatus(ctx context.Context, id int64, status model.BookingStatus) error
		CountPendingBookings(ctx context.Context) (int, error)
	}

	// ChatRepository handles chat sessions and their append-only message
	// feed. Message ids are monotonically increasing and double as the
	// polling cursor.
	ChatRepository interface {
		Create(ctx context.Context, chat *model.Chat) (int64, error)
		Get(ctx context.Context, id int64) (*model.Chat, error)
		LatestOpenBySID(ctx context.Context, sid string) (*model.Chat, error)
		List(ctx context.Context) ([]*model.Chat, error)
		ListByIP(ctx context.Context, ip string, excludeID int64) ([]*model.Chat, error)
		UpdateStatus(ctx context.Context, id int64, status model.ChatStatus) error
		CloseAll(ctx context.Context) error
		Delete(ctx context.Context, id int64) error
		// AddMessage inserts the message and bumps the chat's
		// last_activity in one transaction.
		AddMessage(ctx context.Context, msg *model.ChatMessage) (int64, error)
		Messages(ctx context.Context, chatID int64) ([]*model.ChatMessage, error)
		MessagesAfter(ctx context.Context, chatID, afterID int64) ([]*model.ChatMessage, error)
		CountOpen(ctx context.Context) (int, error)
	}

	SettingRepository interface {
		Get(ctx context.Context, key string) (string, error)
		Set(ctx context.Context, key, value string) error
	}

	EnquiryRepository interface {
		Create(ctx context.Context, enquiry *model.Enquiry) (int64, error)
		Get(ctx context.Context, id int64) (*model.Enquiry, error)
		List(ctx context.Context) ([]*model.Enquiry, error)
		Delete(ctx context.Context, id int64) error
		UpdateStatus(ctx context.Context, id int64, status model.EnquiryStatus) error
		SetVisitSummary(ctx context.Context, id int64, summary string) error
		CountNew(ctx context.Context) (int, error)
	}

	EventRepository interface {
		Create(ctx context.Context, event *model.Event) error
		LastForSID(ctx context.Context, sid string) (*model.Event, error)
		ListBySID(ctx context.Context, sid string, limit int) ([]*model.Event, error)
		ListVisitors(ctx context.Context) ([]*model.Visitor, error)
		Stats(ctx context.Context) (*model.VisitorStats, error)
		CountActiveSince(ctx context.Context, since time.Time) (int, error)
		DeleteBySID(ctx context.Context, sid string) error
	}

	InsightRepository interface {
		Get(ctx context.Context, sid string) (string, error)
		Set(ctx context.Context, sid, summary string) error
		Delete(ctx context.Context, sid string) error
	}

	IPRepository interface {
		RecordVisit(ctx context.Context, ip, userAgent string) error
		IsBlocked(ctx context.Context, ip string) (bool, error)
		List(ctx context.Context) ([]*model.IPRecord, error)
		SetBlocked(ctx context.Context, ip string, blocked bool) error
		Delete(ctx context.Context, ip string) error
	}

	ContentRepository interface {
		ListSection(ctx context.Context, section string) ([]*model.SiteContent, error)
		Upsert(ctx context.Context, content *model.SiteContent) error
		UpdateByID(ctx context.Context, id int64, title, content, price string) error
		ListServiceAreas(ctx context.Context) ([]*model.ServiceArea, error)
		CreateServiceArea(ctx context.Context, area *model.ServiceArea) error
		UpdateServiceArea(ctx context.Context, area *model.ServiceArea) error
		DeleteServiceArea(ctx context.Context, id int64) error
		ListHomepageSections(ctx context.Context) ([]*model.HomepageSection, error)
		GetHomepageSection(ctx context.Context, id int64) (*model.HomepageSection, error)
		UpdateHomepageSection(ctx context.Context, section *model.HomepageSection) error
	}

	NotificationRepository interface {
		Create(ctx context.Context, n *model.AdminNotification) error
		NextUnseen(ctx context.Context, limit int) ([]*model.AdminNotification, error)
		MarkSeen(ctx context.Context, ids []int64) error
	}
)
